package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/internal/app/repository"
	"github.com/bizcribe/bizcribe-backend/internal/app/service"
	apperrors "github.com/bizcribe/bizcribe-backend/internal/errors"
	"github.com/bizcribe/bizcribe-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type BusinessController struct {
	businessService service.BusinessService
	authService     service.AuthService
}

func NewBusinessController(businessService service.BusinessService, authService service.AuthService) *BusinessController {
	return &BusinessController{
		businessService: businessService,
		authService:     authService,
	}
}

// List handles GET /businesses. Supports ?search=, ?bbox=minLng,minLat,maxLng,maxLat,
// ?near=lat,lng with ?radius_km=, and pagination.
func (ctrl *BusinessController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts := service.BusinessListOptions{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	if bbox := c.Query("bbox"); bbox != "" {
		parsed, err := parseBBox(bbox)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "bbox must be minLng,minLat,maxLng,maxLat")
			return
		}
		opts.BBox = parsed
	}

	if near := c.Query("near"); near != "" {
		parsed, err := parseNear(near)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "near must be lat,lng")
			return
		}
		if raw := c.Query("radius_km"); raw != "" {
			radius, err := strconv.ParseFloat(raw, 64)
			if err != nil || radius <= 0 {
				apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "radius_km must be a positive number")
				return
			}
			parsed.RadiusKm = radius
		}
		opts.Near = parsed
	}

	result, err := ctrl.businessService.List(opts)
	if err != nil {
		log.Error("Business listing failed", err)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"businesses":  result.Businesses,
		"total_count": result.TotalCount,
		"page":        opts.Page,
		"page_size":   opts.PageSize,
	})
}

// Get handles GET /businesses/:id. Unapproved listings are visible only to
// admins.
func (ctrl *BusinessController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	role, _ := middleware.GetUserRole(c)
	business, err := ctrl.businessService.GetByID(id, role == model.RoleAdmin)
	if err != nil {
		if errors.Is(err, service.ErrBusinessNotFound) {
			apperrors.NotFound(c, apperrors.BusinessNotFound, "Business not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": business})
}

// Pending handles GET /businesses/pending (admin).
func (ctrl *BusinessController) Pending(c *gin.Context) {
	businesses, err := ctrl.businessService.ListPending()
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"businesses": businesses})
}

// Mine handles GET /businesses/mine, listing businesses the caller manages.
func (ctrl *BusinessController) Mine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	businesses, err := ctrl.businessService.ListForOwner(userID)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"businesses": businesses})
}

type businessRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	PhoneNumber string   `json:"phone_number"`
	Location    string   `json:"location"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Address1    string   `json:"address1"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Zip         string   `json:"zip"`
	HideAddress bool     `json:"hide_address"`
}

// Create handles POST /businesses (admin): a pre-approved direct insert.
func (ctrl *BusinessController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	adminID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req businessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid business payload: "+err.Error())
		return
	}

	business, err := ctrl.businessService.AdminCreate(service.BusinessInput{
		Name:        req.Name,
		Description: req.Description,
		PhoneNumber: req.PhoneNumber,
		Location:    req.Location,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Address1:    req.Address1,
		City:        req.City,
		State:       req.State,
		Zip:         req.Zip,
		HideAddress: req.HideAddress,
	}, adminID)
	if err != nil {
		log.Error("Admin business create failed", err)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"business": business})
}

// Approve handles POST /businesses/:id/approve (admin).
func (ctrl *BusinessController) Approve(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	adminID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	business, err := ctrl.businessService.Approve(id, adminID)
	if err != nil {
		if errors.Is(err, service.ErrBusinessNotFound) {
			apperrors.NotFound(c, apperrors.BusinessNotFound, "Business not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": business})
}

// Delete handles DELETE /businesses/:id. Admins always may; others need an
// OWNER or MANAGER membership on the business.
func (ctrl *BusinessController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		apperrors.Unauthorized(c, "")
		return
	}

	deleted, err := ctrl.businessService.Delete(id, user)
	if err != nil {
		if errors.Is(err, service.ErrBusinessNotFound) {
			apperrors.NotFound(c, apperrors.BusinessNotFound, "Business not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}
	if !deleted {
		apperrors.Forbidden(c, "")
		return
	}

	c.Status(http.StatusNoContent)
}

// parseBBox parses "minLng,minLat,maxLng,maxLat".
func parseBBox(raw string) (*repository.BoundingBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, errors.New("bbox requires four comma-separated numbers")
	}

	values := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	return &repository.BoundingBox{
		MinLng: values[0],
		MinLat: values[1],
		MaxLng: values[2],
		MaxLat: values[3],
	}, nil
}

// parseNear parses "lat,lng".
func parseNear(raw string) (*service.NearFilter, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, errors.New("near requires two comma-separated numbers")
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, err
	}

	return &service.NearFilter{Lat: lat, Lng: lng}, nil
}
