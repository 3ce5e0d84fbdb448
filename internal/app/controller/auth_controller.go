package controller

import (
	"errors"
	"net/http"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/internal/app/service"
	apperrors "github.com/bizcribe/bizcribe-backend/internal/errors"
	"github.com/bizcribe/bizcribe-backend/internal/middleware"
	"github.com/bizcribe/bizcribe-backend/pkg/util"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

type submissionRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	PhoneNumber string          `json:"phone_number"`
	Location    string          `json:"location"`
	Lat         *float64        `json:"lat"`
	Lng         *float64        `json:"lng"`
	Address1    string          `json:"address1"`
	City        string          `json:"city"`
	State       string          `json:"state"`
	Zip         string          `json:"zip"`
	HideAddress bool            `json:"hide_address"`
	Vetting     *vettingRequest `json:"vetting"`
}

type vettingRequest struct {
	Version int            `json:"version"`
	Answers datatypes.JSON `json:"answers" binding:"required"`
}

func (r *submissionRequest) toInput() service.SubmissionInput {
	input := service.SubmissionInput{
		Name:        r.Name,
		Description: r.Description,
		PhoneNumber: r.PhoneNumber,
		Location:    r.Location,
		Lat:         r.Lat,
		Lng:         r.Lng,
		Address1:    r.Address1,
		City:        r.City,
		State:       r.State,
		Zip:         r.Zip,
		HideAddress: r.HideAddress,
	}
	if r.Vetting != nil {
		input.VettingAnswers = r.Vetting.Answers
		input.VettingVersion = r.Vetting.Version
	}
	return input
}

type registerRequest struct {
	Email       string             `json:"email" binding:"required,email"`
	Password    string             `json:"password" binding:"required,min=8"`
	DisplayName string             `json:"display_name" binding:"required"`
	Role        string             `json:"role"`
	Submission  *submissionRequest `json:"submission"`
}

// Register handles POST /auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid registration payload: "+err.Error())
		return
	}

	input := service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        model.UserRole(req.Role),
	}
	if req.Submission != nil {
		sub := req.Submission.toInput()
		input.Submission = &sub
	}

	user, tokens, err := ctrl.authService.Register(input)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "An account with this email already exists")
			return
		}
		log.Error("Registration failed", err)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Email and password are required")
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
			return
		}
		log.Error("Login failed", err)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh handles POST /auth/refresh, rotating the token pair.
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "refresh_token is required")
		return
	}

	tokens, err := ctrl.authService.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, util.ErrInvalidToken) || errors.Is(err, util.ErrExpiredToken) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid refresh token")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Me handles GET /auth/me
func (ctrl *AuthController) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

type profileUpdateRequest struct {
	DisplayName *string `json:"display_name"`
	Password    *string `json:"password" binding:"omitempty,min=8"`
}

// UpdateProfile handles PATCH /auth/me
func (ctrl *AuthController) UpdateProfile(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid profile payload: "+err.Error())
		return
	}

	user, err := ctrl.authService.UpdateProfile(userID, service.ProfileUpdate{
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		log.Error("Profile update failed", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
