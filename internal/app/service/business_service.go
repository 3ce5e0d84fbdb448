package service

import (
	"errors"
	"time"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/internal/app/repository"
	"github.com/bizcribe/bizcribe-backend/pkg/logger"
	"github.com/bizcribe/bizcribe-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrBusinessNotFound    = errors.New("business not found")
	ErrBusinessNotApproved = errors.New("business not approved")
)

const defaultNearRadiusKm = 10.0

// NearFilter restricts a listing to businesses within RadiusKm of a point.
type NearFilter struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

type BusinessListOptions struct {
	Search   string
	BBox     *repository.BoundingBox
	Near     *NearFilter
	Page     int
	PageSize int
}

type BusinessInput struct {
	Name        string
	Description string
	PhoneNumber string
	Location    string
	Lat         *float64
	Lng         *float64
	Address1    string
	City        string
	State       string
	Zip         string
	HideAddress bool
}

type BusinessService interface {
	List(opts BusinessListOptions) (*repository.BusinessListResult, error)
	GetByID(id uint, includeUnapproved bool) (*model.Business, error)
	ListPending() ([]model.Business, error)
	ListForOwner(userID uint) ([]model.Business, error)
	AdminCreate(input BusinessInput, adminID uint) (*model.Business, error)
	Approve(businessID, adminID uint) (*model.Business, error)
	Delete(businessID uint, actingUser *model.User) (bool, error)
}

type businessService struct {
	businessRepo repository.BusinessRepository
}

func NewBusinessService(businessRepo repository.BusinessRepository) BusinessService {
	return &businessService{businessRepo: businessRepo}
}

// List returns approved businesses, optionally narrowed by a text search, a
// bounding box or a radius around a point. Businesses without coordinates
// never match a spatial filter.
func (s *businessService) List(opts BusinessListOptions) (*repository.BusinessListResult, error) {
	filter := repository.BusinessFilter{
		ApprovedOnly: true,
		Search:       opts.Search,
		BBox:         opts.BBox,
		Page:         opts.Page,
		PageSize:     opts.PageSize,
	}

	if opts.Near == nil {
		return s.businessRepo.FindAll(filter)
	}

	// Radius filtering is done in memory over the non-spatial result set;
	// the directory is small enough that this beats maintaining PostGIS.
	unpaged := filter
	unpaged.Page = 0
	unpaged.PageSize = 0
	result, err := s.businessRepo.FindAll(unpaged)
	if err != nil {
		return nil, err
	}

	radius := opts.Near.RadiusKm
	if radius <= 0 {
		radius = defaultNearRadiusKm
	}

	var within []model.Business
	for _, b := range result.Businesses {
		if !b.HasCoordinates() {
			continue
		}
		d := util.CalculateDistance(opts.Near.Lat, opts.Near.Lng, *b.Lat, *b.Lng)
		if d <= radius {
			within = append(within, b)
		}
	}

	total := int64(len(within))
	if opts.Page > 0 && opts.PageSize > 0 {
		start := (opts.Page - 1) * opts.PageSize
		if start > len(within) {
			start = len(within)
		}
		end := start + opts.PageSize
		if end > len(within) {
			end = len(within)
		}
		within = within[start:end]
	}

	return &repository.BusinessListResult{Businesses: within, TotalCount: total}, nil
}

// GetByID fetches one business. Public callers only see approved listings;
// admins pass includeUnapproved to inspect anything.
func (s *businessService) GetByID(id uint, includeUnapproved bool) (*model.Business, error) {
	business, err := s.businessRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}

	if !business.IsApproved && !includeUnapproved {
		return nil, ErrBusinessNotFound
	}
	return business, nil
}

func (s *businessService) ListPending() ([]model.Business, error) {
	return s.businessRepo.FindPending()
}

func (s *businessService) ListForOwner(userID uint) ([]model.Business, error) {
	return s.businessRepo.FindForOwner(userID)
}

// AdminCreate inserts a pre-approved business directly, bypassing the
// submission flow.
func (s *businessService) AdminCreate(input BusinessInput, adminID uint) (*model.Business, error) {
	now := time.Now()
	business := &model.Business{
		Name:         input.Name,
		Description:  input.Description,
		PhoneNumber:  input.PhoneNumber,
		Location:     input.Location,
		Lat:          input.Lat,
		Lng:          input.Lng,
		Address1:     input.Address1,
		City:         input.City,
		State:        input.State,
		Zip:          input.Zip,
		HideAddress:  input.HideAddress,
		IsApproved:   true,
		ApprovedAt:   &now,
		ApprovedByID: &adminID,
		CreatedByID:  &adminID,
	}

	if err := s.businessRepo.Create(business); err != nil {
		return nil, err
	}

	logger.Info("Business created by admin", map[string]interface{}{
		"business_id": business.ID,
		"admin_id":    adminID,
	})
	return business, nil
}

// Approve flips an unapproved business to approved. Already approved
// businesses only get their audit fields refreshed.
func (s *businessService) Approve(businessID, adminID uint) (*model.Business, error) {
	business, err := s.GetByID(businessID, true)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	business.IsApproved = true
	business.ApprovedAt = &now
	business.ApprovedByID = &adminID

	if err := s.businessRepo.Update(business); err != nil {
		return nil, err
	}

	logger.Info("Business approved", map[string]interface{}{
		"business_id": businessID,
		"admin_id":    adminID,
	})
	return business, nil
}

// Delete removes a business. Admins may always delete; otherwise the acting
// user needs an OWNER or MANAGER membership. Returns (false, nil) when the
// caller lacks permission.
func (s *businessService) Delete(businessID uint, actingUser *model.User) (bool, error) {
	if _, err := s.GetByID(businessID, true); err != nil {
		if errors.Is(err, ErrBusinessNotFound) {
			return false, ErrBusinessNotFound
		}
		return false, err
	}

	if !actingUser.IsAdmin() {
		membership, err := s.businessRepo.FindMembership(actingUser.ID, businessID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		if !membership.CanManage() {
			logger.Warn("Business delete not permitted", map[string]interface{}{
				"business_id": businessID,
				"user_id":     actingUser.ID,
				"role":        membership.Role,
			})
			return false, nil
		}
	}

	if err := s.businessRepo.Delete(businessID); err != nil {
		return false, err
	}

	logger.Info("Business deleted", map[string]interface{}{
		"business_id": businessID,
		"user_id":     actingUser.ID,
	})
	return true, nil
}
