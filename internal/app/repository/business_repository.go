package repository

import (
	"errors"
	"strings"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/pkg/logger"
	"gorm.io/gorm"
)

// BoundingBox is a lat/lng rectangle used for spatial listing filters
type BoundingBox struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

type BusinessFilter struct {
	ApprovedOnly bool
	Search       string // case-insensitive substring on name
	BBox         *BoundingBox
	Page         int
	PageSize     int
}

type BusinessListResult struct {
	Businesses []model.Business
	TotalCount int64
}

type BusinessRepository interface {
	Create(business *model.Business) error
	Update(business *model.Business) error
	Delete(id uint) error
	FindByID(id uint) (*model.Business, error)
	FindAll(filter BusinessFilter) (*BusinessListResult, error)
	FindPending() ([]model.Business, error)
	FindForOwner(userID uint) ([]model.Business, error)
	FindDuplicate(name, address1, city, state, zip string) (*model.Business, error)
	CreateMembership(membership *model.BusinessMembership) error
	FindMembership(userID, businessID uint) (*model.BusinessMembership, error)
	BulkCreate(businesses []model.Business, batchSize int) error
}

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) Create(business *model.Business) error {
	logger.Debug("Creating business in database", map[string]interface{}{
		"name": business.Name,
		"city": business.City,
	})

	if err := r.db.Create(business).Error; err != nil {
		logger.Error("Failed to create business in database", err, map[string]interface{}{
			"name": business.Name,
		})
		return err
	}
	return nil
}

func (r *businessRepository) Update(business *model.Business) error {
	if err := r.db.Save(business).Error; err != nil {
		logger.Error("Failed to update business in database", err, map[string]interface{}{
			"business_id": business.ID,
		})
		return err
	}
	return nil
}

func (r *businessRepository) Delete(id uint) error {
	logger.Debug("Deleting business from database", map[string]interface{}{
		"business_id": id,
	})

	if err := r.db.Delete(&model.Business{}, id).Error; err != nil {
		logger.Error("Failed to delete business from database", err, map[string]interface{}{
			"business_id": id,
		})
		return err
	}
	return nil
}

func (r *businessRepository) FindByID(id uint) (*model.Business, error) {
	var business model.Business
	if err := r.db.First(&business, id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) FindAll(filter BusinessFilter) (*BusinessListResult, error) {
	query := r.db.Model(&model.Business{})

	if filter.ApprovedOnly {
		query = query.Where("is_approved = ?", true)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ?", like)
	}
	if filter.BBox != nil {
		query = query.
			Where("lat IS NOT NULL AND lng IS NOT NULL").
			Where("lat BETWEEN ? AND ?", filter.BBox.MinLat, filter.BBox.MaxLat).
			Where("lng BETWEEN ? AND ?", filter.BBox.MinLng, filter.BBox.MaxLng)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count businesses", err)
		return nil, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var businesses []model.Business
	if err := query.Order("name ASC").Find(&businesses).Error; err != nil {
		logger.Error("Failed to find businesses", err)
		return nil, err
	}

	return &BusinessListResult{Businesses: businesses, TotalCount: total}, nil
}

func (r *businessRepository) FindPending() ([]model.Business, error) {
	var businesses []model.Business
	if err := r.db.
		Where("is_approved = ?", false).
		Order("created_at DESC").
		Find(&businesses).Error; err != nil {
		logger.Error("Failed to find pending businesses", err)
		return nil, err
	}
	return businesses, nil
}

func (r *businessRepository) FindForOwner(userID uint) ([]model.Business, error) {
	var businesses []model.Business
	if err := r.db.
		Joins("JOIN business_memberships ON business_memberships.business_id = businesses.id").
		Where("business_memberships.user_id = ?", userID).
		Order("businesses.name ASC").
		Find(&businesses).Error; err != nil {
		logger.Error("Failed to find businesses for owner", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return businesses, nil
}

// FindDuplicate looks up an existing business considered "the same place":
// the name must match case-insensitively, and each populated address field
// narrows the match further. A row with no address at all matches by name
// only. Returns (nil, nil) when nothing matches.
func (r *businessRepository) FindDuplicate(name, address1, city, state, zip string) (*model.Business, error) {
	query := r.db.Model(&model.Business{}).Where("LOWER(name) = LOWER(?)", name)
	if address1 != "" {
		query = query.Where("LOWER(address1) = LOWER(?)", address1)
	}
	if city != "" {
		query = query.Where("LOWER(city) = LOWER(?)", city)
	}
	if state != "" {
		query = query.Where("LOWER(state) = LOWER(?)", state)
	}
	if zip != "" {
		query = query.Where("LOWER(zip) = LOWER(?)", zip)
	}

	var business model.Business
	if err := query.First(&business).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error("Failed to look up duplicate business", err, map[string]interface{}{
			"name": name,
		})
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) CreateMembership(membership *model.BusinessMembership) error {
	if err := r.db.Create(membership).Error; err != nil {
		logger.Error("Failed to create business membership", err, map[string]interface{}{
			"user_id":     membership.UserID,
			"business_id": membership.BusinessID,
		})
		return err
	}
	return nil
}

func (r *businessRepository) FindMembership(userID, businessID uint) (*model.BusinessMembership, error) {
	var membership model.BusinessMembership
	if err := r.db.
		Where("user_id = ? AND business_id = ?", userID, businessID).
		First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *businessRepository) BulkCreate(businesses []model.Business, batchSize int) error {
	logger.Info("Bulk creating businesses", map[string]interface{}{
		"count":      len(businesses),
		"batch_size": batchSize,
	})

	if err := r.db.CreateInBatches(businesses, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create businesses", err)
		return err
	}
	return nil
}
