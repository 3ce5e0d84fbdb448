package repository

import (
	"strings"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/pkg/logger"
	"gorm.io/gorm"
)

type SubmissionFilter struct {
	Status  string // PENDING / APPROVED / REJECTED, empty for all
	Query   string // case-insensitive substring on name/city/state/description
	OwnerID *uint
	Skip    int
	Limit   int
}

type SubmissionPage struct {
	Items []model.BusinessSubmission
	Total int64
}

type SubmissionRepository interface {
	Create(submission *model.BusinessSubmission) error
	Update(submission *model.BusinessSubmission) error
	FindByID(id uint) (*model.BusinessSubmission, error)
	FindForOwner(ownerID uint) ([]model.BusinessSubmission, error)
	FindPending() ([]model.BusinessSubmission, error)
	Search(filter SubmissionFilter) (*SubmissionPage, error)
	FindVetting(submissionID uint) (*model.BusinessVetting, error)
	UpdateVetting(vetting *model.BusinessVetting) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(submission *model.BusinessSubmission) error {
	logger.Debug("Creating submission in database", map[string]interface{}{
		"name":     submission.Name,
		"owner_id": submission.OwnerID,
	})

	if err := r.db.Create(submission).Error; err != nil {
		logger.Error("Failed to create submission in database", err, map[string]interface{}{
			"name":     submission.Name,
			"owner_id": submission.OwnerID,
		})
		return err
	}
	return nil
}

func (r *submissionRepository) Update(submission *model.BusinessSubmission) error {
	if err := r.db.Save(submission).Error; err != nil {
		logger.Error("Failed to update submission in database", err, map[string]interface{}{
			"submission_id": submission.ID,
		})
		return err
	}
	return nil
}

func (r *submissionRepository) FindByID(id uint) (*model.BusinessSubmission, error) {
	var submission model.BusinessSubmission
	if err := r.db.Preload("Vetting").First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) FindForOwner(ownerID uint) ([]model.BusinessSubmission, error) {
	var submissions []model.BusinessSubmission
	if err := r.db.
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		logger.Error("Failed to find submissions for owner", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) FindPending() ([]model.BusinessSubmission, error) {
	var submissions []model.BusinessSubmission
	if err := r.db.
		Where("status = ?", model.SubmissionPending).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		logger.Error("Failed to find pending submissions", err)
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) Search(filter SubmissionFilter) (*SubmissionPage, error) {
	query := r.db.Model(&model.BusinessSubmission{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(city) LIKE ? OR LOWER(state) LIKE ? OR LOWER(description) LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count submissions", err)
		return nil, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}

	var items []model.BusinessSubmission
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		logger.Error("Failed to search submissions", err)
		return nil, err
	}

	return &SubmissionPage{Items: items, Total: total}, nil
}

func (r *submissionRepository) FindVetting(submissionID uint) (*model.BusinessVetting, error) {
	var vetting model.BusinessVetting
	if err := r.db.Where("submission_id = ?", submissionID).First(&vetting).Error; err != nil {
		return nil, err
	}
	return &vetting, nil
}

func (r *submissionRepository) UpdateVetting(vetting *model.BusinessVetting) error {
	if err := r.db.Save(vetting).Error; err != nil {
		logger.Error("Failed to update vetting record", err, map[string]interface{}{
			"vetting_id": vetting.ID,
		})
		return err
	}
	return nil
}
