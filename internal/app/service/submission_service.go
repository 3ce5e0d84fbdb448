package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/internal/app/repository"
	"github.com/bizcribe/bizcribe-backend/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
)

// SubmissionInput carries the fields of a new business submission
type SubmissionInput struct {
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

	// Optional vetting questionnaire, persisted atomically with the submission
	VettingAnswers datatypes.JSON
	VettingVersion int
}

type SubmissionSearchOptions struct {
	Status  string
	Query   string
	OwnerID *uint
	Skip    int
	Limit   int
}

type SubmissionService interface {
	Create(input SubmissionInput, ownerID uint) (*model.BusinessSubmission, error)
	GetByID(id uint) (*model.BusinessSubmission, error)
	ListForOwner(ownerID uint) ([]model.BusinessSubmission, error)
	ListPending() ([]model.BusinessSubmission, error)
	Search(opts SubmissionSearchOptions) (*repository.SubmissionPage, error)
	Approve(submissionID, reviewerID uint) (*model.Business, error)
	Reject(submissionID, reviewerID uint, notes string) (*model.BusinessSubmission, error)
	Delete(submissionID uint, actingUser *model.User) (bool, error)
}

type submissionService struct {
	db             *gorm.DB
	submissionRepo repository.SubmissionRepository
	businessRepo   repository.BusinessRepository
}

func NewSubmissionService(
	db *gorm.DB,
	submissionRepo repository.SubmissionRepository,
	businessRepo repository.BusinessRepository,
) SubmissionService {
	return &submissionService{
		db:             db,
		submissionRepo: submissionRepo,
		businessRepo:   businessRepo,
	}
}

// Create inserts a PENDING submission owned by ownerID. When vetting answers
// are supplied they are persisted in the same transaction. No field
// validation happens here; completeness is judged at review time.
func (s *submissionService) Create(input SubmissionInput, ownerID uint) (*model.BusinessSubmission, error) {
	logger.Info("Creating business submission", map[string]interface{}{
		"name":     input.Name,
		"owner_id": ownerID,
	})

	submission := &model.BusinessSubmission{
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: input.Description,
		PhoneNumber: input.PhoneNumber,
		Location:    input.Location,
		Lat:         input.Lat,
		Lng:         input.Lng,
		Address1:    input.Address1,
		City:        input.City,
		State:       input.State,
		Zip:         input.Zip,
		HideAddress: input.HideAddress,
		Status:      model.SubmissionPending,
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin transaction for submission create", tx.Error)
		return nil, tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic in submission create, transaction rolled back", fmt.Errorf("%v", r))
			panic(r)
		}
	}()

	if err := tx.Create(submission).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create submission", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, err
	}

	if len(input.VettingAnswers) > 0 {
		version := input.VettingVersion
		if version <= 0 {
			version = 1
		}
		vetting := &model.BusinessVetting{
			SubmissionID: submission.ID,
			UserID:       ownerID,
			Version:      version,
			Answers:      input.VettingAnswers,
		}
		if err := tx.Create(vetting).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to create vetting record", err, map[string]interface{}{
				"submission_id": submission.ID,
			})
			return nil, err
		}
		submission.Vetting = vetting
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit submission create transaction", err)
		return nil, err
	}

	logger.Info("Submission created", map[string]interface{}{
		"submission_id": submission.ID,
		"owner_id":      ownerID,
	})
	return submission, nil
}

func (s *submissionService) GetByID(id uint) (*model.BusinessSubmission, error) {
	submission, err := s.submissionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		logger.Error("Failed to fetch submission", err, map[string]interface{}{
			"submission_id": id,
		})
		return nil, err
	}
	return submission, nil
}

func (s *submissionService) ListForOwner(ownerID uint) ([]model.BusinessSubmission, error) {
	return s.submissionRepo.FindForOwner(ownerID)
}

func (s *submissionService) ListPending() ([]model.BusinessSubmission, error) {
	return s.submissionRepo.FindPending()
}

func (s *submissionService) Search(opts SubmissionSearchOptions) (*repository.SubmissionPage, error) {
	return s.submissionRepo.Search(repository.SubmissionFilter{
		Status:  opts.Status,
		Query:   opts.Query,
		OwnerID: opts.OwnerID,
		Skip:    opts.Skip,
		Limit:   opts.Limit,
	})
}

// Approve promotes a submission into a listed Business. A submission that
// already produced a Business only has its audit fields refreshed, so
// repeated approvals create exactly one business row.
func (s *submissionService) Approve(submissionID, reviewerID uint) (*model.Business, error) {
	logger.Info("Approving submission", map[string]interface{}{
		"submission_id": submissionID,
		"reviewer_id":   reviewerID,
	})

	submission, err := s.GetByID(submissionID)
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin transaction for submission approve", tx.Error)
		return nil, tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic in submission approve, transaction rolled back", fmt.Errorf("%v", r))
			panic(r)
		}
	}()

	now := time.Now()

	var business *model.Business
	if submission.CreatedBusinessID != nil {
		// Re-approval: refresh the existing business rather than creating
		// another one.
		var existing model.Business
		err := tx.First(&existing, *submission.CreatedBusinessID).Error
		switch {
		case err == nil:
			existing.IsApproved = true
			existing.ApprovedAt = &now
			existing.ApprovedByID = &reviewerID
			existing.HideAddress = submission.HideAddress
			if err := tx.Save(&existing).Error; err != nil {
				tx.Rollback()
				logger.Error("Failed to refresh business on re-approval", err, map[string]interface{}{
					"business_id": existing.ID,
				})
				return nil, err
			}
			business = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			// The linked business was deleted out of band; recreate it.
			business = nil
		default:
			tx.Rollback()
			return nil, err
		}
	}

	if business == nil {
		created := &model.Business{
			Name:         submission.Name,
			Description:  submission.Description,
			PhoneNumber:  submission.PhoneNumber,
			Location:     submission.Location,
			Lat:          submission.Lat,
			Lng:          submission.Lng,
			Address1:     submission.Address1,
			City:         submission.City,
			State:        submission.State,
			Zip:          submission.Zip,
			HideAddress:  submission.HideAddress,
			IsApproved:   true,
			ApprovedAt:   &now,
			ApprovedByID: &reviewerID,
			CreatedByID:  &submission.OwnerID,
		}
		if err := tx.Create(created).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to create business from submission", err, map[string]interface{}{
				"submission_id": submission.ID,
			})
			return nil, err
		}

		membership := &model.BusinessMembership{
			UserID:     submission.OwnerID,
			BusinessID: created.ID,
			Role:       model.MembershipOwner,
		}
		if err := tx.Create(membership).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to create owner membership", err, map[string]interface{}{
				"business_id": created.ID,
				"user_id":     submission.OwnerID,
			})
			return nil, err
		}

		business = created
	}

	// Attach the vetting record (orphaned or fresh) to the business.
	var vetting model.BusinessVetting
	err = tx.Where("submission_id = ?", submission.ID).First(&vetting).Error
	if err == nil && (vetting.BusinessID == nil || *vetting.BusinessID != business.ID) {
		vetting.BusinessID = &business.ID
		if err := tx.Save(&vetting).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to link vetting to business", err, map[string]interface{}{
				"vetting_id":  vetting.ID,
				"business_id": business.ID,
			})
			return nil, err
		}
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, err
	}

	submission.Status = model.SubmissionApproved
	submission.CreatedBusinessID = &business.ID
	submission.ReviewedAt = &now
	submission.ReviewedByID = &reviewerID
	submission.ReviewNotes = ""
	if err := tx.Save(submission).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to update submission after approval", err, map[string]interface{}{
			"submission_id": submission.ID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit submission approve transaction", err)
		return nil, err
	}

	logger.Info("Submission approved", map[string]interface{}{
		"submission_id": submission.ID,
		"business_id":   business.ID,
		"reviewer_id":   reviewerID,
	})
	return business, nil
}

// Reject marks a submission REJECTED. When an earlier approval created a
// business, rejection retracts it: the business is deleted and the
// submission's back-reference cleared. Re-rejecting only overwrites the
// notes and audit fields.
func (s *submissionService) Reject(submissionID, reviewerID uint, notes string) (*model.BusinessSubmission, error) {
	logger.Info("Rejecting submission", map[string]interface{}{
		"submission_id": submissionID,
		"reviewer_id":   reviewerID,
	})

	submission, err := s.GetByID(submissionID)
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin transaction for submission reject", tx.Error)
		return nil, tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic in submission reject, transaction rolled back", fmt.Errorf("%v", r))
			panic(r)
		}
	}()

	if submission.CreatedBusinessID != nil {
		if err := tx.Delete(&model.Business{}, *submission.CreatedBusinessID).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to retract business on rejection", err, map[string]interface{}{
				"business_id": *submission.CreatedBusinessID,
			})
			return nil, err
		}
		submission.CreatedBusinessID = nil
	}

	now := time.Now()
	submission.Status = model.SubmissionRejected
	submission.ReviewNotes = notes
	submission.ReviewedAt = &now
	submission.ReviewedByID = &reviewerID

	if err := tx.Save(submission).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to update submission after rejection", err, map[string]interface{}{
			"submission_id": submission.ID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit submission reject transaction", err)
		return nil, err
	}

	logger.Info("Submission rejected", map[string]interface{}{
		"submission_id": submission.ID,
		"reviewer_id":   reviewerID,
	})
	return submission, nil
}

// Delete removes a submission and its vetting row. Only the submission's
// owner or an admin may delete; anyone else gets (false, nil). A business
// created from an earlier approval is left untouched.
func (s *submissionService) Delete(submissionID uint, actingUser *model.User) (bool, error) {
	submission, err := s.submissionRepo.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if submission.OwnerID != actingUser.ID && !actingUser.IsAdmin() {
		logger.Warn("Submission delete not permitted", map[string]interface{}{
			"submission_id": submissionID,
			"acting_user":   actingUser.ID,
		})
		return false, nil
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return false, tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic in submission delete, transaction rolled back", fmt.Errorf("%v", r))
			panic(r)
		}
	}()

	if err := tx.Where("submission_id = ?", submissionID).Delete(&model.BusinessVetting{}).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to delete vetting for submission", err, map[string]interface{}{
			"submission_id": submissionID,
		})
		return false, err
	}

	if err := tx.Delete(&model.BusinessSubmission{}, submissionID).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to delete submission", err, map[string]interface{}{
			"submission_id": submissionID,
		})
		return false, err
	}

	if err := tx.Commit().Error; err != nil {
		return false, err
	}

	logger.Info("Submission deleted", map[string]interface{}{
		"submission_id": submissionID,
		"acting_user":   actingUser.ID,
	})
	return true, nil
}
