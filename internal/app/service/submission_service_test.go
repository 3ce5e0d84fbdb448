package service

import (
	"testing"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/internal/app/repository"
	"github.com/bizcribe/bizcribe-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupSubmissionServiceTest(t *testing.T) (SubmissionService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	submissionRepo := repository.NewSubmissionRepository(testDB)
	businessRepo := repository.NewBusinessRepository(testDB)
	return NewSubmissionService(testDB, submissionRepo, businessRepo), testDB
}

func createTestUser(t *testing.T, testDB *gorm.DB, email string, role model.UserRole) *model.User {
	user := &model.User{
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  "Test User",
		Role:         role,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func submissionInput() SubmissionInput {
	return SubmissionInput{
		Name:        "Joe's Diner",
		Description: "Classic diner",
		PhoneNumber: "555-0100",
		Address1:    "12 Main St",
		City:        "Springfield",
		State:       "IL",
		Zip:         "62701",
		Lat:         floatPtr(40.7),
		Lng:         floatPtr(-74.0),
	}
}

func TestSubmissionService_Create(t *testing.T) {
	svc, testDB := setupSubmissionServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleBusiness)

	input := submissionInput()
	input.VettingAnswers = datatypes.JSON(`{"owns_business": true}`)
	input.VettingVersion = 2

	submission, err := svc.Create(input, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionPending, submission.Status)
	assert.Equal(t, owner.ID, submission.OwnerID)

	var vetting model.BusinessVetting
	require.NoError(t, testDB.Where("submission_id = ?", submission.ID).First(&vetting).Error)
	assert.Equal(t, 2, vetting.Version)
	assert.Nil(t, vetting.BusinessID)
}

func TestSubmissionService_Approve(t *testing.T) {
	svc, testDB := setupSubmissionServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleBusiness)
	admin := createTestUser(t, testDB, "admin@example.com", model.RoleAdmin)

	input := submissionInput()
	input.VettingAnswers = datatypes.JSON(`{"owns_business": true}`)
	submission, err := svc.Create(input, owner.ID)
	require.NoError(t, err)

	business, err := svc.Approve(submission.ID, admin.ID)
	require.NoError(t, err)
	assert.True(t, business.IsApproved)
	assert.Equal(t, "Joe's Diner", business.Name)
	assert.Equal(t, admin.ID, *business.ApprovedByID)
	assert.Equal(t, owner.ID, *business.CreatedByID)

	var got model.BusinessSubmission
	require.NoError(t, testDB.First(&got, submission.ID).Error)
	assert.Equal(t, model.SubmissionApproved, got.Status)
	assert.Equal(t, business.ID, *got.CreatedBusinessID)
	assert.Empty(t, got.ReviewNotes)

	// Vetting is linked to the new business.
	var vetting model.BusinessVetting
	require.NoError(t, testDB.Where("submission_id = ?", submission.ID).First(&vetting).Error)
	assert.Equal(t, business.ID, *vetting.BusinessID)

	// The owner gets an OWNER membership.
	var membership model.BusinessMembership
	require.NoError(t, testDB.Where("user_id = ? AND business_id = ?", owner.ID, business.ID).First(&membership).Error)
	assert.Equal(t, model.MembershipOwner, membership.Role)
}

func TestSubmissionService_Approve_Idempotent(t *testing.T) {
	svc, testDB := setupSubmissionServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleBusiness)
	admin := createTestUser(t, testDB, "admin@example.com", model.RoleAdmin)

	submission, err := svc.Create(submissionInput(), owner.ID)
	require.NoError(t, err)

	first, err := svc.Approve(submission.ID, admin.ID)
	require.NoError(t, err)

	second, err := svc.Approve(submission.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Exactly one business row exists.
	var count int64
	testDB.Model(&model.Business{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubmissionService_Reject(t *testing.T) {
	svc, testDB := setupSubmissionServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleBusiness)
	admin := createTestUser(t, testDB, "admin@example.com", model.RoleAdmin)

	submission, err := svc.Create(submissionInput(), owner.ID)
	require.NoError(t, err)

	rejected, err := svc.Reject(submission.ID, admin.ID, "Incomplete address")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionRejected, rejected.Status)
	assert.Equal(t, "Incomplete address", rejected.ReviewNotes)
	assert.Equal(t, admin.ID, *rejected.ReviewedByID)
}

func TestSubmissionService_Reject_RetractsBusiness(t *testing.T) {
	svc, testDB := setupSubmissionServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleBusiness)
	admin := createTestUser(t, testDB, "admin@example.com", model.RoleAdmin)

	submission, err := svc.Create(submissionInput(), owner.ID)
	require.NoError(t, err)

	business, err := svc.Approve(submission.ID, admin.ID)
	require.NoError(t, err)

	rejected, err := svc.Reject(submission.ID, admin.ID, "Changed our mind")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionRejected, rejected.Status)
	assert.Nil(t, rejected.CreatedBusinessID)

	// The created business is gone from listings.
	var count int64
	testDB.Model(&model.Business{}).Where("id = ?", business.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestSubmissionService_ApproveAfterReject(t *testing.T) {
	svc, testDB := setupSubmissionServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleBusiness)
	admin := createTestUser(t, testDB, "admin@example.com", model.RoleAdmin)

	submission, err := svc.Create(submissionInput(), owner.ID)
	require.NoError(t, err)

	_, err = svc.Reject(submission.ID, admin.ID, "Not yet")
	require.NoError(t, err)

	business, err := svc.Approve(submission.ID, admin.ID)
	require.NoError(t, err)
	assert.True(t, business.IsApproved)

	var got model.BusinessSubmission
	require.NoError(t, testDB.First(&got, submission.ID).Error)
	assert.Equal(t, model.SubmissionApproved, got.Status)
	assert.Empty(t, got.ReviewNotes) // rejection notes cleared on approval
}

func TestSubmissionService_Delete(t *testing.T) {
	svc, testDB := setupSubmissionServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleBusiness)
	stranger := createTestUser(t, testDB, "stranger@example.com", model.RoleUser)
	admin := createTestUser(t, testDB, "admin@example.com", model.RoleAdmin)

	input := submissionInput()
	input.VettingAnswers = datatypes.JSON(`{"owns_business": true}`)
	submission, err := svc.Create(input, owner.ID)
	require.NoError(t, err)

	// A stranger may not delete.
	deleted, err := svc.Delete(submission.ID, stranger)
	require.NoError(t, err)
	assert.False(t, deleted)

	// The owner may.
	deleted, err = svc.Delete(submission.ID, owner)
	require.NoError(t, err)
	assert.True(t, deleted)

	// The vetting row went with it.
	var count int64
	testDB.Model(&model.BusinessVetting{}).Where("submission_id = ?", submission.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	// Admins may delete any submission.
	other, err := svc.Create(submissionInput(), owner.ID)
	require.NoError(t, err)
	deleted, err = svc.Delete(other.ID, admin)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Deleting a missing submission reports not permitted.
	deleted, err = svc.Delete(9999, admin)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSubmissionService_Delete_KeepsCreatedBusiness(t *testing.T) {
	svc, testDB := setupSubmissionServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleBusiness)
	admin := createTestUser(t, testDB, "admin@example.com", model.RoleAdmin)

	submission, err := svc.Create(submissionInput(), owner.ID)
	require.NoError(t, err)

	business, err := svc.Approve(submission.ID, admin.ID)
	require.NoError(t, err)

	deleted, err := svc.Delete(submission.ID, owner)
	require.NoError(t, err)
	assert.True(t, deleted)

	// The approved listing survives the submission's deletion.
	var count int64
	testDB.Model(&model.Business{}).Where("id = ?", business.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubmissionService_Search(t *testing.T) {
	svc, testDB := setupSubmissionServiceTest(t)
	owner := createTestUser(t, testDB, "owner@example.com", model.RoleBusiness)
	other := createTestUser(t, testDB, "other@example.com", model.RoleBusiness)
	admin := createTestUser(t, testDB, "admin@example.com", model.RoleAdmin)

	first := submissionInput()
	_, err := svc.Create(first, owner.ID)
	require.NoError(t, err)

	second := submissionInput()
	second.Name = "Book Nook"
	second.City = "Shelbyville"
	sub2, err := svc.Create(second, other.ID)
	require.NoError(t, err)

	_, err = svc.Approve(sub2.ID, admin.ID)
	require.NoError(t, err)

	// Case-insensitive substring across name, city, state, description.
	page, err := svc.Search(SubmissionSearchOptions{Query: "shelby"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, "Book Nook", page.Items[0].Name)

	// Status filter.
	page, err = svc.Search(SubmissionSearchOptions{Status: string(model.SubmissionPending)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	// Owner filter.
	page, err = svc.Search(SubmissionSearchOptions{OwnerID: &owner.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	// Pagination.
	page, err = svc.Search(SubmissionSearchOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 1)
}
