package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/internal/app/service"
	apperrors "github.com/bizcribe/bizcribe-backend/internal/errors"
	"github.com/bizcribe/bizcribe-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	submissionService service.SubmissionService
	authService       service.AuthService
}

func NewSubmissionController(submissionService service.SubmissionService, authService service.AuthService) *SubmissionController {
	return &SubmissionController{
		submissionService: submissionService,
		authService:       authService,
	}
}

// Create handles POST /submissions
func (ctrl *SubmissionController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid submission payload: "+err.Error())
		return
	}

	submission, err := ctrl.submissionService.Create(req.toInput(), userID)
	if err != nil {
		log.Error("Submission create failed", err, map[string]interface{}{
			"user_id": userID,
		})
		info := apperrors.ParseError(err, "submission")
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"submission": submission})
}

// Mine handles GET /submissions/mine
func (ctrl *SubmissionController) Mine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	submissions, err := ctrl.submissionService.ListForOwner(userID)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

// Get handles GET /submissions/:id. Visible to the owner and to admins.
func (ctrl *SubmissionController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	role, _ := middleware.GetUserRole(c)

	submission, err := ctrl.submissionService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			apperrors.NotFound(c, apperrors.SubmissionNotFound, "Submission not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	if submission.OwnerID != userID && role != model.RoleAdmin {
		apperrors.Forbidden(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": submission})
}

// Pending handles GET /submissions/pending (admin).
func (ctrl *SubmissionController) Pending(c *gin.Context) {
	submissions, err := ctrl.submissionService.ListPending()
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

// Search handles GET /submissions (admin): ?status=&q=&owner_id=&skip=&limit=.
func (ctrl *SubmissionController) Search(c *gin.Context) {
	opts := service.SubmissionSearchOptions{
		Status: strings.TrimSpace(c.Query("status")),
		Query:  strings.TrimSpace(c.Query("q")),
		Skip:   queryInt(c, "skip", 0),
		Limit:  queryInt(c, "limit", 50),
	}

	if raw := c.Query("owner_id"); raw != "" {
		ownerID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "owner_id must be an integer")
			return
		}
		id := uint(ownerID)
		opts.OwnerID = &id
	}

	page, err := ctrl.submissionService.Search(opts)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": page.Items,
		"total":       page.Total,
		"skip":        opts.Skip,
		"limit":       opts.Limit,
	})
}

// Approve handles POST /submissions/:id/approve (admin). Idempotent: at most
// one business is ever created per submission.
func (ctrl *SubmissionController) Approve(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reviewerID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	business, err := ctrl.submissionService.Approve(id, reviewerID)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			apperrors.NotFound(c, apperrors.SubmissionNotFound, "Submission not found")
			return
		}
		log.Error("Submission approve failed", err, map[string]interface{}{
			"submission_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": business})
}

type rejectRequest struct {
	Notes string `json:"notes"`
}

// Reject handles POST /submissions/:id/reject (admin). Rejecting a
// previously approved submission retracts the business it created.
func (ctrl *SubmissionController) Reject(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reviewerID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	// Notes are optional; an empty or missing body is fine.
	var req rejectRequest
	_ = c.ShouldBindJSON(&req)

	submission, err := ctrl.submissionService.Reject(id, reviewerID, req.Notes)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			apperrors.NotFound(c, apperrors.SubmissionNotFound, "Submission not found")
			return
		}
		log.Error("Submission reject failed", err, map[string]interface{}{
			"submission_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": submission})
}

// Delete handles DELETE /submissions/:id. Only the owner or an admin may
// delete; a business created from a prior approval stays listed.
func (ctrl *SubmissionController) Delete(c *gin.Context) {
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

	deleted, err := ctrl.submissionService.Delete(id, user)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	if !deleted {
		apperrors.Forbidden(c, "")
		return
	}

	c.Status(http.StatusNoContent)
}
