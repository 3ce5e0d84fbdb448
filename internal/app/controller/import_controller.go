package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bizcribe/bizcribe-backend/internal/app/service"
	apperrors "github.com/bizcribe/bizcribe-backend/internal/errors"
	"github.com/bizcribe/bizcribe-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 20 << 20 // 20 MiB

type ImportController struct {
	importService service.ImportService
}

func NewImportController(importService service.ImportService) *ImportController {
	return &ImportController{importService: importService}
}

// Upload handles POST /imports (admin): a multipart CSV upload that becomes
// a new batch.
func (ctrl *ImportController) Upload(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "A file upload named 'file' is required")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "File exceeds the 20 MiB upload limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}

	uploaderID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	summary, err := ctrl.importService.Ingest(c.Request.Context(), fileHeader.Filename, data, uploaderID)
	if err != nil {
		if errors.Is(err, service.ErrNotCSV) || errors.Is(err, service.ErrMissingColumns) {
			apperrors.BadRequest(c, apperrors.ImportInvalidCSV, err.Error())
			return
		}
		log.Error("Import ingest failed", err, map[string]interface{}{
			"filename": fileHeader.Filename,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// ListBatches handles GET /imports/batches (admin).
func (ctrl *ImportController) ListBatches(c *gin.Context) {
	summaries, err := ctrl.importService.ListBatches()
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": summaries})
}

// GetBatch handles GET /imports/batches/:id (admin).
func (ctrl *ImportController) GetBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := ctrl.importService.GetBatch(id)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			apperrors.NotFound(c, apperrors.ImportBatchNotFound, "Import batch not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ApproveAll handles POST /imports/batches/:id/approve-all (admin).
func (ctrl *ImportController) ApproveAll(c *gin.Context) {
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

	summary, err := ctrl.importService.ApproveAll(id, reviewerID)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			apperrors.NotFound(c, apperrors.ImportBatchNotFound, "Import batch not found")
			return
		}
		log.Error("Import approve-all failed", err, map[string]interface{}{
			"batch_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, summary)
}

type itemSelectionRequest struct {
	ItemIDs []uint `json:"item_ids" binding:"required,min=1"`
}

// ApproveSelected handles POST /imports/batches/:id/approve (admin).
func (ctrl *ImportController) ApproveSelected(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reviewerID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req itemSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "item_ids is required")
		return
	}

	summary, err := ctrl.importService.ApproveSelected(id, req.ItemIDs, reviewerID)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			apperrors.NotFound(c, apperrors.ImportBatchNotFound, "Import batch not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RejectSelected handles POST /imports/batches/:id/reject (admin).
func (ctrl *ImportController) RejectSelected(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req itemSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "item_ids is required")
		return
	}

	summary, err := ctrl.importService.RejectSelected(id, req.ItemIDs)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			apperrors.NotFound(c, apperrors.ImportBatchNotFound, "Import batch not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Regeocode handles POST /imports/items/:id/regeocode (admin).
func (ctrl *ImportController) Regeocode(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := ctrl.importService.Regeocode(c.Request.Context(), id)
	if err != nil {
		ctrl.respondItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// itemUpdateRequest uses RawMessage for the coordinates so a client can
// distinguish "leave unchanged" (omitted) from "clear" (null).
type itemUpdateRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	PhoneNumber *string         `json:"phone_number"`
	Location    *string         `json:"location"`
	Address1    *string         `json:"address1"`
	City        *string         `json:"city"`
	State       *string         `json:"state"`
	Zip         *string         `json:"zip"`
	Lat         json.RawMessage `json:"lat"`
	Lng         json.RawMessage `json:"lng"`
}

// UpdateItem handles PATCH /imports/items/:id (admin).
func (ctrl *ImportController) UpdateItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req itemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid item payload: "+err.Error())
		return
	}

	update := service.ItemUpdate{
		Name:        req.Name,
		Description: req.Description,
		PhoneNumber: req.PhoneNumber,
		Location:    req.Location,
		Address1:    req.Address1,
		City:        req.City,
		State:       req.State,
		Zip:         req.Zip,
		Lat:         parseOptionalFloat(req.Lat),
		Lng:         parseOptionalFloat(req.Lng),
	}

	item, err := ctrl.importService.UpdateItem(id, update)
	if err != nil {
		ctrl.respondItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// RejectItem handles POST /imports/items/:id/reject (admin).
func (ctrl *ImportController) RejectItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := ctrl.importService.RejectItem(id)
	if err != nil {
		ctrl.respondItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

type mergeRequest struct {
	TargetBusinessID uint `json:"target_business_id"`
}

// Merge handles POST /imports/items/:id/merge (admin). Without an explicit
// target the recorded duplicate match is used.
func (ctrl *ImportController) Merge(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req mergeRequest
	_ = c.ShouldBindJSON(&req)

	item, err := ctrl.importService.Merge(id, req.TargetBusinessID)
	if err != nil {
		if errors.Is(err, service.ErrMergeTargetInvalid) || errors.Is(err, service.ErrNoDuplicateMatch) {
			apperrors.BadRequest(c, apperrors.ImportMergeTargetBad, err.Error())
			return
		}
		ctrl.respondItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// Export handles GET /imports/batches/:id/export (admin), streaming the
// batch as an xlsx workbook.
func (ctrl *ImportController) Export(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	data, filename, err := ctrl.importService.ExportBatch(id)
	if err != nil {
		if errors.Is(err, service.ErrBatchNotFound) {
			apperrors.NotFound(c, apperrors.ImportBatchNotFound, "Import batch not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (ctrl *ImportController) respondItemError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		apperrors.NotFound(c, apperrors.ImportItemNotFound, "Import item not found")
	case errors.Is(err, service.ErrItemFinalized):
		apperrors.Conflict(c, apperrors.ImportItemFinalized, "Import item is already finalized")
	default:
		info := apperrors.ParseError(err, "item")
		apperrors.RespondWithError(c, http.StatusInternalServerError, info.Code, info.Message)
	}
}

// parseOptionalFloat maps a raw JSON value to an optional coordinate.
// Omitted fields stay unset; null clears; numbers and numeric strings set a
// value; anything unparsable clears, matching how CSV cells are treated.
func parseOptionalFloat(raw json.RawMessage) service.OptionalFloat {
	if len(raw) == 0 {
		return service.OptionalFloat{}
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return service.OptionalFloat{Set: true}
	}

	unquoted := strings.Trim(trimmed, `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(unquoted), 64)
	if err != nil {
		return service.OptionalFloat{Set: true}
	}
	return service.OptionalFloat{Set: true, Value: &v}
}
