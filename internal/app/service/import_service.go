package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/internal/app/repository"
	"github.com/bizcribe/bizcribe-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrNotCSV             = errors.New("CSV files only")
	ErrMissingColumns     = errors.New("missing required columns")
	ErrBatchNotFound      = errors.New("import batch not found")
	ErrItemNotFound       = errors.New("import item not found")
	ErrItemFinalized      = errors.New("import item already finalized")
	ErrMergeTargetInvalid = errors.New("merge target business not found")
	ErrNoDuplicateMatch   = errors.New("item has no duplicate match to merge into")
)

// requiredColumns are the headers every import CSV must carry.
var requiredColumns = []string{
	"name", "description", "phone_number", "location",
	"lat", "lng", "address1", "city", "state", "zip",
}

// Geocoder resolves a structured US address to coordinates. Lookups are
// best-effort: a failed or empty resolution returns (nil, nil).
type Geocoder interface {
	Lookup(ctx context.Context, address1, city, state, zip string) (*float64, *float64)
}

// UploadArchiver stores the raw upload for audit purposes and returns a
// stable URL. Archiving is optional and best-effort.
type UploadArchiver interface {
	Archive(ctx context.Context, filename string, data []byte) (string, error)
}

// BatchSummary is a batch plus its per-status item counts.
type BatchSummary struct {
	Batch            model.ImportBatch `json:"batch"`
	Ready            int64             `json:"ready"`
	NeedsGeocode     int64             `json:"needs_geocode"`
	NeedsFix         int64             `json:"needs_fix"`
	DuplicatePending int64             `json:"duplicate_pending"`
	Approved         int64             `json:"approved"`
	Rejected         int64             `json:"rejected"`
	Merged           int64             `json:"merged"`
}

// BatchDetail is a summary plus the batch's items in insertion order.
type BatchDetail struct {
	BatchSummary
	Items []model.ImportItem `json:"items"`
}

// ItemUpdate carries a partial edit of an import item. Nil string fields are
// left unchanged; an explicit empty string clears the field. Lat and Lng use
// OptionalFloat so "set to null" and "not provided" stay distinct.
type ItemUpdate struct {
	Name        *string
	Description *string
	PhoneNumber *string
	Location    *string
	Address1    *string
	City        *string
	State       *string
	Zip         *string
	Lat         OptionalFloat
	Lng         OptionalFloat
}

// OptionalFloat distinguishes an omitted coordinate from one explicitly set
// to a value or cleared to null.
type OptionalFloat struct {
	Set   bool
	Value *float64
}

type ImportService interface {
	Ingest(ctx context.Context, filename string, data []byte, uploaderID uint) (*BatchSummary, error)
	ListBatches() ([]BatchSummary, error)
	GetBatch(batchID uint) (*BatchDetail, error)
	ApproveAll(batchID, reviewerID uint) (*BatchSummary, error)
	ApproveSelected(batchID uint, itemIDs []uint, reviewerID uint) (*BatchSummary, error)
	RejectSelected(batchID uint, itemIDs []uint) (*BatchSummary, error)
	Regeocode(ctx context.Context, itemID uint) (*model.ImportItem, error)
	UpdateItem(itemID uint, update ItemUpdate) (*model.ImportItem, error)
	RejectItem(itemID uint) (*model.ImportItem, error)
	Merge(itemID, targetBusinessID uint) (*model.ImportItem, error)
	ExportBatch(batchID uint) ([]byte, string, error)
}

type importService struct {
	db           *gorm.DB
	importRepo   repository.ImportRepository
	businessRepo repository.BusinessRepository
	geocoder     Geocoder
	archiver     UploadArchiver // nil disables archiving
}

func NewImportService(
	db *gorm.DB,
	importRepo repository.ImportRepository,
	businessRepo repository.BusinessRepository,
	geocoder Geocoder,
	archiver UploadArchiver,
) ImportService {
	return &importService{
		db:           db,
		importRepo:   importRepo,
		businessRepo: businessRepo,
		geocoder:     geocoder,
		archiver:     archiver,
	}
}

// Ingest parses an uploaded CSV and creates a batch with one item per
// non-blank row, geocoding rows without coordinates and flagging duplicates
// against the existing directory and within the file itself. The batch and
// all of its items are created in a single transaction.
func (s *importService) Ingest(ctx context.Context, filename string, data []byte, uploaderID uint) (*BatchSummary, error) {
	if strings.ToLower(filepath.Ext(filename)) != ".csv" {
		return nil, ErrNotCSV
	}

	logger.Info("Ingesting import CSV", map[string]interface{}{
		"filename":    filename,
		"size_bytes":  len(data),
		"uploader_id": uploaderID,
	})

	text := strings.TrimPrefix(string(data), "\uFEFF") // tolerate a UTF-8 BOM
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	sourceURL := ""
	if s.archiver != nil {
		url, err := s.archiver.Archive(ctx, filename, data)
		if err != nil {
			logger.Warn("Failed to archive import upload", map[string]interface{}{
				"filename": filename,
				"error":    err.Error(),
			})
		} else {
			sourceURL = url
		}
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin transaction for import ingest", tx.Error)
		return nil, tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic in import ingest, transaction rolled back", fmt.Errorf("%v", r))
			panic(r)
		}
	}()

	batch := &model.ImportBatch{
		CreatedByID: uploaderID,
		SourceName:  filename,
		SourceURL:   sourceURL,
	}
	if err := tx.Create(batch).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create import batch", err)
		return nil, err
	}

	txBusinessRepo := repository.NewBusinessRepository(tx)

	cell := func(record []string, column string) string {
		idx := columns[column]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	seen := make(map[string]bool)
	var items []model.ImportItem

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			tx.Rollback()
			logger.Error("Failed to parse import CSV row", err, map[string]interface{}{
				"filename": filename,
			})
			return nil, fmt.Errorf("%w: malformed row", ErrMissingColumns)
		}

		name := cell(record, "name")
		if name == "" {
			continue // blank-name rows are skipped, not errored
		}

		item := model.ImportItem{
			BatchID:     batch.ID,
			Name:        name,
			Description: cell(record, "description"),
			PhoneNumber: cell(record, "phone_number"),
			Location:    cell(record, "location"),
			Address1:    cell(record, "address1"),
			City:        cell(record, "city"),
			State:       cell(record, "state"),
			Zip:         cell(record, "zip"),
			Lat:         parseCoordinate(cell(record, "lat")),
			Lng:         parseCoordinate(cell(record, "lng")),
		}
		if item.Location == "" {
			item.Location = buildLocation(item.Address1, item.City, item.State, item.Zip)
		}

		duplicate, err := txBusinessRepo.FindDuplicate(item.Name, item.Address1, item.City, item.State, item.Zip)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if duplicate != nil {
			item.DuplicateOfBusinessID = &duplicate.ID
		}

		if !item.HasCoordinates() {
			lat, lng := s.geocoder.Lookup(ctx, item.Address1, item.City, item.State, item.Zip)
			if lat != nil && lng != nil {
				item.Lat, item.Lng = lat, lng
			} else {
				item.ErrorMessage = model.MsgMissingCoordinates
			}
		}

		key := batchKey(item.Name, item.Address1, item.City, item.State, item.Zip)
		if seen[key] {
			item.ErrorMessage = model.MsgDuplicateInBatch
			item.Status = model.ImportDuplicatePending
		} else {
			seen[key] = true
			item.Status = model.DeriveItemStatus(item.DuplicateOfBusinessID != nil, item.Lat, item.Lng, item.ErrorMessage)
		}

		items = append(items, item)
	}

	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to create import items", err, map[string]interface{}{
				"batch_id": batch.ID,
			})
			return nil, err
		}
	}

	batch.TotalRows = len(items)
	if err := tx.Model(batch).Update("total_rows", batch.TotalRows).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit import ingest transaction", err)
		return nil, err
	}

	logger.Info("Import batch ingested", map[string]interface{}{
		"batch_id":   batch.ID,
		"total_rows": batch.TotalRows,
	})
	return s.summarize(batch)
}

func (s *importService) ListBatches() ([]BatchSummary, error) {
	batches, err := s.importRepo.FindAllBatches()
	if err != nil {
		return nil, err
	}

	summaries := make([]BatchSummary, 0, len(batches))
	for i := range batches {
		summary, err := s.summarize(&batches[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

func (s *importService) GetBatch(batchID uint) (*BatchDetail, error) {
	batch, err := s.importRepo.FindBatchByID(batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	summary, err := s.summarize(batch)
	if err != nil {
		return nil, err
	}

	items, err := s.importRepo.FindItemsByBatch(batchID)
	if err != nil {
		return nil, err
	}

	return &BatchDetail{BatchSummary: *summary, Items: items}, nil
}

// ApproveAll promotes every READY item in the batch to a Business. Items in
// any other status are untouched; the whole promotion is one transaction.
func (s *importService) ApproveAll(batchID, reviewerID uint) (*BatchSummary, error) {
	batch, err := s.importRepo.FindBatchByID(batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	items, err := s.importRepo.FindItemsByBatchAndStatus(batchID, model.ImportReady)
	if err != nil {
		return nil, err
	}

	logger.Info("Approving all ready import items", map[string]interface{}{
		"batch_id":    batchID,
		"ready_count": len(items),
		"reviewer_id": reviewerID,
	})

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic in import approve-all, transaction rolled back", fmt.Errorf("%v", r))
			panic(r)
		}
	}()

	for i := range items {
		if err := s.promoteItem(tx, &items[i], reviewerID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit import approve-all transaction", err)
		return nil, err
	}

	return s.summarize(batch)
}

// ApproveSelected promotes the chosen items where possible. Terminal items
// are skipped; items missing coordinates or carrying an unresolved duplicate
// match are demoted instead of promoted.
func (s *importService) ApproveSelected(batchID uint, itemIDs []uint, reviewerID uint) (*BatchSummary, error) {
	batch, err := s.importRepo.FindBatchByID(batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	items, err := s.importRepo.FindItemsByBatchAndIDs(batchID, itemIDs)
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic in import approve-selected, transaction rolled back", fmt.Errorf("%v", r))
			panic(r)
		}
	}()

	for i := range items {
		item := &items[i]
		if item.Status.Terminal() {
			continue
		}

		if !item.HasCoordinates() {
			item.Status = model.ImportNeedsFix
			item.ErrorMessage = model.MsgMissingCoordinates
		} else if item.DuplicateOfBusinessID != nil {
			item.Status = model.ImportDuplicatePending
		} else {
			if err := s.promoteItem(tx, item, reviewerID); err != nil {
				tx.Rollback()
				return nil, err
			}
			continue
		}

		if err := tx.Save(item).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit import approve-selected transaction", err)
		return nil, err
	}

	return s.summarize(batch)
}

// RejectSelected marks the chosen items REJECTED, skipping items that were
// already approved or merged. Re-rejecting a REJECTED item is harmless.
func (s *importService) RejectSelected(batchID uint, itemIDs []uint) (*BatchSummary, error) {
	batch, err := s.importRepo.FindBatchByID(batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	items, err := s.importRepo.FindItemsByBatchAndIDs(batchID, itemIDs)
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic in import reject-selected, transaction rolled back", fmt.Errorf("%v", r))
			panic(r)
		}
	}()

	for i := range items {
		item := &items[i]
		if item.Status == model.ImportApproved || item.Status == model.ImportMerged {
			continue
		}
		item.Status = model.ImportRejected
		item.ErrorMessage = ""
		if err := tx.Save(item).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit import reject-selected transaction", err)
		return nil, err
	}

	return s.summarize(batch)
}

// Regeocode retries coordinate resolution for one non-terminal item. Success
// updates coordinates, re-resolves the duplicate match and recomputes the
// status; failure records a geocoding error and parks the item in NEEDS_FIX.
func (s *importService) Regeocode(ctx context.Context, itemID uint) (*model.ImportItem, error) {
	item, err := s.getItem(itemID)
	if err != nil {
		return nil, err
	}
	if item.Status.Terminal() {
		return nil, ErrItemFinalized
	}

	lat, lng := s.geocoder.Lookup(ctx, item.Address1, item.City, item.State, item.Zip)
	if lat == nil || lng == nil {
		item.Status = model.ImportNeedsFix
		item.ErrorMessage = model.MsgGeocodingFailed
		if err := s.importRepo.UpdateItem(item); err != nil {
			return nil, err
		}
		logger.Warn("Regeocode failed for import item", map[string]interface{}{
			"item_id": itemID,
		})
		return item, nil
	}

	item.Lat, item.Lng = lat, lng
	item.ErrorMessage = ""
	if err := s.refreshDuplicate(item); err != nil {
		return nil, err
	}
	item.Status = model.DeriveItemStatus(item.DuplicateOfBusinessID != nil, item.Lat, item.Lng, item.ErrorMessage)

	if err := s.importRepo.UpdateItem(item); err != nil {
		return nil, err
	}

	logger.Info("Import item regeocoded", map[string]interface{}{
		"item_id": itemID,
		"status":  item.Status,
	})
	return item, nil
}

// UpdateItem applies a partial edit to a non-terminal item, then re-derives
// location, duplicate match and status. A NEEDS_FIX item keeps its recorded
// error only while the recomputed status is still NEEDS_FIX.
func (s *importService) UpdateItem(itemID uint, update ItemUpdate) (*model.ImportItem, error) {
	item, err := s.getItem(itemID)
	if err != nil {
		return nil, err
	}
	if item.Status.Terminal() {
		return nil, ErrItemFinalized
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	applyString(&item.Name, update.Name)
	applyString(&item.Description, update.Description)
	applyString(&item.PhoneNumber, update.PhoneNumber)
	applyString(&item.Location, update.Location)
	applyString(&item.Address1, update.Address1)
	applyString(&item.City, update.City)
	applyString(&item.State, update.State)
	applyString(&item.Zip, update.Zip)

	if update.Lat.Set {
		item.Lat = update.Lat.Value
	}
	if update.Lng.Set {
		item.Lng = update.Lng.Value
	}

	if item.Location == "" {
		item.Location = buildLocation(item.Address1, item.City, item.State, item.Zip)
	}

	if err := s.refreshDuplicate(item); err != nil {
		return nil, err
	}

	previousError := item.ErrorMessage
	item.Status = model.DeriveItemStatus(item.DuplicateOfBusinessID != nil, item.Lat, item.Lng, previousError)
	if item.Status != model.ImportNeedsFix {
		item.ErrorMessage = ""
	}

	if err := s.importRepo.UpdateItem(item); err != nil {
		return nil, err
	}

	logger.Info("Import item updated", map[string]interface{}{
		"item_id": itemID,
		"status":  item.Status,
	})
	return item, nil
}

// RejectItem discards a single item. Approved and merged items are
// immutable; rejecting an already rejected item is a no-op that succeeds.
func (s *importService) RejectItem(itemID uint) (*model.ImportItem, error) {
	item, err := s.getItem(itemID)
	if err != nil {
		return nil, err
	}
	if item.Status == model.ImportApproved || item.Status == model.ImportMerged {
		return nil, ErrItemFinalized
	}

	item.Status = model.ImportRejected
	item.ErrorMessage = ""
	if err := s.importRepo.UpdateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Merge folds a duplicate item into an existing business. The existing
// business's populated fields win; only empty fields on the business are
// filled from the item, and each coordinate is considered individually.
func (s *importService) Merge(itemID, targetBusinessID uint) (*model.ImportItem, error) {
	item, err := s.getItem(itemID)
	if err != nil {
		return nil, err
	}
	if item.Status.Terminal() {
		return nil, ErrItemFinalized
	}

	// Default to the recorded duplicate match when no explicit target is given.
	if targetBusinessID == 0 {
		if item.DuplicateOfBusinessID == nil {
			return nil, ErrNoDuplicateMatch
		}
		targetBusinessID = *item.DuplicateOfBusinessID
	}

	target, err := s.businessRepo.FindByID(targetBusinessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMergeTargetInvalid
		}
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic in import merge, transaction rolled back", fmt.Errorf("%v", r))
			panic(r)
		}
	}()

	fillString := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
		}
	}
	fillString(&target.Description, item.Description)
	fillString(&target.PhoneNumber, item.PhoneNumber)
	fillString(&target.Location, item.Location)
	fillString(&target.Address1, item.Address1)
	fillString(&target.City, item.City)
	fillString(&target.State, item.State)
	fillString(&target.Zip, item.Zip)
	if target.Lat == nil && item.Lat != nil {
		target.Lat = item.Lat
	}
	if target.Lng == nil && item.Lng != nil {
		target.Lng = item.Lng
	}

	if err := tx.Save(target).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to update merge target business", err, map[string]interface{}{
			"business_id": target.ID,
		})
		return nil, err
	}

	item.Status = model.ImportMerged
	item.ErrorMessage = ""
	item.ApprovedBusinessID = &target.ID
	item.DuplicateOfBusinessID = &target.ID
	if err := tx.Save(item).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit import merge transaction", err)
		return nil, err
	}

	logger.Info("Import item merged into business", map[string]interface{}{
		"item_id":     itemID,
		"business_id": target.ID,
	})
	return item, nil
}

// ExportBatch renders the batch's items to an xlsx workbook for offline
// review and returns the encoded file plus a suggested filename.
func (s *importService) ExportBatch(batchID uint) ([]byte, string, error) {
	batch, err := s.importRepo.FindBatchByID(batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrBatchNotFound
		}
		return nil, "", err
	}

	items, err := s.importRepo.FindItemsByBatch(batchID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Items"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"ID", "Status", "Error", "Name", "Description", "Phone", "Location",
		"Lat", "Lng", "Address1", "City", "State", "Zip", "Duplicate Of", "Approved As",
	}
	for i, h := range headers {
		cellName, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cellName, h)
	}

	for row, item := range items {
		values := []interface{}{
			item.ID, string(item.Status), item.ErrorMessage, item.Name,
			item.Description, item.PhoneNumber, item.Location,
			floatOrEmpty(item.Lat), floatOrEmpty(item.Lng),
			item.Address1, item.City, item.State, item.Zip,
			uintOrEmpty(item.DuplicateOfBusinessID), uintOrEmpty(item.ApprovedBusinessID),
		}
		for col, v := range values {
			cellName, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cellName, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to encode batch export", err, map[string]interface{}{
			"batch_id": batchID,
		})
		return nil, "", err
	}

	filename := fmt.Sprintf("import-batch-%d-%s.xlsx", batch.ID, time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

// promoteItem creates a Business from a READY item inside tx and marks the
// item APPROVED.
func (s *importService) promoteItem(tx *gorm.DB, item *model.ImportItem, reviewerID uint) error {
	now := time.Now()
	business := &model.Business{
		Name:         item.Name,
		Description:  item.Description,
		PhoneNumber:  item.PhoneNumber,
		Location:     item.Location,
		Lat:          item.Lat,
		Lng:          item.Lng,
		Address1:     item.Address1,
		City:         item.City,
		State:        item.State,
		Zip:          item.Zip,
		IsApproved:   true,
		ApprovedAt:   &now,
		ApprovedByID: &reviewerID,
		CreatedByID:  &reviewerID,
	}
	if err := tx.Create(business).Error; err != nil {
		logger.Error("Failed to create business from import item", err, map[string]interface{}{
			"item_id": item.ID,
		})
		return err
	}

	item.Status = model.ImportApproved
	item.ApprovedBusinessID = &business.ID
	item.ErrorMessage = ""
	return tx.Save(item).Error
}

// refreshDuplicate re-resolves the cross-directory duplicate match for an
// item after its identity fields changed.
func (s *importService) refreshDuplicate(item *model.ImportItem) error {
	duplicate, err := s.businessRepo.FindDuplicate(item.Name, item.Address1, item.City, item.State, item.Zip)
	if err != nil {
		return err
	}
	if duplicate != nil {
		item.DuplicateOfBusinessID = &duplicate.ID
	} else {
		item.DuplicateOfBusinessID = nil
	}
	return nil
}

func (s *importService) getItem(itemID uint) (*model.ImportItem, error) {
	item, err := s.importRepo.FindItemByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *importService) summarize(batch *model.ImportBatch) (*BatchSummary, error) {
	counts, err := s.importRepo.CountItemsByStatus(batch.ID)
	if err != nil {
		return nil, err
	}

	summary := &BatchSummary{Batch: *batch}
	for _, c := range counts {
		switch c.Status {
		case model.ImportReady:
			summary.Ready = c.Count
		case model.ImportNeedsGeocode:
			summary.NeedsGeocode = c.Count
		case model.ImportNeedsFix:
			summary.NeedsFix = c.Count
		case model.ImportDuplicatePending:
			summary.DuplicatePending = c.Count
		case model.ImportApproved:
			summary.Approved = c.Count
		case model.ImportRejected:
			summary.Rejected = c.Count
		case model.ImportMerged:
			summary.Merged = c.Count
		}
	}
	return summary, nil
}

// batchKey builds the case-insensitive identity key used to spot duplicates
// within a single file.
func batchKey(name, address1, city, state, zip string) string {
	return strings.ToLower(strings.Join([]string{name, address1, city, state, zip}, "|"))
}

// buildLocation joins the populated address parts with ", ".
func buildLocation(address1, city, state, zip string) string {
	var parts []string
	for _, p := range []string{address1, city, state, zip} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// parseCoordinate converts a CSV cell to a coordinate, treating anything
// unparsable as absent.
func parseCoordinate(value string) *float64 {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

func floatOrEmpty(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func uintOrEmpty(v *uint) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
