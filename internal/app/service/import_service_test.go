package service

import (
	"context"
	"testing"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/internal/app/repository"
	"github.com/bizcribe/bizcribe-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubGeocoder returns fixed coordinates, or nothing when failing is set.
type stubGeocoder struct {
	lat     float64
	lng     float64
	failing bool
	calls   int
}

func (g *stubGeocoder) Lookup(_ context.Context, _, _, _, _ string) (*float64, *float64) {
	g.calls++
	if g.failing {
		return nil, nil
	}
	lat, lng := g.lat, g.lng
	return &lat, &lng
}

func setupImportServiceTest(t *testing.T) (ImportService, *gorm.DB, *stubGeocoder) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	geocoder := &stubGeocoder{lat: 40.7128, lng: -74.0060}
	importRepo := repository.NewImportRepository(testDB)
	businessRepo := repository.NewBusinessRepository(testDB)
	svc := NewImportService(testDB, importRepo, businessRepo, geocoder, nil)
	return svc, testDB, geocoder
}

func createTestAdmin(t *testing.T, testDB *gorm.DB) *model.User {
	admin := &model.User{
		Email:        "admin@example.com",
		PasswordHash: "hash",
		DisplayName:  "Admin",
		Role:         model.RoleAdmin,
	}
	require.NoError(t, testDB.Create(admin).Error)
	return admin
}

func floatPtr(v float64) *float64 {
	return &v
}

const csvHeader = "name,description,phone_number,location,lat,lng,address1,city,state,zip\n"

func TestImportService_Ingest(t *testing.T) {
	svc, testDB, geocoder := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	csv := csvHeader +
		"Joe's Diner,Classic diner,555-0100,,40.7,-74.0,12 Main St,Springfield,IL,62701\n" +
		"Book Nook,,,,,,34 Elm St,Springfield,IL,62701\n"

	summary, err := svc.Ingest(context.Background(), "listings.csv", []byte(csv), admin.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Batch.TotalRows)
	assert.Equal(t, int64(2), summary.Ready)
	assert.Equal(t, 1, geocoder.calls) // only the row without coordinates

	var items []model.ImportItem
	require.NoError(t, testDB.Where("batch_id = ?", summary.Batch.ID).Order("id").Find(&items).Error)
	require.Len(t, items, 2)

	assert.Equal(t, model.ImportReady, items[0].Status)
	assert.Equal(t, 40.7, *items[0].Lat)

	// The geocoded row got the stub's coordinates and a derived location.
	assert.Equal(t, model.ImportReady, items[1].Status)
	assert.Equal(t, 40.7128, *items[1].Lat)
	assert.Equal(t, -74.0060, *items[1].Lng)
	assert.Equal(t, "34 Elm St, Springfield, IL, 62701", items[1].Location)
}

func TestImportService_Ingest_RejectsNonCSV(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	_, err := svc.Ingest(context.Background(), "listings.xlsx", []byte("whatever"), admin.ID)
	assert.ErrorIs(t, err, ErrNotCSV)
}

func TestImportService_Ingest_MissingColumns(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	csv := "name,description\nJoe's Diner,A diner\n"
	_, err := svc.Ingest(context.Background(), "listings.csv", []byte(csv), admin.ID)
	assert.ErrorIs(t, err, ErrMissingColumns)

	// Nothing was persisted.
	var count int64
	testDB.Model(&model.ImportBatch{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestImportService_Ingest_SkipsBlankNames(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	csv := csvHeader +
		"Joe's Diner,,,,40.7,-74.0,,,,\n" +
		"  ,,,,1.0,2.0,,,,\n" + // whitespace-only name is skipped
		"Book Nook,,,,41.0,-73.0,,,,\n"

	summary, err := svc.Ingest(context.Background(), "listings.csv", []byte(csv), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Batch.TotalRows)
}

func TestImportService_Ingest_ToleratesBOM(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	csv := "\uFEFF" + csvHeader + "Joe's Diner,,,,40.7,-74.0,,,,\n"
	summary, err := svc.Ingest(context.Background(), "listings.csv", []byte(csv), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Batch.TotalRows)
	assert.Equal(t, int64(1), summary.Ready)
}

func TestImportService_Ingest_GeocodeFailure(t *testing.T) {
	svc, testDB, geocoder := setupImportServiceTest(t)
	geocoder.failing = true
	admin := createTestAdmin(t, testDB)

	csv := csvHeader + "Joe's Diner,,,,,,12 Main St,Springfield,IL,62701\n"
	summary, err := svc.Ingest(context.Background(), "listings.csv", []byte(csv), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.NeedsFix)

	var item model.ImportItem
	require.NoError(t, testDB.Where("batch_id = ?", summary.Batch.ID).First(&item).Error)
	assert.Equal(t, model.ImportNeedsFix, item.Status)
	assert.Equal(t, model.MsgMissingCoordinates, item.ErrorMessage)
}

func TestImportService_Ingest_UnparsableCoordinates(t *testing.T) {
	svc, testDB, geocoder := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	// "abc" is treated as absent, so the row is geocoded.
	csv := csvHeader + "Joe's Diner,,,,abc,-74.0,12 Main St,Springfield,IL,62701\n"
	summary, err := svc.Ingest(context.Background(), "listings.csv", []byte(csv), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Ready)
	assert.Equal(t, 1, geocoder.calls)
}

func TestImportService_Ingest_DuplicateWithinBatch(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	csv := csvHeader +
		"Joe's Diner,,,,40.7,-74.0,12 Main St,Springfield,IL,62701\n" +
		"JOE'S DINER,,,,40.7,-74.0,12 MAIN ST,Springfield,IL,62701\n" // same identity, different case

	summary, err := svc.Ingest(context.Background(), "listings.csv", []byte(csv), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Ready)
	assert.Equal(t, int64(1), summary.DuplicatePending)

	var items []model.ImportItem
	require.NoError(t, testDB.Where("batch_id = ?", summary.Batch.ID).Order("id").Find(&items).Error)
	require.Len(t, items, 2)
	assert.Equal(t, model.ImportReady, items[0].Status)
	assert.Equal(t, model.ImportDuplicatePending, items[1].Status)
	assert.Equal(t, model.MsgDuplicateInBatch, items[1].ErrorMessage)
}

func TestImportService_Ingest_DuplicateAgainstDirectory(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	existing := &model.Business{
		Name:       "Joe's Diner",
		Address1:   "12 Main St",
		City:       "Springfield",
		State:      "IL",
		Zip:        "62701",
		IsApproved: true,
	}
	require.NoError(t, testDB.Create(existing).Error)

	csv := csvHeader + "joe's diner,,,,40.7,-74.0,12 main st,springfield,il,62701\n"
	summary, err := svc.Ingest(context.Background(), "listings.csv", []byte(csv), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.DuplicatePending)

	var item model.ImportItem
	require.NoError(t, testDB.Where("batch_id = ?", summary.Batch.ID).First(&item).Error)
	require.NotNil(t, item.DuplicateOfBusinessID)
	assert.Equal(t, existing.ID, *item.DuplicateOfBusinessID)
}

func createTestBatch(t *testing.T, testDB *gorm.DB, adminID uint, items ...*model.ImportItem) *model.ImportBatch {
	batch := &model.ImportBatch{CreatedByID: adminID, SourceName: "test.csv", TotalRows: len(items)}
	require.NoError(t, testDB.Create(batch).Error)
	for _, item := range items {
		item.BatchID = batch.ID
		require.NoError(t, testDB.Create(item).Error)
	}
	return batch
}

func TestImportService_ApproveAll(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	ready := &model.ImportItem{
		Status: model.ImportReady,
		Name:   "Joe's Diner",
		Lat:    floatPtr(40.7),
		Lng:    floatPtr(-74.0),
	}
	needsFix := &model.ImportItem{
		Status:       model.ImportNeedsFix,
		Name:         "Broken Row",
		ErrorMessage: model.MsgMissingCoordinates,
	}
	batch := createTestBatch(t, testDB, admin.ID, ready, needsFix)

	summary, err := svc.ApproveAll(batch.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Approved)
	assert.Equal(t, int64(1), summary.NeedsFix)

	var item model.ImportItem
	require.NoError(t, testDB.First(&item, ready.ID).Error)
	assert.Equal(t, model.ImportApproved, item.Status)
	assert.Empty(t, item.ErrorMessage)
	require.NotNil(t, item.ApprovedBusinessID)

	var business model.Business
	require.NoError(t, testDB.First(&business, *item.ApprovedBusinessID).Error)
	assert.True(t, business.IsApproved)
	assert.NotNil(t, business.ApprovedAt)
	assert.Equal(t, admin.ID, *business.ApprovedByID)
	assert.Equal(t, admin.ID, *business.CreatedByID)
}

func TestImportService_ApproveSelected(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	existing := &model.Business{Name: "Existing", IsApproved: true}
	require.NoError(t, testDB.Create(existing).Error)

	promotable := &model.ImportItem{
		Status: model.ImportReady,
		Name:   "Promotable",
		Lat:    floatPtr(40.7),
		Lng:    floatPtr(-74.0),
	}
	noCoords := &model.ImportItem{
		Status: model.ImportNeedsGeocode,
		Name:   "No Coords",
	}
	duplicate := &model.ImportItem{
		Status:                model.ImportDuplicatePending,
		Name:                  "Existing",
		Lat:                   floatPtr(40.7),
		Lng:                   floatPtr(-74.0),
		DuplicateOfBusinessID: &existing.ID,
	}
	rejected := &model.ImportItem{
		Status: model.ImportRejected,
		Name:   "Already Rejected",
	}
	batch := createTestBatch(t, testDB, admin.ID, promotable, noCoords, duplicate, rejected)

	ids := []uint{promotable.ID, noCoords.ID, duplicate.ID, rejected.ID}
	_, err := svc.ApproveSelected(batch.ID, ids, admin.ID)
	require.NoError(t, err)

	var got model.ImportItem
	require.NoError(t, testDB.First(&got, promotable.ID).Error)
	assert.Equal(t, model.ImportApproved, got.Status)

	got = model.ImportItem{}
	require.NoError(t, testDB.First(&got, noCoords.ID).Error)
	assert.Equal(t, model.ImportNeedsFix, got.Status)
	assert.Equal(t, model.MsgMissingCoordinates, got.ErrorMessage)

	got = model.ImportItem{}
	require.NoError(t, testDB.First(&got, duplicate.ID).Error)
	assert.Equal(t, model.ImportDuplicatePending, got.Status)

	// Terminal items are untouched.
	got = model.ImportItem{}
	require.NoError(t, testDB.First(&got, rejected.ID).Error)
	assert.Equal(t, model.ImportRejected, got.Status)
}

func TestImportService_RejectSelected(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	needsFix := &model.ImportItem{
		Status:       model.ImportNeedsFix,
		Name:         "Fixable",
		ErrorMessage: model.MsgMissingCoordinates,
	}
	approved := &model.ImportItem{
		Status: model.ImportApproved,
		Name:   "Already Approved",
	}
	batch := createTestBatch(t, testDB, admin.ID, needsFix, approved)

	summary, err := svc.RejectSelected(batch.ID, []uint{needsFix.ID, approved.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Rejected)
	assert.Equal(t, int64(1), summary.Approved)

	var got model.ImportItem
	require.NoError(t, testDB.First(&got, needsFix.ID).Error)
	assert.Equal(t, model.ImportRejected, got.Status)
	assert.Empty(t, got.ErrorMessage)
}

func TestImportService_Regeocode(t *testing.T) {
	svc, testDB, geocoder := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	item := &model.ImportItem{
		Status:       model.ImportNeedsFix,
		Name:         "Joe's Diner",
		Address1:     "12 Main St",
		ErrorMessage: model.MsgMissingCoordinates,
	}
	createTestBatch(t, testDB, admin.ID, item)

	got, err := svc.Regeocode(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportReady, got.Status)
	assert.Equal(t, 40.7128, *got.Lat)
	assert.Empty(t, got.ErrorMessage)

	// A later failure parks the item in NEEDS_FIX with a geocoding error.
	got.Lat, got.Lng = nil, nil
	require.NoError(t, testDB.Save(got).Error)
	geocoder.failing = true

	got, err = svc.Regeocode(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportNeedsFix, got.Status)
	assert.Equal(t, model.MsgGeocodingFailed, got.ErrorMessage)
}

func TestImportService_Regeocode_FinalizedItem(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	item := &model.ImportItem{Status: model.ImportApproved, Name: "Done"}
	createTestBatch(t, testDB, admin.ID, item)

	_, err := svc.Regeocode(context.Background(), item.ID)
	assert.ErrorIs(t, err, ErrItemFinalized)
}

func TestImportService_UpdateItem_ClearCoordinates(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	item := &model.ImportItem{
		Status: model.ImportReady,
		Name:   "Joe's Diner",
		Lat:    floatPtr(40.7),
		Lng:    floatPtr(-74.0),
	}
	createTestBatch(t, testDB, admin.ID, item)

	got, err := svc.UpdateItem(item.ID, ItemUpdate{
		Lat: OptionalFloat{Set: true}, // explicit null
	})
	require.NoError(t, err)
	assert.Equal(t, model.ImportNeedsGeocode, got.Status)
	assert.Nil(t, got.Lat)
	assert.NotNil(t, got.Lng)
	assert.Empty(t, got.ErrorMessage)
}

func TestImportService_UpdateItem_RederivesLocationAndDuplicate(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	existing := &model.Business{
		Name:       "Book Nook",
		Address1:   "34 Elm St",
		City:       "Springfield",
		State:      "IL",
		Zip:        "62701",
		IsApproved: true,
	}
	require.NoError(t, testDB.Create(existing).Error)

	item := &model.ImportItem{
		Status:   model.ImportReady,
		Name:     "Joe's Diner",
		Address1: "12 Main St",
		City:     "Springfield",
		State:    "IL",
		Zip:      "62701",
		Lat:      floatPtr(40.7),
		Lng:      floatPtr(-74.0),
		Location: "old location",
	}
	createTestBatch(t, testDB, admin.ID, item)

	name := "Book Nook"
	address := "34 Elm St"
	location := ""
	got, err := svc.UpdateItem(item.ID, ItemUpdate{
		Name:     &name,
		Address1: &address,
		Location: &location,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ImportDuplicatePending, got.Status)
	require.NotNil(t, got.DuplicateOfBusinessID)
	assert.Equal(t, existing.ID, *got.DuplicateOfBusinessID)
	assert.Equal(t, "34 Elm St, Springfield, IL, 62701", got.Location)
}

func TestImportService_UpdateItem_KeepsErrorWhileStillBroken(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	item := &model.ImportItem{
		Status:       model.ImportNeedsFix,
		Name:         "Joe's Diner",
		ErrorMessage: model.MsgMissingCoordinates,
	}
	createTestBatch(t, testDB, admin.ID, item)

	// An edit that does not resolve the missing coordinates keeps the error.
	desc := "Updated description"
	got, err := svc.UpdateItem(item.ID, ItemUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, model.ImportNeedsFix, got.Status)
	assert.Equal(t, model.MsgMissingCoordinates, got.ErrorMessage)

	// Supplying coordinates resolves the item and clears the error.
	got, err = svc.UpdateItem(item.ID, ItemUpdate{
		Lat: OptionalFloat{Set: true, Value: floatPtr(40.7)},
		Lng: OptionalFloat{Set: true, Value: floatPtr(-74.0)},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ImportReady, got.Status)
	assert.Empty(t, got.ErrorMessage)
}

func TestImportService_Merge(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	target := &model.Business{
		Name:        "Joe's Diner",
		Description: "The original description",
		Lat:         floatPtr(40.7),
		IsApproved:  true,
	}
	require.NoError(t, testDB.Create(target).Error)

	item := &model.ImportItem{
		Status:                model.ImportDuplicatePending,
		Name:                  "Joe's Diner",
		Description:           "A different description",
		PhoneNumber:           "555-0100",
		City:                  "Springfield",
		Lat:                   floatPtr(41.0),
		Lng:                   floatPtr(-73.0),
		DuplicateOfBusinessID: &target.ID,
	}
	createTestBatch(t, testDB, admin.ID, item)

	got, err := svc.Merge(item.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportMerged, got.Status)
	require.NotNil(t, got.ApprovedBusinessID)
	assert.Equal(t, target.ID, *got.ApprovedBusinessID)

	var merged model.Business
	require.NoError(t, testDB.First(&merged, target.ID).Error)
	// Populated fields on the target win; empty ones are filled.
	assert.Equal(t, "The original description", merged.Description)
	assert.Equal(t, "555-0100", merged.PhoneNumber)
	assert.Equal(t, "Springfield", merged.City)
	// Coordinates are considered individually.
	assert.Equal(t, 40.7, *merged.Lat)
	assert.Equal(t, -73.0, *merged.Lng)
}

func TestImportService_Merge_DefaultsToDuplicateMatch(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	target := &model.Business{Name: "Joe's Diner", IsApproved: true}
	require.NoError(t, testDB.Create(target).Error)

	item := &model.ImportItem{
		Status:                model.ImportDuplicatePending,
		Name:                  "Joe's Diner",
		DuplicateOfBusinessID: &target.ID,
	}
	createTestBatch(t, testDB, admin.ID, item)

	got, err := svc.Merge(item.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, model.ImportMerged, got.Status)
}

func TestImportService_Merge_Errors(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	noMatch := &model.ImportItem{Status: model.ImportReady, Name: "Standalone"}
	merged := &model.ImportItem{Status: model.ImportMerged, Name: "Done"}
	createTestBatch(t, testDB, admin.ID, noMatch, merged)

	_, err := svc.Merge(noMatch.ID, 0)
	assert.ErrorIs(t, err, ErrNoDuplicateMatch)

	_, err = svc.Merge(noMatch.ID, 9999)
	assert.ErrorIs(t, err, ErrMergeTargetInvalid)

	_, err = svc.Merge(merged.ID, 1)
	assert.ErrorIs(t, err, ErrItemFinalized)

	_, err = svc.Merge(9999, 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestImportService_RejectItem(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	fixable := &model.ImportItem{
		Status:       model.ImportNeedsFix,
		Name:         "Fixable",
		ErrorMessage: model.MsgMissingCoordinates,
	}
	approved := &model.ImportItem{Status: model.ImportApproved, Name: "Approved"}
	createTestBatch(t, testDB, admin.ID, fixable, approved)

	got, err := svc.RejectItem(fixable.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportRejected, got.Status)
	assert.Empty(t, got.ErrorMessage)

	// Re-rejecting is harmless.
	_, err = svc.RejectItem(fixable.ID)
	assert.NoError(t, err)

	_, err = svc.RejectItem(approved.ID)
	assert.ErrorIs(t, err, ErrItemFinalized)
}

func TestImportService_GetBatch(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	batch := createTestBatch(t, testDB, admin.ID,
		&model.ImportItem{Status: model.ImportReady, Name: "One"},
		&model.ImportItem{Status: model.ImportNeedsGeocode, Name: "Two"},
	)

	detail, err := svc.GetBatch(batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.Ready)
	assert.Equal(t, int64(1), detail.NeedsGeocode)
	assert.Len(t, detail.Items, 2)

	_, err = svc.GetBatch(9999)
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestImportService_ExportBatch(t *testing.T) {
	svc, testDB, _ := setupImportServiceTest(t)
	admin := createTestAdmin(t, testDB)

	batch := createTestBatch(t, testDB, admin.ID,
		&model.ImportItem{Status: model.ImportReady, Name: "Joe's Diner", Lat: floatPtr(40.7), Lng: floatPtr(-74.0)},
	)

	data, filename, err := svc.ExportBatch(batch.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, filename, ".xlsx")
}
