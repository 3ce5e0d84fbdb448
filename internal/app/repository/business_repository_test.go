package repository

import (
	"testing"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBusinessRepoTest(t *testing.T) (BusinessRepository, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	return NewBusinessRepository(testDB), testDB
}

func f(v float64) *float64 {
	return &v
}

func TestBusinessRepository_FindDuplicate(t *testing.T) {
	repo, testDB := setupBusinessRepoTest(t)

	full := &model.Business{
		Name:     "Joe's Diner",
		Address1: "12 Main St",
		City:     "Springfield",
		State:    "IL",
		Zip:      "62701",
	}
	require.NoError(t, testDB.Create(full).Error)

	nameOnly := &model.Business{Name: "Book Nook"}
	require.NoError(t, testDB.Create(nameOnly).Error)

	tests := []struct {
		name     string
		args     [5]string // name, address1, city, state, zip
		wantID   uint
		wantNone bool
	}{
		{
			name:   "Exact match",
			args:   [5]string{"Joe's Diner", "12 Main St", "Springfield", "IL", "62701"},
			wantID: full.ID,
		},
		{
			name:   "Case-insensitive match",
			args:   [5]string{"JOE'S DINER", "12 MAIN ST", "springfield", "il", "62701"},
			wantID: full.ID,
		},
		{
			name:   "Empty fields do not narrow the match",
			args:   [5]string{"Joe's Diner", "", "", "", ""},
			wantID: full.ID,
		},
		{
			name:   "Name-only row matches by name",
			args:   [5]string{"book nook", "", "", "", ""},
			wantID: nameOnly.ID,
		},
		{
			name:     "Different address is a different place",
			args:     [5]string{"Joe's Diner", "99 Other Rd", "Springfield", "IL", "62701"},
			wantNone: true,
		},
		{
			name:     "Unknown name",
			args:     [5]string{"Nowhere", "", "", "", ""},
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindDuplicate(tt.args[0], tt.args[1], tt.args[2], tt.args[3], tt.args[4])
			require.NoError(t, err)
			if tt.wantNone {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}

func TestBusinessRepository_FindAll_BBox(t *testing.T) {
	repo, testDB := setupBusinessRepoTest(t)

	inside := &model.Business{Name: "Inside", Lat: f(40.7), Lng: f(-74.0), IsApproved: true}
	outside := &model.Business{Name: "Outside", Lat: f(34.05), Lng: f(-118.24), IsApproved: true}
	noCoords := &model.Business{Name: "No Coords", IsApproved: true}
	require.NoError(t, testDB.Create(inside).Error)
	require.NoError(t, testDB.Create(outside).Error)
	require.NoError(t, testDB.Create(noCoords).Error)

	result, err := repo.FindAll(BusinessFilter{
		ApprovedOnly: true,
		BBox:         &BoundingBox{MinLng: -74.1, MinLat: 40.6, MaxLng: -73.9, MaxLat: 40.8},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalCount)
	require.Len(t, result.Businesses, 1)
	assert.Equal(t, "Inside", result.Businesses[0].Name)
}

func TestBusinessRepository_FindForOwner(t *testing.T) {
	repo, testDB := setupBusinessRepoTest(t)

	user := &model.User{Email: "owner@example.com", PasswordHash: "hash", Role: model.RoleBusiness}
	require.NoError(t, testDB.Create(user).Error)

	mine := &model.Business{Name: "Mine", IsApproved: true}
	other := &model.Business{Name: "Other", IsApproved: true}
	require.NoError(t, testDB.Create(mine).Error)
	require.NoError(t, testDB.Create(other).Error)

	require.NoError(t, repo.CreateMembership(&model.BusinessMembership{
		UserID: user.ID, BusinessID: mine.ID, Role: model.MembershipOwner,
	}))

	businesses, err := repo.FindForOwner(user.ID)
	require.NoError(t, err)
	require.Len(t, businesses, 1)
	assert.Equal(t, "Mine", businesses[0].Name)
}
