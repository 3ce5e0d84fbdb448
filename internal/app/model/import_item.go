package model

import (
	"time"
)

type ImportItemStatus string // review state of one imported row

const (
	ImportNeedsGeocode     ImportItemStatus = "NEEDS_GEOCODE"     // coordinates missing, no error yet
	ImportNeedsFix         ImportItemStatus = "NEEDS_FIX"         // coordinates missing and an error is recorded
	ImportDuplicatePending ImportItemStatus = "DUPLICATE_PENDING" // matched an existing or in-batch business
	ImportReady            ImportItemStatus = "READY"             // eligible for promotion
	ImportApproved         ImportItemStatus = "APPROVED"          // promoted to a business
	ImportRejected         ImportItemStatus = "REJECTED"          // discarded by an admin
	ImportMerged           ImportItemStatus = "MERGED"            // folded into an existing business
)

// Item-level error messages stored on import rows
const (
	MsgMissingCoordinates = "Missing or invalid coordinates."
	MsgDuplicateInBatch   = "Duplicate in batch."
	MsgGeocodingFailed    = "Geocoding failed."
)

// Terminal reports whether the status must never be overwritten by
// automatic re-derivation.
func (s ImportItemStatus) Terminal() bool {
	return s == ImportApproved || s == ImportRejected || s == ImportMerged
}

// DeriveItemStatus computes a non-terminal item's status from its duplicate
// match, coordinate presence and recorded error. Duplicate matches take
// precedence over missing coordinates. Callers must not apply this to items
// already in a terminal state.
func DeriveItemStatus(hasDuplicate bool, lat, lng *float64, errorMessage string) ImportItemStatus {
	if hasDuplicate {
		return ImportDuplicatePending
	}
	if lat == nil || lng == nil {
		if errorMessage != "" {
			return ImportNeedsFix
		}
		return ImportNeedsGeocode
	}
	return ImportReady
}

// ImportItem is one row of an import batch with its own review status.
type ImportItem struct {
	ID      uint `gorm:"primarykey" json:"id"`
	BatchID uint `gorm:"not null;index" json:"batch_id"`

	Status       ImportItemStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`

	Name        string   `gorm:"not null" json:"name"`
	Description string   `gorm:"type:text" json:"description"`
	PhoneNumber string   `gorm:"type:varchar(30)" json:"phone_number"`
	Location    string   `json:"location"`
	Lat         *float64 `gorm:"type:decimal(10,8)" json:"lat"`
	Lng         *float64 `gorm:"type:decimal(11,8)" json:"lng"`
	Address1    string   `json:"address1"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Zip         string   `gorm:"type:varchar(10)" json:"zip"`

	DuplicateOfBusinessID *uint `json:"duplicate_of_business_id,omitempty"` // unresolved duplicate match
	ApprovedBusinessID    *uint `json:"approved_business_id,omitempty"`     // business created or merged into

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Batch ImportBatch `gorm:"foreignKey:BatchID" json:"-"`
}

func (ImportItem) TableName() string {
	return "import_items"
}

// HasCoordinates reports whether both latitude and longitude are present
func (i *ImportItem) HasCoordinates() bool {
	return i.Lat != nil && i.Lng != nil
}
