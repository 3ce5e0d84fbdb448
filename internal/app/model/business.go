package model

import (
	"time"

	"gorm.io/gorm"
)

// Business is an approved, publicly listed place in the directory.
// Once is_approved is set the business stays listed until deleted; lat/lng
// may be null, in which case the business is excluded from spatial search.
type Business struct {
	ID          uint     `gorm:"primarykey" json:"id"`                 // business ID
	Name        string   `gorm:"not null;index" json:"name"`           // business name
	Description string   `gorm:"type:text" json:"description"`         // free-text description
	PhoneNumber string   `gorm:"type:varchar(30)" json:"phone_number"` // contact phone
	Location    string   `json:"location"`                             // free-text location line
	Lat         *float64 `gorm:"type:decimal(10,8)" json:"lat"`        // latitude (WGS84)
	Lng         *float64 `gorm:"type:decimal(11,8)" json:"lng"`        // longitude (WGS84)
	Address1    string   `json:"address1"`                             // street address
	City        string   `gorm:"index" json:"city"`                    // city
	State       string   `gorm:"index" json:"state"`                   // state
	Zip         string   `gorm:"type:varchar(10)" json:"zip"`          // postal code
	HideAddress bool     `gorm:"default:false" json:"hide_address"`    // hide street address publicly

	IsApproved   bool       `gorm:"default:false;index" json:"is_approved"` // listed publicly
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`                  // approval timestamp
	ApprovedByID *uint      `json:"approved_by_id,omitempty"`               // approving admin
	CreatedByID  *uint      `gorm:"index" json:"created_by_id,omitempty"`   // creating user

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Memberships []BusinessMembership `gorm:"foreignKey:BusinessID" json:"memberships,omitempty"` // owner/manager/staff roles
}

func (Business) TableName() string {
	return "businesses"
}

// HasCoordinates reports whether both latitude and longitude are present
func (b *Business) HasCoordinates() bool {
	return b.Lat != nil && b.Lng != nil
}
