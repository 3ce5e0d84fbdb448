package model

import (
	"time"

	"gorm.io/gorm"
)

type SubmissionStatus string // review state of a submission

const (
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionApproved SubmissionStatus = "APPROVED"
	SubmissionRejected SubmissionStatus = "REJECTED"
)

// BusinessSubmission is a user's proposal to list a business. Approval
// promotes it into a Business exactly once; re-approval only refreshes the
// audit fields. Rejection after approval retracts the created business.
type BusinessSubmission struct {
	ID      uint `gorm:"primarykey" json:"id"`
	OwnerID uint `gorm:"not null;index" json:"owner_id"` // submitting user

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
	HideAddress bool     `gorm:"default:false" json:"hide_address"`

	Status       SubmissionStatus `gorm:"type:varchar(20);default:'PENDING';not null;index" json:"status"`
	ReviewNotes  string           `gorm:"type:text" json:"review_notes,omitempty"` // reviewer notes (rejections)
	ReviewedAt   *time.Time       `json:"reviewed_at,omitempty"`
	ReviewedByID *uint            `json:"reviewed_by_id,omitempty"`

	// Set only after approval; cleared when a rejection retracts the business.
	CreatedBusinessID *uint `json:"created_business_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Owner           User             `gorm:"foreignKey:OwnerID" json:"-"`
	CreatedBusiness *Business        `gorm:"foreignKey:CreatedBusinessID" json:"created_business,omitempty"`
	Vetting         *BusinessVetting `gorm:"foreignKey:SubmissionID" json:"vetting,omitempty"`
}

func (BusinessSubmission) TableName() string {
	return "business_submissions"
}
