package model

import (
	"time"

	"gorm.io/datatypes"
)

// BusinessVetting stores the structured questionnaire answers attached to a
// submission. At most one exists per submission; business_id is populated
// only once the submission is approved.
type BusinessVetting struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SubmissionID uint  `gorm:"uniqueIndex;not null" json:"submission_id"` // 1:1 with submission
	BusinessID   *uint `gorm:"uniqueIndex" json:"business_id,omitempty"`  // linked after approval
	UserID       uint  `gorm:"not null;index" json:"user_id"`             // answering user

	Version int            `gorm:"default:1;not null" json:"version"` // questionnaire version
	Answers datatypes.JSON `gorm:"not null" json:"answers"`           // raw questionnaire answers

	Submission BusinessSubmission `gorm:"foreignKey:SubmissionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (BusinessVetting) TableName() string {
	return "business_vettings"
}
