package model

import (
	"time"
)

// ImportBatch is one uploaded CSV file. Immutable once created except for
// total_rows, which is set at the end of ingestion.
type ImportBatch struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedByID uint      `gorm:"not null;index" json:"created_by_id"`   // uploading admin
	SourceName  string    `json:"source_name"`                           // original filename
	SourceURL   string    `gorm:"type:text" json:"source_url,omitempty"` // archived upload (S3), when configured
	TotalRows   int       `gorm:"default:0;not null" json:"total_rows"`  // non-skipped rows ingested
	CreatedAt   time.Time `json:"created_at"`

	CreatedBy User         `gorm:"foreignKey:CreatedByID" json:"-"`
	Items     []ImportItem `gorm:"foreignKey:BatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items,omitempty"`
}

func (ImportBatch) TableName() string {
	return "import_batches"
}
