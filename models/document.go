package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document là tài liệu nguồn đã được trích xuất thành văn bản
type Document struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	OriginalName  string    `gorm:"size:255;not null" json:"original_name"`
	FileType      string    `gorm:"size:50" json:"file_type"`
	ExtractedText string    `gorm:"type:text" json:"extracted_text,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
