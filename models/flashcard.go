package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// CardState là trạng thái ôn tập của một thẻ trong một bộ flashcard
type CardState struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_card_state_key,priority:1" json:"user_id"`
	ArtifactID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_card_state_key,priority:2;index" json:"artifact_id"`
	CardIndex       int        `gorm:"not null;uniqueIndex:idx_card_state_key,priority:3" json:"card_index"`
	IntervalMinutes int        `gorm:"not null;default:0" json:"interval_minutes"`
	DueAt           time.Time  `gorm:"not null;index" json:"due_at"`
	CorrectStreak   int        `gorm:"not null;default:0" json:"correct_streak"`
	EasyCount       int        `gorm:"not null;default:0" json:"easy_count"`
	IsFinished      bool       `gorm:"not null;default:false" json:"is_finished"`
	ReviewCount     int        `gorm:"not null;default:0" json:"review_count"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at"`
	Version         int        `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *CardState) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// ReviewEvent chỉ được thêm, không sửa
type ReviewEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ArtifactID uuid.UUID `gorm:"type:uuid;not null;index" json:"artifact_id"`
	CardIndex  int       `gorm:"not null" json:"card_index"`
	Rating     string    `gorm:"type:varchar(10);not null;index" json:"rating"`
	TimeTaken  int       `gorm:"not null;default:0" json:"time_taken"` // giây
	ReviewedAt time.Time `gorm:"not null;index" json:"reviewed_at"`
}

func (e *ReviewEvent) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
