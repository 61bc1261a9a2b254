package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizQuestion struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// QuizInteraction lưu mỗi lần người học trả lời một câu hỏi trắc nghiệm
type QuizInteraction struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ArtifactID    uuid.UUID `gorm:"type:uuid;not null;index" json:"artifact_id"`
	QuestionIndex int       `gorm:"not null" json:"question_index"`
	SelectedIndex int       `gorm:"not null" json:"selected_index"`
	IsCorrect     bool      `gorm:"not null" json:"is_correct"`
	AnsweredAt    time.Time `gorm:"not null;index" json:"answered_at"`
}

func (q *QuizInteraction) BeforeCreate(tx *gorm.DB) error {
	ensureID(&q.ID)
	return nil
}
