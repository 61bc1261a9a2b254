package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ArtifactKind string

const (
	KindSummary    ArtifactKind = "summary"
	KindQuiz       ArtifactKind = "quiz"
	KindFlashcards ArtifactKind = "flashcards"
)

func (k ArtifactKind) Valid() bool {
	switch k {
	case KindSummary, KindQuiz, KindFlashcards:
		return true
	}
	return false
}

// Artifact là kết quả AI sinh ra từ một tài liệu. Mỗi (tài liệu, người dùng, loại) chỉ có một bản.
type Artifact struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_artifact_key,priority:1" json:"document_id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_artifact_key,priority:2;index" json:"user_id"`
	Kind        ArtifactKind   `gorm:"type:varchar(20);not null;uniqueIndex:idx_artifact_key,priority:3" json:"kind"`
	Payload     datatypes.JSON `gorm:"not null" json:"payload"`
	Providers   string         `gorm:"size:255" json:"providers"` // các tầng AI đã dùng, phân cách bởi dấu phẩy
	DisplayName *string        `gorm:"size:255" json:"display_name,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Artifact) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

type SummaryPayload struct {
	Text  string `json:"text"`
	Style string `json:"style"`
}

type QuizPayload struct {
	Questions []QuizQuestion `json:"questions"`
}

type FlashcardPayload struct {
	Cards []Flashcard `json:"cards"`
}

func (a *Artifact) Summary() (SummaryPayload, error) {
	var p SummaryPayload
	err := json.Unmarshal(a.Payload, &p)
	return p, err
}

func (a *Artifact) Quiz() (QuizPayload, error) {
	var p QuizPayload
	err := json.Unmarshal(a.Payload, &p)
	return p, err
}

func (a *Artifact) Flashcards() (FlashcardPayload, error) {
	var p FlashcardPayload
	err := json.Unmarshal(a.Payload, &p)
	return p, err
}
