package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/hilman45/ai-exam-prep-tutor/models"
)

// ExportArtifact xuất artifact ra văn bản thuần; flashcard xuất dạng TSV (front\tback) để nhập vào Anki
func (s *GenerationService) ExportArtifact(ctx context.Context, artifactID, userID uuid.UUID) (string, string, error) {
	a, err := loadOwnedArtifact(ctx, s.db, artifactID, userID, "")
	if err != nil {
		return "", "", err
	}

	base := ""
	if a.DisplayName != nil {
		base = *a.DisplayName
	} else {
		var doc models.Document
		if err := s.db.WithContext(ctx).Select("original_name").First(&doc, "id = ?", a.DocumentID).Error; err == nil {
			base = doc.OriginalName
		}
	}
	name := slug.Make(base)
	if name == "" {
		name = a.ID.String()[:8]
	}

	var b strings.Builder
	ext := "txt"
	switch a.Kind {
	case models.KindSummary:
		p, err := a.Summary()
		if err != nil {
			return "", "", ErrPersistence(err, "dữ liệu tóm tắt bị hỏng")
		}
		b.WriteString(p.Text)
		b.WriteString("\n")
	case models.KindQuiz:
		p, err := a.Quiz()
		if err != nil {
			return "", "", ErrPersistence(err, "dữ liệu quiz bị hỏng")
		}
		for i, q := range p.Questions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q.Text)
			for j, opt := range q.Options {
				fmt.Fprintf(&b, "   %c. %s\n", 'A'+j, opt)
			}
			if q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options) {
				fmt.Fprintf(&b, "   Answer: %c\n\n", 'A'+q.CorrectIndex)
			}
		}
	case models.KindFlashcards:
		p, err := a.Flashcards()
		if err != nil {
			return "", "", ErrPersistence(err, "dữ liệu flashcard bị hỏng")
		}
		ext = "tsv"
		for _, c := range p.Cards {
			fmt.Fprintf(&b, "%s\t%s\n", tsvField(c.Front), tsvField(c.Back))
		}
	}
	return fmt.Sprintf("%s-%s.%s", name, a.Kind, ext), b.String(), nil
}

func tsvField(s string) string {
	return strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(s)
}
