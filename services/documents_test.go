package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/hilman45/ai-exam-prep-tutor/logger"
	"github.com/hilman45/ai-exam-prep-tutor/models"
)

// memoryStorage giả lập Supabase Storage
type memoryStorage struct {
	objects map[string]string
	failGet bool
}

func (m *memoryStorage) UploadText(path, text string) error {
	m.objects[path] = text
	return nil
}

func (m *memoryStorage) DownloadText(path string) (string, error) {
	if m.failGet {
		return "", errors.New("storage down")
	}
	text, ok := m.objects[path]
	if !ok {
		return "", errors.New("object not found")
	}
	return text, nil
}

func (m *memoryStorage) Remove(path string) error {
	delete(m.objects, path)
	return nil
}

func TestDocumentServiceWithStorage(t *testing.T) {
	db := newTestDB(t)
	store := &memoryStorage{objects: map[string]string{}}
	svc := NewDocumentService(db, store, logger.Nop())
	ctx := context.Background()
	owner := uuid.New()

	doc, err := svc.Create(ctx, owner, "  Chemistry  ", biologyText)
	if err != nil {
		t.Fatal(err)
	}
	if doc.OriginalName != "Chemistry" || doc.ExtractedText != "" || len(store.objects) != 1 {
		t.Fatalf("doc %+v, objects %d", doc, len(store.objects))
	}

	text, err := svc.GetText(ctx, doc.ID, owner)
	if err != nil || text != biologyText {
		t.Fatalf("GetText: %v", err)
	}

	store.failGet = true
	if _, err := svc.GetText(ctx, doc.ID, owner); KindOf(err) != KindPersistence {
		t.Fatalf("expected persistence error, got %v", err)
	}
	store.failGet = false

	if err := svc.Delete(ctx, doc.ID, owner); err != nil {
		t.Fatal(err)
	}
	if len(store.objects) != 0 {
		t.Fatal("storage object was not removed")
	}
}

func TestDocumentServiceValidationAndOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewDocumentService(db, nil, logger.Nop())
	ctx := context.Background()
	owner := uuid.New()

	if _, err := svc.Create(ctx, owner, "", "text"); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
	if _, err := svc.Create(ctx, owner, "name", "   "); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}

	doc, err := svc.Create(ctx, owner, "Physics", "Force equals mass times acceleration.")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, doc.ID, uuid.New()); KindOf(err) != KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	list, err := svc.List(ctx, owner)
	if err != nil || len(list) != 1 || list[0].ExtractedText != "" {
		t.Fatalf("list %+v, %v", list, err)
	}
}

func TestDocumentDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	svc := NewDocumentService(db, nil, logger.Nop())
	ctx := context.Background()
	owner := uuid.New()
	doc := seedDocument(t, db, owner, biologyText)
	cards := seedArtifact(t, db, doc, models.KindFlashcards, sampleCards())
	quiz := seedArtifact(t, db, doc, models.KindQuiz, sampleQuiz())

	reviews := NewReviewService(db, NewAnalyticsService(db, nil), NewStreakService(db, nil), logger.Nop())
	if _, err := reviews.RecordReview(ctx, ReviewInput{UserID: owner, ArtifactID: cards.ID, Rating: "good"}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := reviews.RecordQuizAnswer(ctx, QuizAnswerInput{UserID: owner, ArtifactID: quiz.ID}); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, doc.ID, owner); err != nil {
		t.Fatal(err)
	}
	for _, m := range []any{&models.Document{}, &models.Artifact{}, &models.CardState{}, &models.ReviewEvent{}, &models.QuizInteraction{}} {
		var n int64
		db.Model(m).Count(&n)
		if n != 0 {
			t.Fatalf("%T still has %d rows", m, n)
		}
	}
	if _, err := svc.Get(ctx, doc.ID, owner); KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}
