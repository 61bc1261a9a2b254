package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/hilman45/ai-exam-prep-tutor/logger"
	"github.com/hilman45/ai-exam-prep-tutor/models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (n *recordingNotifier) NotifyProgress(ev ProgressEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) stages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Stage)
	}
	return out
}

type generationFixture struct {
	svc      *GenerationService
	docs     *DocumentService
	notifier *recordingNotifier
	owner    uuid.UUID
	doc      *models.Document
}

func newGenerationFixture(t *testing.T, providers ...Provider) *generationFixture {
	t.Helper()
	db := newTestDB(t)
	docs := NewDocumentService(db, nil, logger.Nop())
	notifier := &recordingNotifier{}
	cascade := withHeuristic(providers...)
	svc := NewGenerationService(db, NewArtifactGate(db, nil), docs, cascade, notifier,
		GenerationOptions{ChunkSize: 200, ChunkWindow: 50}, logger.Nop())

	owner := uuid.New()
	doc, err := docs.Create(context.Background(), owner, "Cell Biology", biologyText)
	if err != nil {
		t.Fatal(err)
	}
	return &generationFixture{svc: svc, docs: docs, notifier: notifier, owner: owner, doc: doc}
}

func TestGenerateQuizCachesArtifact(t *testing.T) {
	f := newGenerationFixture(t, failing("groq"))
	ctx := context.Background()

	first, err := f.svc.GenerateQuiz(ctx, f.doc.ID, f.owner, 6)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Fatal("first generation should not be cached")
	}
	payload, err := first.Artifact.Quiz()
	if err != nil {
		t.Fatal(err)
	}
	if len(payload.Questions) < MinValidItems || len(payload.Questions) > 6 {
		t.Fatalf("got %d questions", len(payload.Questions))
	}
	if first.Artifact.Providers != "heuristic" {
		t.Fatalf("providers = %q", first.Artifact.Providers)
	}

	second, err := f.svc.GenerateQuiz(ctx, f.doc.ID, f.owner, 20)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Artifact.ID != first.Artifact.ID {
		t.Fatalf("expected cached artifact %s, got %+v", first.Artifact.ID, second)
	}

	stages := f.notifier.stages()
	if stages[0] != "started" || stages[len(stages)-1] != "completed" {
		t.Fatalf("stages = %v", stages)
	}
}

func TestGenerateSummaryStyles(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()

	if _, err := f.svc.GenerateSummary(ctx, f.doc.ID, f.owner, "poem"); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
	res, err := f.svc.GenerateSummary(ctx, f.doc.ID, f.owner, StyleBullets)
	if err != nil {
		t.Fatal(err)
	}
	s, err := res.Artifact.Summary()
	if err != nil {
		t.Fatal(err)
	}
	if s.Style != StyleBullets || !strings.HasPrefix(s.Text, "• ") {
		t.Fatalf("summary %+v", s)
	}
}

func TestGenerateOwnershipAndContent(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()

	if _, err := f.svc.GenerateFlashcards(ctx, f.doc.ID, uuid.New(), 5); KindOf(err) != KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := f.svc.GenerateFlashcards(ctx, uuid.New(), f.owner, 5); KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}

	junk, err := f.docs.Create(ctx, f.owner, "scan", "12\n---\n3 / 4\n")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.GenerateFlashcards(ctx, junk.ID, f.owner, 5); KindOf(err) != KindUnprocessableContent {
		t.Fatalf("expected unprocessable_content, got %v", err)
	}
	if stages := f.notifier.stages(); stages[len(stages)-1] != "failed" {
		t.Fatalf("stages = %v", stages)
	}
}

func TestUpdateAndDeleteArtifact(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()

	res, err := f.svc.GenerateFlashcards(ctx, f.doc.ID, f.owner, 3)
	if err != nil {
		t.Fatal(err)
	}
	id := res.Artifact.ID

	bad, _ := json.Marshal(models.FlashcardPayload{Cards: []models.Flashcard{{Front: "ATP", Back: "Energy"}}})
	if _, err := f.svc.UpdateArtifact(ctx, id, f.owner, ArtifactUpdate{Payload: bad}); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}

	good, _ := json.Marshal(sampleCards())
	name := "Organelles"
	updated, err := f.svc.UpdateArtifact(ctx, id, f.owner, ArtifactUpdate{Payload: good, DisplayName: &name})
	if err != nil {
		t.Fatal(err)
	}
	cards, _ := updated.Flashcards()
	if len(cards.Cards) != 3 || cards.Cards[0].Front != "Mitochondria" || *updated.DisplayName != "Organelles" {
		t.Fatalf("updated %+v", updated)
	}

	filename, content, err := f.svc.ExportArtifact(ctx, id, f.owner)
	if err != nil {
		t.Fatal(err)
	}
	if filename != "organelles-flashcards.tsv" || !strings.HasPrefix(content, "Mitochondria\tPowerhouse of the cell\n") {
		t.Fatalf("export %q: %q", filename, content)
	}

	if err := f.svc.DeleteArtifact(ctx, id, uuid.New()); KindOf(err) != KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := f.svc.DeleteArtifact(ctx, id, f.owner); err != nil {
		t.Fatal(err)
	}
	again, err := f.svc.GenerateFlashcards(ctx, f.doc.ID, f.owner, 3)
	if err != nil || again.Cached {
		t.Fatalf("regeneration after delete: %+v, %v", again, err)
	}
}

func TestQuizChatFromArtifact(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()
	res, err := f.svc.GenerateQuiz(ctx, f.doc.ID, f.owner, 3)
	if err != nil {
		t.Fatal(err)
	}
	payload, _ := res.Artifact.Quiz()

	idx := 0
	qc, err := f.svc.QuizChatFromArtifact(ctx, res.Artifact.ID, f.owner, &idx, "whatever")
	if err != nil {
		t.Fatal(err)
	}
	q := payload.Questions[0]
	if qc.Question != q.Text || qc.CorrectAnswer != q.Options[q.CorrectIndex] || qc.UserAnswer != "whatever" {
		t.Fatalf("context %+v", qc)
	}

	all, err := f.svc.QuizChatFromArtifact(ctx, res.Artifact.ID, f.owner, nil, "")
	if err != nil || len(all.AllQuestions) != len(payload.Questions) {
		t.Fatalf("all questions %+v, %v", all, err)
	}

	bad := 99
	if _, err := f.svc.QuizChatFromArtifact(ctx, res.Artifact.ID, f.owner, &bad, ""); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}

	reply, provider, err := f.svc.ChatWithQuiz(ctx, "explain the correct answer", qc)
	if err != nil || provider != "heuristic" || !strings.Contains(reply, qc.CorrectAnswer) {
		t.Fatalf("reply %q from %s, %v", reply, provider, err)
	}
}
