package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hilman45/ai-exam-prep-tutor/logger"
	"github.com/hilman45/ai-exam-prep-tutor/models"
)

// newTestDB mở một sqlite in-memory riêng cho mỗi test
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedDocument(t *testing.T, db *gorm.DB, owner uuid.UUID, text string) models.Document {
	t.Helper()
	doc := models.Document{UserID: owner, OriginalName: "Biology Notes", FileType: "text/plain", ExtractedText: text}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}

func seedArtifact(t *testing.T, db *gorm.DB, doc models.Document, kind models.ArtifactKind, payload any) models.Artifact {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	a := models.Artifact{DocumentID: doc.ID, UserID: doc.UserID, Kind: kind, Payload: datatypes.JSON(data), Providers: "test"}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed artifact: %v", err)
	}
	return a
}

func sampleCards() models.FlashcardPayload {
	return models.FlashcardPayload{Cards: []models.Flashcard{
		{Front: "Mitochondria", Back: "Powerhouse of the cell"},
		{Front: "Ribosome", Back: "Builds proteins"},
		{Front: "Nucleus", Back: "Holds genetic material"},
	}}
}

func sampleQuiz() models.QuizPayload {
	return models.QuizPayload{Questions: []models.QuizQuestion{
		{Text: "What produces ATP?", Options: []string{"Mitochondria", "Ribosome", "Nucleus"}, CorrectIndex: 0},
		{Text: "What builds proteins?", Options: []string{"Mitochondria", "Ribosome", "Nucleus"}, CorrectIndex: 1},
		{Text: "What holds DNA?", Options: []string{"Mitochondria", "Ribosome", "Nucleus"}, CorrectIndex: 2},
	}}
}

// fakeProvider là provider giả lập cho test chuỗi tầng
type fakeProvider struct {
	name       string
	configured bool
	calls      atomic.Int32
	fn         func(ctx context.Context, task Task, p Payload) (string, error)
}

func newFake(name string, fn func(ctx context.Context, task Task, p Payload) (string, error)) *fakeProvider {
	return &fakeProvider{name: name, configured: true, fn: fn}
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Generate(ctx context.Context, task Task, p Payload) (string, error) {
	f.calls.Add(1)
	return f.fn(ctx, task, p)
}

func failing(name string) *fakeProvider {
	return newFake(name, func(context.Context, Task, Payload) (string, error) {
		return "", errors.New("upstream 503")
	})
}

func testCascade(providers ...Provider) *Cascade {
	return NewCascade(providers, CascadeOptions{Timeout: time.Second, Parallelism: 2}, logger.Nop())
}

func withHeuristic(providers ...Provider) *Cascade {
	return testCascade(append(providers, NewHeuristicProvider())...)
}

const biologyText = `The mitochondria is the powerhouse of the cell. Mitochondria produce ATP through cellular respiration.
Ribosomes build proteins by translating messenger RNA. The nucleus stores genetic material in chromosomes.
Cell membranes control what enters and leaves the cell. Photosynthesis happens in chloroplasts of plant cells.`
