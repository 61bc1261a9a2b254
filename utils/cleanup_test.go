package utils

import (
	"fmt"
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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestCleanupOrphans(t *testing.T) {
	db := newTestDB(t)
	user := uuid.New()
	kept := models.Artifact{DocumentID: uuid.New(), UserID: user, Kind: models.KindFlashcards, Payload: datatypes.JSON(`{"cards":[]}`)}
	if err := db.Create(&kept).Error; err != nil {
		t.Fatal(err)
	}
	gone := uuid.New()
	now := time.Now()

	rows := []any{
		&models.CardState{UserID: user, ArtifactID: kept.ID, CardIndex: 0, DueAt: now},
		&models.CardState{UserID: user, ArtifactID: gone, CardIndex: 0, DueAt: now},
		&models.ReviewEvent{UserID: user, ArtifactID: gone, Rating: "good", ReviewedAt: now},
		&models.QuizInteraction{UserID: user, ArtifactID: gone, AnsweredAt: now},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatal(err)
		}
	}

	removed, err := CleanupOrphans(db, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Fatalf("removed %d rows", removed)
	}
	var states int64
	db.Model(&models.CardState{}).Count(&states)
	if states != 1 {
		t.Fatalf("card states left = %d", states)
	}
}

func TestStartCleanupJobRejectsBadSchedule(t *testing.T) {
	db := newTestDB(t)
	if _, err := StartCleanupJob(db, logger.Nop(), "not a schedule"); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
	c, err := StartCleanupJob(db, logger.Nop(), "@every 1h")
	if err != nil {
		t.Fatal(err)
	}
	c.Stop()
}
