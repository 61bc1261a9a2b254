package services

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hilman45/ai-exam-prep-tutor/models"
)

func TestAnalyticsCountersOnlyGrow(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, time.UTC)
	ctx := context.Background()
	user := uuid.New()
	at := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	ratings := []Rating{RatingAgain, RatingGood, RatingEasy}
	rng := rand.New(rand.NewSource(7))

	var prev models.DailyAnalytics
	want := map[Rating]int64{}
	for i := 0; i < 40; i++ {
		r := ratings[rng.Intn(len(ratings))]
		want[r]++
		event := models.ReviewEvent{UserID: user, Rating: string(r), TimeTaken: rng.Intn(30), ReviewedAt: at}
		if rng.Intn(2) == 0 {
			if err := svc.RecordQuizAnswer(ctx, user, at, rng.Intn(2) == 0); err != nil {
				t.Fatal(err)
			}
		}
		if err := svc.RecordReview(ctx, event, false); err != nil {
			t.Fatalf("RecordReview: %v", err)
		}
		cur, err := svc.Get(ctx, user, "2025-03-05")
		if err != nil {
			t.Fatal(err)
		}
		if cur.TotalReviewed < prev.TotalReviewed || cur.TotalTimeSpent < prev.TotalTimeSpent ||
			cur.QuizAnswered < prev.QuizAnswered || cur.QuizCorrect < prev.QuizCorrect {
			t.Fatalf("counter decreased: %+v -> %+v", prev, cur)
		}
		if cur.QuizCorrect > cur.QuizAnswered {
			t.Fatalf("quiz correct exceeds answered: %+v", cur)
		}
		prev = cur
	}

	if prev.TotalReviewed != 40 {
		t.Fatalf("total reviewed = %d", prev.TotalReviewed)
	}
	if prev.AgainCount != want[RatingAgain] || prev.GoodCount != want[RatingGood] || prev.EasyCount != want[RatingEasy] {
		t.Fatalf("rating counters %+v, want %v", prev, want)
	}
	if prev.AgainCount+prev.GoodCount+prev.EasyCount != prev.TotalReviewed {
		t.Fatal("rating counters do not add up")
	}

	var rows int64
	db.Model(&models.DailyAnalytics{}).Where("user_id = ?", user).Count(&rows)
	if rows != 1 {
		t.Fatalf("expected one row per user/day, got %d", rows)
	}
}

func TestAnalyticsGetMissingDayIsZero(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, time.UTC)
	row, err := svc.Get(context.Background(), uuid.New(), "2025-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if row.TotalReviewed != 0 || row.StudyDate != "2025-01-01" {
		t.Fatalf("got %+v", row)
	}
	if _, err := svc.Get(context.Background(), uuid.New(), "01/01/2025"); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}

func TestAnalyticsRangeZeroFills(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, time.UTC)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	record := func(user uuid.UUID, daysAgo int, r Rating) {
		t.Helper()
		ev := models.ReviewEvent{UserID: user, Rating: string(r), ReviewedAt: now.AddDate(0, 0, -daysAgo)}
		if err := svc.RecordReview(ctx, ev, r == RatingEasy); err != nil {
			t.Fatal(err)
		}
	}
	record(alice, 0, RatingGood)
	record(alice, 2, RatingEasy)
	record(bob, 2, RatingAgain)
	record(alice, 30, RatingGood)

	rows, err := svc.Range(ctx, &alice, 7, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 7 || rows[0].StudyDate != "2025-03-04" || rows[6].StudyDate != "2025-03-10" {
		t.Fatalf("unexpected range %+v", rows)
	}
	if rows[6].TotalReviewed != 1 || rows[4].TotalReviewed != 1 || rows[4].TotalFinished != 1 || rows[5].TotalReviewed != 0 {
		t.Fatalf("unexpected counts %+v", rows)
	}

	all, err := svc.Range(ctx, nil, 7, now)
	if err != nil {
		t.Fatal(err)
	}
	if all[4].TotalReviewed != 2 || all[4].AgainCount != 1 {
		t.Fatalf("system-wide totals %+v", all[4])
	}

	if _, err := svc.Range(ctx, &alice, 0, now); KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}

func TestAnalyticsRatingTotals(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, time.UTC)
	user, other := uuid.New(), uuid.New()
	artifact := uuid.New()
	for _, e := range []struct {
		user   uuid.UUID
		rating Rating
	}{{user, RatingAgain}, {user, RatingAgain}, {user, RatingEasy}, {other, RatingGood}} {
		ev := models.ReviewEvent{UserID: e.user, ArtifactID: artifact, Rating: string(e.rating), ReviewedAt: time.Now()}
		if err := db.Create(&ev).Error; err != nil {
			t.Fatal(err)
		}
	}

	mine, err := svc.RatingTotals(context.Background(), &user)
	if err != nil {
		t.Fatal(err)
	}
	if mine.Again != 2 || mine.Easy != 1 || mine.Good != 0 || mine.Total != 3 {
		t.Fatalf("got %+v", mine)
	}
	all, err := svc.RatingTotals(context.Background(), nil)
	if err != nil || all.Total != 4 || all.Good != 1 {
		t.Fatalf("got %+v, %v", all, err)
	}
}
