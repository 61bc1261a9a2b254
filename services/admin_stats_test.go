package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/hilman45/ai-exam-prep-tutor/models"
)

// seedQuizActivity: quiz chưa đặt tên 1/2 câu đúng, quiz "Cell Biology" 3/3 của owner và 0/1 của người khác
func seedQuizActivity(t *testing.T, f *reviewFixture) (named models.Artifact, other uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	doc := seedDocument(t, f.db, f.owner, biologyText)
	named = seedArtifact(t, f.db, doc, models.KindQuiz, sampleQuiz())
	if err := f.db.Model(&named).Update("display_name", "Cell Biology").Error; err != nil {
		t.Fatal(err)
	}

	answers := []QuizAnswerInput{
		{UserID: f.owner, ArtifactID: f.quiz.ID, QuestionIndex: 0, SelectedIndex: 0},
		{UserID: f.owner, ArtifactID: f.quiz.ID, QuestionIndex: 1, SelectedIndex: 0},
		{UserID: f.owner, ArtifactID: named.ID, QuestionIndex: 0, SelectedIndex: 0},
		{UserID: f.owner, ArtifactID: named.ID, QuestionIndex: 1, SelectedIndex: 1},
		{UserID: f.owner, ArtifactID: named.ID, QuestionIndex: 2, SelectedIndex: 2},
	}
	for _, in := range answers {
		if _, _, err := f.svc.RecordQuizAnswer(ctx, in); err != nil {
			t.Fatal(err)
		}
	}
	other = uuid.New()
	wrong := models.QuizInteraction{UserID: other, ArtifactID: named.ID, QuestionIndex: 0, SelectedIndex: 2, AnsweredAt: f.now}
	if err := f.db.Create(&wrong).Error; err != nil {
		t.Fatal(err)
	}
	return named, other
}

func TestQuizPerformanceByTopic(t *testing.T) {
	f := newReviewFixture(t)
	seedQuizActivity(t, f)
	ctx := context.Background()
	unnamed := "Quiz " + f.quiz.ID.String()[:8]

	all, err := f.analytics.QuizPerformanceByTopic(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []TopicPerformance{
		{TopicName: "Cell Biology", AverageScore: 75, TotalAttempts: 4},
		{TopicName: unnamed, AverageScore: 50, TotalAttempts: 2},
	}
	if len(all) != len(want) || all[0] != want[0] || all[1] != want[1] {
		t.Fatalf("got %+v want %+v", all, want)
	}

	mine, err := f.analytics.QuizPerformanceByTopic(ctx, &f.owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].AverageScore != 100 || mine[0].TotalAttempts != 3 {
		t.Fatalf("filtered by user: %+v", mine)
	}
}

func TestMostAttemptedTopics(t *testing.T) {
	f := newReviewFixture(t)
	_, other := seedQuizActivity(t, f)
	ctx := context.Background()

	got, err := f.analytics.MostAttemptedTopics(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].TopicName != "Cell Biology" || got[0].AttemptCount != 4 || got[1].AttemptCount != 2 {
		t.Fatalf("got %+v", got)
	}

	theirs, err := f.analytics.MostAttemptedTopics(ctx, &other)
	if err != nil {
		t.Fatal(err)
	}
	if len(theirs) != 1 || theirs[0].AttemptCount != 1 {
		t.Fatalf("other user: %+v", theirs)
	}
}

func TestDashboard(t *testing.T) {
	f := newReviewFixture(t)
	seedQuizActivity(t, f)
	ctx := context.Background()
	if err := f.db.Create(&models.User{ID: f.owner, FullName: "An", Email: "an@example.com"}).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := f.review(0, "good"); err != nil {
		t.Fatal(err)
	}

	got, err := f.analytics.Dashboard(ctx, f.now)
	if err != nil {
		t.Fatal(err)
	}
	want := DashboardStats{
		TotalUsers:            1,
		TotalDocuments:        2,
		TotalQuizAnswers:      6,
		TotalFlashcardReviews: 1,
		TotalQuizzes:          2,
		TotalFlashcardSets:    1,
		DailyActiveUsers:      2,
	}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}

	nextDay, err := f.analytics.Dashboard(ctx, f.now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if nextDay.DailyActiveUsers != 0 {
		t.Fatalf("active users next day = %d", nextDay.DailyActiveUsers)
	}
}
