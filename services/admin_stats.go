package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hilman45/ai-exam-prep-tutor/models"
)

type TopicPerformance struct {
	TopicName     string  `json:"topic_name"`
	AverageScore  float64 `json:"average_score"` // phần trăm câu đúng, làm tròn 2 chữ số
	TotalAttempts int64   `json:"total_attempts"`
}

type TopicAttempts struct {
	TopicName    string `json:"topic_name"`
	AttemptCount int64  `json:"attempt_count"`
}

type topicTotals struct {
	name     string
	attempts int64
	correct  int64
}

// quizTopicTotals gom câu trả lời quiz theo chủ đề; chủ đề là tên người dùng đặt cho quiz,
// quiz chưa đặt tên được gọi là "Quiz <8 ký tự đầu của id>"
func (s *AnalyticsService) quizTopicTotals(ctx context.Context, userID *uuid.UUID) ([]topicTotals, error) {
	var rows []struct {
		ArtifactID  uuid.UUID
		DisplayName *string
		Attempts    int64
		Correct     int64
	}
	q := s.db.WithContext(ctx).Table("quiz_interactions AS qi").
		Select(`qi.artifact_id AS artifact_id, a.display_name AS display_name,
			COUNT(*) AS attempts, SUM(CASE WHEN qi.is_correct THEN 1 ELSE 0 END) AS correct`).
		Joins("JOIN artifacts a ON a.id = qi.artifact_id").
		Where("a.kind = ?", models.KindQuiz).
		Group("qi.artifact_id, a.display_name")
	if userID != nil {
		q = q.Where("qi.user_id = ?", *userID)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, ErrPersistence(err, "không đọc được thống kê quiz")
	}

	byName := map[string]*topicTotals{}
	var out []*topicTotals
	for _, r := range rows {
		name := "Quiz " + r.ArtifactID.String()[:8]
		if r.DisplayName != nil && strings.TrimSpace(*r.DisplayName) != "" {
			name = strings.TrimSpace(*r.DisplayName)
		}
		t, ok := byName[name]
		if !ok {
			t = &topicTotals{name: name}
			byName[name] = t
			out = append(out, t)
		}
		t.attempts += r.Attempts
		t.correct += r.Correct
	}
	totals := make([]topicTotals, 0, len(out))
	for _, t := range out {
		totals = append(totals, *t)
	}
	return totals, nil
}

// QuizPerformanceByTopic: điểm trung bình theo chủ đề, cao nhất trước
func (s *AnalyticsService) QuizPerformanceByTopic(ctx context.Context, userID *uuid.UUID) ([]TopicPerformance, error) {
	totals, err := s.quizTopicTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]TopicPerformance, 0, len(totals))
	for _, t := range totals {
		score := 0.0
		if t.attempts > 0 {
			score = math.Round(float64(t.correct)/float64(t.attempts)*10000) / 100
		}
		out = append(out, TopicPerformance{TopicName: t.name, AverageScore: score, TotalAttempts: t.attempts})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AverageScore != out[j].AverageScore {
			return out[i].AverageScore > out[j].AverageScore
		}
		return out[i].TopicName < out[j].TopicName
	})
	return out, nil
}

// MostAttemptedTopics: số lượt trả lời theo chủ đề, nhiều nhất trước
func (s *AnalyticsService) MostAttemptedTopics(ctx context.Context, userID *uuid.UUID) ([]TopicAttempts, error) {
	totals, err := s.quizTopicTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]TopicAttempts, 0, len(totals))
	for _, t := range totals {
		out = append(out, TopicAttempts{TopicName: t.name, AttemptCount: t.attempts})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AttemptCount != out[j].AttemptCount {
			return out[i].AttemptCount > out[j].AttemptCount
		}
		return out[i].TopicName < out[j].TopicName
	})
	return out, nil
}

type DashboardStats struct {
	TotalUsers            int64 `json:"total_users"`
	TotalDocuments        int64 `json:"total_documents"`
	TotalQuizAnswers      int64 `json:"total_quizzes_taken"`
	TotalFlashcardReviews int64 `json:"total_flashcards_reviewed"`
	TotalSummaries        int64 `json:"total_notes_generated"`
	TotalQuizzes          int64 `json:"total_quizzes_generated"`
	TotalFlashcardSets    int64 `json:"total_flashcard_sets_generated"`
	DailyActiveUsers      int64 `json:"daily_active_users"`
}

// Dashboard tổng hợp số liệu toàn hệ thống; người dùng hoạt động là người có tài liệu, artifact,
// lượt ôn hoặc câu trả lời quiz trong ngày của now
func (s *AnalyticsService) Dashboard(ctx context.Context, now time.Time) (DashboardStats, error) {
	db := s.db.WithContext(ctx)
	var out DashboardStats
	counts := []struct {
		model any
		dest  *int64
	}{
		{&models.User{}, &out.TotalUsers},
		{&models.Document{}, &out.TotalDocuments},
		{&models.QuizInteraction{}, &out.TotalQuizAnswers},
		{&models.ReviewEvent{}, &out.TotalFlashcardReviews},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return DashboardStats{}, ErrPersistence(err, "không đọc được thống kê tổng quan")
		}
	}

	var kinds []struct {
		Kind  models.ArtifactKind
		Count int64
	}
	if err := db.Model(&models.Artifact{}).Select("kind, COUNT(*) AS count").Group("kind").Scan(&kinds).Error; err != nil {
		return DashboardStats{}, ErrPersistence(err, "không đọc được thống kê tổng quan")
	}
	for _, k := range kinds {
		switch k.Kind {
		case models.KindSummary:
			out.TotalSummaries = k.Count
		case models.KindQuiz:
			out.TotalQuizzes = k.Count
		case models.KindFlashcards:
			out.TotalFlashcardSets = k.Count
		}
	}

	local := now.In(s.loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, 1)
	err := db.Raw(`SELECT COUNT(*) FROM (
			SELECT user_id FROM quiz_interactions WHERE answered_at >= ? AND answered_at < ?
			UNION SELECT user_id FROM review_events WHERE reviewed_at >= ? AND reviewed_at < ?
			UNION SELECT user_id FROM artifacts WHERE created_at >= ? AND created_at < ?
			UNION SELECT user_id FROM documents WHERE created_at >= ? AND created_at < ?
		) AS active_users`, from, to, from, to, from, to, from, to).Scan(&out.DailyActiveUsers).Error
	if err != nil {
		return DashboardStats{}, ErrPersistence(err, "không đọc được số người dùng hoạt động")
	}
	return out, nil
}
