package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hilman45/ai-exam-prep-tutor/models"
)

// AnalyticsService cộng dồn thống kê học tập theo ngày; bộ đếm chỉ tăng
type AnalyticsService struct {
	db  *gorm.DB
	loc *time.Location
}

func NewAnalyticsService(db *gorm.DB, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsService{db: db, loc: loc}
}

func (s *AnalyticsService) Day(t time.Time) string {
	return t.In(s.loc).Format(dateLayout)
}

// RecordReview cộng một lượt ôn thẻ vào thống kê ngày diễn ra lượt ôn
func (s *AnalyticsService) RecordReview(ctx context.Context, event models.ReviewEvent, becameFinished bool) error {
	delta := models.DailyAnalytics{
		UserID:         event.UserID,
		StudyDate:      s.Day(event.ReviewedAt),
		TotalReviewed:  1,
		TotalTimeSpent: int64(max(event.TimeTaken, 0)),
	}
	switch Rating(event.Rating) {
	case RatingAgain:
		delta.AgainCount = 1
	case RatingGood:
		delta.GoodCount = 1
	case RatingEasy:
		delta.EasyCount = 1
	}
	if becameFinished {
		delta.TotalFinished = 1
	}
	return s.upsert(ctx, delta)
}

func (s *AnalyticsService) RecordQuizAnswer(ctx context.Context, userID uuid.UUID, at time.Time, correct bool) error {
	delta := models.DailyAnalytics{
		UserID:       userID,
		StudyDate:    s.Day(at),
		QuizAnswered: 1,
	}
	if correct {
		delta.QuizCorrect = 1
	}
	return s.upsert(ctx, delta)
}

var counterColumns = []string{
	"total_reviewed", "again_count", "good_count", "easy_count",
	"total_time_spent", "total_finished", "quiz_answered", "quiz_correct",
}

// upsert chèn dòng mới hoặc cộng delta vào dòng đã có trong một câu lệnh
func (s *AnalyticsService) upsert(ctx context.Context, delta models.DailyAnalytics) error {
	assignments := make(map[string]any, len(counterColumns)+1)
	for _, col := range counterColumns {
		assignments[col] = gorm.Expr("daily_analytics."+col+" + excluded."+col)
	}
	assignments["updated_at"] = gorm.Expr("excluded.updated_at")

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "study_date"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&delta).Error
}

// Get trả thống kê của một ngày; chưa có dữ liệu thì trả dòng toàn số 0
func (s *AnalyticsService) Get(ctx context.Context, userID uuid.UUID, date string) (models.DailyAnalytics, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return models.DailyAnalytics{}, ErrInvalidInput("ngày phải có dạng YYYY-MM-DD")
	}
	var row models.DailyAnalytics
	err := s.db.WithContext(ctx).First(&row, "user_id = ? AND study_date = ?", userID, date).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DailyAnalytics{UserID: userID, StudyDate: date}, nil
	}
	if err != nil {
		return models.DailyAnalytics{}, ErrPersistence(err, "không đọc được thống kê")
	}
	return row, nil
}

// Range trả thống kê days ngày gần nhất tính đến now, ngày không có dữ liệu được điền 0
func (s *AnalyticsService) Range(ctx context.Context, userID *uuid.UUID, days int, now time.Time) ([]models.DailyAnalytics, error) {
	if days < 1 || days > 365 {
		return nil, ErrInvalidInput("days phải nằm trong khoảng 1..365")
	}
	end := now.In(s.loc)
	start := end.AddDate(0, 0, -(days - 1))
	from, to := start.Format(dateLayout), end.Format(dateLayout)

	type dayTotals struct {
		StudyDate      string
		TotalReviewed  int64
		AgainCount     int64
		GoodCount      int64
		EasyCount      int64
		TotalTimeSpent int64
		TotalFinished  int64
		QuizAnswered   int64
		QuizCorrect    int64
	}
	q := s.db.WithContext(ctx).Model(&models.DailyAnalytics{}).
		Select(`study_date,
			SUM(total_reviewed) AS total_reviewed, SUM(again_count) AS again_count,
			SUM(good_count) AS good_count, SUM(easy_count) AS easy_count,
			SUM(total_time_spent) AS total_time_spent, SUM(total_finished) AS total_finished,
			SUM(quiz_answered) AS quiz_answered, SUM(quiz_correct) AS quiz_correct`).
		Where("study_date BETWEEN ? AND ?", from, to).
		Group("study_date")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var rows []dayTotals
	if err := q.Scan(&rows).Error; err != nil {
		return nil, ErrPersistence(err, "không đọc được thống kê")
	}
	byDate := make(map[string]dayTotals, len(rows))
	for _, r := range rows {
		byDate[r.StudyDate] = r
	}

	out := make([]models.DailyAnalytics, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		r := byDate[key]
		row := models.DailyAnalytics{
			StudyDate:      key,
			TotalReviewed:  r.TotalReviewed,
			AgainCount:     r.AgainCount,
			GoodCount:      r.GoodCount,
			EasyCount:      r.EasyCount,
			TotalTimeSpent: r.TotalTimeSpent,
			TotalFinished:  r.TotalFinished,
			QuizAnswered:   r.QuizAnswered,
			QuizCorrect:    r.QuizCorrect,
		}
		if userID != nil {
			row.UserID = *userID
		}
		out = append(out, row)
	}
	return out, nil
}

type RatingTotals struct {
	Again int64 `json:"again"`
	Good  int64 `json:"good"`
	Easy  int64 `json:"easy"`
	Total int64 `json:"total"`
}

// RatingTotals đếm số lượt đánh giá theo mức độ khó từ lịch sử ôn tập
func (s *AnalyticsService) RatingTotals(ctx context.Context, userID *uuid.UUID) (RatingTotals, error) {
	var rows []struct {
		Rating string
		Count  int64
	}
	q := s.db.WithContext(ctx).Model(&models.ReviewEvent{}).Select("rating, COUNT(*) AS count").Group("rating")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return RatingTotals{}, ErrPersistence(err, "không đọc được thống kê độ khó")
	}
	var out RatingTotals
	for _, r := range rows {
		switch Rating(r.Rating) {
		case RatingAgain:
			out.Again = r.Count
		case RatingGood:
			out.Good = r.Count
		case RatingEasy:
			out.Easy = r.Count
		}
		out.Total += r.Count
	}
	return out, nil
}
