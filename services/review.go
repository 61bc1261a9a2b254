package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hilman45/ai-exam-prep-tutor/logger"
	"github.com/hilman45/ai-exam-prep-tutor/models"
)

const maxStateRetries = 3

// ReviewService ghi nhận lượt ôn flashcard và lượt trả lời trắc nghiệm
type ReviewService struct {
	db        *gorm.DB
	analytics *AnalyticsService
	streaks   *StreakService
	log       *logger.Logger
	now       func() time.Time
}

func NewReviewService(db *gorm.DB, analytics *AnalyticsService, streaks *StreakService, log *logger.Logger) *ReviewService {
	return &ReviewService{db: db, analytics: analytics, streaks: streaks, log: log, now: time.Now}
}

type ReviewInput struct {
	UserID     uuid.UUID
	ArtifactID uuid.UUID
	CardIndex  int
	Rating     string
	TimeTaken  int
}

// RecordReview cập nhật trạng thái thẻ, ghi lịch sử, rồi cập nhật thống kê và chuỗi ngày học (không bắt buộc thành công)
func (s *ReviewService) RecordReview(ctx context.Context, in ReviewInput) (models.CardState, error) {
	rating, err := ParseRating(in.Rating)
	if err != nil {
		return models.CardState{}, err
	}
	if in.TimeTaken < 0 {
		return models.CardState{}, ErrInvalidInput("time_taken không được âm")
	}

	artifact, err := loadOwnedArtifact(ctx, s.db, in.ArtifactID, in.UserID, models.KindFlashcards)
	if err != nil {
		return models.CardState{}, err
	}
	payload, err := artifact.Flashcards()
	if err != nil {
		return models.CardState{}, ErrPersistence(err, "dữ liệu flashcard bị hỏng")
	}
	if in.CardIndex < 0 || in.CardIndex >= len(payload.Cards) {
		return models.CardState{}, ErrInvalidInput("card_index nằm ngoài phạm vi bộ thẻ")
	}

	now := s.now()
	event := models.ReviewEvent{
		UserID:     in.UserID,
		ArtifactID: in.ArtifactID,
		CardIndex:  in.CardIndex,
		Rating:     string(rating),
		TimeTaken:  in.TimeTaken,
		ReviewedAt: now,
	}
	// trạng thái thẻ và lịch sử ôn được ghi cùng nhau hoặc không ghi gì
	var prev, next models.CardState
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		prev, next, err = s.updateState(tx, in.UserID, in.ArtifactID, in.CardIndex, rating, now)
		if err != nil {
			return err
		}
		if err := tx.Create(&event).Error; err != nil {
			return ErrPersistence(err, "không lưu được lịch sử ôn tập")
		}
		return nil
	})
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return models.CardState{}, err
		}
		return models.CardState{}, ErrPersistence(err, "không lưu được lượt ôn tập")
	}
	reviewsRecorded.WithLabelValues(string(rating)).Inc()

	becameFinished := next.IsFinished && !prev.IsFinished
	s.afterStudy(ctx, in.UserID, now, func(ctx context.Context) error {
		return s.analytics.RecordReview(ctx, event, becameFinished)
	})
	return next, nil
}

// updateState đọc-sửa-ghi có kiểm tra version, thử lại khi có ghi đồng thời
func (s *ReviewService) updateState(db *gorm.DB, userID, artifactID uuid.UUID, cardIndex int, rating Rating, now time.Time) (models.CardState, models.CardState, error) {
	for attempt := 0; attempt < maxStateRetries; attempt++ {
		var cur models.CardState
		err := db.Where("user_id = ? AND artifact_id = ? AND card_index = ?", userID, artifactID, cardIndex).First(&cur).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			fresh := models.CardState{UserID: userID, ArtifactID: artifactID, CardIndex: cardIndex, DueAt: now}
			next := ApplyRating(fresh, rating, now)
			next.Version = 1
			res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&next)
			if res.Error != nil {
				return models.CardState{}, models.CardState{}, ErrPersistence(res.Error, "không lưu được trạng thái thẻ")
			}
			if res.RowsAffected == 1 {
				return fresh, next, nil
			}
			continue
		case err != nil:
			return models.CardState{}, models.CardState{}, ErrPersistence(err, "không đọc được trạng thái thẻ")
		}

		next := ApplyRating(cur, rating, now)
		next.Version = cur.Version + 1
		res := db.Model(&models.CardState{}).
			Where("id = ? AND version = ?", cur.ID, cur.Version).
			Updates(map[string]any{
				"interval_minutes": next.IntervalMinutes,
				"due_at":           next.DueAt,
				"correct_streak":   next.CorrectStreak,
				"easy_count":       next.EasyCount,
				"is_finished":      next.IsFinished,
				"review_count":     next.ReviewCount,
				"last_reviewed_at": next.LastReviewedAt,
				"version":          next.Version,
			})
		if res.Error != nil {
			return models.CardState{}, models.CardState{}, ErrPersistence(res.Error, "không cập nhật được trạng thái thẻ")
		}
		if res.RowsAffected == 1 {
			return cur, next, nil
		}
	}
	return models.CardState{}, models.CardState{}, ErrPersistence(nil, "trạng thái thẻ đang bị cập nhật đồng thời, vui lòng thử lại")
}

type QuizAnswerInput struct {
	UserID        uuid.UUID
	ArtifactID    uuid.UUID
	QuestionIndex int
	SelectedIndex int
}

// RecordQuizAnswer chấm một câu trả lời trắc nghiệm và lưu lại
func (s *ReviewService) RecordQuizAnswer(ctx context.Context, in QuizAnswerInput) (models.QuizInteraction, models.QuizQuestion, error) {
	artifact, err := loadOwnedArtifact(ctx, s.db, in.ArtifactID, in.UserID, models.KindQuiz)
	if err != nil {
		return models.QuizInteraction{}, models.QuizQuestion{}, err
	}
	payload, err := artifact.Quiz()
	if err != nil {
		return models.QuizInteraction{}, models.QuizQuestion{}, ErrPersistence(err, "dữ liệu quiz bị hỏng")
	}
	if in.QuestionIndex < 0 || in.QuestionIndex >= len(payload.Questions) {
		return models.QuizInteraction{}, models.QuizQuestion{}, ErrInvalidInput("question_index nằm ngoài phạm vi")
	}
	q := payload.Questions[in.QuestionIndex]
	if in.SelectedIndex < 0 || in.SelectedIndex >= len(q.Options) {
		return models.QuizInteraction{}, models.QuizQuestion{}, ErrInvalidInput("selected_index nằm ngoài phạm vi")
	}

	now := s.now()
	interaction := models.QuizInteraction{
		UserID:        in.UserID,
		ArtifactID:    in.ArtifactID,
		QuestionIndex: in.QuestionIndex,
		SelectedIndex: in.SelectedIndex,
		IsCorrect:     in.SelectedIndex == q.CorrectIndex,
		AnsweredAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&interaction).Error; err != nil {
		return models.QuizInteraction{}, models.QuizQuestion{}, ErrPersistence(err, "không lưu được câu trả lời")
	}

	s.afterStudy(ctx, in.UserID, now, func(ctx context.Context) error {
		return s.analytics.RecordQuizAnswer(ctx, in.UserID, now, interaction.IsCorrect)
	})
	return interaction, q, nil
}

// afterStudy chạy cập nhật thống kê và chuỗi ngày học; lỗi chỉ được log lại
func (s *ReviewService) afterStudy(ctx context.Context, userID uuid.UUID, now time.Time, recordAnalytics func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	if err := recordAnalytics(ctx); err != nil {
		sideEffectFailures.WithLabelValues("analytics").Inc()
		s.log.Warn("Cập nhật thống kê ngày thất bại", "user_id", userID, "error", err)
	}
	if _, err := s.streaks.Touch(ctx, userID, now); err != nil {
		sideEffectFailures.WithLabelValues("streak").Inc()
		s.log.Warn("Cập nhật chuỗi ngày học thất bại", "user_id", userID, "error", err)
	}
}

type DueCard struct {
	Index int               `json:"index"`
	Card  models.Flashcard  `json:"card"`
	State *models.CardState `json:"state,omitempty"`
}

// DueCards liệt kê các thẻ chưa hoàn thành và đã đến hạn ôn (thẻ chưa ôn lần nào luôn đến hạn)
func (s *ReviewService) DueCards(ctx context.Context, userID, artifactID uuid.UUID) ([]DueCard, error) {
	artifact, err := loadOwnedArtifact(ctx, s.db, artifactID, userID, models.KindFlashcards)
	if err != nil {
		return nil, err
	}
	payload, err := artifact.Flashcards()
	if err != nil {
		return nil, ErrPersistence(err, "dữ liệu flashcard bị hỏng")
	}
	states, err := s.CardStates(ctx, userID, artifactID)
	if err != nil {
		return nil, err
	}
	byIndex := make(map[int]models.CardState, len(states))
	for _, st := range states {
		byIndex[st.CardIndex] = st
	}

	now := s.now()
	due := make([]DueCard, 0, len(payload.Cards))
	for i, card := range payload.Cards {
		st, ok := byIndex[i]
		if !ok {
			due = append(due, DueCard{Index: i, Card: card})
			continue
		}
		if st.IsFinished || st.DueAt.After(now) {
			continue
		}
		due = append(due, DueCard{Index: i, Card: card, State: &st})
	}
	return due, nil
}

func (s *ReviewService) CardStates(ctx context.Context, userID, artifactID uuid.UUID) ([]models.CardState, error) {
	var states []models.CardState
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND artifact_id = ?", userID, artifactID).
		Order("card_index").
		Find(&states).Error
	if err != nil {
		return nil, ErrPersistence(err, "không đọc được trạng thái thẻ")
	}
	return states, nil
}

// loadOwnedArtifact: 404 nếu không có, 403 nếu khác chủ, 400 nếu sai loại
func loadOwnedArtifact(ctx context.Context, db *gorm.DB, artifactID, userID uuid.UUID, kind models.ArtifactKind) (*models.Artifact, error) {
	var a models.Artifact
	err := db.WithContext(ctx).First(&a, "id = ?", artifactID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound("không tìm thấy artifact")
	}
	if err != nil {
		return nil, ErrPersistence(err, "không đọc được artifact")
	}
	if a.UserID != userID {
		return nil, ErrUnauthorized("bạn không có quyền truy cập artifact này")
	}
	if kind != "" && a.Kind != kind {
		return nil, ErrInvalidInput("artifact không phải loại %s", kind)
	}
	return &a, nil
}
