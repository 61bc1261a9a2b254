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

const dateLayout = "2006-01-02"

// NextStreak tính chuỗi ngày học khi người dùng học vào ngày today (YYYY-MM-DD).
// changed=false nếu hôm nay đã được tính.
func NextStreak(prev models.StudyStreak, today string) (models.StudyStreak, bool) {
	next := prev
	switch {
	case prev.LastStudyDate == "":
		next.CurrentStreak = 1
	case prev.LastStudyDate == today:
		return prev, false
	case isDayBefore(prev.LastStudyDate, today):
		next.CurrentStreak = prev.CurrentStreak + 1
	default:
		// cách quãng, ngày trong tương lai hoặc ngày không đọc được
		next.CurrentStreak = 1
	}
	next.LastStudyDate = today
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	return next, true
}

func isDayBefore(prev, today string) bool {
	p, err := time.Parse(dateLayout, prev)
	if err != nil {
		return false
	}
	t, err := time.Parse(dateLayout, today)
	if err != nil {
		return false
	}
	return p.AddDate(0, 0, 1).Equal(t)
}

type StreakService struct {
	db  *gorm.DB
	loc *time.Location
}

func NewStreakService(db *gorm.DB, loc *time.Location) *StreakService {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakService{db: db, loc: loc}
}

// Touch ghi nhận hoạt động học tại thời điểm now
func (s *StreakService) Touch(ctx context.Context, userID uuid.UUID, now time.Time) (models.StudyStreak, error) {
	today := now.In(s.loc).Format(dateLayout)
	db := s.db.WithContext(ctx)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.StudyStreak{UserID: userID}).Error; err != nil {
		return models.StudyStreak{}, err
	}

	for attempt := 0; attempt < 5; attempt++ {
		var cur models.StudyStreak
		if err := db.First(&cur, "user_id = ?", userID).Error; err != nil {
			return models.StudyStreak{}, err
		}
		next, changed := NextStreak(cur, today)
		if !changed {
			return cur, nil
		}
		res := db.Model(&models.StudyStreak{}).
			Where("user_id = ? AND last_study_date = ?", userID, cur.LastStudyDate).
			Updates(map[string]any{
				"current_streak":  next.CurrentStreak,
				"longest_streak":  next.LongestStreak,
				"last_study_date": next.LastStudyDate,
			})
		if res.Error != nil {
			return models.StudyStreak{}, res.Error
		}
		if res.RowsAffected == 1 {
			return next, nil
		}
	}
	return models.StudyStreak{}, errors.New("cập nhật chuỗi ngày học bị xung đột liên tục")
}

// Get trả về dòng rỗng nếu người dùng chưa học ngày nào
func (s *StreakService) Get(ctx context.Context, userID uuid.UUID) (models.StudyStreak, error) {
	var st models.StudyStreak
	err := s.db.WithContext(ctx).First(&st, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.StudyStreak{UserID: userID}, nil
	}
	if err != nil {
		return models.StudyStreak{}, ErrPersistence(err, "không đọc được chuỗi ngày học")
	}
	return st, nil
}
