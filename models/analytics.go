package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DailyAnalytics lưu thống kê học tập tổng hợp theo ngày của từng người dùng
type DailyAnalytics struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_analytics,priority:1" json:"user_id"`
	StudyDate string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_analytics,priority:2" json:"study_date"` // YYYY-MM-DD

	TotalReviewed  int64 `gorm:"not null;default:0" json:"total_reviewed"`
	AgainCount     int64 `gorm:"not null;default:0" json:"again_count"`
	GoodCount      int64 `gorm:"not null;default:0" json:"good_count"`
	EasyCount      int64 `gorm:"not null;default:0" json:"easy_count"`
	TotalTimeSpent int64 `gorm:"not null;default:0" json:"total_time_spent"` // giây
	TotalFinished  int64 `gorm:"not null;default:0" json:"total_finished"`
	QuizAnswered   int64 `gorm:"not null;default:0" json:"quiz_answered"`
	QuizCorrect    int64 `gorm:"not null;default:0" json:"quiz_correct"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DailyAnalytics) TableName() string { return "daily_analytics" }

func (a *DailyAnalytics) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// StudyStreak: mỗi người dùng một dòng
type StudyStreak struct {
	UserID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CurrentStreak int       `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak int       `gorm:"not null;default:0" json:"longest_streak"`
	LastStudyDate string    `gorm:"type:varchar(10);not null;default:''" json:"last_study_date"` // YYYY-MM-DD, rỗng nếu chưa học
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
