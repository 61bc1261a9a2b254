package models

// All trả về danh sách model cần AutoMigrate
func All() []any {
	return []any{
		&User{},
		&Document{},
		&Artifact{},
		&CardState{},
		&ReviewEvent{},
		&QuizInteraction{},
		&DailyAnalytics{},
		&StudyStreak{},
	}
}
