package services

import (
	"strings"
	"time"

	"github.com/hilman45/ai-exam-prep-tutor/models"
)

type Rating string

const (
	RatingAgain Rating = "again"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

const (
	againIntervalMinutes = 1
	goodIntervalMinutes  = 3
	easyIntervalMinutes  = 10

	finishEasyCount = 3
	finishStreak    = 2
)

func ParseRating(s string) (Rating, error) {
	switch r := Rating(strings.ToLower(strings.TrimSpace(s))); r {
	case RatingAgain, RatingGood, RatingEasy:
		return r, nil
	}
	return "", ErrInvalidInput("rating phải là again, good hoặc easy")
}

// ApplyRating tính trạng thái mới của thẻ sau một lượt đánh giá
//
//	again: interval 1 phút, streak về 0
//	good:  interval 3 phút, streak +1
//	easy:  interval 10 phút, streak +1, easyCount +1
//
// Thẻ hoàn thành khi easyCount >= 3 hoặc streak >= 2.
func ApplyRating(state models.CardState, rating Rating, now time.Time) models.CardState {
	next := state
	switch rating {
	case RatingAgain:
		next.IntervalMinutes = againIntervalMinutes
		next.CorrectStreak = 0
	case RatingGood:
		next.IntervalMinutes = goodIntervalMinutes
		next.CorrectStreak++
	case RatingEasy:
		next.IntervalMinutes = easyIntervalMinutes
		next.CorrectStreak++
		next.EasyCount++
	}
	next.DueAt = now.Add(time.Duration(next.IntervalMinutes) * time.Minute)
	next.IsFinished = next.EasyCount >= finishEasyCount || next.CorrectStreak >= finishStreak
	next.ReviewCount++
	reviewed := now
	next.LastReviewedAt = &reviewed
	return next
}
