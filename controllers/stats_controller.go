package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hilman45/ai-exam-prep-tutor/services"
)

const defaultActivityDays = 7

func queryDays(c *gin.Context) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return defaultActivityDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days phải là số nguyên"})
		return 0, false
	}
	return days, true
}

// queryUserID đọc ?user_id tuỳ chọn cho các thống kê của admin; nil nghĩa là toàn hệ thống
func queryUserID(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("user_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id không hợp lệ"})
		return nil, false
	}
	return &id, true
}

func GetDailyAnalytics(analytics *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		date := c.Query("date")
		if date == "" {
			date = analytics.Day(time.Now())
		}
		row, err := analytics.Get(c.Request.Context(), userID, date)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"analytics": row})
	}
}

func GetStudyActivity(analytics *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		days, ok := queryDays(c)
		if !ok {
			return
		}
		rows, err := analytics.Range(c.Request.Context(), &userID, days, time.Now())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"days": days, "activity": rows})
	}
}

func GetStudyStreak(streaks *services.StreakService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		streak, err := streaks.Get(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"streak": streak})
	}
}

func GetFlashcardDifficulty(analytics *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := queryUserID(c)
		if !ok {
			return
		}
		totals, err := analytics.RatingTotals(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"difficulty": totals})
	}
}

func GetDailyStudyActivity(analytics *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := queryUserID(c)
		if !ok {
			return
		}
		days, ok := queryDays(c)
		if !ok {
			return
		}
		rows, err := analytics.Range(c.Request.Context(), userID, days, time.Now())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"days": days, "activity": rows})
	}
}

func GetQuizPerformanceByTopic(analytics *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := queryUserID(c)
		if !ok {
			return
		}
		topics, err := analytics.QuizPerformanceByTopic(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"topics": topics, "total": len(topics)})
	}
}

func GetMostAttemptedTopics(analytics *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := queryUserID(c)
		if !ok {
			return
		}
		topics, err := analytics.MostAttemptedTopics(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"topics": topics, "total": len(topics)})
	}
}

// GetDashboardStats: số liệu tổng quan cho trang quản trị
func GetDashboardStats(analytics *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := analytics.Dashboard(c.Request.Context(), time.Now())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats})
	}
}
