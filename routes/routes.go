package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/hilman45/ai-exam-prep-tutor/controllers"
	"github.com/hilman45/ai-exam-prep-tutor/middleware"
	"github.com/hilman45/ai-exam-prep-tutor/services"
	"github.com/hilman45/ai-exam-prep-tutor/utils"
	"github.com/hilman45/ai-exam-prep-tutor/ws"
)

// Deps gom các thành phần đã khởi tạo ở main để đăng ký route
type Deps struct {
	DB             *gorm.DB
	JWT            *utils.JWTManager
	GoogleClientID string
	Verifier       services.IdentityVerifier
	// CheckUserStatus bật kiểm tra trạng thái tài khoản nội bộ (AUTH_MODE=jwt)
	CheckUserStatus bool

	Hub        *ws.Hub
	Cascade    *services.Cascade
	Documents  *services.DocumentService
	Generation *services.GenerationService
	Reviews    *services.ReviewService
	Analytics  *services.AnalyticsService
	Streaks    *services.StreakService
	Users      *services.UserService
}

func SetupRouter(r *gin.Engine, d Deps) *gin.Engine {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.HealthCheck(d.DB, d.Hub, d.Cascade))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ws/documents/:id", ws.HandleDocumentWebSocket(d.Hub, d.Verifier))

	var statusDB *gorm.DB
	if d.CheckUserStatus {
		statusDB = d.DB
	}
	authMiddleware := middleware.AuthMiddleware(d.Verifier, statusDB)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.Use(middleware.DBMiddleware(d.DB))
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login(d.JWT))
		auth.POST("/logingoogle", controllers.GoogleLogin(d.JWT, d.GoogleClientID))
	}

	user := api.Group("/user")
	{
		user.Use(authMiddleware)

		// Tài liệu
		user.POST("/documents", controllers.CreateDocument(d.Documents))
		user.GET("/documents", controllers.GetDocuments(d.Documents))
		user.GET("/documents/:id", controllers.GetDocumentDetail(d.Documents))
		user.DELETE("/documents/:id", controllers.DeleteDocument(d.Documents))

		// Sinh nội dung AI
		user.POST("/ai/documents/:id/summary", controllers.GenerateSummary(d.Generation))
		user.POST("/ai/documents/:id/quiz", controllers.GenerateQuiz(d.Generation))
		user.POST("/ai/documents/:id/flashcards", controllers.GenerateFlashcards(d.Generation))
		user.GET("/ai/documents/:id/artifacts", controllers.GetDocumentArtifacts(d.Documents, d.Generation))
		user.POST("/ai/chat/notes", controllers.ChatWithNotes(d.Generation))
		user.POST("/ai/chat/quiz", controllers.ChatWithQuiz(d.Generation))

		// Artifact
		user.GET("/artifacts/:id", controllers.GetArtifact(d.Generation))
		user.PUT("/artifacts/:id", controllers.UpdateArtifact(d.Generation))
		user.DELETE("/artifacts/:id", controllers.DeleteArtifact(d.Generation))
		user.GET("/artifacts/:id/export", controllers.ExportArtifact(d.Generation))

		// Ôn tập
		user.POST("/artifacts/:id/cards/:index/review", controllers.ReviewCard(d.Reviews))
		user.GET("/artifacts/:id/cards/due", controllers.GetDueCards(d.Reviews))
		user.POST("/artifacts/:id/questions/:index/answer", controllers.AnswerQuestion(d.Reviews))

		// Thống kê
		user.GET("/stats/daily", controllers.GetDailyAnalytics(d.Analytics))
		user.GET("/stats/activity", controllers.GetStudyActivity(d.Analytics))
		user.GET("/stats/streak", controllers.GetStudyStreak(d.Streaks))
	}

	admin := api.Group("/admin")
	{
		admin.Use(authMiddleware, middleware.RequireRoles("admin"))

		admin.GET("/dashboard/stats", controllers.GetDashboardStats(d.Analytics))

		// Người dùng
		admin.GET("/users", controllers.GetUsers(d.Users))
		admin.GET("/users/:id", controllers.GetUserDetail(d.Users))
		admin.PATCH("/users/:id/activate", controllers.ActivateUser(d.Users))
		admin.PATCH("/users/:id/deactivate", controllers.DeactivateUser(d.Users))

		// Thống kê
		admin.GET("/analytics/flashcard-difficulty", controllers.GetFlashcardDifficulty(d.Analytics))
		admin.GET("/analytics/daily-study-activity", controllers.GetDailyStudyActivity(d.Analytics))
		admin.GET("/analytics/quiz-performance-by-topic", controllers.GetQuizPerformanceByTopic(d.Analytics))
		admin.GET("/analytics/most-attempted-topics", controllers.GetMostAttemptedTopics(d.Analytics))
	}

	return r
}
