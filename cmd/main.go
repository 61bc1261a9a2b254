package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/hilman45/ai-exam-prep-tutor/config"
	"github.com/hilman45/ai-exam-prep-tutor/logger"
	"github.com/hilman45/ai-exam-prep-tutor/routes"
	"github.com/hilman45/ai-exam-prep-tutor/services"
	"github.com/hilman45/ai-exam-prep-tutor/utils"
	"github.com/hilman45/ai-exam-prep-tutor/ws"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Không tìm thấy file .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Cấu hình không hợp lệ: ", err)
	}

	appLog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatal("Không khởi tạo được logger: ", err)
	}
	defer appLog.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	config.InitDB(cfg)
	db := config.DB

	jwtm := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	var verifier services.IdentityVerifier = services.NewJWTVerifier(jwtm)
	if cfg.AuthMode == "supabase" {
		verifier = services.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	}

	var locker services.KeyLocker = services.NewLocalLocker()
	if cfg.RedisURL != "" {
		rl, err := services.NewRedisLocker(cfg.RedisURL, 2*cfg.AI.Timeout+time.Minute)
		if err != nil {
			appLog.Warn("Không kết nối được Redis, dùng khoá nội bộ", "error", err)
		} else {
			defer rl.Close()
			locker = rl
		}
	}

	// storage phải là nil thật khi không dùng Supabase
	var storage services.TextStorage
	if cfg.DocumentSource == "supabase" {
		storage = utils.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
	}

	hub := ws.NewHub(appLog.With("component", "ws"))
	cascade := services.NewCascadeFromConfig(cfg.AI, appLog.With("component", "cascade"))
	docs := services.NewDocumentService(db, storage, appLog)
	gate := services.NewArtifactGate(db, locker)
	generation := services.NewGenerationService(db, gate, docs, cascade, hub, services.GenerationOptions{
		ChunkSize:   cfg.AI.ChunkSize,
		ChunkWindow: cfg.AI.ChunkWindow,
	}, appLog.With("component", "generation"))
	analytics := services.NewAnalyticsService(db, cfg.Location)
	streaks := services.NewStreakService(db, cfg.Location)
	reviews := services.NewReviewService(db, analytics, streaks, appLog.With("component", "review"))

	cleanup, err := utils.StartCleanupJob(db, appLog.With("component", "cleanup"), cfg.CleanupCron)
	if err != nil {
		appLog.Fatal("CLEANUP_CRON không hợp lệ", "error", err)
	}
	defer cleanup.Stop()

	r := gin.Default()

	//Bật CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r = routes.SetupRouter(r, routes.Deps{
		DB:              db,
		JWT:             jwtm,
		GoogleClientID:  cfg.GoogleClientID,
		Verifier:        verifier,
		CheckUserStatus: cfg.AuthMode == "jwt",
		Hub:             hub,
		Cascade:         cascade,
		Documents:       docs,
		Generation:      generation,
		Reviews:         reviews,
		Analytics:       analytics,
		Streaks:         streaks,
		Users:           services.NewUserService(db),
	})

	r.GET("/", func(c *gin.Context) {
		c.String(200, "Exam prep tutor server is running")
	})

	appLog.Info("Server running", "port", cfg.Port, "auth_mode", cfg.AuthMode)
	if err := r.Run(":" + cfg.Port); err != nil {
		appLog.Fatal("Server dừng", "error", err)
	}
}
