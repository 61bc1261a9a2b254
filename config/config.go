package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hilman45/ai-exam-prep-tutor/models"
)

var DB *gorm.DB

type Config struct {
	Port        string
	AppEnv      string
	Timezone    string
	Location    *time.Location
	CORSOrigins []string

	DBDriver   string // postgres | sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	JWTSecret      string
	JWTTTL         time.Duration
	AuthMode       string // jwt | supabase
	GoogleClientID string

	SupabaseURL     string
	SupabaseKey     string
	SupabaseAnonKey string
	SupabaseBucket  string
	DocumentSource  string // db | supabase

	RedisURL    string
	CleanupCron string

	AI AIConfig
}

// AIConfig gom toàn bộ cấu hình cho chuỗi nhà cung cấp AI
type AIConfig struct {
	ProviderOrder        []string
	Timeout              time.Duration
	ChunkSize            int
	ChunkWindow          int
	ResummarizeThreshold int
	Parallelism          int

	GroqAPIKey  string
	GroqModel   string
	GroqBaseURL string
	GroqRPS     float64

	LocalLLMURL   string
	LocalLLMModel string

	GeminiAPIKey string
	GeminiModel  string
	GeminiRPS    float64

	HFAPIKey       string
	HFSummaryModel string
	HFTextModel    string
	HFRPS          float64
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production") || strings.EqualFold(c.AppEnv, "prod")
}

// Load đọc cấu hình từ biến môi trường (đã nạp .env ở main)
func Load() (Config, error) {
	cfg := Config{
		Port:        envString("PORT", "8080"),
		AppEnv:      envString("APP_ENV", "development"),
		Timezone:    envString("APP_TIMEZONE", "UTC"),
		CORSOrigins: envList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),

		DBDriver:   envString("DB_DRIVER", "postgres"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     envString("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		SQLitePath: envString("DB_SQLITE_PATH", "exam_prep.db"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTTTL:         envDuration("JWT_TTL", 72*time.Hour),
		AuthMode:       envString("AUTH_MODE", "jwt"),
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),

		SupabaseURL:     os.Getenv("SUPABASE_URL"),
		SupabaseKey:     os.Getenv("SUPABASE_KEY"),
		SupabaseAnonKey: os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseBucket:  envString("SUPABASE_TEXT_BUCKET", "documents"),
		DocumentSource:  envString("DOCUMENT_SOURCE", "db"),

		RedisURL:    os.Getenv("REDIS_URL"),
		CleanupCron: envString("CLEANUP_CRON", "@every 6h"),

		AI: AIConfig{
			ProviderOrder:        envList("AI_PROVIDER_ORDER", []string{"groq", "local", "gemini", "huggingface", "heuristic"}),
			Timeout:              envDuration("AI_TIMEOUT", 30*time.Second),
			ChunkSize:            envInt("AI_CHUNK_SIZE", 4000),
			ChunkWindow:          envInt("AI_CHUNK_WINDOW", 300),
			ResummarizeThreshold: envInt("AI_RESUMMARIZE_THRESHOLD", 1000),
			Parallelism:          envInt("AI_PARALLELISM", 3),

			GroqAPIKey:  os.Getenv("GROQ_API_KEY"),
			GroqModel:   envString("GROQ_MODEL", "llama-3.1-8b-instant"),
			GroqBaseURL: envString("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			GroqRPS:     envFloat("GROQ_RPS", 0.5),

			LocalLLMURL:   os.Getenv("LOCAL_LLM_URL"),
			LocalLLMModel: envString("LOCAL_LLM_MODEL", "llama3.1"),

			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  envString("GEMINI_MODEL", "gemini-2.0-flash"),
			GeminiRPS:    envFloat("GEMINI_RPS", 0.25),

			HFAPIKey:       os.Getenv("HF_API_KEY"),
			HFSummaryModel: envString("HF_SUMMARY_MODEL", "facebook/bart-large-cnn"),
			HFTextModel:    os.Getenv("HF_TEXT_MODEL"),
			HFRPS:          envFloat("HF_RPS", 0.5),
		},
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return cfg, fmt.Errorf("APP_TIMEZONE không hợp lệ: %w", err)
	}
	cfg.Location = loc

	if cfg.AuthMode == "jwt" && cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("thiếu JWT_SECRET")
	}
	if cfg.AuthMode == "supabase" && (cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "") {
		return cfg, fmt.Errorf("AUTH_MODE=supabase cần SUPABASE_URL và SUPABASE_ANON_KEY")
	}
	if cfg.AI.ChunkSize < 1 {
		return cfg, fmt.Errorf("AI_CHUNK_SIZE phải lớn hơn 0")
	}
	return cfg, nil
}

// Dialector chọn driver theo DB_DRIVER
func (c Config) Dialector() (gorm.Dialector, error) {
	switch c.DBDriver {
	case "postgres", "":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.Timezone,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(c.SQLitePath), nil
	default:
		return nil, fmt.Errorf("DB_DRIVER không hỗ trợ: %s", c.DBDriver)
	}
}

func InitDB(cfg Config) {
	dialector, err := cfg.Dialector()
	if err != nil {
		log.Fatal(err)
	}

	level := logger.Info
	if cfg.IsProduction() {
		level = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		log.Fatal("Không thể kết nối database:", err)
	}

	DB = db

	// Lấy *sql.DB để config connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Không thể lấy sql.DB từ gorm:", err)
	}

	if cfg.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	if err := DB.AutoMigrate(models.All()...); err != nil {
		log.Fatal("autoMigrate lỗi: ", err)
	}
	log.Printf("%s connected & migrated successfully!", cfg.DBDriver)
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
