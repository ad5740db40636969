package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Keys          APIKeys
	Ai            AIConfig
	Session       SessionConfig
	Orchestration OrchestrationConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	ConversationTopic  string // watermill topic for turn logs
}

type DatabaseConfig struct {
	Connection   string
	MaxOpenConns int
	MaxIdleConns int
	LogSQL       bool
}

type APIKeys struct {
	GoogleGemini string
	OpenAI       string
	HuggingFace  string
}

type AIConfig struct {
	LLMProvider    string // "ollama", "openai", "huggingface", "gemini"
	LLMModel       string
	LLMBaseURL     string
	OllamaBaseURL  string
	RequestTimeout time.Duration
	MaxRetries     int
	RateLimit      float64 // requests per second, 0 disables
	RateBurst      int
}

type SessionConfig struct {
	Store           string // "memory" or "redis"
	TTL             time.Duration
	ArchiveTTL      time.Duration
	ConflictRetries int
}

type OrchestrationConfig struct {
	HighThreshold       float64
	LowThreshold        float64
	TopN                int
	MaxReprompts        int
	RouterMinConfidence float64
	HistoryLimit        int
	TemplateCacheTTL    time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/conversation.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			ConversationTopic:  getEnv("CONVERSATION_LOG_TOPIC_NAME", "CONVERSATION_TURN"),
		},
		Database: DatabaseConfig{
			Connection:   getEnv("DB_CONNECTION_STRING", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			LogSQL:       getEnv("DB_LOG_SQL", "false") == "true",
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			RequestTimeout: getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),
			MaxRetries:     getEnvAsInt("LLM_MAX_RETRIES", 2),
			RateLimit:      getEnvAsFloat("LLM_RATE_LIMIT", 0),
			RateBurst:      getEnvAsInt("LLM_RATE_BURST", 1),
		},
		Session: SessionConfig{
			Store:           getEnv("SESSION_STORE", "memory"),
			TTL:             getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			ArchiveTTL:      getEnvAsDuration("SESSION_ARCHIVE_TTL", 7*24*time.Hour),
			ConflictRetries: getEnvAsInt("CONFLICT_RETRIES", 2),
		},
		Orchestration: OrchestrationConfig{
			HighThreshold:       getEnvAsFloat("PREDICT_HIGH_THRESHOLD", 0.80),
			LowThreshold:        getEnvAsFloat("PREDICT_LOW_THRESHOLD", 0.50),
			TopN:                getEnvAsInt("PREDICT_TOP_N", 3),
			MaxReprompts:        getEnvAsInt("MAX_REPROMPTS", 3),
			RouterMinConfidence: getEnvAsFloat("ROUTER_MIN_CONFIDENCE", 0.5),
			HistoryLimit:        getEnvAsInt("SESSION_HISTORY_LIMIT", 20),
			TemplateCacheTTL:    getEnvAsDuration("TEMPLATE_CACHE_TTL", 5*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
