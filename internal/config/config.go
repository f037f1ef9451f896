package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	GinMode     string
	CORSOrigins []string

	// Persistence
	MongoURI string
	DBName   string

	// Redis (token revocation, rate limits, asynq)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Auth
	AccessSecret  string
	RefreshSecret string
	AdminUser     string
	AdminPassHash string
	BcryptCost    int

	// Completion provider (OpenRouter-compatible chat completions API)
	CompletionAPIKey  string
	CompletionAPIURL  string
	CompletionModel   string
	CompletionTimeout int
	ProviderTier      string

	// Embeddings
	EmbeddingsProvider    string // "local" (default, deterministic) or "google"
	GeminiAPIKey          string
	GoogleEmbeddingsModel string
	EmbeddingDimensions   int

	// Retrieval
	MaxChunkSize int
	ChunkOverlap int
	MinChunkSize int

	// Upload handling
	MaxFileSize         int64
	SyncProcessingLimit int64

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Telemetry
	OTLPEndpoint   string
	TracingEnabled bool
}

func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/rag_platform"),
		DBName:   getEnv("DB_NAME", "rag_platform"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AccessSecret:  getEnv("ACCESS_SECRET", ""),
		RefreshSecret: getEnv("REFRESH_SECRET", ""),
		AdminUser:     getEnv("ADMIN_USER", "admin"),
		AdminPassHash: getEnv("ADMIN_PASS_HASH", ""),
		BcryptCost:    getEnvInt("BCRYPT_COST", 12),

		CompletionAPIKey:  getEnv("COMPLETION_API_KEY", ""),
		CompletionAPIURL:  getEnv("COMPLETION_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
		CompletionModel:   getEnv("COMPLETION_MODEL", "meta-llama/llama-3.2-3b-instruct:free"),
		CompletionTimeout: getEnvInt("COMPLETION_TIMEOUT", 30),
		ProviderTier:      getEnv("PROVIDER_TIER", "free"),

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "local"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		EmbeddingDimensions:   getEnvInt("EMBEDDING_DIM", 256),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		MinChunkSize: getEnvInt("MIN_CHUNK_SIZE", 100),

		MaxFileSize:         getEnvInt64("MAX_FILE_SIZE", 20971520),        // 20MB
		SyncProcessingLimit: getEnvInt64("SYNC_PROCESSING_LIMIT", 1048576), // 1MB; larger uploads are queued

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}

	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("ACCESS_SECRET is required - set it in .env file")
	}
	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("REFRESH_SECRET is required - set it in .env file")
	}
	if cfg.EmbeddingsProvider == "google" && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required when EMBEDDINGS_PROVIDER=google")
	}
	if cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be smaller than MAX_CHUNK_SIZE")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
