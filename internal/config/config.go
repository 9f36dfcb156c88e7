package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Redis Configuration (API rate limiting)
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RateLimitReqs   int
	RateLimitWindow int

	// Embeddings configuration
	GeminiAPIKey    string
	EmbeddingsModel string // e.g., "text-embedding-004"
	EmbeddingDim    int
	EmbedBatchSize  int
	EmbedRPM        int

	// Vector store
	VectorDBPath string

	// Collector API keys. The core ships no provider adapters; keys are read
	// here so adapters wired in at process start can report availability
	// without a failed network call.
	AlphaVantageAPIKey string
	FMPAPIKey          string

	// Retrieval caching and refresh
	RecordCacheTTL   time.Duration
	NewsCacheTTL     time.Duration
	RefreshInterval  time.Duration
	CollectorTimeout time.Duration

	// News scraping
	ScrapeRPM     int
	ScrapeTimeout time.Duration

	// Context selection
	MaxContextLength int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		EmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		EmbeddingDim:    getEnvInt("EMBEDDING_DIM", 768),
		EmbedBatchSize:  getEnvInt("EMBED_BATCH_SIZE", 100),
		EmbedRPM:        getEnvInt("EMBED_RPM", 1500),

		VectorDBPath: getEnv("VECTOR_DB_PATH", "./data/vector_db"),

		AlphaVantageAPIKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),
		FMPAPIKey:          getEnv("FMP_API_KEY", ""),

		RecordCacheTTL:   getEnvDuration("RECORD_CACHE_TTL", 30*time.Minute),
		NewsCacheTTL:     getEnvDuration("NEWS_CACHE_TTL", 15*time.Minute),
		RefreshInterval:  getEnvDuration("REFRESH_INTERVAL", 0),
		CollectorTimeout: getEnvDuration("COLLECTOR_TIMEOUT", 10*time.Second),

		ScrapeRPM:     getEnvInt("SCRAPE_RPM", 30),
		ScrapeTimeout: getEnvDuration("SCRAPE_TIMEOUT", 15*time.Second),

		MaxContextLength: getEnvInt("MAX_CONTEXT_LENGTH", 4000),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", cfg.EmbeddingDim)
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
