// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// NATS settings (durable chat log)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings (candidate dashboard auth)
	JWTSecret     string
	JWTExpiration time.Duration

	// LLM settings
	AnthropicAPIKey string
	OpenAIAPIKey    string
	AnswerModel     string
	FallbackModel   string
	EmbeddingModel  string
	LLMTimeout      time.Duration
	MaxAnswerTokens int

	// Document ingestion
	UploadDir     string
	MaxFileSizeMB int64
	MaxPages      int
	ChunkWords    int
	OverlapWords  int

	// Retrieval
	RetrievalK    int
	MinSimilarity float64

	// Usage ceilings
	DailyMessageQuota int
	DailyBudgetUSD    float64

	// Answer cache
	CacheTTL time.Duration

	// Burst rate limiting (HTTP level, on top of the daily quota)
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret:     getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 7*24*time.Hour),

		// LLM
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnswerModel:     getEnv("ANSWER_MODEL", "claude-3-haiku-20240307"),
		FallbackModel:   getEnv("FALLBACK_MODEL", "gpt-4o-mini"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		LLMTimeout:      getDurationEnv("LLM_TIMEOUT", 30*time.Second),
		MaxAnswerTokens: getIntEnv("MAX_ANSWER_TOKENS", 1024),

		// Ingestion
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		MaxFileSizeMB: int64(getIntEnv("MAX_FILE_SIZE_MB", 50)),
		MaxPages:      getIntEnv("MAX_PAGES", 100),
		ChunkWords:    getIntEnv("CHUNK_WORDS", 1000),
		OverlapWords:  getIntEnv("OVERLAP_WORDS", 200),

		// Retrieval
		RetrievalK:    getIntEnv("RETRIEVAL_K", 5),
		MinSimilarity: getFloatEnv("MIN_SIMILARITY", 0.2),

		// Usage ceilings
		DailyMessageQuota: getIntEnv("DAILY_MESSAGE_QUOTA", 20),
		DailyBudgetUSD:    getFloatEnv("DAILY_BUDGET_USD", 10.0),

		// Answer cache
		CacheTTL: getDurationEnv("ANSWER_CACHE_TTL", 24*time.Hour),

		// Burst rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
