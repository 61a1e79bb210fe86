// Package config loads service configuration from environment variables.
// Call godotenv.Load in main before Load so a local .env file participates.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every tunable the service reads at startup.
type Config struct {
	Port     int
	LogLevel string

	// Model gateway.
	ModelProvider   string // "groq" or "anthropic"
	ModelName       string // empty means the provider default
	GroqAPIKey      string
	AnthropicAPIKey string
	Temperature     float64
	MaxTokens       int
	LLMTimeout      time.Duration

	// Agent loop.
	MaxIterations int
	ToolTimeout   time.Duration

	// Sessions.
	MemoryWindow int
	SessionTTL   time.Duration
	SessionMax   int

	// Market data.
	BinanceAPIKey    string
	BinanceAPISecret string

	// Knowledge base.
	DBPath       string
	KBDataDir    string
	ChunkSize    int
	ChunkOverlap int
	Embedder     string // "hash" or "openai"
	OpenAIAPIKey string
}

// Load reads the environment and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnvInt("PORT", 8000),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ModelProvider:   getEnv("MODEL_PROVIDER", "groq"),
		ModelName:       getEnv("MODEL_NAME", ""),
		GroqAPIKey:      os.Getenv("GROQ_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		Temperature:     getEnvFloat("TEMPERATURE", 0.1),
		MaxTokens:       getEnvInt("MAX_TOKENS", 1024),
		LLMTimeout:      getEnvDuration("LLM_TIMEOUT", 60*time.Second),

		MaxIterations: getEnvInt("MAX_ITERATIONS", 8),
		ToolTimeout:   getEnvDuration("TOOL_TIMEOUT", 15*time.Second),

		MemoryWindow: getEnvInt("MEMORY_WINDOW", 10),
		SessionTTL:   getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionMax:   getEnvInt("SESSION_MAX", 1000),

		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret: os.Getenv("BINANCE_API_SECRET"),

		DBPath:       getEnv("DB_PATH", "./data/knowledge.db"),
		KBDataDir:    getEnv("KB_DATA_DIR", "./data/knowledge_base"),
		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		Embedder:     getEnv("EMBEDDER", "hash"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	switch c.ModelProvider {
	case "groq", "anthropic":
	default:
		return fmt.Errorf("unsupported MODEL_PROVIDER %q (want groq or anthropic)", c.ModelProvider)
	}
	switch c.Embedder {
	case "hash", "openai":
	default:
		return fmt.Errorf("unsupported EMBEDDER %q (want hash or openai)", c.Embedder)
	}
	if c.MemoryWindow <= 0 {
		return fmt.Errorf("MEMORY_WINDOW must be positive, got %d", c.MemoryWindow)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("MAX_ITERATIONS must be positive, got %d", c.MaxIterations)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP %d must be smaller than CHUNK_SIZE %d", c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
