package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAddr           = ":8000"
	DefaultBaseURL        = "https://api.groq.com/openai/v1"
	DefaultModel          = "llama-3.3-70b-versatile"
	DefaultTemperature    = 0.1
	DefaultMaxTokens      = 800
	DefaultLLMTimeout     = 60 * time.Second
	DefaultMaxUploadBytes = 20 << 20 // 20 MB
	DefaultMaxDocChars    = 25000
	DefaultConcurrency    = 1
)

// DefaultAllowedOrigins are the local frontend dev servers.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
}

// Config is assembled once at startup and passed down explicitly.
type Config struct {
	APIKey         string
	AllowedOrigins []string

	Addr           string
	BaseURL        string
	Model          string
	Temperature    float32
	MaxTokens      int
	LLMTimeout     time.Duration
	MaxUploadBytes int64
	MaxDocChars    int
	Concurrency    int
}

// Load reads an optional .env file and then builds the config from the
// process environment. Variables already set in the environment win.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a config from environment variables, applying defaults.
func FromEnv() Config {
	apiKey := envString("GROQ_API_KEY", "")
	if apiKey == "" {
		apiKey = envString("LLM_API_KEY", "")
	}
	return Config{
		APIKey:         apiKey,
		AllowedOrigins: envList("ALLOWED_ORIGINS", DefaultAllowedOrigins),
		Addr:           envString("HTTP_ADDR", DefaultAddr),
		BaseURL:        envString("LLM_BASE_URL", DefaultBaseURL),
		Model:          envString("LLM_MODEL", DefaultModel),
		Temperature:    float32(envFloat("LLM_TEMPERATURE", DefaultTemperature)),
		MaxTokens:      envInt("LLM_MAX_TOKENS", DefaultMaxTokens),
		LLMTimeout:     envDuration("LLM_TIMEOUT", DefaultLLMTimeout),
		MaxUploadBytes: int64(envInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),
		MaxDocChars:    envInt("MAX_DOCUMENT_CHARS", DefaultMaxDocChars),
		Concurrency:    envInt("ANALYZE_CONCURRENCY", DefaultConcurrency),
	}
}

// Validate rejects configs the service cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("config: GROQ_API_KEY is not set")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config: LLM_TEMPERATURE must be within [0,2], got %v", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("config: LLM_MAX_TOKENS must be positive")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("config: LLM_TIMEOUT must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive")
	}
	if c.MaxDocChars <= 0 {
		return fmt.Errorf("config: MAX_DOCUMENT_CHARS must be positive")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("config: ANALYZE_CONCURRENCY must be positive")
	}
	return nil
}

func envString(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return def
}

// envDuration accepts Go durations ("90s") or a bare number of seconds.
func envDuration(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func envList(key string, def []string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), def...)
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
