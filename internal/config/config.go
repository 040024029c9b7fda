package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	StorageLocal = "local"
	StorageGCS   = "gcs"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port    string
	AppMode string

	LLMProvider string
	GeminiKey   string
	GeminiModel string

	OpenAIKey              string
	OpenAIEndpoint         string
	OpenAIModel            string
	OpenAIStructuredOutput bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	RedisAddr       string
	RedisPassword   string
	OAuthSessionTTL time.Duration

	StorageBackend string
	UploadDir      string
	PublicBaseURL  string
	GCSBucket      string
	Database       string

	CORSOrigins []string
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() (Config, error) {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()

	port := getEnv("PORT", "8000")
	cfg := Config{
		Port:    port,
		AppMode: getEnv("APP_MODE", "development"),

		LLMProvider: strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel: getEnv("GEMINI_MODEL", "gemini-flash-latest"),

		OpenAIKey:              os.Getenv("OPENAI_API_KEY"),
		OpenAIEndpoint:         getEnv("OPENAI_API_ENDPOINT", "https://api.openai.com/v1"),
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIStructuredOutput: getBool("OPENAI_STRUCTURED_OUTPUT", true),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:5173/auth/callback"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
		UploadDir:      getEnv("UPLOAD_DIR", "./static/uploads"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://127.0.0.1:"+port), "/"),
		GCSBucket:      os.Getenv("GCS_BUCKET"),
		Database:       getEnv("DATABASE_PATH", "./data/documents.db"),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173,http://127.0.0.1:8000")),
	}

	ttl, err := time.ParseDuration(getEnv("OAUTH_SESSION_TTL", "0s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse OAUTH_SESSION_TTL: %w", err)
	}
	cfg.OAuthSessionTTL = ttl

	switch cfg.LLMProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
	switch cfg.StorageBackend {
	case StorageLocal:
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			return Config{}, fmt.Errorf("ensure upload dir %s: %w", cfg.UploadDir, err)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
			return Config{}, fmt.Errorf("ensure database dir %s: %w", cfg.Database, err)
		}
	case StorageGCS:
		if cfg.GCSBucket == "" {
			return Config{}, fmt.Errorf("GCS_BUCKET is required when STORAGE_BACKEND=gcs")
		}
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
