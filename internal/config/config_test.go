package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "db", "documents.db"))
	t.Setenv("PORT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("OAUTH_SESSION_TTL", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("PUBLIC_BASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.LLMProvider != ProviderGemini {
		t.Errorf("LLMProvider = %q, want %q", cfg.LLMProvider, ProviderGemini)
	}
	if cfg.StorageBackend != StorageLocal {
		t.Errorf("StorageBackend = %q, want %q", cfg.StorageBackend, StorageLocal)
	}
	if cfg.OAuthSessionTTL != 0 {
		t.Errorf("OAuthSessionTTL = %v, want 0", cfg.OAuthSessionTTL)
	}
	if cfg.PublicBaseURL != "http://127.0.0.1:8000" {
		t.Errorf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	want := []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://127.0.0.1:8000"}
	if diff := cmp.Diff(want, cfg.CORSOrigins); diff != "" {
		t.Errorf("CORSOrigins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "documents.db"))
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OAUTH_SESSION_TTL", "90m")
	t.Setenv("OPENAI_STRUCTURED_OUTPUT", "false")
	t.Setenv("PUBLIC_BASE_URL", "https://study.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLMProvider != ProviderOpenAI {
		t.Errorf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.OAuthSessionTTL != 90*time.Minute {
		t.Errorf("OAuthSessionTTL = %v", cfg.OAuthSessionTTL)
	}
	if cfg.OpenAIStructuredOutput {
		t.Error("OpenAIStructuredOutput should be disabled")
	}
	if cfg.PublicBaseURL != "https://study.example.com" {
		t.Errorf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "documents.db"))

	cases := map[string]map[string]string{
		"provider": {"LLM_PROVIDER": "llama"},
		"storage":  {"STORAGE_BACKEND": "s3"},
		"gcs":      {"STORAGE_BACKEND": "gcs", "GCS_BUCKET": ""},
		"ttl":      {"OAUTH_SESSION_TTL": "forever"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
