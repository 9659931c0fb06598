package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var envKeys = []string{
	"TAVILY_API_KEY", "MODEL_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY",
	"MODEL_BASE_URL", "MODEL_ID", "LOG_LEVEL", "PORT", "CORS_ALLOWED_ORIGINS",
	"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"AFFORD_MAX_TURNS", "AFFORD_MAX_CANDIDATES", "AFFORD_RESULTS_PER_QUERY",
	"AFFORD_GENERATED_QUERIES", "AFFORD_SEARCH_RPS", "AFFORD_RUN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	want := &Config{
		ModelBaseURL:     DefaultModelBaseURL,
		ModelID:          DefaultModelID,
		MaxTurns:         10,
		MaxCandidates:    10,
		ResultsPerQuery:  5,
		GeneratedQueries: 3,
		SearchRPS:        5,
		LogLevel:         "info",
		Port:             "8080",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to report missing keys")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TAVILY_API_KEY", "tvly-1")
	t.Setenv("GOOGLE_API_KEY", "g-1")
	t.Setenv("OPENAI_API_KEY", "o-1")
	t.Setenv("MODEL_ID", "gpt-4o-mini")
	t.Setenv("AFFORD_MAX_TURNS", "4")
	t.Setenv("AFFORD_RUN_TIMEOUT", "90s")
	t.Setenv("AFFORD_SEARCH_RPS", "0.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ModelAPIKey != "g-1" {
		t.Errorf("expected GOOGLE_API_KEY to take precedence over OPENAI_API_KEY, got %q", cfg.ModelAPIKey)
	}
	if cfg.ModelID != "gpt-4o-mini" || cfg.MaxTurns != 4 || cfg.RunTimeout != 90*time.Second || cfg.SearchRPS != 0.5 {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"http://a.test", "http://b.test"}, cfg.CORSOrigins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
	if cfg.OTLPEndpoint != "http://collector:4318" {
		t.Errorf("unexpected OTLP endpoint %q", cfg.OTLPEndpoint)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate returned error: %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"AFFORD_MAX_TURNS":   "ten",
		"AFFORD_RUN_TIMEOUT": "soon",
		"AFFORD_SEARCH_RPS":  "fast",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}

	t.Run("zero turns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AFFORD_MAX_TURNS", "0")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for zero max turns")
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("TAVILY_API_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override set variables, and t.Setenv("") counts as set.
	if err := os.Unsetenv("TAVILY_API_KEY"); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}
	if got := os.Getenv("TAVILY_API_KEY"); got != "from-file" {
		t.Fatalf("expected key from file, got %q", got)
	}
}
