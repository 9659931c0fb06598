// Package config reads runtime configuration from the environment.
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
	DefaultModelBaseURL     = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModelID          = "gemini-3-flash-preview"
	DefaultMaxTurns         = 10
	DefaultMaxCandidates    = 10
	DefaultResultsPerQuery  = 5
	DefaultSearchRPS        = 5.0
	DefaultPort             = "8080"
	DefaultGeneratedQueries = 3
)

type Config struct {
	TavilyAPIKey string

	ModelAPIKey  string
	ModelBaseURL string
	ModelID      string

	MaxTurns   int
	RunTimeout time.Duration

	MaxCandidates    int
	ResultsPerQuery  int
	GeneratedQueries int
	SearchRPS        float64

	LogLevel    string
	Port        string
	CORSOrigins []string

	// OTLPEndpoint enables trace export when set.
	OTLPEndpoint string
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are skipped; variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		TavilyAPIKey: os.Getenv("TAVILY_API_KEY"),
		ModelAPIKey:  firstNonEmpty(os.Getenv("MODEL_API_KEY"), os.Getenv("GOOGLE_API_KEY"), os.Getenv("OPENAI_API_KEY")),
		ModelBaseURL: stringEnv("MODEL_BASE_URL", DefaultModelBaseURL),
		ModelID:      stringEnv("MODEL_ID", DefaultModelID),
		LogLevel:     stringEnv("LOG_LEVEL", "info"),
		Port:         stringEnv("PORT", DefaultPort),
		OTLPEndpoint: firstNonEmpty(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"), os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	var err error
	if cfg.MaxTurns, err = intEnv("AFFORD_MAX_TURNS", DefaultMaxTurns); err != nil {
		return nil, err
	}
	if cfg.MaxCandidates, err = intEnv("AFFORD_MAX_CANDIDATES", DefaultMaxCandidates); err != nil {
		return nil, err
	}
	if cfg.ResultsPerQuery, err = intEnv("AFFORD_RESULTS_PER_QUERY", DefaultResultsPerQuery); err != nil {
		return nil, err
	}
	if cfg.GeneratedQueries, err = intEnv("AFFORD_GENERATED_QUERIES", DefaultGeneratedQueries); err != nil {
		return nil, err
	}
	if cfg.SearchRPS, err = floatEnv("AFFORD_SEARCH_RPS", DefaultSearchRPS); err != nil {
		return nil, err
	}
	if v := os.Getenv("AFFORD_RUN_TIMEOUT"); v != "" {
		if cfg.RunTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("AFFORD_RUN_TIMEOUT: %w", err)
		}
	}

	if cfg.MaxTurns < 1 {
		return nil, fmt.Errorf("AFFORD_MAX_TURNS must be at least 1, got %d", cfg.MaxTurns)
	}
	if cfg.MaxCandidates < 1 {
		return nil, fmt.Errorf("AFFORD_MAX_CANDIDATES must be at least 1, got %d", cfg.MaxCandidates)
	}

	return cfg, nil
}

// Validate reports missing credentials.
func (c *Config) Validate() error {
	var errs []error
	if c.TavilyAPIKey == "" {
		errs = append(errs, errors.New("TAVILY_API_KEY is not set"))
	}
	if c.ModelAPIKey == "" {
		errs = append(errs, errors.New("MODEL_API_KEY (or GOOGLE_API_KEY / OPENAI_API_KEY) is not set"))
	}
	return errors.Join(errs...)
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
