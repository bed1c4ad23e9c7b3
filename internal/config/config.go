package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	// ProPublica Nonprofit Explorer API.
	APIBaseURL   string
	SearchQuery  string
	SearchState  string
	TargetCity   string
	RequestDelay time.Duration // cooldown between successive API calls
	HTTPTimeout  time.Duration

	// Override tables (hand-curated, read-only).
	RecodesPath   string
	ExtraOrgsPath string

	// Enrollment workbook aggregation.
	ReportsDir   string
	RegionFilter string
	EntitySheet  string
	MetricSheets []string

	// Output artifacts.
	OutputDir string

	// Observability.
	LogLevel    string
	LogFormat   string
	MetricsAddr string // empty disables the metrics HTTP server
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	requestDelay, err := envDuration("REQUEST_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	httpTimeout, err := envDuration("HTTP_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIBaseURL:   envOrDefault("PROPUBLICA_BASE_URL", "https://projects.propublica.org/nonprofits/api/v2"),
		SearchQuery:  envOrDefault("SEARCH_QUERY", "Pta California Congress Of Parents Teachers & Students Inc"),
		SearchState:  envOrDefault("SEARCH_STATE", "CA"),
		TargetCity:   envOrDefault("TARGET_CITY", "San Francisco"),
		RequestDelay: requestDelay,
		HTTPTimeout:  httpTimeout,

		RecodesPath:   envOrDefault("RECODES_CSV", "data/recodes.csv"),
		ExtraOrgsPath: envOrDefault("EXTRA_ORGS_CSV", "data/extra_orgs.csv"),

		ReportsDir:   envOrDefault("REPORTS_DIR", "data/reports"),
		RegionFilter: envOrDefault("REGION_FILTER", "San Francisco Unified"),
		EntitySheet:  envOrDefault("ENTITY_SHEET", "Schools"),
		MetricSheets: splitList(envOrDefault("METRIC_SHEETS", "Enrollment,Demographics")),

		OutputDir: envOrDefault("OUTPUT_DIR", "data"),

		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "json"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("PROPUBLICA_BASE_URL is required")
	}
	if cfg.SearchQuery == "" {
		return nil, errors.New("SEARCH_QUERY is required")
	}
	if cfg.TargetCity == "" {
		return nil, errors.New("TARGET_CITY is required")
	}
	if cfg.RequestDelay < 0 {
		return nil, errors.New("REQUEST_DELAY must not be negative")
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, errors.New("HTTP_TIMEOUT must be positive")
	}
	if cfg.RegionFilter == "" {
		return nil, errors.New("REGION_FILTER is required")
	}
	if len(cfg.MetricSheets) == 0 {
		return nil, errors.New("METRIC_SHEETS is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key, fallback string) (time.Duration, error) {
	v := envOrDefault(key, fallback)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// splitList parses a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
