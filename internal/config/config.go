package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds process configuration loaded from the environment.
type AppConfig struct {
	Port string

	// HTTPTimeout bounds every outbound upstream request.
	HTTPTimeout time.Duration

	// DatabaseURL selects the Postgres store; empty selects in-memory.
	DatabaseURL string

	// Upstream resource locations; empty values select the public dataset.
	JSONBaseURL string
	CSVBaseURL  string

	// RefreshInterval controls how often the scheduler re-ingests the
	// latest feed. Zero disables the scheduler.
	RefreshInterval time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment with sensible defaults.
// A .env file is honored when present.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	cfg.Port = getenvDefault("PORT", "8080")

	timeout, err := getenvDuration("HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.JSONBaseURL = os.Getenv("DPC_JSON_BASE_URL")
	cfg.CSVBaseURL = os.Getenv("DPC_CSV_BASE_URL")

	refresh, err := getenvDuration("REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.RefreshInterval = refresh

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "console")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
