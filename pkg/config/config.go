package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration
	IngestToken      string
	UndoWindow       time.Duration
	FilterDebounce   time.Duration
	DefaultPageSize  int
	SnapshotLimit    int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	accessExpiry := 15 * time.Minute
	if exp := os.Getenv("JWT_ACCESS_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			accessExpiry = parsed
		}
	}

	refreshExpiry := 7 * 24 * time.Hour
	if exp := os.Getenv("JWT_REFRESH_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			refreshExpiry = parsed
		}
	}

	undoWindow := 30 * time.Second
	if w := os.Getenv("UNDO_WINDOW"); w != "" {
		if parsed, err := time.ParseDuration(w); err == nil && parsed > 0 {
			undoWindow = parsed
		}
	}

	filterDebounce := 300 * time.Millisecond
	if d := os.Getenv("FILTER_DEBOUNCE"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil && parsed >= 0 {
			filterDebounce = parsed
		}
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=inboxpilot port=5432 sslmode=disable"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,
		IngestToken:      getEnv("INGEST_TOKEN", ""),
		UndoWindow:       undoWindow,
		FilterDebounce:   filterDebounce,
		DefaultPageSize:  getEnvInt("DEFAULT_PAGE_SIZE", 25),
		SnapshotLimit:    getEnvInt("SNAPSHOT_LIMIT", 500),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
