package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-wide configuration. Everything comes from the
// environment so main stays lean and deployments stay twelve-factor.
type Server struct {
	Addr            string
	DBPath          string
	SpreadsheetPath string
	APIKey          string

	LookupTimeout time.Duration // per jurisdiction call
	LookupDelay   time.Duration // pause between calls, respects the public API rate limit
	RunTimeout    time.Duration // whole ingestion run

	DefaultPageLimit int
	MaxPageLimit     int
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:             envString("JURISTRACK_ADDR", ":8080"),
		DBPath:           envString("JURISTRACK_DB_PATH", "datajud_processos.db"),
		SpreadsheetPath:  envString("JURISTRACK_SPREADSHEET_PATH", "processos.xlsx"),
		APIKey:           os.Getenv("DATAJUD_API_KEY"),
		LookupTimeout:    envDuration("JURISTRACK_LOOKUP_TIMEOUT", 30*time.Second),
		LookupDelay:      envDuration("JURISTRACK_LOOKUP_DELAY", 300*time.Millisecond),
		RunTimeout:       envDuration("JURISTRACK_RUN_TIMEOUT", 5*time.Minute),
		DefaultPageLimit: envInt("JURISTRACK_DEFAULT_PAGE_LIMIT", 100),
		MaxPageLimit:     envInt("JURISTRACK_MAX_PAGE_LIMIT", 1000),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
