// Package config reads the SDK credentials and tuning knobs from the
// environment.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Domain       string
	AppID        string
	AppSecret    string
	ProfileCode  string
	HTTPTimeout  time.Duration
	SolveTimeout time.Duration // zero means no solve deadline
	Workers      int           // zero means one worker per CPU
	LogLevel     string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func duration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

// Parse reads the environment. Credentials have no defaults; callers that
// need them must check for empty values.
func Parse() Config {
	return Config{
		Domain:       getenv("DUCKITY_DOMAIN", "quack.duckity.dev"),
		AppID:        os.Getenv("DUCKITY_APP_ID"),
		AppSecret:    os.Getenv("DUCKITY_APP_SECRET"),
		ProfileCode:  os.Getenv("DUCKITY_PROFILE_CODE"),
		HTTPTimeout:  duration(os.Getenv("DUCKITY_HTTP_TIMEOUT"), 10*time.Second),
		SolveTimeout: duration(os.Getenv("DUCKITY_SOLVE_TIMEOUT"), 0),
		Workers:      atoi(os.Getenv("DUCKITY_WORKERS"), 0),
		LogLevel:     getenv("LOG_LEVEL", "info"),
	}
}
