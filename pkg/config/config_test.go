package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DUCKITY_DOMAIN", "DUCKITY_APP_ID", "DUCKITY_APP_SECRET",
		"DUCKITY_PROFILE_CODE", "DUCKITY_HTTP_TIMEOUT",
		"DUCKITY_SOLVE_TIMEOUT", "DUCKITY_WORKERS", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Parse()

	if cfg.Domain != "quack.duckity.dev" {
		t.Fatalf("Domain=%q; want quack.duckity.dev", cfg.Domain)
	}
	if cfg.AppID != "" || cfg.AppSecret != "" || cfg.ProfileCode != "" {
		t.Fatalf("credentials should default to empty; got %+v", cfg)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("HTTPTimeout=%v; want 10s", cfg.HTTPTimeout)
	}
	if cfg.SolveTimeout != 0 {
		t.Fatalf("SolveTimeout=%v; want 0", cfg.SolveTimeout)
	}
	if cfg.Workers != 0 {
		t.Fatalf("Workers=%d; want 0", cfg.Workers)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel=%q; want info", cfg.LogLevel)
	}
}

func TestParse_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DUCKITY_DOMAIN", "duckling.example.com")
	t.Setenv("DUCKITY_APP_ID", "app-1")
	t.Setenv("DUCKITY_APP_SECRET", "sec-1")
	t.Setenv("DUCKITY_PROFILE_CODE", "web")
	t.Setenv("DUCKITY_HTTP_TIMEOUT", "3s")
	t.Setenv("DUCKITY_SOLVE_TIMEOUT", "90s")
	t.Setenv("DUCKITY_WORKERS", "6")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Parse()

	if cfg.Domain != "duckling.example.com" {
		t.Fatalf("Domain=%q", cfg.Domain)
	}
	if cfg.AppID != "app-1" || cfg.AppSecret != "sec-1" || cfg.ProfileCode != "web" {
		t.Fatalf("credentials not read: %+v", cfg)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("HTTPTimeout=%v; want 3s", cfg.HTTPTimeout)
	}
	if cfg.SolveTimeout != 90*time.Second {
		t.Fatalf("SolveTimeout=%v; want 90s", cfg.SolveTimeout)
	}
	if cfg.Workers != 6 {
		t.Fatalf("Workers=%d; want 6", cfg.Workers)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel=%q; want debug", cfg.LogLevel)
	}
}

func TestParse_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DUCKITY_HTTP_TIMEOUT", "oops")
	t.Setenv("DUCKITY_SOLVE_TIMEOUT", "nope")
	t.Setenv("DUCKITY_WORKERS", "abc")

	cfg := Parse()

	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("HTTPTimeout=%v; want default 10s", cfg.HTTPTimeout)
	}
	if cfg.SolveTimeout != 0 {
		t.Fatalf("SolveTimeout=%v; want default 0", cfg.SolveTimeout)
	}
	if cfg.Workers != 0 {
		t.Fatalf("Workers=%d; want default 0", cfg.Workers)
	}
}
