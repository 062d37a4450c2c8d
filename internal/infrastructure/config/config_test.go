package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"EDITAIS_API_URL", "EDITAIS_HTTP_TIMEOUT", "EDITAIS_USERNAME", "EDITAIS_PASSWORD",
		"LOG_LEVEL", "LOG_PRETTY", "METRICS_ADDR",
		"CLERK_SESSION_TOKEN", "CLERK_TOKEN_FILE", "CLERK_STATUS_PATH", "CLERK_REGISTER_PATH",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://localhost:5000" {
		t.Fatalf("unexpected api url %q", cfg.APIURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.HTTPTimeout)
	}
	if cfg.LogLevel != "info" || cfg.LogPretty {
		t.Fatalf("unexpected log settings %q %v", cfg.LogLevel, cfg.LogPretty)
	}
	if cfg.Clerk.StatusPath != "/api/clerk/status" || cfg.Clerk.RegisterPath != "/api/clerk/register" {
		t.Fatalf("unexpected clerk paths %+v", cfg.Clerk)
	}
	if cfg.HasCredentials() || cfg.Clerk.Enabled() {
		t.Fatalf("nothing should be enabled by default")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("EDITAIS_API_URL", "https://editais.example.gov.br")
	t.Setenv("EDITAIS_HTTP_TIMEOUT", "5s")
	t.Setenv("EDITAIS_USERNAME", "maria")
	t.Setenv("EDITAIS_PASSWORD", "Senha@123")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("CLERK_TOKEN_FILE", "/run/clerk/token")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "https://editais.example.gov.br" || cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.HasCredentials() || cfg.Credentials().Username != "maria" {
		t.Fatalf("expected credentials from environment")
	}
	if !cfg.LogPretty || !cfg.Clerk.Enabled() {
		t.Fatalf("expected pretty logs and clerk enabled")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("EDITAIS_HTTP_TIMEOUT", "soon")
	if _, err := Load(context.Background()); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
