package config

import (
	"testing"
)

func TestLoad_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when GEMINI_API_KEY is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("BARKY_PORT", "")
	t.Setenv("BARKY_ENV", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("BARKY_PORT", "9090")
	t.Setenv("BARKY_ENV", "production")
	t.Setenv("BARKY_DEBUG", "true")
	t.Setenv("BARKY_VOICE", "Kore")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.Voice != "Kore" || !cfg.Debug {
		t.Errorf("overrides lost: %+v", cfg)
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false in production")
	}
}

func TestValidate_BadPort(t *testing.T) {
	cfg := &Config{APIKey: "k", Port: "nope"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-numeric port")
	}
	cfg.Port = "70000"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}
}
