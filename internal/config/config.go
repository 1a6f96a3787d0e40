// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds everything the server binary needs.
type Config struct {
	// Port the HTTP server listens on. BARKY_PORT, default 8080.
	Port string

	// APIKey authenticates the upstream AI session. GEMINI_API_KEY, required.
	APIKey string

	// Model overrides the realtime model identifier. BARKY_MODEL.
	Model string

	// Voice overrides the prebuilt output voice. BARKY_VOICE.
	Voice string

	// Language overrides the forced transcription language. BARKY_LANGUAGE.
	Language string

	// Env selects the deployment environment. BARKY_ENV, default "development".
	Env string

	// Debug enables verbose session logging. BARKY_DEBUG.
	Debug bool
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     envOr("BARKY_PORT", "8080"),
		APIKey:   os.Getenv("GEMINI_API_KEY"),
		Model:    os.Getenv("BARKY_MODEL"),
		Voice:    os.Getenv("BARKY_VOICE"),
		Language: os.Getenv("BARKY_LANGUAGE"),
		Env:      envOr("BARKY_ENV", "development"),
		Debug:    envBool("BARKY_DEBUG"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("BARKY_PORT must be a port number, got %q", c.Port)
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
