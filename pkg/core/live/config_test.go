package live

import (
	"errors"
	"testing"

	"github.com/barky-ai/barky/pkg/core"
)

func TestValidate_RequiresAPIKey(t *testing.T) {
	err := Config{}.validate()
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Type != core.ErrConfig {
		t.Errorf("error = %v, want config_error", err)
	}

	if err := (Config{APIKey: "k"}).validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{APIKey: "k"}.withDefaults()

	if cfg.Host != DefaultHost {
		t.Errorf("Host = %q, want %q", cfg.Host, DefaultHost)
	}
	if cfg.Model == "" || cfg.Voice == "" || cfg.Language == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.SystemPrompt != DefaultSystemPrompt {
		t.Error("SystemPrompt default not applied")
	}
	if cfg.Input.SampleRateHz != 16000 {
		t.Errorf("Input rate = %d, want 16000", cfg.Input.SampleRateHz)
	}
	if cfg.Output.SampleRateHz != 24000 {
		t.Errorf("Output rate = %d, want 24000", cfg.Output.SampleRateHz)
	}
}

func TestWithDefaults_KeepsOverrides(t *testing.T) {
	cfg := Config{
		APIKey:   "k",
		Host:     "example.com",
		Model:    "models/custom",
		Voice:    "Kore",
		Language: "en-GB",
	}.withDefaults()

	if cfg.Host != "example.com" || cfg.Model != "models/custom" ||
		cfg.Voice != "Kore" || cfg.Language != "en-GB" {
		t.Errorf("overrides lost: %+v", cfg)
	}
}

func TestBoardToolDeclaration(t *testing.T) {
	decl := boardToolDeclaration()
	if decl.Name != BoardToolName {
		t.Errorf("Name = %q, want %q", decl.Name, BoardToolName)
	}
	props, ok := decl.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatalf("missing properties: %v", decl.Parameters)
	}
	for _, key := range []string{"title", "visual", "items"} {
		if _, ok := props[key]; !ok {
			t.Errorf("missing %q property", key)
		}
	}
}
