package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model.BaseURL != "https://api.deepseek.com" {
		t.Errorf("Expected BaseURL to be https://api.deepseek.com, got %s", cfg.Model.BaseURL)
	}

	if cfg.Model.Model != "deepseek-chat" {
		t.Errorf("Expected Model to be deepseek-chat, got %s", cfg.Model.Model)
	}

	if cfg.Store.MaxContextMessages != 20 {
		t.Errorf("Expected MaxContextMessages to be 20, got %d", cfg.Store.MaxContextMessages)
	}

	if cfg.Workflow.Mode != "agile" {
		t.Errorf("Expected workflow mode agile, got %s", cfg.Workflow.Mode)
	}

	if cfg.Engine.ActionLogCap != 1000 {
		t.Errorf("Expected action log cap 1000, got %d", cfg.Engine.ActionLogCap)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"empty BaseURL", func(c *Config) { c.Model.BaseURL = "" }, true},
		{"invalid Temperature", func(c *Config) { c.Model.Temperature = 3.0 }, true},
		{"zero MaxTokens", func(c *Config) { c.Model.MaxTokens = 0 }, true},
		{"empty DBPath", func(c *Config) { c.Store.DBPath = "" }, true},
		{"empty DBPath but ephemeral", func(c *Config) { c.Store.DBPath = ""; c.Store.Ephemeral = true }, false},
		{"empty workflow mode", func(c *Config) { c.Workflow.Mode = "" }, true},
		{"negative tool timeout", func(c *Config) { c.Engine.ToolTimeoutSeconds = -1 }, true},
		{"zero action log cap", func(c *Config) { c.Engine.ActionLogCap = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadCreatesDefault(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "taskpilot-config-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	SetConfigDir(tmpDir)
	defer SetConfigDir(tmpDir) // leave deterministic state for other tests

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Workflow.Mode != "agile" {
		t.Errorf("Expected default workflow mode, got %s", cfg.Workflow.Mode)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "config.yaml")); err != nil {
		t.Errorf("Expected config.yaml to be written: %v", err)
	}

	// Second load reads the written file
	cfg2, err := Load()
	if err != nil {
		t.Fatalf("Second Load() failed: %v", err)
	}
	if cfg2.Model.Model != cfg.Model.Model {
		t.Errorf("Reloaded config mismatch: %s vs %s", cfg2.Model.Model, cfg.Model.Model)
	}
}

func TestSystemPromptRendering(t *testing.T) {
	p := DefaultPromptConfig()
	out := p.SystemPrompt("agile", []string{"To Do (todo)", "Done (done)"})

	if strings.Contains(out, "{{workflow}}") || strings.Contains(out, "{{columns}}") {
		t.Error("Placeholders were not substituted")
	}
	if !strings.Contains(out, "agile") {
		t.Error("Workflow name missing from prompt")
	}
	if !strings.Contains(out, "To Do (todo)") {
		t.Error("Column list missing from prompt")
	}
}

func TestConfigStringMasksAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model.APIKey = "sk-abcdef1234567890"

	out := cfg.String()
	if strings.Contains(out, "sk-abcdef1234567890") {
		t.Error("API key should be masked in String() output")
	}
	if !strings.Contains(out, "sk-a") {
		t.Error("Masked key should keep a recognizable prefix")
	}
}
