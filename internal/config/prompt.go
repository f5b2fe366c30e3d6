package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptConfig prompt configuration structure
type PromptConfig struct {
	System      string `yaml:"system"`
	ErrorPrefix string `yaml:"error_prefix"`
}

// DefaultPromptConfig returns default prompt configuration
func DefaultPromptConfig() *PromptConfig {
	return &PromptConfig{
		System: `You are TaskPilot, an assistant that drives a project tracker through tools.
You can create, update, assign, and schedule tasks, manage incidents and emails,
link related work, and produce reports. Always use the provided tools to act on
the tracker; never claim to have changed anything without a tool call.

The active workflow is "{{workflow}}" with status columns: {{columns}}.
When a user gives a status, map it to one of these columns.

For bulk destructive actions, propose the operations first and ask the user to
confirm before executing. Relay tool failure messages to the user verbatim so
they can correct their request.`,
		ErrorPrefix: "Error",
	}
}

// PromptConfigPath returns the prompt config file path
func PromptConfigPath() (string, error) {
	// A config/prompt.yaml in the working directory wins
	cwd, err := os.Getwd()
	if err == nil {
		localPath := filepath.Join(cwd, "config", "prompt.yaml")
		if _, err := os.Stat(localPath); err == nil {
			return localPath, nil
		}
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompt.yaml"), nil
}

// LoadPromptConfig loads prompt configuration from file
func LoadPromptConfig() (*PromptConfig, error) {
	configPath, err := PromptConfigPath()
	if err != nil {
		return DefaultPromptConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultPromptConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt config: %w", err)
	}

	cfg := DefaultPromptConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse prompt config: %w", err)
	}

	return cfg, nil
}

// SystemPrompt renders the system prompt for a workflow.
// columns is the human-readable "Title (id)" list for the active mode.
func (p *PromptConfig) SystemPrompt(workflowName string, columns []string) string {
	out := strings.ReplaceAll(p.System, "{{workflow}}", workflowName)
	out = strings.ReplaceAll(out, "{{columns}}", strings.Join(columns, ", "))
	return out
}

// GetErrorPrefix returns the error prefix
func (p *PromptConfig) GetErrorPrefix() string {
	return p.ErrorPrefix
}
