package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ~/.taskpilot
func GetConfigDir() string {
	if !configDirInit {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			configDir = filepath.Join(homeDir, ".taskpilot")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Store    StoreConfig    `yaml:"store"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Engine   EngineConfig   `yaml:"engine"`
	Log      LogConfig      `yaml:"log"`
}

// ModelConfig LLM model configuration
type ModelConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// StoreConfig task store configuration
type StoreConfig struct {
	DBPath             string `yaml:"db_path"`
	Ephemeral          bool   `yaml:"ephemeral"`
	MaxContextMessages int    `yaml:"max_context_messages"`
}

// WorkflowConfig workflow mode configuration
type WorkflowConfig struct {
	Mode      string `yaml:"mode"`       // agile | contact-center | itsm | custom mode name
	ModesFile string `yaml:"modes_file"` // optional YAML file with extra modes
}

// EngineConfig tool execution configuration
type EngineConfig struct {
	ToolTimeoutSeconds int `yaml:"tool_timeout_seconds"` // 0 disables the per-call deadline
	ActionLogCap       int `yaml:"action_log_cap"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	ConsoleOut bool   `yaml:"console_out"`
	KeepDays   int    `yaml:"keep_days"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Model: ModelConfig{
			APIKey:      "",
			BaseURL:     "https://api.deepseek.com",
			Model:       "deepseek-chat",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Store: StoreConfig{
			DBPath:             filepath.Join(homeDir, ".taskpilot", "taskpilot.db"),
			Ephemeral:          false,
			MaxContextMessages: 20,
		},
		Workflow: WorkflowConfig{
			Mode: "agile",
		},
		Engine: EngineConfig{
			ToolTimeoutSeconds: 30,
			ActionLogCap:       1000,
		},
		Log: LogConfig{
			Level:    "info",
			KeepDays: 7,
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file and merges with secrets
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create default config
		cfg := DefaultConfig()
		mergeSecrets(cfg)

		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig() // Use default values as base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeSecrets(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeSecrets fills the API key from the .secrets file or environment
// when the config file leaves it empty
func mergeSecrets(cfg *Config) {
	if cfg.Model.APIKey != "" {
		return
	}
	secrets, _ := LoadSecrets()
	if key := secrets.GetModelAPIKey(); key != "" {
		cfg.Model.APIKey = key
		return
	}
	if key := os.Getenv("TASKPILOT_API_KEY"); key != "" {
		cfg.Model.APIKey = key
	}
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	content := "# TaskPilot Configuration File\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Model.BaseURL == "" {
		return fmt.Errorf("config error: model.base_url cannot be empty")
	}
	if c.Model.Model == "" {
		return fmt.Errorf("config error: model.model cannot be empty")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("config error: model.temperature must be between 0 and 2")
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("config error: model.max_tokens must be greater than 0")
	}

	if !c.Store.Ephemeral && c.Store.DBPath == "" {
		return fmt.Errorf("config error: store.db_path cannot be empty")
	}
	if c.Store.MaxContextMessages <= 0 {
		return fmt.Errorf("config error: store.max_context_messages must be greater than 0")
	}

	if c.Workflow.Mode == "" {
		return fmt.Errorf("config error: workflow.mode cannot be empty")
	}

	if c.Engine.ToolTimeoutSeconds < 0 {
		return fmt.Errorf("config error: engine.tool_timeout_seconds cannot be negative")
	}
	if c.Engine.ActionLogCap <= 0 {
		return fmt.Errorf("config error: engine.action_log_cap must be greater than 0")
	}

	return nil
}

// IsAPIKeyConfigured reports whether an API key is available
func (c *Config) IsAPIKeyConfigured() bool {
	return c.Model.APIKey != ""
}

// String returns a printable form of the config with the API key masked
func (c *Config) String() string {
	apiKey := "(not set)"
	if c.Model.APIKey != "" {
		apiKey = mask(c.Model.APIKey)
	}

	return fmt.Sprintf(`Model:
  base_url: %s
  model: %s
  api_key: %s
  temperature: %.1f
  max_tokens: %d
Store:
  db_path: %s
  ephemeral: %v
  max_context_messages: %d
Workflow:
  mode: %s
Engine:
  tool_timeout_seconds: %d
  action_log_cap: %d
Log:
  level: %s`,
		c.Model.BaseURL, c.Model.Model, apiKey, c.Model.Temperature, c.Model.MaxTokens,
		c.Store.DBPath, c.Store.Ephemeral, c.Store.MaxContextMessages,
		c.Workflow.Mode,
		c.Engine.ToolTimeoutSeconds, c.Engine.ActionLogCap,
		c.Log.Level)
}

// mask hides the middle of a secret value
func mask(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
