package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory.
// Must be called before any config loading functions.
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory.
// Priority: 1. Manually set via SetConfigDir, 2. ~/.tutor
func GetConfigDir() string {
	if !configDirInit {
		home, err := os.UserHomeDir()
		if err == nil {
			configDir = filepath.Join(home, ".tutor")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	Models  ModelsConfig  `yaml:"models"`
	Storage StorageConfig `yaml:"storage"`
	Context ContextConfig `yaml:"context"`
	Memory  MemoryConfig  `yaml:"memory"`
	Log     LogConfig     `yaml:"log"`
}

// ModelsConfig inference backend configuration.
// All three models are served from the same OpenAI-compatible endpoint
// (an Ollama instance by default).
type ModelsConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
	APIKey  string `yaml:"api_key" envconfig:"API_KEY"`

	// Router is the fast tool-routing model; Reasoning handles teach/
	// exercise/chat; Translation is the translation-specialized model.
	Router      string `yaml:"router" envconfig:"ROUTER_MODEL"`
	Reasoning   string `yaml:"reasoning" envconfig:"REASONING_MODEL"`
	Translation string `yaml:"translation" envconfig:"TRANSLATION_MODEL"`

	ReasoningTemperature   float64 `yaml:"reasoning_temperature" envconfig:"REASONING_TEMPERATURE"`
	TranslationTemperature float64 `yaml:"translation_temperature" envconfig:"TRANSLATION_TEMPERATURE"`
	MaxTokens              int     `yaml:"max_tokens" envconfig:"MAX_TOKENS"`
	TimeoutSeconds         int     `yaml:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
}

// StorageConfig durable storage configuration
type StorageConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
}

// ContextConfig context assembly windows
type ContextConfig struct {
	// HistoryWindow is the number of recent transcript messages included
	// in the prompt; MemoryWindow caps the recent-translations list shown
	// by /progress. The two are independent knobs.
	HistoryWindow int `yaml:"history_window" envconfig:"HISTORY_WINDOW"`
	MemoryWindow  int `yaml:"memory_window" envconfig:"MEMORY_WINDOW"`
	TopK          int `yaml:"top_k" envconfig:"TOP_K"`
}

// MemoryConfig semantic memory index configuration
type MemoryConfig struct {
	Enabled        bool   `yaml:"enabled" envconfig:"MEMORY_ENABLED"`
	EmbeddingModel string `yaml:"embedding_model" envconfig:"EMBEDDING_MODEL"`
	// EmbeddingBaseURL defaults to Models.BaseURL when empty.
	EmbeddingBaseURL string `yaml:"embedding_base_url" envconfig:"EMBEDDING_BASE_URL"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level      string `yaml:"level" envconfig:"LOG_LEVEL"`
	Dir        string `yaml:"dir" envconfig:"LOG_DIR"`
	ConsoleOut bool   `yaml:"console_out" envconfig:"LOG_CONSOLE"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".tutor")
	return &Config{
		Models: ModelsConfig{
			BaseURL:                "http://localhost:11434",
			Router:                 "functiongemma",
			Reasoning:              "ministral-3:3b",
			Translation:            "translategemma:4b",
			ReasoningTemperature:   0.6,
			TranslationTemperature: 0.1,
			MaxTokens:              2048,
			TimeoutSeconds:         120,
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Context: ContextConfig{
			HistoryWindow: 6,
			MemoryWindow:  10,
			TopK:          5,
		},
		Memory: MemoryConfig{
			Enabled:        true,
			EmbeddingModel: "nomic-embed-text",
		},
		Log: LogConfig{
			Level: "info",
			Dir:   filepath.Join(dataDir, "logs"),
		},
	}
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ProfilePath returns the user profile file path
func ProfilePath() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return filepath.Join(dir, "profile.yaml"), nil
}

// Load loads configuration from file, applies TUTOR_* environment
// overrides, and validates the result. A missing config file is created
// with defaults.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment variables win over the file (TUTOR_BASE_URL, TUTOR_API_KEY, ...).
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays TUTOR_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	for _, section := range []interface{}{
		&cfg.Models, &cfg.Storage, &cfg.Context, &cfg.Memory, &cfg.Log,
	} {
		if err := envconfig.Process("tutor", section); err != nil {
			return fmt.Errorf("failed to apply environment overrides: %w", err)
		}
	}
	return nil
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	content := "# Language Tutor Configuration File\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Models.BaseURL == "" {
		return fmt.Errorf("config error: models.base_url cannot be empty")
	}
	if c.Models.Router == "" || c.Models.Reasoning == "" || c.Models.Translation == "" {
		return fmt.Errorf("config error: all three model names must be set")
	}
	if c.Models.ReasoningTemperature < 0 || c.Models.ReasoningTemperature > 2 {
		return fmt.Errorf("config error: models.reasoning_temperature must be between 0 and 2")
	}
	if c.Models.TranslationTemperature < 0 || c.Models.TranslationTemperature > 2 {
		return fmt.Errorf("config error: models.translation_temperature must be between 0 and 2")
	}
	if c.Models.MaxTokens <= 0 {
		return fmt.Errorf("config error: models.max_tokens must be greater than 0")
	}
	if c.Models.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: models.timeout_seconds must be greater than 0")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("config error: storage.data_dir cannot be empty")
	}
	if c.Context.HistoryWindow <= 0 {
		return fmt.Errorf("config error: context.history_window must be greater than 0")
	}
	if c.Context.MemoryWindow <= 0 {
		return fmt.Errorf("config error: context.memory_window must be greater than 0")
	}
	if c.Context.TopK <= 0 {
		return fmt.Errorf("config error: context.top_k must be greater than 0")
	}
	if c.Memory.Enabled && c.Memory.EmbeddingModel == "" {
		return fmt.Errorf("config error: memory.embedding_model cannot be empty when memory is enabled")
	}
	return nil
}

// EmbeddingBaseURL returns the embedding endpoint, falling back to the
// chat endpoint when not set separately.
func (c *Config) EmbeddingBaseURL() string {
	if c.Memory.EmbeddingBaseURL != "" {
		return c.Memory.EmbeddingBaseURL
	}
	return c.Models.BaseURL
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	return fmt.Sprintf(`Tutor Configuration:
  Models:
    Base URL: %s
    API Key: %s
    Router: %s
    Reasoning: %s (temp %.1f)
    Translation: %s (temp %.1f)
    Max Tokens: %d
    Timeout Seconds: %d
  Storage:
    Data Dir: %s
  Context:
    History Window: %d
    Memory Window: %d
    Top K: %d
  Memory:
    Enabled: %v
    Embedding Model: %s
    Embedding Base URL: %s`,
		c.Models.BaseURL,
		redactAPIKey(c.Models.APIKey),
		c.Models.Router,
		c.Models.Reasoning, c.Models.ReasoningTemperature,
		c.Models.Translation, c.Models.TranslationTemperature,
		c.Models.MaxTokens,
		c.Models.TimeoutSeconds,
		c.Storage.DataDir,
		c.Context.HistoryWindow,
		c.Context.MemoryWindow,
		c.Context.TopK,
		c.Memory.Enabled,
		c.Memory.EmbeddingModel,
		c.EmbeddingBaseURL(),
	)
}

func redactAPIKey(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..."
	}
	return "***"
}
