package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Models.BaseURL != "http://localhost:11434" {
		t.Errorf("Expected BaseURL to be http://localhost:11434, got %s", cfg.Models.BaseURL)
	}
	if cfg.Models.Router != "functiongemma" {
		t.Errorf("Expected router model functiongemma, got %s", cfg.Models.Router)
	}
	if cfg.Context.HistoryWindow != 6 {
		t.Errorf("Expected HistoryWindow to be 6, got %d", cfg.Context.HistoryWindow)
	}
	if cfg.Context.MemoryWindow != 10 {
		t.Errorf("Expected MemoryWindow to be 10, got %d", cfg.Context.MemoryWindow)
	}
	if cfg.Context.TopK != 5 {
		t.Errorf("Expected TopK to be 5, got %d", cfg.Context.TopK)
	}
	if !cfg.Memory.Enabled {
		t.Error("Expected memory to be enabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty BaseURL",
			mutate:  func(c *Config) { c.Models.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "missing model name",
			mutate:  func(c *Config) { c.Models.Translation = "" },
			wantErr: true,
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.Models.ReasoningTemperature = 3.0 },
			wantErr: true,
		},
		{
			name:    "zero history window",
			mutate:  func(c *Config) { c.Context.HistoryWindow = 0 },
			wantErr: true,
		},
		{
			name:    "memory enabled without embedding model",
			mutate:  func(c *Config) { c.Memory.EmbeddingModel = "" },
			wantErr: true,
		},
		{
			name: "memory disabled without embedding model",
			mutate: func(c *Config) {
				c.Memory.Enabled = false
				c.Memory.EmbeddingModel = ""
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	SetConfigDir(tmpDir)
	defer SetConfigDir("")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Context.HistoryWindow != 6 {
		t.Errorf("Expected default history window, got %d", cfg.Context.HistoryWindow)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "config.yaml")); err != nil {
		t.Errorf("Expected config file to be created: %v", err)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	SetConfigDir(tmpDir)
	defer SetConfigDir("")

	t.Setenv("TUTOR_BASE_URL", "http://ollama.internal:11434")
	t.Setenv("TUTOR_TOP_K", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Models.BaseURL != "http://ollama.internal:11434" {
		t.Errorf("Expected env override for base URL, got %s", cfg.Models.BaseURL)
	}
	if cfg.Context.TopK != 3 {
		t.Errorf("Expected env override for top_k, got %d", cfg.Context.TopK)
	}
}

func TestEmbeddingBaseURLFallback(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.EmbeddingBaseURL(); got != cfg.Models.BaseURL {
		t.Errorf("Expected fallback to models.base_url, got %s", got)
	}

	cfg.Memory.EmbeddingBaseURL = "http://embed:8080"
	if got := cfg.EmbeddingBaseURL(); got != "http://embed:8080" {
		t.Errorf("Expected explicit embedding URL, got %s", got)
	}
}
