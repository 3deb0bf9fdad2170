package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the main Mnemo configuration
type Config struct {
	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Project scope applied when tool calls omit project_id
	ProjectID string `json:"project_id" mapstructure:"project_id"`

	// Database
	Database DatabaseConfig `json:"database" mapstructure:"database"`

	// Embedding provider
	Embedding EmbeddingConfig `json:"embedding" mapstructure:"embedding"`

	// Recall
	Recall RecallConfig `json:"recall" mapstructure:"recall"`

	// Maintenance
	Maintenance MaintenanceConfig `json:"maintenance" mapstructure:"maintenance"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// DatabaseConfig holds sqlite configuration
type DatabaseConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	Provider       string `json:"provider" mapstructure:"provider"` // openai, none
	APIKey         string `json:"api_key" mapstructure:"api_key"`
	Model          string `json:"model" mapstructure:"model"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// RecallConfig holds recall defaults
type RecallConfig struct {
	DefaultLimit int `json:"default_limit" mapstructure:"default_limit"`
}

// MaintenanceConfig holds the background embedding refresh settings
type MaintenanceConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Schedule  string `json:"schedule" mapstructure:"schedule"` // 5-field cron expression
	BatchSize int    `json:"batch_size" mapstructure:"batch_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
	File  string `json:"file" mapstructure:"file"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		ProjectID: detectProject(),
		Embedding: EmbeddingConfig{
			Provider:       "openai",
			Model:          "text-embedding-3-small",
			TimeoutSeconds: 30,
		},
		Recall: RecallConfig{
			DefaultLimit: 10,
		},
		Maintenance: MaintenanceConfig{
			Enabled:   false,
			Schedule:  "0 3 * * *",
			BatchSize: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// detectProject derives a project identifier from the working directory
func detectProject() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Base(wd)
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	v := NewValidator()
	if errs := v.ValidateConfig(c); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errs[0])
	}
	return nil
}
