package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateProvider validates the embedding provider name
func (v *Validator) ValidateProvider(provider string) error {
	if provider == "" {
		return nil // Embeddings disabled
	}

	validProviders := []string{"openai", "none"}
	for _, valid := range validProviders {
		if provider == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid embedding provider: %s (must be one of: %s)", provider, strings.Join(validProviders, ", "))
}

// ValidateAPIKey validates an API key format
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	if provider == "openai" && !strings.HasPrefix(key, "sk-") {
		return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
	}

	return nil
}

// ValidateSchedule validates a cron schedule expression
func (v *Validator) ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("maintenance schedule cannot be empty")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateProvider(cfg.Embedding.Provider); err != nil {
		errors = append(errors, err)
	}
	if cfg.Embedding.Provider == "openai" && cfg.Embedding.APIKey != "" {
		if err := v.ValidateAPIKey(cfg.Embedding.APIKey, "openai"); err != nil {
			errors = append(errors, err)
		}
	}
	if cfg.Embedding.TimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("embedding timeout_seconds must be >= 0"))
	}

	if cfg.Recall.DefaultLimit < 0 {
		errors = append(errors, fmt.Errorf("recall default_limit must be >= 0"))
	}

	if cfg.Maintenance.Enabled {
		if err := v.ValidateSchedule(cfg.Maintenance.Schedule); err != nil {
			errors = append(errors, err)
		}
		if cfg.Maintenance.BatchSize < 0 {
			errors = append(errors, fmt.Errorf("maintenance batch_size must be >= 0"))
		}
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	return errors
}
