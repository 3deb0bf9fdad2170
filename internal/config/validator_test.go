package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProvider(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateProvider(""))
	assert.NoError(t, v.ValidateProvider("openai"))
	assert.NoError(t, v.ValidateProvider("none"))
	assert.Error(t, v.ValidateProvider("cohere"))
}

func TestValidateAPIKey(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateAPIKey("sk-abc123", "openai"))
	assert.Error(t, v.ValidateAPIKey("", "openai"))
	assert.Error(t, v.ValidateAPIKey("abc123", "openai"))
}

func TestValidateSchedule(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateSchedule("0 3 * * *"))
	assert.NoError(t, v.ValidateSchedule("*/5 * * * *"))
	assert.Error(t, v.ValidateSchedule(""))
	assert.Error(t, v.ValidateSchedule("every morning"))
	assert.Error(t, v.ValidateSchedule("0 3 * *"))
}

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()

	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.NoError(t, v.ValidateLogLevel(level))
	}
	assert.Error(t, v.ValidateLogLevel("trace"))
	assert.Error(t, v.ValidateLogLevel(""))
}

func TestValidateConfig_CollectsErrors(t *testing.T) {
	v := NewValidator()

	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"
	cfg.Embedding.Provider = "cohere"
	cfg.Recall.DefaultLimit = -1

	errs := v.ValidateConfig(cfg)
	assert.Len(t, errs, 3)
}

func TestValidateConfig_NegativeTimeout(t *testing.T) {
	v := NewValidator()

	cfg := DefaultConfig()
	cfg.Embedding.TimeoutSeconds = -5

	errs := v.ValidateConfig(cfg)
	assert.Len(t, errs, 1)
}
