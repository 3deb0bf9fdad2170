package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")

	l, err := New(Config{Level: "info", File: path})
	require.NoError(t, err)
	defer l.Close()

	l.Info().Str("key", "value").Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), `"key":"value"`)
}

func TestNew_LevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	l, err := New(Config{Level: "warn", File: path})
	require.NoError(t, err)
	defer l.Close()

	l.Debug().Msg("too quiet")
	l.Warn().Msg("loud enough")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "too quiet")
	assert.Contains(t, string(data), "loud enough")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	l, err := New(Config{Level: "shout", File: path})
	require.NoError(t, err)
	defer l.Close()

	l.Info().Msg("still logged")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "still logged")
}

func TestNew_ConsoleOnly(t *testing.T) {
	l, err := New(Config{Level: "info", Console: true})
	require.NoError(t, err)
	defer l.Close()

	assert.NotNil(t, l.GetZerolog())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.Console)
	assert.True(t, cfg.Pretty)
}
