package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MNEMO_EMBEDDING_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "memories.db"), cfg.Database.Path)
	assert.Equal(t, filepath.Join(cfg.DataDir, "mnemo.log"), cfg.Logging.File)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mnemo.json")
	content := `{
		"project_id": "my-project",
		"data_dir": "` + dir + `",
		"embedding": {"provider": "none"},
		"recall": {"default_limit": 25},
		"maintenance": {"enabled": true, "schedule": "*/15 * * * *", "batch_size": 50},
		"logging": {"level": "debug"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "my-project", cfg.ProjectID)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "none", cfg.Embedding.Provider)
	assert.Equal(t, 25, cfg.Recall.DefaultLimit)
	assert.True(t, cfg.Maintenance.Enabled)
	assert.Equal(t, "*/15 * * * *", cfg.Maintenance.Schedule)
	assert.Equal(t, 50, cfg.Maintenance.BatchSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(dir, "memories.db"), cfg.Database.Path)
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv("MNEMO_EMBEDDING_API_KEY", "sk-from-env")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Embedding.APIKey)
}

func TestLoad_APIKeyOpenAIFallback(t *testing.T) {
	t.Setenv("MNEMO_EMBEDDING_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.Embedding.APIKey)
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("MNEMO_EMBEDDING_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "mnemo.json")

	cfg := DefaultConfig()
	cfg.ProjectID = "saved-project"
	cfg.DataDir = dir
	cfg.Recall.DefaultLimit = 7

	loader := NewLoader(path)
	require.NoError(t, loader.Save(cfg))

	back, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "saved-project", back.ProjectID)
	assert.Equal(t, 7, back.Recall.DefaultLimit)
}

func TestGetConfigPath(t *testing.T) {
	loader := NewLoader("/explicit/path.json")
	assert.Equal(t, "/explicit/path.json", loader.GetConfigPath())

	loader = NewLoader("")
	assert.Contains(t, loader.GetConfigPath(), ".mnemo")
}
