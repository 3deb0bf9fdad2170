package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mnemo-ai/mnemo/internal/config"
	"github.com/mnemo-ai/mnemo/internal/logger"
	"github.com/mnemo-ai/mnemo/pkg/memory"
	"github.com/mnemo-ai/mnemo/pkg/memory/sqlite"
)

// runtime bundles everything a command needs to talk to the engine
type runtime struct {
	cfg     *config.Config
	log     *logger.Logger
	gateway *sqlite.Gateway
	engine  *memory.Engine
}

func buildRuntime() (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: true,
		Pretty:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	var provider memory.EmbeddingProvider
	if cfg.Embedding.Provider == "openai" && cfg.Embedding.APIKey != "" {
		provider = memory.NewOpenAIProvider(cfg.Embedding.APIKey, cfg.Embedding.Model)
	} else {
		log.Warn().Msg("No embedding provider configured, recall will use text matching only")
	}

	dimension := 0
	if provider != nil {
		dimension = provider.Dimension()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	gateway, err := sqlite.Open(sqlite.Config{
		Path:      cfg.Database.Path,
		Dimension: dimension,
		Logger:    log.GetZerolog(),
	})
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	engine, err := memory.NewEngine(memory.Config{
		Gateway:      gateway,
		Provider:     provider,
		Logger:       log.GetZerolog(),
		ProjectID:    cfg.ProjectID,
		DefaultLimit: cfg.Recall.DefaultLimit,
		EmbedTimeout: time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		gateway.Close()
		log.Close()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	return &runtime{
		cfg:     cfg,
		log:     log,
		gateway: gateway,
		engine:  engine,
	}, nil
}

func (r *runtime) Close() {
	if err := r.gateway.Close(); err != nil {
		r.log.Error().Err(err).Msg("Failed to close database")
	}
	r.log.Close()
}
