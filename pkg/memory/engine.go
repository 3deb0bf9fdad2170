package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

const (
	defaultRecallLimit  = 10
	defaultEmbedTimeout = 30 * time.Second
)

// Config holds engine configuration
type Config struct {
	Gateway      Gateway
	Provider     EmbeddingProvider // Optional, if nil recall degrades to text matching
	Logger       zerolog.Logger
	ProjectID    string        // default scope stamped on writes
	DefaultLimit int           // default recall limit (10 if zero)
	EmbedTimeout time.Duration // per-call embedding bound (30s if zero)
}

// Engine persists memory records and answers recall queries
type Engine struct {
	gw           Gateway
	provider     EmbeddingProvider
	logger       zerolog.Logger
	projectID    string
	sessionID    string
	dimension    int // provider dimension resolved once at construction
	defaultLimit int
	embedTimeout time.Duration
}

// NewEngine creates a new recall engine
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultRecallLimit
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = defaultEmbedTimeout
	}

	sessionID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	dimension := 0
	if cfg.Provider != nil {
		dimension = cfg.Provider.Dimension()
	}

	e := &Engine{
		gw:           cfg.Gateway,
		provider:     cfg.Provider,
		logger:       cfg.Logger,
		projectID:    cfg.ProjectID,
		sessionID:    sessionID,
		dimension:    dimension,
		defaultLimit: cfg.DefaultLimit,
		embedTimeout: cfg.EmbedTimeout,
	}

	e.logger.Info().
		Str("session_id", sessionID).
		Int("embedding_dimension", dimension).
		Bool("vector_capable", cfg.Gateway.VectorCapable()).
		Msg("Memory engine initialized")

	return e, nil
}

// SessionID returns the identifier stamped on records written through this engine
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Dimension returns the active embedding dimension, 0 without a provider
func (e *Engine) Dimension() int {
	return e.dimension
}

// embeddingText derives the text a record is embedded as
func embeddingText(title string, content Content) string {
	text := content.Flatten()
	if title != "" {
		return title + ": " + text
	}
	return text
}

// embed requests a vector for text, bounded by the configured timeout.
// The gateway connection is never held across this call.
func (e *Engine) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.embedTimeout)
	defer cancel()

	vec, err := e.provider.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) != e.dimension {
		return nil, fmt.Errorf("provider returned %d dimensions, expected %d", len(vec), e.dimension)
	}
	return vec, nil
}

// isCurrent reports whether an embedding matches the active dimension.
// A vector of any other dimension is stale and treated as missing.
func (e *Engine) isCurrent(embedding []float32) bool {
	return e.dimension > 0 && len(embedding) == e.dimension
}
