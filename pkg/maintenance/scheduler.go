// Package maintenance runs periodic background jobs against the memory
// engine, currently the embedding refresh sweep.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mnemo-ai/mnemo/pkg/memory"
)

const defaultJobTimeout = 10 * time.Minute

// Config holds scheduler configuration
type Config struct {
	Engine    *memory.Engine
	Schedule  string // standard 5-field cron expression
	BatchSize int
	Logger    zerolog.Logger
}

// Scheduler periodically refreshes missing or stale embeddings
type Scheduler struct {
	engine    *memory.Engine
	batchSize int
	logger    zerolog.Logger

	cron *cron.Cron
	mu   sync.Mutex // serializes sweeps so overlapping ticks never race
}

// New creates a scheduler. The schedule expression is validated eagerly so a
// bad configuration fails at startup, not at first tick.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	s := &Scheduler{
		engine:    cfg.Engine,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger,
		cron:      cron.New(),
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultJobTimeout)
		defer cancel()
		s.RunNow(ctx)
	}); err != nil {
		return nil, fmt.Errorf("failed to register job: %w", err)
	}

	return s, nil
}

// Start begins running scheduled sweeps in the background
func (s *Scheduler) Start() {
	s.logger.Info().Msg("Maintenance scheduler started")
	s.cron.Start()
}

// Stop stops the scheduler and waits for any in-flight sweep to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.mu.Lock()
	s.mu.Unlock()
	s.logger.Info().Msg("Maintenance scheduler stopped")
}

// RunNow executes one embedding refresh sweep immediately
func (s *Scheduler) RunNow(ctx context.Context) memory.ReembedStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	stats, err := s.engine.UpdateExistingEmbeddings(ctx, s.batchSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("Embedding refresh sweep failed")
		return memory.ReembedStats{}
	}

	s.logger.Info().
		Int("processed", stats.Processed).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Int("errors", stats.Errors).
		Dur("duration", time.Since(started)).
		Msg("Embedding refresh sweep completed")
	return *stats
}
