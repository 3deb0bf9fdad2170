package memory

import (
	"context"
	"fmt"
)

const defaultReembedBatchSize = 100

// ReembedStats accounts for one re-embedding batch
type ReembedStats struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// UpdateExistingEmbeddings regenerates vectors for records whose embedding is
// missing or stale (dimension mismatch with the active provider). Candidates
// are selected gateway-side so at most batchSize records are loaded and
// embedded per call, and Skipped counts every already-current record even
// beyond the batch cutoff. Per-record provider failures are counted, never
// aborting the batch, and a second run with no intervening writes updates
// nothing.
func (e *Engine) UpdateExistingEmbeddings(ctx context.Context, batchSize int) (*ReembedStats, error) {
	stats := &ReembedStats{}

	if e.provider == nil {
		e.logger.Warn().Msg("Re-embedding skipped, no embedding provider configured")
		return stats, nil
	}
	if batchSize <= 0 {
		batchSize = defaultReembedBatchSize
	}

	stale, current, err := e.gw.StaleEmbeddings(ctx, e.dimension, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to scan memories: %w", err)
	}
	stats.Skipped = current

	for _, rec := range stale {
		stats.Processed++

		vec, err := e.embed(ctx, embeddingText(rec.Title, rec.Content))
		if err != nil {
			e.logger.Warn().Err(err).Str("memory_id", rec.ID).Msg("Failed to re-embed memory")
			stats.Errors++
			continue
		}

		updated, err := e.gw.UpdateEmbedding(ctx, rec.ID, vec)
		if err != nil || !updated {
			if err != nil {
				e.logger.Warn().Err(err).Str("memory_id", rec.ID).Msg("Failed to persist embedding")
			}
			stats.Errors++
			continue
		}
		stats.Updated++
	}

	e.logger.Info().
		Int("processed", stats.Processed).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Int("errors", stats.Errors).
		Msg("Embedding update completed")

	return stats, nil
}
