package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoreInput describes a memory to persist
type StoreInput struct {
	MemoryType       string
	Content          Content
	Title            string
	Importance       *float64 // nil defaults to 0.5
	EmotionalContext map[string]string
	Tags             []string
	ProjectID        string // defaults to the engine's project scope
}

// StoreOutput reports a successful write
type StoreOutput struct {
	ID           string    `json:"id"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store validates, embeds, and persists a new memory record. Embedding is an
// enhancement, not a precondition for durability: provider failure stores the
// record without a vector.
func (e *Engine) Store(ctx context.Context, in StoreInput) (*StoreOutput, error) {
	if strings.TrimSpace(in.MemoryType) == "" {
		return nil, fmt.Errorf("%w: memory_type is required", ErrValidation)
	}
	if in.Content.IsEmpty() {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	importance := 0.5
	if in.Importance != nil {
		importance = clampImportance(*in.Importance)
	}

	projectID := in.ProjectID
	if projectID == "" {
		projectID = e.projectID
	}

	now := time.Now().UTC()
	rec := &MemoryRecord{
		ID:               uuid.NewString(),
		ProjectID:        projectID,
		SessionID:        e.sessionID,
		MemoryType:       strings.TrimSpace(in.MemoryType),
		Title:            strings.TrimSpace(in.Title),
		Content:          in.Content,
		Importance:       importance,
		EmotionalContext: in.EmotionalContext,
		Tags:             normalizeTags(in.Tags),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if e.provider != nil {
		vec, err := e.embed(ctx, embeddingText(rec.Title, rec.Content))
		if err != nil {
			e.logger.Warn().Err(err).Str("memory_id", rec.ID).
				Msg("Embedding unavailable, storing without vector")
		} else {
			rec.Embedding = vec
		}
	}

	if err := e.gw.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to insert memory: %w", err)
	}

	e.logger.Debug().
		Str("memory_id", rec.ID).
		Str("memory_type", rec.MemoryType).
		Bool("has_embedding", rec.Embedding != nil).
		Msg("Memory stored")

	return &StoreOutput{
		ID:           rec.ID,
		HasEmbedding: rec.Embedding != nil,
		CreatedAt:    rec.CreatedAt,
	}, nil
}
