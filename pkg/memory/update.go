package memory

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// UpdateInput describes a partial update to an existing memory. Nil fields
// are left unchanged; AddTags appends to the existing tag set.
type UpdateInput struct {
	ID               string
	Content          *Content
	Title            *string
	Importance       *float64
	EmotionalContext map[string]string // nil leaves the annotations unchanged
	AddTags          []string
}

// UpdateOutput reports a successful update
type UpdateOutput struct {
	ID           string    `json:"id"`
	HasEmbedding bool      `json:"has_embedding"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Update mutates an existing record in place. A content or title change
// re-derives the embedding; when the provider cannot produce one the old
// vector is dropped rather than left describing the previous text, and the
// refresh sweep fills it in later.
func (e *Engine) Update(ctx context.Context, in UpdateInput) (*UpdateOutput, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("%w: memory id is required", ErrValidation)
	}
	if in.Content != nil && in.Content.IsEmpty() {
		return nil, fmt.Errorf("%w: content cannot be emptied", ErrValidation)
	}

	rec, err := e.gw.Get(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, in.ID)
	}

	textChanged := false
	if in.Content != nil {
		rec.Content = *in.Content
		textChanged = true
	}
	if in.Title != nil {
		rec.Title = strings.TrimSpace(*in.Title)
		textChanged = true
	}
	if in.Importance != nil {
		rec.Importance = clampImportance(*in.Importance)
	}
	if in.EmotionalContext != nil {
		rec.EmotionalContext = in.EmotionalContext
	}
	if len(in.AddTags) > 0 {
		rec.Tags = normalizeTags(append(rec.Tags, in.AddTags...))
	}
	rec.UpdatedAt = time.Now().UTC()

	if textChanged {
		rec.Embedding = nil
		if e.provider != nil {
			vec, err := e.embed(ctx, embeddingText(rec.Title, rec.Content))
			if err != nil {
				e.logger.Warn().Err(err).Str("memory_id", rec.ID).
					Msg("Embedding unavailable, updating without vector")
			} else {
				rec.Embedding = vec
			}
		}
	}

	updated, err := e.gw.Update(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to update memory: %w", err)
	}
	if !updated {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, in.ID)
	}

	e.logger.Debug().
		Str("memory_id", rec.ID).
		Bool("text_changed", textChanged).
		Bool("has_embedding", rec.Embedding != nil).
		Msg("Memory updated")

	return &UpdateOutput{
		ID:           rec.ID,
		HasEmbedding: rec.Embedding != nil,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}
