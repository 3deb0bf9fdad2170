package memory

import (
	"context"
	"errors"
	"time"
)

// ErrorKind classifies a failed operation for callers across the tool boundary
type ErrorKind string

const (
	ErrorKindValidation  ErrorKind = "validation_failed"
	ErrorKindNotFound    ErrorKind = "not_found"
	ErrorKindPersistence ErrorKind = "persistence_unavailable"
	ErrorKindInternal    ErrorKind = "internal"
)

// OperationError is the structured error descriptor returned to tool callers.
// No Go error ever crosses the tool boundary.
type OperationError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func describeError(err error) *OperationError {
	kind := ErrorKindInternal
	switch {
	case errors.Is(err, ErrValidation):
		kind = ErrorKindValidation
	case errors.Is(err, ErrNotFound):
		kind = ErrorKindNotFound
	case errors.Is(err, ErrPersistenceUnavailable):
		kind = ErrorKindPersistence
	}
	return &OperationError{Kind: kind, Message: err.Error()}
}

// StoreMemoryParams defines parameters for the store_memory tool
type StoreMemoryParams struct {
	MemoryType       string            `json:"memory_type"`
	Content          any               `json:"content"` // text or structured document
	Title            string            `json:"title,omitempty"`
	Importance       *float64          `json:"importance,omitempty"`
	EmotionalContext map[string]string `json:"emotional_context,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
	ProjectID        string            `json:"project_id,omitempty"`
}

// StoreMemoryResult represents the result of storing a memory
type StoreMemoryResult struct {
	Success      bool            `json:"success"`
	MemoryID     string          `json:"memory_id,omitempty"`
	HasEmbedding bool            `json:"has_embedding,omitempty"`
	Error        *OperationError `json:"error,omitempty"`
}

// StoreMemory persists a new memory record
func StoreMemory(ctx context.Context, engine *Engine, params StoreMemoryParams) *StoreMemoryResult {
	content, err := ContentFromValue(params.Content)
	if err != nil {
		return &StoreMemoryResult{Error: &OperationError{Kind: ErrorKindValidation, Message: err.Error()}}
	}

	out, err := engine.Store(ctx, StoreInput{
		MemoryType:       params.MemoryType,
		Content:          content,
		Title:            params.Title,
		Importance:       params.Importance,
		EmotionalContext: params.EmotionalContext,
		Tags:             params.Tags,
		ProjectID:        params.ProjectID,
	})
	if err != nil {
		return &StoreMemoryResult{Error: describeError(err)}
	}

	return &StoreMemoryResult{
		Success:      true,
		MemoryID:     out.ID,
		HasEmbedding: out.HasEmbedding,
	}
}

// UpdateMemoryParams defines parameters for the update_memory tool. Only the
// fields provided are changed; add_tags appends to the existing tag set.
type UpdateMemoryParams struct {
	MemoryID         string            `json:"memory_id"`
	Content          any               `json:"content,omitempty"` // text or structured document
	Title            *string           `json:"title,omitempty"`
	Importance       *float64          `json:"importance,omitempty"`
	EmotionalContext map[string]string `json:"emotional_context,omitempty"`
	AddTags          []string          `json:"add_tags,omitempty"`
}

// UpdateMemoryResult represents the result of an update
type UpdateMemoryResult struct {
	Success      bool            `json:"success"`
	MemoryID     string          `json:"memory_id,omitempty"`
	HasEmbedding bool            `json:"has_embedding,omitempty"`
	Error        *OperationError `json:"error,omitempty"`
}

// UpdateMemory applies a partial update to a stored memory
func UpdateMemory(ctx context.Context, engine *Engine, params UpdateMemoryParams) *UpdateMemoryResult {
	in := UpdateInput{
		ID:               params.MemoryID,
		Title:            params.Title,
		Importance:       params.Importance,
		EmotionalContext: params.EmotionalContext,
		AddTags:          params.AddTags,
	}
	if params.Content != nil {
		content, err := ContentFromValue(params.Content)
		if err != nil {
			return &UpdateMemoryResult{Error: &OperationError{Kind: ErrorKindValidation, Message: err.Error()}}
		}
		in.Content = &content
	}

	out, err := engine.Update(ctx, in)
	if err != nil {
		return &UpdateMemoryResult{Error: describeError(err)}
	}

	return &UpdateMemoryResult{
		Success:      true,
		MemoryID:     out.ID,
		HasEmbedding: out.HasEmbedding,
	}
}

// RecallMemoriesParams defines parameters for the recall_memories tool
type RecallMemoriesParams struct {
	Query         string   `json:"query,omitempty"`
	ProjectID     string   `json:"project_id,omitempty"`
	MemoryType    string   `json:"memory_type,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Limit         int      `json:"limit,omitempty"`
	MinImportance float64  `json:"min_importance,omitempty"`
}

// RecalledMemory is one recall hit in wire form
type RecalledMemory struct {
	ID               string            `json:"id"`
	ProjectID        string            `json:"project_id,omitempty"`
	MemoryType       string            `json:"memory_type"`
	Title            string            `json:"title,omitempty"`
	Content          Content           `json:"content"`
	Importance       float64           `json:"importance"`
	EmotionalContext map[string]string `json:"emotional_context,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	RelevanceScore   *float64          `json:"relevance_score,omitempty"`
}

// RecallMemoriesResult represents the result of a recall
type RecallMemoriesResult struct {
	Success  bool             `json:"success"`
	Count    int              `json:"count"`
	Memories []RecalledMemory `json:"memories"`
	Error    *OperationError  `json:"error,omitempty"`
}

// RecallMemories answers a recall query
func RecallMemories(ctx context.Context, engine *Engine, params RecallMemoriesParams) *RecallMemoriesResult {
	results, err := engine.Recall(ctx, RecallQuery{
		Query:         params.Query,
		ProjectID:     params.ProjectID,
		MemoryType:    params.MemoryType,
		Tags:          params.Tags,
		Limit:         params.Limit,
		MinImportance: params.MinImportance,
	})
	if err != nil {
		return &RecallMemoriesResult{Error: describeError(err)}
	}

	memories := make([]RecalledMemory, len(results))
	for i, r := range results {
		rec := r.Record
		memories[i] = RecalledMemory{
			ID:               rec.ID,
			ProjectID:        rec.ProjectID,
			MemoryType:       rec.MemoryType,
			Title:            rec.Title,
			Content:          rec.Content,
			Importance:       rec.Importance,
			EmotionalContext: rec.EmotionalContext,
			Tags:             rec.Tags,
			CreatedAt:        rec.CreatedAt,
			UpdatedAt:        rec.UpdatedAt,
			RelevanceScore:   r.Relevance,
		}
	}

	return &RecallMemoriesResult{
		Success:  true,
		Count:    len(memories),
		Memories: memories,
	}
}

// UpdateEmbeddingsParams defines parameters for the
// update_embeddings_for_existing_memories tool
type UpdateEmbeddingsParams struct {
	BatchSize int `json:"batch_size,omitempty"`
}

// UpdateEmbeddingsResult represents the result of a re-embedding batch
type UpdateEmbeddingsResult struct {
	Success   bool            `json:"success"`
	Processed int             `json:"processed"`
	Updated   int             `json:"updated"`
	Skipped   int             `json:"skipped"`
	Errors    int             `json:"errors"`
	Error     *OperationError `json:"error,omitempty"`
}

// UpdateEmbeddings re-embeds records lacking a current vector
func UpdateEmbeddings(ctx context.Context, engine *Engine, params UpdateEmbeddingsParams) *UpdateEmbeddingsResult {
	stats, err := engine.UpdateExistingEmbeddings(ctx, params.BatchSize)
	if err != nil {
		return &UpdateEmbeddingsResult{Error: describeError(err)}
	}

	return &UpdateEmbeddingsResult{
		Success:   true,
		Processed: stats.Processed,
		Updated:   stats.Updated,
		Skipped:   stats.Skipped,
		Errors:    stats.Errors,
	}
}

// GetSummaryParams defines parameters for the get_memory_summary tool
type GetSummaryParams struct {
	ProjectID string `json:"project_id,omitempty"`
}

// GetSummaryResult represents the result of a summary aggregation
type GetSummaryResult struct {
	Success bool            `json:"success"`
	Summary *Summary        `json:"summary,omitempty"`
	Error   *OperationError `json:"error,omitempty"`
}

// GetSummary aggregates statistics over stored memories
func GetSummary(ctx context.Context, engine *Engine, params GetSummaryParams) *GetSummaryResult {
	summary, err := engine.Summary(ctx, params.ProjectID)
	if err != nil {
		return &GetSummaryResult{Error: describeError(err)}
	}
	return &GetSummaryResult{Success: true, Summary: summary}
}
