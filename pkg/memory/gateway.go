package memory

import (
	"context"
	"time"
)

// Filter restricts a query to matching records. Zero-value fields are ignored.
type Filter struct {
	ProjectID     string
	MemoryType    string
	Tags          []string // record must carry every listed tag
	MinImportance float64  // records below this importance are excluded
	Limit         int      // 0 means unbounded
}

// ScoredRecord pairs a record with its raw vector distance
type ScoredRecord struct {
	Record   *MemoryRecord
	Distance float64 // cosine distance in [0, 2], lower is closer
}

// Summary aggregates the records visible in one scope
type Summary struct {
	TotalMemories     int            `json:"total_memories"`
	CountsByType      map[string]int `json:"counts_by_type"`
	AverageImportance float64        `json:"average_importance"`
	Earliest          *time.Time     `json:"earliest,omitempty"`
	Latest            *time.Time     `json:"latest,omitempty"`
}

// Gateway is the persistence dependency. Implementations without native
// vector search report VectorCapable() == false and the engine degrades to
// text matching.
type Gateway interface {
	// Insert persists a record atomically, embedding included
	Insert(ctx context.Context, rec *MemoryRecord) error

	// Get returns the record with the given id, nil when absent
	Get(ctx context.Context, id string) (*MemoryRecord, error)

	// Update rewrites a record's mutable fields and embedding. Returns false
	// when no record matches the id.
	Update(ctx context.Context, rec *MemoryRecord) (bool, error)

	// UpdateEmbedding replaces a record's embedding and bumps updated_at.
	// Returns false when no record matches the id.
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) (bool, error)

	// Query returns filtered records ordered by created_at descending then id
	// ascending
	Query(ctx context.Context, f Filter) ([]*MemoryRecord, error)

	// VectorSearch ranks filtered records by distance to the query vector.
	// Records without a current-dimension embedding are absent from the result.
	VectorSearch(ctx context.Context, f Filter, query []float32, limit int) ([]ScoredRecord, error)

	// StaleEmbeddings returns up to limit records whose embedding is missing
	// or not of the given dimension, newest first, plus the count of records
	// whose embedding is already current
	StaleEmbeddings(ctx context.Context, dimension, limit int) ([]*MemoryRecord, int, error)

	// Aggregate computes summary statistics in a single pass
	Aggregate(ctx context.Context, f Filter) (*Summary, error)

	// VectorCapable reports whether VectorSearch is backed by a vector index
	VectorCapable() bool
}
