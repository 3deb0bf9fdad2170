package memory

import (
	"context"
	"math"
	"time"
)

// fakeGateway is an in-memory Gateway with the same ordering semantics as the
// sqlite implementation
type fakeGateway struct {
	records   []*MemoryRecord
	dimension int

	insertErr error
	queryErr  error
	updateErr error
}

func newFakeGateway(dimension int) *fakeGateway {
	return &fakeGateway{dimension: dimension}
}

func (g *fakeGateway) VectorCapable() bool {
	return g.dimension > 0
}

func (g *fakeGateway) Insert(ctx context.Context, rec *MemoryRecord) error {
	if g.insertErr != nil {
		return g.insertErr
	}
	clone := *rec
	g.records = append(g.records, &clone)
	return nil
}

func (g *fakeGateway) Get(ctx context.Context, id string) (*MemoryRecord, error) {
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	for _, rec := range g.records {
		if rec.ID == id {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, nil
}

func (g *fakeGateway) Update(ctx context.Context, rec *MemoryRecord) (bool, error) {
	if g.updateErr != nil {
		return false, g.updateErr
	}
	for i, existing := range g.records {
		if existing.ID == rec.ID {
			clone := *rec
			g.records[i] = &clone
			return true, nil
		}
	}
	return false, nil
}

func (g *fakeGateway) StaleEmbeddings(ctx context.Context, dimension, limit int) ([]*MemoryRecord, int, error) {
	if g.queryErr != nil {
		return nil, 0, g.queryErr
	}
	var stale []*MemoryRecord
	current := 0
	for _, rec := range g.records {
		if len(rec.Embedding) == dimension {
			current++
			continue
		}
		stale = append(stale, rec)
	}
	sortRecords(stale)
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, current, nil
}

func (g *fakeGateway) UpdateEmbedding(ctx context.Context, id string, embedding []float32) (bool, error) {
	if g.updateErr != nil {
		return false, g.updateErr
	}
	for _, rec := range g.records {
		if rec.ID == id {
			rec.Embedding = embedding
			rec.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

func (g *fakeGateway) Query(ctx context.Context, f Filter) ([]*MemoryRecord, error) {
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	var out []*MemoryRecord
	for _, rec := range g.records {
		if g.matches(rec, f) {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (g *fakeGateway) VectorSearch(ctx context.Context, f Filter, query []float32, limit int) ([]ScoredRecord, error) {
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	var scored []ScoredRecord
	for _, rec := range g.records {
		if !g.matches(rec, f) {
			continue
		}
		if len(rec.Embedding) != g.dimension {
			continue // not indexed
		}
		scored = append(scored, ScoredRecord{
			Record:   rec,
			Distance: cosineDistance(query, rec.Embedding),
		})
	}
	for i := 0; i < len(scored); i++ {
		for j := i + 1; j < len(scored); j++ {
			if scored[j].Distance < scored[i].Distance {
				scored[i], scored[j] = scored[j], scored[i]
			}
		}
	}
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (g *fakeGateway) Aggregate(ctx context.Context, f Filter) (*Summary, error) {
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	summary := &Summary{CountsByType: map[string]int{}}
	var totalImportance float64
	for _, rec := range g.records {
		if !g.matches(rec, f) {
			continue
		}
		summary.TotalMemories++
		summary.CountsByType[rec.MemoryType]++
		totalImportance += rec.Importance
		created := rec.CreatedAt
		if summary.Earliest == nil || created.Before(*summary.Earliest) {
			summary.Earliest = &created
		}
		if summary.Latest == nil || created.After(*summary.Latest) {
			summary.Latest = &created
		}
	}
	if summary.TotalMemories > 0 {
		summary.AverageImportance = totalImportance / float64(summary.TotalMemories)
	}
	return summary, nil
}

func (g *fakeGateway) matches(rec *MemoryRecord, f Filter) bool {
	if f.ProjectID != "" && rec.ProjectID != f.ProjectID {
		return false
	}
	if f.MemoryType != "" && rec.MemoryType != f.MemoryType {
		return false
	}
	if f.MinImportance > 0 && rec.Importance < f.MinImportance {
		return false
	}
	return rec.HasTags(f.Tags)
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
