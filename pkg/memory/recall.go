package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// RecallQuery selects and ranks memories
type RecallQuery struct {
	Query         string   // optional natural language query
	ProjectID     string   // optional project scope
	MemoryType    string   // optional type filter
	Tags          []string // record must carry every listed tag
	MinImportance float64  // records below this importance are excluded
	Limit         int      // defaults to the engine's limit
}

// RecallResult pairs a record with its relevance. Relevance is nil in listing
// mode.
type RecallResult struct {
	Record    *MemoryRecord
	Relevance *float64 // normalized to [0, 1]
}

// Recall answers a query by vector similarity, text matching, or plain
// listing. A missing provider or vector index degrades the mode, never the
// call; only gateway failures surface as errors.
func (e *Engine) Recall(ctx context.Context, q RecallQuery) ([]RecallResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}

	filter := Filter{
		ProjectID:     q.ProjectID,
		MemoryType:    q.MemoryType,
		Tags:          normalizeTags(q.Tags),
		MinImportance: clampImportance(q.MinImportance),
	}

	query := strings.TrimSpace(q.Query)
	if query == "" {
		return e.listRecent(ctx, filter, limit)
	}

	if e.provider != nil && e.gw.VectorCapable() {
		results, ok, err := e.semanticRecall(ctx, filter, query, limit)
		if err != nil {
			return nil, err
		}
		if ok {
			return results, nil
		}
		// no candidate holds a current embedding, or the provider timed out
	}

	return e.textRecall(ctx, filter, query, limit)
}

// listRecent returns filtered records most recent first, without scores
func (e *Engine) listRecent(ctx context.Context, filter Filter, limit int) ([]RecallResult, error) {
	filter.Limit = limit
	recs, err := e.gw.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}

	sortRecords(recs)
	if len(recs) > limit {
		recs = recs[:limit]
	}

	results := make([]RecallResult, len(recs))
	for i, rec := range recs {
		results[i] = RecallResult{Record: rec}
	}
	return results, nil
}

// semanticRecall ranks candidates by cosine similarity to the query vector.
// ok is false when the mode cannot run and the caller should fall back.
func (e *Engine) semanticRecall(ctx context.Context, filter Filter, query string, limit int) ([]RecallResult, bool, error) {
	qvec, err := e.embed(ctx, query)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Query embedding unavailable, falling back to text search")
		return nil, false, nil
	}

	scored, err := e.gw.VectorSearch(ctx, filter, qvec, limit)
	if err != nil {
		return nil, false, fmt.Errorf("vector search failed: %w", err)
	}
	if len(scored) == 0 {
		return nil, false, nil
	}

	results := make([]RecallResult, 0, len(scored))
	for _, s := range scored {
		score := similarityFromDistance(s.Distance)
		results = append(results, RecallResult{Record: s.Record, Relevance: &score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if *results[i].Relevance != *results[j].Relevance {
			return *results[i].Relevance > *results[j].Relevance
		}
		return recordBefore(results[i].Record, results[j].Record)
	})

	if len(results) > limit {
		results = results[:limit]
	}

	e.logger.Debug().Int("results", len(results)).Msg("Semantic recall completed")
	return results, true, nil
}

// textRecall scores candidates by the fraction of query terms found in title
// or flattened content, case-insensitively
func (e *Engine) textRecall(ctx context.Context, filter Filter, query string, limit int) ([]RecallResult, error) {
	recs, err := e.gw.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}

	terms := strings.Fields(strings.ToLower(query))
	results := make([]RecallResult, 0, len(recs))
	for _, rec := range recs {
		haystack := strings.ToLower(rec.Title + " " + rec.Content.Flatten())
		matched := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		score := float64(matched) / float64(len(terms))
		results = append(results, RecallResult{Record: rec, Relevance: &score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if *results[i].Relevance != *results[j].Relevance {
			return *results[i].Relevance > *results[j].Relevance
		}
		if results[i].Record.Importance != results[j].Record.Importance {
			return results[i].Record.Importance > results[j].Record.Importance
		}
		return recordBefore(results[i].Record, results[j].Record)
	})

	if len(results) > limit {
		results = results[:limit]
	}

	e.logger.Debug().Int("results", len(results)).Msg("Text recall completed")
	return results, nil
}

// similarityFromDistance maps cosine distance [0, 2] to similarity [0, 1]
func similarityFromDistance(distance float64) float64 {
	similarity := 1.0 - distance/2.0
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}
	return similarity
}

// recordBefore is the shared tie-break: created_at descending, then id
// ascending, so identical inputs always produce identical output order
func recordBefore(a, b *MemoryRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

func sortRecords(recs []*MemoryRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recordBefore(recs[i], recs[j])
	})
}
