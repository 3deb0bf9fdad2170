package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mnemo-ai/mnemo/pkg/memory"
)

const recordColumns = "id, project_id, session_id, memory_type, title, content, " +
	"importance, emotional_context, tags, embedding, created_at, updated_at"

// Query returns records matching the filter, newest first
func (g *Gateway) Query(ctx context.Context, f memory.Filter) ([]*memory.MemoryRecord, error) {
	where, args := buildWhere(f, "")

	query := "SELECT " + recordColumns + " FROM memories" + where +
		" ORDER BY created_at DESC, id ASC"
	// Tag filtering happens in Go, so the SQL limit only applies without tags
	if f.Limit > 0 && len(f.Tags) == 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr("query memories", err)
	}
	defer rows.Close()

	var records []*memory.MemoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, persistenceErr("scan memory", err)
		}
		if !rec.HasTags(f.Tags) {
			continue
		}
		records = append(records, rec)
		if f.Limit > 0 && len(records) >= f.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("iterate memories", err)
	}
	return records, nil
}

// VectorSearch ranks indexed records by cosine distance to the query vector
func (g *Gateway) VectorSearch(ctx context.Context, f memory.Filter, queryVec []float32, limit int) ([]memory.ScoredRecord, error) {
	if g.dimension == 0 {
		return nil, nil
	}
	qJSON, err := json.Marshal(queryVec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query vector: %w", err)
	}

	where, whereArgs := buildWhere(f, "m.")

	cols := make([]string, 0, 12)
	for _, c := range strings.Split(recordColumns, ", ") {
		cols = append(cols, "m."+c)
	}
	query := "SELECT " + strings.Join(cols, ", ") + ", " +
		"vec_distance_cosine(v.embedding, ?) AS distance " +
		"FROM memory_vectors v JOIN memories m ON m.id = v.memory_id" + where +
		" ORDER BY distance ASC, m.created_at DESC, m.id ASC"
	args := append([]any{string(qJSON)}, whereArgs...)
	if limit > 0 && len(f.Tags) == 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr("vector search", err)
	}
	defer rows.Close()

	var scored []memory.ScoredRecord
	for rows.Next() {
		rec, distance, err := scanScored(rows)
		if err != nil {
			return nil, persistenceErr("scan scored memory", err)
		}
		if !rec.HasTags(f.Tags) {
			continue
		}
		scored = append(scored, memory.ScoredRecord{Record: rec, Distance: distance})
		if limit > 0 && len(scored) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("iterate scored memories", err)
	}
	return scored, nil
}

// StaleEmbeddings selects records whose embedding is missing or of the wrong
// dimension, newest first, bounded by limit. The second return value counts
// the records whose embedding already matches the dimension.
func (g *Gateway) StaleEmbeddings(ctx context.Context, dimension, limit int) ([]*memory.MemoryRecord, int, error) {
	var current int
	err := g.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM memories WHERE embedding IS NOT NULL AND json_array_length(embedding) = ?",
		dimension,
	).Scan(&current)
	if err != nil {
		return nil, 0, persistenceErr("count current embeddings", err)
	}

	query := "SELECT " + recordColumns + " FROM memories " +
		"WHERE embedding IS NULL OR json_array_length(embedding) != ? " +
		"ORDER BY created_at DESC, id ASC"
	args := []any{dimension}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, persistenceErr("query stale embeddings", err)
	}
	defer rows.Close()

	var records []*memory.MemoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, persistenceErr("scan memory", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, persistenceErr("iterate stale embeddings", err)
	}
	return records, current, nil
}

// Aggregate summarizes matching records grouped by memory type. Tag filters
// are not supported here, only project and type.
func (g *Gateway) Aggregate(ctx context.Context, f memory.Filter) (*memory.Summary, error) {
	where, args := buildWhere(f, "")

	query := "SELECT memory_type, COUNT(*), AVG(importance), MIN(created_at), MAX(created_at) " +
		"FROM memories" + where + " GROUP BY memory_type"

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistenceErr("aggregate memories", err)
	}
	defer rows.Close()

	summary := &memory.Summary{CountsByType: map[string]int{}}
	var weighted float64
	for rows.Next() {
		var (
			memType    string
			count      int
			avg        float64
			minC, maxC int64
		)
		if err := rows.Scan(&memType, &count, &avg, &minC, &maxC); err != nil {
			return nil, persistenceErr("scan aggregate", err)
		}
		summary.CountsByType[memType] = count
		summary.TotalMemories += count
		weighted += avg * float64(count)

		earliest := time.Unix(0, minC).UTC()
		latest := time.Unix(0, maxC).UTC()
		if summary.Earliest == nil || earliest.Before(*summary.Earliest) {
			summary.Earliest = &earliest
		}
		if summary.Latest == nil || latest.After(*summary.Latest) {
			summary.Latest = &latest
		}
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("iterate aggregates", err)
	}

	if summary.TotalMemories > 0 {
		summary.AverageImportance = weighted / float64(summary.TotalMemories)
	}
	return summary, nil
}

func buildWhere(f memory.Filter, prefix string) (string, []any) {
	var conds []string
	var args []any
	if f.ProjectID != "" {
		conds = append(conds, prefix+"project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.MemoryType != "" {
		conds = append(conds, prefix+"memory_type = ?")
		args = append(args, f.MemoryType)
	}
	if f.MinImportance > 0 {
		conds = append(conds, prefix+"importance >= ?")
		args = append(args, f.MinImportance)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(rows rowScanner) (*memory.MemoryRecord, error) {
	rec, _, err := scan(rows, false)
	return rec, err
}

func scanScored(rows rowScanner) (*memory.MemoryRecord, float64, error) {
	return scan(rows, true)
}

func scan(rows rowScanner, withDistance bool) (*memory.MemoryRecord, float64, error) {
	var (
		rec         memory.MemoryRecord
		contentJSON string
		ecJSON      string
		tagsJSON    string
		embJSON     sql.NullString
		createdAt   int64
		updatedAt   int64
		distance    float64
	)

	dest := []any{
		&rec.ID, &rec.ProjectID, &rec.SessionID, &rec.MemoryType, &rec.Title, &contentJSON,
		&rec.Importance, &ecJSON, &tagsJSON, &embJSON, &createdAt, &updatedAt,
	}
	if withDistance {
		dest = append(dest, &distance)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, 0, err
	}

	if err := json.Unmarshal([]byte(contentJSON), &rec.Content); err != nil {
		return nil, 0, fmt.Errorf("failed to decode content for %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(ecJSON), &rec.EmotionalContext); err != nil {
		return nil, 0, fmt.Errorf("failed to decode emotional context for %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
		return nil, 0, fmt.Errorf("failed to decode tags for %s: %w", rec.ID, err)
	}
	if embJSON.Valid {
		if err := json.Unmarshal([]byte(embJSON.String), &rec.Embedding); err != nil {
			return nil, 0, fmt.Errorf("failed to decode embedding for %s: %w", rec.ID, err)
		}
	}
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	rec.UpdatedAt = time.Unix(0, updatedAt).UTC()

	return &rec, distance, nil
}

func nowNano() int64 {
	return time.Now().UTC().UnixNano()
}
