// Package sqlite implements the memory persistence gateway over sqlite with
// optional sqlite-vec native vector search.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/mnemo-ai/mnemo/pkg/memory"
)

func init() {
	// Auto-register sqlite-vec extension
	sqlite_vec.Auto()
}

const dimensionKey = "embedding_dimension"

// Config holds gateway configuration
type Config struct {
	Path      string
	Dimension int // 0 disables the vector index
	Logger    zerolog.Logger
}

// Gateway stores memory records in sqlite. With a non-zero dimension a vec0
// virtual table backs native cosine-distance search.
type Gateway struct {
	db        *sql.DB
	dimension int
	logger    zerolog.Logger
}

// Open opens or creates the database and prepares the schema
func Open(cfg Config) (*Gateway, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency between recalls and batch jobs
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	g := &Gateway{
		db:        db,
		dimension: cfg.Dimension,
		logger:    cfg.Logger,
	}

	if err := g.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return g, nil
}

func (g *Gateway) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL DEFAULT '',
			session_id TEXT NOT NULL DEFAULT '',
			memory_type TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			importance REAL NOT NULL DEFAULT 0.5,
			emotional_context TEXT NOT NULL DEFAULT '{}',
			tags TEXT NOT NULL DEFAULT '[]',
			embedding TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_memories_project ON memories(project_id);
		CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(memory_type);
		CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);

		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	if _, err := g.db.Exec(schema); err != nil {
		return err
	}

	if g.dimension <= 0 {
		return nil
	}

	// A dimension change makes every indexed vector stale: rebuild the index
	// empty and keep the per-row embeddings for the re-embedding job.
	var stored string
	err := g.db.QueryRow("SELECT value FROM metadata WHERE key = ?", dimensionKey).Scan(&stored)
	if err == nil && stored != strconv.Itoa(g.dimension) {
		if _, err := g.db.Exec("DROP TABLE IF EXISTS memory_vectors"); err != nil {
			return fmt.Errorf("failed to drop stale vector index: %w", err)
		}
		g.logger.Info().
			Str("previous", stored).
			Int("current", g.dimension).
			Msg("Embedding dimension changed, vector index rebuilt")
	}

	vectorSchema := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS memory_vectors USING vec0(
			memory_id TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		);
	`, g.dimension)
	if _, err := g.db.Exec(vectorSchema); err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	_, err = g.db.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)",
		dimensionKey, strconv.Itoa(g.dimension),
	)
	return err
}

// VectorCapable reports whether native vector search is available
func (g *Gateway) VectorCapable() bool {
	return g.dimension > 0
}

// Close closes the database
func (g *Gateway) Close() error {
	return g.db.Close()
}

// Insert persists a record and its vector index entry in one transaction
func (g *Gateway) Insert(ctx context.Context, rec *memory.MemoryRecord) error {
	contentJSON, err := json.Marshal(rec.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}
	ecJSON, err := marshalOr(rec.EmotionalContext, "{}")
	if err != nil {
		return fmt.Errorf("failed to marshal emotional context: %w", err)
	}
	tagsJSON, err := marshalOr(rec.Tags, "[]")
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	var embJSON sql.NullString
	if rec.Embedding != nil {
		raw, err := json.Marshal(rec.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}
		embJSON = sql.NullString{String: string(raw), Valid: true}
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceErr("begin insert", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memories (
			id, project_id, session_id, memory_type, title, content,
			importance, emotional_context, tags, embedding, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProjectID, rec.SessionID, rec.MemoryType, rec.Title, string(contentJSON),
		rec.Importance, ecJSON, tagsJSON, embJSON,
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return persistenceErr("insert memory", err)
	}

	if g.dimension > 0 && len(rec.Embedding) == g.dimension {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO memory_vectors (memory_id, embedding) VALUES (?, ?)",
			rec.ID, embJSON.String,
		); err != nil {
			return persistenceErr("index embedding", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return persistenceErr("commit insert", err)
	}
	return nil
}

// Get returns the record with the given id, nil when absent
func (g *Gateway) Get(ctx context.Context, id string) (*memory.MemoryRecord, error) {
	row := g.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM memories WHERE id = ?", id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceErr("get memory", err)
	}
	return rec, nil
}

// Update rewrites a record's mutable fields and keeps the vector index in
// step: a current-dimension embedding replaces the index entry, anything else
// removes it.
func (g *Gateway) Update(ctx context.Context, rec *memory.MemoryRecord) (bool, error) {
	contentJSON, err := json.Marshal(rec.Content)
	if err != nil {
		return false, fmt.Errorf("failed to marshal content: %w", err)
	}
	ecJSON, err := marshalOr(rec.EmotionalContext, "{}")
	if err != nil {
		return false, fmt.Errorf("failed to marshal emotional context: %w", err)
	}
	tagsJSON, err := marshalOr(rec.Tags, "[]")
	if err != nil {
		return false, fmt.Errorf("failed to marshal tags: %w", err)
	}

	var embJSON sql.NullString
	if rec.Embedding != nil {
		raw, err := json.Marshal(rec.Embedding)
		if err != nil {
			return false, fmt.Errorf("failed to marshal embedding: %w", err)
		}
		embJSON = sql.NullString{String: string(raw), Valid: true}
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return false, persistenceErr("begin update", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE memories SET
			title = ?, content = ?, importance = ?, emotional_context = ?,
			tags = ?, embedding = ?, updated_at = ?
		WHERE id = ?`,
		rec.Title, string(contentJSON), rec.Importance, ecJSON,
		tagsJSON, embJSON, rec.UpdatedAt.UnixNano(), rec.ID,
	)
	if err != nil {
		return false, persistenceErr("update memory", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, persistenceErr("update memory", err)
	}
	if affected == 0 {
		return false, nil
	}

	if g.dimension > 0 {
		if len(rec.Embedding) == g.dimension {
			_, err = tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO memory_vectors (memory_id, embedding) VALUES (?, ?)",
				rec.ID, embJSON.String,
			)
		} else {
			_, err = tx.ExecContext(ctx,
				"DELETE FROM memory_vectors WHERE memory_id = ?", rec.ID,
			)
		}
		if err != nil {
			return false, persistenceErr("index embedding", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, persistenceErr("commit update", err)
	}
	return true, nil
}

// UpdateEmbedding replaces a record's embedding and bumps updated_at
func (g *Gateway) UpdateEmbedding(ctx context.Context, id string, embedding []float32) (bool, error) {
	raw, err := json.Marshal(embedding)
	if err != nil {
		return false, fmt.Errorf("failed to marshal embedding: %w", err)
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return false, persistenceErr("begin update", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE memories SET embedding = ?, updated_at = ? WHERE id = ?",
		string(raw), nowNano(), id,
	)
	if err != nil {
		return false, persistenceErr("update embedding", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, persistenceErr("update embedding", err)
	}
	if affected == 0 {
		return false, nil
	}

	if g.dimension > 0 && len(embedding) == g.dimension {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO memory_vectors (memory_id, embedding) VALUES (?, ?)",
			id, string(raw),
		); err != nil {
			return false, persistenceErr("index embedding", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, persistenceErr("commit update", err)
	}
	return true, nil
}

func marshalOr(v any, empty string) (string, error) {
	switch t := v.(type) {
	case map[string]string:
		if t == nil {
			return empty, nil
		}
	case []string:
		if t == nil {
			return empty, nil
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", memory.ErrPersistenceUnavailable, op, err)
}
