package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/a3tai/mcp-form-agent/internal/document"
)

// sortable UTC timestamp, fixed width so text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	path         TEXT NOT NULL UNIQUE,
	schema_type  TEXT NOT NULL DEFAULT '',
	processed_at TEXT NOT NULL,
	body         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_processed_at ON documents (processed_at, id);
`

// SQLite stores documents in a SQLite database file
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens or creates the database at path and creates the schema.
// The parent directory is created when missing.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return nil, errors.New("sqlite store requires a database path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps :memory: databases shared and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	logger.Info("store.sqlite.open", "path", path)
	return &SQLite{db: db, logger: logger}, nil
}

// Put implements Store
func (s *SQLite) Put(ctx context.Context, doc *document.Document) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE path = ? AND id <> ?`, doc.Path, doc.ID); err != nil {
		return fmt.Errorf("replace path %s: %w", doc.Path, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, path, schema_type, processed_at, body)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			path = excluded.path,
			schema_type = excluded.schema_type,
			processed_at = excluded.processed_at,
			body = excluded.body`,
		doc.ID, doc.Path, doc.SchemaType, doc.ProcessedAt.UTC().Format(timeLayout), string(body))
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("store.sqlite.put", "id", doc.ID, "path", doc.Path)
	return nil
}

// Get implements Store
func (s *SQLite) Get(ctx context.Context, id string) (*document.Document, error) {
	return s.queryOne(ctx, `SELECT body FROM documents WHERE id = ?`, id)
}

// GetByPath implements Store
func (s *SQLite) GetByPath(ctx context.Context, path string) (*document.Document, error) {
	return s.queryOne(ctx, `SELECT body FROM documents WHERE path = ?`, path)
}

func (s *SQLite) queryOne(ctx context.Context, query string, arg string) (*document.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	return decode([]byte(body))
}

// List implements Store
func (s *SQLite) List(ctx context.Context) ([]*document.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM documents ORDER BY processed_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*document.Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decode([]byte(body))
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Delete implements Store
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close implements Store
func (s *SQLite) Close() error {
	return s.db.Close()
}
