package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/a3tai/mcp-form-agent/internal/document"
)

// PostgresConfig configures the connection pool
type PostgresConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	path         TEXT NOT NULL UNIQUE,
	schema_type  TEXT NOT NULL DEFAULT '',
	processed_at TIMESTAMPTZ NOT NULL,
	body         JSON NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_processed_at ON documents (processed_at, id);
`

// Postgres stores documents in PostgreSQL. Bodies use the json type rather
// than jsonb so field order survives.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres connects a pool and creates the schema
func OpenPostgres(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN == "" {
		return nil, errors.New("postgres store requires a DSN")
	}

	logger.Info("store.postgres.connecting")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "mcp-form-agent"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(dialCtx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	logger.Info("store.postgres.connected")
	return &Postgres{pool: pool, logger: logger}, nil
}

// Put implements Store
func (p *Postgres) Put(ctx context.Context, doc *document.Document) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM documents WHERE path = $1 AND id <> $2`, doc.Path, doc.ID); err != nil {
		return fmt.Errorf("replace path %s: %w", doc.Path, err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO documents (id, path, schema_type, processed_at, body)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			path = EXCLUDED.path,
			schema_type = EXCLUDED.schema_type,
			processed_at = EXCLUDED.processed_at,
			body = EXCLUDED.body`,
		doc.ID, doc.Path, doc.SchemaType, doc.ProcessedAt.UTC(), string(body))
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	p.logger.Debug("store.postgres.put", "id", doc.ID, "path", doc.Path)
	return nil
}

// Get implements Store
func (p *Postgres) Get(ctx context.Context, id string) (*document.Document, error) {
	return p.queryOne(ctx, `SELECT body::text FROM documents WHERE id = $1`, id)
}

// GetByPath implements Store
func (p *Postgres) GetByPath(ctx context.Context, path string) (*document.Document, error) {
	return p.queryOne(ctx, `SELECT body::text FROM documents WHERE path = $1`, path)
}

func (p *Postgres) queryOne(ctx context.Context, query, arg string) (*document.Document, error) {
	var body string
	err := p.pool.QueryRow(ctx, query, arg).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	return decode([]byte(body))
}

// List implements Store
func (p *Postgres) List(ctx context.Context) ([]*document.Document, error) {
	rows, err := p.pool.Query(ctx, `SELECT body::text FROM documents ORDER BY processed_at, id`)
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
func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close implements Store
func (p *Postgres) Close() error {
	p.logger.Info("store.postgres.closing")
	p.pool.Close()
	return nil
}
