// Package store persists processed documents. Documents are stored whole,
// as JSON, keyed by ID with a unique path.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/a3tai/mcp-form-agent/internal/document"
)

// Kinds of store
const (
	KindMemory   = "memory"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// ErrNotFound is returned when no document matches
var ErrNotFound = errors.New("document not found")

// Store holds processed documents. Putting a document whose path is already
// stored replaces the older document.
type Store interface {
	Put(ctx context.Context, doc *document.Document) error
	Get(ctx context.Context, id string) (*document.Document, error)
	GetByPath(ctx context.Context, path string) (*document.Document, error)
	// List returns documents ordered by processing time
	List(ctx context.Context) ([]*document.Document, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Config selects and configures a store
type Config struct {
	Kind      string // memory, sqlite or postgres
	DSN       string // sqlite file path or postgres connection string
	CacheSize int    // memory store capacity
}

// Open creates the configured store
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Kind {
	case "", KindMemory:
		return NewMemory(cfg.CacheSize), nil
	case KindSQLite:
		return OpenSQLite(ctx, cfg.DSN, logger)
	case KindPostgres:
		return OpenPostgres(ctx, PostgresConfig{DSN: cfg.DSN}, logger)
	}
	return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
}

func encode(doc *document.Document) ([]byte, error) {
	if doc == nil || doc.ID == "" {
		return nil, errors.New("document must have an id")
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", doc.ID, err)
	}
	return body, nil
}

func decode(body []byte) (*document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

func sortByProcessed(docs []*document.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].ProcessedAt.Equal(docs[j].ProcessedAt) {
			return docs[i].ProcessedAt.Before(docs[j].ProcessedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}
