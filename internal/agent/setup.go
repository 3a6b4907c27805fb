package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/a3tai/mcp-form-agent/internal/config"
	"github.com/a3tai/mcp-form-agent/internal/embedding"
	"github.com/a3tai/mcp-form-agent/internal/intelligence"
	"github.com/a3tai/mcp-form-agent/internal/store"
)

// Open builds a service from configuration: it loads the schema catalog,
// opens the store and connects the embeddings client when one is set.
// The caller owns the service and must Close it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := Options{
		Dir:         cfg.Directory,
		MaxFileSize: cfg.MaxFileSize,
		Workers:     cfg.Workers,
		TopK:        cfg.TopK,
		Logger:      logger,
	}

	if cfg.CatalogPath != "" {
		catalog, err := intelligence.LoadCatalogFile(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog %s: %w", cfg.CatalogPath, err)
		}
		opts.Catalog = catalog
	}

	if cfg.HasEmbeddings() {
		client, err := embedding.NewClient(embedding.Config{
			BaseURL: cfg.EmbeddingURL,
			APIKey:  cfg.EmbeddingKey,
			Model:   cfg.EmbeddingModel,
			Timeout: cfg.EmbeddingTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding client: %w", err)
		}
		opts.Embedder = client
		logger.Info("agent.embeddings", "url", cfg.EmbeddingURL, "model", client.Model())
	}

	st, err := store.Open(ctx, store.Config{
		Kind:      cfg.Store,
		DSN:       cfg.DSN,
		CacheSize: cfg.CacheSize,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
	}
	opts.Store = st

	svc, err := NewService(opts)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return svc, nil
}
