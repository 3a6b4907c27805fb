// Package retrieval ranks the parts of a document (fields, tables and raw
// text) against a query. Ranking uses term overlap, or embedding similarity
// when an embedding provider is configured.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/a3tai/mcp-form-agent/internal/extraction"
)

// DefaultTopK is the number of parts kept when no limit is given
const DefaultTopK = 5

// Kind is where a snippet came from
type Kind string

const (
	KindField Kind = "field"
	KindTable Kind = "table"
	KindText  Kind = "text"
)

// Snippet is one ranked piece of a document
type Snippet struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
	Kind   Kind    `json:"kind"`
}

// Source is the view of a document that retrieval works on
type Source struct {
	Path   string
	Text   string
	Fields *extraction.FieldMap
	Tables [][][]string
}

// Embedder turns texts into vectors, one per input, in order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Strategy ranks the parts of one document against a query
type Strategy interface {
	Name() string
	Retrieve(ctx context.Context, query string, src Source, topK int) ([]Snippet, error)
}

// Retriever ranks document parts and builds answer contexts
type Retriever struct {
	strategy Strategy
	embedder Embedder
	topK     int
	logger   *slog.Logger
}

// Option configures a Retriever
type Option func(*Retriever)

// WithEmbedder switches ranking to embedding similarity
func WithEmbedder(e Embedder) Option {
	return func(r *Retriever) {
		r.embedder = e
	}
}

// WithTopK sets the default number of parts kept
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Retriever) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a retriever. The strategy is fixed here: embedding
// similarity when an Embedder is supplied, term overlap otherwise.
func New(opts ...Option) *Retriever {
	r := &Retriever{
		topK:   DefaultTopK,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.embedder != nil {
		r.strategy = NewEmbeddingStrategy(r.embedder, r.logger)
	} else {
		r.strategy = TermStrategy{}
	}
	return r
}

// StrategyName reports which ranking strategy is in use
func (r *Retriever) StrategyName() string {
	return r.strategy.Name()
}

// TopK returns the default number of parts kept
func (r *Retriever) TopK() int {
	return r.topK
}

// Retrieve ranks one document's parts. A non-positive topK uses the
// retriever default.
func (r *Retriever) Retrieve(ctx context.Context, query string, src Source, topK int) ([]Snippet, error) {
	if topK <= 0 {
		topK = r.topK
	}
	return r.strategy.Retrieve(ctx, query, src, topK)
}

// RetrieveMulti ranks parts across documents. Each document contributes up
// to topK/len(srcs)+1 parts, sources are prefixed with the document path
// and the pooled result is truncated to topK.
func (r *Retriever) RetrieveMulti(ctx context.Context, query string, srcs []Source, topK int) ([]Snippet, error) {
	if len(srcs) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = r.topK
	}

	perDoc := topK/len(srcs) + 1
	var all []Snippet
	for _, src := range srcs {
		snippets, err := r.strategy.Retrieve(ctx, query, src, perDoc)
		if err != nil {
			return nil, fmt.Errorf("retrieve from %s: %w", src.Path, err)
		}
		for i := range snippets {
			snippets[i].Source = src.Path + ": " + snippets[i].Source
		}
		all = append(all, snippets...)
	}
	return rank(all, topK), nil
}

// rank stable-sorts by score descending and keeps the first topK
func rank(snippets []Snippet, topK int) []Snippet {
	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].Score > snippets[j].Score
	})
	if len(snippets) > topK {
		snippets = snippets[:topK]
	}
	return snippets
}
