package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// embeddingThreshold is the minimum cosine similarity kept by the
// embedding strategy
const embeddingThreshold = 0.2

// EmbeddingStrategy ranks field lines and text chunks by cosine similarity
// to the query. Any provider failure falls back to term overlap.
type EmbeddingStrategy struct {
	embedder Embedder
	fallback TermStrategy
	logger   *slog.Logger
}

// NewEmbeddingStrategy creates an embedding strategy
func NewEmbeddingStrategy(e Embedder, logger *slog.Logger) *EmbeddingStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingStrategy{embedder: e, logger: logger}
}

// Name implements Strategy
func (s *EmbeddingStrategy) Name() string { return "embedding" }

type chunkMeta struct {
	text   string
	source string
	kind   Kind
}

// Retrieve implements Strategy
func (s *EmbeddingStrategy) Retrieve(ctx context.Context, query string, src Source, topK int) ([]Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var chunks []chunkMeta
	for name, value := range src.Fields.All() {
		chunks = append(chunks, chunkMeta{text: name + ": " + value.String(), source: name, kind: KindField})
	}
	for _, c := range Chunk(src.Text, DefaultChunkSize) {
		chunks = append(chunks, chunkMeta{text: c, source: "document text", kind: KindText})
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.text)
	}
	sims, err := similarities(ctx, s.embedder, query, texts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Debug("retrieval.embedding.fallback", "error", err)
		return s.fallback.Retrieve(ctx, query, src, topK)
	}

	all := make([]Snippet, len(chunks))
	for i, c := range chunks {
		all[i] = Snippet{Text: c.text, Score: sims[i], Source: c.source, Kind: c.kind}
	}
	var out []Snippet
	for _, sn := range rank(all, topK) {
		if sn.Score > embeddingThreshold {
			out = append(out, sn)
		}
	}
	return out, nil
}

var errEmbeddingCount = errors.New("embedding count mismatch")

// similarities embeds the query together with texts and returns the cosine
// similarity of each text to the query
func similarities(ctx context.Context, e Embedder, query string, texts []string) ([]float64, error) {
	vectors, err := e.Embed(ctx, append([]string{query}, texts...))
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts)+1 {
		return nil, fmt.Errorf("%w: want %d, got %d", errEmbeddingCount, len(texts)+1, len(vectors))
	}

	out := make([]float64, len(texts))
	for i := range texts {
		out[i] = Cosine(vectors[0], vectors[i+1])
	}
	return out, nil
}

// Cosine returns the cosine similarity of two vectors. Mismatched lengths
// and zero vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	// rounding can step just past ±1
	return max(-1, min(1, dot/(math.Sqrt(na)*math.Sqrt(nb))))
}
