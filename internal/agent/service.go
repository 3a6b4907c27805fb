// Package agent is the form agent service: it loads documents through the
// source registry, processes and stores them, and answers the questions,
// summaries and exports the MCP tools and the CLI expose.
package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-form-agent/internal/document"
	"github.com/a3tai/mcp-form-agent/internal/export"
	"github.com/a3tai/mcp-form-agent/internal/extraction"
	"github.com/a3tai/mcp-form-agent/internal/intelligence"
	"github.com/a3tai/mcp-form-agent/internal/qa"
	"github.com/a3tai/mcp-form-agent/internal/retrieval"
	"github.com/a3tai/mcp-form-agent/internal/source"
	"github.com/a3tai/mcp-form-agent/internal/store"
	"github.com/a3tai/mcp-form-agent/internal/tables"
)

// DefaultWorkers bounds concurrent loads when no limit is configured
const DefaultWorkers = 4

// Options configures a Service
type Options struct {
	Dir         string
	MaxFileSize int64
	Workers     int
	TopK        int

	Catalog  *intelligence.Catalog // nil uses the embedded catalog
	Store    store.Store           // nil uses an in-memory store
	Embedder retrieval.Embedder    // nil ranks by term overlap
	Logger   *slog.Logger
}

// Service orchestrates loading, processing, storage and querying of forms
type Service struct {
	registry   *source.Registry
	classifier *intelligence.Classifier
	processor  *document.Processor
	retriever  *retrieval.Retriever
	engine     *qa.Engine
	summarizer *qa.Summarizer
	store      store.Store
	workers    int
	scanner    scanner
	dirCache   *dirCache
	logger     *slog.Logger
}

// NewService creates a service rooted at opts.Dir
func NewService(opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	guard, err := source.NewGuard(opts.Dir, opts.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create path guard: %w", err)
	}

	catalog := opts.Catalog
	if catalog == nil {
		catalog, err = intelligence.DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("failed to load schema catalog: %w", err)
		}
	}
	classifier := intelligence.NewClassifierWithCatalog(catalog, logger)

	st := opts.Store
	if st == nil {
		st = store.NewMemory(store.DefaultCapacity)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	retrieverOpts := []retrieval.Option{retrieval.WithTopK(opts.TopK), retrieval.WithLogger(logger)}
	if opts.Embedder != nil {
		retrieverOpts = append(retrieverOpts, retrieval.WithEmbedder(opts.Embedder))
	}
	retriever := retrieval.New(retrieverOpts...)

	return &Service{
		registry:   source.NewRegistry(guard, logger),
		classifier: classifier,
		processor:  document.NewProcessor(classifier, logger),
		retriever:  retriever,
		engine:     qa.NewEngine(retriever, logger),
		summarizer: qa.NewSummarizer(classifier),
		store:      st,
		workers:    workers,
		scanner: scanner{
			maxDepth:    5,
			fileLimit:   100,
			timeLimit:   3 * time.Second,
			maxFileSize: opts.MaxFileSize,
		},
		dirCache: newDirCache(5 * time.Minute),
		logger:   logger,
	}, nil
}

// Registry exposes the source registry so callers can add loaders
func (s *Service) Registry() *source.Registry {
	return s.registry
}

// Dir returns the configured directory
func (s *Service) Dir() string {
	return s.registry.Guard().Dir()
}

// MaxFileSize returns the file size limit
func (s *Service) MaxFileSize() int64 {
	return s.registry.Guard().MaxFileSize()
}

// Close releases the store
func (s *Service) Close() error {
	return s.store.Close()
}

// LoadForm loads, processes and stores the file at path. A file that was
// loaded before is processed again and replaces the stored document.
func (s *Service) LoadForm(ctx context.Context, path string) (*document.Document, error) {
	start := time.Now()

	content, err := s.registry.Load(ctx, path)
	if err != nil {
		return nil, wrapError(path, err)
	}
	doc, err := s.processor.Process(ctx, content)
	if err != nil {
		return nil, wrapError(path, err)
	}
	if err := s.store.Put(ctx, doc); err != nil {
		return nil, storageError(err)
	}

	s.logger.Info("agent.load",
		"id", doc.ID,
		"path", doc.Path,
		"file_type", doc.FileType,
		"schema_type", doc.SchemaType,
		"fields", doc.Fields.Len(),
		"tables", len(doc.Tables),
		"confidence", doc.ExtractionConfidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// LoadForms loads several files concurrently. Results keep the input order;
// the first failure cancels the remaining loads.
func (s *Service) LoadForms(ctx context.Context, paths []string) ([]*document.Document, error) {
	if len(paths) == 0 {
		return nil, invalidInput("at least one path is required")
	}
	return s.parallel(ctx, paths, s.LoadForm)
}

func (s *Service) parallel(ctx context.Context, refs []string,
	fn func(context.Context, string) (*document.Document, error),
) ([]*document.Document, error) {
	docs := make([]*document.Document, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, ref := range refs {
		g.Go(func() error {
			doc, err := fn(gctx, ref)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Get returns a document by ID or by path. Paths that are not stored yet,
// or whose file changed since processing, are loaded.
func (s *Service) Get(ctx context.Context, ref string) (*document.Document, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, invalidInput("document id or path is required")
	}

	doc, err := s.store.Get(ctx, ref)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storageError(err)
	}

	resolved, err := s.registry.Resolve(ref)
	if err != nil {
		return nil, wrapError(ref, err)
	}
	doc, err = s.store.GetByPath(ctx, resolved)
	switch {
	case err == nil:
		if info, statErr := os.Stat(resolved); statErr == nil && info.ModTime().After(doc.ProcessedAt) {
			s.logger.Debug("agent.reload", "path", resolved)
			return s.LoadForm(ctx, resolved)
		}
		return doc, nil
	case errors.Is(err, store.ErrNotFound):
		return s.LoadForm(ctx, resolved)
	default:
		return nil, storageError(err)
	}
}

// GetMany resolves several references concurrently, keeping their order
func (s *Service) GetMany(ctx context.Context, refs []string) ([]*document.Document, error) {
	if len(refs) == 0 {
		return nil, invalidInput("at least one document is required")
	}
	return s.parallel(ctx, refs, s.Get)
}

// List summarizes every stored document
func (s *Service) List(ctx context.Context) ([]document.Summary, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	out := make([]document.Summary, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Summarize())
	}
	return out, nil
}

// Forget removes a document from the store
func (s *Service) Forget(ctx context.Context, ref string) error {
	doc, err := s.lookup(ctx, ref)
	if err != nil {
		return err
	}
	return storageError(s.store.Delete(ctx, doc.ID))
}

// lookup finds a stored document without loading files
func (s *Service) lookup(ctx context.Context, ref string) (*document.Document, error) {
	doc, err := s.store.Get(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		if resolved, resolveErr := s.registry.Resolve(ref); resolveErr == nil {
			doc, err = s.store.GetByPath(ctx, resolved)
		}
	}
	if err != nil {
		return nil, storageError(err)
	}
	return doc, nil
}

// Fields returns the extracted fields of a document. withMatches adds every
// labelled match of the raw text with its confidence.
func (s *Service) Fields(ctx context.Context, ref string, withMatches bool) (*FieldsResult, error) {
	doc, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	result := &FieldsResult{
		DocumentID: doc.ID,
		Path:       doc.Path,
		SchemaType: doc.SchemaType,
		Count:      doc.Fields.Len(),
		Fields:     doc.Fields,
	}
	if withMatches {
		result.Matches = s.processor.Extractor().ParseWithConfidence(doc.RawText)
		if result.Matches == nil {
			result.Matches = []extraction.FieldMatch{}
		}
	}
	return result, nil
}

// Tables returns the normalized tables of a document and their total rows
func (s *Service) Tables(ctx context.Context, ref string) (*TablesResult, error) {
	doc, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	normalized := doc.NormalizedTables()
	totals := []TableTotal{}
	for i, t := range normalized {
		for _, row := range t.FindTotals() {
			totals = append(totals, TableTotal{Table: i, TotalRow: row})
		}
	}
	return &TablesResult{
		DocumentID: doc.ID,
		Path:       doc.Path,
		Count:      len(normalized),
		Tables:     normalized,
		Totals:     totals,
	}, nil
}

// AggregateTables applies op (sum, avg, min, max or count) to the named
// column of every table in the document that has it
func (s *Service) AggregateTables(ctx context.Context, ref, column, op string) (*AggregateResult, error) {
	column = strings.TrimSpace(column)
	if column == "" {
		return nil, invalidInput("column is required")
	}
	parsed, err := tables.ParseOp(op)
	if err != nil {
		return nil, invalidInput("%v", err)
	}
	doc, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	result := &AggregateResult{
		DocumentID: doc.ID,
		Column:     column,
		Operation:  string(parsed),
		Values:     []ColumnAggregate{},
	}
	for i, t := range doc.NormalizedTables() {
		if v, ok := t.Aggregate(column, parsed); ok {
			result.Values = append(result.Values, ColumnAggregate{Table: i, Value: v})
		}
	}
	s.logger.Debug("agent.aggregate", "id", doc.ID, "column", column, "op", parsed, "tables", len(result.Values))
	return result, nil
}

// Classify returns the document's schema match and every candidate
func (s *Service) Classify(ctx context.Context, ref string) (*ClassifyResult, error) {
	doc, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	candidates := s.classifier.ClassifyAll(doc.RawText, doc.Fields)
	if candidates == nil {
		candidates = []intelligence.SchemaMatch{}
	}
	return &ClassifyResult{
		DocumentID:  doc.ID,
		Path:        doc.Path,
		SchemaType:  doc.SchemaType,
		DisplayName: doc.Title(),
		Best:        doc.Schema,
		Candidates:  candidates,
	}, nil
}

// ValidateFields checks the document's fields against a schema's expected
// fields. An empty schemaType uses the detected schema.
func (s *Service) ValidateFields(ctx context.Context, ref, schemaType string) (*ValidationResult, error) {
	doc, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	schemaType = strings.TrimSpace(schemaType)
	if schemaType == "" {
		schemaType = doc.SchemaType
	}
	if schemaType == "" {
		return nil, invalidInput("document is unclassified; schema_type is required")
	}
	if _, ok := s.classifier.Definition(schemaType); !ok {
		return nil, invalidInput("unknown schema type %q", schemaType)
	}

	completeness, missing := s.classifier.ValidateFields(schemaType, doc.Fields)
	if missing == nil {
		missing = []string{}
	}
	return &ValidationResult{
		DocumentID:   doc.ID,
		SchemaType:   schemaType,
		Completeness: completeness,
		Expected:     s.classifier.ExpectedFields(schemaType),
		Missing:      missing,
	}, nil
}

// Ask answers a question about one document
func (s *Service) Ask(ctx context.Context, ref, question string) (*qa.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, invalidInput("question is required")
	}
	doc, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	answer, err := s.engine.Answer(ctx, question, doc)
	if err != nil {
		return nil, wrapError(doc.Path, err)
	}
	return &answer, nil
}

// AskMultiple answers one question across documents
func (s *Service) AskMultiple(ctx context.Context, refs []string, question string) (*qa.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, invalidInput("question is required")
	}
	docs, err := s.GetMany(ctx, refs)
	if err != nil {
		return nil, err
	}
	answer, err := s.engine.AnswerMultiple(ctx, question, docs)
	if err != nil {
		return nil, wrapError("", err)
	}
	return &answer, nil
}

// Analyze aggregates documents. No references give an empty analysis.
func (s *Service) Analyze(ctx context.Context, refs []string, question string) (*qa.Analysis, error) {
	var docs []*document.Document
	if len(refs) > 0 {
		var err error
		if docs, err = s.GetMany(ctx, refs); err != nil {
			return nil, err
		}
	}
	analysis, err := s.engine.Analyze(ctx, strings.TrimSpace(question), docs)
	if err != nil {
		return nil, wrapError("", err)
	}
	return analysis, nil
}

// Summarize summarizes one document in the given style
func (s *Service) Summarize(ctx context.Context, ref, style string) (*qa.Summary, error) {
	parsed, err := qa.ParseStyle(style)
	if err != nil {
		return nil, invalidInput("%v", err)
	}
	doc, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	summary := s.summarizer.Summarize(doc, parsed)
	return &summary, nil
}

// SummarizeMultiple summarizes several documents together
func (s *Service) SummarizeMultiple(ctx context.Context, refs []string) (string, error) {
	docs, err := s.GetMany(ctx, refs)
	if err != nil {
		return "", err
	}
	return s.summarizer.SummarizeMultiple(docs), nil
}

// Compare compares two documents field by field
func (s *Service) Compare(ctx context.Context, first, second string) (*qa.Comparison, error) {
	docs, err := s.GetMany(ctx, []string{first, second})
	if err != nil {
		return nil, err
	}
	comparison := qa.Compare(docs[0], docs[1])
	return &comparison, nil
}

// Retrieve ranks the parts of one or more documents for a query. A
// non-positive topK uses the retriever default.
func (s *Service) Retrieve(ctx context.Context, refs []string, query string, topK int) ([]retrieval.Snippet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalidInput("query is required")
	}
	docs, err := s.GetMany(ctx, refs)
	if err != nil {
		return nil, err
	}

	var snippets []retrieval.Snippet
	if len(docs) == 1 {
		snippets, err = s.retriever.Retrieve(ctx, query, docs[0].Source(), topK)
	} else {
		srcs := make([]retrieval.Source, len(docs))
		for i, doc := range docs {
			srcs[i] = doc.Source()
		}
		snippets, err = s.retriever.RetrieveMulti(ctx, query, srcs, topK)
	}
	if err != nil {
		return nil, wrapError("", err)
	}
	if snippets == nil {
		snippets = []retrieval.Snippet{}
	}
	return snippets, nil
}

// Export renders a document. With an output path the result is written to
// a file inside the configured directory; otherwise the content is returned.
func (s *Service) Export(ctx context.Context, ref, format, outputPath string) (*ExportResult, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, wrapError("", err)
	}
	doc, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	data, err := export.Render(doc, f)
	if err != nil {
		return nil, wrapError(doc.Path, err)
	}
	result := &ExportResult{DocumentID: doc.ID, Format: string(f), Bytes: len(data)}

	if strings.TrimSpace(outputPath) != "" {
		resolved, err := s.registry.Resolve(outputPath)
		if err != nil {
			return nil, wrapError(outputPath, err)
		}
		if err := export.WriteFile(resolved, doc, f); err != nil {
			return nil, wrapError(resolved, err)
		}
		result.OutputPath = resolved
		s.logger.Info("agent.export", "id", doc.ID, "format", f, "output_path", resolved)
		return result, nil
	}

	if f.Binary() {
		result.Encoding = "base64"
		result.Content = base64.StdEncoding.EncodeToString(data)
	} else {
		result.Encoding = "text"
		result.Content = string(data)
	}
	return result, nil
}

// Search finds loadable files under directory, or the configured directory
// when empty, optionally filtered by a fuzzy file-name query
func (s *Service) Search(ctx context.Context, directory, query string) (*SearchResult, error) {
	if strings.TrimSpace(directory) == "" {
		directory = s.Dir()
	}
	resolved, err := s.registry.Resolve(directory)
	if err != nil {
		return nil, wrapError(directory, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, wrapError(directory, fmt.Errorf("%w: %s", source.ErrNotFound, resolved))
	}
	if !info.IsDir() {
		return nil, &Error{Type: ErrorInvalidInput, Message: "not a directory", Path: resolved}
	}

	files, truncated, err := s.scanner.scan(ctx, resolved, query)
	if err != nil {
		return nil, wrapError(resolved, err)
	}
	return &SearchResult{
		Files:       files,
		TotalCount:  len(files),
		Directory:   resolved,
		SearchQuery: query,
		Truncated:   truncated,
	}, nil
}
