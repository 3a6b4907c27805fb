// Package qa answers questions against processed documents, aggregates
// across documents and writes summaries and comparisons.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/a3tai/mcp-form-agent/internal/document"
	"github.com/a3tai/mcp-form-agent/internal/extraction"
	"github.com/a3tai/mcp-form-agent/internal/retrieval"
)

const (
	maxAnswerContext = 500
	maxMultiContext  = 1000
)

// Answer is the result of one question
type Answer struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Confidence   float64  `json:"confidence"`
	SourceFields []string `json:"source_fields"`
	Context      string   `json:"context"`
}

// Engine answers questions using a retriever for context
type Engine struct {
	retriever   *retrieval.Retriever
	synthesizer Synthesizer
	logger      *slog.Logger
}

// NewEngine creates a question answering engine. A nil retriever uses term
// overlap only.
func NewEngine(r *retrieval.Retriever, logger *slog.Logger) *Engine {
	if r == nil {
		r = retrieval.New(retrieval.WithLogger(logger))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{retriever: r, logger: logger}
}

// Retriever returns the engine's retriever
func (e *Engine) Retriever() *retrieval.Retriever {
	return e.retriever
}

// Answer answers a question about one document
func (e *Engine) Answer(ctx context.Context, question string, doc *document.Document) (Answer, error) {
	gathered, err := e.retriever.Gather(ctx, question, doc.Source())
	if err != nil {
		return Answer{}, err
	}

	text, confidence := e.synthesizer.Synthesize(question, gathered.Text, doc.Fields)
	e.logger.Debug("qa.answer",
		"document", doc.ID,
		"intent", DetectIntent(question),
		"source_fields", len(gathered.SourceFields),
		"confidence", confidence,
	)
	return Answer{
		Question:     question,
		Answer:       text,
		Confidence:   confidence,
		SourceFields: nonNil(gathered.SourceFields),
		Context:      retrieval.Truncate(gathered.Text, maxAnswerContext),
	}, nil
}

// AnswerMultiple answers a question across documents. Each document's
// context is labelled with its path; source fields are deduplicated.
func (e *Engine) AnswerMultiple(ctx context.Context, question string, docs []*document.Document) (Answer, error) {
	var (
		blocks       []string
		sourceFields []string
		seen         = map[string]bool{}
	)
	for _, doc := range docs {
		gathered, err := e.retriever.Gather(ctx, question, doc.Source())
		if err != nil {
			return Answer{}, err
		}
		if gathered.Text == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[%s]: %s", doc.Path, gathered.Text))
		for _, f := range gathered.SourceFields {
			if !seen[f] {
				seen[f] = true
				sourceFields = append(sourceFields, f)
			}
		}
	}

	combined := strings.Join(blocks, "\n\n")
	text, confidence := e.synthesizer.Synthesize(question, combined, nil)
	e.logger.Debug("qa.answer_multiple",
		"documents", len(docs),
		"with_context", len(blocks),
		"confidence", confidence,
	)
	return Answer{
		Question:     question,
		Answer:       text,
		Confidence:   confidence,
		SourceFields: nonNil(sourceFields),
		Context:      retrieval.Truncate(combined, maxMultiContext),
	}, nil
}

// FieldStats summarizes the numeric values of one field across documents
type FieldStats struct {
	Count   int     `json:"count"`
	Sum     float64 `json:"sum"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Analysis is the result of a cross-document analysis
type Analysis struct {
	TotalDocuments int                   `json:"total_documents"`
	CommonFields   []string              `json:"common_fields"`
	SchemaTypes    []string              `json:"schema_types"`
	FieldSummary   map[string]FieldStats `json:"field_summary"`
	Insights       []string              `json:"insights"`
	Answer         string                `json:"answer"`
}

// Analyze compares fields across documents and answers the question over
// all of them. A single document yields its own fields as common fields and
// no field summary; no documents yield an empty analysis.
func (e *Engine) Analyze(ctx context.Context, question string, docs []*document.Document) (*Analysis, error) {
	order, byField := collectFields(docs)

	a := &Analysis{
		TotalDocuments: len(docs),
		CommonFields:   []string{},
		SchemaTypes:    make([]string, len(docs)),
		FieldSummary:   map[string]FieldStats{},
	}
	for i, doc := range docs {
		a.SchemaTypes[i] = doc.SchemaType
	}

	var numericOrder []string
	for _, name := range order {
		values := byField[name]
		if len(values) == len(docs) {
			a.CommonFields = append(a.CommonFields, name)
		}
		if stats, ok := numericStats(values); ok && stats.Count >= 2 {
			a.FieldSummary[name] = stats
			numericOrder = append(numericOrder, name)
		}
	}
	a.Insights = insights(a, numericOrder)
	if len(docs) == 0 {
		return a, nil
	}

	answer, err := e.AnswerMultiple(ctx, question, docs)
	if err != nil {
		return nil, err
	}
	a.Answer = answer.Answer
	return a, nil
}

// collectFields gathers each field's values across documents, returning
// field names in order of first appearance
func collectFields(docs []*document.Document) ([]string, map[string][]extraction.TypedValue) {
	var order []string
	byField := map[string][]extraction.TypedValue{}
	for _, doc := range docs {
		for name, value := range doc.Fields.All() {
			if _, ok := byField[name]; !ok {
				order = append(order, name)
			}
			byField[name] = append(byField[name], value)
		}
	}
	return order, byField
}

// numericStats summarizes number and currency values
func numericStats(values []extraction.TypedValue) (FieldStats, bool) {
	var s FieldStats
	for _, v := range values {
		n, ok := v.Float()
		if !ok {
			continue
		}
		if s.Count == 0 {
			s.Min, s.Max = n, n
		}
		s.Count++
		s.Sum += n
		s.Min = min(s.Min, n)
		s.Max = max(s.Max, n)
	}
	if s.Count == 0 {
		return FieldStats{}, false
	}
	s.Average = s.Sum / float64(s.Count)
	return s, true
}

func insights(a *Analysis, numericOrder []string) []string {
	out := []string{}

	var schemas []string
	seen := map[string]bool{}
	for _, s := range a.SchemaTypes {
		if s != "" && !seen[s] {
			seen[s] = true
			schemas = append(schemas, s)
		}
	}
	switch {
	case len(schemas) > 1:
		out = append(out, fmt.Sprintf("Forms include %d different types: %s", len(schemas), strings.Join(schemas, ", ")))
	case len(schemas) == 1:
		out = append(out, "All forms are of type: "+schemas[0])
	}

	if len(a.CommonFields) > 0 {
		out = append(out, "All forms share these fields: "+strings.Join(a.CommonFields[:min(5, len(a.CommonFields))], ", "))
	}

	for _, name := range numericOrder {
		stats := a.FieldSummary[name]
		lower := strings.ToLower(name)
		if stats.Count > 1 && containsAny(lower, []string{"salary", "income", "amount"}) {
			out = append(out, fmt.Sprintf("Average %s: %s (range: %s - %s)",
				name, Money(stats.Average), Money(stats.Min), Money(stats.Max)))
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
