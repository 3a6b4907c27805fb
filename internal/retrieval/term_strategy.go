package retrieval

import (
	"context"
	"fmt"
	"strings"
)

const (
	tableThreshold = 0.1
	textThreshold  = 0.2
	textWeight     = 0.8
	maxTableText   = 500
)

// TermStrategy ranks parts by overlap between query terms and part terms
type TermStrategy struct{}

// Name implements Strategy
func (TermStrategy) Name() string { return "term" }

// Retrieve implements Strategy
func (s TermStrategy) Retrieve(ctx context.Context, query string, src Source, topK int) ([]Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := terms(query, minTermLength)
	var out []Snippet
	out = append(out, s.fromFields(q, src)...)
	out = append(out, s.fromTables(q, src.Tables)...)
	out = append(out, s.fromText(q, src.Text)...)
	return rank(out, topK), nil
}

// FieldScore is (2*name overlap + value overlap) / |query terms|, capped at 1
func FieldScore(query map[string]struct{}, name, value string) float64 {
	q := termSet(query)
	nameOverlap := q.overlap(terms(name, minTermLength))
	valueOverlap := q.overlap(terms(value, minTermLength))
	score := float64(2*nameOverlap+valueOverlap) / float64(max(1, len(q)))
	return min(1.0, score)
}

func (TermStrategy) fromFields(q termSet, src Source) []Snippet {
	var out []Snippet
	for name, value := range src.Fields.All() {
		rendered := value.String()
		score := FieldScore(q, name, rendered)
		if score > 0 {
			out = append(out, Snippet{
				Text:   name + ": " + rendered,
				Score:  score,
				Source: name,
				Kind:   KindField,
			})
		}
	}
	return out
}

func (TermStrategy) fromTables(q termSet, tables [][][]string) []Snippet {
	var out []Snippet
	for i, table := range tables {
		if len(table) == 0 {
			continue
		}
		text := TableText(table)
		score := float64(q.overlap(terms(text, minTermLength))) / float64(max(1, len(q)))
		if score > tableThreshold {
			out = append(out, Snippet{
				Text:   Truncate(text, maxTableText),
				Score:  min(1.0, score),
				Source: fmt.Sprintf("Table %d", i+1),
				Kind:   KindTable,
			})
		}
	}
	return out
}

func (TermStrategy) fromText(q termSet, text string) []Snippet {
	if text == "" {
		return nil
	}
	var out []Snippet
	for _, chunk := range Chunk(text, DefaultChunkSize) {
		score := float64(q.overlap(terms(chunk, minTermLength))) / float64(max(1, len(q)))
		if score > textThreshold {
			out = append(out, Snippet{
				Text:   chunk,
				Score:  min(1.0, score*textWeight),
				Source: "document text",
				Kind:   KindText,
			})
		}
	}
	return out
}

// TableText renders a raw table as pipe-separated lines
func TableText(table [][]string) string {
	var b strings.Builder
	for _, row := range table {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	return b.String()
}
