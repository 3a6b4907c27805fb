package retrieval

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	relevanceThreshold = 0.3
	semanticThreshold  = 0.3
	minContextParts    = 3

	maxSnippets       = 3
	minSnippetLength  = 10
	maxSnippetLength  = 500
	minSnippetOverlap = 2
)

// Context is the material an answer is synthesized from
type Context struct {
	Text         string   `json:"text"`
	SourceFields []string `json:"source_fields"`
}

// Relevance scores a field against a question:
// max(name overlap, 0.5 * value overlap) over question terms minus stopwords
func Relevance(question, name, value string) float64 {
	q := questionTerms(question)
	denom := float64(max(1, len(q)))
	nameOverlap := float64(q.overlap(terms(name, 1))) / denom
	valueOverlap := float64(q.overlap(terms(value, 1))) / denom
	return max(nameOverlap, 0.5*valueOverlap)
}

// Gather builds the context used to answer a question about one document:
// relevant field lines, semantic matches when fewer than three fields
// qualified and an embedder is configured, then up to three raw-text
// sentences sharing at least two terms with the question. The first topK
// parts are joined by newlines.
func (r *Retriever) Gather(ctx context.Context, question string, src Source) (Context, error) {
	if err := ctx.Err(); err != nil {
		return Context{}, err
	}

	var parts, sourceFields []string
	for name, value := range src.Fields.All() {
		rendered := value.String()
		if Relevance(question, name, rendered) > relevanceThreshold {
			sourceFields = append(sourceFields, name)
			parts = append(parts, name+": "+rendered)
		}
	}

	if r.embedder != nil && len(parts) < minContextParts {
		extra, err := r.semanticParts(ctx, question, src)
		if err != nil {
			return Context{}, err
		}
		parts = append(parts, extra...)
	}

	parts = append(parts, relevantSentences(question, src.Text)...)
	if len(parts) > r.topK {
		parts = parts[:r.topK]
	}

	return Context{
		Text:         strings.Join(parts, "\n"),
		SourceFields: sourceFields,
	}, nil
}

// semanticParts returns field lines and paragraphs most similar to the
// question. Provider errors yield no parts.
func (r *Retriever) semanticParts(ctx context.Context, question string, src Source) ([]string, error) {
	var chunks []string
	for name, value := range src.Fields.All() {
		chunks = append(chunks, name+": "+value.String())
	}
	chunks = append(chunks, paragraphs(src.Text)...)
	if len(chunks) == 0 {
		return nil, nil
	}

	sims, err := similarities(ctx, r.embedder, question, chunks)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logger.Debug("retrieval.semantic.skipped", "error", err)
		return nil, nil
	}

	idx := make([]int, len(chunks))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return sims[idx[a]] > sims[idx[b]]
	})
	if len(idx) > r.topK {
		idx = idx[:r.topK]
	}

	var out []string
	for _, i := range idx {
		if sims[i] > semanticThreshold {
			out = append(out, chunks[i])
		}
	}
	return out, nil
}

// relevantSentences returns up to three sentences of 10 to 500 runes that
// share at least two terms with the question
func relevantSentences(question, text string) []string {
	if text == "" {
		return nil
	}
	q := terms(question, minTermLength)

	var out []string
	for _, sentence := range snippetSentences(text) {
		sentence = strings.TrimSpace(sentence)
		n := utf8.RuneCountInString(sentence)
		if n < minSnippetLength || n > maxSnippetLength {
			continue
		}
		if q.overlap(terms(sentence, minTermLength)) >= minSnippetOverlap {
			out = append(out, sentence)
			if len(out) == maxSnippets {
				break
			}
		}
	}
	return out
}
