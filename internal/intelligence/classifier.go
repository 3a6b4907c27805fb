package intelligence

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/a3tai/mcp-form-agent/internal/extraction"
)

const (
	// MinConfidence is the floor for Classify
	MinConfidence = 0.5

	// confidenceBoost scales the raw indicator ratio
	confidenceBoost = 1.2
)

// Classifier performs indicator-based form classification against a catalog
type Classifier struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewClassifier creates a classifier over the built-in catalog
func NewClassifier() *Classifier {
	return NewClassifierWithCatalog(MustDefaultCatalog(), nil)
}

// NewClassifierWithCatalog creates a classifier over a custom catalog
func NewClassifierWithCatalog(catalog *Catalog, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		catalog: catalog,
		logger:  logger,
	}
}

// Catalog returns the catalog the classifier evaluates
func (c *Classifier) Catalog() *Catalog {
	return c.catalog
}

// Classify returns the best candidate with confidence of at least
// MinConfidence, or nil when nothing qualifies.
func (c *Classifier) Classify(ctx context.Context, text string, fields *extraction.FieldMap) (*SchemaMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	best := c.Best(text, fields)
	if best == nil || best.Confidence < MinConfidence {
		c.logger.Debug("intelligence.classify", "schema_type", "none")
		return nil, nil
	}
	c.logger.Debug("intelligence.classify",
		"schema_type", best.SchemaType,
		"confidence", best.Confidence,
		"matched", len(best.MatchedIndicators))
	return best, nil
}

// Best returns the highest-scoring candidate that meets its required
// indicator count, without a confidence floor. Ties keep catalog order.
func (c *Classifier) Best(text string, fields *extraction.FieldMap) *SchemaMatch {
	var best *SchemaMatch
	for _, m := range c.evaluate(text, fields) {
		def, _ := c.catalog.Lookup(m.SchemaType)
		if len(m.MatchedIndicators) < def.RequiredIndicators {
			continue
		}
		if best == nil || m.score > best.score {
			best = &m
		}
	}
	return best
}

// ClassifyAll returns every schema with at least one matched indicator,
// sorted by confidence descending. Equal confidences keep catalog order.
func (c *Classifier) ClassifyAll(text string, fields *extraction.FieldMap) []SchemaMatch {
	matches := c.evaluate(text, fields)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// evaluate scores every schema in catalog order and returns those with at
// least one matched indicator. Every call builds fresh results.
func (c *Classifier) evaluate(text string, fields *extraction.FieldMap) []SchemaMatch {
	if text == "" {
		return nil
	}

	haystack := Haystack(text, fields)
	var matches []SchemaMatch
	for _, def := range c.catalog.Schemas {
		var matched []string
		for _, indicator := range def.Indicators {
			if strings.Contains(haystack, indicator) {
				matched = append(matched, indicator)
			}
		}
		if len(matched) == 0 {
			continue
		}
		score := float64(len(matched)) / float64(len(def.Indicators))
		matches = append(matches, SchemaMatch{
			SchemaType:        def.Type,
			Category:          def.Category,
			Confidence:        min(1.0, score*confidenceBoost),
			MatchedIndicators: matched,
			score:             score,
		})
	}
	return matches
}

// Haystack is the lower-cased search text: the document text followed by a
// "name value" rendering of every extracted field
func Haystack(text string, fields *extraction.FieldMap) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(text))
	if fields.Len() > 0 {
		parts := make([]string, 0, fields.Len())
		for name, value := range fields.All() {
			parts = append(parts, name+" "+value.String())
		}
		b.WriteString(" ")
		b.WriteString(strings.ToLower(strings.Join(parts, " ")))
	}
	return b.String()
}

// ExpectedFields returns the expected field names for a schema type
func (c *Classifier) ExpectedFields(schemaType string) []string {
	def, _ := c.catalog.Lookup(schemaType)
	return def.ExpectedFields
}

// Definition returns the catalog entry for a schema type
func (c *Classifier) Definition(schemaType string) (SchemaDefinition, bool) {
	return c.catalog.Lookup(schemaType)
}

// Category returns the category of a schema type, or "" when unknown
func (c *Classifier) Category(schemaType string) Category {
	def, _ := c.catalog.Lookup(schemaType)
	return def.Category
}

// ValidateFields reports how many of the schema's expected fields were
// extracted. A field counts when either name contains the other, ignoring
// case. Unknown schemas and schemas without expected fields are complete.
func (c *Classifier) ValidateFields(schemaType string, fields *extraction.FieldMap) (float64, []string) {
	expected := c.ExpectedFields(schemaType)
	if len(expected) == 0 {
		return 1.0, nil
	}

	names := make([]string, 0, fields.Len())
	for _, k := range fields.Keys() {
		names = append(names, strings.ToLower(k))
	}

	found := 0
	var missing []string
	for _, want := range expected {
		wantLower := strings.ToLower(want)
		matched := slices.ContainsFunc(names, func(name string) bool {
			return strings.Contains(name, wantLower) || strings.Contains(wantLower, name)
		})
		if matched {
			found++
		} else {
			missing = append(missing, want)
		}
	}
	return float64(found) / float64(len(expected)), missing
}
