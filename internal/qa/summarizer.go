package qa

import (
	"fmt"
	"sort"
	"strings"

	"github.com/a3tai/mcp-form-agent/internal/document"
	"github.com/a3tai/mcp-form-agent/internal/extraction"
	"github.com/a3tai/mcp-form-agent/internal/intelligence"
)

// Style selects the summary layout
type Style string

const (
	StyleBullets   Style = "bullets"
	StyleNarrative Style = "narrative"
)

// ParseStyle accepts the style names used by the tools and CLI. Empty means
// bullets.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bullets", "bullet_points", "bullet":
		return StyleBullets, nil
	case "narrative":
		return StyleNarrative, nil
	}
	return "", fmt.Errorf("unknown summary style %q (want bullets or narrative)", s)
}

const (
	maxKeyInformation = 10
	maxNotableItems   = 5
	maxDetails        = 5
	lowConfidence     = 0.5
)

var (
	identityKeywords = []string{"name", "applicant", "employee", "patient", "customer"}
	idKeywords       = []string{"id", "number", "ssn", "ein", "policy", "account"}
	amountKeywords   = []string{"total", "amount", "wage", "salary", "income", "payment"}
	importantNames   = []string{"total", "amount", "id", "number"}
)

// Summary describes one document
type Summary struct {
	FormType       string               `json:"form_type"`
	Title          string               `json:"title"`
	KeyInformation *extraction.FieldMap `json:"key_information"`
	Highlights     []string             `json:"highlights"`
	NotableItems   []string             `json:"notable_items"`
	FullText       string               `json:"full_text"`
}

// Summarizer writes document summaries. Priority fields come from the
// classifier's catalog.
type Summarizer struct {
	classifier *intelligence.Classifier
}

// NewSummarizer creates a summarizer. A nil classifier uses the default
// catalog.
func NewSummarizer(classifier *intelligence.Classifier) *Summarizer {
	if classifier == nil {
		classifier = intelligence.NewClassifier()
	}
	return &Summarizer{classifier: classifier}
}

// Summarize summarizes one document
func (s *Summarizer) Summarize(doc *document.Document, style Style) Summary {
	formType := doc.SchemaType
	if formType == "" {
		formType = "unknown"
	}

	key := s.keyInformation(doc)
	highlights := Highlights(key)
	notable := NotableItems(doc)
	title := intelligence.DisplayName(formType)

	var full string
	if style == StyleNarrative {
		full = narrativeSummary(title, highlights, notable)
	} else {
		full = bulletSummary(title, key, highlights, notable)
	}

	return Summary{
		FormType:       formType,
		Title:          title,
		KeyInformation: key,
		Highlights:     highlights,
		NotableItems:   notable,
		FullText:       full,
	}
}

func (s *Summarizer) priorityFields(schemaType string) []string {
	if def, ok := s.classifier.Definition(schemaType); ok && len(def.PriorityFields) > 0 {
		return def.PriorityFields
	}
	return s.classifier.Catalog().DefaultPriorityFields
}

// keyInformation picks priority fields first, then money, dates and fields
// whose names suggest identifiers or totals. More than ten are trimmed by
// the number of priority fragments each name contains.
func (s *Summarizer) keyInformation(doc *document.Document) *extraction.FieldMap {
	priority := s.priorityFields(doc.SchemaType)

	key := extraction.NewFieldMap()
	for name, value := range doc.Fields.All() {
		if containsAny(strings.ToLower(name), priority) {
			key.Set(name, value)
		}
	}
	for name, value := range doc.Fields.All() {
		if key.Has(name) {
			continue
		}
		if value.Kind == extraction.KindCurrency || value.Kind == extraction.KindDate ||
			containsAny(strings.ToLower(name), importantNames) {
			key.Set(name, value)
		}
	}
	if key.Len() <= maxKeyInformation {
		return key
	}

	type scored struct {
		name  string
		score int
	}
	var ranked []scored
	for _, name := range key.Keys() {
		lower := strings.ToLower(name)
		n := 0
		for _, p := range priority {
			if strings.Contains(lower, p) {
				n++
			}
		}
		ranked = append(ranked, scored{name, n})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	trimmed := extraction.NewFieldMap()
	for _, r := range ranked[:maxKeyInformation] {
		v, _ := key.Get(r.name)
		trimmed.Set(r.name, v)
	}
	return trimmed
}

// Highlights picks at most one identity, identifier, date and amount line
// from the key information. SSN-like fields only show the last four digits
// and amounts are rendered as money.
func Highlights(key *extraction.FieldMap) []string {
	var out []string

	first := func(keywords []string, render func(name string, v extraction.TypedValue) string) {
		for name, value := range key.All() {
			if containsAny(strings.ToLower(name), keywords) {
				out = append(out, render(name, value))
				return
			}
		}
	}

	first(identityKeywords, func(name string, v extraction.TypedValue) string {
		return name + ": " + v.String()
	})
	first(idKeywords, func(name string, v extraction.TypedValue) string {
		rendered := v.String()
		if strings.Contains(strings.ToLower(name), "ssn") && len(rendered) >= 4 {
			rendered = "XXX-XX-" + rendered[len(rendered)-4:]
		}
		return name + ": " + rendered
	})
	first([]string{"date"}, func(name string, v extraction.TypedValue) string {
		return name + ": " + v.String()
	})
	first(amountKeywords, func(name string, v extraction.TypedValue) string {
		if n, ok := v.Float(); ok {
			return name + ": " + Money(n)
		}
		return name + ": " + v.String()
	})
	return out
}

// NotableItems lists up to five observations about a document
func NotableItems(doc *document.Document) []string {
	var out []string

	if len(doc.Tables) > 0 {
		out = append(out, fmt.Sprintf("Contains %d table(s)", len(doc.Tables)))
	}
	if v, ok := doc.Fields.Get("Selected Options"); ok && v.Kind == extraction.KindList && len(v.Items) > 0 {
		out = append(out, "Selected: "+strings.Join(v.Items[:min(3, len(v.Items))], ", "))
	}
	if doc.ExtractionConfidence < lowConfidence {
		out = append(out, "Low extraction confidence - manual review recommended")
	}
	if doc.SchemaType != "" {
		out = append(out, "Identified as: "+intelligence.DisplayName(doc.SchemaType))
	}

	text := strings.ToLower(doc.RawText)
	if strings.Contains(text, "signature") {
		out = append(out, "Contains signature field")
	}
	if strings.Contains(text, "deadline") || strings.Contains(text, "due date") {
		out = append(out, "Has deadline/due date")
	}
	if strings.Contains(text, "required") {
		out = append(out, "Has required fields")
	}

	if len(out) > maxNotableItems {
		out = out[:maxNotableItems]
	}
	return out
}

func bulletSummary(title string, key *extraction.FieldMap, highlights, notable []string) string {
	lines := []string{"SUMMARY: " + title, ""}

	if len(highlights) > 0 {
		lines = append(lines, "KEY INFORMATION:")
		for _, h := range highlights {
			lines = append(lines, "• "+h)
		}
		lines = append(lines, "")
	}

	var details []string
	for name, value := range key.All() {
		if containsInAny(highlights, name) {
			continue
		}
		details = append(details, "• "+name+": "+value.String())
		if len(details) == maxDetails {
			break
		}
	}
	if len(details) > 0 {
		lines = append(lines, "ADDITIONAL DETAILS:")
		lines = append(lines, details...)
		lines = append(lines, "")
	}

	if len(notable) > 0 {
		lines = append(lines, "NOTABLE ITEMS:")
		for _, n := range notable {
			lines = append(lines, "- "+n)
		}
	}
	return strings.Join(lines, "\n")
}

func narrativeSummary(title string, highlights, notable []string) string {
	parts := []string{"This " + title + " contains the following information."}
	for _, h := range highlights {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("The %s is %s.", strings.ToLower(strings.TrimSpace(name)), strings.TrimSpace(value)))
	}
	if len(notable) > 0 {
		parts = append(parts, "Additionally, "+strings.ToLower(notable[0])+".")
		if len(notable) > 1 {
			parts = append(parts, "Note that "+strings.ToLower(notable[1])+".")
		}
	}
	return strings.Join(parts, " ")
}

// SummarizeMultiple writes a combined report: form types, up to three
// highlights per form, fields shared by every form and totals for numeric
// fields found in more than one form
func (s *Summarizer) SummarizeMultiple(docs []*document.Document) string {
	lines := []string{
		fmt.Sprintf("MULTI-FORM SUMMARY (%d forms)", len(docs)),
		strings.Repeat("=", 40),
		"",
	}

	var types []string
	seen := map[string]bool{}
	for _, doc := range docs {
		t := doc.SchemaType
		if t == "" {
			t = "unknown"
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	lines = append(lines, "Form Types: "+strings.Join(types, ", "), "")

	for i, doc := range docs {
		summary := s.Summarize(doc, StyleBullets)
		lines = append(lines, fmt.Sprintf("--- Form %d: %s ---", i+1, doc.Path))
		for _, h := range summary.Highlights[:min(3, len(summary.Highlights))] {
			lines = append(lines, "  • "+h)
		}
		lines = append(lines, "")
	}

	lines = append(lines, "CROSS-FORM INSIGHTS:")
	if common := commonFields(docs); len(common) > 0 {
		lines = append(lines, "• Common fields: "+strings.Join(common[:min(5, len(common))], ", "))
	}

	order, byField := collectFields(docs)
	for _, name := range order {
		stats, ok := numericStats(byField[name])
		if ok && stats.Count > 1 {
			lines = append(lines, fmt.Sprintf("• %s: Total=%s, Avg=%s", name, Money(stats.Sum), Money(stats.Average)))
		}
	}
	return strings.Join(lines, "\n")
}

// commonFields returns the fields present in every document, in the first
// document's order
func commonFields(docs []*document.Document) []string {
	if len(docs) == 0 {
		return nil
	}
	var out []string
	for _, name := range docs[0].Fields.Keys() {
		everywhere := true
		for _, doc := range docs[1:] {
			if !doc.Fields.Has(name) {
				everywhere = false
				break
			}
		}
		if everywhere {
			out = append(out, name)
		}
	}
	return out
}

func containsInAny(haystacks []string, needle string) bool {
	for _, h := range haystacks {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}
