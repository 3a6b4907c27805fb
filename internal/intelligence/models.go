package intelligence

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category groups related schema types
type Category string

const (
	CategoryTax        Category = "tax"
	CategoryMedical    Category = "medical"
	CategoryEmployment Category = "employment"
	CategoryFinancial  Category = "financial"
	CategoryLegal      Category = "legal"
	CategoryGovernment Category = "government"
	CategoryEducation  Category = "education"
)

// SchemaDefinition describes one form type in the catalog
type SchemaDefinition struct {
	// Type is the schema identifier, e.g. "w2" or "insurance_claim"
	Type     string   `json:"type"`
	Category Category `json:"category"`

	// Indicators are lower-case phrases searched for in the document.
	// At least RequiredIndicators of them must be present for the schema
	// to be a candidate.
	Indicators         []string `json:"indicators"`
	RequiredIndicators int      `json:"required_indicators"`

	// ExpectedFields drive completeness validation
	ExpectedFields []string `json:"expected_fields,omitempty"`

	// PriorityFields are name fragments ranked first in summaries
	PriorityFields []string `json:"priority_fields,omitempty"`
}

// SchemaMatch is a classification candidate
type SchemaMatch struct {
	SchemaType        string   `json:"schema_type"`
	Category          Category `json:"category"`
	Confidence        float64  `json:"confidence"` // 0.0 to 1.0
	MatchedIndicators []string `json:"matched_indicators"`

	// score is the raw matched/total ratio used for ranking
	score float64
}

// String returns a short human readable form of the match
func (m SchemaMatch) String() string {
	return fmt.Sprintf("%s (%s, %.0f%%)", m.SchemaType, m.Category, m.Confidence*100)
}

// DisplayName returns a human-readable name for a schema type
func DisplayName(schemaType string) string {
	switch schemaType {
	case "w2":
		return "W-2"
	case "w4":
		return "W-4"
	case "i9":
		return "I-9"
	case "1099", "1040":
		return "Form " + schemaType
	case "dmv":
		return "DMV Form"
	case "hipaa_authorization":
		return "HIPAA Authorization"
	}
	// a Caser is stateful, so each call gets its own
	return cases.Title(language.English).String(strings.ReplaceAll(schemaType, "_", " "))
}
