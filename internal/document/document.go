// Package document assembles processed forms: loaded content run through
// field extraction, table normalization and schema classification.
package document

import (
	"time"

	"github.com/a3tai/mcp-form-agent/internal/extraction"
	"github.com/a3tai/mcp-form-agent/internal/intelligence"
	"github.com/a3tai/mcp-form-agent/internal/retrieval"
	"github.com/a3tai/mcp-form-agent/internal/tables"
)

// Document is a processed form. It is not modified after processing.
type Document struct {
	ID                   string                    `json:"id"`
	Path                 string                    `json:"file_path"`
	FileType             string                    `json:"file_type"`
	RawText              string                    `json:"raw_text"`
	Fields               *extraction.FieldMap      `json:"fields"`
	Tables               [][][]string              `json:"tables"`
	Metadata             map[string]any            `json:"metadata"`
	SchemaType           string                    `json:"schema_type,omitempty"`
	Schema               *intelligence.SchemaMatch `json:"schema,omitempty"`
	ExtractionConfidence float64                   `json:"extraction_confidence"`
	ProcessedAt          time.Time                 `json:"processed_at"`
}

// Source returns the view of the document used for retrieval
func (d *Document) Source() retrieval.Source {
	return retrieval.Source{
		Path:   d.Path,
		Text:   d.RawText,
		Fields: d.Fields,
		Tables: d.Tables,
	}
}

// NormalizedTables normalizes the raw tables, skipping empty ones
func (d *Document) NormalizedTables() []tables.Table {
	return tables.NewNormalizer().Normalize(d.Tables)
}

// Title is the display name of the schema, or empty when unclassified
func (d *Document) Title() string {
	if d.SchemaType == "" {
		return ""
	}
	return intelligence.DisplayName(d.SchemaType)
}

// Summary is the short listing form of a document
type Summary struct {
	ID                   string    `json:"id"`
	Path                 string    `json:"file_path"`
	FileType             string    `json:"file_type"`
	SchemaType           string    `json:"schema_type,omitempty"`
	FieldCount           int       `json:"field_count"`
	TableCount           int       `json:"table_count"`
	ExtractionConfidence float64   `json:"extraction_confidence"`
	ProcessedAt          time.Time `json:"processed_at"`
}

// Summarize returns the listing form of the document
func (d *Document) Summarize() Summary {
	return Summary{
		ID:                   d.ID,
		Path:                 d.Path,
		FileType:             d.FileType,
		SchemaType:           d.SchemaType,
		FieldCount:           d.Fields.Len(),
		TableCount:           len(d.Tables),
		ExtractionConfidence: d.ExtractionConfidence,
		ProcessedAt:          d.ProcessedAt,
	}
}
