package agent

import (
	"github.com/a3tai/mcp-form-agent/internal/descriptions"
	"github.com/a3tai/mcp-form-agent/internal/extraction"
	"github.com/a3tai/mcp-form-agent/internal/intelligence"
	"github.com/a3tai/mcp-form-agent/internal/tables"
)

// FieldsResult is the extracted fields of one document
type FieldsResult struct {
	DocumentID string               `json:"document_id"`
	Path       string               `json:"file_path"`
	SchemaType string               `json:"schema_type,omitempty"`
	Count      int                  `json:"count"`
	Fields     *extraction.FieldMap `json:"fields"`
	// Matches lists every labelled match with its confidence, when asked for
	Matches []extraction.FieldMatch `json:"matches,omitempty"`
}

// TablesResult is the normalized tables of one document
type TablesResult struct {
	DocumentID string         `json:"document_id"`
	Path       string         `json:"file_path"`
	Count      int            `json:"count"`
	Tables     []tables.Table `json:"tables"`
	Totals     []TableTotal   `json:"totals"`
}

// TableTotal is a total row of the table at index Table
type TableTotal struct {
	Table int `json:"table"`
	tables.TotalRow
}

// AggregateResult is one aggregate over a named column of every table that
// has it. Values is empty when no table holds numbers in that column.
type AggregateResult struct {
	DocumentID string            `json:"document_id"`
	Column     string            `json:"column"`
	Operation  string            `json:"operation"`
	Values     []ColumnAggregate `json:"values"`
}

// ColumnAggregate is the aggregate of one table's column
type ColumnAggregate struct {
	Table int     `json:"table"`
	Value float64 `json:"value"`
}

// ClassifyResult is the best schema match and every candidate
type ClassifyResult struct {
	DocumentID  string                     `json:"document_id"`
	Path        string                     `json:"file_path"`
	SchemaType  string                     `json:"schema_type,omitempty"`
	DisplayName string                     `json:"display_name,omitempty"`
	Best        *intelligence.SchemaMatch  `json:"best,omitempty"`
	Candidates  []intelligence.SchemaMatch `json:"candidates"`
}

// ValidationResult reports field completeness against a schema
type ValidationResult struct {
	DocumentID   string   `json:"document_id"`
	SchemaType   string   `json:"schema_type"`
	Completeness float64  `json:"completeness"`
	Expected     []string `json:"expected_fields"`
	Missing      []string `json:"missing_fields"`
}

// ExportResult is an exported document. Binary formats are base64 encoded
// unless written to OutputPath.
type ExportResult struct {
	DocumentID string `json:"document_id"`
	Format     string `json:"format"`
	Encoding   string `json:"encoding,omitempty"`
	Content    string `json:"content,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
	Bytes      int    `json:"bytes"`
}

// ServerInfo describes the running service
type ServerInfo struct {
	ServerName        string              `json:"server_name"`
	Version           string              `json:"version"`
	DefaultDirectory  string              `json:"default_directory"`
	MaxFileSize       int64               `json:"max_file_size"`
	RetrievalStrategy string              `json:"retrieval_strategy"`
	SupportedFormats  []string            `json:"supported_formats"`
	ExportFormats     []string            `json:"export_formats"`
	SchemaTypes       []string            `json:"schema_types"`
	DocumentsLoaded   int                 `json:"documents_loaded"`
	AvailableTools    []descriptions.Tool `json:"available_tools"`
	DirectoryContents []FileInfo          `json:"directory_contents"`
	Truncated         bool                `json:"directory_truncated,omitempty"`
	UsageGuidance     string              `json:"usage_guidance"`
}
