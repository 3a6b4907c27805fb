// Package export renders processed documents as JSON, CSV, Markdown reports
// or Excel workbooks.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-form-agent/internal/document"
)

// Format is an export format
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatXLSX     Format = "xlsx"
)

// ErrUnsupportedFormat is returned for unknown export formats
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Formats lists the supported formats
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatXLSX}
}

// ParseFormat resolves a format name. An empty name means JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Binary reports whether the format produces non-text output
func (f Format) Binary() bool {
	return f == FormatXLSX
}

// Extension is the file extension for the format, with the leading dot
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return "." + string(f)
}

// Write renders doc to w in the given format
func Write(w io.Writer, doc *document.Document, format Format) error {
	switch format {
	case FormatJSON:
		return JSON(w, doc)
	case FormatCSV:
		return CSV(w, doc)
	case FormatMarkdown:
		return Markdown(w, doc)
	case FormatXLSX:
		return XLSX(w, doc)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// Render returns doc rendered in the given format
func Render(doc *document.Document, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders doc into the file at path, creating parent directories
func WriteFile(path string, doc *document.Document, format Format) error {
	data, err := Render(doc, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// JSON writes the whole document as indented JSON
func JSON(w io.Writer, doc *document.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// CSV writes one Field,Value row per extracted field
func CSV(w io.Writer, doc *document.Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Field", "Value"}); err != nil {
		return err
	}
	if doc.Fields != nil {
		for name, value := range doc.Fields.All() {
			if err := cw.Write([]string{name, value.String()}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Markdown writes an extraction report with fields and tables
func Markdown(w io.Writer, doc *document.Document) error {
	schema := doc.SchemaType
	if schema == "" {
		schema = "Unknown"
	}

	lines := []string{
		"# Form Extraction Report",
		"",
		"**File**: " + doc.Path,
		"**Type**: " + doc.FileType,
		"**Schema**: " + schema,
		fmt.Sprintf("**Confidence**: %.2f%%", doc.ExtractionConfidence*100),
		"**Processed**: " + doc.ProcessedAt.UTC().Format(time.RFC3339),
		"",
		"## Extracted Fields",
		"",
	}
	if doc.Fields != nil {
		for name, value := range doc.Fields.All() {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", name, value))
		}
	}

	if len(doc.Tables) > 0 {
		lines = append(lines, "", "## Tables", "")
		for i, table := range doc.Tables {
			lines = append(lines, fmt.Sprintf("### Table %d", i+1))
			if len(table) > 0 {
				lines = append(lines, markdownRow(table[0]))
				sep := make([]string, len(table[0]))
				for j := range sep {
					sep[j] = "---"
				}
				lines = append(lines, markdownRow(sep))
				for _, row := range table[1:] {
					lines = append(lines, markdownRow(row))
				}
			}
			lines = append(lines, "")
		}
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

func markdownRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return "| " + strings.Join(escaped, " | ") + " |"
}

// XLSX writes a workbook with a Fields sheet and one sheet per table.
// Numeric and currency values are written as numbers.
func XLSX(w io.Writer, doc *document.Document) error {
	f := excelize.NewFile()
	defer f.Close()

	const fieldsSheet = "Fields"
	if err := f.SetSheetName("Sheet1", fieldsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(fieldsSheet, "A1", &[]any{"Field", "Value", "Kind"}); err != nil {
		return err
	}
	if doc.Fields != nil {
		row := 2
		for name, value := range doc.Fields.All() {
			var cell any = value.String()
			if n, ok := value.Float(); ok {
				cell = n
			}
			axis, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(fieldsSheet, axis, &[]any{name, cell, string(value.Kind)}); err != nil {
				return fmt.Errorf("write field %q: %w", name, err)
			}
			row++
		}
	}

	for i, table := range doc.Tables {
		sheet := fmt.Sprintf("Table %d", i+1)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		for r, cells := range table {
			axis, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			row := make([]any, len(cells))
			for c, v := range cells {
				row[c] = v
			}
			if err := f.SetSheetRow(sheet, axis, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", sheet, r+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
