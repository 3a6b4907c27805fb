// Package tables turns ragged raw tables into rectangular, header-annotated
// structures and answers simple aggregate questions over them.
package tables

import (
	"fmt"
	"strings"
)

// Type is the coarse category inferred from a table's headers
type Type string

const (
	TypeFinancial Type = "financial"
	TypeContact   Type = "contact"
	TypeSchedule  Type = "schedule"
	TypeInventory Type = "inventory"
	TypeGeneral   Type = "general"
)

// Table is a normalized table. Every row has exactly len(Headers) cells.
type Table struct {
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	HasHeader bool       `json:"has_header"`
	Type      Type       `json:"type"`
}

// ColumnIndex returns the position of the named column, ignoring case
func (t Table) ColumnIndex(column string) (int, bool) {
	for i, h := range t.Headers {
		if strings.EqualFold(h, column) {
			return i, true
		}
	}
	return -1, false
}

// Records returns one header-keyed map per row
func (t Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			rec[h] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

// Markdown renders the table as a pipe table
func (t Table) Markdown() string {
	if len(t.Headers) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("| " + strings.Join(t.Headers, " | ") + " |\n")
	sep := make([]string, len(t.Headers))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range t.Rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}

// String summarizes the table shape for logs
func (t Table) String() string {
	return fmt.Sprintf("Table{Type: %s, Columns: %d, Rows: %d, HasHeader: %t}",
		t.Type, len(t.Headers), len(t.Rows), t.HasHeader)
}
