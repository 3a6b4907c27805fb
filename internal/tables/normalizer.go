package tables

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// headerScoreThreshold is the number of signals needed to treat the
	// first row as a header
	headerScoreThreshold = 2

	textRatioThreshold    = 0.5
	numericRatioMargin    = 0.2
	minRowsForHeader      = 2
	minRowsForRatioSignal = 3
)

var numericNoise = regexp.MustCompile(`[\$,€£%\s]`)

// headerKeywords mark a row as a header when any cell contains one
var headerKeywords = []string{
	"name", "date", "amount", "total", "description", "id", "number",
	"quantity", "price", "item", "type", "status", "value", "count",
}

// typeKeywords vote in priority order; the first category with a hit wins
var typeKeywords = []struct {
	typ      Type
	keywords []string
}{
	{TypeFinancial, []string{"amount", "total", "price", "cost", "balance"}},
	{TypeContact, []string{"name", "email", "phone", "address"}},
	{TypeSchedule, []string{"date", "time", "schedule", "due"}},
	{TypeInventory, []string{"item", "quantity", "stock", "product"}},
}

// Normalizer pads raw tables, detects header rows and infers table types
type Normalizer struct{}

// NewNormalizer creates a table normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize converts every non-empty raw table
func (n *Normalizer) Normalize(raw [][][]string) []Table {
	out := make([]Table, 0, len(raw))
	for _, r := range raw {
		if t, ok := n.NormalizeOne(r); ok {
			out = append(out, t)
		}
	}
	return out
}

// NormalizeOne converts one raw table. It reports false for tables with no
// rows or no columns.
func (n *Normalizer) NormalizeOne(raw [][]string) (Table, bool) {
	rows := Pad(raw)
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Table{}, false
	}

	t := Table{HasHeader: DetectHeader(rows)}
	if t.HasHeader {
		t.Headers = rows[0]
		t.Rows = rows[1:]
	} else {
		t.Headers = SyntheticHeaders(len(rows[0]))
		t.Rows = rows
	}
	t.Type = InferType(t.Headers)
	return t, true
}

// Pad trims every cell and right-pads short rows with empty strings up to
// the widest row.
func Pad(raw [][]string) [][]string {
	width := 0
	for _, row := range raw {
		width = max(width, len(row))
	}
	if width == 0 {
		return nil
	}

	out := make([][]string, 0, len(raw))
	for _, row := range raw {
		padded := make([]string, width)
		for i, cell := range row {
			padded[i] = strings.TrimSpace(cell)
		}
		out = append(out, padded)
	}
	return out
}

// SyntheticHeaders returns "Column 1" ... "Column n"
func SyntheticHeaders(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Column %d", i+1)
	}
	return out
}

// DetectHeader reports whether the first row of a padded table is a header
func DetectHeader(rows [][]string) bool {
	return HeaderScore(rows) >= headerScoreThreshold
}

// HeaderScore counts the header signals present in a padded table
func HeaderScore(rows [][]string) int {
	if len(rows) < minRowsForHeader {
		return 0
	}

	first := rows[0]
	firstText := TextRatio(first)
	score := 0

	if firstText > textRatioThreshold {
		score++
	}
	if NumericRatio(rows[1]) > firstText {
		score++
	}
	if containsHeaderKeyword(first) {
		score++
	}
	if len(rows) >= minRowsForRatioSignal {
		var sum float64
		for _, row := range rows[1:] {
			sum += NumericRatio(row)
		}
		avg := sum / float64(len(rows)-1)
		if NumericRatio(first) < avg-numericRatioMargin {
			score++
		}
	}
	return score
}

// TextRatio is the share of cells that are non-empty and not numeric
func TextRatio(row []string) float64 {
	if len(row) == 0 {
		return 0
	}
	n := 0
	for _, cell := range row {
		if cell != "" && !IsNumeric(cell) {
			n++
		}
	}
	return float64(n) / float64(len(row))
}

// NumericRatio is the share of cells that parse as numbers
func NumericRatio(row []string) float64 {
	if len(row) == 0 {
		return 0
	}
	n := 0
	for _, cell := range row {
		if IsNumeric(cell) {
			n++
		}
	}
	return float64(n) / float64(len(row))
}

// ParseNumeric strips currency, percent, comma and whitespace formatting and
// parses the remainder as a float.
func ParseNumeric(cell string) (float64, bool) {
	cleaned := numericNoise.ReplaceAllString(cell, "")
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsNumeric reports whether ParseNumeric accepts the cell
func IsNumeric(cell string) bool {
	_, ok := ParseNumeric(cell)
	return ok
}

func containsHeaderKeyword(row []string) bool {
	for _, cell := range row {
		lower := strings.ToLower(cell)
		for _, kw := range headerKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// InferType votes headers into a table type
func InferType(headers []string) Type {
	joined := strings.ToLower(strings.Join(headers, " "))
	for _, candidate := range typeKeywords {
		for _, kw := range candidate.keywords {
			if strings.Contains(joined, kw) {
				return candidate.typ
			}
		}
	}
	return TypeGeneral
}
