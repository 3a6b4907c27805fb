package tables

import (
	"fmt"
	"strings"
)

// Op is an aggregate operation over a column
type Op string

const (
	OpSum   Op = "sum"
	OpAvg   Op = "avg"
	OpMin   Op = "min"
	OpMax   Op = "max"
	OpCount Op = "count"
)

// ParseOp validates an operation name
func ParseOp(s string) (Op, error) {
	switch op := Op(strings.ToLower(strings.TrimSpace(s))); op {
	case OpSum, OpAvg, OpMin, OpMax, OpCount:
		return op, nil
	case "average", "mean":
		return OpAvg, nil
	default:
		return "", fmt.Errorf("unsupported aggregate operation: %s", s)
	}
}

// ColumnValues returns the numeric cells of a column, skipping the rest
func (t Table) ColumnValues(column string) ([]float64, bool) {
	idx, ok := t.ColumnIndex(column)
	if !ok {
		return nil, false
	}
	var values []float64
	for _, row := range t.Rows {
		if f, ok := ParseNumeric(row[idx]); ok {
			values = append(values, f)
		}
	}
	return values, true
}

// Aggregate applies op to the numeric cells of column. It reports false when
// the column does not exist, holds no numeric cells, or op is unknown.
func (t Table) Aggregate(column string, op Op) (float64, bool) {
	values, ok := t.ColumnValues(column)
	if !ok || len(values) == 0 {
		return 0, false
	}

	switch op {
	case OpSum:
		return sum(values), true
	case OpAvg:
		return sum(values) / float64(len(values)), true
	case OpMin:
		m := values[0]
		for _, v := range values[1:] {
			m = min(m, v)
		}
		return m, true
	case OpMax:
		m := values[0]
		for _, v := range values[1:] {
			m = max(m, v)
		}
		return m, true
	case OpCount:
		return float64(len(values)), true
	default:
		return 0, false
	}
}

// TotalRow is a row whose first cell names it as a total
type TotalRow struct {
	Label  string             `json:"label"`
	Values map[string]float64 `json:"values"`
}

// FindTotals returns every row whose first cell contains "total", with its
// numeric cells keyed by header.
func (t Table) FindTotals() []TotalRow {
	var out []TotalRow
	for _, row := range t.Rows {
		if len(row) == 0 || !strings.Contains(strings.ToLower(row[0]), "total") {
			continue
		}
		total := TotalRow{Label: row[0], Values: make(map[string]float64)}
		for i, cell := range row[1:] {
			if f, ok := ParseNumeric(cell); ok {
				total.Values[t.Headers[i+1]] = f
			}
		}
		out = append(out, total)
	}
	return out
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}
