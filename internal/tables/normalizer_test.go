package tables

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOne_PadsRaggedRows(t *testing.T) {
	raw := [][]string{
		{"a"},
		{"b", "c", "d"},
		{},
		{" e ", "f"},
	}

	table, ok := NewNormalizer().NormalizeOne(raw)
	require.True(t, ok)

	assert.False(t, table.HasHeader)
	assert.Equal(t, []string{"Column 1", "Column 2", "Column 3"}, table.Headers)
	want := [][]string{
		{"a", "", ""},
		{"b", "c", "d"},
		{"", "", ""},
		{"e", "f", ""},
	}
	if diff := cmp.Diff(want, table.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	for _, row := range table.Rows {
		assert.Len(t, row, len(table.Headers))
	}
}

func TestNormalizeOne_HeaderDetection(t *testing.T) {
	tests := []struct {
		name       string
		raw        [][]string
		wantHeader bool
		wantType   Type
	}{
		{
			name: "financial header over numbers",
			raw: [][]string{
				{"Description", "Amount"},
				{"Rent", "$1,200.00"},
				{"Utilities", "$150.50"},
			},
			wantHeader: true,
			wantType:   TypeFinancial,
		},
		{
			name: "contact header",
			raw: [][]string{
				{"Name", "Email", "Phone"},
				{"Jane", "jane@example.com", "555-0100"},
			},
			wantHeader: true,
			wantType:   TypeContact,
		},
		{
			name: "schedule header",
			raw: [][]string{
				{"Task", "Date"},
				{"Filing", "04/15/2024"},
				{"Review", "05/01/2024"},
			},
			wantHeader: true,
			wantType:   TypeSchedule,
		},
		{
			name: "inventory header",
			raw: [][]string{
				{"Product", "Stock"},
				{"Widget", "40"},
				{"Gadget", "12"},
			},
			wantHeader: true,
			wantType:   TypeInventory,
		},
		{
			name: "all numeric rows have no header",
			raw: [][]string{
				{"1", "2"},
				{"3", "4"},
				{"5", "6"},
			},
			wantHeader: false,
			wantType:   TypeGeneral,
		},
		{
			name:       "single row never has a header",
			raw:        [][]string{{"Name", "Amount"}},
			wantHeader: false,
			wantType:   TypeGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, ok := NewNormalizer().NormalizeOne(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.wantHeader, table.HasHeader)
			assert.Equal(t, tt.wantType, table.Type)
			if tt.wantHeader {
				assert.Equal(t, tt.raw[0], table.Headers)
				assert.Len(t, table.Rows, len(tt.raw)-1)
			} else {
				assert.Equal(t, SyntheticHeaders(len(tt.raw[0])), table.Headers)
				assert.Len(t, table.Rows, len(tt.raw))
			}
		})
	}
}

func TestHeaderScore(t *testing.T) {
	rows := [][]string{
		{"Item", "Price"},
		{"Pen", "1.50"},
		{"Book", "12.00"},
	}
	// text ratio 1.0, keyword hit, first numeric ratio 0 < 0.5-0.2;
	// second-row numeric 0.5 is not above 1.0
	assert.Equal(t, 3, HeaderScore(rows))
	assert.Equal(t, 0, HeaderScore(rows[:1]))
}

func TestNormalize_SkipsEmptyTables(t *testing.T) {
	out := NewNormalizer().Normalize([][][]string{
		nil,
		{{}, {}},
		{{"x", "y"}},
	})
	require.Len(t, out, 1)
	assert.Equal(t, []string{"Column 1", "Column 2"}, out[0].Headers)
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,234.50", 1234.5, true},
		{"12%", 12, true},
		{"€ 99", 99, true},
		{"£7", 7, true},
		{"-3", -3, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumeric(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_MarkdownAndRecords(t *testing.T) {
	table := Table{
		Headers: []string{"Item", "Qty"},
		Rows:    [][]string{{"Pen", "2"}},
	}

	assert.Equal(t, "| Item | Qty |\n| --- | --- |\n| Pen | 2 |\n", table.Markdown())
	assert.Equal(t, []map[string]string{{"Item": "Pen", "Qty": "2"}}, table.Records())
	assert.Equal(t, "", Table{}.Markdown())
}
