package extraction

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferValue_Cascade(t *testing.T) {
	tests := []struct {
		in   string
		want TypedValue
	}{
		{"$5,000", Currency(5000, "$5,000")},
		{"$1,234.56", Currency(1234.56, "$1,234.56")},
		{"100 USD", Currency(100, "100 USD")},
		{"2,500.00 dollars", Currency(2500, "2,500.00 dollars")},
		{"12/31/2023", TypedValue{Kind: KindDate, Raw: "12/31/2023", Date: "2023-12-31"}},
		{"2024-01-15", TypedValue{Kind: KindDate, Raw: "2024-01-15", Date: "2024-01-15"}},
		{"March 5, 2024", TypedValue{Kind: KindDate, Raw: "March 5, 2024", Date: "2024-03-05"}},
		{"5 March 2024", TypedValue{Kind: KindDate, Raw: "5 March 2024", Date: "2024-03-05"}},
		{"31/12/2023", TypedValue{Kind: KindDate, Raw: "31/12/2023", Date: "2023-12-31"}},
		{"01/15/1980 (approx)", TypedValue{Kind: KindDate, Raw: "01/15/1980 (approx)", Date: "1980-01-15"}},
		{"Yes", TypedValue{Kind: KindBoolean, Bool: true, Raw: "Yes"}},
		{"n", TypedValue{Kind: KindBoolean, Bool: false, Raw: "n"}},
		{"FALSE", TypedValue{Kind: KindBoolean, Bool: false, Raw: "FALSE"}},
		{"1,234", Integer(1234)},
		{"-42", Integer(-42)},
		{"3.75", Number(3.75)},
		{"John Doe", Text("John Doe")},
		{"3.5 years", Text("3.5 years")},
		{"", Text("")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := InferValue(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("InferValue(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestTypedValue_String(t *testing.T) {
	assert.Equal(t, "John", Text("John").String())
	assert.Equal(t, "50000", Integer(50000).String())
	assert.Equal(t, "3.5", Number(3.5).String())
	assert.Equal(t, "$5,000", Currency(5000, "$5,000").String())
	assert.Equal(t, "$12.50", Currency(12.5, "").String())
	assert.Equal(t, "true", Boolean(true).String())
	assert.Equal(t, "Yes", InferValue("Yes").String())
	assert.Equal(t, "a, b", List([]string{"a", "b"}).String())
	assert.Equal(t, "01/02/2024", Date("01/02/2024").String())
}

func TestTypedValue_Float(t *testing.T) {
	f, ok := Currency(12.5, "$12.50").Float()
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)

	f, ok = Integer(7).Float()
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)

	_, ok = Text("7").Float()
	assert.False(t, ok)
	_, ok = Date("01/02/2024").Float()
	assert.False(t, ok)
}

func TestTypedValue_JSONKeepsTag(t *testing.T) {
	values := []TypedValue{
		Text("x"),
		Integer(0),
		Number(1.5),
		Boolean(false),
		Currency(0, "$0"),
		Date("Jan 2, 2024"),
		List([]string{"a"}),
	}

	data, err := json.Marshal(values)
	require.NoError(t, err)

	var decoded []TypedValue
	require.NoError(t, json.Unmarshal(data, &decoded))

	if diff := cmp.Diff(values, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1/2/2024", "2024-01-02", true},
		{"01-02-24", "2024-01-02", true},
		{"2024/02/29", "2024-02-29", true},
		{"25/12/2023", "2023-12-25", true},
		{"Dec 25, 2023", "2023-12-25", true},
		{"december 25 2023", "2023-12-25", true},
		{"25 Dec 2023", "2023-12-25", true},
		{"13/13/2023", "", false},
		{"tomorrow", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
