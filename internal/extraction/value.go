package extraction

import (
	"slices"
	"strconv"
	"strings"
)

// Kind identifies which variant of a TypedValue is populated
type Kind string

const (
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindCurrency Kind = "currency"
	KindDate     Kind = "date"
	KindList     Kind = "list"
)

// TypedValue is a tagged union over the value shapes the extractor can infer.
// Only the members relevant to Kind are populated. Raw keeps the source text
// for every kind that was parsed out of a document.
type TypedValue struct {
	Kind    Kind     `json:"kind"`
	Raw     string   `json:"raw,omitempty"`
	Number  float64  `json:"number,omitempty"`
	Integer bool     `json:"integer,omitempty"`
	Bool    bool     `json:"bool,omitempty"`
	Date    string   `json:"date,omitempty"` // normalized YYYY-MM-DD when parseable
	Items   []string `json:"items,omitempty"`
}

// Text returns a plain text value
func Text(s string) TypedValue {
	return TypedValue{Kind: KindText, Raw: s}
}

// Number returns a floating point value
func Number(f float64) TypedValue {
	return TypedValue{Kind: KindNumber, Number: f}
}

// Integer returns an integral numeric value
func Integer(i int64) TypedValue {
	return TypedValue{Kind: KindNumber, Number: float64(i), Integer: true}
}

// Boolean returns a boolean value
func Boolean(b bool) TypedValue {
	return TypedValue{Kind: KindBoolean, Bool: b}
}

// Currency returns a monetary value together with the text it was read from
func Currency(amount float64, raw string) TypedValue {
	return TypedValue{Kind: KindCurrency, Number: amount, Raw: raw}
}

// Date returns a date value. The raw text is kept as-is and a normalized
// form is attached when one of the known layouts parses it.
func Date(raw string) TypedValue {
	v := TypedValue{Kind: KindDate, Raw: raw}
	if normalized, ok := NormalizeDate(raw); ok {
		v.Date = normalized
	}
	return v
}

// List returns a string list value
func List(items []string) TypedValue {
	return TypedValue{Kind: KindList, Items: slices.Clone(items)}
}

// IsZero reports whether the value carries no kind at all
func (v TypedValue) IsZero() bool {
	return v.Kind == ""
}

// Float coerces number and currency values to float64
func (v TypedValue) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber, KindCurrency:
		return v.Number, true
	default:
		return 0, false
	}
}

// String renders the value the way it reads in a context line
func (v TypedValue) String() string {
	switch v.Kind {
	case KindNumber:
		if v.Integer {
			return strconv.FormatInt(int64(v.Number), 10)
		}
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBoolean:
		if v.Raw != "" {
			return v.Raw
		}
		return strconv.FormatBool(v.Bool)
	case KindCurrency:
		if v.Raw != "" {
			return v.Raw
		}
		return "$" + strconv.FormatFloat(v.Number, 'f', 2, 64)
	case KindList:
		return strings.Join(v.Items, ", ")
	default:
		return v.Raw
	}
}

// Equal compares two values member by member
func (v TypedValue) Equal(other TypedValue) bool {
	return v.Kind == other.Kind &&
		v.Raw == other.Raw &&
		v.Number == other.Number &&
		v.Integer == other.Integer &&
		v.Bool == other.Bool &&
		v.Date == other.Date &&
		slices.Equal(v.Items, other.Items)
}
