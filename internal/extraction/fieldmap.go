package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"
)

// genericNames are labels too vague to stand as field names on their own
var genericNames = map[string]bool{
	"ii":  true,
	"iii": true,
	"the": true,
	"and": true,
	"or":  true,
}

// NormalizeName collapses internal whitespace and trims the label
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// ValidName reports whether name may be used as a FieldMap key: non-empty,
// already normalized, longer than one character and not a generic token.
func ValidName(name string) bool {
	if name == "" || name != NormalizeName(name) {
		return false
	}
	if utf8.RuneCountInString(name) < 2 {
		return false
	}
	return !genericNames[strings.ToLower(name)]
}

// FieldMap is an insertion-ordered mapping of field name to value. Writing
// an existing name replaces its value but keeps its original position.
type FieldMap struct {
	keys   []string
	values map[string]TypedValue
}

// NewFieldMap creates an empty field map
func NewFieldMap() *FieldMap {
	return &FieldMap{values: make(map[string]TypedValue)}
}

// Set stores a value under the normalized name. It reports false when the
// name does not survive normalization or is a generic token.
func (m *FieldMap) Set(name string, value TypedValue) bool {
	name = NormalizeName(name)
	if !ValidName(name) {
		return false
	}
	if m.values == nil {
		m.values = make(map[string]TypedValue)
	}
	if _, exists := m.values[name]; !exists {
		m.keys = append(m.keys, name)
	}
	m.values[name] = value
	return true
}

// Get returns the value stored under name
func (m *FieldMap) Get(name string) (TypedValue, bool) {
	if m == nil {
		return TypedValue{}, false
	}
	v, ok := m.values[name]
	return v, ok
}

// Has reports whether name is present
func (m *FieldMap) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Len returns the number of fields
func (m *FieldMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the field names in insertion order
func (m *FieldMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// All iterates over the fields in insertion order
func (m *FieldMap) All() iter.Seq2[string, TypedValue] {
	return func(yield func(string, TypedValue) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Clone returns an independent copy
func (m *FieldMap) Clone() *FieldMap {
	out := NewFieldMap()
	for k, v := range m.All() {
		out.Set(k, v)
	}
	return out
}

// MarshalJSON writes the fields as an object with keys in insertion order
func (m *FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object written by MarshalJSON, preserving key order
func (m *FieldMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = FieldMap{values: make(map[string]TypedValue)}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("field map must be a JSON object")
	}

	out := FieldMap{values: make(map[string]TypedValue)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected field map key %v", tok)
		}
		var v TypedValue
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		if !out.Set(key, v) {
			return fmt.Errorf("invalid field name %q", key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}
