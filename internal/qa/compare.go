package qa

import (
	"github.com/a3tai/mcp-form-agent/internal/document"
	"github.com/a3tai/mcp-form-agent/internal/extraction"
)

// Difference is a field whose value differs between two documents
type Difference struct {
	First  extraction.TypedValue `json:"doc1"`
	Second extraction.TypedValue `json:"doc2"`
}

// Comparison is the field-level diff of two documents
type Comparison struct {
	CommonFields []string              `json:"common_fields"`
	OnlyInFirst  []string              `json:"only_in_first"`
	OnlyInSecond []string              `json:"only_in_second"`
	Differences  map[string]Difference `json:"differences"`
	SameSchema   bool                  `json:"same_schema"`
}

// Compare diffs the fields of two documents. Field lists keep each
// document's field order.
func Compare(a, b *document.Document) Comparison {
	c := Comparison{
		CommonFields: []string{},
		OnlyInFirst:  []string{},
		OnlyInSecond: []string{},
		Differences:  map[string]Difference{},
		SameSchema:   a.SchemaType == b.SchemaType,
	}

	for name, av := range a.Fields.All() {
		bv, ok := b.Fields.Get(name)
		if !ok {
			c.OnlyInFirst = append(c.OnlyInFirst, name)
			continue
		}
		c.CommonFields = append(c.CommonFields, name)
		if !av.Equal(bv) {
			c.Differences[name] = Difference{First: av, Second: bv}
		}
	}
	for _, name := range b.Fields.Keys() {
		if !a.Fields.Has(name) {
			c.OnlyInSecond = append(c.OnlyInSecond, name)
		}
	}
	return c
}
