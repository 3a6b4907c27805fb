package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// JSONLoader flattens JSON into "key: value" lines and turns arrays of
// objects into tables. Object key order is preserved.
type JSONLoader struct{}

func (JSONLoader) Name() string { return "json" }

func (JSONLoader) CanHandle(t FileType) bool { return t == FileTypeJSON }

func (JSONLoader) Load(ctx context.Context, path string) (Content, error) {
	raw, enc, err := readText(ctx, path)
	if err != nil {
		return Content{}, err
	}

	root, err := decodeOrdered(raw)
	if err != nil {
		return Content{}, fmt.Errorf("parse json: %w", err)
	}

	var lines []string
	flattenJSON(root, "", &lines)

	var tables [][][]string
	jsonTables(root, &tables)

	return Content{
		Text:     strings.Join(lines, "\n"),
		Tables:   tables,
		Metadata: map[string]any{"encoding": enc},
	}, nil
}

type jsonKind int

const (
	jsonScalar jsonKind = iota
	jsonObject
	jsonArray
)

// jsonNode is a decoded JSON value that remembers object key order
type jsonNode struct {
	kind   jsonKind
	keys   []string
	fields map[string]*jsonNode
	items  []*jsonNode
	scalar string
}

func (n *jsonNode) String() string {
	switch n.kind {
	case jsonObject:
		parts := make([]string, 0, len(n.keys))
		for _, k := range n.keys {
			parts = append(parts, k+": "+n.fields[k].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case jsonArray:
		parts := make([]string, 0, len(n.items))
		for _, item := range n.items {
			parts = append(parts, item.String())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return n.scalar
}

func decodeOrdered(raw string) (*jsonNode, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	node, err := decodeNode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return node, nil
}

func decodeNode(dec *json.Decoder) (*jsonNode, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			n := &jsonNode{kind: jsonObject, fields: map[string]*jsonNode{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T", keyTok)
				}
				child, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := n.fields[key]; !dup {
					n.keys = append(n.keys, key)
				}
				n.fields[key] = child
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		case '[':
			n := &jsonNode{kind: jsonArray}
			for dec.More() {
				child, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				n.items = append(n.items, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", v)
	case nil:
		return &jsonNode{scalar: "null"}, nil
	case bool:
		return &jsonNode{scalar: fmt.Sprint(v)}, nil
	case json.Number:
		return &jsonNode{scalar: v.String()}, nil
	case string:
		return &jsonNode{scalar: v}, nil
	}
	return nil, fmt.Errorf("unexpected token %T", tok)
}

// flattenJSON writes one line per scalar. Containers get a "key:" line and
// their children are indented by two spaces.
func flattenJSON(n *jsonNode, prefix string, lines *[]string) {
	switch n.kind {
	case jsonObject:
		for _, k := range n.keys {
			child := n.fields[k]
			if child.kind == jsonScalar {
				*lines = append(*lines, prefix+k+": "+child.scalar)
				continue
			}
			*lines = append(*lines, prefix+k+":")
			flattenJSON(child, prefix+"  ", lines)
		}
	case jsonArray:
		for i, item := range n.items {
			if item.kind == jsonScalar {
				*lines = append(*lines, fmt.Sprintf("%s[%d]: %s", prefix, i, item.scalar))
				continue
			}
			flattenJSON(item, prefix+"  ", lines)
		}
	default:
		*lines = append(*lines, prefix+n.scalar)
	}
}

// jsonTables collects arrays of objects as tables, headed by the first
// object's keys. Objects are searched for nested arrays.
func jsonTables(n *jsonNode, out *[][][]string) {
	switch n.kind {
	case jsonArray:
		if len(n.items) > 0 && n.items[0].kind == jsonObject {
			headers := n.items[0].keys
			table := [][]string{append([]string(nil), headers...)}
			for _, item := range n.items {
				if item.kind != jsonObject {
					continue
				}
				row := make([]string, len(headers))
				for i, h := range headers {
					if v, ok := item.fields[h]; ok {
						row[i] = v.String()
					}
				}
				table = append(table, row)
			}
			*out = append(*out, table)
		}
	case jsonObject:
		for _, k := range n.keys {
			if child := n.fields[k]; child.kind != jsonScalar {
				jsonTables(child, out)
			}
		}
	}
}
