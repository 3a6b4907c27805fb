package source

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLLoader renders visible text, one line per block element, and extracts
// <table> elements. Script and style content is dropped.
type HTMLLoader struct{}

func (HTMLLoader) Name() string { return "html" }

func (HTMLLoader) CanHandle(t FileType) bool { return t == FileTypeHTML }

func (HTMLLoader) Load(ctx context.Context, path string) (Content, error) {
	raw, enc, err := readText(ctx, path)
	if err != nil {
		return Content{}, err
	}
	text, tables, err := ParseHTML(raw)
	if err != nil {
		return Content{}, err
	}
	return Content{Text: text, Tables: tables, Metadata: map[string]any{"encoding": enc}}, nil
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Tr: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Section: true, atom.Article: true, atom.Header: true,
	atom.Footer: true, atom.Form: true, atom.Label: true, atom.Dt: true, atom.Dd: true,
	atom.Title: true,
}

// ParseHTML returns the visible text of a document and its tables.
// Entities are decoded and whitespace inside a line is collapsed.
func ParseHTML(raw string) (string, [][][]string, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", nil, fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	var tables [][][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			case atom.Table:
				if t := htmlTable(n); len(t) > 0 {
					tables = append(tables, t)
				}
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.DataAtom] {
			b.WriteByte('\n')
		}
	}
	walk(doc)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), tables, nil
}

// htmlTable collects the th/td text of each row, skipping nested tables
func htmlTable(table *html.Node) [][]string {
	var rows [][]string
	var walkRows func(n *html.Node)
	walkRows = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				continue
			case atom.Tr:
				var row []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.DataAtom == atom.Td || cell.DataAtom == atom.Th) {
						row = append(row, nodeText(cell))
					}
				}
				if len(row) > 0 {
					rows = append(rows, row)
				}
			default:
				walkRows(c)
			}
		}
	}
	walkRows(table)
	return rows
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
