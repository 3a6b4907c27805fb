package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strings"
)

func readText(ctx context.Context, path string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	text, enc := decodeText(data)
	return text, enc, nil
}

// TextLoader reads plain text and anything without a dedicated loader
type TextLoader struct{}

func (TextLoader) Name() string { return "text" }

func (TextLoader) CanHandle(t FileType) bool {
	return t == FileTypeText || t == FileTypeXML
}

func (TextLoader) Load(ctx context.Context, path string) (Content, error) {
	text, enc, err := readText(ctx, path)
	if err != nil {
		return Content{}, err
	}
	return Content{Text: text, Metadata: map[string]any{"encoding": enc}}, nil
}

// CSVLoader keeps the file text as is and turns the whole file into one
// table
type CSVLoader struct{}

func (CSVLoader) Name() string { return "csv" }

func (CSVLoader) CanHandle(t FileType) bool { return t == FileTypeCSV }

func (CSVLoader) Load(ctx context.Context, path string) (Content, error) {
	text, enc, err := readText(ctx, path)
	if err != nil {
		return Content{}, err
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return Content{}, fmt.Errorf("parse csv: %w", err)
	}

	c := Content{Text: text, Metadata: map[string]any{"encoding": enc}}
	if len(rows) > 0 {
		c.Tables = [][][]string{rows}
	}
	return c, nil
}

var markdownTableRe = regexp.MustCompile(`\|[^\n]+\|\n\|[-:\s|]+\|\n(?:\|[^\n]+\|\n?)+`)

// MarkdownLoader keeps the text and extracts pipe tables
type MarkdownLoader struct{}

func (MarkdownLoader) Name() string { return "markdown" }

func (MarkdownLoader) CanHandle(t FileType) bool { return t == FileTypeMarkdown }

func (MarkdownLoader) Load(ctx context.Context, path string) (Content, error) {
	text, enc, err := readText(ctx, path)
	if err != nil {
		return Content{}, err
	}
	return Content{
		Text:     text,
		Tables:   MarkdownTables(text),
		Metadata: map[string]any{"encoding": enc},
	}, nil
}

// MarkdownTables extracts pipe tables from markdown text. Separator rows are
// dropped; cells are the trimmed text between the outer pipes.
func MarkdownTables(text string) [][][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out [][][]string
	for _, block := range markdownTableRe.FindAllString(text, -1) {
		var table [][]string
		for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
			if strings.Contains(line, "---") {
				continue
			}
			parts := strings.Split(line, "|")
			if len(parts) < 3 {
				continue
			}
			cells := parts[1 : len(parts)-1]
			for i := range cells {
				cells[i] = strings.TrimSpace(cells[i])
			}
			table = append(table, cells)
		}
		if len(table) > 0 {
			out = append(out, table)
		}
	}
	return out
}

// pipeRow renders cells the way tables appear in flattened text
func pipeRow(cells []string) string {
	trimmed := make([]string, len(cells))
	for i, c := range cells {
		trimmed[i] = strings.TrimSpace(c)
	}
	return strings.Join(trimmed, " | ")
}
