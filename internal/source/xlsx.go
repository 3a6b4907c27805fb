package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXLoader turns each sheet into a table and renders the text as one
// pipe-joined line per row under a sheet heading
type XLSXLoader struct{}

func (XLSXLoader) Name() string { return "xlsx" }

func (XLSXLoader) CanHandle(t FileType) bool { return t == FileTypeXLSX }

func (XLSXLoader) Load(ctx context.Context, path string) (Content, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var (
		lines  []string
		tables [][][]string
		sheets = f.GetSheetList()
	)
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return Content{}, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return Content{}, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		var table [][]string
		for _, row := range rows {
			if strings.TrimSpace(strings.Join(row, "")) == "" {
				continue
			}
			table = append(table, row)
		}
		if len(table) == 0 {
			continue
		}

		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "Sheet: "+sheet)
		for _, row := range table {
			lines = append(lines, pipeRow(row))
		}
		tables = append(tables, table)
	}

	return Content{
		Text:     strings.Join(lines, "\n"),
		Tables:   tables,
		Metadata: map[string]any{"sheets": sheets},
	}, nil
}
