package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	maxPDFTextSize = 10 * 1024 * 1024
	pageSeparator  = "\n\n--- Page Break ---\n\n"
)

// PDFLoader reads page text and appends filled AcroForm values as
// "Name: value" lines so they reach field extraction. A PDF with neither
// text nor form values is reported as unsupported, since it needs OCR.
type PDFLoader struct {
	logger *slog.Logger
}

// NewPDFLoader creates a PDF loader
func NewPDFLoader(logger *slog.Logger) *PDFLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFLoader{logger: logger}
}

func (l *PDFLoader) Name() string { return "pdf" }

func (l *PDFLoader) CanHandle(t FileType) bool { return t == FileTypePDF }

func (l *PDFLoader) Load(ctx context.Context, path string) (Content, error) {
	text, pages, err := pdfText(ctx, path)
	if err != nil {
		return Content{}, err
	}

	formFields, err := ReadFormFields(path)
	if err != nil {
		// text is still usable without form values
		l.logger.Debug("source.pdf.acroform_error", "path", path, "error", err)
	}

	var lines []string
	for _, f := range formFields {
		if f.Value != "" {
			lines = append(lines, f.Name+": "+f.Value)
		}
	}
	if len(lines) > 0 {
		if text != "" {
			text += "\n\n"
		}
		text += strings.Join(lines, "\n")
	}

	if strings.TrimSpace(text) == "" {
		return Content{}, fmt.Errorf("%w: PDF has no extractable text (scanned document?)", ErrUnsupportedFormat)
	}

	return Content{
		Text: text,
		Metadata: map[string]any{
			"pages":       pages,
			"form_fields": len(formFields),
		},
	}, nil
}

func pdfText(ctx context.Context, path string) (string, int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	total := reader.NumPage()
	for pageNum := 1; pageNum <= total; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(pageSeparator)
		}
		b.WriteString(pageText)
		if b.Len() > maxPDFTextSize {
			return "", 0, fmt.Errorf("%w: text content exceeds %d bytes", ErrFileTooLarge, maxPDFTextSize)
		}
	}
	return b.String(), total, nil
}
