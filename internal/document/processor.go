package document

import (
	"context"
	"log/slog"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-form-agent/internal/extraction"
	"github.com/a3tai/mcp-form-agent/internal/intelligence"
	"github.com/a3tai/mcp-form-agent/internal/source"
)

// Processor turns loaded content into documents
type Processor struct {
	extractor  *extraction.Extractor
	classifier *intelligence.Classifier
	logger     *slog.Logger
	now        func() time.Time
}

// NewProcessor creates a processor. A nil classifier uses the default
// catalog.
func NewProcessor(classifier *intelligence.Classifier, logger *slog.Logger) *Processor {
	if classifier == nil {
		classifier = intelligence.NewClassifier()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		extractor:  extraction.NewExtractor(),
		classifier: classifier,
		logger:     logger,
		now:        time.Now,
	}
}

// Extractor returns the field extractor
func (p *Processor) Extractor() *extraction.Extractor {
	return p.extractor
}

// Classifier returns the classifier documents are typed with
func (p *Processor) Classifier() *intelligence.Classifier {
	return p.classifier
}

// Process extracts fields, classifies and scores one loaded file. Only
// context cancellation fails.
func (p *Processor) Process(ctx context.Context, content source.Content) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := p.extractor.Extract(content.Text)

	match, err := p.classifier.Classify(ctx, content.Text, fields)
	if err != nil {
		return nil, err
	}

	metadata := make(map[string]any, len(content.Metadata))
	for k, v := range content.Metadata {
		metadata[k] = v
	}

	doc := &Document{
		ID:                   uuid.New().String(),
		Path:                 content.Path,
		FileType:             string(content.FileType),
		RawText:              content.Text,
		Fields:               fields,
		Tables:               content.Tables,
		Metadata:             metadata,
		ExtractionConfidence: ExtractionConfidence(fields.Len(), content.Text),
		ProcessedAt:          p.now().UTC(),
	}
	if doc.Tables == nil {
		doc.Tables = [][][]string{}
	}
	if match != nil {
		doc.SchemaType = match.SchemaType
		doc.Schema = match
	}

	p.logger.Debug("document.process",
		"id", doc.ID,
		"path", doc.Path,
		"fields", fields.Len(),
		"tables", len(doc.Tables),
		"schema_type", doc.SchemaType,
		"confidence", doc.ExtractionConfidence,
	)
	return doc, nil
}

// ExtractionConfidence scores how trustworthy an extraction is from the
// amount of text, the number of fields found and the share of letters in
// the text (low for OCR noise)
func ExtractionConfidence(fieldCount int, text string) float64 {
	if text == "" {
		return 0
	}
	length := utf8.RuneCountInString(text)

	var alpha int
	for _, r := range text {
		if unicode.IsLetter(r) {
			alpha++
		}
	}

	textQuality := min(1, float64(length)/500)
	fieldBoost := min(0.3, float64(fieldCount)*0.03)
	alphaRatio := float64(alpha) / float64(max(1, length))
	quality := min(1, alphaRatio*2)

	return min(1, textQuality*0.4+fieldBoost+quality*0.3)
}
