package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Registry resolves a path through the guard and dispatches it to the
// first loader that handles its file type
type Registry struct {
	guard   *Guard
	loaders []Loader
	logger  *slog.Logger
}

// NewRegistry creates a registry with every built-in loader
func NewRegistry(guard *Guard, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		guard: guard,
		loaders: []Loader{
			NewPDFLoader(logger),
			XLSXLoader{},
			JSONLoader{},
			CSVLoader{},
			HTMLLoader{},
			MarkdownLoader{},
			TextLoader{},
		},
		logger: logger,
	}
}

// Register adds a loader ahead of the built-in ones
func (r *Registry) Register(l Loader) {
	r.loaders = append([]Loader{l}, r.loaders...)
}

// Guard returns the registry's path guard
func (r *Registry) Guard() *Guard {
	return r.guard
}

// Resolve returns the absolute, guarded form of path
func (r *Registry) Resolve(path string) (string, error) {
	return r.guard.Resolve(path)
}

// Loader returns the loader for a file type
func (r *Registry) Loader(t FileType) (Loader, bool) {
	for _, l := range r.loaders {
		if l.CanHandle(t) {
			return l, true
		}
	}
	return nil, false
}

// Load reads a file into cleaned text and raw tables. Metadata always
// carries file_path, file_type, file_size, char_count and line_count.
func (r *Registry) Load(ctx context.Context, path string) (Content, error) {
	start := time.Now()

	resolved, err := r.guard.Resolve(path)
	if err != nil {
		return Content{}, err
	}
	info, err := r.guard.Check(resolved)
	if err != nil {
		return Content{}, err
	}

	fileType := DetectFileType(resolved)
	if fileType == FileTypeImage {
		return Content{}, fmt.Errorf("%w: image files need OCR: %s", ErrUnsupportedFormat, path)
	}
	loader, ok := r.Loader(fileType)
	if !ok {
		return Content{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileType)
	}

	content, err := loader.Load(ctx, resolved)
	if err != nil {
		return Content{}, fmt.Errorf("%s loader: %w", loader.Name(), err)
	}

	content.Path = resolved
	content.FileType = fileType
	content.Text = strings.TrimSpace(Clean(content.Text))
	for _, table := range content.Tables {
		for _, row := range table {
			for i, cell := range row {
				row[i] = Clean(cell)
			}
		}
	}

	if content.Metadata == nil {
		content.Metadata = map[string]any{}
	}
	content.Metadata["file_path"] = resolved
	content.Metadata["file_type"] = string(fileType)
	content.Metadata["file_size"] = info.Size()
	content.Metadata["char_count"] = len([]rune(content.Text))
	content.Metadata["line_count"] = lineCount(content.Text)

	r.logger.Debug("source.load",
		"path", resolved,
		"loader", loader.Name(),
		"file_type", fileType,
		"chars", content.Metadata["char_count"],
		"tables", len(content.Tables),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
