// Package source turns files on disk into plain text plus raw tables, the
// only input the extraction pipeline understands.
package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileType identifies how a file's content is read
type FileType string

const (
	FileTypeText     FileType = "txt"
	FileTypePDF      FileType = "pdf"
	FileTypeJSON     FileType = "json"
	FileTypeCSV      FileType = "csv"
	FileTypeHTML     FileType = "html"
	FileTypeMarkdown FileType = "markdown"
	FileTypeXML      FileType = "xml"
	FileTypeXLSX     FileType = "xlsx"
	FileTypeImage    FileType = "image"
)

var (
	// ErrUnsupportedFormat is returned for content no loader can read,
	// raster images included
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrFileTooLarge is returned when a file exceeds the size limit
	ErrFileTooLarge = errors.New("file too large")
	// ErrOutsideDirectory is returned for paths escaping the configured directory
	ErrOutsideDirectory = errors.New("path is outside configured directory")
	// ErrNotFound is returned when the file does not exist
	ErrNotFound = errors.New("file does not exist")
	// ErrInvalidPath is returned for empty paths and directories
	ErrInvalidPath = errors.New("invalid path")
)

// Content is what a loader produces for one file
type Content struct {
	Path     string         `json:"path"`
	FileType FileType       `json:"file_type"`
	Text     string         `json:"text"`
	Tables   [][][]string   `json:"tables,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Loader reads one family of file types
type Loader interface {
	Name() string
	CanHandle(t FileType) bool
	Load(ctx context.Context, path string) (Content, error)
}

var extensionTypes = map[string]FileType{
	".txt":      FileTypeText,
	".text":     FileTypeText,
	".pdf":      FileTypePDF,
	".json":     FileTypeJSON,
	".csv":      FileTypeCSV,
	".html":     FileTypeHTML,
	".htm":      FileTypeHTML,
	".md":       FileTypeMarkdown,
	".markdown": FileTypeMarkdown,
	".xml":      FileTypeXML,
	".xlsx":     FileTypeXLSX,
	".png":      FileTypeImage,
	".jpg":      FileTypeImage,
	".jpeg":     FileTypeImage,
	".tif":      FileTypeImage,
	".tiff":     FileTypeImage,
	".bmp":      FileTypeImage,
	".gif":      FileTypeImage,
}

var magicTypes = []struct {
	prefix []byte
	t      FileType
}{
	{[]byte("%PDF"), FileTypePDF},
	{[]byte("PK\x03\x04"), FileTypeXLSX},
	{[]byte("\x89PNG"), FileTypeImage},
	{[]byte("\xff\xd8\xff"), FileTypeImage},
	{[]byte("GIF8"), FileTypeImage},
	{[]byte("II*\x00"), FileTypeImage},
	{[]byte("MM\x00*"), FileTypeImage},
}

// DetectFileType resolves a file's type from its extension, falling back to
// the first bytes of the file and finally to plain text
func DetectFileType(path string) FileType {
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}

	f, err := os.Open(path)
	if err != nil {
		return FileTypeText
	}
	defer f.Close()

	head := make([]byte, 8)
	n, _ := io.ReadFull(f, head)
	return SniffFileType(head[:n])
}

// TypeFromExtension maps a file name's extension to a file type
func TypeFromExtension(name string) (FileType, bool) {
	t, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]
	return t, ok
}

// SupportedExtensions lists the extensions a loader can read, sorted
func SupportedExtensions() []string {
	var out []string
	for ext, t := range extensionTypes {
		if t != FileTypeImage {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

// SniffFileType inspects leading bytes
func SniffFileType(head []byte) FileType {
	for _, m := range magicTypes {
		if bytes.HasPrefix(head, m.prefix) {
			return m.t
		}
	}
	return FileTypeText
}
