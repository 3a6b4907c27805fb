package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/a3tai/mcp-form-agent/internal/export"
	"github.com/a3tai/mcp-form-agent/internal/source"
	"github.com/a3tai/mcp-form-agent/internal/store"
)

// ErrorType categorizes agent failures for callers such as the MCP layer
type ErrorType string

const (
	ErrorInvalidInput      ErrorType = "invalid_input"
	ErrorNotFound          ErrorType = "not_found"
	ErrorUnsupportedFormat ErrorType = "unsupported_format"
	ErrorFileTooLarge      ErrorType = "file_too_large"
	ErrorOutsideDirectory  ErrorType = "outside_directory"
	ErrorStorage           ErrorType = "storage"
	ErrorInternal          ErrorType = "internal"
)

// Error is returned by every Service operation that fails
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Path    string    `json:"path,omitempty"`
	Err     error     `json:"-"`
}

// Sentinels for errors.Is; they match any Error of the same type
var (
	ErrInvalidInput      = &Error{Type: ErrorInvalidInput}
	ErrNotFound          = &Error{Type: ErrorNotFound}
	ErrUnsupportedFormat = &Error{Type: ErrorUnsupportedFormat}
	ErrFileTooLarge      = &Error{Type: ErrorFileTooLarge}
	ErrOutsideDirectory  = &Error{Type: ErrorOutsideDirectory}
	ErrStorage           = &Error{Type: ErrorStorage}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, msg, e.Path)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Err == nil && t.Type == e.Type
}

// TypeOf returns the error type of err, or ErrorInternal when err is not
// an agent error
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorInternal
}

func invalidInput(format string, args ...any) error {
	return &Error{Type: ErrorInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// wrapError classifies errors coming out of the lower layers
func wrapError(path string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}

	e := &Error{Path: path, Err: err, Message: err.Error()}
	switch {
	case errors.Is(err, source.ErrNotFound), errors.Is(err, store.ErrNotFound):
		e.Type = ErrorNotFound
	case errors.Is(err, source.ErrUnsupportedFormat), errors.Is(err, export.ErrUnsupportedFormat):
		e.Type = ErrorUnsupportedFormat
	case errors.Is(err, source.ErrFileTooLarge):
		e.Type = ErrorFileTooLarge
	case errors.Is(err, source.ErrOutsideDirectory):
		e.Type = ErrorOutsideDirectory
	case errors.Is(err, source.ErrInvalidPath):
		e.Type = ErrorInvalidInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		e.Type = ErrorInternal
	}
	return e
}

func storageError(err error) error {
	if err == nil || errors.Is(err, store.ErrNotFound) {
		return wrapError("", err)
	}
	return &Error{Type: ErrorStorage, Message: err.Error(), Err: err}
}
