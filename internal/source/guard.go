package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Guard keeps file access inside one directory and under a size limit
type Guard struct {
	dir         string
	maxFileSize int64
}

// NewGuard creates a guard rooted at dir. A maxFileSize of zero or less
// disables the size check.
func NewGuard(dir string, maxFileSize int64) (*Guard, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &Guard{dir: dir, maxFileSize: maxFileSize}, nil
}

// Dir returns the configured directory
func (g *Guard) Dir() string {
	return g.dir
}

// MaxFileSize returns the size limit in bytes
func (g *Guard) MaxFileSize() int64 {
	return g.maxFileSize
}

// Resolve sanitizes a path, anchors relative paths at the configured
// directory and checks that the result stays inside it
func (g *Guard) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(g.dir, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	within, err := g.IsWithin(absPath)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return "", fmt.Errorf("%w: %s", ErrOutsideDirectory, path)
	}
	return absPath, nil
}

// IsWithin reports whether path is inside the configured directory. Both
// the path and the directory are compared as given and with symlinks
// resolved, and both forms must pass. A directory that does not exist yet
// admits every path.
func (g *Guard) IsWithin(path string) (bool, error) {
	if _, err := os.Stat(g.dir); errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(g.dir)
	if err != nil {
		return false, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(absDir)

	realPath := cleanPath
	if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
		realPath = resolved
	}
	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	inside := func(p string) bool {
		return isUnder(p, cleanDir) || isUnder(p, realDir)
	}
	return inside(cleanPath) && inside(realPath), nil
}

func isUnder(path, dir string) bool {
	if path == dir {
		return true
	}
	withSep := dir
	if !strings.HasSuffix(withSep, string(filepath.Separator)) {
		withSep += string(filepath.Separator)
	}
	return strings.HasPrefix(path, withSep)
}

// Check verifies that a resolved path is an existing regular file within the
// size limit
func (g *Guard) Check(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: path is a directory, not a file: %s", ErrInvalidPath, path)
	}
	if g.maxFileSize > 0 && info.Size() > g.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max: %d bytes)", ErrFileTooLarge, info.Size(), g.maxFileSize)
	}
	return info, nil
}
