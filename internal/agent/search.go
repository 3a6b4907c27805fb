package agent

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/a3tai/mcp-form-agent/internal/source"
)

// FileInfo describes a loadable file found on disk
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	FileType     string `json:"file_type"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// SearchResult lists files matching a search
type SearchResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
	Truncated   bool       `json:"truncated,omitempty"`
}

// scanner walks a directory tree for supported files with depth, count and
// time limits. Hidden entries and symlinks are skipped.
type scanner struct {
	maxDepth    int
	fileLimit   int
	timeLimit   time.Duration
	maxFileSize int64
}

func (s scanner) scan(ctx context.Context, root, query string) ([]FileInfo, bool, error) {
	start := time.Now()
	query = strings.ToLower(strings.TrimSpace(query))
	files := []FileInfo{}
	truncated := false

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, the walk goes on
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if s.timeLimit > 0 && time.Since(start) > s.timeLimit {
			truncated = true
			return filepath.SkipAll
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if s.maxDepth > 0 && path != root && depth(root, path) >= s.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		fileType, ok := source.TypeFromExtension(d.Name())
		if !ok || fileType == source.FileTypeImage {
			return nil
		}
		if !matchesQuery(d.Name(), query) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if s.maxFileSize > 0 && info.Size() > s.maxFileSize {
			return nil
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         d.Name(),
			FileType:     string(fileType),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		if s.fileLimit > 0 && len(files) >= s.fileLimit {
			truncated = true
			return filepath.SkipAll
		}
		return nil
	})
	return files, truncated, err
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// matchesQuery performs fuzzy matching on the file name: a substring match,
// or every query word contained in some word of the name
func matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}

	name := strings.ToLower(filename)
	if strings.Contains(name, query) {
		return true
	}

	words := splitWords(strings.TrimSuffix(name, filepath.Ext(name)))
	for _, q := range splitWords(query) {
		found := false
		for _, w := range words {
			if strings.Contains(w, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// dirCache keeps directory listings for server info responses
type dirCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]dirEntry
	now     func() time.Time
}

type dirEntry struct {
	files     []FileInfo
	truncated bool
	updated   time.Time
}

func newDirCache(ttl time.Duration) *dirCache {
	return &dirCache{ttl: ttl, entries: make(map[string]dirEntry), now: time.Now}
}

func (c *dirCache) get(dir string) (dirEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[dir]
	if !ok || c.now().Sub(e.updated) > c.ttl {
		return dirEntry{}, false
	}
	return e, true
}

func (c *dirCache) set(dir string, files []FileInfo, truncated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[dir] = dirEntry{files: files, truncated: truncated, updated: c.now()}
}

func (c *dirCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
