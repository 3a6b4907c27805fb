package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/a3tai/mcp-form-agent/internal/descriptions"
	"github.com/a3tai/mcp-form-agent/internal/export"
	"github.com/a3tai/mcp-form-agent/internal/source"
)

// ServerInfo reports capabilities, limits and the files available in the
// configured directory. Directory listings are cached for five minutes and
// scans are bounded in depth, count and time.
func (s *Service) ServerInfo(ctx context.Context, serverName, version string) (*ServerInfo, error) {
	dir := s.Dir()

	entry, cached := s.dirCache.get(dir)
	if !cached {
		scanCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		files, truncated, err := s.scanner.scan(scanCtx, dir, "")
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// a failed scan still yields server info
			s.logger.Debug("agent.server_info.scan_failed", "dir", dir, "error", err)
			files, truncated = []FileInfo{}, false
		}
		s.dirCache.set(dir, files, truncated)
		entry = dirEntry{files: files, truncated: truncated}
	}

	loaded := 0
	if docs, err := s.store.List(ctx); err == nil {
		loaded = len(docs)
	}

	formats := export.Formats()
	exportFormats := make([]string, len(formats))
	for i, f := range formats {
		exportFormats[i] = string(f)
	}

	return &ServerInfo{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  dir,
		MaxFileSize:       s.MaxFileSize(),
		RetrievalStrategy: s.retriever.StrategyName(),
		SupportedFormats:  source.SupportedExtensions(),
		ExportFormats:     exportFormats,
		SchemaTypes:       s.classifier.Catalog().Types(),
		DocumentsLoaded:   loaded,
		AvailableTools:    descriptions.Tools(),
		DirectoryContents: entry.files,
		Truncated:         entry.truncated,
		UsageGuidance:     s.usageGuidance(),
	}, nil
}

// ClearCache drops cached directory listings
func (s *Service) ClearCache() {
	s.dirCache.clear()
}

func (s *Service) usageGuidance() string {
	return fmt.Sprintf(`Form Agent Usage Guide:

1. DISCOVER:
   - Use 'form_search' to find forms in the configured directory
   - Use 'form_list' to see documents already loaded

2. LOAD:
   - Use 'form_load' with a path; the response carries the document id
   - Every other tool accepts either the id or the path (paths load on demand)

3. INSPECT:
   - 'form_fields' for typed key/value data
   - 'form_tables' for normalized tables
   - 'form_classify' and 'form_validate' for form type and completeness

4. ASK:
   - 'form_ask' for one document, 'form_ask_multiple' across documents
   - 'form_retrieve' shows the passages an answer would draw on
   - Check the confidence of every answer; answers are template based

5. AGGREGATE AND REPORT:
   - 'form_analyze' for totals, averages and shared fields across forms
   - 'form_summarize' and 'form_compare' for overviews and differences
   - 'form_export' for json, csv, markdown or xlsx output

IMPORTANT NOTES:
- Paths must stay inside %s
- Files up to %dMB are accepted
- Images need OCR and are not supported`, s.Dir(), s.MaxFileSize()/(1024*1024))
}
