package mcp

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-form-agent/internal/agent"
	"github.com/a3tai/mcp-form-agent/internal/intelligence"
)

// maxListedFiles limits directory listings in server info
const maxListedFiles = 10

func displayName(schemaType string) string {
	return intelligence.DisplayName(schemaType)
}

func formatSearchResult(result *agent.SearchResult) string {
	text := fmt.Sprintf("Found %d form(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	if result.Truncated {
		text += "Results truncated; narrow the query or directory to see more\n"
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Type: %s\n", file.FileType)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func formatAnswer(answer string, confidence float64, sources []string, context string) string {
	text := fmt.Sprintf("Answer: %s\n", answer)
	text += fmt.Sprintf("Confidence: %.2f\n", confidence)
	if len(sources) > 0 {
		text += fmt.Sprintf("Sources: %s\n", strings.Join(sources, ", "))
	}
	if confidence < 0.5 {
		text += "\n⚠️  Low confidence: verify against the context below or with 'form_fields'.\n"
	}
	if context != "" {
		text += "\nContext:\n" + context
	}
	return text
}

func formatServerInfo(result *agent.ServerInfo) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🔎 Retrieval: %s\n", result.RetrievalStrategy)
	text += fmt.Sprintf("🗂️  Documents Loaded: %d\n\n", result.DocumentsLoaded)

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d forms found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= maxListedFiles {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-maxListedFiles)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No forms found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	if len(result.SupportedFormats) > 0 {
		text += fmt.Sprintf("\n📄 Supported File Types: %s\n", strings.Join(result.SupportedFormats, ", "))
	}
	if len(result.ExportFormats) > 0 {
		text += fmt.Sprintf("📤 Export Formats: %s\n", strings.Join(result.ExportFormats, ", "))
	}
	if len(result.SchemaTypes) > 0 {
		text += fmt.Sprintf("🏷️  Form Types: %s\n", strings.Join(result.SchemaTypes, ", "))
	}

	text += "\n" + result.UsageGuidance

	return text
}
