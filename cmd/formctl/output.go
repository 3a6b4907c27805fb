package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/a3tai/mcp-form-agent/internal/document"
	"github.com/a3tai/mcp-form-agent/internal/qa"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDocuments(w io.Writer, docs []*document.Document) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tTYPE\tFIELDS\tTABLES\tCONFIDENCE")
	for _, doc := range docs {
		schemaType := doc.SchemaType
		if schemaType == "" {
			schemaType = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.2f\n",
			doc.ID, doc.Path, schemaType, doc.Fields.Len(), len(doc.Tables), doc.ExtractionConfidence)
	}
	return tw.Flush()
}

func printAnswer(w io.Writer, answer *qa.Answer, withContext bool) {
	fmt.Fprintf(w, "Answer:     %s\n", answer.Answer)
	fmt.Fprintf(w, "Confidence: %.2f\n", answer.Confidence)
	if len(answer.SourceFields) > 0 {
		fmt.Fprintf(w, "Sources:    %s\n", strings.Join(answer.SourceFields, ", "))
	}
	if withContext && answer.Context != "" {
		fmt.Fprintf(w, "\nContext:\n%s\n", answer.Context)
	}
}
