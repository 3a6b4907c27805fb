package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-form-agent/internal/export"
)

func newProcessCmd(a *app) *cobra.Command {
	var flags struct {
		format string
		outDir string
		json   bool
	}

	cmd := &cobra.Command{
		Use:   "process <file>...",
		Short: "Load forms, extract fields and tables, and classify them",
		Long: `Process loads each file, extracts typed fields and tables and classifies the
form. Without --format it prints one line per form. With --format each form
is exported; --out-dir writes one file per form (inside --dir), otherwise
text formats are printed.

Usage:
  formctl process w2.pdf claim.txt
  formctl process --format markdown w2.pdf
  formctl process --format xlsx --out-dir exports *.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			docs, err := a.service.LoadForms(ctx, args)
			if err != nil {
				return err
			}

			if flags.format == "" {
				if flags.json {
					summaries := make([]any, len(docs))
					for i, doc := range docs {
						summaries[i] = doc.Summarize()
					}
					return printJSON(out, summaries)
				}
				return printDocuments(out, docs)
			}

			format, err := export.ParseFormat(flags.format)
			if err != nil {
				return err
			}
			if format.Binary() && flags.outDir == "" {
				return fmt.Errorf("%s export needs --out-dir", format)
			}

			for _, doc := range docs {
				outputPath := ""
				if flags.outDir != "" {
					base := strings.TrimSuffix(filepath.Base(doc.Path), filepath.Ext(doc.Path))
					outputPath = filepath.Join(flags.outDir, base+format.Extension())
				}
				result, err := a.service.Export(ctx, doc.ID, string(format), outputPath)
				if err != nil {
					return err
				}
				if result.OutputPath != "" {
					fmt.Fprintf(out, "wrote %s (%d bytes)\n", result.OutputPath, result.Bytes)
					continue
				}
				fmt.Fprintln(out, result.Content)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.format, "format", "f", "", "Export format: json, csv, markdown or xlsx")
	f.StringVarP(&flags.outDir, "out-dir", "o", "", "Directory for exported files, relative to --dir")
	f.BoolVar(&flags.json, "json", false, "Print document summaries as JSON")
	return cmd
}
