package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-form-agent/internal/qa"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var flags struct {
		question string
		json     bool
	}

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Analyze forms together: shared fields, totals and averages",
		Long: `Analyze compares forms: the fields they share, the form types
present, and count, sum, average, min and max of every numeric field found
in more than one form.

Usage:
  formctl analyze payroll/*.txt -q "What is the average salary?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis, err := a.service.Analyze(cmd.Context(), args, flags.question)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), analysis)
			}
			printAnalysis(cmd, analysis)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.question, "question", "q", "", "Question to answer over all forms")
	f.BoolVar(&flags.json, "json", false, "Print the analysis as JSON")
	return cmd
}

func printAnalysis(cmd *cobra.Command, analysis *qa.Analysis) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Documents:     %d\n", analysis.TotalDocuments)
	fmt.Fprintf(out, "Form types:    %v\n", analysis.SchemaTypes)
	fmt.Fprintf(out, "Common fields: %v\n", analysis.CommonFields)

	if len(analysis.FieldSummary) > 0 {
		names := make([]string, 0, len(analysis.FieldSummary))
		for name := range analysis.FieldSummary {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(out, "\nNumeric fields:")
		for _, name := range names {
			s := analysis.FieldSummary[name]
			fmt.Fprintf(out, "  %s: count=%d sum=%s avg=%s min=%s max=%s\n",
				name, s.Count, qa.Money(s.Sum), qa.Money(s.Average), qa.Money(s.Min), qa.Money(s.Max))
		}
	}

	if len(analysis.Insights) > 0 {
		fmt.Fprintln(out, "\nInsights:")
		for _, insight := range analysis.Insights {
			fmt.Fprintf(out, "  - %s\n", insight)
		}
	}
	if analysis.Answer != "" {
		fmt.Fprintf(out, "\nAnswer: %s\n", analysis.Answer)
	}
}
