package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-form-agent/internal/agent"
)

func newClassifyCmd(a *app) *cobra.Command {
	var flags struct {
		all  bool
		json bool
	}

	cmd := &cobra.Command{
		Use:   "classify <file>...",
		Short: "Detect the form type of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			results := make([]*agent.ClassifyResult, 0, len(args))
			for _, ref := range args {
				result, err := a.service.Classify(ctx, ref)
				if err != nil {
					return err
				}
				results = append(results, result)
			}

			out := cmd.OutOrStdout()
			if flags.json {
				return printJSON(out, results)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tTYPE\tCONFIDENCE\tINDICATORS")
			for _, r := range results {
				if r.Best == nil {
					fmt.Fprintf(tw, "%s\t-\t-\t-\n", r.Path)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n",
					r.Path, r.Best.SchemaType, r.Best.Confidence, strings.Join(r.Best.MatchedIndicators, ", "))
				if flags.all {
					for _, c := range r.Candidates[min(1, len(r.Candidates)):] {
						fmt.Fprintf(tw, "\t%s\t%.2f\t%s\n",
							c.SchemaType, c.Confidence, strings.Join(c.MatchedIndicators, ", "))
					}
				}
			}
			return tw.Flush()
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.all, "all", false, "Also list the other candidate types")
	f.BoolVar(&flags.json, "json", false, "Print results as JSON")
	return cmd
}
