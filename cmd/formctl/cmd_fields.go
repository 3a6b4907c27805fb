package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFieldsCmd(a *app) *cobra.Command {
	var flags struct {
		confidence bool
		json       bool
	}

	cmd := &cobra.Command{
		Use:   "fields <file>",
		Short: "Print the typed fields extracted from a form",
		Long: `Fields prints every extracted field with its inferred kind. With
--confidence it prints each labelled match instead, scored from 0 to 1 and
ordered best first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.service.Fields(cmd.Context(), args[0], flags.confidence)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flags.json {
				return printJSON(out, result)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			if flags.confidence {
				fmt.Fprintln(tw, "CONFIDENCE\tNAME\tVALUE")
				for _, m := range result.Matches {
					fmt.Fprintf(tw, "%.2f\t%s\t%s\n", m.Confidence, m.Name, m.Value)
				}
				return tw.Flush()
			}
			fmt.Fprintln(tw, "NAME\tKIND\tVALUE")
			for name, value := range result.Fields.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, value.Kind, value.String())
			}
			return tw.Flush()
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.confidence, "confidence", false, "Print scored label matches")
	f.BoolVar(&flags.json, "json", false, "Print the result as JSON")
	return cmd
}
