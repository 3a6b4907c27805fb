package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newTablesCmd(a *app) *cobra.Command {
	var flags struct {
		aggregate string
		column    string
		json      bool
	}

	cmd := &cobra.Command{
		Use:   "tables <file>",
		Short: "Print normalized tables, their totals, or a column aggregate",
		Long: `Tables prints every table of a form as a pipe table followed by the rows
labelled as totals. With --aggregate it computes sum, avg, min, max or count
of --column in each table that has it.

Usage:
  formctl tables invoice.csv
  formctl tables invoice.csv --aggregate sum --column Amount`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if flags.aggregate != "" {
				result, err := a.service.AggregateTables(ctx, args[0], flags.column, flags.aggregate)
				if err != nil {
					return err
				}
				if flags.json {
					return printJSON(out, result)
				}
				if len(result.Values) == 0 {
					fmt.Fprintf(out, "no numeric column %q\n", result.Column)
					return nil
				}
				for _, v := range result.Values {
					fmt.Fprintf(out, "Table %d %s(%s) = %g\n", v.Table+1, result.Operation, result.Column, v.Value)
				}
				return nil
			}

			result, err := a.service.Tables(ctx, args[0])
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(out, result)
			}
			if result.Count == 0 {
				fmt.Fprintln(out, "no tables found")
				return nil
			}
			for i, t := range result.Tables {
				fmt.Fprintf(out, "Table %d (%s)\n%s\n", i+1, t.Type, t.Markdown())
			}
			if len(result.Totals) > 0 {
				fmt.Fprintln(out, "Totals:")
				for _, total := range result.Totals {
					columns := make([]string, 0, len(total.Values))
					for column := range total.Values {
						columns = append(columns, column)
					}
					sort.Strings(columns)
					for _, column := range columns {
						fmt.Fprintf(out, "  Table %d %s %s: %g\n", total.Table+1, total.Label, column, total.Values[column])
					}
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.aggregate, "aggregate", "", "Aggregate operation: sum, avg, min, max or count")
	f.StringVar(&flags.column, "column", "", "Column to aggregate")
	f.BoolVar(&flags.json, "json", false, "Print the result as JSON")
	return cmd
}
