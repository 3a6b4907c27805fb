package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newCompareCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare <first> <second>",
		Short: "Compare two forms field by field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmp, err := a.service.Compare(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, cmp)
			}

			fmt.Fprintf(out, "Same form type: %t\n", cmp.SameSchema)
			fmt.Fprintf(out, "Common fields:  %v\n", cmp.CommonFields)
			fmt.Fprintf(out, "Only in %s: %v\n", args[0], cmp.OnlyInFirst)
			fmt.Fprintf(out, "Only in %s: %v\n", args[1], cmp.OnlyInSecond)

			if len(cmp.Differences) > 0 {
				names := make([]string, 0, len(cmp.Differences))
				for name := range cmp.Differences {
					names = append(names, name)
				}
				sort.Strings(names)

				fmt.Fprintln(out, "\nDifferences:")
				for _, name := range names {
					d := cmp.Differences[name]
					fmt.Fprintf(out, "  %s: %s -> %s\n", name, d.First.String(), d.Second.String())
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the comparison as JSON")
	return cmd
}
