package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSummarizeCmd(a *app) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "summarize <file>...",
		Short: "Summarize one form, or several forms together",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) > 1 {
				text, err := a.service.SummarizeMultiple(ctx, args)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
				return nil
			}

			summary, err := a.service.Summarize(ctx, args[0], style)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, summary.FullText)
			return nil
		},
	}

	cmd.Flags().StringVarP(&style, "style", "s", "bullets", "Summary style for a single form: bullets or narrative")
	return cmd
}
