package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-form-agent/internal/qa"
)

func newQueryCmd(a *app) *cobra.Command {
	var flags struct {
		question    string
		showContext bool
		json        bool
	}

	cmd := &cobra.Command{
		Use:   "query <file>... --question <text>",
		Short: "Answer a question about one or more forms",
		Long: `Query answers a natural-language question. With several files the answer
draws on all of them. Answers are template based; check the confidence.

Usage:
  formctl query w2.pdf -q "How much federal tax was withheld?"
  formctl query jan.txt feb.txt -q "What is the total amount?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.question == "" {
				return errors.New("--question is required")
			}
			ctx := cmd.Context()

			var (
				answer *qa.Answer
				err    error
			)
			if len(args) == 1 {
				answer, err = a.service.Ask(ctx, args[0], flags.question)
			} else {
				answer, err = a.service.AskMultiple(ctx, args, flags.question)
			}
			if err != nil {
				return err
			}

			if flags.json {
				return printJSON(cmd.OutOrStdout(), answer)
			}
			printAnswer(cmd.OutOrStdout(), answer, flags.showContext)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.question, "question", "q", "", "Question to answer (required)")
	f.BoolVar(&flags.showContext, "context", false, "Print the context the answer was drawn from")
	f.BoolVar(&flags.json, "json", false, "Print the answer as JSON")
	return cmd
}
