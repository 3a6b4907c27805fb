package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-form-agent/internal/agent"
	"github.com/a3tai/mcp-form-agent/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

// app carries the state shared by every subcommand
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	service *agent.Service
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "formctl",
		Short: "Extract, classify and query forms",
		Long: `formctl loads forms (text, PDF, JSON, CSV, HTML, Markdown, Excel), extracts
typed fields and tables, classifies the form type and answers questions.

Every option can also be set through MCP_FORM_* environment variables,
the same ones the MCP server reads.`,
		Version:            version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.open,
		PersistentPostRunE: a.close,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	fs := root.PersistentFlags()
	config.RegisterFlags(fs, a.v)
	// server-only options
	for _, name := range []string{"mode", "host", "port"} {
		_ = fs.MarkHidden(name)
	}
	// quieter by default than the server
	if f := fs.Lookup("log-level"); f != nil {
		f.DefValue = "warn"
		_ = f.Value.Set("warn")
	}
	a.v.SetDefault("log-level", "warn")

	root.AddCommand(
		newProcessCmd(a),
		newFieldsCmd(a),
		newTablesCmd(a),
		newQueryCmd(a),
		newSummarizeCmd(a),
		newAnalyzeCmd(a),
		newCompareCmd(a),
		newClassifyCmd(a),
	)
	return root
}

// open builds the service from flags and environment
func (a *app) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelWarn
	_ = level.UnmarshalText([]byte(cfg.LogLevel))
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	service, err := agent.Open(cmd.Context(), cfg, a.logger)
	if err != nil {
		return fmt.Errorf("open form service: %w", err)
	}
	a.service = service
	return nil
}

func (a *app) close(_ *cobra.Command, _ []string) error {
	if a.service == nil {
		return nil
	}
	err := a.service.Close()
	a.service = nil
	return err
}
