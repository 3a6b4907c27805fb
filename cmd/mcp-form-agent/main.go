package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-form-agent/internal/agent"
	"github.com/a3tai/mcp-form-agent/internal/config"
	"github.com/a3tai/mcp-form-agent/internal/mcp"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the process logger for the configured mode. In stdio
// mode stdout carries the MCP protocol, so logs go to stderr and only when
// debug is enabled.
func setupLogging(cfg *config.Config, stderr io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	var handler slog.Handler
	switch {
	case cfg.IsStdioMode() && !cfg.IsDebug():
		handler = slog.NewTextHandler(io.Discard, nil)
	case cfg.IsStdioMode():
		handler = slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level, AddSource: cfg.IsDebug()})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	// libraries that use the standard logger must not write to stdout
	log.SetOutput(stderr)
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		log.SetOutput(io.Discard)
	}
	return logger
}

// versionRequested checks for a version flag before other flags are parsed
func versionRequested(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// run serves until the input closes, the server fails or a signal arrives
func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	service, err := agent.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create form service: %w", err)
	}
	defer func() {
		if err := service.Close(); err != nil {
			logger.Warn("server.store_close_failed", "error", err)
		}
	}()

	server, err := mcp.NewServer(cfg, service, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	logger.Info("server.start", "mode", cfg.Mode, "version", cfg.Version, "config", cfg.String())
	if err := server.Run(ctx); err != nil {
		return err
	}
	logger.Info("server.stopped")
	return nil
}

func main() {
	if versionRequested(os.Args[1:]) {
		printVersion(os.Stdout)
		return
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg, os.Stderr)

	if err := run(cfg, logger); err != nil {
		logger.Error("server.failed", "error", err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP Form Agent\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
