package main

import (
	"bytes"
	"context"
	"log"
	"log/slog"
	"strings"
	"testing"

	"github.com/a3tai/mcp-form-agent/internal/config"
)

const testVersion = "1.2.3"

func TestPrintVersion(t *testing.T) {
	oldVersion := version
	oldBuildTime := buildTime
	oldGitCommit := gitCommit

	version = testVersion
	buildTime = "2023-12-01_10:30:00"
	gitCommit = "abc123"

	defer func() {
		version = oldVersion
		buildTime = oldBuildTime
		gitCommit = oldGitCommit
	}()

	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()

	expectedStrings := []string{
		"MCP Form Agent",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestSetupLogging(t *testing.T) {
	originalDefault := slog.Default()
	originalOutput := log.Writer()
	defer func() {
		slog.SetDefault(originalDefault)
		log.SetOutput(originalOutput)
	}()

	tests := []struct {
		name        string
		mode        string
		logLevel    string
		wantWritten bool
		wantDebug   bool
	}{
		{
			name:        "stdio mode - debug enabled",
			mode:        "stdio",
			logLevel:    "debug",
			wantWritten: true,
			wantDebug:   true,
		},
		{
			name:        "stdio mode - debug disabled",
			mode:        "stdio",
			logLevel:    "info",
			wantWritten: false,
			wantDebug:   false,
		},
		{
			name:        "server mode - info",
			mode:        "server",
			logLevel:    "info",
			wantWritten: true,
			wantDebug:   false,
		},
		{
			name:        "server mode - error hides info",
			mode:        "server",
			logLevel:    "error",
			wantWritten: false,
			wantDebug:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := setupLogging(&config.Config{Mode: tt.mode, LogLevel: tt.logLevel}, &buf)

			logger.Info("test.event", "key", "value")
			if written := buf.Len() > 0; written != tt.wantWritten {
				t.Errorf("info written = %v, want %v (%q)", written, tt.wantWritten, buf.String())
			}
			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if slog.Default() != logger {
				t.Error("setupLogging() should install the default logger")
			}
		})
	}
}

func TestSetupLogging_StdioKeepsStdoutClean(t *testing.T) {
	originalOutput := log.Writer()
	defer log.SetOutput(originalOutput)

	var buf bytes.Buffer
	setupLogging(&config.Config{Mode: "stdio", LogLevel: "debug"}, &buf)

	log.Print("standard logger")
	if !strings.Contains(buf.String(), "standard logger") {
		t.Errorf("standard logger should write to stderr in debug stdio mode, got %q", buf.String())
	}
}

func TestVersionRequested(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		hasVersion bool
	}{
		{
			name:       "no version flag",
			args:       []string{},
			hasVersion: false,
		},
		{
			name:       "-version flag",
			args:       []string{"-version"},
			hasVersion: true,
		},
		{
			name:       "--version flag",
			args:       []string{"--version"},
			hasVersion: true,
		},
		{
			name:       "-v flag",
			args:       []string{"-v"},
			hasVersion: true,
		},
		{
			name:       "version flag with other args",
			args:       []string{"--mode=server", "--version", "--port=8080"},
			hasVersion: true,
		},
		{
			name:       "similar but not version flag",
			args:       []string{"-verbose", "-versions"},
			hasVersion: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := versionRequested(tt.args); got != tt.hasVersion {
				t.Errorf("versionRequested(%v) = %v, want %v", tt.args, got, tt.hasVersion)
			}
		})
	}
}
