package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var envVars = []string{
	"MCP_FORM_MODE",
	"MCP_FORM_HOST",
	"MCP_FORM_PORT",
	"MCP_FORM_DIR",
	"MCP_FORM_LOG_LEVEL",
	"MCP_FORM_MAX_FILE_SIZE",
	"MCP_FORM_STORE",
	"MCP_FORM_DSN",
	"MCP_FORM_TOP_K",
	"MCP_FORM_WORKERS",
	"MCP_FORM_EMBEDDING_URL",
	"MCP_FORM_EMBEDDING_KEY",
	"MCP_FORM_EMBEDDING_TIMEOUT",
}

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to set os.Args for testing
func setArgs(args []string) {
	os.Args = args
}

// Helper function to clear environment variables
func clearEnvVars() {
	for _, name := range envVars {
		os.Unsetenv(name)
	}
}

// prepare installs args and a clean flag/env state, restoring both after the test
func prepare(t *testing.T, args ...string) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	})

	setArgs(append([]string{"mcp-form-agent"}, args...))
	resetFlags()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	clearEnvVars()
	prepare(t)

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "stdio")
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "127.0.0.1")
	}
	if cfg.Port != 8080 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 8080)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "info")
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 100*1024*1024)
	}
	if cfg.Store != "memory" {
		t.Errorf("LoadFromFlags() Store = %v, want %v", cfg.Store, "memory")
	}
	if cfg.Directory == "" {
		t.Error("LoadFromFlags() Directory should not be empty")
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name            string
		args            []string
		wantMode        string
		wantHost        string
		wantPort        int
		wantLogLevel    string
		wantMaxFileSize int64
		wantWorkers     int
		wantTopK        int
	}{
		{
			name:            "stdio mode with custom directory",
			args:            nil,
			wantMode:        "stdio",
			wantHost:        "127.0.0.1",
			wantPort:        8080,
			wantLogLevel:    "info",
			wantMaxFileSize: 100 * 1024 * 1024,
			wantWorkers:     4,
			wantTopK:        5,
		},
		{
			name:            "server mode with custom host and port",
			args:            []string{"--mode=server", "--host=0.0.0.0", "--port=9090"},
			wantMode:        "server",
			wantHost:        "0.0.0.0",
			wantPort:        9090,
			wantLogLevel:    "info",
			wantMaxFileSize: 100 * 1024 * 1024,
			wantWorkers:     4,
			wantTopK:        5,
		},
		{
			name:            "debug logging",
			args:            []string{"--log-level=debug"},
			wantMode:        "stdio",
			wantHost:        "127.0.0.1",
			wantPort:        8080,
			wantLogLevel:    "debug",
			wantMaxFileSize: 100 * 1024 * 1024,
			wantWorkers:     4,
			wantTopK:        5,
		},
		{
			name:            "processing options",
			args:            []string{"--max-file-size=50000000", "--workers=8", "--top-k=3"},
			wantMode:        "stdio",
			wantHost:        "127.0.0.1",
			wantPort:        8080,
			wantLogLevel:    "info",
			wantMaxFileSize: 50000000,
			wantWorkers:     8,
			wantTopK:        3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			clearEnvVars()
			prepare(t, append(tt.args, "--dir="+tempDir)...)

			cfg, err := LoadFromFlags()
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}

			if cfg.Mode != tt.wantMode {
				t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, tt.wantMode)
			}
			if cfg.Host != tt.wantHost {
				t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, tt.wantHost)
			}
			if cfg.Port != tt.wantPort {
				t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, tt.wantPort)
			}
			if cfg.LogLevel != tt.wantLogLevel {
				t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, tt.wantLogLevel)
			}
			if cfg.MaxFileSize != tt.wantMaxFileSize {
				t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, tt.wantMaxFileSize)
			}
			if cfg.Workers != tt.wantWorkers {
				t.Errorf("LoadFromFlags() Workers = %v, want %v", cfg.Workers, tt.wantWorkers)
			}
			if cfg.TopK != tt.wantTopK {
				t.Errorf("LoadFromFlags() TopK = %v, want %v", cfg.TopK, tt.wantTopK)
			}
			if cfg.Directory != tempDir {
				t.Errorf("LoadFromFlags() Directory = %v, want %v", cfg.Directory, tempDir)
			}
		})
	}
}

func TestLoadFromFlags_SQLiteDefaultDSN(t *testing.T) {
	tempDir := t.TempDir()
	clearEnvVars()
	prepare(t, "--store=sqlite", "--dir="+tempDir)

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	want := filepath.Join(tempDir, ".form-agent", "forms.db")
	if cfg.DSN != want {
		t.Errorf("LoadFromFlags() DSN = %v, want %v", cfg.DSN, want)
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	tempDir := t.TempDir()
	clearEnvVars()
	prepare(t)

	os.Setenv("MCP_FORM_MODE", "server")
	os.Setenv("MCP_FORM_HOST", "192.168.1.1")
	os.Setenv("MCP_FORM_PORT", "3000")
	os.Setenv("MCP_FORM_DIR", tempDir)
	os.Setenv("MCP_FORM_LOG_LEVEL", "warn")
	os.Setenv("MCP_FORM_MAX_FILE_SIZE", "200000000")
	os.Setenv("MCP_FORM_EMBEDDING_URL", "http://localhost:11434/v1")
	os.Setenv("MCP_FORM_EMBEDDING_TIMEOUT", "3s")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "server" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, "server")
	}
	if cfg.Host != "192.168.1.1" {
		t.Errorf("LoadFromFlags() Host = %v, want %v", cfg.Host, "192.168.1.1")
	}
	if cfg.Port != 3000 {
		t.Errorf("LoadFromFlags() Port = %v, want %v", cfg.Port, 3000)
	}
	if cfg.Directory != tempDir {
		t.Errorf("LoadFromFlags() Directory = %v, want %v", cfg.Directory, tempDir)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "warn")
	}
	if cfg.MaxFileSize != 200000000 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 200000000)
	}
	if cfg.EmbeddingURL != "http://localhost:11434/v1" {
		t.Errorf("LoadFromFlags() EmbeddingURL = %v", cfg.EmbeddingURL)
	}
	if cfg.EmbeddingTimeout != 3*time.Second {
		t.Errorf("LoadFromFlags() EmbeddingTimeout = %v, want 3s", cfg.EmbeddingTimeout)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	clearEnvVars()
	prepare(t, "--mode=stdio", "--host=localhost", "--port=8888")

	os.Setenv("MCP_FORM_MODE", "server")
	os.Setenv("MCP_FORM_HOST", "192.168.1.1")
	os.Setenv("MCP_FORM_PORT", "3000")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want %v (should override env)", cfg.Mode, "stdio")
	}
	if cfg.Host != "localhost" {
		t.Errorf("LoadFromFlags() Host = %v, want %v (should override env)", cfg.Host, "localhost")
	}
	if cfg.Port != 8888 {
		t.Errorf("LoadFromFlags() Port = %v, want %v (should override env)", cfg.Port, 8888)
	}
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid mode", []string{"--mode=invalid"}, "mode must be either 'stdio' or 'server'"},
		{"invalid port", []string{"--mode=server", "--port=99999"}, "port must be between 1 and 65535"},
		{"invalid log level", []string{"--log-level=invalid"}, "invalid log level"},
		{"invalid store", []string{"--store=redis"}, "invalid store"},
		{"postgres without dsn", []string{"--store=postgres"}, "requires a dsn"},
		{"zero workers", []string{"--workers=0"}, "workers must be between"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			clearEnvVars()
			prepare(t, append(tt.args, "--dir="+tempDir)...)

			_, err := LoadFromFlags()
			if err == nil {
				t.Fatalf("LoadFromFlags() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromFlags() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	clearEnvVars()
	prepare(t, "--version")

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected version error")
	}
	if err != nil && err.Error() != "version requested" {
		t.Errorf("LoadFromFlags() error = %v, want 'version requested'", err)
	}
}

func TestRegisterFlags_CustomFlagSet(t *testing.T) {
	clearEnvVars()
	t.Cleanup(clearEnvVars)
	tempDir := t.TempDir()

	v := viper.New()
	fs := pflag.NewFlagSet("formctl", pflag.ContinueOnError)
	RegisterFlags(fs, v)

	if err := fs.Parse([]string{"--dir=" + tempDir, "--top-k=7"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper() unexpected error: %v", err)
	}
	if cfg.TopK != 7 {
		t.Errorf("FromViper() TopK = %v, want 7", cfg.TopK)
	}
	if cfg.Directory != tempDir {
		t.Errorf("FromViper() Directory = %v, want %v", cfg.Directory, tempDir)
	}
}
