package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns a stdio configuration rooted at dir
func validConfig(dir string) *Config {
	return &Config{
		Mode:        "stdio",
		Host:        "127.0.0.1",
		Port:        8080,
		Directory:   dir,
		LogLevel:    "info",
		MaxFileSize: 1024,
		TopK:        5,
		Workers:     4,
		Store:       "memory",
		CacheSize:   10,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.Version != "1.0.0" {
		t.Errorf("Expected default version to be '1.0.0', got '%s'", cfg.Version)
	}

	if cfg.ServerName != "mcp-form-agent" {
		t.Errorf("Expected default server name to be 'mcp-form-agent', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	if cfg.Store != "memory" || cfg.CacheSize != DefaultCacheSize {
		t.Errorf("Expected memory store with cache %d, got %s/%d", DefaultCacheSize, cfg.Store, cfg.CacheSize)
	}

	if cfg.TopK != 5 || cfg.Workers != 4 {
		t.Errorf("Expected top-k 5 and 4 workers, got %d and %d", cfg.TopK, cfg.Workers)
	}

	if cfg.EmbeddingTimeout != 10*time.Second {
		t.Errorf("Expected embedding timeout 10s, got %v", cfg.EmbeddingTimeout)
	}

	currentDir, _ := os.Getwd()
	if cfg.Directory != currentDir {
		t.Errorf("Expected default directory to be '%s', got '%s'", currentDir, cfg.Directory)
	}
}

func TestConfigValidate(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "plain.txt")
	if err := os.WriteFile(filePath, []byte("x"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config - stdio mode",
			modify:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "valid config - server mode",
			modify:  func(c *Config) { c.Mode = "server" },
			wantErr: false,
		},
		{
			name:    "invalid mode",
			modify:  func(c *Config) { c.Mode = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid port - too low (server mode)",
			modify:  func(c *Config) { c.Mode = "server"; c.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port - too high (server mode)",
			modify:  func(c *Config) { c.Mode = "server"; c.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "invalid port ignored in stdio mode",
			modify:  func(c *Config) { c.Port = 0 },
			wantErr: false,
		},
		{
			name:    "empty directory",
			modify:  func(c *Config) { c.Directory = "" },
			wantErr: true,
		},
		{
			name:    "directory is a file",
			modify:  func(c *Config) { c.Directory = filePath },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid max file size",
			modify:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: true,
		},
		{
			name:    "zero top-k",
			modify:  func(c *Config) { c.TopK = 0 },
			wantErr: true,
		},
		{
			name:    "too many workers",
			modify:  func(c *Config) { c.Workers = MaxWorkers + 1 },
			wantErr: true,
		},
		{
			name:    "unknown store",
			modify:  func(c *Config) { c.Store = "redis" },
			wantErr: true,
		},
		{
			name:    "memory store without cache",
			modify:  func(c *Config) { c.CacheSize = 0 },
			wantErr: true,
		},
		{
			name:    "postgres without dsn",
			modify:  func(c *Config) { c.Store = "postgres" },
			wantErr: true,
		},
		{
			name:    "postgres with dsn",
			modify:  func(c *Config) { c.Store = "postgres"; c.DSN = "postgres://localhost/forms" },
			wantErr: false,
		},
		{
			name:    "missing catalog",
			modify:  func(c *Config) { c.CatalogPath = filepath.Join(tempDir, "missing.yaml") },
			wantErr: true,
		},
		{
			name:    "invalid embedding url",
			modify:  func(c *Config) { c.EmbeddingURL = "localhost:11434" },
			wantErr: true,
		},
		{
			name: "embedding url without timeout",
			modify: func(c *Config) {
				c.EmbeddingURL = "http://localhost:11434/v1"
				c.EmbeddingTimeout = 0
			},
			wantErr: true,
		},
		{
			name: "valid embedding config",
			modify: func(c *Config) {
				c.EmbeddingURL = "http://localhost:11434/v1"
				c.EmbeddingTimeout = time.Second
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(tempDir)
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{
		Host: "192.168.1.1",
		Port: 9090,
	}

	expected := "192.168.1.1:9090"
	if got := cfg.Address(); got != expected {
		t.Errorf("Config.Address() = %v, want %v", got, expected)
	}
	if got := cfg.BaseURL(); got != "http://"+expected {
		t.Errorf("Config.BaseURL() = %v, want %v", got, "http://"+expected)
	}
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     bool
	}{
		{
			name:     "debug level",
			logLevel: "debug",
			want:     true,
		},
		{
			name:     "info level",
			logLevel: "info",
			want:     false,
		},
		{
			name:     "error level",
			logLevel: "error",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.IsDebug(); got != tt.want {
				t.Errorf("Config.IsDebug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:         "server",
		Host:         "localhost",
		Port:         8080,
		Directory:    "/home/user/forms",
		LogLevel:     "debug",
		MaxFileSize:  1024,
		Store:        "postgres",
		DSN:          "postgres://forms:hunter2@db:5432/forms",
		EmbeddingKey: "sk-secret",
	}

	result := cfg.String()

	expectedSubstrings := []string{
		"Mode: server",
		"Host: localhost",
		"Port: 8080",
		"Directory: /home/user/forms",
		"LogLevel: debug",
		"MaxFileSize: 1024",
		"Store: postgres",
		"forms:xxxxx@db:5432",
		"EmbeddingKey: xxxxx",
	}

	for _, substr := range expectedSubstrings {
		if !strings.Contains(result, substr) {
			t.Errorf("Config.String() result doesn't contain expected substring: %s\nGot: %s", substr, result)
		}
	}
	for _, secret := range []string{"hunter2", "sk-secret"} {
		if strings.Contains(result, secret) {
			t.Errorf("Config.String() leaks %q: %s", secret, result)
		}
	}
}

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/var/lib/forms.db", "/var/lib/forms.db"},
		{"host=db user=forms password=hunter2 dbname=forms", "host=db user=forms password=xxxxx dbname=forms"},
		{"postgres://forms@db/forms", "postgres://forms@db/forms"},
	}

	for _, tt := range tests {
		if got := redactDSN(tt.in); got != tt.want {
			t.Errorf("redactDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigValidateDoesNotCreateDirectory(t *testing.T) {
	// Placeholder paths like ${workspaceRoot} must not be created
	nonExistentDir := filepath.Join(t.TempDir(), "new-subdir")

	cfg := validConfig(nonExistentDir)
	if err := cfg.Validate(); err == nil {
		t.Error("Config.Validate() should reject a missing directory")
	}

	if _, err := os.Stat(nonExistentDir); !os.IsNotExist(err) {
		t.Errorf("Directory should NOT have been created: %s", nonExistentDir)
	}
}

func TestConfigValidateLogLevels(t *testing.T) {
	validLevels := []string{"debug", "info", "warn", "error"}
	invalidLevels := []string{"DEBUG", "INFO", "trace", "fatal", ""}

	tempDir := t.TempDir()

	for _, level := range validLevels {
		t.Run("valid_"+level, func(t *testing.T) {
			cfg := validConfig(tempDir)
			cfg.LogLevel = level

			if err := cfg.Validate(); err != nil {
				t.Errorf("Config.Validate() should accept log level '%s', got error: %v", level, err)
			}
		})
	}

	for _, level := range invalidLevels {
		t.Run("invalid_"+level, func(t *testing.T) {
			cfg := validConfig(tempDir)
			cfg.LogLevel = level

			if err := cfg.Validate(); err == nil {
				t.Errorf("Config.Validate() should reject log level '%s'", level)
			}
		})
	}
}

func TestConfigModes(t *testing.T) {
	tests := []struct {
		mode       string
		wantServer bool
		wantStdio  bool
	}{
		{mode: "server", wantServer: true, wantStdio: false},
		{mode: "stdio", wantServer: false, wantStdio: true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := &Config{Mode: tt.mode}
			if got := cfg.IsServerMode(); got != tt.wantServer {
				t.Errorf("Config.IsServerMode() = %v, want %v", got, tt.wantServer)
			}
			if got := cfg.IsStdioMode(); got != tt.wantStdio {
				t.Errorf("Config.IsStdioMode() = %v, want %v", got, tt.wantStdio)
			}
		})
	}
}

func TestConfigHasEmbeddings(t *testing.T) {
	if (&Config{}).HasEmbeddings() {
		t.Error("HasEmbeddings() should be false without a url")
	}
	if !(&Config{EmbeddingURL: "http://localhost"}).HasEmbeddings() {
		t.Error("HasEmbeddings() should be true with a url")
	}
}
