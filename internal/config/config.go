package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Store kinds
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	// Default values
	DefaultPort             = 8080
	DefaultHost             = "127.0.0.1"
	DefaultLogLevel         = "info"
	DefaultMaxFileSize      = 100 * 1024 * 1024 // 100MB
	DefaultTopK             = 5
	DefaultWorkers          = 4
	DefaultCacheSize        = 100
	DefaultEmbeddingTimeout = 10 * time.Second

	// MaxWorkers caps concurrent document processing
	MaxWorkers = 64

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix prefixes every environment variable, e.g. MCP_FORM_LOG_LEVEL
	EnvPrefix = "MCP_FORM"

	// stateDir holds the default SQLite database inside the form directory.
	// Hidden so directory search skips it.
	stateDir = ".form-agent"
)

// Config holds all configuration for the form agent
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Form directory; every path must resolve inside it
	Directory string

	// Processing
	CatalogPath string // optional YAML schema catalog
	TopK        int
	Workers     int

	// Storage
	Store     string // memory, sqlite or postgres
	DSN       string
	CacheSize int

	// Embeddings; retrieval falls back to term overlap when EmbeddingURL is empty
	EmbeddingURL     string
	EmbeddingModel   string
	EmbeddingKey     string
	EmbeddingTimeout time.Duration

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio, // Default to stdio mode for MCP compatibility
		Host:             DefaultHost,
		Port:             DefaultPort,
		Directory:        currentDir,
		TopK:             DefaultTopK,
		Workers:          DefaultWorkers,
		Store:            StoreMemory,
		CacheSize:        DefaultCacheSize,
		EmbeddingTimeout: DefaultEmbeddingTimeout,
		Version:          "1.0.0",
		ServerName:       "mcp-form-agent",
		LogLevel:         DefaultLogLevel,
		MaxFileSize:      DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	v := viper.GetViper()

	RegisterFlags(pflag.CommandLine, v)
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	return FromViper(v)
}

// RegisterFlags defines every configuration flag on fs and binds it to v,
// together with defaults and MCP_FORM_* environment variables. The form CLI
// calls it with its persistent flag set.
func RegisterFlags(fs *pflag.FlagSet, v *viper.Viper) {
	cfg := DefaultConfig()
	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(fs, cfg)
	bindFlagsToViper(fs, v)
}

// FromViper builds and validates a configuration from v
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	populateConfigFromViper(v, cfg)

	if cfg.Directory != "" {
		if expandedPath, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expandedPath
		}
	}
	if cfg.Store == StoreSQLite && cfg.DSN == "" {
		cfg.DSN = filepath.Join(cfg.Directory, stateDir, "forms.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("dir", cfg.Directory)
	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("max-file-size", cfg.MaxFileSize)
	v.SetDefault("catalog", cfg.CatalogPath)
	v.SetDefault("top-k", cfg.TopK)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("store", cfg.Store)
	v.SetDefault("dsn", cfg.DSN)
	v.SetDefault("cache-size", cfg.CacheSize)
	v.SetDefault("embedding-url", cfg.EmbeddingURL)
	v.SetDefault("embedding-model", cfg.EmbeddingModel)
	v.SetDefault("embedding-key", cfg.EmbeddingKey)
	v.SetDefault("embedding-timeout", cfg.EmbeddingTimeout)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("dir", cfg.Directory, "Directory containing form files")
	fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("max-file-size", cfg.MaxFileSize, "Maximum file size in bytes")
	fs.String("catalog", cfg.CatalogPath, "YAML file with form schema definitions (built-in catalog when empty)")
	fs.Int("top-k", cfg.TopK, "Passages retrieved per question")
	fs.Int("workers", cfg.Workers, "Documents processed concurrently")
	fs.String("store", cfg.Store, "Document store: memory, sqlite or postgres")
	fs.String("dsn", cfg.DSN, "Store location: SQLite file path or PostgreSQL connection string")
	fs.Int("cache-size", cfg.CacheSize, "Documents kept by the memory store")
	fs.String("embedding-url", cfg.EmbeddingURL, "OpenAI-compatible embeddings endpoint (term retrieval when empty)")
	fs.String("embedding-model", cfg.EmbeddingModel, "Embedding model name")
	fs.String("embedding-key", cfg.EmbeddingKey, "API key for the embeddings endpoint")
	fs.Duration("embedding-timeout", cfg.EmbeddingTimeout, "Timeout for embedding requests")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(fs *pflag.FlagSet, v *viper.Viper) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Form Agent - A Model Context Protocol server for form understanding\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/forms                    "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/forms      # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --store=sqlite --dir=/path/to/forms     # persist processed forms\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  Every option can be set as %s_<OPTION>, with dashes as underscores,\n", EnvPrefix)
		fmt.Fprintf(os.Stderr, "  e.g. %s_DIR, %s_LOG_LEVEL, %s_EMBEDDING_KEY\n", EnvPrefix, EnvPrefix, EnvPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.Directory = v.GetString("dir")
	cfg.LogLevel = v.GetString("log-level")
	cfg.MaxFileSize = v.GetInt64("max-file-size")
	cfg.CatalogPath = v.GetString("catalog")
	cfg.TopK = v.GetInt("top-k")
	cfg.Workers = v.GetInt("workers")
	cfg.Store = strings.ToLower(v.GetString("store"))
	cfg.DSN = v.GetString("dsn")
	cfg.CacheSize = v.GetInt("cache-size")
	cfg.EmbeddingURL = v.GetString("embedding-url")
	cfg.EmbeddingModel = v.GetString("embedding-model")
	cfg.EmbeddingKey = v.GetString("embedding-key")
	cfg.EmbeddingTimeout = v.GetDuration("embedding-timeout")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters in server mode
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.Directory == "" {
		return errors.New("form directory cannot be empty")
	}
	info, err := os.Stat(c.Directory)
	if err != nil {
		return fmt.Errorf("cannot access form directory %s: %w", c.Directory, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("form directory %s is not a directory", c.Directory)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.TopK < 1 {
		return errors.New("top-k must be at least 1")
	}
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d", MaxWorkers)
	}

	switch c.Store {
	case StoreMemory:
		if c.CacheSize < 1 {
			return errors.New("cache size must be positive")
		}
	case StoreSQLite, StorePostgres:
		if c.DSN == "" {
			return fmt.Errorf("store %s requires a dsn", c.Store)
		}
	default:
		return fmt.Errorf("invalid store: %s (must be one of: memory, sqlite, postgres)", c.Store)
	}

	if c.CatalogPath != "" {
		if _, err := os.Stat(c.CatalogPath); err != nil {
			return fmt.Errorf("cannot access catalog %s: %w", c.CatalogPath, err)
		}
	}

	if c.EmbeddingURL != "" {
		u, err := url.Parse(c.EmbeddingURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid embedding url: %s", c.EmbeddingURL)
		}
		if c.EmbeddingTimeout <= 0 {
			return errors.New("embedding timeout must be positive")
		}
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BaseURL is the externally visible URL of the SSE server
func (c *Config) BaseURL() string {
	return "http://" + c.Address()
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// HasEmbeddings reports whether an embeddings endpoint is configured
func (c *Config) HasEmbeddings() bool {
	return c.EmbeddingURL != ""
}

// String returns a string representation of the configuration.
// Secrets are redacted.
func (c *Config) String() string {
	key := ""
	if c.EmbeddingKey != "" {
		key = "xxxxx"
	}
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, Directory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"Store: %s, DSN: %s, TopK: %d, Workers: %d, EmbeddingURL: %s, EmbeddingKey: %s}",
		c.Mode, c.Host, c.Port, c.Directory, c.LogLevel, c.MaxFileSize,
		c.Store, redactDSN(c.DSN), c.TopK, c.Workers, c.EmbeddingURL, key)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

func redactDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		// keyword/value form
		parts := strings.Fields(dsn)
		for i, p := range parts {
			if strings.HasPrefix(p, "password=") {
				parts[i] = "password=xxxxx"
			}
		}
		return strings.Join(parts, " ")
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "invalid"
	}
	return u.Redacted()
}
