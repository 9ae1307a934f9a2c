package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported values for STORE_BACKEND.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// HTTPPort is the port the edge router listens on when serving.
	// Default: 4580
	HTTPPort int

	// DataDir is the base directory of the persistent store.
	// Default: ./data
	DataDir string

	// StoreBackend selects the key-value backend (file, sqlite, memory).
	// Default: file
	StoreBackend string

	// WatchStore enables change notifications from other processes
	// sharing the same data directory. Only the file backend supports it.
	// Default: true
	WatchStore bool

	// LogLevel controls the verbosity of logging (debug, info, warn, error).
	// Default: "info"
	LogLevel string
}

// Load creates a Config from the environment. A .env file in the working
// directory is applied first if one exists; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment only.
// Missing or malformed values are replaced with defaults.
func FromEnv() *Config {
	cfg := &Config{
		HTTPPort:     4580,
		DataDir:      "./data",
		StoreBackend: BackendFile,
		WatchStore:   true,
		LogLevel:     "info",
	}

	if portStr := os.Getenv("HTTP_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 && port < 65536 {
			cfg.HTTPPort = port
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		cfg.StoreBackend = strings.ToLower(strings.TrimSpace(backend))
	}

	if watch := os.Getenv("WATCH_STORE"); watch != "" {
		if v, err := strconv.ParseBool(watch); err == nil {
			cfg.WatchStore = v
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg
}

// Validate performs basic validation on the configuration.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort >= 65536 {
		return fmt.Errorf("invalid HTTP_PORT: %d (must be 1-65535)", c.HTTPPort)
	}
	switch c.StoreBackend {
	case BackendFile, BackendSQLite:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR cannot be empty for the %s backend", c.StoreBackend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND: %q (must be file, sqlite or memory)", c.StoreBackend)
	}
	return nil
}
