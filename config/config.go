// Package config carries toolchain settings shared by the CLI and the
// language server.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds toolchain configuration.
type Config struct {
	// Root holds QUADRATE_ROOT. The loader reads that variable from the
	// environment itself and does not consult this field.
	Root string

	// Cache
	CachePath    string
	CacheEnabled bool

	// Output
	OutDir string

	// Debug
	Debug bool
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	cachePath := "quadrate.db"
	if home, err := os.UserHomeDir(); err == nil {
		cachePath = filepath.Join(home, ".cache", "quadrate", "cache.db")
	}
	return Config{
		CachePath:    cachePath,
		CacheEnabled: true,
		OutDir:       "out",
		Debug:        false,
	}
}

// Load builds a config from defaults, a .env file when present, and the
// process environment. Environment variables win over the .env file, which
// godotenv guarantees by never overriding existing variables.
func Load() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if v := os.Getenv("QUADRATE_ROOT"); v != "" {
		cfg.Root = v
	}
	if v := os.Getenv("QUADRATE_CACHE"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("QUADRATE_NO_CACHE"); v != "" {
		cfg.CacheEnabled = false
	}
	if v := os.Getenv("QUADRATE_OUT"); v != "" {
		cfg.OutDir = v
	}
	if v := os.Getenv("QUADRATE_DEBUG"); v != "" {
		cfg.Debug = true
	}
	return cfg
}
