package models

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the resolved settings for one pipshow invocation.
type Config struct {
	// Interpreter selection
	Python string // explicit interpreter path or PATH name
	System bool   // allow the base interpreter when no venv is active

	// Behavior settings
	Strict      bool // run environment-consistency diagnostics
	Files       bool // include installed file lists
	CheckLatest bool // query PyPI for the newest release

	// Output settings
	OutputFormat string // "terminal", "json", "yaml"
	OutputFile   string // optional output file path

	// Cache / network settings
	NoCache  bool
	CacheTTL time.Duration
	Timeout  time.Duration

	Verbose bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputFormat: "terminal",
		CacheTTL:     24 * time.Hour,
		Timeout:      30 * time.Second,
	}
}

// fileConfig is the on-disk TOML layout. Durations are plain numbers so the
// file stays hand-editable.
type fileConfig struct {
	Python        string `toml:"python"`
	System        *bool  `toml:"system"`
	Strict        *bool  `toml:"strict"`
	Files         *bool  `toml:"files"`
	CheckLatest   *bool  `toml:"check_latest"`
	Format        string `toml:"format"`
	Output        string `toml:"output"`
	NoCache       *bool  `toml:"no_cache"`
	CacheTTLHours int    `toml:"cache_ttl_hours"`
	TimeoutSecs   int    `toml:"timeout"`
	Verbose       *bool  `toml:"verbose"`
}

// DefaultConfigPath returns the location of the user config file, or "" when
// the home directory cannot be determined.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pipshow", "config.toml")
}

// LoadFile applies the settings from a TOML config file on top of c.
// Missing keys keep their current values.
func (c *Config) LoadFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}

	if fc.Python != "" {
		c.Python = fc.Python
	}
	if fc.System != nil {
		c.System = *fc.System
	}
	if fc.Strict != nil {
		c.Strict = *fc.Strict
	}
	if fc.Files != nil {
		c.Files = *fc.Files
	}
	if fc.CheckLatest != nil {
		c.CheckLatest = *fc.CheckLatest
	}
	if fc.Format != "" {
		c.OutputFormat = fc.Format
	}
	if fc.Output != "" {
		c.OutputFile = fc.Output
	}
	if fc.NoCache != nil {
		c.NoCache = *fc.NoCache
	}
	if fc.CacheTTLHours > 0 {
		c.CacheTTL = time.Duration(fc.CacheTTLHours) * time.Hour
	}
	if fc.TimeoutSecs > 0 {
		c.Timeout = time.Duration(fc.TimeoutSecs) * time.Second
	}
	if fc.Verbose != nil {
		c.Verbose = *fc.Verbose
	}
	return nil
}
