// Package config loads boardly settings from defaults, a TOML file, the
// environment and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dori/boardly/internal/db"
)

// Default values
const (
	DefaultAPIURL    = "http://localhost:8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	FileName         = "config.toml"
)

// Config holds the client configuration
type Config struct {
	APIURL    string `toml:"api_url"`
	DataDir   string `toml:"data_dir"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// File is the config file that was read, empty when none was found
	File string `toml:"-"`
}

// DBPath is the location of the persisted client slot
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "boardly.db")
}

// LockPath is the single-instance lock for the TUI
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "boardly.lock")
}

// LogPath is where the TUI writes its log
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "boardly.log")
}

func setDefaults(cfg *Config) {
	cfg.APIURL = DefaultAPIURL
	cfg.DataDir = db.DefaultDataDir()
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// validate checks values that would otherwise fail late and obscurely
func (c *Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api_url: missing host in %q", c.APIURL)
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("log_format: unknown format %q", c.LogFormat)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is empty")
	}
	return nil
}
