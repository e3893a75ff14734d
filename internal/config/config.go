// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultBaseURL        = "http://localhost:8980/opennms/"
	DefaultTimeout        = Duration(10 * time.Second)
	DefaultCommandTimeout = Duration(30 * time.Second)
	DefaultFormat         = "table"
	DefaultStatusTimeout  = Duration(3 * time.Second)
)

// Formats accepted by the list command.
var Formats = []string{"table", "plain", "json", "yaml", "names"}

// Config represents the daemonview configuration.
type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	Output    OutputConfig    `toml:"output"`
	Templates TemplatesConfig `toml:"templates"`
	TUI       TUIConfig       `toml:"tui"`
	Clipboard ClipboardConfig `toml:"clipboard"`
}

// BackendConfig describes the management backend.
type BackendConfig struct {
	BaseURL        string   `toml:"base_url"`        // e.g. http://localhost:8980/opennms/
	Timeout        Duration `toml:"timeout"`         // Per request; "10s" or milliseconds
	CommandTimeout Duration `toml:"command_timeout"` // Bound on a dispatched reload
}

// OutputConfig holds defaults for the list command.
type OutputConfig struct {
	Format string `toml:"format"` // table, plain, json, yaml, names
}

// TemplatesConfig holds named list templates, usable with list --template NAME.
type TemplatesConfig struct {
	Custom map[string]string `toml:"custom"`
}

// TUIConfig holds TUI-specific settings.
type TUIConfig struct {
	ShowHelp      bool     `toml:"show_help"`
	StatusTimeout Duration `toml:"status_timeout"` // How long status messages stay visible
}

// ClipboardConfig holds clipboard settings.
type ClipboardConfig struct {
	Command string `toml:"command"` // Auto-detected when empty (wl-copy, xclip, xsel)
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        DefaultBaseURL,
			Timeout:        DefaultTimeout,
			CommandTimeout: DefaultCommandTimeout,
		},
		Output: OutputConfig{
			Format: DefaultFormat,
		},
		Templates: TemplatesConfig{
			Custom: make(map[string]string),
		},
		TUI: TUIConfig{
			ShowHelp:      true,
			StatusTimeout: DefaultStatusTimeout,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "daemonview", "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Templates.Custom == nil {
		cfg.Templates.Custom = make(map[string]string)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend.base_url %q: must be an http or https URL", c.Backend.BaseURL)
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative, got %s", c.Backend.Timeout.Duration())
	}
	if c.Backend.CommandTimeout < 0 {
		return fmt.Errorf("backend.command_timeout must not be negative, got %s", c.Backend.CommandTimeout.Duration())
	}
	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("invalid output.format %q, must be one of: %v", c.Output.Format, Formats)
	}
	return nil
}

// GetTemplate returns the named custom template, or "" if there is none.
func (c *Config) GetTemplate(name string) string {
	return c.Templates.Custom[name]
}
