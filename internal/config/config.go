// Package config reads and writes the aitracker TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

// Config holds all aitracker configuration.
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Sources  SourcesConfig  `toml:"sources"`
	ClaudeAI ClaudeAIConfig `toml:"claude_ai"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultDays int `toml:"default_days"`

	// Providers limits which providers are shown. Empty means all.
	Providers []string `toml:"providers,omitempty"`
}

// SourcesConfig overrides the default log locations.
type SourcesConfig struct {
	ClaudeDir string `toml:"claude_dir,omitempty"`
	CodexDir  string `toml:"codex_dir,omitempty"`
}

// ClaudeAIConfig holds claude.ai web API settings for rate limit status.
type ClaudeAIConfig struct {
	SessionKey string `toml:"session_key,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultDays: 30,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "aitracker")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// SessionKey returns the claude.ai session key from env var or config, in
// that order.
func SessionKey(cfg Config) string {
	if key := os.Getenv("CLAUDE_SESSION_KEY"); key != "" {
		return key
	}
	return cfg.ClaudeAI.SessionKey
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}
