// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	appName        = "meetscribe"
	configFileName = "config.json"
)

// Config represents the application configuration.
// It is loaded once at startup and passed explicitly into the pipeline;
// there are no package-level mutable settings.
type Config struct {
	// Model settings
	ModelDir      string `json:"model_dir,omitempty"` // Directory holding the Vosk model
	ModelLanguage string `json:"model_language"`      // BCP 47 tag, e.g. "en-US"
	ModelURL      string `json:"model_url,omitempty"` // Override the catalog download URL

	// Audio settings
	SampleRate int `json:"sample_rate"` // Hz, mono S16LE
	BlockSize  int `json:"block_size"`  // Samples per frame fed to the recognizer

	// Pipeline settings
	PartialIntervalMS int `json:"partial_interval_ms"` // Minimum gap between partial updates
	FlushTimeoutMS    int `json:"flush_timeout_ms"`    // Grace period for the final decode on stop

	// Desktop settings
	HotkeyEnabled bool `json:"hotkey_enabled"`
}

// Defaults follow the capture parameters the recognizer is tuned for:
// 16 kHz mono with 3200-sample blocks (~200 ms) and an 80 ms partial
// refresh floor so the live line doesn't flicker.
const (
	DefaultSampleRate        = 16000
	DefaultBlockSize         = 3200
	DefaultPartialIntervalMS = 80
	DefaultFlushTimeoutMS    = 2000
	DefaultModelLanguage     = "en-US"
)

// Load loads configuration from the config file.
// Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{HotkeyEnabled: true}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ModelLanguage == "" {
		c.ModelLanguage = DefaultModelLanguage
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.PartialIntervalMS == 0 {
		c.PartialIntervalMS = DefaultPartialIntervalMS
	}
	if c.FlushTimeoutMS == 0 {
		c.FlushTimeoutMS = DefaultFlushTimeoutMS
	}
	if c.ModelDir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.ModelDir = filepath.Join(dir, appName, "models")
		}
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 48000 {
		return fmt.Errorf("sample rate out of range: %d", c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size must be positive: %d", c.BlockSize)
	}
	if c.PartialIntervalMS < 0 {
		return fmt.Errorf("partial interval must not be negative: %d", c.PartialIntervalMS)
	}
	if c.FlushTimeoutMS < 0 {
		return fmt.Errorf("flush timeout must not be negative: %d", c.FlushTimeoutMS)
	}
	return nil
}

// PartialInterval returns the partial refresh floor as a duration.
func (c *Config) PartialInterval() time.Duration {
	return time.Duration(c.PartialIntervalMS) * time.Millisecond
}

// FlushTimeout returns the shutdown flush grace period as a duration.
func (c *Config) FlushTimeout() time.Duration {
	return time.Duration(c.FlushTimeoutMS) * time.Millisecond
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}
