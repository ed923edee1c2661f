package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.SampleRate)
	}
	if cfg.BlockSize != 3200 {
		t.Errorf("BlockSize = %d, want 3200", cfg.BlockSize)
	}
	if cfg.ModelLanguage != "en-US" {
		t.Errorf("ModelLanguage = %q, want %q", cfg.ModelLanguage, "en-US")
	}
	if cfg.ModelDir == "" {
		t.Error("ModelDir should be populated by defaults")
	}
	if !cfg.HotkeyEnabled {
		t.Error("HotkeyEnabled should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"sample_rate_too_low", func(c *Config) { c.SampleRate = 4000 }, true},
		{"sample_rate_too_high", func(c *Config) { c.SampleRate = 96000 }, true},
		{"negative_block_size", func(c *Config) { c.BlockSize = -1 }, true},
		{"negative_partial_interval", func(c *Config) { c.PartialIntervalMS = -10 }, true},
		{"negative_flush_timeout", func(c *Config) { c.FlushTimeoutMS = -1 }, true},
		{"custom_valid", func(c *Config) {
			c.SampleRate = 8000
			c.BlockSize = 1600
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()

	if got := cfg.PartialInterval(); got != 80*time.Millisecond {
		t.Errorf("PartialInterval() = %v, want 80ms", got)
	}
	if got := cfg.FlushTimeout(); got != 2*time.Second {
		t.Errorf("FlushTimeout() = %v, want 2s", got)
	}
}

func TestApplyDefaultsPreservesExplicit(t *testing.T) {
	cfg := &Config{
		SampleRate:        8000,
		BlockSize:         1600,
		ModelLanguage:     "pt-BR",
		PartialIntervalMS: 200,
	}
	cfg.applyDefaults()

	if cfg.SampleRate != 8000 {
		t.Errorf("SampleRate overwritten: %d", cfg.SampleRate)
	}
	if cfg.BlockSize != 1600 {
		t.Errorf("BlockSize overwritten: %d", cfg.BlockSize)
	}
	if cfg.ModelLanguage != "pt-BR" {
		t.Errorf("ModelLanguage overwritten: %q", cfg.ModelLanguage)
	}
	if cfg.PartialIntervalMS != 200 {
		t.Errorf("PartialIntervalMS overwritten: %d", cfg.PartialIntervalMS)
	}
	if cfg.FlushTimeoutMS != DefaultFlushTimeoutMS {
		t.Errorf("FlushTimeoutMS = %d, want default %d", cfg.FlushTimeoutMS, DefaultFlushTimeoutMS)
	}
}
