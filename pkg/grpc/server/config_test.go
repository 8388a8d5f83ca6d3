package server

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
	if !cfg.EnableMetrics {
		t.Error("metrics must be enabled by default")
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty name", func(c *Config) { c.Name = "" }},
		{"bad network", func(c *Config) { c.Network = "udp" }},
		{"empty address", func(c *Config) { c.Address = "" }},
		{"zero recv size", func(c *Config) { c.MaxRecvMsgSize = 0 }},
		{"zero graceful timeout", func(c *Config) { c.GracefulStopTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
