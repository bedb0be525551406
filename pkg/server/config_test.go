package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate, got %v", err)
	}
	if cfg.ListenAddr != ":6789" {
		t.Fatalf("ListenAddr: got %q", cfg.ListenAddr)
	}
	if cfg.SendBuffer != 256 {
		t.Fatalf("SendBuffer: got %d", cfg.SendBuffer)
	}
}

func TestLoadConfigAppliesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9000"
pong_timeout: 30s
rooms:
  - lobby
  - general
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("ListenAddr: got %q", cfg.ListenAddr)
	}
	if cfg.PongTimeout != 30*time.Second {
		t.Fatalf("PongTimeout: got %v", cfg.PongTimeout)
	}
	// Untouched fields keep their defaults.
	if cfg.WriteTimeout != 10*time.Second {
		t.Fatalf("WriteTimeout default: got %v", cfg.WriteTimeout)
	}
	if len(cfg.Rooms) != 2 || cfg.Rooms[0] != "lobby" {
		t.Fatalf("Rooms: got %v", cfg.Rooms)
	}
}

func TestLoadConfigExpandsEnvironment(t *testing.T) {
	t.Setenv("RELAY_PORT", "7777")
	path := writeConfig(t, "listen_addr: \":${RELAY_PORT}\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ListenAddr != ":7777" {
		t.Fatalf("ListenAddr: got %q", cfg.ListenAddr)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeConfig(t, "listen_addr: [unclosed\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestConfigValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }, "listen_addr"},
		{"zero frame size", func(c *Config) { c.MaxFrameSize = 0 }, "max_frame_size"},
		{"zero handshake timeout", func(c *Config) { c.HandshakeTimeout = 0 }, "handshake_timeout"},
		{"negative write timeout", func(c *Config) { c.WriteTimeout = -time.Second }, "write_timeout"},
		{"zero pong timeout", func(c *Config) { c.PongTimeout = 0 }, "pong_timeout"},
		{"zero send buffer", func(c *Config) { c.SendBuffer = 0 }, "send_buffer"},
		{"blank room name", func(c *Config) { c.Rooms = []string{"   "} }, "rooms"},
		{"oversized room name", func(c *Config) { c.Rooms = []string{strings.Repeat("r", 65)} }, "rooms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q must mention %q", err, tt.wantErr)
			}
		})
	}
}
