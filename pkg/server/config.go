package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avandyck/gorelay/pkg/model"
)

// Config holds server configuration.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`  // WebSocket/HTTP bind address (e.g. ":6789")
	MetricsAddr string `yaml:"metrics_addr"` // HTTP bind address for /metrics (empty = disabled)

	// AllowedOrigins restricts browser connections by Origin header.
	// Empty means the check is disabled.
	AllowedOrigins []string `yaml:"allowed_origins"`

	MaxFrameSize     int64         `yaml:"max_frame_size"`    // maximum inbound frame size in bytes
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"` // time allowed for the registration frame
	WriteTimeout     time.Duration `yaml:"write_timeout"`     // per-write deadline to a client
	PongTimeout      time.Duration `yaml:"pong_timeout"`      // read deadline refreshed by pongs
	SendBuffer       int           `yaml:"send_buffer"`       // per-client outbound queue length

	// Rooms are created at startup and retained while empty; all other
	// rooms appear on first join and are reaped when their last member
	// leaves.
	Rooms []string `yaml:"rooms"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:       ":6789",
		MetricsAddr:      ":6790",
		MaxFrameSize:     65536,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PongTimeout:      60 * time.Second,
		SendBuffer:       256,
	}
}

// LoadConfig reads a YAML config file over the defaults, expanding ${VAR}
// environment references, and validates the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI flag
	if err != nil {
		return Config{}, fmt.Errorf("server: read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("server: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("server: validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required fields are set and values are in range.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}
	if c.MaxFrameSize < 1 {
		return errors.New("max_frame_size must be >= 1")
	}
	if c.HandshakeTimeout <= 0 {
		return errors.New("handshake_timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write_timeout must be positive")
	}
	if c.PongTimeout <= 0 {
		return errors.New("pong_timeout must be positive")
	}
	if c.SendBuffer < 1 {
		return errors.New("send_buffer must be >= 1")
	}
	for _, room := range c.Rooms {
		if err := model.ValidateRoomName(room); err != nil {
			return fmt.Errorf("rooms: %q: %w", room, err)
		}
	}
	return nil
}
