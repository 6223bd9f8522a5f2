/*
Package configs loads the application's configuration from environment variables.

It covers the running environment, HTTP port, allowed browser origins, logging level,
room history cap, coordinator queue size and WebSocket limits.
*/
package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment     string        `env:"ENVIRONMENT"      envDefault:"development"`
	Port            int           `env:"PORT"             envDefault:"9000"`
	LogLevel        string        `env:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// Security Settings
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Room Settings
	HistoryLimit   int `env:"ROOM_HISTORY_LIMIT" envDefault:"0"`
	EventQueueSize int `env:"EVENT_QUEUE_SIZE"   envDefault:"1024"`

	// WebSocket Settings
	WSSendBuffer      int   `env:"WS_SEND_BUFFER"       envDefault:"256"`
	WSMaxMessageBytes int64 `env:"WS_MAX_MESSAGE_BYTES" envDefault:"8192"`
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig parses the configuration from environment variables and validates it.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) normalize() error {
	c.Environment = strings.TrimSpace(c.Environment)
	if c.Environment == "" {
		c.Environment = "development"
	}

	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, origin := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.AllowedOrigins = origins

	if c.HistoryLimit < 0 {
		return fmt.Errorf("ROOM_HISTORY_LIMIT must not be negative, got %d", c.HistoryLimit)
	}

	if c.EventQueueSize <= 0 {
		return fmt.Errorf("EVENT_QUEUE_SIZE must be positive, got %d", c.EventQueueSize)
	}

	if c.WSSendBuffer <= 0 {
		return fmt.Errorf("WS_SEND_BUFFER must be positive, got %d", c.WSSendBuffer)
	}

	if c.WSMaxMessageBytes < 512 {
		return fmt.Errorf("WS_MAX_MESSAGE_BYTES must be at least 512, got %d", c.WSMaxMessageBytes)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}

	return nil
}
