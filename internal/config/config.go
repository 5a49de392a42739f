package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds client configuration values.
type Config struct {
	ServerURL       string        `mapstructure:"server_url" yaml:"server_url" validate:"required,url"`
	APIURL          string        `mapstructure:"api_url" yaml:"api_url" validate:"required,url"`
	Username        string        `mapstructure:"username" yaml:"username"`
	Room            string        `mapstructure:"room" yaml:"room"`
	Token           string        `mapstructure:"token" yaml:"token"`
	RequireRoom     bool          `mapstructure:"require_room" yaml:"require_room"`
	RawAuthHeader   bool          `mapstructure:"raw_auth_header" yaml:"raw_auth_header"`
	ReconnectDelay  time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay" validate:"gt=0"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gt=0"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes" validate:"gt=0"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error off disabled"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:       "ws://localhost:8080/ws",
		APIURL:          "http://localhost:8080",
		RequireRoom:     true,
		ReconnectDelay:  3 * time.Second,
		DialTimeout:     10 * time.Second,
		WriteTimeout:    5 * time.Second,
		MaxMessageBytes: 1 << 20,
		LogLevel:        "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Plain bools (RequireRoom, RawAuthHeader) are never overridden here.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.APIURL != "" {
		c.APIURL = other.APIURL
	}
	if other.Username != "" {
		c.Username = other.Username
	}
	if other.Room != "" {
		c.Room = other.Room
	}
	if other.Token != "" {
		c.Token = other.Token
	}
	if other.ReconnectDelay != 0 {
		c.ReconnectDelay = other.ReconnectDelay
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the resolved configuration is usable.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
