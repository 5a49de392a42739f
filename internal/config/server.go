package config

import (
	"fmt"
	"time"
)

// ServerConfig configures the local development chat server.
type ServerConfig struct {
	Addr              string        `validate:"required"`
	ReadHeaderTimeout time.Duration `validate:"gt=0"`
	ShutdownTimeout   time.Duration `validate:"gt=0"`
	MaxMessageBytes   int64         `validate:"gt=0"`
	// MessagesPerMinute caps chat frames per connection; zero disables the limit.
	MessagesPerMinute int `validate:"gte=0"`

	JWTSecret   string `validate:"required"`
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration `validate:"gt=0"`
	// RequireToken rejects WebSocket handshakes without a valid token.
	RequireToken bool
	// RequireRoom rejects WebSocket handshakes without a roomId instead of
	// placing them in the lobby.
	RequireRoom bool
	// Seed creates the demo rooms and accounts at startup.
	Seed bool
}

// DefaultServer returns development defaults.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxMessageBytes:   1 << 20,
		MessagesPerMinute: 120,
		JWTSecret:         "dev-secret-change-me",
		JWTIssuer:         "wirechat",
		JWTAudience:       "wirechat",
		TokenTTL:          24 * time.Hour,
		Seed:              true,
	}
}

// Validate checks that the server configuration is usable.
func (c ServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	return nil
}
