package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/app"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/log"
)

func main() {
	cfg := config.DefaultServer()
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "wirechat-server",
		Short: "Local development server for the wirechat client",
		Long: `wirechat-server serves the chat WebSocket and REST API from memory.

Nothing is persisted. With --seed it starts with three rooms and the
accounts alice and bob (password "password123").`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := log.New(logLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := app.NewServer(cfg, logger).Run(ctx); err != nil {
				return fmt.Errorf("server exited with error: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flags.DurationVar(&cfg.ReadHeaderTimeout, "read-header-timeout", cfg.ReadHeaderTimeout, "HTTP read header timeout")
	flags.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "graceful shutdown timeout")
	flags.Int64Var(&cfg.MaxMessageBytes, "max-message-bytes", cfg.MaxMessageBytes, "largest accepted WebSocket frame")
	flags.IntVar(&cfg.MessagesPerMinute, "rate-limit", cfg.MessagesPerMinute, "chat frames per connection per minute, 0 for none")
	flags.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "HMAC secret for issued tokens")
	flags.StringVar(&cfg.JWTIssuer, "jwt-issuer", cfg.JWTIssuer, "token issuer claim")
	flags.StringVar(&cfg.JWTAudience, "jwt-audience", cfg.JWTAudience, "token audience claim")
	flags.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "token lifetime")
	flags.BoolVar(&cfg.RequireToken, "require-token", cfg.RequireToken, "reject WebSocket handshakes without a valid token")
	flags.BoolVar(&cfg.RequireRoom, "require-room", cfg.RequireRoom, "reject WebSocket handshakes without a roomId")
	flags.BoolVar(&cfg.Seed, "seed", cfg.Seed, "create demo rooms and accounts")
	flags.StringVar(&logLevel, "log-level", "info", "debug, info, warn, error or off")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}
