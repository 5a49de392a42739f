package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/log"
)

// cli is the state shared by every subcommand once flags are parsed.
type cli struct {
	configPath string
	overrides  config.Config

	cfg      config.Config
	resolved string
	logger   *zerolog.Logger
}

func main() {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "wirechat",
		Short: "Terminal client for the wirechat server",
		Long: `wirechat joins a chat room over WebSocket and keeps you there.

Dropped connections are retried until you leave. Accounts and rooms
are managed through the server's REST API.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.load,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default ./wirechat.yaml)")
	flags.StringVar(&c.overrides.LogLevel, "log-level", "", "debug, info, warn, error or off")
	flags.StringVar(&c.overrides.ServerURL, "server", "", "WebSocket endpoint, e.g. ws://localhost:8080/ws")
	flags.StringVar(&c.overrides.APIURL, "api", "", "REST base URL, e.g. http://localhost:8080")

	rootCmd.AddCommand(
		chatCmd(c),
		roomsCmd(c),
		createRoomCmd(c),
		registerCmd(c),
		loginCmd(c),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// load resolves config as defaults < file < env < flags.
func (c *cli) load(cmd *cobra.Command, _ []string) error {
	bootstrap := log.New(c.overrides.LogLevel)

	cfg, resolved, err := config.Load(bootstrap, c.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(c.overrides)
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.cfg = cfg
	c.resolved = resolved
	c.logger = log.New(cfg.LogLevel)
	c.logger.Debug().Str("config", resolved).Str("server", cfg.ServerURL).Msg("config loaded")
	return nil
}

func colorOutput() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}
