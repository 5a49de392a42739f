package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/api"
	"github.com/vovakirdan/wirechat-client/internal/auth"
	"github.com/vovakirdan/wirechat-client/internal/config"
)

func (c *cli) restClient() *api.Client {
	return api.New(c.cfg.APIURL, c.cfg.DialTimeout, c.logger).
		WithToken(c.cfg.Token).
		WithRawToken(c.cfg.RawAuthHeader)
}

// readPassword takes the password from the flag or the first stdin line.
func readPassword(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func registerCmd(c *cli) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password)
			if err != nil {
				return err
			}
			username, err := auth.CheckCredentials(args[0], pw)
			if err != nil {
				return err
			}

			userID, err := c.restClient().Register(cmd.Context(), username, pw)
			if err != nil {
				return err
			}
			fmt.Printf("registered %s (%s); run `wirechat login %s` next\n", username, userID, username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when omitted)")
	return cmd
}

func loginCmd(c *cli) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and store the token in the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password)
			if err != nil {
				return err
			}

			session, err := c.restClient().Login(cmd.Context(), strings.TrimSpace(args[0]), pw)
			if err != nil {
				return err
			}

			// re-read so flag overrides are not persisted
			stored, _, err := config.Load(c.logger, c.resolved)
			if err != nil {
				return err
			}
			stored.Token = session.Token
			stored.Username = session.Username
			if err := config.Save(c.resolved, stored); err != nil {
				return fmt.Errorf("save token: %w", err)
			}

			c.logger.Debug().Str("config", c.resolved).Msg("token saved")
			fmt.Printf("logged in as %s\n", session.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when omitted)")
	return cmd
}
