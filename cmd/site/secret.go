package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"valetsite/internal/secrets"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the content store API token in the OS keychain",
}

var secretSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the token (read from stdin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read token: %w", err)
		}
		if err := secrets.SetStoreToken(cfg.Store.KeyringAccount, strings.TrimSpace(line)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "token stored for %s/%s\n", secrets.KeyringService, cfg.Store.KeyringAccount)
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the token from the keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if err := secrets.DeleteStoreToken(cfg.Store.KeyringAccount); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "token deleted")
		return nil
	},
}

func init() {
	secretCmd.AddCommand(secretSetCmd, secretDeleteCmd)
}
