package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"valetsite/internal/config"
)

var writeNormalized bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the site config",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config.yml and print errors and warnings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadRawConfig()
		if err != nil {
			return err
		}
		normalized, vr := config.NormalizeAndValidate(cfg)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"path": path, "validation": vr}); err != nil {
			return err
		}
		if !vr.OK() {
			return vr.Err()
		}
		if writeNormalized {
			if err := config.SaveAtomic(path, normalized); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		}
		return nil
	},
}

func init() {
	configValidateCmd.Flags().BoolVar(&writeNormalized, "write", false, "save the normalized config back to the file")
	configCmd.AddCommand(configValidateCmd)
}
