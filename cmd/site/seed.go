package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"valetsite/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the demo services and careers into empty collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openLocalDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		st, err := openContentStore(cmd.Context(), cfg, db)
		if err != nil {
			return err
		}
		added, err := store.Seed(cmd.Context(), st, cfg.Collections.Services, cfg.Collections.Careers, store.DefaultSeed())
		if err != nil {
			return err
		}
		logger.Info("seeded", zap.String("store", cfg.Store.Backend), zap.Int("added", added))
		fmt.Fprintf(cmd.OutOrStdout(), "added %d records\n", added)
		return nil
	},
}
