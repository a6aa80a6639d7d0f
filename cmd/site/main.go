package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"valetsite/internal/config"
	"valetsite/internal/logging"
)

var (
	v      = viper.New()
	logger = zap.NewNop()

	verbose   bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:           "site",
	Short:         "Neighborhood Valet Services website",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logging.Options{Verbose: verbose, Format: logFormat})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	v.SetEnvPrefix("VALET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&logFormat, "log-format", "json", "log format: json or console")
	pf.String("data-dir", ".", "directory holding config.yml, the sqlite database and the admin token")
	pf.String("config", "", "config file (default <data-dir>/config.yml)")
	pf.String("store", "", "content store backend: sqlite, dynamodb, remote, memory")
	pf.String("store-url", "", "base URL of the remote content store")
	pf.String("table", "", "DynamoDB table")
	pf.String("region", "", "AWS region")

	_ = v.BindPFlag("data_dir", pf.Lookup("data-dir"))
	_ = v.BindPFlag("config", pf.Lookup("config"))
	_ = v.BindPFlag("store.backend", pf.Lookup("store"))
	_ = v.BindPFlag("store.base_url", pf.Lookup("store-url"))
	_ = v.BindPFlag("store.table", pf.Lookup("table"))
	_ = v.BindPFlag("store.region", pf.Lookup("region"))

	rootCmd.AddCommand(serveCmd, seedCmd, secretCmd, configCmd)
}

// loadConfig is loadRawConfig plus validation. Warnings are logged.
func loadConfig() (config.Config, string, error) {
	cfg, path, err := loadRawConfig()
	if err != nil {
		return cfg, path, err
	}
	cfg, vr := config.NormalizeAndValidate(cfg)
	for _, w := range vr.Warnings {
		logger.Warn("config", zap.String("warning", w))
	}
	return cfg, path, vr.Err()
}

// loadRawConfig bootstraps <data-dir>/config.yml and applies flag and env overrides.
func loadRawConfig() (config.Config, string, error) {
	dataDir := v.GetString("data_dir")
	if dataDir == "" {
		dataDir = "."
	}
	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return config.Config{}, "", err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return config.Config{}, "", err
	}

	path := v.GetString("config")
	if path == "" {
		path, err = config.EnsureUserConfig(dataDir)
		if err != nil {
			return config.Config{}, "", fmt.Errorf("config bootstrap failed: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg.App.DataDir = dataDir
	config.ApplyOverrides(&cfg, v)
	return cfg, path, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
