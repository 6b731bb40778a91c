package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/plantcare/internal/app"
	"github.com/agenthands/plantcare/internal/config"
	"github.com/agenthands/plantcare/internal/logging"
)

var (
	// Global flags
	configPath string
	dataDir    string
	logLevel   string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "plantcare",
	Short: "Identify plants from photos and keep a plant list",
	Long: `plantcare identifies the species in a plant photo, asks a vision model
about its health and a text model for care advice, and keeps the results in
a local plant list.

Remote services are configured with the settings subcommands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return nil
		}
		var err error
		logger, err = logging.New(logLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $CONFIG_PATH or config/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory for settings, images and the plant list")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error, development)")

	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(plantsCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "failed to load .env:", err)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	return cfg, nil
}

func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return app.Build(ctx, cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
