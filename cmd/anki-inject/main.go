// Package main provides the entry point for the anki-inject CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ersonp/anki-inject/internal/infrastructure/config"
	"github.com/ersonp/anki-inject/pkg/logger"
)

var (
	version   = "0.1.0-dev"
	configDir string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:               "anki-inject",
		Short:             "Generate Anki flashcards from text with an LLM and insert them as they stream",
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default: $ANKI_INJECT_CONFIG_DIR or the user config dir)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error, disabled (default from config)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	rootCmd.AddCommand(
		newGenerateCmd(),
		newInsertCmd(),
		newDecksCmd(),
		newRefineCmd(),
		newReplayCmd(),
		newHistoryCmd(),
		newConfigCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}

// setup loads .env, resolves the config directory and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	if configDir == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return err
		}
		configDir = dir
	}

	logLevel, logJSON, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	if logLevel == "" || !cmd.Flags().Changed("log-json") {
		// Unset flags fall back to the config file.
		if cfg, err := config.Load(configDir); err == nil {
			if logLevel == "" {
				logLevel = cfg.Log.Level
			}
			if !cmd.Flags().Changed("log-json") {
				logJSON = cfg.Log.JSON
			}
		}
	}
	logger.SetupLogger(logLevel, logJSON)

	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), logger.GetDefault()))
	return nil
}
