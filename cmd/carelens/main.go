// Package main is the carelens CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/carelens/internal/config"
	"github.com/hyperjump/carelens/pkg/utils"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultConfigPath = "/usr/local/etc/carelens/config.yaml"

var (
	appConfig *config.Config
	logger    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "carelens",
	Short: "HIV and mental health risk assessment for chat transcripts",
	Long: `carelens scores chat conversations for HIV exposure risk and mental health
risk. Each conversation gets a keyword rule score and a generative model
judgment, blended 40/60, plus a care recommendation grounded in excerpts
retrieved from the NDOH guidelines document.

API keys are read from the environment; a .env file in the working
directory is loaded first when present.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		_ = godotenv.Load()

		path, _ := cmd.Flags().GetString("config")
		cfg, resolved, err := loadConfig(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		debug, _ := cmd.Flags().GetBool("debug")
		cfg.Debug = cfg.Debug || debug

		logger = utils.MustLogger(cfg.Debug)
		appConfig = cfg
		logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", cfg.Debug))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
}

// loadConfig loads config from path. For the default path, ./config.yaml wins when it
// exists, and a missing default file yields the built-in defaults. Returns the config
// and the path actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			local := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(local); err == nil {
				cfg, err := config.Load(local)
				if err != nil {
					return nil, "", err
				}
				return cfg, local, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
