package main

import (
	"context"
	"fmt"
	"os"

	"tierconvert/internal/app"
	"tierconvert/internal/config"
	"tierconvert/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "tierconvert",
	Short: "Move archived S3 objects into INTELLIGENT_TIERING",
	Long: `Lists a bucket prefix, restores GLACIER and DEEP_ARCHIVE objects, waits for the
restores to finish and copies every matched object onto itself with the
INTELLIGENT_TIERING storage class. GLACIER_IR objects are converted directly.`,
	SilenceUsage: true,
	RunE:         runConversion,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file, .properties or .yaml (default is ./"+config.DefaultPath+")")
	config.RegisterFlags(rootCmd.Flags())
}

func runConversion(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()
	runner, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	_, err = runner.Run(ctx)

	if closeErr := runner.Close(); closeErr != nil {
		log.Error("Error closing runner", zap.Error(closeErr))
	}

	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
