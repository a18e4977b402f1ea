package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nftwatch/internal/app"
	"nftwatch/internal/config"
	"nftwatch/internal/subscription"
)

func main() {
	root := &cobra.Command{
		Use:          "nftwatch",
		Short:        "XRPL NFT sales watcher",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the watcher",
		RunE:  runWatcher,
	}

	runCmd.Flags().String("server", "", "XRPL websocket server URL")
	runCmd.Flags().String("clio-server", "", "Clio server URL for nft_info lookups")
	runCmd.Flags().String("ipfs-gateway", "", "IPFS gateway base URL")
	runCmd.Flags().String("marketplace-url", "", "marketplace base URL for token links")
	runCmd.Flags().String("metadata-url", "", "collection metadata API base URL")
	runCmd.Flags().Duration("refresh-interval", 10*time.Minute, "subscription refresh interval")
	runCmd.Flags().Int64("min-xrp", 100, "minimum XRP sale to announce")
	runCmd.Flags().String("skip-currency", "", "issued currency excluded from announcements")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWatcher(cmd *cobra.Command, _ []string) error {
	// Credentials commonly live in a local .env; absence is fine.
	_ = godotenv.Load()

	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	manager := subscription.NewManager(watcher.SessionFactory, cfg.RefreshInterval, logger)

	logger.Info("watcher start",
		zap.String("server", cfg.ServerURL),
		zap.Int("collections", len(cfg.Collections)),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
	)

	if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
