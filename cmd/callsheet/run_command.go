package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"callsheet/internal/assetcache"
	"callsheet/internal/director"
	"callsheet/internal/logging"
	"callsheet/internal/notifications"
	"callsheet/internal/providers"
	"callsheet/internal/runs"
	"callsheet/internal/status"
)

// newRunCommand executes the configured manifest once, without the daemon.
func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute the configured manifest once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := assetcache.NewStore(cfg.Paths.CacheDir)
			if err != nil {
				return fmt.Errorf("open asset cache: %w", err)
			}
			set, err := providers.New(cfg, store, logger)
			if err != nil {
				return err
			}
			writer, err := status.NewWriter(cfg.Paths.StatusPath)
			if err != nil {
				return fmt.Errorf("open status writer: %w", err)
			}
			ledger, err := runs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer ledger.Close()

			runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			dir := director.New(cfg, set, writer, ledger, notifications.NewService(cfg), logger)
			if err := dir.RunOnce(runCtx); err != nil {
				return fmt.Errorf("production failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Production complete")
			return nil
		},
	}
}
