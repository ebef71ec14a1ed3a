// Command callsheetd runs the production daemon: it watches the manifest
// path, executes each new manifest through the director, and serves the
// observability API.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"callsheet/internal/assetcache"
	"callsheet/internal/config"
	"callsheet/internal/daemon"
	"callsheet/internal/director"
	"callsheet/internal/logging"
	"callsheet/internal/notifications"
	"callsheet/internal/providers"
	"callsheet/internal/runs"
	"callsheet/internal/status"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Backend URLs and the ntfy topic may come from the environment.
	_ = godotenv.Load()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewForDir(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	ledger, err := runs.Open(cfg)
	if err != nil {
		logger.Error("open run ledger", logging.Error(err))
		return
	}

	store, err := assetcache.NewStore(cfg.Paths.CacheDir)
	if err != nil {
		logger.Error("open asset cache", logging.Error(err))
		return
	}

	set, err := providers.New(cfg, store, logger)
	if err != nil {
		logger.Error("wire providers", logging.Error(err))
		return
	}

	writer, err := status.NewWriter(cfg.Paths.StatusPath)
	if err != nil {
		logger.Error("open status writer", logging.Error(err))
		return
	}

	notifier := notifications.NewService(cfg)
	dir := director.New(cfg, set, writer, ledger, notifier, logger)

	d, err := daemon.New(cfg, set, ledger, dir, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("callsheetd shutting down")
}
