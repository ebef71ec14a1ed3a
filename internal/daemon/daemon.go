package daemon

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"callsheet/internal/config"
	"callsheet/internal/director"
	"callsheet/internal/logging"
	"callsheet/internal/providers"
	"callsheet/internal/runs"
)

// warmupTimeout bounds the best-effort provider warmup pass at startup.
const warmupTimeout = 30 * time.Second

// Daemon runs the manifest watcher under a single-instance lock and serves
// the observability API.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	set      *providers.Set
	ledger   *runs.Store
	director *director.Director

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a daemon with initialized dependencies. The ledger may be
// nil; the API is disabled when no bind address is configured.
func New(cfg *config.Config, set *providers.Set, ledger *runs.Store, dir *director.Director, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || set == nil || dir == nil || logger == nil {
		return nil, errors.New("daemon requires config, providers, director, and logger")
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "callsheetd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		set:      set,
		ledger:   ledger,
		director: dir,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, d.logger)
	return d, nil
}

// Start acquires the daemon lock, starts the API server, and launches the
// manifest watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another callsheet daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})

	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			cancel()
			_ = d.lock.Unlock()
			return err
		}
	}

	go d.warmProviders(runCtx)

	go func() {
		defer close(d.done)
		if err := d.director.Watch(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("watcher exited", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// warmProviders eagerly initializes every provider so the first manifest
// does not pay cold-start costs. Best effort: a provider that fails to warm
// is logged and probed again when its phase runs.
func (d *Daemon) warmProviders(ctx context.Context) {
	warmCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	warmups := map[string]func(context.Context) error{
		d.set.Speech.Name(): d.set.Speech.Warmup,
		d.set.Image.Name():  d.set.Image.Warmup,
		d.set.Music.Name():  d.set.Music.Warmup,
		d.set.SFX.Name():    d.set.SFX.Warmup,
		d.set.Video.Name():  d.set.Video.Warmup,
	}
	for name, warm := range warmups {
		if err := warm(warmCtx); err != nil {
			d.logger.Warn("provider warmup failed",
				logging.String(logging.FieldProvider, name),
				logging.Error(err))
		}
	}
}

// Stop halts the watcher and API server and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.done != nil {
		<-d.done
		d.done = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases the run ledger.
func (d *Daemon) Close() error {
	d.Stop()
	if d.ledger != nil {
		return d.ledger.Close()
	}
	return nil
}

// Running reports whether Start completed successfully.
func (d *Daemon) Running() bool { return d.running.Load() }

// APIAddr returns the bound API address, empty when the API is disabled.
func (d *Daemon) APIAddr() string {
	if d.api == nil || d.api.listener == nil {
		return ""
	}
	return d.api.listener.Addr().String()
}
