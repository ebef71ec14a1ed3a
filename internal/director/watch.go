package director

import (
	"context"
	"os"
	"time"

	"callsheet/internal/logging"
)

// Watch polls the manifest path and executes each new version to
// completion before polling again. Iterations that fail are logged and
// retried after the error interval; the loop terminates only when ctx is
// cancelled.
func (d *Director) Watch(ctx context.Context) error {
	interval := time.Duration(d.cfg.Workflow.PollInterval) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}
	retry := time.Duration(d.cfg.Workflow.ErrorRetryInterval) * time.Second
	if retry <= 0 {
		retry = interval
	}

	d.logger.Info("manifest watcher started",
		logging.String("path", d.cfg.Paths.ManifestPath),
		logging.Duration("poll_interval", interval))

	var lastModified time.Time
	for {
		wait := interval
		if info, err := os.Stat(d.cfg.Paths.ManifestPath); err == nil {
			if modified := info.ModTime(); lastModified.IsZero() || modified.After(lastModified) {
				lastModified = modified
				d.logger.Info("new manifest detected",
					logging.String("path", d.cfg.Paths.ManifestPath))
				if err := d.RunOnce(ctx); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					wait = retry
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
