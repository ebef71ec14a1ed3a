package director

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"callsheet/internal/config"
	"callsheet/internal/logging"
	"callsheet/internal/manifest"
	"callsheet/internal/media"
	"callsheet/internal/notifications"
	"callsheet/internal/providers"
	"callsheet/internal/runs"
	"callsheet/internal/status"
)

// Director executes production manifests: five sequential phases per
// manifest, weighted progress reporting through the status document, and a
// run row in the ledger for every execution.
type Director struct {
	cfg      *config.Config
	set      *providers.Set
	writer   *status.Writer
	ledger   *runs.Store
	notifier notifications.Service
	logger   *slog.Logger

	now      func() time.Time
	newRunID func() string
}

// New builds a director. The ledger may be nil; notifications default to
// the configured service.
func New(cfg *config.Config, set *providers.Set, writer *status.Writer, ledger *runs.Store, notifier notifications.Service, logger *slog.Logger) *Director {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Director{
		cfg:      cfg,
		set:      set,
		writer:   writer,
		ledger:   ledger,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "director"),
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// RunOnce loads the configured manifest and executes it to completion.
// A manifest that fails to parse is reported as FAILED without ever
// entering PROCESSING.
func (d *Director) RunOnce(ctx context.Context) error {
	m, err := manifest.Load(d.cfg.Paths.ManifestPath)
	if err != nil {
		d.logger.Error("manifest rejected", logging.Error(err))
		d.reportLoadFailure(err)
		return err
	}
	return d.Execute(ctx, m)
}

func (d *Director) reportLoadFailure(cause error) {
	snapshot := status.Status{
		ProjectID:    "unknown",
		State:        status.StateFailed,
		CurrentPhase: "Failed to load manifest",
		Errors:       []string{cause.Error()},
	}
	if err := d.writer.Write(snapshot); err != nil {
		d.logger.Error("status write failed", logging.Error(err))
	}
}

// Execute runs the full pipeline for one manifest. Any phase error aborts
// the run; failures are reported through the status document and the
// ledger, never retried here. Retry policy belongs to provider backends.
func (d *Director) Execute(ctx context.Context, m *manifest.Manifest) error {
	runID := d.newRunID()
	logger := d.logger.With(
		logging.String(logging.FieldProjectID, m.ProjectID),
		logging.String(logging.FieldRunID, runID),
	)
	logger.Info("production started",
		logging.String("title", m.ProjectTitle),
		logging.Int("scenes", len(m.Scenes)),
		logging.Int("beats", m.TotalBeats()),
		logging.Int("export_jobs", len(m.ExportJobs)))

	if d.ledger != nil {
		if err := d.ledger.Begin(ctx, runID, m.ProjectID, m.ProjectTitle); err != nil {
			logger.Error("ledger begin failed", logging.Error(err))
		}
	}
	if err := d.notifier.NotifyRunStarted(ctx, m.ProjectTitle, len(m.Scenes), len(m.ExportJobs)); err != nil {
		logger.Warn("notification failed", logging.Error(err))
	}

	rep := newReporter(d.writer, m, d.now)
	durations := make(map[string]float64, 5)

	if err := rep.update(0, "Starting production..."); err != nil {
		return d.finishFailed(ctx, runID, m, rep, durations, "startup", err, logger)
	}

	if phase, err := d.runPhases(ctx, m, rep, durations, logger); err != nil {
		return d.finishFailed(ctx, runID, m, rep, durations, phase, err, logger)
	}

	elapsed := rep.elapsed()
	if err := rep.complete(fmt.Sprintf("Production complete (%.1fs)", elapsed.Seconds())); err != nil {
		logger.Error("status write failed", logging.Error(err))
	}
	if d.ledger != nil {
		if err := d.ledger.Finish(ctx, runID, string(status.StateCompleted), 1.0, "", durations); err != nil {
			logger.Error("ledger finish failed", logging.Error(err))
		}
	}
	if err := d.notifier.NotifyRunCompleted(ctx, m.ProjectTitle, elapsed); err != nil {
		logger.Warn("notification failed", logging.Error(err))
	}
	logger.Info("production completed", logging.Duration("elapsed", elapsed))
	return nil
}

func (d *Director) runPhases(ctx context.Context, m *manifest.Manifest, rep *reporter, durations map[string]float64, logger *slog.Logger) (string, error) {
	phases := []struct {
		name string
		run  func(context.Context, *manifest.Manifest, *reporter, *slog.Logger) error
	}{
		{"tts", d.phaseTTS},
		{"visuals", d.phaseVisuals},
		{"music", d.phaseMusic},
		{"sfx", d.phaseSFX},
		{"assembly", d.phaseAssembly},
	}
	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return phase.name, err
		}
		phaseLogger := logger.With(logging.String(logging.FieldPhase, phase.name))
		start := d.now()
		err := phase.run(ctx, m, rep, phaseLogger)
		durations[phase.name] = d.now().Sub(start).Seconds()
		if err != nil {
			return phase.name, err
		}
	}
	return "", nil
}

// finishFailed reports a failed execution: FAILED status with progress
// preserved at its last reported value, a closed ledger row, and a
// notification. Cancellation closes the ledger row without publishing a
// FAILED snapshot.
func (d *Director) finishFailed(ctx context.Context, runID string, m *manifest.Manifest, rep *reporter, durations map[string]float64, phase string, cause error, logger *slog.Logger) error {
	logger.Error("production failed",
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, media.Hint(cause)),
		logging.Float64("progress", rep.progress))

	cancelled := errors.Is(cause, context.Canceled)
	if !cancelled {
		if err := rep.fail(cause.Error()); err != nil {
			logger.Error("status write failed", logging.Error(err))
		}
		if err := d.notifier.NotifyRunFailed(ctx, m.ProjectTitle, phase, cause); err != nil {
			logger.Warn("notification failed", logging.Error(err))
		}
	}
	if d.ledger != nil {
		// ctx may already be cancelled; still close the run row.
		if err := d.ledger.Finish(context.Background(), runID, string(status.StateFailed), rep.progress, cause.Error(), durations); err != nil {
			logger.Error("ledger finish failed", logging.Error(err))
		}
	}
	return cause
}
