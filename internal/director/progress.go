package director

import (
	"time"

	"callsheet/internal/manifest"
	"callsheet/internal/status"
)

// Phase progress bands. Weights sum to 1.0, with music holding the
// 0.60-0.70 band as a single atomic step at its milestone.
const (
	ttsBandStart      = 0.0
	ttsBandWidth      = 0.25
	visualsBandStart  = 0.25
	visualsBandWidth  = 0.35
	musicMilestone    = 0.60
	sfxBandStart      = 0.70
	sfxBandWidth      = 0.10
	assemblyBandStart = 0.80
	assemblyBandWidth = 0.20
)

// Heuristic per-unit costs, in seconds, used to seed the time estimate
// before any real progress exists.
const (
	seedSecondsPerScene = 30
	seedSecondsPerBeat  = 45
)

// reporter tracks weighted progress for one manifest execution and writes
// a full status snapshot after every unit of work. Progress is monotone
// non-decreasing; a failure freezes it at the last reported value.
type reporter struct {
	writer    *status.Writer
	projectID string
	start     time.Time
	now       func() time.Time
	seed      int
	progress  float64
	jobs      []status.JobStatus
}

func newReporter(writer *status.Writer, m *manifest.Manifest, now func() time.Time) *reporter {
	jobs := make([]status.JobStatus, len(m.ExportJobs))
	for i, job := range m.ExportJobs {
		jobs[i] = status.JobStatus{
			ID:       job.ID,
			Platform: string(job.Platform),
			Status:   string(job.Status),
		}
	}
	return &reporter{
		writer:    writer,
		projectID: m.ProjectID,
		start:     now(),
		now:       now,
		seed:      len(m.Scenes)*seedSecondsPerScene + m.TotalBeats()*seedSecondsPerBeat,
		jobs:      jobs,
	}
}

// band maps done/total units into [start, start+width].
func band(start, width float64, done, total int) float64 {
	if total <= 0 {
		return start + width
	}
	return start + width*float64(done)/float64(total)
}

func (r *reporter) setJob(index int, job manifest.ExportJob, errMsg string) {
	if index < 0 || index >= len(r.jobs) {
		return
	}
	r.jobs[index] = status.JobStatus{
		ID:          job.ID,
		Platform:    string(job.Platform),
		Status:      string(job.Status),
		DownloadURL: job.DownloadURL,
		Error:       errMsg,
	}
}

// update raises progress to at least target and publishes a snapshot.
func (r *reporter) update(target float64, phase string) error {
	if target > r.progress {
		r.progress = target
	}
	return r.writer.Write(status.Status{
		ProjectID:              r.projectID,
		State:                  status.StateProcessing,
		Progress:               r.progress,
		CurrentPhase:           phase,
		EstimatedTimeRemaining: r.eta(),
		ExportJobs:             r.jobs,
	})
}

func (r *reporter) complete(phase string) error {
	r.progress = 1.0
	return r.writer.Write(status.Status{
		ProjectID:    r.projectID,
		State:        status.StateCompleted,
		Progress:     1.0,
		CurrentPhase: phase,
		ExportJobs:   r.jobs,
	})
}

// fail publishes a FAILED snapshot preserving the last reported progress.
func (r *reporter) fail(message string) error {
	return r.writer.Write(status.Status{
		ProjectID:    r.projectID,
		State:        status.StateFailed,
		Progress:     r.progress,
		CurrentPhase: "Production failed",
		ExportJobs:   r.jobs,
		Errors:       []string{message},
	})
}

// eta derives remaining seconds from elapsed wall time and progress,
// seeded by the per-manifest heuristic before any progress exists.
func (r *reporter) eta() int {
	if r.progress <= 0 {
		return r.seed
	}
	elapsed := r.now().Sub(r.start).Seconds()
	remaining := elapsed/r.progress - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return int(remaining)
}

func (r *reporter) elapsed() time.Duration {
	return r.now().Sub(r.start)
}
