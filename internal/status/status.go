// Package status persists the render status snapshot that external
// consumers poll. The document is the sole observability channel into an
// in-progress run: every write replaces the whole file atomically so a
// reader never observes a half-written document.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State is the lifecycle status of the orchestrator.
type State string

const (
	StateIdle       State = "IDLE"
	StateProcessing State = "PROCESSING"
	StateCompleted  State = "COMPLETED"
	StateFailed     State = "FAILED"
)

// JobStatus mirrors one export job in the status document.
type JobStatus struct {
	ID          string `json:"id"`
	Platform    string `json:"platform"`
	Status      string `json:"status"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Status is the full snapshot written after every unit of work. Every field
// is present on every write, even when unchanged.
type Status struct {
	ProjectID              string      `json:"projectId"`
	State                  State       `json:"status"`
	Progress               float64     `json:"progress"`
	CurrentPhase           string      `json:"currentPhase"`
	EstimatedTimeRemaining int         `json:"estimatedTimeRemaining"`
	ExportJobs             []JobStatus `json:"exportJobs"`
	Errors                 []string    `json:"errors"`
	LastUpdated            string      `json:"lastUpdated"`
}

// Writer persists snapshots to a well-known path via temp file and rename.
type Writer struct {
	path string
	now  func() time.Time
}

// NewWriter ensures the parent directory exists and returns a writer.
func NewWriter(path string) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("status path must not be empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create status directory: %w", err)
		}
	}
	return &Writer{path: path, now: time.Now}, nil
}

// Path returns the snapshot location.
func (w *Writer) Path() string { return w.path }

// Write stamps LastUpdated and atomically replaces the status document.
func (w *Writer) Write(snapshot Status) error {
	snapshot.LastUpdated = w.now().UTC().Format(time.RFC3339)
	if snapshot.ExportJobs == nil {
		snapshot.ExportJobs = []JobStatus{}
	}
	if snapshot.Errors == nil {
		snapshot.Errors = []string{}
	}

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".status-*.tmp")
	if err != nil {
		return fmt.Errorf("create status temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write status: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close status temp file: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish status: %w", err)
	}
	return nil
}

// Read loads the latest snapshot from path.
func Read(path string) (*Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	var snapshot Status
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parse status: %w", err)
	}
	return &snapshot, nil
}
