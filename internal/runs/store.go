// Package runs persists the execution ledger: one row per manifest
// execution, written at run start and finish. The ledger backs the CLI runs
// command and the daemon HTTP API; it is observability only and never
// drives orchestration decisions.
package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"callsheet/internal/config"
)

// Run is one recorded manifest execution.
type Run struct {
	ID             string             `json:"id"`
	ProjectID      string             `json:"projectId"`
	ProjectTitle   string             `json:"projectTitle"`
	State          string             `json:"state"`
	Progress       float64            `json:"progress"`
	Phase          string             `json:"phase,omitempty"`
	ErrorMessage   string             `json:"errorMessage,omitempty"`
	PhaseDurations map[string]float64 `json:"phaseDurations,omitempty"`
	StartedAt      time.Time          `json:"startedAt"`
	FinishedAt     *time.Time         `json:"finishedAt,omitempty"`
}

// Duration returns wall-clock execution time, zero while still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stats aggregates the ledger.
type Stats struct {
	Total     int
	Completed int
	Failed    int
	Running   int
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the runs database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Begin records the start of a manifest execution.
func (s *Store) Begin(ctx context.Context, runID, projectID, projectTitle string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, project_id, project_title, state, progress, started_at)
         VALUES (?, ?, ?, ?, 0, ?)`,
		runID,
		projectID,
		nullableString(projectTitle),
		"PROCESSING",
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish records the outcome of a manifest execution.
func (s *Store) Finish(ctx context.Context, runID, state string, progress float64, errMsg string, phaseDurations map[string]float64) error {
	var durationsJSON any
	if len(phaseDurations) > 0 {
		payload, err := json.Marshal(phaseDurations)
		if err != nil {
			return fmt.Errorf("marshal phase durations: %w", err)
		}
		durationsJSON = string(payload)
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET state = ?, progress = ?, error_message = ?, phase_durations_json = ?, finished_at = ?
         WHERE id = ?`,
		state,
		progress,
		nullableString(errMsg),
		durationsJSON,
		time.Now().UTC().Format(time.RFC3339Nano),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run: run %s not found", runID)
	}
	return nil
}

// UpdatePhase records the currently executing phase for a running execution.
func (s *Store) UpdatePhase(ctx context.Context, runID, phase string, progress float64) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET phase = ?, progress = ? WHERE id = ?`,
		nullableString(phase),
		progress,
		runID,
	)
	if err != nil {
		return fmt.Errorf("update run phase: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, project_id, project_title, state, progress, phase, error_message, phase_durations_json, started_at, finished_at
         FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return result, nil
}

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, project_id, project_title, state, progress, phase, error_message, phase_durations_json, started_at, finished_at
         FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

// Stats aggregates ledger counts by state.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM runs GROUP BY state`)
	if err != nil {
		return Stats{}, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return Stats{}, fmt.Errorf("scan run stats: %w", err)
		}
		stats.Total += count
		switch state {
		case "COMPLETED":
			stats.Completed += count
		case "FAILED":
			stats.Failed += count
		case "PROCESSING":
			stats.Running += count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate run stats: %w", err)
	}
	return stats, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run            Run
		projectTitle   sql.NullString
		phase          sql.NullString
		errorMessage   sql.NullString
		durationsJSON  sql.NullString
		startedAtText  string
		finishedAtText sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.ProjectID,
		&projectTitle,
		&run.State,
		&run.Progress,
		&phase,
		&errorMessage,
		&durationsJSON,
		&startedAtText,
		&finishedAtText,
	); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.ProjectTitle = projectTitle.String
	run.Phase = phase.String
	run.ErrorMessage = errorMessage.String

	if durationsJSON.Valid && durationsJSON.String != "" {
		if err := json.Unmarshal([]byte(durationsJSON.String), &run.PhaseDurations); err != nil {
			return nil, fmt.Errorf("parse phase durations: %w", err)
		}
	}

	startedAt, err := time.Parse(time.RFC3339Nano, startedAtText)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = startedAt

	if finishedAtText.Valid && finishedAtText.String != "" {
		finishedAt, err := time.Parse(time.RFC3339Nano, finishedAtText.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &finishedAt
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
