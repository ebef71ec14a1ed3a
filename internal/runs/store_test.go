package runs_test

import (
	"context"
	"testing"

	"callsheet/internal/runs"
	"callsheet/internal/testsupport"
)

func openStore(t *testing.T) *runs.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := runs.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBeginAndFinishRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Begin(ctx, "run-1", "proj-001", "The Vanishing Lighthouse Keeper"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	run, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if run.State != "PROCESSING" || run.FinishedAt != nil {
		t.Fatalf("unexpected in-flight run: %+v", run)
	}
	if run.ProjectTitle != "The Vanishing Lighthouse Keeper" {
		t.Fatalf("unexpected title: %q", run.ProjectTitle)
	}

	durations := map[string]float64{"tts": 4.2, "visuals": 9.8}
	if err := store.Finish(ctx, "run-1", "COMPLETED", 1.0, "", durations); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	run, err = store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get after finish failed: %v", err)
	}
	if run.State != "COMPLETED" || run.Progress != 1.0 {
		t.Fatalf("unexpected finished run: %+v", run)
	}
	if run.FinishedAt == nil || run.Duration() < 0 {
		t.Fatalf("expected finished timestamp, got %+v", run)
	}
	if run.PhaseDurations["visuals"] != 9.8 {
		t.Fatalf("unexpected phase durations: %+v", run.PhaseDurations)
	}
	if run.ErrorMessage != "" {
		t.Fatalf("unexpected error message: %q", run.ErrorMessage)
	}
}

func TestFinishUnknownRunFails(t *testing.T) {
	store := openStore(t)
	if err := store.Finish(context.Background(), "missing", "FAILED", 0.4, "boom", nil); err == nil {
		t.Fatal("expected error finishing unknown run")
	}
}

func TestListNewestFirstAndStats(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if err := store.Begin(ctx, id, "proj-001", ""); err != nil {
			t.Fatalf("Begin %s failed: %v", id, err)
		}
	}
	if err := store.Finish(ctx, "run-a", "COMPLETED", 1.0, "", nil); err != nil {
		t.Fatalf("Finish run-a failed: %v", err)
	}
	if err := store.Finish(ctx, "run-b", "FAILED", 0.35, "timeout: music-backend: generate", nil); err != nil {
		t.Fatalf("Finish run-b failed: %v", err)
	}

	list, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(list))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 1 || stats.Failed != 1 || stats.Running != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	failed, err := store.Get(ctx, "run-b")
	if err != nil {
		t.Fatalf("Get run-b failed: %v", err)
	}
	if failed.Progress != 0.35 {
		t.Fatalf("failed run must preserve last-known progress, got %g", failed.Progress)
	}
	if failed.ErrorMessage == "" {
		t.Fatal("expected error message on failed run")
	}
}
