package remote_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"callsheet/internal/assetcache"
	"callsheet/internal/logging"
	"callsheet/internal/media"
	"callsheet/internal/providers/remote"
	"callsheet/internal/testsupport"
)

func speechBackend(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"engine":"higgs-audio-v2","quality":0.92}`))
	})
	mux.HandleFunc("/generate", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write(testsupport.WAVBytes(t, 2.0, 22050))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newSpeech(t *testing.T, baseURL string) (*remote.Speech, *assetcache.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithRemoteTTS(baseURL))
	store, err := assetcache.NewStore(cfg.Paths.CacheDir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return remote.NewSpeech(cfg, store, logging.NewNop()), store
}

func TestSpeechGenerateMissThenHit(t *testing.T) {
	var calls atomic.Int64
	server := speechBackend(t, &calls)
	provider, _ := newSpeech(t, server.URL)
	ctx := context.Background()

	req := media.SpeechRequest{Text: "Three keepers vanished.", Voice: "narrator", Language: "en", Speed: 1.0, Temperature: 0.7}

	first, err := provider.Generate(ctx, req)
	if err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	if first.Cached {
		t.Fatal("first call must be a cache miss")
	}
	if first.Duration < 1.9 || first.Duration > 2.1 {
		t.Fatalf("unexpected probed duration: %g", first.Duration)
	}
	if first.SampleRate != 22050 {
		t.Fatalf("unexpected sample rate: %d", first.SampleRate)
	}

	second, err := provider.Generate(ctx, req)
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if !second.Cached {
		t.Fatal("second call must be a cache hit")
	}
	if second.GenerationTime != 0 {
		t.Fatalf("cached result must report zero generation time, got %s", second.GenerationTime)
	}
	if second.Path != first.Path {
		t.Fatalf("paths differ across calls: %q vs %q", first.Path, second.Path)
	}
	if calls.Load() != 1 {
		t.Fatalf("backend must be called exactly once, got %d", calls.Load())
	}
}

func TestSpeechValidationRejectsBeforeBackend(t *testing.T) {
	var calls atomic.Int64
	server := speechBackend(t, &calls)
	provider, _ := newSpeech(t, server.URL)

	_, err := provider.Generate(context.Background(), media.SpeechRequest{Text: " ", Voice: "narrator", Speed: 1.0})
	if !errors.Is(err, media.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatal("backend must not be called for invalid requests")
	}
}

func TestSpeechTimeoutClassifiedAndNothingCached(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/generate", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t)
	store, err := assetcache.NewStore(cfg.Paths.CacheDir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	backend := remote.NewBackend("speech-backend", server.URL, 50*time.Millisecond)
	req := media.SpeechRequest{Text: "slow", Voice: "narrator", Speed: 1.0}
	digest := req.CacheKey()

	_, genErr := backend.Generate(context.Background(), store, digest, media.ExtAudio, map[string]any{"text": "slow"})
	if !errors.Is(genErr, media.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", genErr)
	}
	if store.Exists(digest, media.ExtAudio) {
		t.Fatal("timed-out generation must not cache an artifact")
	}
}

func TestSpeechAvailability(t *testing.T) {
	var calls atomic.Int64
	server := speechBackend(t, &calls)
	provider, _ := newSpeech(t, server.URL)
	ctx := context.Background()

	if !provider.Available(ctx) {
		t.Fatal("expected healthy backend to be available")
	}
	if err := provider.Warmup(ctx); err != nil {
		t.Fatalf("Warmup failed: %v", err)
	}
	if err := provider.Warmup(ctx); err != nil {
		t.Fatalf("Warmup must be idempotent: %v", err)
	}

	unconfigured, _ := newSpeech(t, "")
	if unconfigured.Available(ctx) {
		t.Fatal("unconfigured backend must not be available")
	}
	if err := unconfigured.Warmup(ctx); !errors.Is(err, media.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSpeechBackendErrorClassifiedAsGeneration(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/generate", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	provider, store := newSpeech(t, server.URL)
	req := media.SpeechRequest{Text: "boom", Voice: "narrator", Speed: 1.0}

	_, err := provider.Generate(context.Background(), req)
	if !errors.Is(err, media.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if errors.Is(err, media.ErrTimeout) {
		t.Fatal("backend failure must not be classified as timeout")
	}
	if store.Exists(req.CacheKey(), media.ExtAudio) {
		t.Fatal("failed generation must not cache an artifact")
	}
}
