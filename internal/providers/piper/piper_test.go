package piper

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"callsheet/internal/assetcache"
	"callsheet/internal/logging"
	"callsheet/internal/media"
	"callsheet/internal/testsupport"
)

func installVoice(t *testing.T, modelsDir, voice string) {
	t.Helper()
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		t.Fatalf("mkdir models dir: %v", err)
	}
	for _, name := range []string{voice + ".onnx", voice + ".json"} {
		if err := os.WriteFile(filepath.Join(modelsDir, name), []byte("stub"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func newProvider(t *testing.T) (*Provider, *assetcache.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	installVoice(t, cfg.TTS.ModelsDir, cfg.TTS.Voice)
	store, err := assetcache.NewStore(cfg.Paths.CacheDir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return New(cfg, store, logging.NewNop()), store
}

func stubCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		outputPath := ""
		for i, arg := range args {
			if arg == "--output_file" && i+1 < len(args) {
				outputPath = args[i+1]
			}
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			"HELPER_MODE="+mode,
			"HELPER_OUTPUT="+outputPath,
		)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("HELPER_MODE") {
	case "synthesize":
		data := testsupport.WAVBytes(t, 1.5, 22050)
		if err := os.WriteFile(os.Getenv("HELPER_OUTPUT"), data, 0o644); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	case "fail":
		os.Stderr.WriteString("piper: unable to load model\n")
		os.Exit(1)
	}
	os.Exit(2)
}

func TestGenerateMissThenHit(t *testing.T) {
	provider, _ := newProvider(t)
	stubCommand(t, "synthesize")
	ctx := context.Background()

	req := media.SpeechRequest{Text: "The log ended mid-sentence.", Voice: provider.voice, Speed: 1.0, Temperature: 0.7}

	first, err := provider.Generate(ctx, req)
	if err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	if first.Cached {
		t.Fatal("first call must be a cache miss")
	}
	if first.SampleRate != 22050 {
		t.Fatalf("unexpected sample rate: %d", first.SampleRate)
	}
	if first.QualityScore != baselineQuality {
		t.Fatalf("unexpected quality score: %g", first.QualityScore)
	}

	// A hit must never shell out; break the stub to prove it.
	stubCommand(t, "fail")
	second, err := provider.Generate(ctx, req)
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if !second.Cached || second.GenerationTime != 0 {
		t.Fatalf("expected cache hit with zero generation time, got %+v", second)
	}
	if second.Path != first.Path {
		t.Fatalf("paths differ across calls: %q vs %q", first.Path, second.Path)
	}
}

func TestGenerateReplacesPartialCachedArtifact(t *testing.T) {
	provider, store := newProvider(t)
	stubCommand(t, "synthesize")
	ctx := context.Background()

	req := media.SpeechRequest{Text: "The tape cuts out mid-word.", Voice: provider.voice, Speed: 1.0}
	// A writer killed mid-synthesis leaves a truncated file at the cache path.
	partial := store.Path(req.CacheKey(), media.ExtAudio)
	if err := os.WriteFile(partial, []byte("RIF"), 0o644); err != nil {
		t.Fatalf("plant partial artifact: %v", err)
	}

	result, err := provider.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Cached {
		t.Fatal("partial artifact must not count as a cache hit")
	}
	if result.SampleRate != 22050 {
		t.Fatalf("expected resynthesized audio, got %+v", result)
	}

	// The repaired entry serves hits; break the stub to prove no shell-out.
	stubCommand(t, "fail")
	second, err := provider.Generate(ctx, req)
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if !second.Cached {
		t.Fatal("expected cache hit after repair")
	}

	leftovers, err := filepath.Glob(filepath.Join(store.Root(), ".speech-*"))
	if err != nil {
		t.Fatalf("glob temp files: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestGenerateClassifiesBinaryFailure(t *testing.T) {
	provider, store := newProvider(t)
	stubCommand(t, "fail")

	req := media.SpeechRequest{Text: "doomed", Voice: provider.voice, Speed: 1.0}
	_, err := provider.Generate(context.Background(), req)
	if !errors.Is(err, media.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if store.Exists(req.CacheKey(), media.ExtAudio) {
		t.Fatal("failed synthesis must not cache an artifact")
	}
}

func TestAvailableRequiresModelFiles(t *testing.T) {
	provider, _ := newProvider(t)
	ctx := context.Background()

	if !provider.Available(ctx) {
		t.Fatal("expected provider with installed voice to be available")
	}
	if err := provider.Warmup(ctx); err != nil {
		t.Fatalf("Warmup failed: %v", err)
	}

	cfg := testsupport.NewConfig(t)
	store, err := assetcache.NewStore(cfg.Paths.CacheDir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	missing := New(cfg, store, logging.NewNop())
	if missing.Available(ctx) {
		t.Fatal("expected provider without model files to be unavailable")
	}
	if err := missing.Warmup(ctx); !errors.Is(err, media.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestVoicesListsInstalledPairs(t *testing.T) {
	provider, _ := newProvider(t)
	installVoice(t, provider.modelsDir, "en_GB-alan-low")
	// An onnx without its json does not count.
	if err := os.WriteFile(filepath.Join(provider.modelsDir, "orphan.onnx"), []byte("stub"), 0o644); err != nil {
		t.Fatalf("write orphan model: %v", err)
	}

	voices, err := provider.Voices()
	if err != nil {
		t.Fatalf("Voices failed: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %v", voices)
	}
	if provider.SupportsVoiceCloning() || provider.SupportsEmotionControl() {
		t.Fatal("piper must not advertise cloning or emotion control")
	}
}
