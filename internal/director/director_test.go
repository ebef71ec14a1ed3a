package director

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"callsheet/internal/config"
	"callsheet/internal/logging"
	"callsheet/internal/manifest"
	"callsheet/internal/media"
	"callsheet/internal/providers"
	"callsheet/internal/runs"
	"callsheet/internal/status"
	"callsheet/internal/testsupport"
)

type fakeProvider struct {
	name      string
	calls     int
	available bool
	err       error
	onCall    func()
}

func (f *fakeProvider) Available(context.Context) bool { return f.available }

func (f *fakeProvider) Warmup(context.Context) error { return nil }

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) step() error {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	return f.err
}

type fakeSpeech struct{ fakeProvider }

func (f *fakeSpeech) Generate(ctx context.Context, req media.SpeechRequest) (media.SpeechResult, error) {
	if err := f.step(); err != nil {
		return media.SpeechResult{}, err
	}
	return media.SpeechResult{
		Path:       fmt.Sprintf("/assets/voice-%d.wav", f.calls),
		Duration:   3,
		SampleRate: 22050,
		Provider:   f.name,
	}, nil
}

func (f *fakeSpeech) SupportsVoiceCloning() bool { return false }

func (f *fakeSpeech) SupportsEmotionControl() bool { return false }

type fakeImage struct{ fakeProvider }

func (f *fakeImage) Generate(ctx context.Context, req media.ImageRequest) (media.ImageResult, error) {
	if err := f.step(); err != nil {
		return media.ImageResult{}, err
	}
	return media.ImageResult{Path: fmt.Sprintf("/assets/beat-%d.png", f.calls), Provider: f.name}, nil
}

type fakeMusic struct{ fakeProvider }

func (f *fakeMusic) Generate(ctx context.Context, req media.MusicRequest) (media.MusicResult, error) {
	if err := f.step(); err != nil {
		return media.MusicResult{}, err
	}
	return media.MusicResult{Path: "/assets/music.wav", Duration: req.Duration, Provider: f.name}, nil
}

type fakeSFX struct{ fakeProvider }

func (f *fakeSFX) Generate(ctx context.Context, req media.SFXRequest) (media.SFXResult, error) {
	if err := f.step(); err != nil {
		return media.SFXResult{}, err
	}
	return media.SFXResult{Path: fmt.Sprintf("/assets/sfx-%d.wav", f.calls), Duration: req.Duration, Provider: f.name}, nil
}

type fakeVideo struct{ fakeProvider }

func (f *fakeVideo) Assemble(ctx context.Context, req media.AssemblyRequest) (media.AssemblyResult, error) {
	if err := f.step(); err != nil {
		return media.AssemblyResult{}, err
	}
	return media.AssemblyResult{
		Path:     fmt.Sprintf("/output/export-%d.mp4", f.calls),
		FileSize: 1 << 20,
		Provider: f.name,
	}, nil
}

type fakes struct {
	speech *fakeSpeech
	image  *fakeImage
	music  *fakeMusic
	sfx    *fakeSFX
	video  *fakeVideo
}

func newFakes() *fakes {
	return &fakes{
		speech: &fakeSpeech{fakeProvider{name: "fake-speech", available: true}},
		image:  &fakeImage{fakeProvider{name: "fake-image", available: true}},
		music:  &fakeMusic{fakeProvider{name: "fake-music", available: true}},
		sfx:    &fakeSFX{fakeProvider{name: "fake-sfx", available: true}},
		video:  &fakeVideo{fakeProvider{name: "fake-video", available: true}},
	}
}

func (f *fakes) set() *providers.Set {
	return &providers.Set{Speech: f.speech, Image: f.image, Music: f.music, SFX: f.sfx, Video: f.video}
}

func newTestDirector(t *testing.T, f *fakes, ledger *runs.Store) (*Director, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	writer, err := status.NewWriter(cfg.Paths.StatusPath)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	return New(cfg, f.set(), writer, ledger, nil, logging.NewNop()), cfg
}

func beat(id string, index int, seconds float64) manifest.VisualBeat {
	return manifest.VisualBeat{
		ID:              id,
		BeatIndex:       index,
		Description:     "a derelict corridor",
		DurationSeconds: seconds,
		MediaType:       manifest.MediaTypeImage,
		KenBurns:        manifest.KenBurnsStatic,
		Transition:      manifest.TransitionCut,
	}
}

// testManifest builds the canonical scenario: two scenes with three beats
// total, no sound effects, no audio mood, one full-video export job.
func testManifest() *manifest.Manifest {
	return &manifest.Manifest{
		ProjectID:    "proj-123",
		ProjectTitle: "Signal Lost",
		GeneratedAt:  "2026-08-30T12:00:00Z",
		GlobalSettings: manifest.GlobalSettings{
			Genre:        "Mystery / Thriller",
			VisualStyle:  "Cinematic Photorealistic",
			AspectRatio:  "16:9",
			MasterVolume: manifest.DefaultMasterVolume(),
		},
		Scenes: []manifest.Scene{
			{
				SceneNumber:     1,
				NarratorScript:  "The last transmission arrived at midnight.",
				DurationSeconds: 20,
				VisualBeats:     []manifest.VisualBeat{beat("b1", 0, 12), beat("b2", 1, 8)},
			},
			{
				SceneNumber:     2,
				NarratorScript:  "Nobody answered the callback.",
				DurationSeconds: 15,
				VisualBeats:     []manifest.VisualBeat{beat("b3", 0, 15)},
			},
		},
		ExportJobs: []manifest.ExportJob{{
			ID:                "job-1",
			Platform:          manifest.PlatformYouTube,
			Type:              manifest.ExportVideoFull,
			StartSceneIndex:   0,
			EndSceneIndex:     1,
			RenderResolution:  manifest.Resolution1080p,
			RenderAspectRatio: "16:9",
			Status:            manifest.ExportPending,
		}},
	}
}

func TestExecuteTwoSceneScenario(t *testing.T) {
	f := newFakes()
	d, cfg := newTestDirector(t, f, nil)
	m := testManifest()

	if err := d.Execute(context.Background(), m); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if f.speech.calls != 2 {
		t.Fatalf("speech calls = %d, want 2", f.speech.calls)
	}
	if f.image.calls != 3 {
		t.Fatalf("image calls = %d, want 3", f.image.calls)
	}
	if f.music.calls != 0 {
		t.Fatalf("music calls = %d, want 0 (no audio mood)", f.music.calls)
	}
	if f.sfx.calls != 0 {
		t.Fatalf("sfx calls = %d, want 0 (no sound effects declared)", f.sfx.calls)
	}
	if f.video.calls != 1 {
		t.Fatalf("video calls = %d, want 1", f.video.calls)
	}

	for i, scene := range m.Scenes {
		if scene.AudioURL == "" {
			t.Fatalf("scene %d missing audio url", i)
		}
		for _, b := range scene.VisualBeats {
			if b.AssetURL == "" {
				t.Fatalf("beat %s missing asset url", b.ID)
			}
		}
	}
	if m.GlobalSettings.BackgroundAudioURL != "" {
		t.Fatalf("skipped music phase must leave backgroundAudioUrl empty, got %q", m.GlobalSettings.BackgroundAudioURL)
	}

	snapshot, err := status.Read(cfg.Paths.StatusPath)
	if err != nil {
		t.Fatalf("Read status failed: %v", err)
	}
	if snapshot.State != status.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED", snapshot.State)
	}
	if snapshot.Progress != 1.0 {
		t.Fatalf("progress = %g, want 1.0", snapshot.Progress)
	}
	if len(snapshot.ExportJobs) != 1 {
		t.Fatalf("export jobs = %d, want 1", len(snapshot.ExportJobs))
	}
	job := snapshot.ExportJobs[0]
	if job.Status != string(manifest.ExportCompleted) {
		t.Fatalf("job status = %s, want completed", job.Status)
	}
	if job.DownloadURL == "" {
		t.Fatal("completed job must carry a download url")
	}
}

func TestExecuteProgressMonotone(t *testing.T) {
	f := newFakes()
	d, cfg := newTestDirector(t, f, nil)
	m := testManifest()
	m.AudioMood = "Dark Ambient (Space, Void)"
	m.Scenes[0].SoundEffectDescription = "metal groaning under pressure"

	var observed []float64
	record := func() {
		snapshot, err := status.Read(cfg.Paths.StatusPath)
		if err != nil {
			t.Errorf("read status: %v", err)
			return
		}
		observed = append(observed, snapshot.Progress)
	}
	f.speech.onCall = record
	f.image.onCall = record
	f.music.onCall = record
	f.sfx.onCall = record
	f.video.onCall = record

	if err := d.Execute(context.Background(), m); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if f.music.calls != 1 || f.sfx.calls != 1 {
		t.Fatalf("music/sfx calls = %d/%d, want 1/1", f.music.calls, f.sfx.calls)
	}
	if m.GlobalSettings.BackgroundAudioURL != "/assets/music.wav" {
		t.Fatalf("music phase must set backgroundAudioUrl, got %q", m.GlobalSettings.BackgroundAudioURL)
	}
	if m.Scenes[0].SoundEffectURL == "" {
		t.Fatal("sfx phase must set soundEffectUrl")
	}

	if len(observed) == 0 {
		t.Fatal("no snapshots observed")
	}
	for i := 1; i < len(observed); i++ {
		if observed[i] < observed[i-1] {
			t.Fatalf("progress decreased: %v", observed)
		}
	}

	final, err := status.Read(cfg.Paths.StatusPath)
	if err != nil {
		t.Fatalf("Read status failed: %v", err)
	}
	if final.Progress != 1.0 || final.State != status.StateCompleted {
		t.Fatalf("final snapshot = %s %g, want COMPLETED 1.0", final.State, final.Progress)
	}
}

func TestExecuteSkipsMusicWhenBackgroundAudioProvided(t *testing.T) {
	f := newFakes()
	d, _ := newTestDirector(t, f, nil)
	m := testManifest()
	m.AudioMood = "Dark Ambient (Space, Void)"
	m.GlobalSettings.BackgroundAudioURL = "/assets/provided.wav"

	if err := d.Execute(context.Background(), m); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if f.music.calls != 0 {
		t.Fatalf("music calls = %d, want 0", f.music.calls)
	}
	if m.GlobalSettings.BackgroundAudioURL != "/assets/provided.wav" {
		t.Fatalf("provided background audio must stay untouched, got %q", m.GlobalSettings.BackgroundAudioURL)
	}
}

func TestExecuteFailureFreezesProgress(t *testing.T) {
	f := newFakes()
	boom := media.Wrap(media.ErrTimeout, "fake-image", "generate", "backend exceeded deadline", nil)
	f.image.err = boom

	ledger, err := runs.Open(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer ledger.Close()

	d, cfg := newTestDirector(t, f, ledger)
	m := testManifest()

	execErr := d.Execute(context.Background(), m)
	if !errors.Is(execErr, media.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", execErr)
	}

	snapshot, err := status.Read(cfg.Paths.StatusPath)
	if err != nil {
		t.Fatalf("Read status failed: %v", err)
	}
	if snapshot.State != status.StateFailed {
		t.Fatalf("state = %s, want FAILED", snapshot.State)
	}
	// Both scenes narrated before the visuals phase died, so progress must
	// be frozen at the full TTS band.
	if snapshot.Progress != 0.25 {
		t.Fatalf("progress = %g, want 0.25", snapshot.Progress)
	}
	if len(snapshot.Errors) != 1 || snapshot.Errors[0] != execErr.Error() {
		t.Fatalf("errors = %v, want the failure message", snapshot.Errors)
	}

	rows, err := ledger.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 run row, got %d", len(rows))
	}
	if rows[0].State != string(status.StateFailed) {
		t.Fatalf("run state = %s, want FAILED", rows[0].State)
	}
	if rows[0].Progress != 0.25 {
		t.Fatalf("run progress = %g, want 0.25", rows[0].Progress)
	}
}

func TestExecuteUnavailableProviderFailsRun(t *testing.T) {
	f := newFakes()
	f.speech.available = false
	d, cfg := newTestDirector(t, f, nil)

	err := d.Execute(context.Background(), testManifest())
	if !errors.Is(err, media.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if f.speech.calls != 0 {
		t.Fatalf("unavailable provider must not be invoked, got %d calls", f.speech.calls)
	}

	snapshot, readErr := status.Read(cfg.Paths.StatusPath)
	if readErr != nil {
		t.Fatalf("Read status failed: %v", readErr)
	}
	if snapshot.State != status.StateFailed {
		t.Fatalf("state = %s, want FAILED", snapshot.State)
	}
}

func TestRunOnceRejectsInvalidManifest(t *testing.T) {
	f := newFakes()
	d, cfg := newTestDirector(t, f, nil)

	doc := `{
		"projectId": "proj-9",
		"projectTitle": "Bad Platform",
		"generatedAt": "2026-08-30T12:00:00Z",
		"globalSettings": {"genre": "True Crime", "visualStyle": "Vintage 35mm Film", "aspectRatio": "16:9"},
		"scenes": [{"sceneNumber": 1, "narratorScript": "text", "durationSeconds": 10, "visualBeats": []}],
		"exportJobs": [{"id": "j1", "platform": "vimeo", "type": "video_full", "startSceneIndex": 0, "endSceneIndex": 0}]
	}`
	writeManifestFile(t, cfg, doc)

	err := d.RunOnce(context.Background())
	if !errors.Is(err, manifest.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if f.speech.calls != 0 {
		t.Fatal("rejected manifest must not start any phase")
	}

	snapshot, readErr := status.Read(cfg.Paths.StatusPath)
	if readErr != nil {
		t.Fatalf("Read status failed: %v", readErr)
	}
	if snapshot.State != status.StateFailed {
		t.Fatalf("state = %s, want FAILED (never PROCESSING)", snapshot.State)
	}
	if snapshot.Progress != 0 {
		t.Fatalf("progress = %g, want 0", snapshot.Progress)
	}
	if len(snapshot.Errors) != 1 {
		t.Fatalf("errors = %v, want the parse failure", snapshot.Errors)
	}
}

func TestWatchExecutesOnManifestChange(t *testing.T) {
	f := newFakes()
	d, cfg := newTestDirector(t, f, nil)

	writeTestManifest(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Watch(ctx) }()

	deadline := time.After(10 * time.Second)
	for {
		snapshot, readErr := status.Read(cfg.Paths.StatusPath)
		if readErr == nil && snapshot.State == status.StateCompleted {
			break
		}
		select {
		case <-deadline:
			t.Fatal("watcher never completed the manifest")
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Watch returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
	if f.video.calls != 1 {
		t.Fatalf("video calls = %d, want exactly 1 execution", f.video.calls)
	}
}

func writeTestManifest(t *testing.T, cfg *config.Config) {
	t.Helper()
	doc := `{
		"projectId": "proj-123",
		"projectTitle": "Signal Lost",
		"generatedAt": "2026-08-30T12:00:00Z",
		"globalSettings": {"genre": "Mystery / Thriller", "visualStyle": "Cinematic Photorealistic", "aspectRatio": "16:9"},
		"scenes": [
			{"sceneNumber": 1, "narratorScript": "The last transmission arrived at midnight.", "durationSeconds": 20,
			 "visualBeats": [{"id": "b1", "beatIndex": 0, "description": "a derelict corridor", "durationSeconds": 12, "mediaType": "IMAGE"}]},
			{"sceneNumber": 2, "narratorScript": "Nobody answered the callback.", "durationSeconds": 15,
			 "visualBeats": [{"id": "b2", "beatIndex": 0, "description": "an empty console", "durationSeconds": 15, "mediaType": "IMAGE"}]}
		],
		"exportJobs": [{"id": "job-1", "platform": "youtube", "type": "video_full", "startSceneIndex": 0, "endSceneIndex": 1}]
	}`
	writeManifestFile(t, cfg, doc)
}

func writeManifestFile(t *testing.T, cfg *config.Config, doc string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.ManifestPath), 0o755); err != nil {
		t.Fatalf("mkdir manifest dir: %v", err)
	}
	if err := os.WriteFile(cfg.Paths.ManifestPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}
