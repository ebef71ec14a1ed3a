// Package piper implements the local speech provider backed by the Piper
// TTS binary. Voice models live as <voice>.onnx plus <voice>.json pairs
// under the configured models directory; generation shells out to the
// binary, synthesizes to a temp file, and renames the artifact into the
// asset cache so readers never observe a partial write.
package piper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"log/slog"

	"callsheet/internal/assetcache"
	"callsheet/internal/config"
	"callsheet/internal/logging"
	"callsheet/internal/media"
)

var commandContext = exec.CommandContext

// Local synthesis quality sits below the remote worker's tier.
const baselineQuality = 0.72

// Provider synthesizes narration with a local Piper installation.
type Provider struct {
	binary    string
	modelsDir string
	voice     string
	timeout   time.Duration
	store     *assetcache.Store
	logger    *slog.Logger

	mu     sync.Mutex
	warmed bool
}

// New builds the piper provider from configuration.
func New(cfg *config.Config, store *assetcache.Store, logger *slog.Logger) *Provider {
	return &Provider{
		binary:    cfg.TTS.PiperBinary,
		modelsDir: cfg.TTS.ModelsDir,
		voice:     cfg.TTS.Voice,
		timeout:   time.Duration(cfg.TTS.Timeout) * time.Second,
		store:     store,
		logger:    logging.NewComponentLogger(logger, "piper"),
	}
}

func (p *Provider) Name() string { return "piper" }

func (p *Provider) SupportsVoiceCloning() bool { return false }

func (p *Provider) SupportsEmotionControl() bool { return false }

// Available reports whether the requested voice's model and config files
// both exist on disk.
func (p *Provider) Available(ctx context.Context) bool {
	return p.voiceFilesExist(p.voice)
}

// Warmup verifies model files once; Generate self-initializes when skipped.
func (p *Provider) Warmup(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warmed {
		return nil
	}
	if err := p.verifyVoice(p.voice); err != nil {
		return err
	}
	p.warmed = true
	return nil
}

// Voices lists installed voice models: every .onnx with a matching .json.
func (p *Provider) Voices() ([]string, error) {
	entries, err := os.ReadDir(p.modelsDir)
	if err != nil {
		return nil, fmt.Errorf("read models directory: %w", err)
	}
	var voices []string
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) != ".onnx" {
			continue
		}
		stem := name[:len(name)-len(".onnx")]
		if _, err := os.Stat(filepath.Join(p.modelsDir, stem+".json")); err == nil {
			voices = append(voices, stem)
		}
	}
	return voices, nil
}

// Generate synthesizes narration, serving cache hits without invoking the
// binary.
func (p *Provider) Generate(ctx context.Context, req media.SpeechRequest) (media.SpeechResult, error) {
	if err := req.Validate(); err != nil {
		return media.SpeechResult{}, err
	}

	voice := req.Voice
	if voice == "" {
		voice = p.voice
	}
	if err := p.verifyVoice(voice); err != nil {
		return media.SpeechResult{}, err
	}

	digest := req.CacheKey()
	unlock := p.store.Lock(digest)
	defer unlock()

	outputPath := p.store.Path(digest, media.ExtAudio)
	if p.store.Exists(digest, media.ExtAudio) {
		duration, rate, err := media.ProbeWAV(outputPath)
		if err == nil {
			return media.SpeechResult{
				Path:         outputPath,
				Duration:     duration,
				SampleRate:   rate,
				Cached:       true,
				QualityScore: baselineQuality,
				Provider:     p.Name(),
			}, nil
		}
		// An interrupted writer left a partial artifact; discard and resynthesize.
		p.logger.Warn("discarding unreadable cached artifact",
			logging.String("digest", digest.Short()),
			logging.Error(err))
		os.Remove(outputPath)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if p.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	// Synthesize to a temp path and rename into place so a concurrent
	// process or a crash never exposes a partial artifact at the cache path.
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".speech-*."+media.ExtAudio)
	if err != nil {
		return media.SpeechResult{}, media.Wrap(media.ErrGeneration, p.Name(), "generate", "create temp artifact", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := []string{
		"--model", filepath.Join(p.modelsDir, voice+".onnx"),
		"--config", filepath.Join(p.modelsDir, voice+".json"),
		"--output_file", tmpPath,
		"--length_scale", strconv.FormatFloat(1.0/req.Speed, 'f', 3, 64),
	}

	start := time.Now()
	cmd := commandContext(runCtx, p.binary, args...) //nolint:gosec
	cmd.Stdin = newTextReader(req.Text)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return media.SpeechResult{}, media.Wrap(media.ErrTimeout, p.Name(), "generate", fmt.Sprintf("synthesis exceeded %s deadline", p.timeout), err)
		}
		return media.SpeechResult{}, media.Wrap(media.ErrGeneration, p.Name(), "generate", fmt.Sprintf("piper failed: %s", firstLine(output)), err)
	}
	elapsed := time.Since(start)

	duration, rate, err := media.ProbeWAV(tmpPath)
	if err != nil {
		return media.SpeechResult{}, media.Wrap(media.ErrGeneration, p.Name(), "generate", "piper produced malformed audio", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return media.SpeechResult{}, media.Wrap(media.ErrGeneration, p.Name(), "generate", "publish artifact", err)
	}

	p.logger.Info("narration synthesized",
		logging.String("voice", voice),
		logging.String("digest", digest.Short()),
		logging.Float64("audio_seconds", duration),
		logging.Duration("generation_time", elapsed))

	return media.SpeechResult{
		Path:           outputPath,
		Duration:       duration,
		SampleRate:     rate,
		GenerationTime: elapsed,
		QualityScore:   baselineQuality,
		Provider:       p.Name(),
	}, nil
}

func (p *Provider) voiceFilesExist(voice string) bool {
	if voice == "" {
		return false
	}
	if _, err := os.Stat(filepath.Join(p.modelsDir, voice+".onnx")); err != nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(p.modelsDir, voice+".json")); err != nil {
		return false
	}
	return true
}

func (p *Provider) verifyVoice(voice string) error {
	if !p.voiceFilesExist(voice) {
		return media.Wrap(media.ErrUnavailable, p.Name(), "verify",
			fmt.Sprintf("voice model %q not found under %s (expected %s.onnx and %s.json)", voice, p.modelsDir, voice, voice), nil)
	}
	return nil
}
