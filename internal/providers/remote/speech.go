package remote

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"callsheet/internal/assetcache"
	"callsheet/internal/config"
	"callsheet/internal/logging"
	"callsheet/internal/media"
)

const speechBaselineQuality = 0.92

// Speech generates narration audio through a remote TTS worker.
type Speech struct {
	backend *Backend
	store   *assetcache.Store
	logger  *slog.Logger

	mu      sync.Mutex
	warmed  bool
	quality float64
}

// NewSpeech builds the remote speech provider from configuration.
func NewSpeech(cfg *config.Config, store *assetcache.Store, logger *slog.Logger) *Speech {
	return &Speech{
		backend: NewBackend("speech-backend", cfg.TTS.BaseURL, time.Duration(cfg.TTS.Timeout)*time.Second),
		store:   store,
		logger:  logging.NewComponentLogger(logger, "speech-backend"),
		quality: speechBaselineQuality,
	}
}

func (p *Speech) Name() string { return p.backend.Name() }

func (p *Speech) SupportsVoiceCloning() bool { return true }

func (p *Speech) SupportsEmotionControl() bool { return true }

// Available probes the worker's health endpoint; failures collapse to false.
func (p *Speech) Available(ctx context.Context) bool {
	return p.backend.Healthy(ctx)
}

// Warmup verifies the worker once and memoizes its advertised quality.
func (p *Speech) Warmup(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warmed {
		return nil
	}
	doc, ok := p.backend.Health(ctx)
	if !ok {
		return media.Wrap(media.ErrUnavailable, p.Name(), "warmup", "health check failed", nil)
	}
	p.quality = qualityFrom(doc, speechBaselineQuality)
	p.warmed = true
	return nil
}

// Generate synthesizes narration, serving cache hits without touching the
// backend.
func (p *Speech) Generate(ctx context.Context, req media.SpeechRequest) (media.SpeechResult, error) {
	if err := req.Validate(); err != nil {
		return media.SpeechResult{}, err
	}

	digest := req.CacheKey()
	unlock := p.store.Lock(digest)
	defer unlock()

	if p.store.Exists(digest, media.ExtAudio) {
		return p.cachedResult(digest)
	}

	payload := map[string]any{
		"text":        req.Text,
		"voice":       req.Voice,
		"language":    req.Language,
		"speed":       req.Speed,
		"temperature": req.Temperature,
		"emotion":     req.Emotion,
		"style":       req.Style,
	}

	start := time.Now()
	path, err := p.backend.Generate(ctx, p.store, digest, media.ExtAudio, payload)
	if err != nil {
		return media.SpeechResult{}, err
	}
	elapsed := time.Since(start)

	duration, rate, err := media.ProbeWAV(path)
	if err != nil {
		return media.SpeechResult{}, media.Wrap(media.ErrGeneration, p.Name(), "generate", "backend returned malformed artifact", err)
	}

	p.logger.Info("narration generated",
		logging.String("digest", digest.Short()),
		logging.Float64("audio_seconds", duration),
		logging.Duration("generation_time", elapsed))

	return media.SpeechResult{
		Path:           path,
		Duration:       duration,
		SampleRate:     rate,
		GenerationTime: elapsed,
		QualityScore:   p.currentQuality(),
		Provider:       p.Name(),
	}, nil
}

func (p *Speech) cachedResult(digest assetcache.Digest) (media.SpeechResult, error) {
	path := p.store.Path(digest, media.ExtAudio)
	duration, rate, err := media.ProbeWAV(path)
	if err != nil {
		return media.SpeechResult{}, media.Wrap(media.ErrGeneration, p.Name(), "probe", "cached artifact unreadable", err)
	}
	return media.SpeechResult{
		Path:         path,
		Duration:     duration,
		SampleRate:   rate,
		Cached:       true,
		QualityScore: p.currentQuality(),
		Provider:     p.Name(),
	}, nil
}

func (p *Speech) currentQuality() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quality
}
