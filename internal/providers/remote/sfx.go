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

const sfxBaselineQuality = 0.75

// SFX generates sound effects through a remote worker.
type SFX struct {
	backend *Backend
	store   *assetcache.Store
	logger  *slog.Logger

	mu      sync.Mutex
	warmed  bool
	quality float64
}

// NewSFX builds the remote sound-effect provider from configuration.
func NewSFX(cfg *config.Config, store *assetcache.Store, logger *slog.Logger) *SFX {
	return &SFX{
		backend: NewBackend("sfx-backend", cfg.SFX.BaseURL, time.Duration(cfg.SFX.Timeout)*time.Second),
		store:   store,
		logger:  logging.NewComponentLogger(logger, "sfx-backend"),
		quality: sfxBaselineQuality,
	}
}

func (p *SFX) Name() string { return p.backend.Name() }

func (p *SFX) Available(ctx context.Context) bool {
	return p.backend.Healthy(ctx)
}

func (p *SFX) Warmup(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warmed {
		return nil
	}
	doc, ok := p.backend.Health(ctx)
	if !ok {
		return media.Wrap(media.ErrUnavailable, p.Name(), "warmup", "health check failed", nil)
	}
	p.quality = qualityFrom(doc, sfxBaselineQuality)
	p.warmed = true
	return nil
}

func (p *SFX) Generate(ctx context.Context, req media.SFXRequest) (media.SFXResult, error) {
	if err := req.Validate(); err != nil {
		return media.SFXResult{}, err
	}

	digest := req.CacheKey()
	unlock := p.store.Lock(digest)
	defer unlock()

	if p.store.Exists(digest, media.ExtAudio) {
		path := p.store.Path(digest, media.ExtAudio)
		duration, _, err := media.ProbeWAV(path)
		if err != nil {
			return media.SFXResult{}, media.Wrap(media.ErrGeneration, p.Name(), "probe", "cached artifact unreadable", err)
		}
		return media.SFXResult{
			Path:         path,
			Duration:     duration,
			Cached:       true,
			QualityScore: p.currentQuality(),
			Provider:     p.Name(),
		}, nil
	}

	payload := map[string]any{
		"prompt":      req.Prompt,
		"duration":    req.Duration,
		"category":    req.Category,
		"intensity":   req.Intensity,
		"environment": req.Environment,
	}
	if req.Seed != nil {
		payload["seed"] = *req.Seed
	}

	start := time.Now()
	path, err := p.backend.Generate(ctx, p.store, digest, media.ExtAudio, payload)
	if err != nil {
		return media.SFXResult{}, err
	}
	elapsed := time.Since(start)

	duration, _, err := media.ProbeWAV(path)
	if err != nil {
		return media.SFXResult{}, media.Wrap(media.ErrGeneration, p.Name(), "generate", "backend returned malformed artifact", err)
	}

	p.logger.Info("sound effect generated",
		logging.String("digest", digest.Short()),
		logging.Float64("actual_seconds", duration),
		logging.Duration("generation_time", elapsed))

	return media.SFXResult{
		Path:           path,
		Duration:       duration,
		GenerationTime: elapsed,
		QualityScore:   p.currentQuality(),
		Provider:       p.Name(),
	}, nil
}

func (p *SFX) currentQuality() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quality
}
