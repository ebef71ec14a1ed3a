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

const musicBaselineQuality = 0.8

// Music generates background music through a remote worker.
type Music struct {
	backend *Backend
	store   *assetcache.Store
	logger  *slog.Logger

	mu      sync.Mutex
	warmed  bool
	quality float64
}

// NewMusic builds the remote music provider from configuration.
func NewMusic(cfg *config.Config, store *assetcache.Store, logger *slog.Logger) *Music {
	return &Music{
		backend: NewBackend("music-backend", cfg.Music.BaseURL, time.Duration(cfg.Music.Timeout)*time.Second),
		store:   store,
		logger:  logging.NewComponentLogger(logger, "music-backend"),
		quality: musicBaselineQuality,
	}
}

func (p *Music) Name() string { return p.backend.Name() }

func (p *Music) Available(ctx context.Context) bool {
	return p.backend.Healthy(ctx)
}

func (p *Music) Warmup(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warmed {
		return nil
	}
	doc, ok := p.backend.Health(ctx)
	if !ok {
		return media.Wrap(media.ErrUnavailable, p.Name(), "warmup", "health check failed", nil)
	}
	p.quality = qualityFrom(doc, musicBaselineQuality)
	p.warmed = true
	return nil
}

func (p *Music) Generate(ctx context.Context, req media.MusicRequest) (media.MusicResult, error) {
	if err := req.Validate(); err != nil {
		return media.MusicResult{}, err
	}

	digest := req.CacheKey()
	unlock := p.store.Lock(digest)
	defer unlock()

	if p.store.Exists(digest, media.ExtAudio) {
		path := p.store.Path(digest, media.ExtAudio)
		duration, _, err := media.ProbeWAV(path)
		if err != nil {
			return media.MusicResult{}, media.Wrap(media.ErrGeneration, p.Name(), "probe", "cached artifact unreadable", err)
		}
		return media.MusicResult{
			Path:         path,
			Duration:     duration,
			Cached:       true,
			QualityScore: p.currentQuality(),
			Provider:     p.Name(),
		}, nil
	}

	payload := map[string]any{
		"prompt":          req.Prompt,
		"duration":        req.Duration,
		"genre":           req.Genre,
		"mood":            req.Mood,
		"key":             req.Key,
		"instrumentation": req.Instrumentation,
	}
	if req.Tempo != nil {
		payload["tempo"] = *req.Tempo
	}
	if req.Seed != nil {
		payload["seed"] = *req.Seed
	}

	start := time.Now()
	path, err := p.backend.Generate(ctx, p.store, digest, media.ExtAudio, payload)
	if err != nil {
		return media.MusicResult{}, err
	}
	elapsed := time.Since(start)

	duration, _, err := media.ProbeWAV(path)
	if err != nil {
		return media.MusicResult{}, media.Wrap(media.ErrGeneration, p.Name(), "generate", "backend returned malformed artifact", err)
	}

	p.logger.Info("music generated",
		logging.String("digest", digest.Short()),
		logging.Float64("requested_seconds", req.Duration),
		logging.Float64("actual_seconds", duration),
		logging.Duration("generation_time", elapsed))

	return media.MusicResult{
		Path:           path,
		Duration:       duration,
		GenerationTime: elapsed,
		QualityScore:   p.currentQuality(),
		Provider:       p.Name(),
	}, nil
}

func (p *Music) currentQuality() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quality
}
