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

const imageBaselineQuality = 0.85

// Image generates still images through a remote diffusion worker.
type Image struct {
	backend *Backend
	store   *assetcache.Store
	logger  *slog.Logger

	mu      sync.Mutex
	warmed  bool
	quality float64
}

// NewImage builds the remote image provider from configuration.
func NewImage(cfg *config.Config, store *assetcache.Store, logger *slog.Logger) *Image {
	return &Image{
		backend: NewBackend("image-backend", cfg.Image.BaseURL, time.Duration(cfg.Image.Timeout)*time.Second),
		store:   store,
		logger:  logging.NewComponentLogger(logger, "image-backend"),
		quality: imageBaselineQuality,
	}
}

func (p *Image) Name() string { return p.backend.Name() }

func (p *Image) Available(ctx context.Context) bool {
	return p.backend.Healthy(ctx)
}

func (p *Image) Warmup(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warmed {
		return nil
	}
	doc, ok := p.backend.Health(ctx)
	if !ok {
		return media.Wrap(media.ErrUnavailable, p.Name(), "warmup", "health check failed", nil)
	}
	p.quality = qualityFrom(doc, imageBaselineQuality)
	p.warmed = true
	return nil
}

func (p *Image) Generate(ctx context.Context, req media.ImageRequest) (media.ImageResult, error) {
	if err := req.Validate(); err != nil {
		return media.ImageResult{}, err
	}

	digest := req.CacheKey()
	unlock := p.store.Lock(digest)
	defer unlock()

	if p.store.Exists(digest, media.ExtImage) {
		return media.ImageResult{
			Path:         p.store.Path(digest, media.ExtImage),
			Cached:       true,
			QualityScore: p.currentQuality(),
			Provider:     p.Name(),
		}, nil
	}

	payload := map[string]any{
		"prompt":          req.Prompt,
		"negative_prompt": req.NegativePrompt,
		"width":           req.Width,
		"height":          req.Height,
		"style":           req.Style,
		"guidance_scale":  req.GuidanceScale,
		"inference_steps": req.InferenceSteps,
	}
	if req.Seed != nil {
		payload["seed"] = *req.Seed
	}

	start := time.Now()
	path, err := p.backend.Generate(ctx, p.store, digest, media.ExtImage, payload)
	if err != nil {
		return media.ImageResult{}, err
	}
	elapsed := time.Since(start)

	p.logger.Info("image generated",
		logging.String("digest", digest.Short()),
		logging.Int("width", req.Width),
		logging.Int("height", req.Height),
		logging.Duration("generation_time", elapsed))

	return media.ImageResult{
		Path:           path,
		GenerationTime: elapsed,
		QualityScore:   p.currentQuality(),
		Provider:       p.Name(),
	}, nil
}

func (p *Image) currentQuality() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quality
}
