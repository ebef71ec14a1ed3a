package media

import "context"

// SpeechProvider generates narration audio. Generate checks the asset cache
// before invoking its backend and self-initializes if Warmup was skipped.
// Available is a cheap, side-effect-free readiness probe that never returns
// an error and never blocks longer than a short deadline.
type SpeechProvider interface {
	Generate(ctx context.Context, req SpeechRequest) (SpeechResult, error)
	Available(ctx context.Context) bool
	Warmup(ctx context.Context) error
	SupportsVoiceCloning() bool
	SupportsEmotionControl() bool
	Name() string
}

// ImageProvider generates still images for visual beats.
type ImageProvider interface {
	Generate(ctx context.Context, req ImageRequest) (ImageResult, error)
	Available(ctx context.Context) bool
	Warmup(ctx context.Context) error
	Name() string
}

// MusicProvider generates background music.
type MusicProvider interface {
	Generate(ctx context.Context, req MusicRequest) (MusicResult, error)
	Available(ctx context.Context) bool
	Warmup(ctx context.Context) error
	Name() string
}

// SFXProvider generates sound effects.
type SFXProvider interface {
	Generate(ctx context.Context, req SFXRequest) (SFXResult, error)
	Available(ctx context.Context) bool
	Warmup(ctx context.Context) error
	Name() string
}

// VideoProvider assembles export-job renders from generated assets.
type VideoProvider interface {
	Assemble(ctx context.Context, req AssemblyRequest) (AssemblyResult, error)
	Available(ctx context.Context) bool
	Warmup(ctx context.Context) error
	Name() string
}
