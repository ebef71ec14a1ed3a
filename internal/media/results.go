package media

import "time"

// SpeechResult reports one narration synthesis. Cached results carry
// GenerationTime zero.
type SpeechResult struct {
	Path           string
	Duration       float64
	SampleRate     int
	Cached         bool
	GenerationTime time.Duration
	QualityScore   float64
	Provider       string
}

// ImageResult reports one still-image generation.
type ImageResult struct {
	Path           string
	Cached         bool
	GenerationTime time.Duration
	QualityScore   float64
	Provider       string
}

// MusicResult reports one background-music generation. Duration is the
// actual rendered length, which may differ from the requested duration.
type MusicResult struct {
	Path           string
	Duration       float64
	Cached         bool
	GenerationTime time.Duration
	QualityScore   float64
	Provider       string
}

// SFXResult reports one sound-effect generation.
type SFXResult struct {
	Path           string
	Duration       float64
	Cached         bool
	GenerationTime time.Duration
	QualityScore   float64
	Provider       string
}

// AssemblyResult reports one export-job render.
type AssemblyResult struct {
	Path         string
	Cached       bool
	AssemblyTime time.Duration
	Duration     float64
	FileSize     int64
	Provider     string
}
