package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"callsheet/internal/assetcache"
)

// Native container extension per media kind.
const (
	ExtAudio = "wav"
	ExtImage = "png"
	ExtVideo = "mp4"
)

// Kind-specific validation bounds.
const (
	MaxMusicDuration = 300.0
	MaxSFXDuration   = 30.0
	MinTempo         = 20
	MaxTempo         = 300
	MaxFPS           = 120
)

// SpeechRequest describes one narration synthesis call. Optional string
// fields use "" for absent.
type SpeechRequest struct {
	Text        string
	Voice       string
	Language    string
	Speed       float64
	Temperature float64
	Emotion     string
	Style       string
}

func (r SpeechRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return Wrap(ErrValidation, "", "speech", "text must not be blank", nil)
	}
	if strings.TrimSpace(r.Voice) == "" {
		return Wrap(ErrValidation, "", "speech", "voice must not be blank", nil)
	}
	if r.Speed <= 0 {
		return Wrap(ErrValidation, "", "speech", fmt.Sprintf("speed must be positive, got %g", r.Speed), nil)
	}
	if r.Temperature < 0 {
		return Wrap(ErrValidation, "", "speech", fmt.Sprintf("temperature must not be negative, got %g", r.Temperature), nil)
	}
	return nil
}

func (r SpeechRequest) CacheKey() assetcache.Digest {
	return deriveKey("speech",
		r.Text,
		r.Voice,
		r.Language,
		formatFloat(r.Speed),
		formatFloat(r.Temperature),
		r.Emotion,
		r.Style,
	)
}

// ImageRequest describes one still-image generation call. A nil Seed means
// the backend picks its own; an explicit seed is part of the cache identity.
type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Style          string
	Seed           *int64
	GuidanceScale  float64
	InferenceSteps int
}

func (r ImageRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return Wrap(ErrValidation, "", "image", "prompt must not be blank", nil)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return Wrap(ErrValidation, "", "image", fmt.Sprintf("dimensions must be positive, got %dx%d", r.Width, r.Height), nil)
	}
	if r.GuidanceScale < 0 {
		return Wrap(ErrValidation, "", "image", fmt.Sprintf("guidance scale must not be negative, got %g", r.GuidanceScale), nil)
	}
	if r.InferenceSteps <= 0 {
		return Wrap(ErrValidation, "", "image", fmt.Sprintf("inference steps must be positive, got %d", r.InferenceSteps), nil)
	}
	return nil
}

func (r ImageRequest) CacheKey() assetcache.Digest {
	return deriveKey("image",
		r.Prompt,
		r.NegativePrompt,
		strconv.Itoa(r.Width),
		strconv.Itoa(r.Height),
		r.Style,
		optInt64(r.Seed),
		formatFloat(r.GuidanceScale),
		strconv.Itoa(r.InferenceSteps),
	)
}

// MusicRequest describes one background-music generation call.
type MusicRequest struct {
	Prompt          string
	Duration        float64
	Genre           string
	Mood            string
	Tempo           *int
	Key             string
	Instrumentation string
	Seed            *int64
}

func (r MusicRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return Wrap(ErrValidation, "", "music", "prompt must not be blank", nil)
	}
	if r.Duration <= 0 || r.Duration > MaxMusicDuration {
		return Wrap(ErrValidation, "", "music", fmt.Sprintf("duration must be in (0, %g] seconds, got %g", MaxMusicDuration, r.Duration), nil)
	}
	if r.Tempo != nil && (*r.Tempo < MinTempo || *r.Tempo > MaxTempo) {
		return Wrap(ErrValidation, "", "music", fmt.Sprintf("tempo must be %d-%d BPM, got %d", MinTempo, MaxTempo, *r.Tempo), nil)
	}
	return nil
}

func (r MusicRequest) CacheKey() assetcache.Digest {
	return deriveKey("music",
		r.Prompt,
		formatFloat(r.Duration),
		r.Genre,
		r.Mood,
		optInt(r.Tempo),
		r.Key,
		r.Instrumentation,
		optInt64(r.Seed),
	)
}

// SFXRequest describes one sound-effect generation call.
type SFXRequest struct {
	Prompt      string
	Duration    float64
	Category    string
	Intensity   string
	Environment string
	Seed        *int64
}

func (r SFXRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return Wrap(ErrValidation, "", "sfx", "prompt must not be blank", nil)
	}
	if r.Duration <= 0 || r.Duration > MaxSFXDuration {
		return Wrap(ErrValidation, "", "sfx", fmt.Sprintf("duration must be in (0, %g] seconds, got %g", MaxSFXDuration, r.Duration), nil)
	}
	return nil
}

func (r SFXRequest) CacheKey() assetcache.Digest {
	return deriveKey("sfx",
		r.Prompt,
		formatFloat(r.Duration),
		r.Category,
		r.Intensity,
		r.Environment,
		optInt64(r.Seed),
	)
}

// Clip is one timeline segment in a video assembly: a visual (image or
// pre-rendered video), the narration audio under it, and optional effects.
type Clip struct {
	ImagePath  string
	VideoPath  string
	AudioPath  string
	SFXPath    string
	Duration   float64
	KenBurns   string
	Transition string
}

func (c Clip) canonical() string {
	return strings.Join([]string{
		c.ImagePath,
		c.VideoPath,
		c.AudioPath,
		c.SFXPath,
		formatFloat(c.Duration),
		c.KenBurns,
		c.Transition,
	}, "|")
}

// AssemblyRequest describes one export-job render.
type AssemblyRequest struct {
	Clips       []Clip
	Title       string
	Width       int
	Height      int
	FPS         int
	Format      string
	Codec       string
	Quality     string
	MusicPath   string
	MusicVolume float64
	VoiceVolume float64
	SFXVolume   float64
	Watermark   string
}

func (r AssemblyRequest) Validate() error {
	if len(r.Clips) == 0 {
		return Wrap(ErrValidation, "", "assembly", "at least one clip is required", nil)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return Wrap(ErrValidation, "", "assembly", fmt.Sprintf("dimensions must be positive, got %dx%d", r.Width, r.Height), nil)
	}
	if r.FPS <= 0 || r.FPS > MaxFPS {
		return Wrap(ErrValidation, "", "assembly", fmt.Sprintf("fps must be in (0, %d], got %d", MaxFPS, r.FPS), nil)
	}
	for i, clip := range r.Clips {
		if clip.ImagePath == "" && clip.VideoPath == "" {
			return Wrap(ErrValidation, "", "assembly", fmt.Sprintf("clip %d has no visual", i), nil)
		}
		if clip.Duration <= 0 {
			return Wrap(ErrValidation, "", "assembly", fmt.Sprintf("clip %d duration must be positive, got %g", i, clip.Duration), nil)
		}
	}
	return nil
}

func (r AssemblyRequest) CacheKey() assetcache.Digest {
	clips := make([]string, 0, len(r.Clips))
	for _, clip := range r.Clips {
		clips = append(clips, clip.canonical())
	}
	return deriveKey("assembly",
		strings.Join(clips, "||"),
		r.Title,
		fmt.Sprintf("%dx%d", r.Width, r.Height),
		strconv.Itoa(r.FPS),
		r.Format,
		r.Codec,
		r.Quality,
		r.MusicPath,
		formatFloat(r.MusicVolume),
		formatFloat(r.VoiceVolume),
		formatFloat(r.SFXVolume),
		r.Watermark,
	)
}

// deriveKey hashes the canonical serialization of a request: the kind tag
// followed by every semantic field in fixed order, absent optionals encoded
// as "". Ephemeral values (correlation ids, timestamps) never enter it.
func deriveKey(kind string, fields ...string) assetcache.Digest {
	sum := sha256.Sum256([]byte(kind + "|" + strings.Join(fields, "|")))
	return assetcache.Digest(hex.EncodeToString(sum[:]))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func optInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
