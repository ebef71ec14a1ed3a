package daemon

import (
	"context"
	"testing"

	"callsheet/internal/logging"
	"callsheet/internal/media"
	"callsheet/internal/providers"
)

type warmRecorder struct {
	name   string
	warmed bool
	err    error
}

func (w *warmRecorder) Name() string                       { return w.name }
func (w *warmRecorder) Available(ctx context.Context) bool { return true }
func (w *warmRecorder) Warmup(ctx context.Context) error {
	w.warmed = true
	return w.err
}

type warmSpeech struct{ warmRecorder }

func (s *warmSpeech) Generate(ctx context.Context, req media.SpeechRequest) (media.SpeechResult, error) {
	return media.SpeechResult{}, nil
}
func (s *warmSpeech) SupportsVoiceCloning() bool   { return false }
func (s *warmSpeech) SupportsEmotionControl() bool { return false }

type warmImage struct{ warmRecorder }

func (i *warmImage) Generate(ctx context.Context, req media.ImageRequest) (media.ImageResult, error) {
	return media.ImageResult{}, nil
}

type warmMusic struct{ warmRecorder }

func (m *warmMusic) Generate(ctx context.Context, req media.MusicRequest) (media.MusicResult, error) {
	return media.MusicResult{}, nil
}

type warmSFX struct{ warmRecorder }

func (s *warmSFX) Generate(ctx context.Context, req media.SFXRequest) (media.SFXResult, error) {
	return media.SFXResult{}, nil
}

type warmVideo struct{ warmRecorder }

func (v *warmVideo) Assemble(ctx context.Context, req media.AssemblyRequest) (media.AssemblyResult, error) {
	return media.AssemblyResult{}, nil
}

func TestWarmProvidersReachesAllDespiteFailures(t *testing.T) {
	speech := &warmSpeech{warmRecorder{name: "speech"}}
	image := &warmImage{warmRecorder{name: "image", err: media.Wrap(media.ErrUnavailable, "image", "warmup", "backend down", nil)}}
	music := &warmMusic{warmRecorder{name: "music"}}
	sfx := &warmSFX{warmRecorder{name: "sfx"}}
	video := &warmVideo{warmRecorder{name: "video"}}

	d := &Daemon{
		set: &providers.Set{
			Speech: speech,
			Image:  image,
			Music:  music,
			SFX:    sfx,
			Video:  video,
		},
		logger: logging.NewNop(),
	}
	d.warmProviders(context.Background())

	for _, rec := range []*warmRecorder{
		&speech.warmRecorder, &image.warmRecorder, &music.warmRecorder,
		&sfx.warmRecorder, &video.warmRecorder,
	} {
		if !rec.warmed {
			t.Fatalf("provider %s was not warmed", rec.name)
		}
	}
}
