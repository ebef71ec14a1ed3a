// Package providers selects and bundles the concrete generation backends
// the director drives: one provider per media kind, chosen from
// configuration.
package providers

import (
	"fmt"

	"log/slog"

	"callsheet/internal/assetcache"
	"callsheet/internal/config"
	"callsheet/internal/media"
	"callsheet/internal/providers/ffmpeg"
	"callsheet/internal/providers/piper"
	"callsheet/internal/providers/remote"
)

// Set holds one provider per media kind.
type Set struct {
	Speech media.SpeechProvider
	Image  media.ImageProvider
	Music  media.MusicProvider
	SFX    media.SFXProvider
	Video  media.VideoProvider
}

// New wires the provider set from configuration. Speech is the only kind
// with an engine choice; everything else has a single implementation.
func New(cfg *config.Config, store *assetcache.Store, logger *slog.Logger) (*Set, error) {
	set := &Set{
		Image: remote.NewImage(cfg, store, logger),
		Music: remote.NewMusic(cfg, store, logger),
		SFX:   remote.NewSFX(cfg, store, logger),
		Video: ffmpeg.New(cfg, store, logger),
	}

	switch cfg.TTS.Engine {
	case "remote":
		set.Speech = remote.NewSpeech(cfg, store, logger)
	case "piper", "":
		set.Speech = piper.New(cfg, store, logger)
	default:
		return nil, fmt.Errorf("unknown tts engine %q", cfg.TTS.Engine)
	}
	return set, nil
}
