package director

import (
	"callsheet/internal/manifest"
	"callsheet/internal/media"
)

// assemblyRequest slices the scene timeline for one export job and maps it
// onto the assembler contract. Narration and sound effects ride the first
// clip of their scene; volumes come from the manifest's master mix.
func (d *Director) assemblyRequest(m *manifest.Manifest, job manifest.ExportJob) media.AssemblyRequest {
	scenes := m.Scenes[job.StartSceneIndex : job.EndSceneIndex+1]

	clips := make([]media.Clip, 0, len(scenes))
	for _, scene := range scenes {
		for bi, beat := range scene.VisualBeats {
			clip := media.Clip{
				ImagePath:  beat.AssetURL,
				Duration:   beat.DurationSeconds,
				KenBurns:   string(beat.KenBurns),
				Transition: string(beat.Transition),
			}
			if bi == 0 {
				clip.AudioPath = scene.AudioURL
				clip.SFXPath = scene.SoundEffectURL
			}
			clips = append(clips, clip)
		}
	}

	width, height := renderDimensions(job.RenderResolution, job.RenderAspectRatio)
	volume := m.GlobalSettings.MasterVolume
	if volume == nil {
		volume = manifest.DefaultMasterVolume()
	}

	format := ""
	if job.Type == manifest.ExportAudioOnly {
		format = "mp3"
	}

	return media.AssemblyRequest{
		Clips:       clips,
		Title:       job.ID,
		Width:       width,
		Height:      height,
		FPS:         d.cfg.Video.FPS,
		Format:      format,
		Codec:       d.cfg.Video.Codec,
		Quality:     d.cfg.Video.Quality,
		MusicPath:   m.GlobalSettings.BackgroundAudioURL,
		MusicVolume: volume.Music,
		VoiceVolume: volume.Voice,
		SFXVolume:   volume.SFX,
		Watermark:   job.WatermarkText,
	}
}

// renderDimensions maps a resolution tier and aspect ratio to pixel
// dimensions. The tier names the short side, so 1080p portrait renders
// 1080x1920.
func renderDimensions(res manifest.Resolution, aspect manifest.AspectRatio) (int, int) {
	tier := 1080
	switch res {
	case manifest.Resolution720p:
		tier = 720
	case manifest.Resolution4K:
		tier = 2160
	}

	w, h := aspectParts(aspect)
	if w >= h {
		return tier * w / h, tier
	}
	return tier, tier * h / w
}

func aspectParts(aspect manifest.AspectRatio) (int, int) {
	switch aspect {
	case "9:16":
		return 9, 16
	case "1:1":
		return 1, 1
	case "4:3":
		return 4, 3
	default:
		return 16, 9
	}
}
