package director

import (
	"context"
	"fmt"

	"log/slog"

	"callsheet/internal/logging"
	"callsheet/internal/manifest"
	"callsheet/internal/media"
)

// probe fails a phase up front when its provider is not ready. Expensive
// work never starts against an unavailable backend.
func probe(ctx context.Context, available func(context.Context) bool, provider, operation string) error {
	if !available(ctx) {
		return media.Wrap(media.ErrUnavailable, provider, operation, "provider not ready", nil)
	}
	return nil
}

// phaseTTS synthesizes narration for every scene in declared order.
func (d *Director) phaseTTS(ctx context.Context, m *manifest.Manifest, rep *reporter, logger *slog.Logger) error {
	if err := probe(ctx, d.set.Speech.Available, d.set.Speech.Name(), "tts"); err != nil {
		return err
	}
	total := len(m.Scenes)
	for idx := range m.Scenes {
		if err := ctx.Err(); err != nil {
			return err
		}
		scene := &m.Scenes[idx]
		result, err := d.set.Speech.Generate(ctx, media.SpeechRequest{
			Text:        scene.NarratorScript,
			Voice:       d.cfg.TTS.Voice,
			Speed:       d.cfg.TTS.Speed,
			Temperature: d.cfg.TTS.Temperature,
		})
		if err != nil {
			return err
		}
		scene.AudioURL = result.Path
		logger.Info("scene narration ready",
			logging.Int("scene", scene.SceneNumber),
			logging.Bool("cached", result.Cached),
			logging.Float64("seconds", result.Duration))
		if err := rep.update(band(ttsBandStart, ttsBandWidth, idx+1, total),
			fmt.Sprintf("Generating scene %d/%d audio", idx+1, total)); err != nil {
			return err
		}
	}
	return nil
}

// phaseVisuals generates one asset per visual beat across all scenes.
// Beats marked VIDEO render a keyframe still; motion is applied at
// assembly time, since no wired backend generates standalone video clips.
func (d *Director) phaseVisuals(ctx context.Context, m *manifest.Manifest, rep *reporter, logger *slog.Logger) error {
	total := m.TotalBeats()
	if total == 0 {
		logger.Info("no visual beats declared, skipping")
		return nil
	}
	if err := probe(ctx, d.set.Image.Available, d.set.Image.Name(), "visuals"); err != nil {
		return err
	}
	count := 0
	for si := range m.Scenes {
		scene := &m.Scenes[si]
		for bi := range scene.VisualBeats {
			if err := ctx.Err(); err != nil {
				return err
			}
			beat := &scene.VisualBeats[bi]
			count++
			prompt := beat.ProductionPrompt
			if prompt == "" {
				prompt = beat.Description
			}
			result, err := d.set.Image.Generate(ctx, media.ImageRequest{
				Prompt:         prompt,
				Width:          d.cfg.Image.Width,
				Height:         d.cfg.Image.Height,
				Style:          string(m.GlobalSettings.VisualStyle),
				GuidanceScale:  d.cfg.Image.GuidanceScale,
				InferenceSteps: d.cfg.Image.Steps,
			})
			if err != nil {
				return err
			}
			beat.AssetURL = result.Path
			logger.Info("visual ready",
				logging.String("beat", beat.ID),
				logging.Bool("cached", result.Cached))
			if err := rep.update(band(visualsBandStart, visualsBandWidth, count, total),
				fmt.Sprintf("Generating visual %d/%d", count, total)); err != nil {
				return err
			}
		}
	}
	return nil
}

// phaseMusic generates the background track as a single atomic step.
// Skipped when background audio is already provided or no mood is set; a
// skip leaves backgroundAudioUrl untouched and writes no status update.
func (d *Director) phaseMusic(ctx context.Context, m *manifest.Manifest, rep *reporter, logger *slog.Logger) error {
	if m.GlobalSettings.BackgroundAudioURL != "" {
		logger.Info("background audio already provided, skipping music generation")
		return nil
	}
	if m.AudioMood == "" {
		logger.Info("no audio mood specified, skipping music generation")
		return nil
	}
	if err := probe(ctx, d.set.Music.Available, d.set.Music.Name(), "music"); err != nil {
		return err
	}
	if err := rep.update(musicMilestone, "Generating background music"); err != nil {
		return err
	}

	duration := 0.0
	for _, scene := range m.Scenes {
		duration += scene.DurationSeconds
	}
	if limit := d.cfg.Music.MaxDuration; limit > 0 && duration > limit {
		duration = limit
	}
	if duration > media.MaxMusicDuration {
		duration = media.MaxMusicDuration
	}

	result, err := d.set.Music.Generate(ctx, media.MusicRequest{
		Prompt:   fmt.Sprintf("Documentary background music, %s", m.AudioMood),
		Duration: duration,
		Mood:     string(m.AudioMood),
	})
	if err != nil {
		return err
	}
	m.GlobalSettings.BackgroundAudioURL = result.Path
	logger.Info("background music ready",
		logging.Bool("cached", result.Cached),
		logging.Float64("seconds", result.Duration))
	return nil
}

// phaseSFX generates one effect per scene that declares a description.
func (d *Director) phaseSFX(ctx context.Context, m *manifest.Manifest, rep *reporter, logger *slog.Logger) error {
	indices := make([]int, 0, len(m.Scenes))
	for i := range m.Scenes {
		if m.Scenes[i].SoundEffectDescription != "" {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		logger.Info("no sound effects requested, skipping")
		return nil
	}
	if err := probe(ctx, d.set.SFX.Available, d.set.SFX.Name(), "sfx"); err != nil {
		return err
	}
	for i, si := range indices {
		if err := ctx.Err(); err != nil {
			return err
		}
		scene := &m.Scenes[si]
		duration := d.cfg.SFX.Duration
		if duration <= 0 {
			duration = 5
		}
		result, err := d.set.SFX.Generate(ctx, media.SFXRequest{
			Prompt:   scene.SoundEffectDescription,
			Duration: duration,
		})
		if err != nil {
			return err
		}
		scene.SoundEffectURL = result.Path
		logger.Info("sound effect ready",
			logging.Int("scene", scene.SceneNumber),
			logging.Bool("cached", result.Cached))
		if err := rep.update(band(sfxBandStart, sfxBandWidth, i+1, len(indices)),
			fmt.Sprintf("Generating SFX %d/%d", i+1, len(indices))); err != nil {
			return err
		}
	}
	return nil
}

// phaseAssembly renders one artifact per export job and marks each job
// completed with its download location.
func (d *Director) phaseAssembly(ctx context.Context, m *manifest.Manifest, rep *reporter, logger *slog.Logger) error {
	total := len(m.ExportJobs)
	if total == 0 {
		logger.Info("no export jobs declared, skipping assembly")
		return nil
	}
	if err := probe(ctx, d.set.Video.Available, d.set.Video.Name(), "assembly"); err != nil {
		return err
	}
	for idx := range m.ExportJobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		job := &m.ExportJobs[idx]
		job.Status = manifest.ExportProcessing
		rep.setJob(idx, *job, "")

		result, err := d.set.Video.Assemble(ctx, d.assemblyRequest(m, *job))
		if err != nil {
			rep.setJob(idx, *job, err.Error())
			return err
		}
		job.DownloadURL = result.Path
		job.Status = manifest.ExportCompleted
		rep.setJob(idx, *job, "")

		logger.Info("export rendered",
			logging.String("job", job.ID),
			logging.String(logging.FieldProvider, result.Provider),
			logging.Bool("cached", result.Cached),
			logging.Int64("bytes", result.FileSize))
		if err := d.notifier.NotifyExportReady(ctx, m.ProjectTitle, string(job.Platform), job.DownloadURL); err != nil {
			logger.Warn("notification failed", logging.Error(err))
		}
		if err := rep.update(band(assemblyBandStart, assemblyBandWidth, idx+1, total),
			fmt.Sprintf("Assembling %s video %d/%d", job.Platform, idx+1, total)); err != nil {
			return err
		}
	}
	return nil
}
