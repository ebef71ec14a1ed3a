package config

import (
	"fmt"
	"sort"
	"strings"
)

// Validate checks semantic correctness of the configuration. It assumes
// normalize has already run.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	required := map[string]string{
		"paths.manifest_path": c.Paths.ManifestPath,
		"paths.status_path":   c.Paths.StatusPath,
		"paths.output_dir":    c.Paths.OutputDir,
		"paths.cache_dir":     c.Paths.CacheDir,
	}
	return ensureNonEmptyMap(required)
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.poll_interval":        c.Workflow.PollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	})
}

func (c *Config) validateTTS() error {
	switch c.TTS.Engine {
	case "piper", "remote":
	default:
		return fmt.Errorf("tts.engine: unsupported value %q (expected piper or remote)", c.TTS.Engine)
	}
	if c.TTS.Engine == "remote" && c.TTS.BaseURL == "" {
		return fmt.Errorf("tts.base_url: required when tts.engine is remote")
	}
	if c.TTS.Engine == "piper" && c.TTS.ModelsDir == "" {
		return fmt.Errorf("tts.models_dir: required when tts.engine is piper")
	}
	return ensurePositiveMap(map[string]int{
		"tts.timeout": c.TTS.Timeout,
	})
}

func (c *Config) validateGeneration() error {
	if err := ensurePositiveMap(map[string]int{
		"image.timeout": c.Image.Timeout,
		"image.width":   c.Image.Width,
		"image.height":  c.Image.Height,
		"image.steps":   c.Image.Steps,
		"music.timeout": c.Music.Timeout,
		"sfx.timeout":   c.SFX.Timeout,
	}); err != nil {
		return err
	}
	if c.Image.GuidanceScale <= 0 {
		return fmt.Errorf("image.guidance_scale: must be greater than zero")
	}
	if c.Music.MaxDuration <= 0 {
		return fmt.Errorf("music.max_duration: must be greater than zero")
	}
	if c.SFX.MaxDuration <= 0 {
		return fmt.Errorf("sfx.max_duration: must be greater than zero")
	}
	if c.SFX.Duration <= 0 || c.SFX.Duration > c.SFX.MaxDuration {
		return fmt.Errorf("sfx.duration: must be in (0, %g]", c.SFX.MaxDuration)
	}
	return nil
}

func (c *Config) validateVideo() error {
	if err := ensurePositiveMap(map[string]int{
		"video.timeout": c.Video.Timeout,
	}); err != nil {
		return err
	}
	if c.Video.FPS <= 0 || c.Video.FPS > 120 {
		return fmt.Errorf("video.fps: must be in (0, 120]")
	}
	switch c.Video.Quality {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("video.quality: unsupported value %q (expected low, medium, or high)", c.Video.Quality)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func ensureNonEmptyMap(values map[string]string) error {
	keys := sortedKeys(values)
	for _, key := range keys {
		if strings.TrimSpace(values[key]) == "" {
			return fmt.Errorf("%s: must not be empty", key)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := sortedKeysInt(values)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s: must be greater than zero", key)
		}
	}
	return nil
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysInt(values map[string]int) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
