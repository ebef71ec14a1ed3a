package config

import (
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	if err := c.normalizeTTS(); err != nil {
		return err
	}
	c.normalizeBackends()
	c.normalizeVideo()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []*string{
		&c.Paths.ManifestPath,
		&c.Paths.StatusPath,
		&c.Paths.OutputDir,
		&c.Paths.CacheDir,
		&c.Paths.LogDir,
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollInterval <= 0 {
		c.Workflow.PollInterval = defaultPollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
}

func (c *Config) normalizeTTS() error {
	c.TTS.Engine = strings.ToLower(strings.TrimSpace(c.TTS.Engine))
	if c.TTS.Engine == "" {
		c.TTS.Engine = defaultTTSEngine
	}
	c.TTS.Voice = strings.TrimSpace(c.TTS.Voice)
	if c.TTS.Voice == "" {
		c.TTS.Voice = defaultTTSVoice
	}
	c.TTS.PiperBinary = strings.TrimSpace(c.TTS.PiperBinary)
	if c.TTS.PiperBinary == "" {
		c.TTS.PiperBinary = defaultPiperBinary
	}
	modelsDir, err := expandPath(strings.TrimSpace(c.TTS.ModelsDir))
	if err != nil {
		return err
	}
	c.TTS.ModelsDir = modelsDir
	c.TTS.BaseURL = backendURL(c.TTS.BaseURL, "CALLSHEET_TTS_BASE_URL")
	if c.TTS.Speed <= 0 {
		c.TTS.Speed = defaultTTSSpeed
	}
	if c.TTS.Temperature <= 0 {
		c.TTS.Temperature = defaultTTSTemperature
	}
	return nil
}

// normalizeBackends resolves remote backend endpoints, preferring explicit
// config values over environment variables.
func (c *Config) normalizeBackends() {
	c.Image.BaseURL = backendURL(c.Image.BaseURL, "CALLSHEET_IMAGE_BASE_URL")
	c.Music.BaseURL = backendURL(c.Music.BaseURL, "CALLSHEET_MUSIC_BASE_URL")
	c.SFX.BaseURL = backendURL(c.SFX.BaseURL, "CALLSHEET_SFX_BASE_URL")
}

func (c *Config) normalizeVideo() {
	c.Video.FFmpegBinary = strings.TrimSpace(c.Video.FFmpegBinary)
	if c.Video.FFmpegBinary == "" {
		c.Video.FFmpegBinary = defaultFFmpegBinary
	}
	c.Video.Codec = strings.ToLower(strings.TrimSpace(c.Video.Codec))
	if c.Video.Codec == "" {
		c.Video.Codec = defaultVideoCodec
	}
	c.Video.Quality = strings.ToLower(strings.TrimSpace(c.Video.Quality))
	if c.Video.Quality == "" {
		c.Video.Quality = defaultVideoQuality
	}
	if c.Video.FPS <= 0 {
		c.Video.FPS = defaultVideoFPS
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		c.Notifications.NtfyTopic = strings.TrimSpace(os.Getenv("CALLSHEET_NTFY_TOPIC"))
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

func backendURL(value, envKey string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(value), "/")
	if trimmed != "" {
		return trimmed
	}
	return strings.TrimRight(strings.TrimSpace(os.Getenv(envKey)), "/")
}
