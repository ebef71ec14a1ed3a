package config

const (
	defaultManifestPath       = "~/.local/share/callsheet/inbox/render_manifest.json"
	defaultStatusPath         = "~/.local/share/callsheet/outbox/RENDER_STATUS.json"
	defaultOutputDir          = "~/.local/share/callsheet/output"
	defaultCacheDir           = "~/.cache/callsheet/assets"
	defaultLogDir             = "~/.local/share/callsheet/logs"
	defaultAPIBind            = "127.0.0.1:7519"
	defaultPollInterval       = 2
	defaultErrorRetryInterval = 5
	defaultTTSEngine          = "piper"
	defaultTTSVoice           = "en_US-lessac-medium"
	defaultTTSModelsDir       = "~/.local/share/callsheet/models"
	defaultPiperBinary        = "piper"
	defaultTTSTimeout         = 300
	defaultTTSSpeed           = 1.0
	defaultTTSTemperature     = 0.7
	defaultImageTimeout       = 120
	defaultImageWidth         = 1024
	defaultImageHeight        = 1024
	defaultImageSteps         = 50
	defaultImageGuidance      = 7.5
	defaultMusicTimeout       = 300
	defaultMusicMaxDuration   = 300.0
	defaultSFXTimeout         = 120
	defaultSFXMaxDuration     = 30.0
	defaultSFXDuration        = 5.0
	defaultFFmpegBinary       = "ffmpeg"
	defaultVideoTimeout       = 600
	defaultVideoFPS           = 30
	defaultVideoCodec         = "h264"
	defaultVideoQuality       = "high"
	defaultNotifyTimeout      = 10
	defaultLogLevel           = "info"
	defaultLogFormat          = "text"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ManifestPath: defaultManifestPath,
			StatusPath:   defaultStatusPath,
			OutputDir:    defaultOutputDir,
			CacheDir:     defaultCacheDir,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		TTS: TTS{
			Engine:      defaultTTSEngine,
			Voice:       defaultTTSVoice,
			ModelsDir:   defaultTTSModelsDir,
			PiperBinary: defaultPiperBinary,
			Timeout:     defaultTTSTimeout,
			Speed:       defaultTTSSpeed,
			Temperature: defaultTTSTemperature,
		},
		Image: Image{
			Timeout:       defaultImageTimeout,
			Width:         defaultImageWidth,
			Height:        defaultImageHeight,
			Steps:         defaultImageSteps,
			GuidanceScale: defaultImageGuidance,
		},
		Music: Music{
			Timeout:     defaultMusicTimeout,
			MaxDuration: defaultMusicMaxDuration,
		},
		SFX: SFX{
			Timeout:     defaultSFXTimeout,
			MaxDuration: defaultSFXMaxDuration,
			Duration:    defaultSFXDuration,
		},
		Video: Video{
			FFmpegBinary: defaultFFmpegBinary,
			Timeout:      defaultVideoTimeout,
			FPS:          defaultVideoFPS,
			Codec:        defaultVideoCodec,
			Quality:      defaultVideoQuality,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
