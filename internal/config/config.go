package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file locations and the API bind address.
type Paths struct {
	ManifestPath string `toml:"manifest_path"`
	StatusPath   string `toml:"status_path"`
	OutputDir    string `toml:"output_dir"`
	CacheDir     string `toml:"cache_dir"`
	LogDir       string `toml:"log_dir"`
	APIBind      string `toml:"api_bind"`
}

// Workflow contains watcher timing configuration.
type Workflow struct {
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// TTS contains text-to-speech engine configuration.
type TTS struct {
	Engine      string  `toml:"engine"` // "piper" or "remote"
	Voice       string  `toml:"voice"`
	ModelsDir   string  `toml:"models_dir"`
	PiperBinary string  `toml:"piper_binary"`
	BaseURL     string  `toml:"base_url"`
	Timeout     int     `toml:"timeout"`
	Speed       float64 `toml:"speed"`
	Temperature float64 `toml:"temperature"`
}

// Image contains image generation backend configuration.
type Image struct {
	BaseURL       string  `toml:"base_url"`
	Timeout       int     `toml:"timeout"`
	Width         int     `toml:"width"`
	Height        int     `toml:"height"`
	Steps         int     `toml:"steps"`
	GuidanceScale float64 `toml:"guidance_scale"`
}

// Music contains music generation backend configuration.
type Music struct {
	BaseURL     string  `toml:"base_url"`
	Timeout     int     `toml:"timeout"`
	MaxDuration float64 `toml:"max_duration"`
}

// SFX contains sound-effect generation backend configuration.
type SFX struct {
	BaseURL     string  `toml:"base_url"`
	Timeout     int     `toml:"timeout"`
	MaxDuration float64 `toml:"max_duration"`
	Duration    float64 `toml:"duration"`
}

// Video contains video assembly configuration.
type Video struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	Timeout      int    `toml:"timeout"`
	FPS          int    `toml:"fps"`
	Codec        string `toml:"codec"`
	Quality      string `toml:"quality"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for Callsheet.
//
// Sections by subsystem:
//   - Paths: manifest/status document locations, cache and output dirs
//   - Workflow: manifest watcher polling intervals
//   - TTS/Image/Music/SFX/Video: per-engine provider settings
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Workflow      Workflow      `toml:"workflow"`
	TTS           TTS           `toml:"tts"`
	Image         Image         `toml:"image"`
	Music         Music         `toml:"music"`
	SFX           SFX           `toml:"sfx"`
	Video         Video         `toml:"video"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/callsheet/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("callsheet.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.OutputDir,
		c.Paths.CacheDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.StatusPath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
