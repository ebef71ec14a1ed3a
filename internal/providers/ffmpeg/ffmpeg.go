// Package ffmpeg implements the video assembly provider. Each export job
// becomes one ffmpeg invocation: still images get ken-burns motion and are
// concatenated with their narration audio, music and sound effects are
// mixed in at the manifest's master volumes, and an optional watermark is
// drawn on top. Output renders to a temp file and is renamed into the asset
// cache, so readers never observe a partial artifact.
package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"log/slog"

	"callsheet/internal/assetcache"
	"callsheet/internal/config"
	"callsheet/internal/logging"
	"callsheet/internal/media"
)

var (
	commandContext = exec.CommandContext
	lookPath       = exec.LookPath
)

// Assembler renders export jobs with a local ffmpeg installation.
type Assembler struct {
	binary  string
	timeout time.Duration
	fps     int
	codec   string
	quality string
	store   *assetcache.Store
	logger  *slog.Logger

	mu     sync.Mutex
	warmed bool
}

// New builds the assembler from configuration.
func New(cfg *config.Config, store *assetcache.Store, logger *slog.Logger) *Assembler {
	return &Assembler{
		binary:  cfg.Video.FFmpegBinary,
		timeout: time.Duration(cfg.Video.Timeout) * time.Second,
		fps:     cfg.Video.FPS,
		codec:   cfg.Video.Codec,
		quality: cfg.Video.Quality,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "ffmpeg"),
	}
}

func (a *Assembler) Name() string { return "ffmpeg" }

// Available reports whether the ffmpeg binary is on PATH.
func (a *Assembler) Available(ctx context.Context) bool {
	_, err := lookPath(a.binary)
	return err == nil
}

// Warmup verifies the binary once.
func (a *Assembler) Warmup(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.warmed {
		return nil
	}
	if _, err := lookPath(a.binary); err != nil {
		return media.Wrap(media.ErrUnavailable, a.Name(), "warmup", fmt.Sprintf("%s not found on PATH", a.binary), err)
	}
	a.warmed = true
	return nil
}

// Assemble renders one export job, serving cache hits without invoking
// ffmpeg.
func (a *Assembler) Assemble(ctx context.Context, req media.AssemblyRequest) (media.AssemblyResult, error) {
	if err := req.Validate(); err != nil {
		return media.AssemblyResult{}, err
	}

	ext := req.Format
	if ext == "" {
		ext = media.ExtVideo
	}

	digest := req.CacheKey()
	unlock := a.store.Lock(digest)
	defer unlock()

	outputPath := a.store.Path(digest, ext)
	timeline := timelineDuration(req)

	if a.store.Exists(digest, ext) {
		if info, err := os.Stat(outputPath); err == nil {
			return media.AssemblyResult{
				Path:     outputPath,
				Cached:   true,
				Duration: timeline,
				FileSize: info.Size(),
				Provider: a.Name(),
			}, nil
		}
		os.Remove(outputPath)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if a.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	// Render to a temp path and rename into place so a concurrent process
	// or a crash never exposes a partial artifact at the cache path.
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".assembly-*."+ext)
	if err != nil {
		return media.AssemblyResult{}, media.Wrap(media.ErrGeneration, a.Name(), "assemble", "create temp artifact", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := a.buildArgs(req, tmpPath)

	start := time.Now()
	cmd := commandContext(runCtx, a.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return media.AssemblyResult{}, media.Wrap(media.ErrTimeout, a.Name(), "assemble", fmt.Sprintf("render exceeded %s deadline", a.timeout), err)
		}
		return media.AssemblyResult{}, media.Wrap(media.ErrGeneration, a.Name(), "assemble", fmt.Sprintf("ffmpeg failed: %s", lastLine(output)), err)
	}
	elapsed := time.Since(start)

	info, err := os.Stat(tmpPath)
	if err != nil || info.Size() == 0 {
		return media.AssemblyResult{}, media.Wrap(media.ErrGeneration, a.Name(), "assemble", "ffmpeg produced no output", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return media.AssemblyResult{}, media.Wrap(media.ErrGeneration, a.Name(), "assemble", "publish artifact", err)
	}

	a.logger.Info("export rendered",
		logging.String("digest", digest.Short()),
		logging.Int("clips", len(req.Clips)),
		logging.Float64("timeline_seconds", timeline),
		logging.Int64("bytes", info.Size()),
		logging.Duration("assembly_time", elapsed))

	return media.AssemblyResult{
		Path:         outputPath,
		AssemblyTime: elapsed,
		Duration:     timeline,
		FileSize:     info.Size(),
		Provider:     a.Name(),
	}, nil
}

func timelineDuration(req media.AssemblyRequest) float64 {
	total := 0.0
	for _, clip := range req.Clips {
		total += clip.Duration
	}
	return total
}
