// Package assetcache provides the content-addressed store for generated
// media artifacts.
//
// Artifacts are stored flat under the cache root as <digest>.<ext>, where the
// digest is the hex SHA-256 of the canonical request serialization. The store
// never interprets file contents; it only answers existence, hands out paths,
// and serializes concurrent generation per digest.
package assetcache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// Digest is the hex-encoded SHA-256 cache key of a generation request.
type Digest string

func (d Digest) String() string { return string(d) }

// Short returns an abbreviated digest suitable for log lines.
func (d Digest) Short() string {
	if len(d) <= 12 {
		return string(d)
	}
	return string(d[:12])
}

// Store is a content-addressed artifact cache rooted at a single directory.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[Digest]*sync.Mutex
}

// NewStore ensures the cache directory exists and returns a store over it.
func NewStore(root string) (*Store, error) {
	cleaned := strings.TrimSpace(root)
	if cleaned == "" {
		return nil, fmt.Errorf("asset cache root must not be empty")
	}
	if err := os.MkdirAll(cleaned, 0o755); err != nil {
		return nil, fmt.Errorf("create asset cache directory: %w", err)
	}
	return &Store{root: cleaned, locks: make(map[Digest]*sync.Mutex)}, nil
}

// Root returns the cache directory.
func (s *Store) Root() string { return s.root }

// Path returns the artifact location for a digest, whether or not it exists.
func (s *Store) Path(digest Digest, ext string) string {
	return filepath.Join(s.root, string(digest)+"."+strings.TrimPrefix(ext, "."))
}

// Exists reports whether the artifact for digest is present and non-empty.
func (s *Store) Exists(digest Digest, ext string) bool {
	info, err := os.Stat(s.Path(digest, ext))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Lock acquires the per-digest mutex and returns its release function. At
// most one generation runs per digest; a second caller blocks until the
// first finishes and then observes the cached artifact.
func (s *Store) Lock(digest Digest) func() {
	s.mu.Lock()
	lock, ok := s.locks[digest]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[digest] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Put streams src into the cache under digest.ext using a temp file and
// rename so readers never observe a partial artifact. It returns the final
// path.
func (s *Store) Put(digest Digest, ext string, src io.Reader) (string, error) {
	final := s.Path(digest, ext)
	tmp, err := os.CreateTemp(s.root, "."+digest.Short()+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create cache temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write cache artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("publish cache artifact: %w", err)
	}
	return final, nil
}

// Stats summarizes cache contents and the backing filesystem.
type Stats struct {
	Entries    int
	TotalBytes int64
	FreeRatio  float64
}

// statfsFunc allows tests to substitute filesystem probing.
var statfsFunc = unix.Statfs

// Stats walks the cache directory and reports entry count, total artifact
// bytes, and the free-space ratio of the underlying filesystem.
func (s *Store) Stats() (Stats, error) {
	var stats Stats
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return Stats{}, fmt.Errorf("read asset cache directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
	}

	var fs unix.Statfs_t
	if err := statfsFunc(s.root, &fs); err != nil {
		return Stats{}, fmt.Errorf("statfs asset cache: %w", err)
	}
	if fs.Blocks > 0 {
		stats.FreeRatio = float64(fs.Bavail) / float64(fs.Blocks)
	}
	return stats, nil
}
