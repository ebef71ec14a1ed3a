package assetcache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestPathAndExists(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	digest := Digest("ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12")
	path := store.Path(digest, "wav")
	if filepath.Base(path) != string(digest)+".wav" {
		t.Fatalf("unexpected artifact name: %q", path)
	}
	if store.Exists(digest, "wav") {
		t.Fatal("expected miss before write")
	}

	if _, err := store.Put(digest, "wav", strings.NewReader("RIFF....")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !store.Exists(digest, "wav") {
		t.Fatal("expected hit after write")
	}
	if store.Exists(digest, "png") {
		t.Fatal("extension must participate in lookup")
	}
}

func TestExistsIgnoresEmptyArtifacts(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	digest := Digest("feedface")
	if err := os.WriteFile(store.Path(digest, "png"), nil, 0o644); err != nil {
		t.Fatalf("write empty artifact: %v", err)
	}
	if store.Exists(digest, "png") {
		t.Fatal("empty artifact must not count as a hit")
	}
}

func TestLockSerializesPerDigest(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	digest := Digest("deadbeef")

	release := store.Lock(digest)
	acquired := make(chan struct{})
	go func() {
		unlock := store.Lock(digest)
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock acquired while first held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired after release")
	}

	// Distinct digests must not contend.
	var wg sync.WaitGroup
	for _, d := range []Digest{"aa", "bb", "cc"} {
		wg.Add(1)
		go func(d Digest) {
			defer wg.Done()
			unlock := store.Lock(d)
			unlock()
		}(d)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent digests contended on Lock")
	}
}

func TestStatsCountsArtifacts(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	original := statfsFunc
	statfsFunc = func(path string, fs *unix.Statfs_t) error {
		fs.Blocks = 1000
		fs.Bavail = 250
		return nil
	}
	defer func() { statfsFunc = original }()

	if _, err := store.Put(Digest("a1"), "wav", strings.NewReader("aaaa")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := store.Put(Digest("b2"), "png", strings.NewReader("bbbbbb")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// Hidden temp leftovers are excluded from stats.
	if err := os.WriteFile(filepath.Join(store.Root(), ".c3-partial.tmp"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Entries != 2 {
		t.Fatalf("expected 2 entries, got %d", stats.Entries)
	}
	if stats.TotalBytes != 10 {
		t.Fatalf("expected 10 bytes, got %d", stats.TotalBytes)
	}
	if stats.FreeRatio != 0.25 {
		t.Fatalf("expected free ratio 0.25, got %v", stats.FreeRatio)
	}
}
