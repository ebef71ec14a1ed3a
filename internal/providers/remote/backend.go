// Package remote implements generation providers backed by HTTP inference
// workers. Every backend exposes the same two endpoints under a configured
// base URL: GET /health for readiness and POST /generate returning the raw
// artifact bytes. Timeouts are classified separately from generic failures
// so callers can tell a slow worker from a broken one.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"callsheet/internal/assetcache"
	"callsheet/internal/media"
)

const healthProbeTimeout = 10 * time.Second

// Backend is one remote inference worker.
type Backend struct {
	name    string
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewBackend builds a backend client. An empty baseURL yields a backend
// that reports unavailable and fails generation with ErrUnavailable.
func NewBackend(name, baseURL string, timeout time.Duration) *Backend {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Backend{
		name:    name,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timeout: timeout,
		client:  &http.Client{},
	}
}

func (b *Backend) Name() string { return b.name }

// Configured reports whether a base URL was provided.
func (b *Backend) Configured() bool { return b.baseURL != "" }

// Health fetches the backend's health document. All failures collapse to
// ok=false; the probe never takes longer than healthProbeTimeout.
func (b *Backend) Health(ctx context.Context) (map[string]any, bool) {
	if b.baseURL == "" {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/health", nil)
	if err != nil {
		return nil, false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}
	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, false
	}
	return doc, true
}

// Healthy reports reachability without exposing the health document.
func (b *Backend) Healthy(ctx context.Context) bool {
	_, ok := b.Health(ctx)
	return ok
}

// Generate posts payload to /generate and streams the response body into
// the asset cache under digest.ext. Nothing is cached unless the full body
// arrives before the deadline.
func (b *Backend) Generate(ctx context.Context, store *assetcache.Store, digest assetcache.Digest, ext string, payload any) (string, error) {
	if b.baseURL == "" {
		return "", media.Wrap(media.ErrUnavailable, b.name, "generate", "no base url configured", nil)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", media.Wrap(media.ErrGeneration, b.name, "generate", "encode payload", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", media.Wrap(media.ErrGeneration, b.name, "generate", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", media.Wrap(media.ErrTimeout, b.name, "generate", fmt.Sprintf("backend exceeded %s deadline", b.timeout), err)
		}
		return "", media.Wrap(media.ErrGeneration, b.name, "generate", "backend unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", media.Wrap(media.ErrGeneration, b.name, "generate", fmt.Sprintf("backend returned %d: %s", resp.StatusCode, readSnippet(resp.Body)), nil)
	}

	path, err := store.Put(digest, ext, resp.Body)
	if err != nil {
		if isTimeout(err) || ctx.Err() != nil {
			return "", media.Wrap(media.ErrTimeout, b.name, "generate", fmt.Sprintf("artifact transfer exceeded %s deadline", b.timeout), err)
		}
		return "", media.Wrap(media.ErrGeneration, b.name, "generate", "store artifact", err)
	}
	return path, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func readSnippet(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 256))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// qualityFrom extracts a normalized quality score from a health document.
func qualityFrom(doc map[string]any, fallback float64) float64 {
	if q, ok := doc["quality"].(float64); ok && q > 0 && q <= 1 {
		return q
	}
	return fallback
}
