package media_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"callsheet/internal/media"
)

func TestWrapTagsMarker(t *testing.T) {
	base := fmt.Errorf("connection refused")
	err := media.Wrap(media.ErrGeneration, "image-backend", "generate", "backend call failed", base)
	if !errors.Is(err, media.ErrGeneration) {
		t.Fatalf("expected ErrGeneration marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
	if !strings.Contains(err.Error(), "image-backend: generate: backend call failed") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestWrapDefaultsToGeneration(t *testing.T) {
	err := media.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, media.ErrGeneration) {
		t.Fatalf("expected default ErrGeneration marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "generation failure") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestHintClassification(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{media.Wrap(media.ErrValidation, "", "speech", "blank text", nil), "validation"},
		{media.Wrap(media.ErrTimeout, "music-backend", "generate", "deadline exceeded", nil), "timeout"},
		{media.Wrap(media.ErrUnavailable, "piper", "probe", "model missing", nil), "availability"},
		{media.Wrap(media.ErrGeneration, "", "", "", nil), "generation"},
		{fmt.Errorf("plain"), "unknown"},
	}
	for _, tc := range cases {
		if got := media.Hint(tc.err); got != tc.want {
			t.Fatalf("Hint(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
