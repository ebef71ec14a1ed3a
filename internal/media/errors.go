package media

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying generation failures. Validation failures are
// never retried; timeouts are kept distinct from generic generation failures
// so a future retry policy can target them specifically.
var (
	ErrValidation  = errors.New("validation error")
	ErrGeneration  = errors.New("generation error")
	ErrTimeout     = errors.New("timeout")
	ErrUnavailable = errors.New("provider unavailable")
)

// Wrap builds an error message that includes provider context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, provider, operation, message string, err error) error {
	detail := buildDetail(provider, operation, message)
	if marker == nil {
		marker = ErrGeneration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint returns a short classification label for logs and status documents.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "availability"
	case errors.Is(err, ErrGeneration):
		return "generation"
	default:
		return "unknown"
	}
}

func buildDetail(provider, operation, message string) string {
	parts := make([]string, 0, 3)
	if provider = strings.TrimSpace(provider); provider != "" {
		parts = append(parts, provider)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "generation failure"
	}
	return strings.Join(parts, ": ")
}
