package piper

import (
	"bytes"
	"io"
	"strings"
)

func newTextReader(text string) io.Reader {
	return strings.NewReader(text)
}

func firstLine(output []byte) string {
	trimmed := bytes.TrimSpace(output)
	if len(trimmed) == 0 {
		return "no output"
	}
	if i := bytes.IndexByte(trimmed, '\n'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return string(trimmed)
}
