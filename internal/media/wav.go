package media

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// ProbeWAV reads duration and sample rate from a RIFF/WAVE header without
// loading the samples. Providers use it to fill audio result metadata for
// both fresh artifacts and cache hits.
func ProbeWAV(path string) (duration float64, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return 0, 0, fmt.Errorf("read wav header: %w", err)
	}
	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return 0, 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var byteRate uint32
	var dataSize uint32
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(f, chunk[:]); err != nil {
			break
		}
		id := string(chunk[:4])
		size := binary.LittleEndian.Uint32(chunk[4:])
		switch id {
		case "fmt ":
			if size < 16 {
				return 0, 0, fmt.Errorf("malformed fmt chunk")
			}
			fmtData := make([]byte, size)
			if _, err := io.ReadFull(f, fmtData); err != nil {
				return 0, 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			sampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
			byteRate = binary.LittleEndian.Uint32(fmtData[8:12])
		case "data":
			dataSize = size
			if _, err := f.Seek(int64(size), io.SeekCurrent); err != nil {
				return 0, 0, fmt.Errorf("skip data chunk: %w", err)
			}
		default:
			if _, err := f.Seek(int64(size), io.SeekCurrent); err != nil {
				return 0, 0, fmt.Errorf("skip %q chunk: %w", id, err)
			}
		}
		// Chunks are word-aligned.
		if size%2 == 1 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				break
			}
		}
	}

	if sampleRate <= 0 || byteRate == 0 {
		return 0, 0, fmt.Errorf("missing fmt chunk")
	}
	return float64(dataSize) / float64(byteRate), sampleRate, nil
}
