package testsupport

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// WAVBytes builds a valid 16-bit mono PCM WAV file of the given length with
// silent samples, for tests that need probeable audio artifacts.
func WAVBytes(t testing.TB, seconds float64, sampleRate int) []byte {
	t.Helper()

	const channels, bits = 1, 16
	byteRate := sampleRate * channels * bits / 8
	dataSize := int(float64(byteRate) * seconds)
	if dataSize%2 == 1 {
		dataSize++
	}

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(channels*bits/8))
	binary.Write(buf, binary.LittleEndian, uint16(bits))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}
