package transcription

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
)

// IsSilent reports whether a PCM16LE chunk (raw or WAV-framed) has an RMS
// below floor, normalized to [0,1]. Compressed formats are never considered
// silent since their energy is unknown without decoding.
func IsSilent(data []byte, mimeType string, floor float64) bool {
	if floor <= 0 || len(data) == 0 {
		return len(data) == 0
	}
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "wav"):
		pcm, ok := wavData(data)
		if !ok {
			return false
		}
		data = pcm
	case strings.Contains(m, "l16"), strings.Contains(m, "pcm"):
	default:
		return false
	}
	return RMS(data) < floor
}

// RMS of little-endian signed 16-bit samples, normalized to full scale.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[2*i:]))) / 32768.0
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}

// wavData returns the payload of the "data" sub-chunk of a RIFF/WAVE file.
func wavData(b []byte) ([]byte, bool) {
	if len(b) < 12 || !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return nil, false
	}
	off := 12
	for off+8 <= len(b) {
		id := b[off : off+4]
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		off += 8
		if bytes.Equal(id, []byte("data")) {
			end := off + size
			if end > len(b) || size < 0 {
				end = len(b)
			}
			return b[off:end], true
		}
		off += size + size%2
	}
	return nil, false
}
