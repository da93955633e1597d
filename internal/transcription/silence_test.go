package transcription

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func wav(pcm []byte) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(36+len(pcm)))
	b.WriteString("WAVEfmt ")
	_ = binary.Write(&b, binary.LittleEndian, uint32(16))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1))
	_ = binary.Write(&b, binary.LittleEndian, uint32(16000))
	_ = binary.Write(&b, binary.LittleEndian, uint32(32000))
	_ = binary.Write(&b, binary.LittleEndian, uint16(2))
	_ = binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	_ = binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}

func TestIsSilent(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		mime string
		want bool
	}{
		{"wav zeros", wav(make([]byte, 3200)), "audio/wav", true},
		{"wav loud", wav(loudPCM(1600)), "audio/wav", false},
		{"raw zeros", make([]byte, 3200), "audio/l16;rate=16000", true},
		{"compressed", make([]byte, 3200), "audio/webm;codecs=opus", false},
		{"truncated wav", []byte("RIFF"), "audio/wav", false},
		{"empty", nil, "audio/wav", true},
	}
	for _, tc := range cases {
		if got := IsSilent(tc.data, tc.mime, 0.01); got != tc.want {
			t.Fatalf("%s: IsSilent=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestDebugTraceKeepsNewest(t *testing.T) {
	tr := NewDebugTrace(3)
	for i := int64(1); i <= 5; i++ {
		tr.Add(TraceEntry{Seq: i})
	}
	got := tr.Entries()
	if len(got) != 3 || got[0].Seq != 3 || got[2].Seq != 5 {
		t.Fatalf("entries=%+v want seq 3..5", got)
	}
}
