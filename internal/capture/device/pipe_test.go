package device

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type chunkCollector struct {
	mu     sync.Mutex
	chunks [][]byte
	mimes  []string
}

func (c *chunkCollector) onChunk(data []byte, mime string) {
	c.mu.Lock()
	c.chunks = append(c.chunks, data)
	c.mimes = append(c.mimes, mime)
	c.mu.Unlock()
}

func (c *chunkCollector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.chunks)
}

func bufferedLen(r *pipeRecorder) int {
	r.stream.mu.Lock()
	defer r.stream.mu.Unlock()
	return len(r.buf)
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met")
}

func TestEncodeWAVHeader(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0}
	wav := EncodeWAV(pcm, 16000, 1)
	if len(wav) != wavHeaderSize+len(pcm) {
		t.Fatalf("len=%d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("bad header %q", wav[:44])
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 16000 {
		t.Fatalf("sample rate=%d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 32000 {
		t.Fatalf("byte rate=%d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Fatalf("data size=%d", got)
	}
	if !bytes.Equal(wav[44:], pcm) {
		t.Fatalf("payload mismatch")
	}
}

func TestPipeRecorderCutEmitsWholeFrames(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	p := NewReaderPipe(nil, pr, 16000, 1)
	stream, err := p.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer stream.Close()

	col := &chunkCollector{}
	rec, err := stream.NewRecorder(col.onChunk)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if _, err := pw.Write([]byte{1, 0, 2, 0, 3}); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitUntil(t, func() bool { return bufferedLen(rec.(*pipeRecorder)) == 5 })

	rec.Cut()
	if col.len() != 1 {
		t.Fatalf("chunks=%d want 1", col.len())
	}
	if col.mimes[0] != "audio/wav" {
		t.Fatalf("mime=%s", col.mimes[0])
	}
	if got := len(col.chunks[0]) - wavHeaderSize; got != 4 {
		t.Fatalf("payload=%d want 4", got)
	}
	if bufferedLen(rec.(*pipeRecorder)) != 1 {
		t.Fatalf("odd byte not carried over")
	}

	// Empty buffers produce nothing.
	rec2, _ := stream.NewRecorder(col.onChunk)
	rec2.Cut()
	if col.len() != 1 {
		t.Fatalf("empty cut emitted a chunk")
	}
	_ = rec.Close()
	_ = rec2.Close()
}

func TestPipeStreamReportsEOF(t *testing.T) {
	p := NewReaderPipe(nil, bytes.NewReader([]byte{0, 0}), 16000, 1)
	stream, err := p.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer stream.Close()
	select {
	case err := <-stream.Failed():
		if !errors.Is(err, io.EOF) {
			t.Fatalf("err=%v want EOF", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no failure reported")
	}
}

func TestPipeCheckPermission(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audio.pcm")
	if err := os.WriteFile(path, []byte{0, 0}, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := NewPipe(nil, PipeConfig{Path: path}).CheckPermission(context.Background()); err != nil {
		t.Fatalf("readable file rejected: %v", err)
	}
	if err := NewPipe(nil, PipeConfig{Path: filepath.Join(dir, "missing")}).CheckPermission(context.Background()); err == nil {
		t.Fatalf("missing file accepted")
	}
	if err := NewPipe(nil, PipeConfig{Path: dir}).CheckPermission(context.Background()); err == nil {
		t.Fatalf("directory accepted")
	}
	if err := NewPipe(nil, PipeConfig{}).CheckPermission(context.Background()); err != nil {
		t.Fatalf("stdin rejected: %v", err)
	}
}
