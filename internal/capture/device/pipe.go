package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/yungbote/pulse-backend/internal/capture"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

const readBlock = 4096

type PipeConfig struct {
	// Path is "stdin" or a file/fifo carrying raw PCM16LE.
	Path       string
	SampleRate int
	Channels   int
}

// Pipe is a capture.Device reading raw PCM from stdin or a named pipe, which
// is how an external recorder (arecord, ffmpeg, sox) feeds the pipeline.
type Pipe struct {
	log   *logger.Logger
	cfg   PipeConfig
	stdin io.Reader
	open  func(path string) (io.ReadCloser, error)
}

func NewPipe(log *logger.Logger, cfg PipeConfig) *Pipe {
	if log == nil {
		log = logger.Nop()
	}
	if strings.TrimSpace(cfg.Path) == "" {
		cfg.Path = "stdin"
	}
	return &Pipe{
		log:   log.With("component", "device.Pipe", "path", cfg.Path),
		cfg:   cfg,
		stdin: os.Stdin,
		open:  func(path string) (io.ReadCloser, error) { return os.Open(path) },
	}
}

// NewReaderPipe wraps an arbitrary reader; used by replay tooling and tests.
func NewReaderPipe(log *logger.Logger, r io.Reader, sampleRate, channels int) *Pipe {
	p := NewPipe(log, PipeConfig{Path: "stdin", SampleRate: sampleRate, Channels: channels})
	p.stdin = r
	return p
}

func (p *Pipe) isStdin() bool { return p.cfg.Path == "stdin" || p.cfg.Path == "-" }

func (p *Pipe) CheckPermission(ctx context.Context) error {
	if p.isStdin() {
		return nil
	}
	fi, err := os.Stat(p.cfg.Path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", p.cfg.Path, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", p.cfg.Path)
	}
	if fi.Mode().Perm()&0o444 == 0 {
		return fmt.Errorf("%s is not readable", p.cfg.Path)
	}
	return nil
}

func (p *Pipe) Open(ctx context.Context) (capture.Stream, error) {
	var rc io.ReadCloser
	if p.isStdin() {
		rc = io.NopCloser(p.stdin)
	} else {
		f, err := p.open(p.cfg.Path)
		if err != nil {
			return nil, err
		}
		rc = f
	}
	s := &pipeStream{
		log:        p.log,
		src:        rc,
		sampleRate: p.cfg.SampleRate,
		channels:   p.cfg.Channels,
		failed:     make(chan error, 1),
	}
	go s.pump()
	return s, nil
}

type pipeStream struct {
	log        *logger.Logger
	src        io.ReadCloser
	sampleRate int
	channels   int
	failed     chan error

	mu     sync.Mutex
	active *pipeRecorder
	closed bool
}

func (s *pipeStream) pump() {
	buf := make([]byte, readBlock)
	for {
		n, err := s.src.Read(buf)
		if n > 0 {
			s.mu.Lock()
			if s.active != nil && !s.closed {
				s.active.write(buf[:n])
			}
			s.mu.Unlock()
		}
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("audio source ended: %w", err)
			}
			s.log.Warn("audio source read failed", "error", err)
			s.failed <- err
			return
		}
	}
}

func (s *pipeStream) NewRecorder(onChunk func(data []byte, mimeType string)) (capture.Recorder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("stream closed")
	}
	r := &pipeRecorder{stream: s, onChunk: onChunk}
	s.active = r
	return r, nil
}

func (s *pipeStream) Failed() <-chan error { return s.failed }

func (s *pipeStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.active = nil
	s.mu.Unlock()
	return s.src.Close()
}

type pipeRecorder struct {
	stream  *pipeStream
	onChunk func(data []byte, mimeType string)

	// buf is guarded by stream.mu.
	buf    []byte
	closed bool
}

func (r *pipeRecorder) write(b []byte) {
	if r.closed {
		return
	}
	r.buf = append(r.buf, b...)
}

// Cut emits whole frames only; a trailing odd byte carries over.
func (r *pipeRecorder) Cut() {
	s := r.stream
	s.mu.Lock()
	if r.closed {
		s.mu.Unlock()
		return
	}
	frame := 2 * max1(s.channels)
	n := len(r.buf) - len(r.buf)%frame
	pcm := append([]byte(nil), r.buf[:n]...)
	r.buf = append(r.buf[:0], r.buf[n:]...)
	s.mu.Unlock()

	if len(pcm) == 0 {
		return
	}
	r.onChunk(EncodeWAV(pcm, s.sampleRate, s.channels), "audio/wav")
}

func (r *pipeRecorder) Close() error {
	s := r.stream
	s.mu.Lock()
	r.closed = true
	r.buf = nil
	if s.active == r {
		s.active = nil
	}
	s.mu.Unlock()
	return nil
}

func max1(x int) int {
	if x < 1 {
		return 1
	}
	return x
}

// NoWakeLock reports that the host cannot hold a wake lock; capture continues
// without one.
type NoWakeLock struct{}

func (NoWakeLock) Acquire(context.Context) (func(), error) {
	return nil, errors.New("wake lock not supported on this host")
}
