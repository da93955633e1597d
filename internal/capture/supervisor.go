package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/observability"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

type Config struct {
	ChunkInterval     time.Duration
	WatchdogInterval  time.Duration
	ChunkStaleAfter   time.Duration
	ForwardStaleAfter time.Duration
}

func (c *Config) defaults() {
	if c.ChunkInterval <= 0 {
		c.ChunkInterval = 10 * time.Second
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = 10 * time.Second
	}
	if c.ChunkStaleAfter <= 0 {
		c.ChunkStaleAfter = 25 * time.Second
	}
	if c.ForwardStaleAfter <= 0 {
		c.ForwardStaleAfter = 70 * time.Second
	}
}

// Sink receives closed chunks. Enqueue must not block.
type Sink interface {
	Enqueue(chunk domain.AudioChunk) bool
}

type Deps struct {
	Log      *logger.Logger
	Metrics  *observability.Metrics
	Clock    clock.Clock
	Device   Device
	WakeLock WakeLock
	Prompter PermissionPrompter
	Feed     Feed
	Sink     Sink
	// OnState observes every transition; called without the supervisor lock.
	OnState func(Status)
}

// Supervisor owns one capture lifecycle: idle -> capturing -> stopped, with an
// error state entered on device failure.
type Supervisor struct {
	cfg  Config
	deps Deps
	log  *logger.Logger
	clk  clock.Clock

	mu            sync.Mutex
	state         State
	consent       bool
	gen           int64
	seq           int64
	restarts      int64
	baseMs        int64
	startedAt     time.Time
	lastChunkAt   time.Time
	lastForwardAt time.Time
	lastErr       string
	stream        Stream
	recorder      Recorder
	releaseWake   func()
	stopCh        chan struct{}
	loopDone      chan struct{}
}

func NewSupervisor(cfg Config, deps Deps) *Supervisor {
	cfg.defaults()
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	return &Supervisor{
		cfg:   cfg,
		deps:  deps,
		log:   deps.Log.With("component", "capture.Supervisor"),
		clk:   deps.Clock,
		state: StateIdle,
	}
}

func (s *Supervisor) SetConsent(ok bool) {
	s.mu.Lock()
	s.consent = ok
	s.mu.Unlock()
}

func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Supervisor) statusLocked() Status {
	return Status{
		State:         s.state,
		Consent:       s.consent,
		Generation:    s.gen,
		Chunks:        s.seq,
		Restarts:      s.restarts,
		CapturedMs:    s.capturedLocked(),
		StartedAt:     s.startedAt,
		LastChunkAt:   s.lastChunkAt,
		LastForwardAt: s.lastForwardAt,
		LastError:     s.lastErr,
	}
}

// capturedLocked is the capture time across every run so far. Chunk end
// times are measured on this axis so they keep increasing after Stop/Start.
func (s *Supervisor) capturedLocked() int64 {
	if s.state != StateCapturing || s.startedAt.IsZero() {
		return s.baseMs
	}
	return s.baseMs + s.clk.Now().Sub(s.startedAt).Milliseconds()
}

// closeRunLocked folds the finished run into baseMs.
func (s *Supervisor) closeRunLocked(now time.Time) {
	if s.state == StateCapturing && !s.startedAt.IsZero() {
		s.baseMs += now.Sub(s.startedAt).Milliseconds()
	}
}

func (s *Supervisor) notify(st Status) {
	s.deps.Metrics.SetCaptureState(string(st.State), AllStates)
	if s.deps.OnState != nil {
		s.deps.OnState(st)
	}
}

func (s *Supervisor) prompt(reason error) {
	if s.deps.Prompter != nil {
		s.deps.Prompter.PromptPermission(reason)
	}
}

// Start enters capturing. A manual Start is the only way out of the error
// state. Calls made while another Start is opening the device return nil.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateCapturing || s.state == StateStarting {
		s.mu.Unlock()
		return nil
	}
	if !s.consent {
		s.mu.Unlock()
		s.prompt(pkgerrors.ErrConsentRequired)
		return pkgerrors.ErrConsentRequired
	}
	prev := s.state
	s.state = StateStarting
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	if err := s.deps.Device.CheckPermission(ctx); err != nil {
		s.rollback(gen, prev)
		s.prompt(pkgerrors.ErrPermissionRequired)
		return fmt.Errorf("%w: %v", pkgerrors.ErrPermissionRequired, err)
	}

	if s.deps.Feed != nil {
		s.deps.Feed.Start(ctx)
	}
	var release func()
	if s.deps.WakeLock != nil {
		r, err := s.deps.WakeLock.Acquire(ctx)
		if err != nil {
			s.log.Debug("wake lock unavailable (continuing)", "error", err)
		} else {
			release = r
		}
	}

	stream, err := s.deps.Device.Open(ctx)
	if err != nil {
		return s.fail(gen, fmt.Errorf("%w: open: %v", pkgerrors.ErrDevice, err), release)
	}

	rec, err := stream.NewRecorder(s.chunkCallback(gen))
	if err != nil {
		_ = stream.Close()
		return s.fail(gen, fmt.Errorf("%w: recorder: %v", pkgerrors.ErrDevice, err), release)
	}

	now := s.clk.Now()
	s.mu.Lock()
	if s.state != StateStarting || s.gen != gen {
		// Stop won the race while the device was opening.
		s.mu.Unlock()
		s.log.Info("capture start abandoned", "generation", gen)
		s.teardown(rec, stream, release)
		return nil
	}
	s.stream = stream
	s.recorder = rec
	s.releaseWake = release
	s.startedAt = now
	s.lastChunkAt = now
	s.lastForwardAt = now
	s.lastErr = ""
	s.state = StateCapturing
	s.stopCh = make(chan struct{})
	s.loopDone = make(chan struct{})
	stopCh, done := s.stopCh, s.loopDone
	segTicker := s.clk.Ticker(s.cfg.ChunkInterval)
	wdTicker := s.clk.Ticker(s.cfg.WatchdogInterval)
	st := s.statusLocked()
	s.mu.Unlock()

	go s.loop(segTicker, wdTicker, stream.Failed(), stopCh, done)

	s.log.Info("capture started", "generation", gen, "captured_ms", st.CapturedMs)
	s.notify(st)
	return nil
}

// rollback returns a Start that never reached the device to its prior state.
func (s *Supervisor) rollback(gen int64, prev State) {
	s.mu.Lock()
	if s.state == StateStarting && s.gen == gen {
		s.state = prev
	}
	s.mu.Unlock()
}

func (s *Supervisor) fail(gen int64, err error, release func()) error {
	if s.deps.Feed != nil {
		s.deps.Feed.Stop()
	}
	if release != nil {
		release()
	}
	s.mu.Lock()
	if s.state != StateStarting || s.gen != gen {
		s.mu.Unlock()
		return err
	}
	s.state = StateError
	s.lastErr = err.Error()
	st := s.statusLocked()
	s.mu.Unlock()
	s.log.Error("capture failed", "error", err)
	s.notify(st)
	return err
}

func (s *Supervisor) loop(seg, wd *clock.Ticker, failed <-chan error, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer seg.Stop()
	defer wd.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-seg.C:
			s.segmentTick()
		case now := <-wd.C:
			s.watchdogCheck(now)
		case err, ok := <-failed:
			if !ok {
				failed = nil
				continue
			}
			s.deviceFailed(err)
			return
		}
	}
}

// segmentTick closes the current buffer. Cut runs outside the lock since the
// chunk callback takes it.
func (s *Supervisor) segmentTick() {
	s.mu.Lock()
	if s.state != StateCapturing || s.recorder == nil {
		s.mu.Unlock()
		return
	}
	rec := s.recorder
	s.mu.Unlock()
	rec.Cut()
}

func (s *Supervisor) chunkCallback(gen int64) func([]byte, string) {
	return func(data []byte, mimeType string) {
		s.onChunk(gen, data, mimeType)
	}
}

func (s *Supervisor) onChunk(gen int64, data []byte, mimeType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCapturing || gen != s.gen {
		s.log.Debug("stale recorder completion dropped", "generation", gen, "current", s.gen)
		return
	}
	if len(data) == 0 {
		return
	}
	now := s.clk.Now()
	s.seq++
	s.lastChunkAt = now
	c := domain.AudioChunk{
		Seq:        s.seq,
		Generation: gen,
		Data:       data,
		MimeType:   mimeType,
		EndTimeMs:  s.baseMs + now.Sub(s.startedAt).Milliseconds(),
	}
	if s.deps.Sink != nil && !s.deps.Sink.Enqueue(c) {
		s.log.Warn("ingestion queue rejected chunk", "seq", c.Seq)
	}
}

// MarkForwarded refreshes the forward liveness counter.
func (s *Supervisor) MarkForwarded(at time.Time) {
	s.mu.Lock()
	if s.state == StateCapturing && at.After(s.lastForwardAt) {
		s.lastForwardAt = at
	}
	s.mu.Unlock()
}

// watchdogCheck forces a recorder restart on the open stream when either
// liveness counter is stale. Restart errors are logged; the next check retries.
func (s *Supervisor) watchdogCheck(now time.Time) {
	s.mu.Lock()
	if s.state != StateCapturing || s.stream == nil {
		s.mu.Unlock()
		return
	}
	chunkAge := now.Sub(s.lastChunkAt)
	forwardAge := now.Sub(s.lastForwardAt)
	if chunkAge < s.cfg.ChunkStaleAfter && forwardAge < s.cfg.ForwardStaleAfter {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	s.restarts++
	s.lastChunkAt = now
	s.lastForwardAt = now
	old, stream := s.recorder, s.stream
	s.recorder = nil
	s.mu.Unlock()

	s.log.Warn("capture stalled, restarting recorder",
		"generation", gen,
		"chunk_age", chunkAge.String(),
		"forward_age", forwardAge.String(),
	)
	reason := "chunk_stale"
	if chunkAge < s.cfg.ChunkStaleAfter {
		reason = "forward_stale"
	}
	s.deps.Metrics.IncRestart(reason)

	if old != nil {
		if err := old.Close(); err != nil {
			s.log.Warn("stalled recorder close failed", "error", err)
		}
	}
	rec, err := stream.NewRecorder(s.chunkCallback(gen))
	if err != nil {
		s.log.Error("recorder restart failed", "generation", gen, "error", err)
		return
	}

	s.mu.Lock()
	if s.state != StateCapturing || s.gen != gen {
		s.mu.Unlock()
		_ = rec.Close()
		return
	}
	s.recorder = rec
	st := s.statusLocked()
	s.mu.Unlock()
	s.notify(st)
}

func (s *Supervisor) deviceFailed(err error) {
	if err == nil {
		err = errors.New("stream closed")
	}
	s.mu.Lock()
	if s.state != StateCapturing {
		s.mu.Unlock()
		return
	}
	s.closeRunLocked(s.clk.Now())
	s.state = StateError
	s.lastErr = fmt.Errorf("%w: %v", pkgerrors.ErrDevice, err).Error()
	s.gen++
	rec, stream, release := s.recorder, s.stream, s.releaseWake
	s.recorder, s.stream, s.releaseWake = nil, nil, nil
	st := s.statusLocked()
	s.mu.Unlock()

	s.log.Error("capture device failed", "error", err)
	s.teardown(rec, stream, release)
	s.notify(st)
}

// Stop is idempotent and returns only after timers are stopped and the
// device and feed are closed.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if s.state != StateCapturing && s.state != StateStarting && s.stream == nil && s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	s.closeRunLocked(s.clk.Now())
	if s.state == StateCapturing || s.state == StateStarting {
		s.state = StateStopped
	}
	s.gen++
	stopCh, done := s.stopCh, s.loopDone
	s.stopCh, s.loopDone = nil, nil
	rec, stream, release := s.recorder, s.stream, s.releaseWake
	s.recorder, s.stream, s.releaseWake = nil, nil, nil
	st := s.statusLocked()
	s.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}
	s.teardown(rec, stream, release)
	s.log.Info("capture stopped", "state", st.State)
	s.notify(st)
}

func (s *Supervisor) teardown(rec Recorder, stream Stream, release func()) {
	if rec != nil {
		if err := rec.Close(); err != nil {
			s.log.Warn("recorder close failed", "error", err)
		}
	}
	if stream != nil {
		if err := stream.Close(); err != nil {
			s.log.Warn("stream close failed", "error", err)
		}
	}
	if s.deps.Feed != nil {
		s.deps.Feed.Stop()
	}
	if release != nil {
		release()
	}
}
