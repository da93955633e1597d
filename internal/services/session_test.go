package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"

	"github.com/yungbote/pulse-backend/internal/capture"
	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/insight"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
	"github.com/yungbote/pulse-backend/internal/realtime"
	"github.com/yungbote/pulse-backend/internal/transcription"
)

type testRecorder struct {
	onChunk func([]byte, string)
}

func (r *testRecorder) Cut()         { r.onChunk([]byte{9, 9, 9, 9}, "audio/wav") }
func (r *testRecorder) Close() error { return nil }

type testStream struct{ failed chan error }

func (s *testStream) NewRecorder(onChunk func([]byte, string)) (capture.Recorder, error) {
	return &testRecorder{onChunk: onChunk}, nil
}
func (s *testStream) Failed() <-chan error { return s.failed }
func (s *testStream) Close() error         { return nil }

type testDevice struct{ permErr error }

func (d *testDevice) CheckPermission(context.Context) error { return d.permErr }
func (d *testDevice) Open(context.Context) (capture.Stream, error) {
	return &testStream{failed: make(chan error, 1)}, nil
}

type scriptedProvider struct {
	mu    sync.Mutex
	texts []string
	calls int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Transcribe(context.Context, domain.AudioChunk) (transcription.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	if i >= len(p.texts) {
		return transcription.Result{}, nil
	}
	return transcription.Result{Text: p.texts[i]}, nil
}

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.Message
}

func (e *recordingEmitter) Notify(msg realtime.Message) {
	e.mu.Lock()
	e.msgs = append(e.msgs, msg)
	e.mu.Unlock()
}

func (e *recordingEmitter) events() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.msgs))
	for _, m := range e.msgs {
		out = append(out, m.Event)
	}
	return out
}

func (e *recordingEmitter) has(event string) bool {
	for _, ev := range e.events() {
		if ev == event {
			return true
		}
	}
	return false
}

type memStore struct {
	mu    sync.Mutex
	blobs []domain.SnapshotBlob
}

func (s *memStore) ListSnapshots(context.Context) ([]domain.SnapshotSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SnapshotSummary, 0, len(s.blobs))
	for i := len(s.blobs) - 1; i >= 0; i-- {
		out = append(out, s.blobs[i].Summary())
	}
	return out, nil
}

func (s *memStore) SaveSnapshot(_ context.Context, name, phase string, payload json.RawMessage) (domain.SnapshotSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := domain.SnapshotBlob{ID: fmt.Sprintf("s%d", len(s.blobs)+1), Name: name, Phase: phase, Payload: payload, CreatedAt: time.Now()}
	s.blobs = append(s.blobs, b)
	return b.Summary(), nil
}

func (s *memStore) GetSnapshot(_ context.Context, id string) (domain.SnapshotBlob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.blobs {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.SnapshotBlob{}, fmt.Errorf("snapshot %s: %w", id, pkgerrors.ErrNotFound)
}

type sessionHarness struct {
	session *Session
	model   *insight.Model
	clk     *clock.Mock
	emitter *recordingEmitter
	store   *memStore
}

func newHarness(t *testing.T, device *testDevice, texts ...string) *sessionHarness {
	t.Helper()
	clk := clock.NewMock()
	emitter := &recordingEmitter{}
	store := &memStore{}
	model := insight.New(insight.Config{}, insight.Deps{Log: logger.Nop()})
	s, err := NewSession(SessionConfig{
		ID:        "ws-1",
		SpeakerID: "room",
		Capture:   capture.Config{ChunkInterval: 10 * time.Second},
		Chain:     transcription.ChainConfig{ChunkDuration: 10 * time.Second},
	}, SessionDeps{
		Log:      logger.Nop(),
		Clock:    clk,
		Device:   device,
		Primary:  &scriptedProvider{texts: texts},
		Model:    model,
		Notifier: NewDashboardNotifier(emitter, "ws-1"),
		Store:    store,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return &sessionHarness{session: s, model: model, clk: clk, emitter: emitter, store: store}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSessionOfflinePipelineReachesModel(t *testing.T) {
	h := newHarness(t, &testDevice{}, "Shipping is blocked by compliance sign-off")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.session.Run(ctx) }()

	h.session.SetConsent(true)
	if err := h.session.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	h.clk.Add(10 * time.Second)

	waitFor(t, "utterance in model", func() bool { return len(h.model.Utterances()) > 0 })
	u := h.model.Utterances()[0]
	if !strings.Contains(u.RawText, "compliance") {
		t.Fatalf("unexpected utterance text %q", u.RawText)
	}
	if u.SpeakerID != "room" {
		t.Fatalf("speaker id = %q", u.SpeakerID)
	}
	st := h.session.Status()
	if !st.Offline || st.Capture.State != capture.StateCapturing {
		t.Fatalf("unexpected status %+v", st)
	}
	startedAt := h.session.CaptureStatus().StartedAt
	waitFor(t, "forward recorded", func() bool { return h.session.CaptureStatus().LastForwardAt.After(startedAt) })
	if !h.emitter.has(realtime.EventModelUpdated) || !h.emitter.has(realtime.EventCaptureState) {
		t.Fatalf("missing dashboard events: %v", h.emitter.events())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got := h.session.CaptureStatus().State; got != capture.StateStopped {
		t.Fatalf("state after shutdown = %s", got)
	}
}

func TestSessionStartWithoutConsentPrompts(t *testing.T) {
	h := newHarness(t, &testDevice{})
	err := h.session.StartCapture(context.Background())
	if !errors.Is(err, pkgerrors.ErrConsentRequired) {
		t.Fatalf("err = %v, want consent required", err)
	}
	if !h.emitter.has(realtime.EventPermissionRequired) {
		t.Fatalf("no permission prompt emitted: %v", h.emitter.events())
	}
}

func TestSessionStartWithoutPermission(t *testing.T) {
	h := newHarness(t, &testDevice{permErr: errors.New("denied")})
	h.session.SetConsent(true)
	err := h.session.StartCapture(context.Background())
	if !errors.Is(err, pkgerrors.ErrPermissionRequired) {
		t.Fatalf("err = %v, want permission required", err)
	}
	if got := h.session.CaptureStatus().State; got != capture.StateIdle {
		t.Fatalf("state = %s, want idle", got)
	}
}

func TestSessionSnapshotRoundTrip(t *testing.T) {
	h := newHarness(t, &testDevice{})
	ctx := context.Background()
	h.model.IngestDatapoint(ctx, domain.Datapoint{ID: "dp-1", Text: "Shipping is blocked by compliance sign-off", CreatedAtMs: 1000})
	h.model.SetPhase("discovery")

	sum, err := h.session.SaveSnapshot(ctx, "  after discovery ")
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if sum.Name != "after discovery" || sum.Phase != "discovery" {
		t.Fatalf("unexpected summary %+v", sum)
	}

	h.model.IngestDatapoint(ctx, domain.Datapoint{ID: "dp-2", Text: "We want a culture of trust", CreatedAtMs: 2000})
	h.model.SetPhase("vision")

	if err := h.session.LoadSnapshot(ctx, sum.ID); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if n := len(h.model.Utterances()); n != 1 {
		t.Fatalf("utterances after load = %d, want 1", n)
	}
	if h.model.Phase() != "discovery" {
		t.Fatalf("phase after load = %q", h.model.Phase())
	}

	list, err := h.session.ListSnapshots(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListSnapshots = %v, %v", list, err)
	}
}

func TestSessionSnapshotErrors(t *testing.T) {
	h := newHarness(t, &testDevice{})
	ctx := context.Background()
	if _, err := h.session.SaveSnapshot(ctx, "   "); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("blank name err = %v", err)
	}
	if err := h.session.LoadSnapshot(ctx, "missing"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("missing snapshot err = %v", err)
	}

	h.store.blobs = append(h.store.blobs, domain.SnapshotBlob{ID: "bad", Name: "bad", Payload: json.RawMessage(`[1,2]`)})
	h.model.IngestDatapoint(ctx, domain.Datapoint{ID: "dp-1", Text: "Customers wait too long for refunds"})
	if err := h.session.LoadSnapshot(ctx, "bad"); !errors.Is(err, pkgerrors.ErrSnapshotLoadInvalid) {
		t.Fatalf("invalid payload err = %v", err)
	}
	if n := len(h.model.Utterances()); n != 1 {
		t.Fatalf("state changed after rejected load: %d utterances", n)
	}
}

func TestNewSessionRequiresDeps(t *testing.T) {
	model := insight.New(insight.Config{}, insight.Deps{})
	cases := map[string]SessionDeps{
		"no logger":   {Model: model, Device: &testDevice{}, Primary: &scriptedProvider{}},
		"no model":    {Log: logger.Nop(), Device: &testDevice{}, Primary: &scriptedProvider{}},
		"no device":   {Log: logger.Nop(), Model: model, Primary: &scriptedProvider{}},
		"no provider": {Log: logger.Nop(), Model: model, Device: &testDevice{}},
	}
	for name, deps := range cases {
		if _, err := NewSession(SessionConfig{}, deps); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSessionWindowsAdvanceAcrossStopStart(t *testing.T) {
	texts := make([]string, 7)
	for i := range texts {
		texts[i] = fmt.Sprintf("Planning note %d about customer onboarding", i+1)
	}
	h := newHarness(t, &testDevice{}, texts...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.session.Run(ctx) }()

	h.session.SetConsent(true)
	if err := h.session.StartCapture(ctx); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	for i := 1; i <= 6; i++ {
		h.clk.Add(10 * time.Second)
		want := i
		waitFor(t, "chunk transcribed", func() bool { return len(h.session.Status().Trace) == want })
	}
	h.session.StopCapture()

	if err := h.session.StartCapture(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	h.clk.Add(10 * time.Second)
	waitFor(t, "post-restart chunk", func() bool { return len(h.session.Status().Trace) == 7 })

	trace := h.session.Status().Trace
	for i := 1; i < len(trace); i++ {
		if trace[i].StartMs < trace[i-1].EndMs {
			t.Fatalf("window %d [%d,%d) overlaps previous end %d", i, trace[i].StartMs, trace[i].EndMs, trace[i-1].EndMs)
		}
	}
	last := trace[len(trace)-1]
	if last.EndMs-last.StartMs != 10_000 {
		t.Fatalf("post-restart window [%d,%d) length %d, want 10000", last.StartMs, last.EndMs, last.EndMs-last.StartMs)
	}
	if last.StartMs != 60_000 {
		t.Fatalf("post-restart start=%d want 60000", last.StartMs)
	}
}
