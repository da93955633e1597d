package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/pulse-backend/internal/capture"
	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/ingest"
	"github.com/yungbote/pulse-backend/internal/insight"
	"github.com/yungbote/pulse-backend/internal/observability"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
	"github.com/yungbote/pulse-backend/internal/realtime"
	"github.com/yungbote/pulse-backend/internal/snapshot"
	"github.com/yungbote/pulse-backend/internal/transcription"
)

type SessionConfig struct {
	ID             string
	SpeakerID      string
	Capture        capture.Config
	Chain          transcription.ChainConfig
	ReconnectDelay time.Duration
}

type SessionDeps struct {
	Log       *logger.Logger
	Metrics   *observability.Metrics
	Clock     clock.Clock
	Device    capture.Device
	WakeLock  capture.WakeLock
	Primary   transcription.Provider
	Secondary transcription.Provider
	// Forwarder nil means offline: transcripts go straight into Model.
	Forwarder ingest.Forwarder
	// Events nil disables the realtime feed.
	Events   realtime.EventSource
	Model    *insight.Model
	Notifier DashboardNotifier
	Store    snapshot.Store
}

// Session owns one capture pipeline and the semantic model it feeds.
type Session struct {
	id       string
	log      *logger.Logger
	metrics  *observability.Metrics
	model    *insight.Model
	store    snapshot.Store
	notifier DashboardNotifier
	offline  bool

	chain      *transcription.Chain
	queue      *ingest.Queue
	supervisor *capture.Supervisor
	feed       *realtime.Feed
	reconciler *realtime.Reconciler
}

type SessionStatus struct {
	SessionID         string                     `json:"sessionId"`
	Offline           bool                       `json:"offline"`
	Capture           capture.Status             `json:"capture"`
	QueueDepth        int                        `json:"queueDepth"`
	ProviderCount     int                        `json:"providerCount"`
	DisabledProviders []string                   `json:"disabledProviders"`
	FeedConnects      int                        `json:"feedConnects"`
	LastEventID       string                     `json:"lastEventId,omitempty"`
	Trace             []transcription.TraceEntry `json:"trace"`
}

func NewSession(cfg SessionConfig, deps SessionDeps) (*Session, error) {
	if deps.Log == nil {
		return nil, fmt.Errorf("session: logger required")
	}
	if deps.Model == nil {
		return nil, fmt.Errorf("session: model required")
	}
	if deps.Device == nil {
		return nil, fmt.Errorf("session: capture device required")
	}
	if deps.Primary == nil && deps.Secondary == nil {
		return nil, fmt.Errorf("session: at least one transcription provider required")
	}
	id := strings.TrimSpace(cfg.ID)
	if id == "" {
		id = "local"
	}
	log := deps.Log.With("service", "Session", "session_id", id)
	s := &Session{
		id:       id,
		log:      log,
		metrics:  deps.Metrics,
		model:    deps.Model,
		store:    deps.Store,
		notifier: deps.Notifier,
	}

	fwd := deps.Forwarder
	if fwd == nil {
		s.offline = true
		fwd = NewLocalForwarder(deps.Model, id)
	}

	s.chain = transcription.NewChain(deps.Log, deps.Metrics, deps.Primary, deps.Secondary, cfg.Chain)
	s.queue = ingest.NewQueue(deps.Log, deps.Metrics, s.chain, fwd, ingest.Config{
		SpeakerID: cfg.SpeakerID,
		Phase:     deps.Model.Phase,
		OnForwarded: func(at time.Time) {
			s.supervisor.MarkForwarded(at)
		},
	})
	s.reconciler = realtime.NewReconciler(deps.Log, deps.Metrics, deps.Model)

	var feed capture.Feed
	if deps.Events != nil && !s.offline {
		s.feed = realtime.NewFeed(deps.Log, deps.Events, cfg.ReconnectDelay, func(ctx context.Context, name string, data []byte) {
			s.reconciler.HandleFrame(ctx, name, data)
		})
		feed = s.feed
	}

	var prompter capture.PermissionPrompter
	if deps.Notifier != nil {
		prompter = deps.Notifier
	}
	s.supervisor = capture.NewSupervisor(cfg.Capture, capture.Deps{
		Log:      deps.Log,
		Metrics:  deps.Metrics,
		Clock:    deps.Clock,
		Device:   deps.Device,
		WakeLock: deps.WakeLock,
		Prompter: prompter,
		Feed:     feed,
		Sink:     s.queue,
		OnState: func(st capture.Status) {
			if s.notifier != nil {
				s.notifier.CaptureState(st)
			}
		},
	})

	if deps.Notifier != nil {
		deps.Model.OnChange(deps.Notifier.ModelChanged)
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Model() *insight.Model { return s.model }

// Run drives the ingestion drain and the enrichment worker until ctx ends,
// then stops capture and closes the queue.
func (s *Session) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.queue.Run(gctx) })
	g.Go(func() error { return s.model.Run(gctx) })
	<-gctx.Done()
	s.Shutdown()
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown is safe to call more than once.
func (s *Session) Shutdown() {
	s.supervisor.Stop()
	s.queue.Close()
}

func (s *Session) SetConsent(ok bool) {
	s.supervisor.SetConsent(ok)
	if s.notifier != nil {
		s.notifier.CaptureState(s.supervisor.Status())
	}
}

func (s *Session) StartCapture(ctx context.Context) error { return s.supervisor.Start(ctx) }

func (s *Session) StopCapture() { s.supervisor.Stop() }

func (s *Session) CaptureStatus() capture.Status { return s.supervisor.Status() }

func (s *Session) Status() SessionStatus {
	st := SessionStatus{
		SessionID:         s.id,
		Offline:           s.offline,
		Capture:           s.supervisor.Status(),
		QueueDepth:        s.queue.Depth(),
		ProviderCount:     s.chain.Providers(),
		DisabledProviders: s.chain.Disabled(),
		Trace:             s.chain.Trace().Entries(),
	}
	if s.feed != nil {
		st.FeedConnects = s.feed.Connects()
		st.LastEventID = s.feed.LastEventID()
	}
	return st
}

func (s *Session) requireStore() error {
	if s.store == nil {
		return fmt.Errorf("snapshot store not configured: %w", pkgerrors.ErrNotFound)
	}
	return nil
}

func (s *Session) SaveSnapshot(ctx context.Context, name string) (domain.SnapshotSummary, error) {
	if err := s.requireStore(); err != nil {
		return domain.SnapshotSummary{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.SnapshotSummary{}, fmt.Errorf("snapshot name: %w", pkgerrors.ErrInvalidArgument)
	}
	snap := s.model.Export()
	payload, err := snapshot.Encode(snap)
	if err != nil {
		return domain.SnapshotSummary{}, err
	}
	sum, err := s.store.SaveSnapshot(ctx, name, snap.DialoguePhase, payload)
	if err != nil {
		return domain.SnapshotSummary{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.log.Info("snapshot saved", "snapshot_id", sum.ID, "utterances", len(snap.Utterances))
	return sum, nil
}

func (s *Session) ListSnapshots(ctx context.Context) ([]domain.SnapshotSummary, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	return s.store.ListSnapshots(ctx)
}

// LoadSnapshot swaps the model state only when the payload validates.
func (s *Session) LoadSnapshot(ctx context.Context, id string) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	blob, err := s.store.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}
	snap, err := snapshot.Decode(blob.Payload)
	if err != nil {
		s.log.Warn("snapshot rejected", "snapshot_id", id, "error", err)
		return err
	}
	return s.model.Restore(snap)
}
