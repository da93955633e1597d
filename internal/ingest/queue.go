package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/observability"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

type Transcriber interface {
	Transcribe(ctx context.Context, chunk domain.AudioChunk) (domain.TranscriptChunk, error)
}

type Forwarder interface {
	ForwardTranscript(ctx context.Context, body domain.TranscriptForward) error
}

type Config struct {
	SpeakerID string
	// Phase reports the dialogue phase at forward time.
	Phase func() string
	// OnForwarded is called after every successful forward.
	OnForwarded func(at time.Time)
}

// Queue is the per-session FIFO between the recorder and the fallback chain.
// A single drain goroutine processes items strictly in arrival order and
// each item completes its full chain before the next starts.
type Queue struct {
	log     *logger.Logger
	metrics *observability.Metrics
	chain   Transcriber
	fwd     Forwarder
	cfg     Config
	now     func() time.Time

	mu      sync.Mutex
	items   []domain.AudioChunk
	closed  bool
	running bool
	signal  chan struct{}
	done    chan struct{}
}

func NewQueue(log *logger.Logger, metrics *observability.Metrics, chain Transcriber, fwd Forwarder, cfg Config) *Queue {
	if log == nil {
		log = logger.Nop()
	}
	return &Queue{
		log:     log.With("component", "ingest.Queue"),
		metrics: metrics,
		chain:   chain,
		fwd:     fwd,
		cfg:     cfg,
		now:     time.Now,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Enqueue never blocks; it reports false once the queue is closed.
func (q *Queue) Enqueue(chunk domain.AudioChunk) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, chunk)
	depth := len(q.items)
	q.mu.Unlock()

	q.metrics.SetQueueDepth(depth)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Run drains until ctx is cancelled or Close is called. It must be called once.
func (q *Queue) Run(ctx context.Context) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return errors.New("ingest queue already running")
	}
	q.running = true
	q.mu.Unlock()
	defer close(q.done)

	for {
		chunk, ok := q.next()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.signal:
				if q.isClosed() {
					return nil
				}
				continue
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		q.process(ctx, chunk)
		if q.isClosed() {
			return nil
		}
	}
}

func (q *Queue) next() (domain.AudioChunk, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || len(q.items) == 0 {
		return domain.AudioChunk{}, false
	}
	c := q.items[0]
	q.items[0] = domain.AudioChunk{}
	q.items = q.items[1:]
	q.metrics.SetQueueDepth(len(q.items))
	return c, true
}

func (q *Queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops accepting chunks, discards anything pending and waits for the
// in-flight item, if any.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	dropped := len(q.items)
	q.items = nil
	running := q.running
	q.mu.Unlock()

	q.metrics.SetQueueDepth(0)
	if dropped > 0 {
		q.log.Info("ingest queue closed with pending chunks", "dropped", dropped)
	}
	select {
	case q.signal <- struct{}{}:
	default:
	}
	if running {
		<-q.done
	}
}

func (q *Queue) process(ctx context.Context, chunk domain.AudioChunk) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("ingest item panic", "seq", chunk.Seq, "panic", r)
		}
	}()

	tc, err := q.chain.Transcribe(ctx, chunk)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrSilentChunk) {
			q.log.Debug("chunk not transcribed", "seq", chunk.Seq, "error", err)
		}
		return
	}
	if err := q.forward(ctx, tc); err != nil {
		q.metrics.IncForward("error")
		q.log.Warn("transcript forward failed", "seq", tc.Seq, "error", err)
		return
	}
	q.metrics.IncForward("ok")
	if q.cfg.OnForwarded != nil {
		q.cfg.OnForwarded(q.now())
	}
}

func (q *Queue) forward(ctx context.Context, tc domain.TranscriptChunk) (err error) {
	if q.fwd == nil {
		return fmt.Errorf("%w: no forwarder", pkgerrors.ErrIngestionForwardFailed)
	}
	phase := ""
	if q.cfg.Phase != nil {
		phase = q.cfg.Phase()
	}
	ctx, span := observability.StartSpan(ctx, "ingest.forward",
		attribute.Int64("chunk.seq", tc.Seq),
		attribute.String("chunk.source", string(tc.Source)),
	)
	defer func() { observability.EndSpan(span, err) }()

	return q.fwd.ForwardTranscript(ctx, domain.TranscriptForward{
		SpeakerID:     q.cfg.SpeakerID,
		StartTime:     tc.StartTimeMs,
		EndTime:       tc.EndTimeMs,
		Text:          tc.Text,
		Confidence:    tc.ConfidenceOr(1),
		Source:        tc.Source,
		DialoguePhase: phase,
	})
}
