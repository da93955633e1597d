package transcription

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/observability"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

type ChainConfig struct {
	ChunkDuration time.Duration
	// SilenceRMS is the floor under which an empty primary result is taken
	// as true silence and the secondary is skipped.
	SilenceRMS float64
	TraceSize  int
}

// Chain converts one audio chunk into text by trying the primary provider and
// then, at most once, the secondary. It is owned by one session.
type Chain struct {
	log       *logger.Logger
	metrics   *observability.Metrics
	primary   Provider
	secondary Provider
	cfg       ChainConfig
	timeline  *Timeline
	trace     *DebugTrace
	now       func() time.Time

	mu       sync.Mutex
	disabled map[string]bool
}

func NewChain(log *logger.Logger, metrics *observability.Metrics, primary, secondary Provider, cfg ChainConfig) *Chain {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = 10 * time.Second
	}
	return &Chain{
		log:       log.With("component", "transcription.Chain"),
		metrics:   metrics,
		primary:   primary,
		secondary: secondary,
		cfg:       cfg,
		timeline:  NewTimeline(cfg.ChunkDuration.Milliseconds()),
		trace:     NewDebugTrace(cfg.TraceSize),
		now:       time.Now,
		disabled:  map[string]bool{},
	}
}

func (c *Chain) Trace() *DebugTrace { return c.trace }

func (c *Chain) Timeline() *Timeline { return c.timeline }

// Providers counts the configured providers.
func (c *Chain) Providers() int {
	n := 0
	for _, p := range []Provider{c.primary, c.secondary} {
		if p != nil {
			n++
		}
	}
	return n
}

// Disabled lists providers tripped by an authentication failure.
func (c *Chain) Disabled() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.disabled))
	for name, off := range c.disabled {
		if off {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Chain) isDisabled(p Provider) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled[p.Name()]
}

func (c *Chain) disable(p Provider) {
	c.mu.Lock()
	c.disabled[p.Name()] = true
	c.mu.Unlock()
	c.metrics.SetProviderDisabled(p.Name(), true)
	c.log.Warn("provider disabled for session after auth failure", "provider", p.Name())
}

// Transcribe never retries. The returned chunk carries the window computed
// from chunk.EndTimeMs; the window advances even when the chunk is dropped.
func (c *Chain) Transcribe(ctx context.Context, chunk domain.AudioChunk) (domain.TranscriptChunk, error) {
	startMs, endMs := c.timeline.Window(chunk.EndTimeMs)
	entry := TraceEntry{At: c.now(), Seq: chunk.Seq, Generation: chunk.Generation, StartMs: startMs, EndMs: endMs}
	out := domain.TranscriptChunk{Seq: chunk.Seq, StartTimeMs: startMs, EndTimeMs: endMs}

	finish := func(o Outcome, err error) (domain.TranscriptChunk, error) {
		entry.Outcome = o
		entry.TextLen = len(out.Text)
		c.trace.Add(entry)
		c.metrics.IncChunk(string(o))
		return out, err
	}

	res, perr := c.attempt(ctx, c.primary, chunk, &entry)
	if perr == nil && res.Text != "" {
		out.Text, out.Confidence, out.Source = res.Text, res.Confidence, domain.SourcePrimary
		return finish(OutcomePrimary, nil)
	}
	if perr == nil && IsSilent(chunk.Data, chunk.MimeType, c.cfg.SilenceRMS) {
		return finish(OutcomeSilent, pkgerrors.ErrSilentChunk)
	}

	res, serr := c.attempt(ctx, c.secondary, chunk, &entry)
	if serr == nil && res.Text != "" {
		out.Text, out.Confidence, out.Source = res.Text, res.Confidence, domain.SourceSecondary
		return finish(OutcomeSecondary, nil)
	}

	cause := errors.Join(perr, serr)
	c.log.Debug("chunk dropped", "seq", chunk.Seq, "generation", chunk.Generation, "error", cause)
	if cause == nil {
		return finish(OutcomeUnavailable, pkgerrors.ErrTranscriptionUnavailable)
	}
	return finish(OutcomeUnavailable, fmt.Errorf("%w: %v", pkgerrors.ErrTranscriptionUnavailable, cause))
}

func (c *Chain) attempt(ctx context.Context, p Provider, chunk domain.AudioChunk, entry *TraceEntry) (Result, error) {
	if p == nil {
		return Result{}, nil
	}
	if c.isDisabled(p) {
		entry.Attempts = append(entry.Attempts, Attempt{Provider: p.Name(), Skipped: true})
		return Result{}, fmt.Errorf("%s: %w", p.Name(), pkgerrors.ErrProviderAuth)
	}

	ctx, span := observability.StartSpan(ctx, "transcription."+p.Name(),
		attribute.Int64("chunk.seq", chunk.Seq),
		attribute.Int64("chunk.generation", chunk.Generation),
		attribute.Int("chunk.bytes", len(chunk.Data)),
	)
	started := c.now()
	res, err := p.Transcribe(ctx, chunk)
	dur := c.now().Sub(started)
	observability.EndSpan(span, err)

	res.Text = strings.TrimSpace(res.Text)
	a := Attempt{Provider: p.Name(), DurationMs: dur.Milliseconds(), Empty: err == nil && res.Text == ""}
	status := "ok"
	switch {
	case err != nil:
		a.Error = err.Error()
		status = "error"
		if errors.Is(err, pkgerrors.ErrProviderAuth) {
			status = "auth_error"
			c.disable(p)
		}
	case res.Text == "":
		status = "empty"
	}
	entry.Attempts = append(entry.Attempts, a)
	c.metrics.ObserveTranscription(p.Name(), status, dur)
	return res, err
}
