package realtime

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/yungbote/pulse-backend/internal/clients/workshop"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

type EventSource interface {
	OpenEvents(ctx context.Context, lastEventID string) (io.ReadCloser, error)
}

// FrameHandler receives every named frame in arrival order.
type FrameHandler func(ctx context.Context, name string, data []byte)

// Feed keeps one subscription to the session event stream open between
// Start and Stop, reconnecting after a fixed delay and resuming from the last
// seen event id.
type Feed struct {
	log            *logger.Logger
	src            EventSource
	handle         FrameHandler
	reconnectDelay time.Duration

	mu      sync.Mutex
	lastID  string
	cancel  context.CancelFunc
	done    chan struct{}
	connect int
}

func NewFeed(log *logger.Logger, src EventSource, reconnectDelay time.Duration, handle FrameHandler) *Feed {
	if log == nil {
		log = logger.Nop()
	}
	if reconnectDelay <= 0 {
		reconnectDelay = 2 * time.Second
	}
	return &Feed{
		log:            log.With("component", "realtime.Feed"),
		src:            src,
		handle:         handle,
		reconnectDelay: reconnectDelay,
	}
}

// Start is a no-op if the feed is already running. The subscription outlives
// ctx only until Stop.
func (f *Feed) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f.cancel = cancel
	f.done = make(chan struct{})
	go f.run(runCtx, f.done)
}

// Stop cancels the subscription and waits for the reader to exit.
func (f *Feed) Stop() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (f *Feed) LastEventID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastID
}

func (f *Feed) Connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connect
}

func (f *Feed) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		delay := f.session(ctx)
		if ctx.Err() != nil {
			return
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// session runs one connection and returns the delay before the next.
func (f *Feed) session(ctx context.Context) time.Duration {
	delay := f.reconnectDelay
	body, err := f.src.OpenEvents(ctx, f.LastEventID())
	if err != nil {
		if ctx.Err() == nil {
			f.log.Warn("feed connect failed", "error", err, "retry_in", delay.String())
		}
		return delay
	}
	defer body.Close()

	f.mu.Lock()
	f.connect++
	f.mu.Unlock()
	f.log.Info("feed connected")

	err = workshop.ReadEvents(body, func(ev workshop.Event) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if ev.Retry > 0 {
			delay = ev.Retry
		}
		if ev.ID != "" {
			f.mu.Lock()
			f.lastID = ev.ID
			f.mu.Unlock()
		}
		if ev.Name == "" || f.handle == nil {
			return nil
		}
		f.handle(ctx, ev.Name, []byte(ev.Data))
		return nil
	})
	if ctx.Err() == nil {
		if err != nil && !errors.Is(err, context.Canceled) {
			f.log.Warn("feed stream broke", "error", err, "retry_in", delay.String())
		} else {
			f.log.Info("feed stream ended", "retry_in", delay.String())
		}
	}
	return delay
}
