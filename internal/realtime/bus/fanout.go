package bus

import (
	"context"
	"time"

	"github.com/yungbote/pulse-backend/internal/platform/logger"
	"github.com/yungbote/pulse-backend/internal/realtime"
)

// Fanout delivers dashboard messages to the local hub, through the bus when
// one is configured so every instance sees the same stream.
type Fanout struct {
	log *logger.Logger
	hub *realtime.Hub
	bus Bus
}

func NewFanout(log *logger.Logger, hub *realtime.Hub, b Bus) *Fanout {
	if log == nil {
		log = logger.Nop()
	}
	return &Fanout{log: log.With("component", "bus.Fanout"), hub: hub, bus: b}
}

// Run subscribes the hub to the bus and blocks until ctx ends.
func (f *Fanout) Run(ctx context.Context) error {
	if f.bus == nil {
		<-ctx.Done()
		return nil
	}
	if err := f.bus.StartForwarder(ctx, f.hub.Broadcast); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (f *Fanout) Notify(msg realtime.Message) {
	if f.bus == nil {
		f.hub.Broadcast(msg)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.bus.Publish(ctx, msg); err != nil {
		f.log.Warn("bus publish failed; delivering locally", "event", msg.Event, "error", err)
		f.hub.Broadcast(msg)
	}
}
