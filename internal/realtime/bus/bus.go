package bus

import (
	"context"

	"github.com/yungbote/pulse-backend/internal/realtime"
)

// Bus carries dashboard messages between instances serving the same session.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}
