package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yungbote/pulse-backend/internal/domain"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
)

// Ingester is the part of the insight model the local forwarder feeds.
type Ingester interface {
	IngestDatapoint(ctx context.Context, d domain.Datapoint) bool
}

// LocalForwarder stands in for the workshop server when none is configured:
// each forwarded transcript becomes a datapoint in the local model.
type LocalForwarder struct {
	model  Ingester
	prefix string
	seq    atomic.Int64
	now    func() time.Time
}

func NewLocalForwarder(model Ingester, prefix string) *LocalForwarder {
	if prefix == "" {
		prefix = "local"
	}
	return &LocalForwarder{model: model, prefix: prefix, now: time.Now}
}

func (f *LocalForwarder) ForwardTranscript(ctx context.Context, body domain.TranscriptForward) error {
	if strings.TrimSpace(body.Text) == "" {
		return fmt.Errorf("%w: empty text", pkgerrors.ErrIngestionForwardFailed)
	}
	n := f.seq.Add(1)
	f.model.IngestDatapoint(ctx, domain.Datapoint{
		ID:             fmt.Sprintf("%s-%d", f.prefix, n),
		CreatedAtMs:    f.now().UnixMilli(),
		Text:           body.Text,
		StartTimeMs:    body.StartTime,
		EndTimeMs:      body.EndTime,
		SpeakerID:      body.SpeakerID,
		SourceChunkRef: fmt.Sprintf("%s:%d", body.Source, n),
	})
	return nil
}
