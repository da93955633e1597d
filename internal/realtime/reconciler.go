package realtime

import (
	"context"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/observability"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

// Model is the state the reconciler merges into. Every method is idempotent
// and keyed by datapoint or utterance id.
type Model interface {
	// IngestDatapoint reports false when the datapoint id is already known.
	IngestDatapoint(ctx context.Context, d domain.Datapoint) bool
	// ApplyClassification and ApplyAnnotation report false for unknown ids.
	ApplyClassification(id string, in domain.Interpretation) bool
	ApplyAnnotation(id string, a domain.Annotation) bool
}

type Result string

const (
	ResultApplied   Result = "applied"
	ResultDuplicate Result = "duplicate"
	ResultUnknownID Result = "unknown_id"
	ResultInvalid   Result = "invalid"
)

type Reconciler struct {
	log     *logger.Logger
	metrics *observability.Metrics
	model   Model
}

func NewReconciler(log *logger.Logger, metrics *observability.Metrics, model Model) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{log: log.With("component", "realtime.Reconciler"), metrics: metrics, model: model}
}

func (r *Reconciler) Apply(ctx context.Context, ev FeedEvent) Result {
	res := r.apply(ctx, ev)
	kind := "unknown"
	if ev != nil {
		kind = string(ev.Kind())
	}
	r.metrics.IncFeedEvent(kind, string(res))
	if res != ResultApplied {
		r.log.Debug("feed event not applied", "kind", kind, "result", res)
	}
	return res
}

func (r *Reconciler) apply(ctx context.Context, ev FeedEvent) Result {
	switch e := ev.(type) {
	case Created:
		if !r.model.IngestDatapoint(ctx, e.Datapoint) {
			return ResultDuplicate
		}
	case ClassificationUpdated:
		if !r.model.ApplyClassification(e.ID, e.Interpretation) {
			return ResultUnknownID
		}
	case AnnotationUpdated:
		if !r.model.ApplyAnnotation(e.ID, e.Annotation) {
			return ResultUnknownID
		}
	default:
		return ResultInvalid
	}
	return ResultApplied
}

// HandleFrame decodes and applies one raw feed frame; malformed frames are
// logged and dropped.
func (r *Reconciler) HandleFrame(ctx context.Context, name string, data []byte) Result {
	ev, err := DecodeEvent(name, data)
	if err != nil {
		r.metrics.IncFeedEvent(name, string(ResultInvalid))
		r.log.Warn("dropping malformed feed event", "event", name, "error", err)
		return ResultInvalid
	}
	return r.Apply(ctx, ev)
}
