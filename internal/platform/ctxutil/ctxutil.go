package ctxutil

import "context"

// Default substitutes context.Background for a nil ctx.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

type requestKey struct{}

// Request holds the ids the HTTP layer attaches for log correlation.
type Request struct {
	TraceID   string
	RequestID string
}

func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(Default(ctx), requestKey{}, r)
}

func RequestFrom(ctx context.Context) (Request, bool) {
	if ctx == nil {
		return Request{}, false
	}
	r, ok := ctx.Value(requestKey{}).(Request)
	return r, ok
}

// LogFields returns trace_id and request_id pairs, skipping empty ids.
func (r Request) LogFields() []interface{} {
	out := make([]interface{}, 0, 4)
	if r.TraceID != "" {
		out = append(out, "trace_id", r.TraceID)
	}
	if r.RequestID != "" {
		out = append(out, "request_id", r.RequestID)
	}
	return out
}
