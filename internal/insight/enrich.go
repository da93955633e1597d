package insight

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/observability"
)

func (m *Model) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Run embeds pending utterances and feeds the semantic engine until ctx is
// done. Only one Run should be active per model.
func (m *Model) Run(ctx context.Context) error {
	m.signal()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.wake:
			m.EnrichPending(ctx)
		}
	}
}

// EnrichPending processes the current backlog synchronously and returns the
// number of utterances that reached a semantic theme.
func (m *Model) EnrichPending(ctx context.Context) int {
	assigned := 0
	for ctx.Err() == nil {
		u, ok := m.nextPending()
		if !ok {
			return assigned
		}
		if m.enrichOne(ctx, u) {
			assigned++
		}
	}
	return assigned
}

func (m *Model) nextPending() (domain.Utterance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.pending) > 0 {
		id := m.pending[0]
		m.pending = m.pending[1:]
		u, ok := m.utterances[id]
		if !ok || m.semantic.Processed(id) {
			continue
		}
		return *u, true
	}
	m.pending = nil
	return domain.Utterance{}, false
}

func (m *Model) enrichOne(ctx context.Context, u domain.Utterance) bool {
	var vec []float64
	var err error
	if m.embedder != nil {
		sctx, span := observability.StartSpan(ctx, "insight.embed",
			attribute.String("utterance.id", u.ID),
			attribute.Int("utterance.chars", len(u.RawText)),
		)
		vec, err = m.embedder.Embed(sctx, u.RawText)
		observability.EndSpan(span, err)
		if err != nil {
			if ctx.Err() != nil {
				// Shutdown, not a provider failure: leave it for the next run.
				m.requeue(u.ID)
				return false
			}
			m.log.Warn("embedding failed, lexical view only", "utterance_id", u.ID, "error", err)
		}
	}

	m.mu.Lock()
	cur, ok := m.utterances[u.ID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	if len(vec) == 0 {
		m.semantic.MarkProcessed(u.ID)
		m.mu.Unlock()
		m.metrics.IncUtterance("embed_skipped")
		return false
	}
	a, done := m.semantic.Process(*cur, vec)
	if done {
		cur.ThemeID = a.ThemeID
		m.version++
	}
	m.mu.Unlock()
	if !done {
		return false
	}
	m.metrics.IncUtterance("themed")
	m.changed("theme.assigned")
	return true
}

func (m *Model) requeue(id string) {
	m.mu.Lock()
	m.pending = append([]string{id}, m.pending...)
	m.mu.Unlock()
}
