// Package dependency infers cross-domain edges from classified utterances.
package dependency

import (
	"sort"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/interpret"
)

// Outcome describes what Process did with one utterance.
type Outcome struct {
	EdgeID  string
	Valence domain.Valence
	// Created is true when the edge did not exist before.
	Created bool
}

// Engine is not safe for concurrent use.
type Engine struct {
	edges     map[string]*domain.DependencyEdge
	order     []string
	tallies   map[domain.Domain]*domain.DomainTally
	processed map[string]bool

	detect func(text string) []domain.Domain
}

func New() *Engine {
	return &Engine{
		edges:     map[string]*domain.DependencyEdge{},
		tallies:   map[domain.Domain]*domain.DomainTally{},
		processed: map[string]bool{},
		detect:    interpret.DetectByMention,
	}
}

// ValenceOf: constraint and risk tags win over future framing; otherwise
// future temporal intent or aspiration/opportunity tags are aspirational.
func ValenceOf(u domain.Utterance) domain.Valence {
	switch {
	case u.HasIntent(domain.IntentConstraint), u.HasIntent(domain.IntentRisk):
		return domain.ValenceConstraint
	case u.TemporalIntent == domain.TemporalFuture,
		u.HasIntent(domain.IntentAspiration),
		u.HasIntent(domain.IntentOpportunity):
		return domain.ValenceAspiration
	default:
		return domain.ValenceNeutral
	}
}

// Referenced lists the domains an utterance points at other than its own.
// The interpreter's list is used when present, keyword mentions otherwise.
func (e *Engine) Referenced(u domain.Utterance) []domain.Domain {
	src := u.Domains
	if len(src) == 0 {
		src = e.detect(u.RawText)
	}
	var out []domain.Domain
	seen := map[domain.Domain]bool{}
	for _, d := range src {
		if d == u.Domain || d == domain.DomainGeneral || d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// Process runs at most once per utterance id. Every processed utterance
// lands in its domain tally; an edge is recorded only when a target exists.
func (e *Engine) Process(u domain.Utterance) (Outcome, bool) {
	if e.processed[u.ID] {
		return Outcome{}, false
	}
	e.processed[u.ID] = true

	v := ValenceOf(u)
	e.tally(u.Domain, v)

	if u.Domain == "" || u.Domain == domain.DomainGeneral {
		return Outcome{Valence: v}, true
	}
	refs := e.Referenced(u)
	if len(refs) == 0 {
		return Outcome{Valence: v}, true
	}
	id := domain.EdgeID(u.Domain, refs[0])
	edge, ok := e.edges[id]
	if !ok {
		edge = &domain.DependencyEdge{ID: id, FromDomain: u.Domain, ToDomain: refs[0]}
		e.edges[id] = edge
		e.order = append(e.order, id)
	}
	edge.Record(v, u.CreatedAtMs)
	return Outcome{EdgeID: id, Valence: v, Created: !ok}, true
}

func (e *Engine) tally(d domain.Domain, v domain.Valence) {
	if d == "" {
		d = domain.DomainGeneral
	}
	t, ok := e.tallies[d]
	if !ok {
		t = &domain.DomainTally{Domain: d}
		e.tallies[d] = t
	}
	t.Total++
	switch v {
	case domain.ValenceAspiration:
		t.Aspirations++
	case domain.ValenceConstraint:
		t.Constraints++
	}
}

func (e *Engine) Processed(id string) bool { return e.processed[id] }

func (e *Engine) ProcessedCount() int { return len(e.processed) }

func (e *Engine) ProcessedIDs() []string {
	out := make([]string, 0, len(e.processed))
	for id := range e.processed {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Edges returns copies in first-seen order.
func (e *Engine) Edges() []domain.DependencyEdge {
	out := make([]domain.DependencyEdge, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.edges[id])
	}
	return out
}

func (e *Engine) Edge(id string) (domain.DependencyEdge, bool) {
	edge, ok := e.edges[id]
	if !ok {
		return domain.DependencyEdge{}, false
	}
	return *edge, true
}

// Tallies returns per-domain aggregates in display order, General last.
func (e *Engine) Tallies() []domain.DomainTally {
	var out []domain.DomainTally
	for _, d := range append(append([]domain.Domain(nil), domain.Domains...), domain.DomainGeneral) {
		if t, ok := e.tallies[d]; ok {
			out = append(out, *t)
		}
	}
	return out
}

// Restore replaces all state. Tallies missing from older snapshots are
// rebuilt from edges, which undercounts edgeless utterances.
func (e *Engine) Restore(edges []domain.DependencyEdge, tallies []domain.DomainTally, processed []string) {
	e.edges = map[string]*domain.DependencyEdge{}
	e.order = nil
	e.tallies = map[domain.Domain]*domain.DomainTally{}
	e.processed = map[string]bool{}
	for i := range edges {
		edge := edges[i]
		if edge.ID == "" {
			edge.ID = domain.EdgeID(edge.FromDomain, edge.ToDomain)
		}
		if _, dup := e.edges[edge.ID]; dup {
			continue
		}
		e.edges[edge.ID] = &edge
		e.order = append(e.order, edge.ID)
	}
	for i := range tallies {
		t := tallies[i]
		e.tallies[t.Domain] = &t
	}
	if len(tallies) == 0 {
		for _, id := range e.order {
			edge := e.edges[id]
			t, ok := e.tallies[edge.FromDomain]
			if !ok {
				t = &domain.DomainTally{Domain: edge.FromDomain}
				e.tallies[edge.FromDomain] = t
			}
			t.Total += edge.Count
			t.Aspirations += edge.AspirationCount
			t.Constraints += edge.ConstraintCount
		}
	}
	for _, id := range processed {
		e.processed[id] = true
	}
}
