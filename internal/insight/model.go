// Package insight owns the semantic state of one workshop session: the
// utterances, their themes and dependency edges, and the derived views.
package insight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/insight/dependency"
	"github.com/yungbote/pulse-backend/internal/insight/reveal"
	"github.com/yungbote/pulse-backend/internal/insight/segment"
	"github.com/yungbote/pulse-backend/internal/insight/synthesis"
	"github.com/yungbote/pulse-backend/internal/insight/theme"
	"github.com/yungbote/pulse-backend/internal/interpret"
	"github.com/yungbote/pulse-backend/internal/observability"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

// Embedder turns utterance text into a vector. Implementations should not
// retry; a failure leaves the utterance in the lexical view.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type Config struct {
	Theme     theme.Config
	Synthesis synthesis.Config
	Reveal    reveal.Config
	// RevealLatch keeps the reveal gate open once it has opened.
	RevealLatch bool
	// HighConfidence is the confidence weight an utterance needs to count
	// toward the intent check.
	HighConfidence float64
	// MinThemeStrength hides weaker themes from synthesis.
	MinThemeStrength int
}

func (c *Config) defaults() {
	if c.HighConfidence <= 0 {
		c.HighConfidence = 0.7
	}
	if c.MinThemeStrength <= 0 {
		c.MinThemeStrength = 1
	}
}

type Deps struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	Interpreter interpret.Interpreter
	// Embedder may be nil; semantic themes are then never formed.
	Embedder Embedder
	Now      func() time.Time
}

// Change is delivered to listeners after every mutation.
type Change struct {
	Reason  string
	Version int64
	Reveal  reveal.Status
	// RevealOpened is true on the change that opened the gate.
	RevealOpened bool
}

type Model struct {
	cfg      Config
	log      *logger.Logger
	metrics  *observability.Metrics
	interp   interpret.Interpreter
	embedder Embedder
	now      func() time.Time
	gate     *reveal.Gate

	mu          sync.RWMutex
	sources     map[string][]string
	utterances  map[string]*domain.Utterance
	order       []string
	annotations map[string]domain.Annotation
	phase       string
	narrative   string
	selected    string
	lexical     *theme.Lexical
	semantic    *theme.Semantic
	deps        *dependency.Engine
	version     int64
	pending     []string
	// highConf counts utterances at or above cfg.HighConfidence.
	highConf int

	wake chan struct{}

	lmu       sync.Mutex
	listeners []func(Change)
}

func New(cfg Config, d Deps) *Model {
	cfg.defaults()
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Interpreter == nil {
		d.Interpreter = interpret.NewKeyword()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Model{
		cfg:         cfg,
		log:         d.Log.With("component", "insight.Model"),
		metrics:     d.Metrics,
		interp:      d.Interpreter,
		embedder:    d.Embedder,
		now:         d.Now,
		gate:        reveal.NewGate(cfg.Reveal, cfg.RevealLatch),
		sources:     map[string][]string{},
		utterances:  map[string]*domain.Utterance{},
		annotations: map[string]domain.Annotation{},
		lexical:     theme.NewLexical(cfg.Theme),
		semantic:    theme.NewSemantic(cfg.Theme),
		deps:        dependency.New(),
		wake:        make(chan struct{}, 1),
	}
}

// OnChange registers a listener. Listeners run on the mutating goroutine
// without the model lock held.
func (m *Model) OnChange(fn func(Change)) {
	m.lmu.Lock()
	m.listeners = append(m.listeners, fn)
	m.lmu.Unlock()
}

func (m *Model) changed(reason string) {
	st, opened := m.gate.Update(m.revealInputs())
	m.mu.RLock()
	v := m.version
	m.mu.RUnlock()
	if opened {
		m.log.Info("reveal gate opened", "version", v)
	}
	ch := Change{Reason: reason, Version: v, Reveal: st, RevealOpened: opened}
	m.lmu.Lock()
	ls := append([]func(Change){}, m.listeners...)
	m.lmu.Unlock()
	for _, fn := range ls {
		fn(ch)
	}
}

// IngestDatapoint splits, classifies and processes a new datapoint. It
// reports false for ids already seen, including ids currently being ingested.
// A datapoint without a creation time is stamped with the model clock.
func (m *Model) IngestDatapoint(ctx context.Context, d domain.Datapoint) bool {
	if d.CreatedAtMs <= 0 {
		d.CreatedAtMs = m.now().UnixMilli()
	}
	m.mu.Lock()
	if _, ok := m.sources[d.ID]; ok {
		m.mu.Unlock()
		return false
	}
	m.sources[d.ID] = []string{}
	m.mu.Unlock()

	utts := segment.Split(d)
	for i := range utts {
		in := m.classify(ctx, d, utts[i].RawText)
		utts[i].Classify(in)
	}

	m.mu.Lock()
	ids := make([]string, 0, len(utts))
	for i := range utts {
		u := utts[i]
		if _, dup := m.utterances[u.ID]; dup {
			m.log.Warn("utterance id collision, skipping", "utterance_id", u.ID)
			continue
		}
		m.utterances[u.ID] = &u
		m.order = append(m.order, u.ID)
		m.highConf += m.highConfidence(&u)
		ids = append(ids, u.ID)
		m.lexical.Process(u)
		m.deps.Process(u)
		m.pending = append(m.pending, u.ID)
		m.metrics.IncUtterance("ingested")
	}
	m.sources[d.ID] = ids
	m.version++
	m.mu.Unlock()

	m.signal()
	m.changed("datapoint.created")
	return true
}

func (m *Model) highConfidence(u *domain.Utterance) int {
	if u.ConfidenceWeight >= m.cfg.HighConfidence {
		return 1
	}
	return 0
}

func (m *Model) classify(ctx context.Context, d domain.Datapoint, text string) domain.Interpretation {
	if d.Interpretation != nil {
		return *d.Interpretation
	}
	in, err := m.interp.Interpret(ctx, text)
	if err != nil {
		m.log.Warn("interpretation failed, using keywords", "datapoint_id", d.ID, "error", err)
		return interpret.Classify(text)
	}
	return in
}

// resolve maps a datapoint id to its utterances, or an utterance id to itself.
func (m *Model) resolve(id string) []*domain.Utterance {
	if ids, ok := m.sources[id]; ok {
		out := make([]*domain.Utterance, 0, len(ids))
		for _, uid := range ids {
			out = append(out, m.utterances[uid])
		}
		return out
	}
	if u, ok := m.utterances[id]; ok {
		return []*domain.Utterance{u}
	}
	return nil
}

// ApplyClassification relabels utterances. Theme and dependency processing
// already ran on first sight and is not repeated.
func (m *Model) ApplyClassification(id string, in domain.Interpretation) bool {
	m.mu.Lock()
	targets := m.resolve(id)
	if len(targets) == 0 {
		_, pendingSource := m.sources[id]
		m.mu.Unlock()
		return pendingSource
	}
	for _, u := range targets {
		m.highConf -= m.highConfidence(u)
		u.Classify(in)
		m.highConf += m.highConfidence(u)
		if a, ok := m.annotations[u.ID]; ok {
			applyAnnotation(u, a)
		}
	}
	m.version++
	m.mu.Unlock()
	m.changed("classification.updated")
	return true
}

func (m *Model) ApplyAnnotation(id string, a domain.Annotation) bool {
	m.mu.Lock()
	targets := m.resolve(id)
	if len(targets) == 0 {
		m.mu.Unlock()
		return false
	}
	for _, u := range targets {
		prev := m.annotations[u.ID]
		if a.Intent != "" {
			prev.Intent = a.Intent
		}
		if a.Note != "" {
			prev.Note = a.Note
		}
		m.annotations[u.ID] = prev
		applyAnnotation(u, prev)
	}
	m.version++
	m.mu.Unlock()
	m.changed("annotation.updated")
	return true
}

func applyAnnotation(u *domain.Utterance, a domain.Annotation) {
	if a.Intent != "" {
		u.Intent = a.Intent
	}
	if a.Note != "" {
		u.Note = a.Note
	}
}

func (m *Model) SetPhase(phase string) {
	m.mu.Lock()
	m.phase = phase
	m.version++
	m.mu.Unlock()
	m.changed("phase")
}

func (m *Model) Phase() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

func (m *Model) SetNarrative(text string) {
	m.mu.Lock()
	m.narrative = text
	m.version++
	m.mu.Unlock()
	m.changed("narrative")
}

// SetSelection focuses an utterance; the empty id clears focus.
func (m *Model) SetSelection(id string) error {
	m.mu.Lock()
	if id != "" {
		if _, ok := m.utterances[id]; !ok {
			m.mu.Unlock()
			return fmt.Errorf("utterance %q: %w", id, pkgerrors.ErrNotFound)
		}
	}
	m.selected = id
	m.version++
	m.mu.Unlock()
	m.changed("selection")
	return nil
}
