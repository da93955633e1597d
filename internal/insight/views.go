package insight

import (
	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/insight/reveal"
	"github.com/yungbote/pulse-backend/internal/insight/synthesis"
)

// View is the dashboard model payload.
type View struct {
	Version             int64                   `json:"version"`
	Phase               string                  `json:"phase"`
	Narrative           string                  `json:"narrative"`
	SelectedUtteranceID string                  `json:"selectedUtteranceId,omitempty"`
	ThemeKind           domain.ThemeKind        `json:"themeKind"`
	Themes              []*domain.Theme         `json:"themes"`
	Edges               []domain.DependencyEdge `json:"edges"`
	Tallies             []domain.DomainTally    `json:"tallies"`
	UtteranceCount      int                     `json:"utteranceCount"`
	ProcessedCount      int                     `json:"processedCount"`
	ThemeProcessedCount int                     `json:"themeProcessedCount"`
	PendingEmbeddings   int                     `json:"pendingEmbeddings"`
}

// themesLocked serves lexical themes until the first semantic theme exists.
func (m *Model) themesLocked() (domain.ThemeKind, []*domain.Theme) {
	if m.semantic.Len() > 0 {
		return domain.ThemeSemantic, m.semantic.Themes()
	}
	return domain.ThemeLexical, m.lexical.Themes()
}

func (m *Model) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kind, themes := m.themesLocked()
	return View{
		Version:             m.version,
		Phase:               m.phase,
		Narrative:           m.narrative,
		SelectedUtteranceID: m.selected,
		ThemeKind:           kind,
		Themes:              themes,
		Edges:               m.deps.Edges(),
		Tallies:             m.deps.Tallies(),
		UtteranceCount:      len(m.order),
		ProcessedCount:      m.deps.ProcessedCount(),
		ThemeProcessedCount: len(m.semantic.ProcessedIDs()),
		PendingEmbeddings:   len(m.pending),
	}
}

func (m *Model) Themes() []*domain.Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, themes := m.themesLocked()
	return themes
}

func (m *Model) synthesisLocked() []domain.DomainSynthesis {
	_, themes := m.themesLocked()
	kept := themes[:0]
	for _, th := range themes {
		if th.Strength >= m.cfg.MinThemeStrength {
			kept = append(kept, th)
		}
	}
	return synthesis.Build(kept, m.now().UnixMilli(), m.cfg.Synthesis)
}

func (m *Model) Synthesis() []domain.DomainSynthesis {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.synthesisLocked()
}

func (m *Model) PressurePoints() []domain.PressurePoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return synthesis.PressurePoints(m.deps.Edges(), m.deps.Tallies(), m.now().UnixMilli(), m.cfg.Synthesis)
}

func (m *Model) revealInputs() reveal.Inputs {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return reveal.Inputs{
		Total:               len(m.order),
		HighConfidence:      m.highConf,
		DependencyProcessed: m.deps.ProcessedCount(),
		SynthesisItems:      synthesis.ItemCount(m.synthesisLocked()),
		Narrative:           m.narrative,
	}
}

// Reveal evaluates the gate without changing its latch.
func (m *Model) Reveal() reveal.Status {
	return m.gate.Peek(m.revealInputs())
}

func (m *Model) Utterances() []domain.Utterance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Utterance, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.utterances[id])
	}
	return out
}

func (m *Model) Utterance(id string) (domain.Utterance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.utterances[id]
	if !ok {
		return domain.Utterance{}, false
	}
	return *u, true
}

func (m *Model) Edges() []domain.DependencyEdge {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deps.Edges()
}

func (m *Model) Tallies() []domain.DomainTally {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deps.Tallies()
}
