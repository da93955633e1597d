package insight

import (
	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/insight/dependency"
	"github.com/yungbote/pulse-backend/internal/insight/segment"
	"github.com/yungbote/pulse-backend/internal/insight/theme"
	"github.com/yungbote/pulse-backend/internal/snapshot"
)

// Export captures the full model state.
func (m *Model) Export() snapshot.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := snapshot.Snapshot{
		SavedAt:                   m.now().UTC(),
		DialoguePhase:             m.phase,
		Narrative:                 m.narrative,
		Sources:                   make(map[string][]string, len(m.sources)),
		SelectedUtteranceID:       m.selected,
		UtteranceThemeAssignments: m.semantic.Assignments(),
		ThemeProcessedIDs:         m.semantic.ProcessedIDs(),
		LexicalAssignments:        m.lexical.Assignments(),
		DependencyEdges:           m.deps.Edges(),
		DomainTallies:             m.deps.Tallies(),
		ProcessedUtteranceIDs:     m.deps.ProcessedIDs(),
		RevealLatched:             m.gate.Latched(),
	}
	for id, children := range m.sources {
		s.Sources[id] = append([]string{}, children...)
	}
	for _, id := range m.order {
		s.Utterances = append(s.Utterances, *m.utterances[id])
	}
	for _, th := range m.semantic.Themes() {
		s.Themes = append(s.Themes, *th)
	}
	for _, th := range m.lexical.Themes() {
		s.LexicalThemes = append(s.LexicalThemes, *th)
	}
	s.ProcessedCount = len(s.ProcessedUtteranceIDs)
	return s
}

// Restore replaces the model with a validated snapshot. New engines are
// built first so a failed validation leaves the current state untouched.
// Utterances not yet theme-processed are queued for embedding again.
func (m *Model) Restore(s snapshot.Snapshot) error {
	if err := snapshot.Validate(&s); err != nil {
		return err
	}

	utterances := make(map[string]*domain.Utterance, len(s.Utterances))
	order := make([]string, 0, len(s.Utterances))
	for i := range s.Utterances {
		u := s.Utterances[i]
		utterances[u.ID] = &u
		order = append(order, u.ID)
	}

	sources := map[string][]string{}
	if len(s.Sources) > 0 {
		for id, children := range s.Sources {
			sources[id] = append([]string{}, children...)
		}
	} else {
		for _, id := range order {
			p := segment.ParentID(id)
			sources[p] = append(sources[p], id)
		}
	}

	semantic := theme.NewSemantic(m.cfg.Theme)
	semantic.Restore(s.Themes, s.UtteranceThemeAssignments, s.ThemeProcessedIDs)

	lexical := theme.NewLexical(m.cfg.Theme)
	lexical.Restore(s.LexicalThemes, s.LexicalAssignments)

	deps := dependency.New()
	deps.Restore(s.DependencyEdges, s.DomainTallies, s.ProcessedUtteranceIDs)

	var pending []string
	for _, id := range order {
		if !semantic.Processed(id) {
			pending = append(pending, id)
		}
	}
	// Older snapshots may lack lexical or dependency state for some
	// utterances; those are processed once now.
	for _, id := range order {
		if !lexical.Processed(id) {
			lexical.Process(*utterances[id])
		}
		if !deps.Processed(id) {
			deps.Process(*utterances[id])
		}
	}

	m.mu.Lock()
	m.sources = sources
	m.utterances = utterances
	m.highConf = 0
	for _, u := range utterances {
		m.highConf += m.highConfidence(u)
	}
	m.order = order
	m.annotations = map[string]domain.Annotation{}
	m.phase = s.DialoguePhase
	m.narrative = s.Narrative
	m.selected = s.SelectedUtteranceID
	m.semantic = semantic
	m.lexical = lexical
	m.deps = deps
	m.pending = pending
	m.version++
	m.mu.Unlock()
	m.gate.Restore(s.RevealLatched)

	m.log.Info("snapshot restored",
		"utterances", len(order),
		"themes", len(s.Themes),
		"edges", len(s.DependencyEdges),
		"pending_embeddings", len(pending),
	)
	m.signal()
	m.changed("snapshot.restored")
	return nil
}
