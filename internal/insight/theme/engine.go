// Package theme clusters utterances into themes. Engines are not safe for
// concurrent use; the insight model serializes access.
package theme

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/pulse-backend/internal/domain"
)

type Config struct {
	// Threshold is the minimum cosine similarity for folding into a theme.
	Threshold  float64
	SupportCap int
	LabelWords int
}

func (c *Config) defaults() {
	if c.Threshold <= 0 {
		c.Threshold = 0.78
	}
	if c.SupportCap <= 0 {
		c.SupportCap = 50
	}
	if c.LabelWords <= 0 {
		c.LabelWords = 6
	}
}

type Assignment struct {
	ThemeID string
	Created bool
	// Similarity is the best cosine to an existing theme; 0 when none existed.
	Similarity float64
}

type store struct {
	themes    map[string]*domain.Theme
	order     []string
	assigned  map[string]string
	processed map[string]bool
}

func newStore() store {
	return store{
		themes:    map[string]*domain.Theme{},
		assigned:  map[string]string{},
		processed: map[string]bool{},
	}
}

func (s *store) add(t *domain.Theme) {
	s.themes[t.ID] = t
	s.order = append(s.order, t.ID)
}

func (s *store) list() []*domain.Theme {
	out := make([]*domain.Theme, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.themes[id].Clone())
	}
	return out
}

func (s *store) Len() int { return len(s.order) }

func (s *store) Get(id string) (*domain.Theme, bool) {
	t, ok := s.themes[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func (s *store) Processed(utteranceID string) bool { return s.processed[utteranceID] }

func (s *store) ProcessedIDs() []string {
	out := make([]string, 0, len(s.processed))
	for id := range s.processed {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *store) Assignments() map[string]string {
	out := make(map[string]string, len(s.assigned))
	for k, v := range s.assigned {
		out[k] = v
	}
	return out
}

func (s *store) restore(themes []domain.Theme, assigned map[string]string, processed []string) {
	*s = newStore()
	for i := range themes {
		t := themes[i]
		s.add(t.Clone())
	}
	for k, v := range assigned {
		s.assigned[k] = v
	}
	for _, id := range processed {
		s.processed[id] = true
	}
	for id := range s.assigned {
		s.processed[id] = true
	}
}

// Semantic clusters by embedding within each (domain, intent) pair.
type Semantic struct {
	cfg Config
	store
	seq int
}

func NewSemantic(cfg Config) *Semantic {
	cfg.defaults()
	return &Semantic{cfg: cfg, store: newStore()}
}

func (e *Semantic) Themes() []*domain.Theme { return e.list() }

// MarkProcessed consumes the one-shot guard without assigning, used when no
// embedding could be obtained.
func (e *Semantic) MarkProcessed(utteranceID string) bool {
	if e.processed[utteranceID] {
		return false
	}
	e.processed[utteranceID] = true
	return true
}

// Process reports ok=false when the utterance was already processed or vec
// is empty.
func (e *Semantic) Process(u domain.Utterance, vec []float64) (Assignment, bool) {
	if e.processed[u.ID] || len(vec) == 0 {
		return Assignment{}, false
	}
	e.processed[u.ID] = true

	var best *domain.Theme
	bestSim := -1.0
	for _, id := range e.order {
		t := e.themes[id]
		if t.Domain != u.Domain || t.IntentType != u.Intent {
			continue
		}
		if sim := Cosine(t.Centroid, vec); sim > bestSim {
			best, bestSim = t, sim
		}
	}
	if best != nil && bestSim >= e.cfg.Threshold {
		best.Centroid = Fold(best.Centroid, best.Strength, vec)
		best.Strength++
		best.AddSupport(u.ID, u.CreatedAtMs, u.RawText, e.cfg.SupportCap)
		e.assigned[u.ID] = best.ID
		return Assignment{ThemeID: best.ID, Similarity: bestSim}, true
	}

	e.seq++
	t := &domain.Theme{
		ID:         fmt.Sprintf("th-%d", e.seq),
		Kind:       domain.ThemeSemantic,
		Domain:     u.Domain,
		IntentType: u.Intent,
		Label:      Label(u.RawText, e.cfg.LabelWords),
		Strength:   1,
		Centroid:   append([]float64(nil), vec...),
	}
	for e.themes[t.ID] != nil {
		e.seq++
		t.ID = fmt.Sprintf("th-%d", e.seq)
	}
	t.AddSupport(u.ID, u.CreatedAtMs, u.RawText, e.cfg.SupportCap)
	e.add(t)
	e.assigned[u.ID] = t.ID
	sim := bestSim
	if best == nil {
		sim = 0
	}
	return Assignment{ThemeID: t.ID, Created: true, Similarity: sim}, true
}

func (e *Semantic) Restore(themes []domain.Theme, assigned map[string]string, processed []string) {
	e.restore(themes, assigned, processed)
	e.seq = len(themes)
}

// Lexical groups by (domain, intent, keyword signature) with no embeddings, so
// it can run synchronously on ingest.
type Lexical struct {
	cfg Config
	store
}

func NewLexical(cfg Config) *Lexical {
	cfg.defaults()
	return &Lexical{cfg: cfg, store: newStore()}
}

func (e *Lexical) Themes() []*domain.Theme { return e.list() }

// LexicalID is the stable theme id for a (domain, intent, signature) triple.
func LexicalID(d domain.Domain, intent domain.IntentType, sig []string) string {
	key := string(d) + "|" + string(intent) + "|" + strings.Join(sig, "+")
	sum := sha1.Sum([]byte(key))
	return "lex-" + hex.EncodeToString(sum[:6])
}

func (e *Lexical) Process(u domain.Utterance) (Assignment, bool) {
	if e.processed[u.ID] {
		return Assignment{}, false
	}
	e.processed[u.ID] = true

	sig := Signature(u.Domain, u.Intent, u.RawText)
	id := LexicalID(u.Domain, u.Intent, sig)
	t, ok := e.themes[id]
	if !ok {
		label := strings.Join(sig, " ")
		if label == "" {
			label = Label(u.RawText, e.cfg.LabelWords)
		}
		t = &domain.Theme{
			ID:         id,
			Kind:       domain.ThemeLexical,
			Domain:     u.Domain,
			IntentType: u.Intent,
			Label:      label,
		}
		e.add(t)
	}
	t.Strength++
	t.AddSupport(u.ID, u.CreatedAtMs, u.RawText, e.cfg.SupportCap)
	e.assigned[u.ID] = id
	return Assignment{ThemeID: id, Created: !ok}, true
}

func (e *Lexical) Restore(themes []domain.Theme, assigned map[string]string) {
	e.restore(themes, assigned, nil)
}
