package domain

type ThemeKind string

const (
	ThemeSemantic ThemeKind = "semantic"
	ThemeLexical  ThemeKind = "lexical"
)

type Theme struct {
	ID         string     `json:"id"`
	Kind       ThemeKind  `json:"kind"`
	Domain     Domain     `json:"domain"`
	IntentType IntentType `json:"intentType"`
	Label      string     `json:"label"`
	Strength   int        `json:"strength"`
	Centroid   []float64  `json:"centroid,omitempty"`
	// SupportingUtteranceIDs is a ring buffer; oldest ids drop past the cap.
	SupportingUtteranceIDs []string `json:"supportingUtteranceIds"`
	LastSupportAtMs        int64    `json:"lastSupportAtMs"`
	Excerpt                string   `json:"excerpt"`
}

func (t *Theme) AddSupport(utteranceID string, atMs int64, excerpt string, cap int) {
	t.SupportingUtteranceIDs = append(t.SupportingUtteranceIDs, utteranceID)
	if cap > 0 && len(t.SupportingUtteranceIDs) > cap {
		drop := len(t.SupportingUtteranceIDs) - cap
		t.SupportingUtteranceIDs = append([]string(nil), t.SupportingUtteranceIDs[drop:]...)
	}
	if atMs >= t.LastSupportAtMs {
		t.LastSupportAtMs = atMs
		t.Excerpt = excerpt
	}
}

func (t *Theme) Clone() *Theme {
	cp := *t
	cp.Centroid = append([]float64(nil), t.Centroid...)
	cp.SupportingUtteranceIDs = append([]string(nil), t.SupportingUtteranceIDs...)
	return &cp
}
