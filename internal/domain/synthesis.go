package domain

type SynthesisCategory string

const (
	CategoryAspiration  SynthesisCategory = "aspirations"
	CategoryConstraint  SynthesisCategory = "constraints"
	CategoryEnabler     SynthesisCategory = "enablers"
	CategoryOpportunity SynthesisCategory = "opportunities"
)

var SynthesisCategories = []SynthesisCategory{CategoryAspiration, CategoryConstraint, CategoryEnabler, CategoryOpportunity}

// CategoryFor buckets an intent; ok is false for intents that have no bucket.
func CategoryFor(t IntentType) (SynthesisCategory, bool) {
	switch t {
	case IntentAspiration:
		return CategoryAspiration, true
	case IntentConstraint, IntentRisk:
		return CategoryConstraint, true
	case IntentEnabler:
		return CategoryEnabler, true
	case IntentOpportunity:
		return CategoryOpportunity, true
	default:
		return "", false
	}
}

type SynthesisItem struct {
	ThemeID  string            `json:"themeId"`
	Domain   Domain            `json:"domain"`
	Category SynthesisCategory `json:"category"`
	Label    string            `json:"label"`
	Excerpt  string            `json:"excerpt"`
	Strength int               `json:"strength"`
	Weight   float64           `json:"weight"`
}

// DomainSynthesis is the per-domain rollup; each category holds at most top-N items.
type DomainSynthesis struct {
	Domain     Domain                                `json:"domain"`
	Categories map[SynthesisCategory][]SynthesisItem `json:"categories"`
}

type PressureKind string

const (
	PressureEdge   PressureKind = "edge"
	PressureDomain PressureKind = "domain"
)

type PressurePoint struct {
	Kind            PressureKind `json:"kind"`
	EdgeID          string       `json:"edgeId,omitempty"`
	FromDomain      Domain       `json:"fromDomain,omitempty"`
	ToDomain        Domain       `json:"toDomain,omitempty"`
	Domain          Domain       `json:"domain,omitempty"`
	Count           int          `json:"count"`
	ConstraintCount int          `json:"constraintCount"`
	AspirationCount int          `json:"aspirationCount"`
	Score           float64      `json:"score"`
	// Decay is the read-time recency factor of the edge; it does not affect ranking.
	Decay float64 `json:"decay,omitempty"`
}
