package domain

type Valence string

const (
	ValenceAspiration Valence = "aspiration"
	ValenceConstraint Valence = "constraint"
	ValenceNeutral    Valence = "neutral"
)

// DependencyEdge accumulates monotonically; neutral occurrences are the
// remainder count - aspirationCount - constraintCount.
type DependencyEdge struct {
	ID              string `json:"id"`
	FromDomain      Domain `json:"fromDomain"`
	ToDomain        Domain `json:"toDomain"`
	Count           int    `json:"count"`
	AspirationCount int    `json:"aspirationCount"`
	ConstraintCount int    `json:"constraintCount"`
	FirstSeenAtMs   int64  `json:"firstSeenAtMs"`
	LastSeenAtMs    int64  `json:"lastSeenAtMs"`
}

func EdgeID(from, to Domain) string { return string(from) + "→" + string(to) }

func (e *DependencyEdge) NeutralCount() int {
	return e.Count - e.AspirationCount - e.ConstraintCount
}

func (e *DependencyEdge) Record(v Valence, atMs int64) {
	e.Count++
	switch v {
	case ValenceAspiration:
		e.AspirationCount++
	case ValenceConstraint:
		e.ConstraintCount++
	}
	if e.FirstSeenAtMs == 0 || atMs < e.FirstSeenAtMs {
		e.FirstSeenAtMs = atMs
	}
	if atMs > e.LastSeenAtMs {
		e.LastSeenAtMs = atMs
	}
}

// DomainTally is the running per-domain valence count used when no edge
// qualifies as a pressure point yet.
type DomainTally struct {
	Domain      Domain `json:"domain"`
	Total       int    `json:"total"`
	Aspirations int    `json:"aspirations"`
	Constraints int    `json:"constraints"`
}
