package domain

import "strings"

type Domain string

const (
	DomainPeople     Domain = "People"
	DomainOperations Domain = "Operations"
	DomainCustomer   Domain = "Customer"
	DomainTechnology Domain = "Technology"
	DomainRegulation Domain = "Regulation"
	DomainGeneral    Domain = "General"
)

// Domains lists the discussion categories in display order. General is the
// catch-all and never participates in dependency edges.
var Domains = []Domain{DomainPeople, DomainOperations, DomainCustomer, DomainTechnology, DomainRegulation}

func ParseDomain(s string) (Domain, bool) {
	s = strings.TrimSpace(s)
	for _, d := range append(Domains, DomainGeneral) {
		if strings.EqualFold(string(d), s) {
			return d, true
		}
	}
	return "", false
}

type IntentType string

const (
	IntentAspiration  IntentType = "aspiration"
	IntentConstraint  IntentType = "constraint"
	IntentEnabler     IntentType = "enabler"
	IntentOpportunity IntentType = "opportunity"
	IntentRisk        IntentType = "risk"
	IntentQuestion    IntentType = "question"
	IntentObservation IntentType = "observation"
)

func ParseIntent(s string) IntentType {
	switch IntentType(strings.ToLower(strings.TrimSpace(s))) {
	case IntentAspiration, "vision", "goal":
		return IntentAspiration
	case IntentConstraint, "blocker", "concern", "barrier":
		return IntentConstraint
	case IntentEnabler, "capability", "resource":
		return IntentEnabler
	case IntentOpportunity, "idea":
		return IntentOpportunity
	case IntentRisk:
		return IntentRisk
	case IntentQuestion:
		return IntentQuestion
	default:
		return IntentObservation
	}
}

type TemporalIntent string

const (
	TemporalPast    TemporalIntent = "past"
	TemporalPresent TemporalIntent = "present"
	TemporalFuture  TemporalIntent = "future"
)

// Interpretation is the output of the external classification function.
type Interpretation struct {
	Domain           Domain         `json:"domain"`
	Domains          []Domain       `json:"domains"`
	IntentTypes      []IntentType   `json:"intentTypes"`
	TemporalIntent   TemporalIntent `json:"temporalIntent"`
	ConfidenceWeight float64        `json:"confidenceWeight"`
}

type Utterance struct {
	ID             string `json:"id"`
	CreatedAtMs    int64  `json:"createdAtMs"`
	StartTimeMs    int64  `json:"startTimeMs"`
	EndTimeMs      int64  `json:"endTimeMs"`
	RawText        string `json:"rawText"`
	SourceChunkRef string `json:"sourceChunkRef,omitempty"`
	SpeakerID      string `json:"speakerId,omitempty"`

	Domain           Domain         `json:"domain"`
	Domains          []Domain       `json:"domains,omitempty"`
	Intent           IntentType     `json:"intent"`
	IntentTypes      []IntentType   `json:"intentTypes,omitempty"`
	TemporalIntent   TemporalIntent `json:"temporalIntent,omitempty"`
	ConfidenceWeight float64        `json:"confidenceWeight"`

	ThemeID string `json:"themeId,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Classify copies an interpretation onto the utterance. The primary intent is
// the first tag; utterances with no tags are observations.
func (u *Utterance) Classify(in Interpretation) {
	if in.Domain != "" {
		u.Domain = in.Domain
	}
	if u.Domain == "" {
		u.Domain = DomainGeneral
	}
	u.Domains = append([]Domain(nil), in.Domains...)
	u.IntentTypes = append([]IntentType(nil), in.IntentTypes...)
	u.Intent = IntentObservation
	if len(in.IntentTypes) > 0 {
		u.Intent = in.IntentTypes[0]
	}
	u.TemporalIntent = in.TemporalIntent
	u.ConfidenceWeight = in.ConfidenceWeight
}

func (u *Utterance) HasIntent(t IntentType) bool {
	if u.Intent == t {
		return true
	}
	for _, it := range u.IntentTypes {
		if it == t {
			return true
		}
	}
	return false
}

// Datapoint is a persisted transcript record announced by the feed. One
// datapoint yields one or more utterances after segmentation.
type Datapoint struct {
	ID             string `json:"id"`
	CreatedAtMs    int64  `json:"createdAtMs"`
	Text           string `json:"rawText"`
	StartTimeMs    int64  `json:"startTimeMs"`
	EndTimeMs      int64  `json:"endTimeMs"`
	SpeakerID      string `json:"speakerId,omitempty"`
	SourceChunkRef string `json:"sourceChunkRef,omitempty"`
	// Interpretation is set when the server classified the record before
	// announcing it.
	Interpretation *Interpretation `json:"interpretation,omitempty"`
}

// Annotation is the facilitator-side intent override attached after
// classification.
type Annotation struct {
	Intent IntentType `json:"intent,omitempty"`
	Note   string     `json:"note,omitempty"`
}
