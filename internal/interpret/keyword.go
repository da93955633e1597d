package interpret

import (
	"context"
	"math"
	"strings"

	"github.com/yungbote/pulse-backend/internal/domain"
)

// Keyword is the deterministic lexicon interpreter. It is the default and
// the fallback for LLM failures.
type Keyword struct{}

func NewKeyword() Keyword { return Keyword{} }

var intentOrder = []domain.IntentType{
	domain.IntentConstraint,
	domain.IntentRisk,
	domain.IntentAspiration,
	domain.IntentOpportunity,
	domain.IntentEnabler,
}

func (Keyword) Interpret(_ context.Context, text string) (domain.Interpretation, error) {
	return Classify(text), nil
}

// Classify is the pure keyword classification.
func Classify(text string) domain.Interpretation {
	norm := normalize(text)
	in := domain.Interpretation{Domain: domain.DomainGeneral}

	detected := preferSubject(norm, DetectDomains(text))
	if len(detected) > 0 {
		in.Domain = detected[0]
		in.Domains = append(in.Domains, detected[1:]...)
	}

	type tagHit struct {
		t     domain.IntentType
		first int
	}
	var tags []tagHit
	cues := 0
	for _, t := range intentOrder {
		if i := firstIndex(norm, intentCues[t]); i >= 0 {
			tags = append(tags, tagHit{t: t, first: i})
			cues += countCues(norm, intentCues[t])
		}
	}
	// Earliest mention leads; intentOrder breaks ties.
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tags[j].first < tags[j-1].first; j-- {
			tags[j], tags[j-1] = tags[j-1], tags[j]
		}
	}
	for _, h := range tags {
		in.IntentTypes = append(in.IntentTypes, h.t)
	}
	if isQuestion(text, norm) {
		in.IntentTypes = append(in.IntentTypes, domain.IntentQuestion)
	}

	switch {
	case firstIndex(norm, futureCues) >= 0:
		in.TemporalIntent = domain.TemporalFuture
	case firstIndex(norm, pastCues) >= 0:
		in.TemporalIntent = domain.TemporalPast
	default:
		in.TemporalIntent = domain.TemporalPresent
	}

	in.ConfidenceWeight = confidence(len(detected), cues, len(strings.Fields(norm)))
	return in
}

// preferSubject moves domains matched only through dependency language
// ("sign-off from compliance") behind the rest: they name the party depended
// on, not the subject of the utterance.
func preferSubject(norm string, ds []domain.Domain) []domain.Domain {
	if len(ds) < 2 {
		return ds
	}
	out := make([]domain.Domain, 0, len(ds))
	var demoted []domain.Domain
	for _, d := range ds {
		if onlyDependencyCues(norm, domainCues[d]) {
			demoted = append(demoted, d)
			continue
		}
		out = append(out, d)
	}
	return append(out, demoted...)
}

func onlyDependencyCues(norm string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(norm, " "+c+" ") && !isDependencyCue(c) {
			return false
		}
	}
	return true
}

func isDependencyCue(c string) bool {
	for _, d := range DependencyCues {
		if d == c {
			return true
		}
	}
	return false
}

func isQuestion(raw, norm string) bool {
	if strings.HasSuffix(strings.TrimSpace(raw), "?") {
		return true
	}
	for _, w := range []string{"how", "what", "why", "when", "where", "who", "which", "should we", "can we", "do we"} {
		if strings.HasPrefix(norm, " "+w+" ") {
			return true
		}
	}
	return false
}

// confidence grows with evidence and shrinks for fragments under four words.
func confidence(domains, intentCues, words int) float64 {
	w := 0.3
	if domains > 0 {
		w += 0.25
	}
	w += 0.15 * float64(min(intentCues, 3))
	if words < 4 {
		w *= 0.6
	}
	return math.Round(math.Min(w, 0.95)*100) / 100
}
