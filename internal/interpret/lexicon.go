package interpret

import (
	"strings"
	"unicode"

	"github.com/yungbote/pulse-backend/internal/domain"
)

var domainCues = map[domain.Domain][]string{
	domain.DomainPeople: {
		"people", "team", "teams", "staff", "hire", "hiring", "talent", "training", "skills",
		"culture", "morale", "leadership", "manager", "managers", "employee", "employees",
		"workforce", "headcount", "burnout", "onboard staff",
	},
	domain.DomainOperations: {
		"operations", "process", "processes", "workflow", "shipping", "ship", "delivery",
		"supply", "logistics", "throughput", "efficiency", "release", "releases",
		"scheduling", "inventory", "procurement", "handoff", "handoffs", "backlog",
	},
	domain.DomainCustomer: {
		"customer", "customers", "client", "clients", "user", "users", "experience",
		"satisfaction", "churn", "onboarding", "feedback", "market", "sales", "retention",
		"support tickets",
	},
	domain.DomainTechnology: {
		"technology", "system", "systems", "platform", "software", "data", "api", "apis",
		"cloud", "infrastructure", "tool", "tools", "tooling", "automation", "ai",
		"integration", "legacy", "database", "security",
	},
	domain.DomainRegulation: {
		"compliance", "regulation", "regulations", "regulatory", "regulator", "legal",
		"audit", "audits", "policy", "policies", "gdpr", "privacy", "governance",
		"license", "licensing", "certification", "sign-off", "sign off",
	},
}

var intentCues = map[domain.IntentType][]string{
	domain.IntentAspiration: {
		"we want", "i want", "we should", "vision", "goal", "goals", "aim", "hope",
		"would love", "ideally", "aspire", "imagine", "dream", "north star",
	},
	domain.IntentConstraint: {
		"can't", "cannot", "blocked", "blocker", "not allowed", "limited", "lack",
		"too slow", "bottleneck", "problem", "issue", "struggle", "barrier", "need sign-off",
		"sign-off", "approval", "waiting on", "stuck", "slows us", "no budget",
	},
	domain.IntentEnabler: {
		"we have", "already", "strength", "works well", "enable", "enables", "capability",
		"we built", "in place", "good at",
	},
	domain.IntentOpportunity: {
		"opportunity", "opportunities", "could", "potential", "what if", "chance",
		"untapped", "room to",
	},
	domain.IntentRisk: {
		"risk", "risks", "danger", "threat", "exposure", "might fail", "worried",
		"concern", "fear", "breach",
	},
}

var futureCues = []string{"will", "going to", "next year", "next quarter", "in the future", "plan to", "want to", "would like", "by 20"}

var pastCues = []string{"used to", "last year", "last quarter", "previously", "we did", "we tried", "was", "were"}

// DependencyCues mark explicit cross-domain dependency language.
var DependencyCues = []string{
	"depends on", "dependent on", "dependency", "blocked by", "requires", "require",
	"approval", "approve", "sign-off", "sign off", "compliance", "governance",
	"waiting on", "waiting for", "relies on", "rely on", "before we can", "handoff",
}

// normalize lowercases and pads text with spaces so cue matching is on word
// boundaries.
func normalize(text string) string {
	var b strings.Builder
	b.WriteByte(' ')
	prevSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-':
			b.WriteRune(r)
			prevSpace = false
		case r == '’':
			b.WriteByte('\'')
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	if !prevSpace {
		b.WriteByte(' ')
	}
	return b.String()
}

// firstIndex returns the earliest word-boundary position of any cue, or -1.
func firstIndex(norm string, cues []string) int {
	best := -1
	for _, c := range cues {
		i := strings.Index(norm, " "+c+" ")
		if i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}

func countCues(norm string, cues []string) int {
	n := 0
	for _, c := range cues {
		n += strings.Count(norm, " "+c+" ")
	}
	return n
}

// ContainsAny reports whether text contains any cue on word boundaries.
func ContainsAny(text string, cues []string) bool {
	return firstIndex(normalize(text), cues) >= 0
}

type domainHit struct {
	d     domain.Domain
	score int
	first int
}

// DetectDomains is the keyword multi-domain detector. Domains are ordered by
// cue count, ties broken by first mention.
func DetectDomains(text string) []domain.Domain {
	norm := normalize(text)
	var hits []domainHit
	for _, d := range domain.Domains {
		cues := domainCues[d]
		if n := countCues(norm, cues); n > 0 {
			hits = append(hits, domainHit{d: d, score: n, first: firstIndex(norm, cues)})
		}
	}
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && less(hits[j], hits[j-1]); j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]domain.Domain, len(hits))
	for i, h := range hits {
		out[i] = h.d
	}
	return out
}

func less(a, b domainHit) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.first < b.first
}

// DetectByMention orders detected domains by first mention only.
func DetectByMention(text string) []domain.Domain {
	norm := normalize(text)
	var hits []domainHit
	for _, d := range domain.Domains {
		if i := firstIndex(norm, domainCues[d]); i >= 0 {
			hits = append(hits, domainHit{d: d, first: i})
		}
	}
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].first < hits[j-1].first; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]domain.Domain, len(hits))
	for i, h := range hits {
		out[i] = h.d
	}
	return out
}

// DomainCues lists the mention keywords for d.
func DomainCues(d domain.Domain) []string { return domainCues[d] }

// IntentCues lists the keywords that tag an utterance with intent t.
func IntentCues(t domain.IntentType) []string { return intentCues[t] }

// DominantCue returns the cue mentioned most often in text, or "" when none
// appears. Ties go to the cue listed first, so the broad head terms of each
// lexicon list win over their variants.
func DominantCue(text string, cues []string) string {
	norm := normalize(text)
	best, bestN := "", 0
	for _, c := range cues {
		if n := strings.Count(norm, " "+c+" "); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
