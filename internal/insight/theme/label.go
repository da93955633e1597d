package theme

import (
	"strings"
	"unicode"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/interpret"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"but": true, "by": true, "can": true, "do": true, "for": true, "from": true, "get": true,
	"had": true, "has": true, "have": true, "i": true, "in": true, "is": true, "it": true,
	"its": true, "just": true, "like": true, "more": true, "need": true, "not": true, "of": true,
	"on": true, "or": true, "our": true, "really": true, "so": true, "that": true, "the": true,
	"their": true, "them": true, "there": true, "they": true, "this": true, "to": true,
	"very": true, "was": true, "we": true, "were": true, "what": true, "when": true,
	"which": true, "will": true, "with": true, "would": true, "you": true, "your": true,
	"about": true, "also": true, "been": true, "being": true, "could": true, "should": true,
	"some": true, "than": true, "then": true, "these": true, "those": true, "want": true,
	"into": true, "over": true, "kind": true, "thing": true, "things": true, "going": true,
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\'')
	})
}

// Label is the first n words of text with trailing punctuation removed.
func Label(text string, n int) string {
	if n <= 0 {
		n = 6
	}
	fs := strings.Fields(strings.TrimSpace(text))
	if len(fs) > n {
		fs = fs[:n]
	}
	out := strings.Join(fs, " ")
	return strings.TrimRightFunc(out, func(r rune) bool { return unicode.IsPunct(r) })
}

// Signature keys a lexical theme on one cue: the dominant keyword of the
// utterance's own domain, then of its intent, then its longest content word.
// It returns nil for texts with none of these.
func Signature(d domain.Domain, intent domain.IntentType, text string) []string {
	if c := interpret.DominantCue(text, interpret.DomainCues(d)); c != "" {
		return []string{canonicalCue(c)}
	}
	if c := interpret.DominantCue(text, interpret.IntentCues(intent)); c != "" {
		return []string{canonicalCue(c)}
	}
	var best string
	for _, w := range words(text) {
		w = strings.Trim(w, "-'")
		if len(w) < 4 || stopwords[w] {
			continue
		}
		st := stem(w)
		if len(st) > len(best) || (len(st) == len(best) && st < best) {
			best = st
		}
	}
	if best == "" {
		return nil
	}
	return []string{best}
}

// canonicalCue folds spelling variants of a cue ("sign off", "sign-off",
// "regulations") onto one key.
func canonicalCue(c string) string {
	c = strings.ReplaceAll(c, " ", "-")
	return stem(c)
}

// stem strips common plural and verb endings so "approvals" and "approval"
// share a signature.
func stem(w string) string {
	for _, suf := range []string{"ing", "ies", "es", "s", "ed"} {
		if strings.HasSuffix(w, suf) && len(w)-len(suf) >= 4 {
			if suf == "ies" {
				return w[:len(w)-3] + "y"
			}
			return w[:len(w)-len(suf)]
		}
	}
	return w
}
