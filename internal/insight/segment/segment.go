// Package segment splits a transcript datapoint into utterances.
package segment

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yungbote/pulse-backend/internal/domain"
)

// MinWords is the shortest sentence kept as its own utterance; shorter
// fragments are merged into the previous one.
const MinWords = 3

// ChildID is the virtual id of the ordinal-th (1-based) piece of a split.
func ChildID(parentID string, ordinal int) string {
	return parentID + "#" + strconv.Itoa(ordinal)
}

// ParentID strips a split ordinal; ids without one are their own parent.
func ParentID(id string) string {
	if i := strings.LastIndexByte(id, '#'); i > 0 {
		if _, err := strconv.Atoi(id[i+1:]); err == nil {
			return id[:i]
		}
	}
	return id
}

// Split returns one utterance per sentence. A datapoint that does not split
// keeps its own id; split pieces get ChildID ids and timestamps interpolated
// by character offset across the parent range.
func Split(d domain.Datapoint) []domain.Utterance {
	text := strings.TrimSpace(d.Text)
	if text == "" {
		return nil
	}
	pieces := sentences(text)
	ref := d.SourceChunkRef
	if ref == "" {
		ref = d.ID
	}
	if len(pieces) <= 1 {
		return []domain.Utterance{{
			ID:             d.ID,
			CreatedAtMs:    d.CreatedAtMs,
			StartTimeMs:    d.StartTimeMs,
			EndTimeMs:      d.EndTimeMs,
			RawText:        text,
			SourceChunkRef: ref,
			SpeakerID:      d.SpeakerID,
		}}
	}

	total := 0
	for _, p := range pieces {
		total += len(p)
	}
	span := d.EndTimeMs - d.StartTimeMs
	out := make([]domain.Utterance, 0, len(pieces))
	offset := 0
	for i, p := range pieces {
		start := d.StartTimeMs + span*int64(offset)/int64(total)
		offset += len(p)
		end := d.StartTimeMs + span*int64(offset)/int64(total)
		if i == len(pieces)-1 {
			end = d.EndTimeMs
		}
		out = append(out, domain.Utterance{
			ID:             ChildID(d.ID, i+1),
			CreatedAtMs:    d.CreatedAtMs + (start - d.StartTimeMs),
			StartTimeMs:    start,
			EndTimeMs:      end,
			RawText:        p,
			SourceChunkRef: ref,
			SpeakerID:      d.SpeakerID,
		})
	}
	return out
}

func sentences(text string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		if !isTerminal(r) {
			if r != '\n' {
				continue
			}
		}
		// Keep runs like "?!" or "..." together and skip decimals ("3.5").
		if i+1 < len(runes) && (isTerminal(runes[i+1]) || (r == '.' && unicode.IsDigit(runes[i+1]))) {
			continue
		}
		out = appendPiece(out, cur.String())
		cur.Reset()
	}
	out = appendPiece(out, cur.String())
	return out
}

func isTerminal(r rune) bool { return r == '.' || r == '!' || r == '?' || r == ';' }

func appendPiece(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	if len(out) > 0 && len(strings.Fields(s)) < MinWords {
		out[len(out)-1] = out[len(out)-1] + " " + s
		return out
	}
	if len(out) > 0 && len(strings.Fields(out[len(out)-1])) < MinWords {
		out[len(out)-1] = out[len(out)-1] + " " + s
		return out
	}
	return append(out, s)
}
