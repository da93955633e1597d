// Package snapshot encodes the insight model into an opaque blob and keeps
// blobs in one of several stores.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yungbote/pulse-backend/internal/domain"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
)

// Version is the payload schema written by Encode. Decode accepts 0 (blobs
// saved before versioning) through Version.
const Version = 1

type Snapshot struct {
	Version       int       `json:"version"`
	SavedAt       time.Time `json:"savedAt"`
	DialoguePhase string    `json:"dialoguePhase"`
	Narrative     string    `json:"narrative,omitempty"`

	// Sources maps datapoint ids to the utterance ids split from them.
	Sources             map[string][]string `json:"sources,omitempty"`
	Utterances          []domain.Utterance  `json:"utterances"`
	SelectedUtteranceID string              `json:"selectedUtteranceId,omitempty"`

	Themes                    []domain.Theme    `json:"themes"`
	UtteranceThemeAssignments map[string]string `json:"utteranceThemeAssignments"`
	ThemeProcessedIDs         []string          `json:"themeProcessedIds,omitempty"`
	LexicalThemes             []domain.Theme    `json:"lexicalThemes,omitempty"`
	LexicalAssignments        map[string]string `json:"lexicalAssignments,omitempty"`

	DependencyEdges       []domain.DependencyEdge `json:"dependencyEdges"`
	DomainTallies         []domain.DomainTally    `json:"domainTallies,omitempty"`
	ProcessedUtteranceIDs []string                `json:"processedUtteranceIds"`
	ProcessedCount        int                     `json:"processedCount"`

	RevealLatched bool `json:"revealLatched,omitempty"`
}

func Encode(s Snapshot) (json.RawMessage, error) {
	s.Version = Version
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now().UTC()
	}
	s.ProcessedCount = len(s.ProcessedUtteranceIDs)
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", pkgerrors.ErrSnapshotLoadInvalid, fmt.Sprintf(format, args...))
}

// Decode parses and validates a payload. Any failure wraps
// ErrSnapshotLoadInvalid and the caller must keep its current state.
func Decode(payload []byte) (Snapshot, error) {
	var s Snapshot
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return s, invalid("payload is not a JSON object")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(&s); err != nil {
		return Snapshot{}, invalid("%v", err)
	}
	if err := Validate(&s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Validate checks referential integrity and fills fields older payloads lack.
func Validate(s *Snapshot) error {
	if s.Version < 0 || s.Version > Version {
		return invalid("unsupported version %d", s.Version)
	}

	utts := make(map[string]bool, len(s.Utterances))
	for i, u := range s.Utterances {
		if u.ID == "" {
			return invalid("utterance %d has no id", i)
		}
		if utts[u.ID] {
			return invalid("duplicate utterance id %q", u.ID)
		}
		if u.EndTimeMs < u.StartTimeMs {
			return invalid("utterance %q ends before it starts", u.ID)
		}
		utts[u.ID] = true
	}
	if s.SelectedUtteranceID != "" && !utts[s.SelectedUtteranceID] {
		return invalid("selected utterance %q unknown", s.SelectedUtteranceID)
	}

	if err := validateThemes("theme", s.Themes, s.UtteranceThemeAssignments, utts); err != nil {
		return err
	}
	if err := validateThemes("lexical theme", s.LexicalThemes, s.LexicalAssignments, utts); err != nil {
		return err
	}

	edges := map[string]bool{}
	for _, e := range s.DependencyEdges {
		if e.FromDomain == "" || e.ToDomain == "" {
			return invalid("edge %q missing endpoints", e.ID)
		}
		want := domain.EdgeID(e.FromDomain, e.ToDomain)
		if e.ID != "" && e.ID != want {
			return invalid("edge id %q does not match %s", e.ID, want)
		}
		if edges[want] {
			return invalid("duplicate edge %q", want)
		}
		edges[want] = true
		if e.AspirationCount < 0 || e.ConstraintCount < 0 || e.NeutralCount() < 0 {
			return invalid("edge %q counts inconsistent", want)
		}
	}

	seen := map[string]bool{}
	for _, id := range s.ProcessedUtteranceIDs {
		if seen[id] {
			return invalid("duplicate processed id %q", id)
		}
		seen[id] = true
	}
	if s.ProcessedCount != 0 && s.ProcessedCount != len(s.ProcessedUtteranceIDs) {
		return invalid("processedCount %d does not match %d ids", s.ProcessedCount, len(s.ProcessedUtteranceIDs))
	}
	s.ProcessedCount = len(s.ProcessedUtteranceIDs)

	for parent, children := range s.Sources {
		for _, id := range children {
			if !utts[id] {
				return invalid("source %q lists unknown utterance %q", parent, id)
			}
		}
	}
	if s.UtteranceThemeAssignments == nil {
		s.UtteranceThemeAssignments = map[string]string{}
	}
	return nil
}

func validateThemes(kind string, themes []domain.Theme, assigned map[string]string, utts map[string]bool) error {
	ids := make(map[string]bool, len(themes))
	for _, th := range themes {
		if th.ID == "" {
			return invalid("%s without id", kind)
		}
		if ids[th.ID] {
			return invalid("duplicate %s %q", kind, th.ID)
		}
		if th.Strength < 1 {
			return invalid("%s %q has strength %d", kind, th.ID, th.Strength)
		}
		ids[th.ID] = true
	}
	for u, th := range assigned {
		if !utts[u] {
			return invalid("%s assignment for unknown utterance %q", kind, u)
		}
		if !ids[th] {
			return invalid("%s assignment to unknown theme %q", kind, th)
		}
	}
	return nil
}
