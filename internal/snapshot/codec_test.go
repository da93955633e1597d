package snapshot

import (
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/pulse-backend/internal/domain"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
)

func sample() Snapshot {
	return Snapshot{
		DialoguePhase: "discovery",
		Sources:       map[string][]string{"dp-1": {"dp-1#0", "dp-1#1"}},
		Utterances: []domain.Utterance{
			{ID: "dp-1#0", RawText: "a", Domain: domain.DomainPeople, Intent: domain.IntentAspiration},
			{ID: "dp-1#1", RawText: "b", Domain: domain.DomainOperations, Intent: domain.IntentConstraint},
		},
		SelectedUtteranceID:       "dp-1#1",
		Themes:                    []domain.Theme{{ID: "th-1", Strength: 1, Domain: domain.DomainPeople, IntentType: domain.IntentAspiration}},
		UtteranceThemeAssignments: map[string]string{"dp-1#0": "th-1"},
		DependencyEdges:           []domain.DependencyEdge{{ID: domain.EdgeID(domain.DomainOperations, domain.DomainRegulation), FromDomain: domain.DomainOperations, ToDomain: domain.DomainRegulation, Count: 1, ConstraintCount: 1}},
		ProcessedUtteranceIDs:     []string{"dp-1#0", "dp-1#1"},
	}
}

func TestEncodeDecodeKeepsIdentity(t *testing.T) {
	raw, err := Encode(sample())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Version != Version || got.ProcessedCount != 2 || got.SavedAt.IsZero() {
		t.Fatalf("header fields: %+v", got)
	}
	if got.UtteranceThemeAssignments["dp-1#0"] != "th-1" || len(got.Sources["dp-1"]) != 2 {
		t.Fatalf("assignments lost: %+v", got)
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	cases := map[string]func(*Snapshot){
		"duplicate utterance":   func(s *Snapshot) { s.Utterances = append(s.Utterances, s.Utterances[0]) },
		"unknown selection":     func(s *Snapshot) { s.SelectedUtteranceID = "nope" },
		"assignment to ghost":   func(s *Snapshot) { s.UtteranceThemeAssignments["dp-1#1"] = "th-9" },
		"assignment from ghost": func(s *Snapshot) { s.UtteranceThemeAssignments["zz"] = "th-1" },
		"zero strength":         func(s *Snapshot) { s.Themes[0].Strength = 0 },
		"edge counts":           func(s *Snapshot) { s.DependencyEdges[0].ConstraintCount = 5 },
		"edge id mismatch":      func(s *Snapshot) { s.DependencyEdges[0].ID = "x" },
		"future version":        func(s *Snapshot) { s.Version = Version + 1 },
		"source ghost":          func(s *Snapshot) { s.Sources["dp-2"] = []string{"dp-2"} },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			s := sample()
			mut(&s)
			if err := Validate(&s); !errors.Is(err, pkgerrors.ErrSnapshotLoadInvalid) {
				t.Fatalf("err=%v want ErrSnapshotLoadInvalid", err)
			}
		})
	}
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{"", "[]", "null", `{"utterances": "x"}`, strings.Repeat("{", 3)} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, pkgerrors.ErrSnapshotLoadInvalid) {
			t.Fatalf("Decode(%q) err=%v", raw, err)
		}
	}
}

func TestDecodeAcceptsUnversionedPayload(t *testing.T) {
	raw := `{"dialoguePhase":"x","utterances":[{"id":"u1","rawText":"hi"}],"themes":[],"utteranceThemeAssignments":null,"dependencyEdges":[],"processedUtteranceIds":["u1"],"processedCount":1}`
	s, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.UtteranceThemeAssignments == nil || s.ProcessedCount != 1 {
		t.Fatalf("defaults not filled: %+v", s)
	}
}
