package dependency

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/interpret"
)

func classified(id, text string, at int64) domain.Utterance {
	u := domain.Utterance{ID: id, RawText: text, CreatedAtMs: at}
	u.Classify(interpret.Classify(text))
	return u
}

func TestComplianceScenario(t *testing.T) {
	e := New()
	u := classified("dp-1", "We need sign-off from compliance before shipping", 1000)

	out, ok := e.Process(u)
	if !ok {
		t.Fatalf("first process rejected")
	}
	want := domain.EdgeID(domain.DomainOperations, domain.DomainRegulation)
	if out.EdgeID != want || out.Valence != domain.ValenceConstraint || !out.Created {
		t.Fatalf("outcome=%+v want edge %s constraint", out, want)
	}
	if _, ok := e.Process(u); ok {
		t.Fatalf("same id processed twice")
	}
	edge, _ := e.Edge(want)
	if edge.Count != 1 || edge.ConstraintCount != 1 {
		t.Fatalf("after duplicate: %+v", edge)
	}

	e.Process(classified("dp-2", "We need sign-off from compliance before shipping", 5000))
	edge, _ = e.Edge(want)
	if edge.Count != 2 || edge.ConstraintCount != 2 {
		t.Fatalf("after second id: %+v", edge)
	}
	if edge.FirstSeenAtMs != 1000 || edge.LastSeenAtMs != 5000 {
		t.Fatalf("seen range: %d..%d", edge.FirstSeenAtMs, edge.LastSeenAtMs)
	}
}

func TestValenceOf(t *testing.T) {
	cases := []struct {
		name string
		u    domain.Utterance
		want domain.Valence
	}{
		{"constraint", domain.Utterance{Intent: domain.IntentConstraint}, domain.ValenceConstraint},
		{"risk tag", domain.Utterance{Intent: domain.IntentObservation, IntentTypes: []domain.IntentType{domain.IntentRisk}}, domain.ValenceConstraint},
		{"constraint beats future", domain.Utterance{Intent: domain.IntentConstraint, TemporalIntent: domain.TemporalFuture}, domain.ValenceConstraint},
		{"future", domain.Utterance{Intent: domain.IntentObservation, TemporalIntent: domain.TemporalFuture}, domain.ValenceAspiration},
		{"opportunity", domain.Utterance{Intent: domain.IntentOpportunity}, domain.ValenceAspiration},
		{"neutral", domain.Utterance{Intent: domain.IntentEnabler, TemporalIntent: domain.TemporalPresent}, domain.ValenceNeutral},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ValenceOf(c.u); got != c.want {
				t.Fatalf("got %s want %s", got, c.want)
			}
		})
	}
}

func TestNoEdgeWithoutTarget(t *testing.T) {
	e := New()
	e.Process(domain.Utterance{ID: "a", Domain: domain.DomainPeople, Intent: domain.IntentConstraint, RawText: "we are blocked by hiring freezes"})
	e.Process(domain.Utterance{ID: "b", Domain: domain.DomainGeneral, Domains: []domain.Domain{domain.DomainPeople}, Intent: domain.IntentConstraint})
	if len(e.Edges()) != 0 {
		t.Fatalf("edges=%v", e.Edges())
	}
	if e.ProcessedCount() != 2 {
		t.Fatalf("processed=%d want 2", e.ProcessedCount())
	}
	tallies := e.Tallies()
	if len(tallies) != 2 || tallies[0].Domain != domain.DomainPeople || tallies[0].Constraints != 1 {
		t.Fatalf("tallies=%+v", tallies)
	}
}

func TestReferencedSkipsSelfAndGeneral(t *testing.T) {
	e := New()
	u := domain.Utterance{
		Domain:  domain.DomainTechnology,
		Domains: []domain.Domain{domain.DomainTechnology, domain.DomainGeneral, domain.DomainCustomer, domain.DomainCustomer, domain.DomainPeople},
	}
	got := e.Referenced(u)
	if fmt.Sprint(got) != fmt.Sprint([]domain.Domain{domain.DomainCustomer, domain.DomainPeople}) {
		t.Fatalf("referenced=%v", got)
	}
}

func TestEdgeCountIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	intents := []domain.IntentType{
		domain.IntentAspiration, domain.IntentConstraint, domain.IntentEnabler,
		domain.IntentOpportunity, domain.IntentRisk, domain.IntentQuestion, domain.IntentObservation,
	}
	temporals := []domain.TemporalIntent{domain.TemporalPast, domain.TemporalPresent, domain.TemporalFuture}
	e := New()
	for i := 0; i < 500; i++ {
		from := domain.Domains[rng.Intn(len(domain.Domains))]
		to := domain.Domains[rng.Intn(len(domain.Domains))]
		e.Process(domain.Utterance{
			ID:             fmt.Sprintf("u%d", rng.Intn(300)),
			Domain:         from,
			Domains:        []domain.Domain{to},
			Intent:         intents[rng.Intn(len(intents))],
			TemporalIntent: temporals[rng.Intn(len(temporals))],
			CreatedAtMs:    int64(i),
		})
	}
	total := 0
	for _, edge := range e.Edges() {
		if edge.NeutralCount() < 0 {
			t.Fatalf("edge %s: count=%d a=%d c=%d", edge.ID, edge.Count, edge.AspirationCount, edge.ConstraintCount)
		}
		if edge.Count != edge.AspirationCount+edge.ConstraintCount+edge.NeutralCount() {
			t.Fatalf("identity broken for %s", edge.ID)
		}
		total += edge.Count
	}
	if total > e.ProcessedCount() {
		t.Fatalf("edge total %d exceeds processed %d", total, e.ProcessedCount())
	}
}

func TestRestoreRebuildsTalliesFromEdges(t *testing.T) {
	e := New()
	e.Restore([]domain.DependencyEdge{
		{FromDomain: domain.DomainOperations, ToDomain: domain.DomainRegulation, Count: 3, ConstraintCount: 2, AspirationCount: 1},
	}, nil, []string{"x"})
	if !e.Processed("x") {
		t.Fatalf("processed not restored")
	}
	if _, ok := e.Edge(domain.EdgeID(domain.DomainOperations, domain.DomainRegulation)); !ok {
		t.Fatalf("edge id not derived")
	}
	ts := e.Tallies()
	if len(ts) != 1 || ts[0].Constraints != 2 || ts[0].Total != 3 {
		t.Fatalf("tallies=%+v", ts)
	}
}

func TestReferencedFallsBackWithoutDependencyLanguage(t *testing.T) {
	e := New()
	u := domain.Utterance{
		ID:          "u1",
		RawText:     "Our customers keep struggling with the new technology platform",
		Domain:      domain.DomainCustomer,
		Intent:      domain.IntentObservation,
		CreatedAtMs: 2000,
	}
	got := e.Referenced(u)
	if fmt.Sprint(got) != fmt.Sprint([]domain.Domain{domain.DomainTechnology}) {
		t.Fatalf("referenced=%v", got)
	}
	out, ok := e.Process(u)
	want := domain.EdgeID(domain.DomainCustomer, domain.DomainTechnology)
	if !ok || out.EdgeID != want || !out.Created {
		t.Fatalf("outcome=%+v want edge %s", out, want)
	}
	if len(e.Edges()) != 1 {
		t.Fatalf("edges=%+v", e.Edges())
	}
}

func TestInterpreterDomainsOverrideMentions(t *testing.T) {
	e := New()
	u := domain.Utterance{
		RawText: "Our customers keep struggling with the new technology platform",
		Domain:  domain.DomainCustomer,
		Domains: []domain.Domain{domain.DomainCustomer, domain.DomainPeople},
	}
	if got := e.Referenced(u); fmt.Sprint(got) != fmt.Sprint([]domain.Domain{domain.DomainPeople}) {
		t.Fatalf("referenced=%v", got)
	}
}
