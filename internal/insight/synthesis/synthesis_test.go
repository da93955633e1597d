package synthesis

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/yungbote/pulse-backend/internal/domain"
)

func TestWeightDecaysTowardFloor(t *testing.T) {
	tau := 12 * time.Minute
	if w := Weight(5, 0, tau); math.Abs(w-5) > 1e-9 {
		t.Fatalf("fresh weight=%v want 5", w)
	}
	oneTau := Weight(5, tau.Milliseconds(), tau)
	if want := 5 * (0.4 + 0.6/math.E); math.Abs(oneTau-want) > 1e-9 {
		t.Fatalf("weight at tau=%v want %v", oneTau, want)
	}
	if w := Weight(5, 1000*tau.Milliseconds(), tau); math.Abs(w-2) > 1e-6 {
		t.Fatalf("ancient weight=%v want 2", w)
	}
	if Weight(5, -100, tau) != 5 {
		t.Fatalf("future support should not boost weight")
	}
}

func TestBuildTopPerCategory(t *testing.T) {
	now := int64(60 * 60 * 1000)
	var themes []*domain.Theme
	for i := 1; i <= 5; i++ {
		themes = append(themes, &domain.Theme{
			ID: fmt.Sprintf("t%d", i), Domain: domain.DomainPeople, IntentType: domain.IntentAspiration,
			Label: fmt.Sprintf("label %d", i), Strength: i, LastSupportAtMs: now,
		})
	}
	themes = append(themes,
		&domain.Theme{ID: "r1", Domain: domain.DomainPeople, IntentType: domain.IntentRisk, Strength: 1, LastSupportAtMs: now},
		&domain.Theme{ID: "q1", Domain: domain.DomainCustomer, IntentType: domain.IntentQuestion, Strength: 9, LastSupportAtMs: now},
		// Five tau old but much stronger: weight ~4.04 edges out fresh strength 4.
		&domain.Theme{ID: "old", Domain: domain.DomainPeople, IntentType: domain.IntentAspiration, Strength: 10, LastSupportAtMs: 0},
	)

	syn := Build(themes, now, Config{})
	if len(syn) != 1 || syn[0].Domain != domain.DomainPeople {
		t.Fatalf("domains=%+v", syn)
	}
	asp := syn[0].Categories[domain.CategoryAspiration]
	var ids []string
	for _, it := range asp {
		ids = append(ids, it.ThemeID)
	}
	if fmt.Sprint(ids) != "[t5 old t4]" {
		t.Fatalf("aspirations=%v", ids)
	}
	if got := syn[0].Categories[domain.CategoryConstraint]; len(got) != 1 || got[0].ThemeID != "r1" {
		t.Fatalf("risk should bucket as constraint: %+v", got)
	}
	if ItemCount(syn) != 4 {
		t.Fatalf("items=%d want 4", ItemCount(syn))
	}
}

func TestPressurePointsQualificationAndScore(t *testing.T) {
	edges := []domain.DependencyEdge{
		{ID: "a", Count: 3, ConstraintCount: 2, AspirationCount: 1},
		{ID: "b", Count: 6, ConstraintCount: 5, AspirationCount: 0},
		{ID: "c", Count: 2, ConstraintCount: 2},
		{ID: "d", Count: 4, ConstraintCount: 2, AspirationCount: 2},
		{ID: "e", Count: 9, ConstraintCount: 1},
	}
	pp := PressurePoints(edges, nil, 0, Config{})
	if len(pp) != 2 {
		t.Fatalf("points=%+v", pp)
	}
	if pp[0].EdgeID != "b" || pp[0].Score != 19 {
		t.Fatalf("first=%+v want b score 19", pp[0])
	}
	if pp[1].EdgeID != "a" || pp[1].Score != 4 {
		t.Fatalf("second=%+v want a score 4", pp[1])
	}
}

func TestPressurePointsTopFive(t *testing.T) {
	var edges []domain.DependencyEdge
	for i := 0; i < 8; i++ {
		edges = append(edges, domain.DependencyEdge{ID: fmt.Sprintf("e%d", i), Count: 3 + i, ConstraintCount: 3 + i})
	}
	pp := PressurePoints(edges, nil, 0, Config{})
	if len(pp) != 5 || pp[0].EdgeID != "e7" {
		t.Fatalf("points=%+v", pp)
	}
}

func TestPressurePointsFallBackToTallies(t *testing.T) {
	tallies := []domain.DomainTally{
		{Domain: domain.DomainPeople, Total: 4, Constraints: 3, Aspirations: 1},
		{Domain: domain.DomainCustomer, Total: 5, Constraints: 1, Aspirations: 3},
		{Domain: domain.DomainGeneral, Total: 9, Constraints: 9},
	}
	pp := PressurePoints([]domain.DependencyEdge{{ID: "x", Count: 1, ConstraintCount: 1}}, tallies, 0, Config{})
	if len(pp) != 1 || pp[0].Kind != domain.PressureDomain || pp[0].Domain != domain.DomainPeople {
		t.Fatalf("points=%+v", pp)
	}
	if pp[0].Score != 8 {
		t.Fatalf("score=%v want 8", pp[0].Score)
	}
}
