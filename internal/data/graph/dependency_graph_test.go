package graph

import (
	"context"
	"testing"

	"github.com/yungbote/pulse-backend/internal/domain"
)

func TestRecordsAreSessionScoped(t *testing.T) {
	edges := []domain.DependencyEdge{
		{FromDomain: domain.DomainOperations, ToDomain: domain.DomainRegulation, Count: 4, ConstraintCount: 3, AspirationCount: 0},
		{FromDomain: "", ToDomain: domain.DomainPeople, Count: 1},
	}
	tallies := []domain.DomainTally{{Domain: domain.DomainOperations, Total: 6, Constraints: 4}}

	nodes := domainNodes("s1", tallies, edges, "now")
	if len(nodes) != 3 {
		t.Fatalf("nodes=%v", nodes)
	}
	if nodes[0]["key"] != "s1/Operations" || nodes[0]["total"] != int64(6) {
		t.Fatalf("first node=%v", nodes[0])
	}
	if nodes[1]["key"] != "s1/Regulation" || nodes[1]["total"] != int64(0) {
		t.Fatalf("second node=%v", nodes[1])
	}

	rels := edgeRecords("s1", edges, "now")
	if len(rels) != 1 {
		t.Fatalf("rels=%v", rels)
	}
	r := rels[0]
	if r["id"] != "s1/Operations→Regulation" || r["from_key"] != "s1/Operations" || r["neutral_count"] != int64(1) {
		t.Fatalf("rel=%v", r)
	}
}

func TestUpsertWithoutClientIsNoop(t *testing.T) {
	if err := UpsertDependencyGraph(context.Background(), nil, nil, "s1", nil, nil); err != nil {
		t.Fatalf("err=%v", err)
	}
}
