package insight

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/insight/reveal"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
	"github.com/yungbote/pulse-backend/internal/snapshot"
)

// fakeEmbedder maps a keyword in the text to a fixed axis so related
// statements land on the same vector.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail[text] {
		return nil, errors.New("embedding provider down")
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "compliance"):
		return []float64{1, 0, 0}, nil
	case strings.Contains(lower, "customer"):
		return []float64{0, 1, 0}, nil
	default:
		return []float64{0, 0, 1}, nil
	}
}

func newModel(emb Embedder) *Model {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return New(Config{RevealLatch: true}, Deps{Embedder: emb, Now: func() time.Time { return now }})
}

func dp(id, text string) domain.Datapoint {
	return domain.Datapoint{ID: id, Text: text, CreatedAtMs: 1000, StartTimeMs: 0, EndTimeMs: 10000}
}

func TestIngestIsIdempotent(t *testing.T) {
	m := newModel(nil)
	ctx := context.Background()
	if !m.IngestDatapoint(ctx, dp("dp-1", "We need sign-off from compliance before shipping")) {
		t.Fatalf("first ingest rejected")
	}
	if m.IngestDatapoint(ctx, dp("dp-1", "We need sign-off from compliance before shipping")) {
		t.Fatalf("duplicate ingest accepted")
	}
	v := m.View()
	if v.UtteranceCount != 1 || v.ProcessedCount != 1 {
		t.Fatalf("view=%+v", v)
	}
	if len(v.Edges) != 1 || v.Edges[0].Count != 1 || v.Edges[0].ConstraintCount != 1 {
		t.Fatalf("edges=%+v", v.Edges)
	}
	if v.ThemeKind != domain.ThemeLexical || len(v.Themes) != 1 {
		t.Fatalf("lexical view missing: %+v", v)
	}
}

func TestSplitDatapointGetsChildren(t *testing.T) {
	m := newModel(nil)
	m.IngestDatapoint(context.Background(), dp("dp-2", "Our customers love the new onboarding flow. We still lack the tooling to scale support."))
	us := m.Utterances()
	if len(us) != 2 || us[0].ID != "dp-2#1" || us[1].ID != "dp-2#2" {
		t.Fatalf("utterances=%+v", us)
	}
	// Classification for the parent relabels every child.
	ok := m.ApplyClassification("dp-2", domain.Interpretation{Domain: domain.DomainCustomer, IntentTypes: []domain.IntentType{domain.IntentEnabler}, ConfidenceWeight: 0.9})
	if !ok {
		t.Fatalf("parent classification rejected")
	}
	for _, u := range m.Utterances() {
		if u.Domain != domain.DomainCustomer || u.Intent != domain.IntentEnabler {
			t.Fatalf("child not relabeled: %+v", u)
		}
	}
	if m.View().ProcessedCount != 2 {
		t.Fatalf("relabel must not reprocess dependencies")
	}
}

func TestUpdatesForUnknownIDsAreNoOps(t *testing.T) {
	m := newModel(nil)
	before := m.View().Version
	if m.ApplyClassification("ghost", domain.Interpretation{Domain: domain.DomainPeople}) {
		t.Fatalf("classification for unknown id applied")
	}
	if m.ApplyAnnotation("ghost", domain.Annotation{Intent: domain.IntentRisk}) {
		t.Fatalf("annotation for unknown id applied")
	}
	if m.View().Version != before {
		t.Fatalf("version moved on no-op")
	}
}

func TestAnnotationSurvivesReclassification(t *testing.T) {
	m := newModel(nil)
	m.IngestDatapoint(context.Background(), dp("dp-3", "Legacy systems slow every release"))
	m.ApplyAnnotation("dp-3", domain.Annotation{Intent: domain.IntentRisk, Note: "raised twice"})
	m.ApplyClassification("dp-3", domain.Interpretation{Domain: domain.DomainTechnology, IntentTypes: []domain.IntentType{domain.IntentConstraint}})
	u, _ := m.Utterance("dp-3")
	if u.Intent != domain.IntentRisk || u.Note != "raised twice" || u.Domain != domain.DomainTechnology {
		t.Fatalf("utterance=%+v", u)
	}
}

func TestEnrichmentFormsSemanticThemes(t *testing.T) {
	emb := &fakeEmbedder{fail: map[string]bool{"Customer churn worries me": true}}
	m := newModel(emb)
	ctx := context.Background()
	m.IngestDatapoint(ctx, dp("a", "We need sign-off from compliance before shipping"))
	m.IngestDatapoint(ctx, dp("b", "Every release waits on compliance approval"))
	m.IngestDatapoint(ctx, dp("c", "Customer churn worries me"))

	if got := m.EnrichPending(ctx); got != 2 {
		t.Fatalf("assigned=%d want 2", got)
	}
	if got := m.EnrichPending(ctx); got != 0 || emb.calls != 3 {
		t.Fatalf("second pass assigned=%d calls=%d", got, emb.calls)
	}
	v := m.View()
	if v.ThemeKind != domain.ThemeSemantic || v.ThemeProcessedCount != 3 {
		t.Fatalf("view=%+v", v)
	}
	a, _ := m.Utterance("a")
	b, _ := m.Utterance("b")
	c, _ := m.Utterance("c")
	if a.ThemeID == "" || a.ThemeID != b.ThemeID {
		t.Fatalf("compliance statements split: %q %q", a.ThemeID, b.ThemeID)
	}
	if c.ThemeID != "" {
		t.Fatalf("failed embedding still themed: %q", c.ThemeID)
	}
}

func TestRunDrainsBacklog(t *testing.T) {
	m := newModel(&fakeEmbedder{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	themed := make(chan struct{}, 4)
	m.OnChange(func(c Change) {
		if c.Reason == "theme.assigned" {
			themed <- struct{}{}
		}
	})
	go func() {
		_ = m.Run(ctx)
		close(done)
	}()
	m.IngestDatapoint(ctx, dp("a", "Customer onboarding is our opportunity"))
	select {
	case <-themed:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker never themed the utterance")
	}
	cancel()
	<-done
}

func TestRevealOpensAndLatches(t *testing.T) {
	m := newModel(nil)
	var opened int
	m.OnChange(func(c Change) {
		if c.RevealOpened {
			opened++
		}
	})
	ctx := context.Background()
	texts := []string{
		"We want a culture of ownership across teams in the future",
		"We should build a customer feedback loop next year",
		"Compliance approval is a bottleneck for every release",
		"We already have a strong data platform in place",
		"There is an opportunity to automate procurement workflow",
	}
	for i, txt := range texts {
		m.IngestDatapoint(ctx, domain.Datapoint{
			ID: string(rune('a' + i)), Text: txt, CreatedAtMs: int64(i+1) * 1000,
		})
	}
	for _, u := range m.Utterances() {
		m.ApplyClassification(u.ID, domain.Interpretation{
			Domain:           u.Domain,
			Domains:          u.Domains,
			IntentTypes:      u.IntentTypes,
			TemporalIntent:   u.TemporalIntent,
			ConfidenceWeight: 0.95,
		})
	}
	st := m.Reveal()
	if st.Ready {
		t.Fatalf("ready without narrative: %+v", st.Checks)
	}
	m.SetNarrative(strings.Repeat("The room converged on approvals. ", 2))
	st = m.Reveal()
	if !st.Ready || opened != 1 {
		t.Fatalf("reveal=%+v opened=%d items=%d", st, opened, itemCount(st))
	}
	m.SetNarrative("")
	if !m.Reveal().Ready || opened != 1 {
		t.Fatalf("latched gate closed")
	}
}

func itemCount(st reveal.Status) int {
	for _, c := range st.Checks {
		if c.Name == "synthesis" {
			return c.Have
		}
	}
	return -1
}

func TestSnapshotRoundTripRestoresState(t *testing.T) {
	src := newModel(&fakeEmbedder{})
	ctx := context.Background()
	src.IngestDatapoint(ctx, dp("a", "We need sign-off from compliance before shipping"))
	src.IngestDatapoint(ctx, dp("b", "Customer churn is rising. Support queues are too slow."))
	src.EnrichPending(ctx)
	src.IngestDatapoint(ctx, dp("c", "Shipping is blocked by compliance sign-off"))
	src.SetPhase("synthesis")
	if err := src.SetSelection("b#2"); err != nil {
		t.Fatalf("select: %v", err)
	}

	raw, err := snapshot.Encode(src.Export())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := snapshot.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	dst := newModel(&fakeEmbedder{})
	if err := dst.Restore(decoded); err != nil {
		t.Fatalf("restore: %v", err)
	}
	sv, dv := src.View(), dst.View()
	if dv.UtteranceCount != sv.UtteranceCount || dv.ProcessedCount != sv.ProcessedCount || dv.Phase != "synthesis" || dv.SelectedUtteranceID != "b#2" {
		t.Fatalf("restored view=%+v source=%+v", dv, sv)
	}
	if dv.PendingEmbeddings != 1 {
		t.Fatalf("pending=%d want 1 (utterance c)", dv.PendingEmbeddings)
	}
	if dst.IngestDatapoint(ctx, dp("a", "again")) {
		t.Fatalf("restored model accepted a known datapoint")
	}
	dst.EnrichPending(ctx)
	ra, _ := dst.Utterance("a")
	rc, _ := dst.Utterance("c")
	if ra.ThemeID == "" || rc.ThemeID != ra.ThemeID {
		t.Fatalf("restored model did not fold c into a's theme: %q %q", ra.ThemeID, rc.ThemeID)
	}
}

func TestRestoreFailureKeepsState(t *testing.T) {
	m := newModel(nil)
	m.IngestDatapoint(context.Background(), dp("a", "Teams want more training"))
	bad := snapshot.Snapshot{Utterances: []domain.Utterance{{ID: "x"}, {ID: "x"}}}
	if err := m.Restore(bad); !errors.Is(err, pkgerrors.ErrSnapshotLoadInvalid) {
		t.Fatalf("err=%v", err)
	}
	if m.View().UtteranceCount != 1 {
		t.Fatalf("state replaced by invalid snapshot")
	}
}

func TestSelectionRequiresKnownUtterance(t *testing.T) {
	m := newModel(nil)
	if err := m.SetSelection("nope"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
	if err := m.SetSelection(""); err != nil {
		t.Fatalf("clear: %v", err)
	}
}

func TestIngestStampsMissingCreationTime(t *testing.T) {
	m := newModel(nil)
	nowMs := m.now().UnixMilli()
	ctx := context.Background()
	m.IngestDatapoint(ctx, domain.Datapoint{ID: "a", Text: "We need sign-off from compliance before shipping"})

	u, ok := m.Utterance("a")
	if !ok || u.CreatedAtMs != nowMs {
		t.Fatalf("utterance a createdAtMs=%d want %d", u.CreatedAtMs, nowMs)
	}
	edges := m.Edges()
	if len(edges) == 0 {
		t.Fatalf("no edges")
	}
	for _, e := range edges {
		if e.LastSeenAtMs != nowMs {
			t.Fatalf("edge %s->%s lastSeenAtMs=%d want %d", e.FromDomain, e.ToDomain, e.LastSeenAtMs, nowMs)
		}
	}
	themes := m.View().Themes
	if len(themes) == 0 || themes[0].LastSupportAtMs != nowMs {
		t.Fatalf("themes=%+v want lastSupportAtMs %d", themes, nowMs)
	}

	m.IngestDatapoint(ctx, domain.Datapoint{ID: "b", Text: "Customers wait too long for refunds", CreatedAtMs: 500})
	if u, _ := m.Utterance("b"); u.CreatedAtMs != 500 {
		t.Fatalf("explicit createdAtMs overwritten: %d", u.CreatedAtMs)
	}
}

func TestHighConfidenceCountTracksRelabels(t *testing.T) {
	m := newModel(nil)
	ctx := context.Background()
	low := domain.Interpretation{Domain: domain.DomainCustomer, ConfidenceWeight: 0.2}
	m.IngestDatapoint(ctx, domain.Datapoint{ID: "a", Text: "Customers wait too long for refunds", CreatedAtMs: 1000, Interpretation: &low})
	if got := m.revealInputs().HighConfidence; got != 0 {
		t.Fatalf("high=%d want 0", got)
	}

	m.ApplyClassification("a", domain.Interpretation{Domain: domain.DomainCustomer, ConfidenceWeight: 0.9})
	if got := m.revealInputs().HighConfidence; got != 1 {
		t.Fatalf("high after upgrade=%d want 1", got)
	}
	m.ApplyClassification("a", domain.Interpretation{Domain: domain.DomainCustomer, ConfidenceWeight: 0.95})
	if got := m.revealInputs().HighConfidence; got != 1 {
		t.Fatalf("high after second upgrade=%d want 1", got)
	}

	snap := m.Export()
	other := newModel(nil)
	if err := other.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := other.revealInputs().HighConfidence; got != 1 {
		t.Fatalf("high after restore=%d want 1", got)
	}

	m.ApplyClassification("a", domain.Interpretation{Domain: domain.DomainCustomer, ConfidenceWeight: 0.1})
	if got := m.revealInputs().HighConfidence; got != 0 {
		t.Fatalf("high after downgrade=%d want 0", got)
	}
}
