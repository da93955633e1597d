package segment

import (
	"testing"

	"github.com/yungbote/pulse-backend/internal/domain"
)

func TestSplitSingleSentenceKeepsParentID(t *testing.T) {
	us := Split(domain.Datapoint{ID: "dp", Text: "  We need sign-off from compliance.  ", StartTimeMs: 100, EndTimeMs: 900})
	if len(us) != 1 {
		t.Fatalf("len=%d", len(us))
	}
	u := us[0]
	if u.ID != "dp" || u.RawText != "We need sign-off from compliance." || u.StartTimeMs != 100 || u.EndTimeMs != 900 || u.SourceChunkRef != "dp" {
		t.Fatalf("utterance=%+v", u)
	}
}

func TestSplitInterpolatesTimestamps(t *testing.T) {
	d := domain.Datapoint{
		ID:          "dp",
		CreatedAtMs: 5000,
		Text:        "Our platform is old and slow. Customers keep asking for faster onboarding! Can we fix it?",
		StartTimeMs: 10_000,
		EndTimeMs:   20_000,
	}
	us := Split(d)
	if len(us) != 3 {
		t.Fatalf("len=%d: %+v", len(us), us)
	}
	prevEnd := d.StartTimeMs
	for i, u := range us {
		if u.ID != ChildID("dp", i+1) {
			t.Fatalf("id[%d]=%s", i, u.ID)
		}
		if ParentID(u.ID) != "dp" {
			t.Fatalf("parent of %s = %s", u.ID, ParentID(u.ID))
		}
		if u.StartTimeMs != prevEnd || u.EndTimeMs < u.StartTimeMs {
			t.Fatalf("piece %d range [%d,%d] prevEnd=%d", i, u.StartTimeMs, u.EndTimeMs, prevEnd)
		}
		if u.StartTimeMs < d.StartTimeMs || u.EndTimeMs > d.EndTimeMs {
			t.Fatalf("piece %d outside parent range", i)
		}
		if u.CreatedAtMs != d.CreatedAtMs+(u.StartTimeMs-d.StartTimeMs) {
			t.Fatalf("createdAt=%d", u.CreatedAtMs)
		}
		prevEnd = u.EndTimeMs
	}
	if us[2].EndTimeMs != d.EndTimeMs {
		t.Fatalf("last end=%d", us[2].EndTimeMs)
	}
}

func TestSplitMergesFragmentsAndDecimals(t *testing.T) {
	us := Split(domain.Datapoint{ID: "dp", Text: "Yes. Revenue grew 3.5 percent last year. Right!", EndTimeMs: 1000})
	if len(us) != 1 {
		t.Fatalf("len=%d: %+v", len(us), us)
	}
	if us[0].RawText != "Yes. Revenue grew 3.5 percent last year. Right!" {
		t.Fatalf("text=%q", us[0].RawText)
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	d := domain.Datapoint{ID: "dp", Text: "First point is here. Second point is there.", EndTimeMs: 100}
	a, b := Split(d), Split(d)
	if len(a) != len(b) || a[0].ID != b[0].ID || a[1].ID != b[1].ID {
		t.Fatalf("split not stable")
	}
}

func TestParentIDIgnoresNonOrdinalHash(t *testing.T) {
	if got := ParentID("room#alpha"); got != "room#alpha" {
		t.Fatalf("got %s", got)
	}
}
