package reveal

import (
	"strings"
	"testing"
)

func TestRelaxedDenominatorScenario(t *testing.T) {
	st := Evaluate(Inputs{
		Total:               8,
		HighConfidence:      8,
		DependencyProcessed: 9,
		SynthesisItems:      5,
		Narrative:           strings.Repeat("n", 50),
	}, Config{})
	if !st.Ready {
		t.Fatalf("not ready: %+v", st.Checks)
	}
	if st.Checks[0].Need != 8 || st.Checks[1].Need != 8 {
		t.Fatalf("floors not relaxed: %+v", st.Checks)
	}
}

func TestEachCheckBlocks(t *testing.T) {
	base := Inputs{Total: 20, HighConfidence: 10, DependencyProcessed: 12, SynthesisItems: 4, Narrative: strings.Repeat("é", 40)}
	if !Evaluate(base, Config{}).Ready {
		t.Fatalf("base should be ready")
	}
	cases := map[string]func(*Inputs){
		"intent":     func(in *Inputs) { in.HighConfidence = 9 },
		"dependency": func(in *Inputs) { in.DependencyProcessed = 11 },
		"synthesis":  func(in *Inputs) { in.SynthesisItems = 3 },
		"narrative":  func(in *Inputs) { in.Narrative = strings.Repeat("é", 39) },
		"empty":      func(in *Inputs) { *in = Inputs{SynthesisItems: 4, Narrative: base.Narrative} },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			in := base
			mut(&in)
			if Evaluate(in, Config{}).Ready {
				t.Fatalf("ready despite failing %s", name)
			}
		})
	}
}

func TestGateLatches(t *testing.T) {
	ready := Inputs{Total: 1, HighConfidence: 1, DependencyProcessed: 1, SynthesisItems: 4, Narrative: strings.Repeat("x", 40)}
	g := NewGate(Config{}, true)
	if st, became := g.Update(ready); !st.Ready || !became {
		t.Fatalf("first ready: %+v became=%v", st, became)
	}
	notReady := ready
	notReady.Narrative = ""
	st, became := g.Update(notReady)
	if !st.Ready || !st.Latched || became {
		t.Fatalf("latched gate reopened: %+v became=%v", st, became)
	}

	u := NewGate(Config{}, false)
	u.Update(ready)
	if st, _ := u.Update(notReady); st.Ready {
		t.Fatalf("unlatched gate stayed ready")
	}
	if _, became := u.Update(ready); !became {
		t.Fatalf("unlatched gate should report the new transition")
	}
}
