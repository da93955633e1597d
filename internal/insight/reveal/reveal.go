// Package reveal decides when the synthesis view has enough material to show.
package reveal

import (
	"sync"
	"unicode/utf8"
)

type Config struct {
	IntentFloor     int
	DependencyFloor int
	MinSynthesis    int
	// MinNarrative is measured in runes.
	MinNarrative int
}

func (c *Config) defaults() {
	if c.IntentFloor <= 0 {
		c.IntentFloor = 10
	}
	if c.DependencyFloor <= 0 {
		c.DependencyFloor = 12
	}
	if c.MinSynthesis <= 0 {
		c.MinSynthesis = 4
	}
	if c.MinNarrative <= 0 {
		c.MinNarrative = 40
	}
}

type Inputs struct {
	Total               int
	HighConfidence      int
	DependencyProcessed int
	SynthesisItems      int
	Narrative           string
}

type Check struct {
	Name      string `json:"name"`
	Have      int    `json:"have"`
	Need      int    `json:"need"`
	Satisfied bool   `json:"satisfied"`
}

type Status struct {
	Ready   bool    `json:"ready"`
	Latched bool    `json:"latched"`
	Checks  []Check `json:"checks"`
}

// Evaluate is pure. Floors shrink to the utterance total so short sessions
// can still reveal.
func Evaluate(in Inputs, cfg Config) Status {
	cfg.defaults()
	checks := []Check{
		{Name: "intent", Have: in.HighConfidence, Need: min(cfg.IntentFloor, in.Total)},
		{Name: "dependency", Have: in.DependencyProcessed, Need: min(cfg.DependencyFloor, in.Total)},
		{Name: "synthesis", Have: in.SynthesisItems, Need: cfg.MinSynthesis},
		{Name: "narrative", Have: utf8.RuneCountInString(in.Narrative), Need: cfg.MinNarrative},
	}
	ready := in.Total > 0
	for i := range checks {
		checks[i].Satisfied = checks[i].Have >= checks[i].Need
		ready = ready && checks[i].Satisfied
	}
	return Status{Ready: ready, Checks: checks}
}

// Gate wraps Evaluate and, when latching, stays ready once it has been.
type Gate struct {
	cfg   Config
	latch bool

	mu      sync.Mutex
	latched bool
	last    bool
}

func NewGate(cfg Config, latch bool) *Gate {
	cfg.defaults()
	return &Gate{cfg: cfg, latch: latch}
}

// Update reports the status and whether this call flipped the gate to ready.
func (g *Gate) Update(in Inputs) (Status, bool) {
	st := Evaluate(in, g.cfg)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.latch {
		if st.Ready {
			g.latched = true
		}
		st.Latched = g.latched
		st.Ready = g.latched
	}
	became := st.Ready && !g.last
	g.last = st.Ready
	return st, became
}

// Peek evaluates without moving the latch.
func (g *Gate) Peek(in Inputs) Status {
	st := Evaluate(in, g.cfg)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.latch {
		st.Latched = g.latched
		st.Ready = st.Ready || g.latched
	}
	return st
}

func (g *Gate) Latched() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latched
}

// Restore sets the latch from a snapshot.
func (g *Gate) Restore(latched bool) {
	g.mu.Lock()
	g.latched = latched && g.latch
	g.last = g.latched
	g.mu.Unlock()
}
