package transcription

import (
	"sync"
	"time"
)

type Outcome string

const (
	OutcomePrimary     Outcome = "primary"
	OutcomeSecondary   Outcome = "secondary"
	OutcomeSilent      Outcome = "silent"
	OutcomeUnavailable Outcome = "unavailable"
)

type TraceEntry struct {
	At         time.Time `json:"at"`
	Seq        int64     `json:"seq"`
	Generation int64     `json:"generation"`
	StartMs    int64     `json:"startMs"`
	EndMs      int64     `json:"endMs"`
	Outcome    Outcome   `json:"outcome"`
	Attempts   []Attempt `json:"attempts"`
	TextLen    int       `json:"textLen"`
}

type Attempt struct {
	Provider   string `json:"provider"`
	Skipped    bool   `json:"skipped,omitempty"`
	Empty      bool   `json:"empty,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// DebugTrace keeps the last N chunk outcomes for the status endpoint.
type DebugTrace struct {
	mu      sync.Mutex
	entries []TraceEntry
	next    int
	full    bool
}

func NewDebugTrace(size int) *DebugTrace {
	if size <= 0 {
		size = 200
	}
	return &DebugTrace{entries: make([]TraceEntry, size)}
}

func (t *DebugTrace) Add(e TraceEntry) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.entries[t.next] = e
	t.next = (t.next + 1) % len(t.entries)
	if t.next == 0 {
		t.full = true
	}
	t.mu.Unlock()
}

// Entries returns oldest first.
func (t *DebugTrace) Entries() []TraceEntry {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.full {
		return append([]TraceEntry(nil), t.entries[:t.next]...)
	}
	out := make([]TraceEntry, 0, len(t.entries))
	out = append(out, t.entries[t.next:]...)
	return append(out, t.entries[:t.next]...)
}
