package transcription

import "sync"

// Timeline assigns each chunk a [start, end) window that never overlaps the
// previous one: start = max(prevEnd, end - chunkDuration).
type Timeline struct {
	mu              sync.Mutex
	chunkDurationMs int64
	prevEndMs       int64
	started         bool
}

func NewTimeline(chunkDurationMs int64) *Timeline {
	return &Timeline{chunkDurationMs: chunkDurationMs}
}

func (t *Timeline) Window(endMs int64) (startMs, outEndMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	startMs = endMs - t.chunkDurationMs
	if startMs < 0 {
		startMs = 0
	}
	if t.started && startMs < t.prevEndMs {
		startMs = t.prevEndMs
	}
	if endMs < startMs {
		endMs = startMs
	}
	t.prevEndMs = endMs
	t.started = true
	return startMs, endMs
}
