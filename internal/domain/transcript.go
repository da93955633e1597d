package domain

type ChunkSource string

const (
	SourcePrimary   ChunkSource = "primary"
	SourceSecondary ChunkSource = "secondary"
)

// AudioChunk is one closed recorder buffer, before transcription.
type AudioChunk struct {
	Seq        int64  `json:"seq"`
	Generation int64  `json:"generation"`
	Data       []byte `json:"-"`
	MimeType   string `json:"mime_type"`
	// EndTimeMs is session-relative capture time at which the buffer was closed.
	EndTimeMs int64 `json:"end_time_ms"`
}

// TranscriptChunk is immutable once produced by the fallback chain.
type TranscriptChunk struct {
	Seq         int64       `json:"seq"`
	StartTimeMs int64       `json:"startTimeMs"`
	EndTimeMs   int64       `json:"endTimeMs"`
	Text        string      `json:"text"`
	Confidence  *float64    `json:"confidence,omitempty"`
	Source      ChunkSource `json:"source"`
}

func (c TranscriptChunk) ConfidenceOr(def float64) float64 {
	if c.Confidence == nil {
		return def
	}
	return *c.Confidence
}

// TranscriptForward is the body of POST /sessions/{id}/transcript.
type TranscriptForward struct {
	SpeakerID     string      `json:"speakerId"`
	StartTime     int64       `json:"startTime"`
	EndTime       int64       `json:"endTime"`
	Text          string      `json:"text"`
	Confidence    float64     `json:"confidence"`
	Source        ChunkSource `json:"source"`
	DialoguePhase string      `json:"dialoguePhase"`
}
