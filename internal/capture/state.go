package capture

import "time"

type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateCapturing State = "capturing"
	StateStopped   State = "stopped"
	StateError     State = "error"
)

var AllStates = []string{string(StateIdle), string(StateStarting), string(StateCapturing), string(StateStopped), string(StateError)}

type Status struct {
	State         State     `json:"state"`
	Consent       bool      `json:"consent"`
	Generation    int64     `json:"generation"`
	Chunks        int64     `json:"chunks"`
	Restarts      int64     `json:"restarts"`
	CapturedMs    int64     `json:"capturedMs"`
	StartedAt     time.Time `json:"startedAt,omitempty"`
	LastChunkAt   time.Time `json:"lastChunkAt,omitempty"`
	LastForwardAt time.Time `json:"lastForwardAt,omitempty"`
	LastError     string    `json:"lastError,omitempty"`
}
