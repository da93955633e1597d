package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pulse-backend/internal/capture"
	"github.com/yungbote/pulse-backend/internal/services"
)

// StatusSource reports the live session state used for readiness.
type StatusSource interface {
	Status() services.SessionStatus
}

type HealthHandler struct {
	source StatusSource
}

func NewHealthHandler(source StatusSource) *HealthHandler { return &HealthHandler{source: source} }

// HealthCheck is liveness only.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type readiness struct {
	Ready             bool     `json:"ready"`
	CaptureState      string   `json:"captureState"`
	Offline           bool     `json:"offline"`
	DisabledProviders []string `json:"disabledProviders"`
}

// Ready answers 503 while capture sits in the error state or every
// transcription provider has been disabled.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.source == nil {
		c.JSON(http.StatusOK, readiness{Ready: true, DisabledProviders: []string{}})
		return
	}
	st := h.source.Status()
	out := readiness{
		Ready:             st.Capture.State != capture.StateError,
		CaptureState:      string(st.Capture.State),
		Offline:           st.Offline,
		DisabledProviders: st.DisabledProviders,
	}
	if out.DisabledProviders == nil {
		out.DisabledProviders = []string{}
	}
	if st.ProviderCount > 0 && len(st.DisabledProviders) >= st.ProviderCount {
		out.Ready = false
	}
	code := http.StatusOK
	if !out.Ready {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, out)
}
