package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pulse-backend/internal/http/response"
	"github.com/yungbote/pulse-backend/internal/services"
)

// CaptureControl is the part of services.Session the capture routes drive.
type CaptureControl interface {
	SetConsent(ok bool)
	StartCapture(ctx context.Context) error
	StopCapture()
	Status() services.SessionStatus
}

type CaptureHandler struct {
	session CaptureControl
}

func NewCaptureHandler(session CaptureControl) *CaptureHandler {
	return &CaptureHandler{session: session}
}

// POST /api/capture/consent
func (h *CaptureHandler) Consent(c *gin.Context) {
	var req struct {
		Consent *bool `json:"consent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Consent == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errMissing("consent"))
		return
	}
	h.session.SetConsent(*req.Consent)
	response.RespondOK(c, gin.H{"status": h.session.Status()})
}

// POST /api/capture/start
func (h *CaptureHandler) Start(c *gin.Context) {
	if err := h.session.StartCapture(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": h.session.Status()})
}

// POST /api/capture/stop
func (h *CaptureHandler) Stop(c *gin.Context) {
	h.session.StopCapture()
	response.RespondOK(c, gin.H{"status": h.session.Status()})
}

// GET /api/capture/status
func (h *CaptureHandler) Status(c *gin.Context) {
	response.RespondOK(c, gin.H{"status": h.session.Status()})
}
