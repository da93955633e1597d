package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/pulse-backend/internal/platform/logger"
	"github.com/yungbote/pulse-backend/internal/realtime"
)

// StreamHandler pushes dashboard events for one session channel.
type StreamHandler struct {
	log     *logger.Logger
	hub     *realtime.Hub
	channel string
}

func NewStreamHandler(log *logger.Logger, hub *realtime.Hub, channel string) *StreamHandler {
	return &StreamHandler{log: log.With("handler", "StreamHandler"), hub: hub, channel: channel}
}

// GET /api/stream
func (h *StreamHandler) Stream(c *gin.Context) {
	client := h.hub.NewClient()
	h.hub.AddChannel(client, h.channel)
	h.log.Debug("stream open", "client_id", client.ID.String())

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Debug("stream closed", "client_id", client.ID.String())
}
