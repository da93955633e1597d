package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pulse-backend/internal/platform/apierr"
	"github.com/yungbote/pulse-backend/internal/platform/ctxutil"
)

// APIError carries the request and trace ids so a client report can be
// matched to the server log line for the same request.
type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Status    int    `json:"status"`
	RequestID string `json:"requestId,omitempty"`
	TraceID   string `json:"traceId,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	ae := APIError{Message: "unknown error", Code: code, Status: status}
	if err != nil {
		ae.Message = err.Error()
	}
	if req, ok := ctxutil.RequestFrom(c.Request.Context()); ok {
		ae.RequestID = req.RequestID
		ae.TraceID = req.TraceID
	}
	c.JSON(status, ErrorEnvelope{Error: ae})
}

// RespondAPIError maps pipeline sentinels to a status and code.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.FromError(err)
	if ae == nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	_ = c.Error(err)
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

// Session views change on every ingest, so success bodies are never cached.
func RespondOK(c *gin.Context, payload any) {
	respond(c, http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	respond(c, http.StatusCreated, payload)
}

func respond(c *gin.Context, status int, payload any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, payload)
}
