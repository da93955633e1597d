package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pulse-backend/internal/domain"
	"github.com/yungbote/pulse-backend/internal/http/response"
	"github.com/yungbote/pulse-backend/internal/snapshot"
)

// SnapshotControl saves and restores the live model.
type SnapshotControl interface {
	SaveSnapshot(ctx context.Context, name string) (domain.SnapshotSummary, error)
	ListSnapshots(ctx context.Context) ([]domain.SnapshotSummary, error)
	LoadSnapshot(ctx context.Context, id string) error
}

type SnapshotHandler struct {
	session SnapshotControl
}

func NewSnapshotHandler(session SnapshotControl) *SnapshotHandler {
	return &SnapshotHandler{session: session}
}

// POST /api/snapshots
func (h *SnapshotHandler) Save(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errMissing("name"))
		return
	}
	sum, err := h.session.SaveSnapshot(c.Request.Context(), req.Name)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"snapshot": sum})
}

// GET /api/snapshots
func (h *SnapshotHandler) List(c *gin.Context) {
	list, err := h.session.ListSnapshots(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"snapshots": list})
}

// POST /api/snapshots/:id/load
func (h *SnapshotHandler) Load(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := h.session.LoadSnapshot(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"loaded": id})
}

// SnapshotContractHandler serves the workshop snapshot contract from a local
// store so other pulse instances can point at this process.
type SnapshotContractHandler struct {
	store snapshot.Store
}

func NewSnapshotContractHandler(store snapshot.Store) *SnapshotContractHandler {
	return &SnapshotContractHandler{store: store}
}

// GET /snapshots
func (h *SnapshotContractHandler) List(c *gin.Context) {
	list, err := h.store.ListSnapshots(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /snapshots
func (h *SnapshotContractHandler) Save(c *gin.Context) {
	var req struct {
		Name    string          `json:"name"`
		Phase   string          `json:"phase"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Payload) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errMissing("payload"))
		return
	}
	sum, err := h.store.SaveSnapshot(c.Request.Context(), req.Name, req.Phase, req.Payload)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sum)
}

// GET /snapshots/:id
func (h *SnapshotContractHandler) Get(c *gin.Context) {
	blob, err := h.store.GetSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, blob)
}
