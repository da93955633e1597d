package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pulse-backend/internal/http/response"
	"github.com/yungbote/pulse-backend/internal/insight"
	pkgerrors "github.com/yungbote/pulse-backend/internal/pkg/errors"
)

type ModelHandler struct {
	model *insight.Model
}

func NewModelHandler(model *insight.Model) *ModelHandler {
	return &ModelHandler{model: model}
}

// GET /api/model
func (h *ModelHandler) GetModel(c *gin.Context) {
	response.RespondOK(c, gin.H{"model": h.model.View()})
}

// GET /api/synthesis
func (h *ModelHandler) GetSynthesis(c *gin.Context) {
	response.RespondOK(c, gin.H{"synthesis": h.model.Synthesis()})
}

// GET /api/pressure-points
func (h *ModelHandler) GetPressurePoints(c *gin.Context) {
	response.RespondOK(c, gin.H{"pressurePoints": h.model.PressurePoints()})
}

// GET /api/reveal
func (h *ModelHandler) GetReveal(c *gin.Context) {
	response.RespondOK(c, gin.H{"reveal": h.model.Reveal()})
}

// GET /api/utterances
func (h *ModelHandler) ListUtterances(c *gin.Context) {
	response.RespondOK(c, gin.H{"utterances": h.model.Utterances()})
}

// GET /api/utterances/:id
func (h *ModelHandler) GetUtterance(c *gin.Context) {
	u, ok := h.model.Utterance(c.Param("id"))
	if !ok {
		response.RespondError(c, http.StatusNotFound, "utterance_not_found", pkgerrors.ErrNotFound)
		return
	}
	response.RespondOK(c, gin.H{"utterance": u})
}

// PUT /api/narrative
func (h *ModelHandler) PutNarrative(c *gin.Context) {
	var req struct {
		Narrative *string `json:"narrative"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Narrative == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errMissing("narrative"))
		return
	}
	h.model.SetNarrative(*req.Narrative)
	response.RespondOK(c, gin.H{"reveal": h.model.Reveal()})
}

// PUT /api/phase
func (h *ModelHandler) PutPhase(c *gin.Context) {
	var req struct {
		Phase string `json:"phase"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Phase) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errMissing("phase"))
		return
	}
	h.model.SetPhase(strings.TrimSpace(req.Phase))
	response.RespondOK(c, gin.H{"phase": h.model.Phase()})
}

// PUT /api/selection
func (h *ModelHandler) PutSelection(c *gin.Context) {
	var req struct {
		UtteranceID string `json:"utteranceId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.model.SetSelection(strings.TrimSpace(req.UtteranceID)); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"selectedUtteranceId": h.model.View().SelectedUtteranceID})
}
