package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

type InsightHandler struct {
	insightService interfaces.InsightService
	logger         arbor.ILogger
}

func NewInsightHandler(insightService interfaces.InsightService, logger arbor.ILogger) *InsightHandler {
	return &InsightHandler{
		insightService: insightService,
		logger:         logger,
	}
}

// GenerateHandler handles POST /api/insights/generate. An unknown insight
// type in the request is a client error; provider failures degrade to
// placeholder insights inside the service and still return 200.
func (h *InsightHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.InsightRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	response, err := h.insightService.GenerateInsights(r.Context(), &req)
	if err != nil {
		if strings.Contains(err.Error(), "unknown insight type") {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("Insight generation failed")
		WriteError(w, http.StatusInternalServerError, "Failed to generate insights")
		return
	}

	WriteJSON(w, http.StatusOK, response)
}
