package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

type ConnectionHandler struct {
	connectionService interfaces.ConnectionService
	logger            arbor.ILogger
}

func NewConnectionHandler(connectionService interfaces.ConnectionService, logger arbor.ILogger) *ConnectionHandler {
	return &ConnectionHandler{
		connectionService: connectionService,
		logger:            logger,
	}
}

// FindHandler handles POST /api/connections/find. The service degrades to a
// fallback connection set when the provider output is unusable, so the only
// error surface here is a broken library read.
func (h *ConnectionHandler) FindHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.ConnectionRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	response, err := h.connectionService.FindConnections(r.Context(), &req)
	if err != nil {
		h.logger.Error().Err(err).Msg("Connection search failed")
		WriteError(w, http.StatusInternalServerError, "Failed to find connections")
		return
	}

	WriteJSON(w, http.StatusOK, response)
}
