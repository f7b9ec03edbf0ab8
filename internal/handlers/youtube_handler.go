package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
	"github.com/conspectus/conspectus/internal/services/youtube"
)

type YouTubeHandler struct {
	youtubeService interfaces.YouTubeService
	logger         arbor.ILogger
}

func NewYouTubeHandler(youtubeService interfaces.YouTubeService, logger arbor.ILogger) *YouTubeHandler {
	return &YouTubeHandler{
		youtubeService: youtubeService,
		logger:         logger,
	}
}

// RecommendHandler handles POST /api/youtube/recommend.
func (h *YouTubeHandler) RecommendHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.YouTubeRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	videos, err := h.youtubeService.Search(r.Context(), &req)
	if err != nil {
		if errors.Is(err, youtube.ErrNotConfigured) {
			WriteError(w, http.StatusServiceUnavailable, "YouTube recommendations are not configured")
			return
		}
		h.logger.Error().Err(err).Str("query", req.Query).Msg("YouTube search failed")
		WriteError(w, http.StatusBadGateway, "YouTube search failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"videos": videos,
		"count":  len(videos),
	})
}
