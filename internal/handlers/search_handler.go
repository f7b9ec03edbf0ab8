package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/services/search"
)

// SearchHandler handles heading search HTTP requests
type SearchHandler struct {
	searchService interfaces.SearchService
	parser        *search.QueryParser
	logger        arbor.ILogger
}

func NewSearchHandler(searchService interfaces.SearchService, logger arbor.ILogger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		parser:        search.NewQueryParser(),
		logger:        logger,
	}
}

// QueryHandler handles GET /api/search?q=query&limit=N requests. The query
// may carry level:h1 and document:<id> qualifiers alongside free text.
func (h *SearchHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	parsed := h.parser.Parse(query)
	opts := interfaces.SearchOptions{
		Level:      parsed.Level,
		DocumentID: parsed.DocumentID,
	}
	if opts.DocumentID == "" {
		opts.DocumentID = r.URL.Query().Get("document_id")
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	results, err := h.searchService.Search(r.Context(), parsed.Text, opts)
	if err != nil {
		h.logger.Error().Err(err).Str("query", query).Msg("Heading search failed")
		WriteError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// LevelHandler handles GET /api/search/level?level=H1 requests and lists
// every indexed heading at one level.
func (h *SearchHandler) LevelHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	level := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("level")))
	switch level {
	case "h1", "h2", "h3":
	default:
		WriteError(w, http.StatusBadRequest, "Query parameter 'level' must be one of H1, H2, H3")
		return
	}

	results, err := h.searchService.Search(r.Context(), "", interfaces.SearchOptions{Level: level})
	if err != nil {
		h.logger.Error().Err(err).Str("level", level).Msg("Level listing failed")
		WriteError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"level":   level,
		"results": results,
		"count":   len(results),
	})
}
