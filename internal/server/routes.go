package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Static files: stored PDFs and generated podcast audio
	mux.Handle("/static/documents/", http.StripPrefix("/static/documents/",
		http.FileServer(http.Dir(s.app.Config.Storage.Filesystem.Uploads))))
	mux.Handle("/static/audio/", http.StripPrefix("/static/audio/",
		http.FileServer(http.Dir(s.app.Config.Storage.Filesystem.Audio))))

	// WebSocket route (events + filtered log stream)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Documents
	mux.HandleFunc("/api/documents/upload", s.app.DocumentHandler.UploadHandler)
	mux.HandleFunc("/api/documents/bulk-upload", s.app.DocumentHandler.BulkUploadHandler)
	mux.HandleFunc("/api/documents/sync", s.app.DocumentHandler.SyncHandler)
	mux.HandleFunc("/api/documents/stats", s.app.DocumentHandler.StatsHandler)
	mux.HandleFunc("/api/documents", s.app.DocumentHandler.ListHandler)
	mux.HandleFunc("/api/documents/", s.handleDocumentRoutes) // /{id}, /{id}/outline, /{id}/outline.pdf

	// API routes - Connections and insights
	mux.HandleFunc("/api/connections/find", s.app.ConnectionHandler.FindHandler)
	mux.HandleFunc("/api/insights/generate", s.app.InsightHandler.GenerateHandler)

	// API routes - Podcast
	mux.HandleFunc("/api/podcast/generate-audio", s.app.PodcastHandler.GenerateAudioHandler)

	// API routes - Heading search
	mux.HandleFunc("/api/search", s.app.SearchHandler.QueryHandler)
	mux.HandleFunc("/api/search/level", s.app.SearchHandler.LevelHandler)

	// API routes - YouTube recommendations
	mux.HandleFunc("/api/youtube/recommend", s.app.YouTubeHandler.RecommendHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleDocumentRoutes routes /api/documents/{id} and its sub-resources
func (s *Server) handleDocumentRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if rest == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	switch sub {
	case "":
		RouteByMethod(w, r, MethodRouter{
			http.MethodGet: func(w http.ResponseWriter, r *http.Request) {
				s.app.DocumentHandler.GetHandler(w, r, id)
			},
			http.MethodDelete: func(w http.ResponseWriter, r *http.Request) {
				s.app.DocumentHandler.DeleteHandler(w, r, id)
			},
		})
	case "outline":
		s.app.DocumentHandler.OutlineHandler(w, r, id)
	case "outline.pdf":
		s.app.DocumentHandler.OutlineReportHandler(w, r, id)
	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}
