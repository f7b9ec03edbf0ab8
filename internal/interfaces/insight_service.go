package interfaces

import (
	"context"

	"github.com/conspectus/conspectus/internal/models"
)

// ConnectionService finds conceptual connections between a selected text
// and the outlines of other documents in the library
type ConnectionService interface {
	// FindConnections returns 2-4 connections for the selection, or a
	// fallback connection when the provider output is unusable
	FindConnections(ctx context.Context, req *models.ConnectionRequest) (*models.ConnectionResponse, error)
}

// InsightService generates typed insights grounded in the library
type InsightService interface {
	// GenerateInsights produces insights of the requested types for a
	// selection. Results are cached per document and type.
	GenerateInsights(ctx context.Context, req *models.InsightRequest) (*models.InsightResponse, error)
}

// PodcastService turns a document outline into a two-speaker script and,
// when TTS is configured, synthesized audio
type PodcastService interface {
	// GenerateScript builds the conversation script for a document
	GenerateScript(ctx context.Context, req *models.PodcastRequest) (*models.PodcastScript, error)

	// GenerateAudio synthesizes the script to a single WAV file and
	// returns its path
	GenerateAudio(ctx context.Context, documentID string, script *models.PodcastScript) (string, error)
}

// YouTubeService searches YouTube for videos related to document content
type YouTubeService interface {
	// Search returns deduplicated video results for the query
	Search(ctx context.Context, req *models.YouTubeRequest) ([]*models.YouTubeVideo, error)
}
