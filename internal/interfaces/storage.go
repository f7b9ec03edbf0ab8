package interfaces

import (
	"github.com/conspectus/conspectus/internal/models"
)

// DocumentStorage - interface for document metadata persistence
type DocumentStorage interface {
	// CRUD operations
	SaveDocument(doc *models.Document) error
	GetDocument(id string) (*models.Document, error)
	GetDocumentByFilename(filename string) (*models.Document, error)
	UpdateDocument(doc *models.Document) error
	DeleteDocument(id string) error

	// List operations
	ListDocuments(opts *ListOptions) ([]*models.Document, error)

	// Stats operations
	CountDocuments() (int, error)
	GetStats() (*models.DocumentStats, error)

	// Bulk operations
	ClearAll() error
}

// InsightStorage - interface for cached LLM output persistence
type InsightStorage interface {
	SaveInsight(insight *models.Insight) error
	GetInsightsByDocument(documentID string) ([]*models.Insight, error)
	GetInsightsByType(insightType models.InsightType) ([]*models.Insight, error)
	DeleteInsightsByDocument(documentID string) error
	ClearAll() error
}

// PodcastStorage - interface for cached podcast scripts
type PodcastStorage interface {
	SaveScript(documentID, length string, script *models.PodcastScript) error
	GetScript(documentID, length string) (*models.PodcastScript, error)
	DeleteScriptsByDocument(documentID string) error
}

// ListOptions configures list queries
type ListOptions struct {
	Limit  int
	Offset int
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	DocumentStorage() DocumentStorage
	InsightStorage() InsightStorage
	PodcastStorage() PodcastStorage
	Close() error
}
