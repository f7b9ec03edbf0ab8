package interfaces

import (
	"context"
	"io"

	"github.com/conspectus/conspectus/internal/models"
)

// UploadResult reports the outcome of a single document upload
type UploadResult struct {
	Document *models.Document
	// Outline is the freshly generated extraction result; nil when the
	// document was retained without one or when Duplicate is set
	Outline *models.ExtractionResult
	// Duplicate marks that Document is a pre-existing record returned
	// because the filename was already taken
	Duplicate bool
}

// BulkUploadItem is one entry in a bulk upload report
type BulkUploadItem struct {
	Filename string `json:"filename"`
	Status   string `json:"status"` // "ok", "duplicate", or "error"
	Error    string `json:"error,omitempty"`
	ID       string `json:"id,omitempty"`
}

// DocumentService handles the document lifecycle: upload, outline
// generation, listing, and deletion
type DocumentService interface {
	// Upload stores a PDF, generates its outline, and persists both.
	// Uploading a filename that already exists returns the existing
	// record with Duplicate set.
	Upload(ctx context.Context, filename string, content io.Reader) (*UploadResult, error)

	// BulkUpload processes multiple files and reports per-file outcomes.
	// One bad file never aborts the batch.
	BulkUpload(ctx context.Context, files map[string]io.Reader) []BulkUploadItem

	// Get retrieves document metadata by ID
	Get(ctx context.Context, id string) (*models.Document, error)

	// GetOutline loads the persisted outline for a document
	GetOutline(ctx context.Context, id string) (*models.ExtractionResult, error)

	// List returns documents with pagination
	List(ctx context.Context, opts *ListOptions) ([]*models.Document, error)

	// Delete removes a document, its stored file, and its outline
	Delete(ctx context.Context, id string) error

	// Sync reconciles the metadata store against the upload directory:
	// files on disk with no record are imported, records whose file is
	// gone are removed
	Sync(ctx context.Context) (*models.SyncReport, error)

	// Stats returns aggregate library statistics
	Stats(ctx context.Context) (*models.DocumentStats, error)
}
