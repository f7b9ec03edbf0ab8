package interfaces

import (
	"context"

	"github.com/conspectus/conspectus/internal/models"
)

// SearchOptions configures heading search behavior
type SearchOptions struct {
	// Limit maximum number of results
	Limit int

	// Level restricts results to one heading level ("h1", "h2", "h3").
	// Empty means all levels.
	Level string

	// DocumentID restricts results to one document. Empty means the
	// whole library.
	DocumentID string
}

// SearchService finds headings across the document library.
// The index is rebuilt from persisted outlines, so results always reflect
// what GetOutline would return.
type SearchService interface {
	// Search scores headings against the query and returns the best
	// matches in descending score order
	Search(ctx context.Context, query string, opts SearchOptions) ([]*models.SearchResult, error)

	// Reindex rebuilds the heading index from the document library
	Reindex(ctx context.Context) error

	// IndexedHeadings returns the number of headings currently indexed
	IndexedHeadings() int
}
