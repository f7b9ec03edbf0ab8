package models

import (
	"time"
)

// Document represents an uploaded PDF and its extraction state.
// The outline JSON itself lives on the filesystem next to the PDF;
// the record only carries the paths and summary flags.
type Document struct {
	ID          string    `json:"id" badgerhold:"key"`
	Filename    string    `json:"filename" badgerhold:"index"`
	FilePath    string    `json:"file_path"`
	OutlinePath string    `json:"outline_path,omitempty"`
	Title       string    `json:"title,omitempty"`
	PageCount   int       `json:"page_count"`
	FileSize    int64     `json:"file_size"`
	HasOutline  bool      `json:"has_outline"`
	Degraded    bool      `json:"degraded,omitempty"`
	UsedOCR     bool      `json:"used_ocr,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SyncReport summarizes one reconciliation pass between the metadata store
// and the upload directory.
type SyncReport struct {
	Imported []string  `json:"imported"` // filenames imported from disk
	Removed  []string  `json:"removed"`  // document IDs whose file disappeared
	Errors   []string  `json:"errors,omitempty"`
	SyncedAt time.Time `json:"synced_at"`
}

// DocumentStats summarizes the document store for the stats endpoint.
type DocumentStats struct {
	TotalDocuments int   `json:"total_documents"`
	WithOutline    int   `json:"with_outline"`
	WithoutOutline int   `json:"without_outline"`
	DegradedCount  int   `json:"degraded_count"`
	TotalPages     int   `json:"total_pages"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}
