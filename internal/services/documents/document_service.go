package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/conspectus/conspectus/internal/common"
	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
	"github.com/conspectus/conspectus/internal/outline"
)

// ErrNotFound is returned when a document ID has no record.
var ErrNotFound = errors.New("document not found")

// Service implements DocumentService. Uploaded PDFs live in the uploads
// directory, their outline JSON in the outlines directory, and only metadata
// goes to the store.
type Service struct {
	storage   interfaces.StorageManager
	extractor *outline.Extractor
	events    interfaces.EventService
	uploads   string
	outlines  string
	logger    arbor.ILogger
}

// NewService creates a new document service
func NewService(
	storage interfaces.StorageManager,
	extractor *outline.Extractor,
	events interfaces.EventService,
	cfg *common.FilesystemConfig,
	logger arbor.ILogger,
) (*Service, error) {
	for _, dir := range []string{cfg.Uploads, cfg.Outlines} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &Service{
		storage:   storage,
		extractor: extractor,
		events:    events,
		uploads:   cfg.Uploads,
		outlines:  cfg.Outlines,
		logger:    logger,
	}, nil
}

// Upload stores a PDF, generates its outline, and persists both. The PDF and
// outline are written atomically (temp file and rename) so a crash mid-upload
// never leaves a partial file behind. Uploading an exact filename that
// already exists returns the existing record with Duplicate set instead of
// storing anything.
func (s *Service) Upload(ctx context.Context, filename string, content io.Reader) (*interfaces.UploadResult, error) {
	filename, err := sanitizeFilename(filename)
	if err != nil {
		return nil, err
	}

	if existing, err := s.storage.DocumentStorage().GetDocumentByFilename(filename); err == nil && existing != nil {
		s.logger.Debug().Str("filename", filename).Str("doc_id", existing.ID).Msg("Duplicate upload blocked, returning existing document")
		return &interfaces.UploadResult{Document: existing, Duplicate: true}, nil
	}

	filePath := filepath.Join(s.uploads, filename)
	size, err := writeFileAtomic(filePath, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	result, err := s.ingest(ctx, filename, filePath, size)
	if err != nil {
		// Only internal failures (storage, encoding) reach here; an
		// unreadable PDF is retained without an outline instead.
		os.Remove(filePath)
		return nil, err
	}

	s.events.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventDocumentUploaded,
		Payload: result.Document,
	})

	return result, nil
}

// BulkUpload processes multiple files and reports per-file outcomes. One bad
// file never aborts the batch.
func (s *Service) BulkUpload(ctx context.Context, files map[string]io.Reader) []interfaces.BulkUploadItem {
	// Deterministic processing order regardless of map iteration.
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]interfaces.BulkUploadItem, 0, len(names))
	for _, name := range names {
		item := interfaces.BulkUploadItem{Filename: name, Status: "ok"}

		result, err := s.Upload(ctx, name, files[name])
		switch {
		case err != nil:
			item.Status = "error"
			item.Error = err.Error()
		case result.Duplicate:
			item.Status = "duplicate"
			item.ID = result.Document.ID
		default:
			item.ID = result.Document.ID
		}

		items = append(items, item)
	}
	return items
}

// Get retrieves document metadata by ID
func (s *Service) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.storage.DocumentStorage().GetDocument(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, nil
}

// GetOutline loads the persisted outline for a document
func (s *Service) GetOutline(ctx context.Context, id string) (*models.ExtractionResult, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doc.HasOutline || doc.OutlinePath == "" {
		return nil, fmt.Errorf("no outline available for document %s", id)
	}

	data, err := os.ReadFile(doc.OutlinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read outline: %w", err)
	}

	var result models.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse outline: %w", err)
	}
	return &result, nil
}

// List returns documents with pagination, newest first
func (s *Service) List(ctx context.Context, opts *interfaces.ListOptions) ([]*models.Document, error) {
	return s.storage.DocumentStorage().ListDocuments(opts)
}

// Delete removes a document, its stored file, its outline, and every cached
// insight derived from it.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.DocumentStorage().DeleteDocument(id); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	// Derived data goes with the document. File removal failures are logged,
	// not fatal: the record is already gone and sync cleans up strays.
	if err := s.storage.InsightStorage().DeleteInsightsByDocument(id); err != nil {
		s.logger.Warn().Err(err).Str("doc_id", id).Msg("Failed to delete insights for document")
	}
	if err := s.storage.PodcastStorage().DeleteScriptsByDocument(id); err != nil {
		s.logger.Warn().Err(err).Str("doc_id", id).Msg("Failed to delete podcast scripts for document")
	}
	if doc.OutlinePath != "" {
		if err := os.Remove(doc.OutlinePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", doc.OutlinePath).Msg("Failed to remove outline file")
		}
	}
	if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("path", doc.FilePath).Msg("Failed to remove uploaded file")
	}

	s.logger.Info().Str("doc_id", id).Str("filename", doc.Filename).Msg("Document deleted")

	s.events.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventDocumentDeleted,
		Payload: doc,
	})

	return nil
}

// Sync reconciles the metadata store against the upload directory: PDFs on
// disk with no record are imported, records whose file is gone are removed.
func (s *Service) Sync(ctx context.Context) (*models.SyncReport, error) {
	report := &models.SyncReport{
		Imported: []string{},
		Removed:  []string{},
		SyncedAt: time.Now(),
	}

	entries, err := os.ReadDir(s.uploads)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	onDisk := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		onDisk[entry.Name()] = true
	}

	// Import files without a record.
	for name := range onDisk {
		if _, err := s.storage.DocumentStorage().GetDocumentByFilename(name); err == nil {
			continue
		} else if !errors.Is(err, badgerhold.ErrNotFound) {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		filePath := filepath.Join(s.uploads, name)
		info, err := os.Stat(filePath)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		if _, err := s.ingest(ctx, name, filePath, info.Size()); err != nil {
			// Ingest only fails on internal errors now; the file stays on
			// disk for the next pass.
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		report.Imported = append(report.Imported, name)
	}

	// Remove records whose file disappeared.
	docs, err := s.storage.DocumentStorage().ListDocuments(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	for _, doc := range docs {
		if onDisk[doc.Filename] {
			continue
		}
		if err := s.Delete(ctx, doc.ID); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", doc.Filename, err))
			continue
		}
		report.Removed = append(report.Removed, doc.ID)
	}

	sort.Strings(report.Imported)

	s.logger.Info().
		Int("imported", len(report.Imported)).
		Int("removed", len(report.Removed)).
		Int("errors", len(report.Errors)).
		Msg("Library sync completed")

	s.events.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventLibrarySynced,
		Payload: report,
	})

	return report, nil
}

// Stats returns aggregate library statistics
func (s *Service) Stats(ctx context.Context) (*models.DocumentStats, error) {
	return s.storage.DocumentStorage().GetStats()
}

// ingest runs the outline pipeline over a stored PDF and persists the
// document record plus outline JSON. A document whose text layer cannot be
// read at all is still recorded, with HasOutline left false, so an upload
// never fails on extraction alone.
func (s *Service) ingest(ctx context.Context, filename, filePath string, size int64) (*interfaces.UploadResult, error) {
	doc := &models.Document{
		ID:       common.NewDocumentID(),
		Filename: filename,
		FilePath: filePath,
		FileSize: size,
	}

	var result *models.ExtractionResult
	info, err := outline.Probe(filePath)
	if err == nil {
		doc.PageCount = info.PageCount
		result, err = s.extractor.Generate(ctx, filePath)
	}
	if err != nil {
		if !errors.Is(err, outline.ErrUnreadablePDF) {
			return nil, err
		}
		if saveErr := s.storage.DocumentStorage().SaveDocument(doc); saveErr != nil {
			return nil, fmt.Errorf("failed to save document: %w", saveErr)
		}
		s.logger.Warn().
			Str("doc_id", doc.ID).
			Str("filename", filename).
			Err(err).
			Msg("Document retained without outline")
		return &interfaces.UploadResult{Document: doc}, nil
	}

	doc.Title = result.Title

	// The outline shares the PDF's filename base, so handbook.pdf always
	// maps to handbook.json.
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	outlinePath := filepath.Join(s.outlines, base+".json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode outline: %w", err)
	}
	if _, err := writeFileAtomic(outlinePath, strings.NewReader(string(data))); err != nil {
		return nil, fmt.Errorf("failed to persist outline: %w", err)
	}

	doc.OutlinePath = outlinePath
	doc.HasOutline = true
	doc.Degraded = result.Degraded
	doc.UsedOCR = result.UsedOCR

	if err := s.storage.DocumentStorage().SaveDocument(doc); err != nil {
		os.Remove(outlinePath)
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	s.logger.Info().
		Str("doc_id", doc.ID).
		Str("filename", filename).
		Int("pages", doc.PageCount).
		Int("headings", len(result.Outline)).
		Bool("degraded", result.Degraded).
		Msg("Document ingested")

	s.events.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventOutlineGenerated,
		Payload: doc,
	})

	return &interfaces.UploadResult{Document: doc, Outline: result}, nil
}

// sanitizeFilename rejects path traversal and non-PDF uploads.
func sanitizeFilename(filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", fmt.Errorf("filename is required")
	}
	if filepath.Base(filename) != filename || strings.Contains(filename, "..") {
		return "", fmt.Errorf("invalid filename: %s", filename)
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return "", fmt.Errorf("only PDF uploads are supported, got %s", filename)
	}
	return filename, nil
}

// writeFileAtomic streams content to a temp file in the target directory and
// renames it into place. Returns the number of bytes written.
func writeFileAtomic(path string, content io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()

	size, err := io.Copy(tmp, content)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	return size, nil
}

var _ interfaces.DocumentService = (*Service)(nil)
