package documents

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/common"
	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/outline"
	"github.com/conspectus/conspectus/internal/services/events"
	"github.com/conspectus/conspectus/internal/storage/badger"
)

// newTestService wires a full service over a throwaway badger store and
// filesystem layout under the test's temp dir.
func newTestService(t *testing.T) (*Service, interfaces.StorageManager) {
	t.Helper()

	logger := arbor.NewLogger()
	root := t.TempDir()

	storage, err := badger.NewManager(logger, &common.BadgerConfig{
		Path: filepath.Join(root, "badger"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	extractor := outline.NewExtractor(outline.DefaultDetectionConfig(), nil, logger)

	svc, err := NewService(storage, extractor, events.NewService(logger), &common.FilesystemConfig{
		Uploads:  filepath.Join(root, "uploads"),
		Outlines: filepath.Join(root, "outlines"),
	}, logger)
	require.NoError(t, err)

	return svc, storage
}

// samplePDF renders a small structured document and returns its bytes.
func samplePDF(t *testing.T) []byte {
	t.Helper()

	doc := fpdf.New("P", "pt", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 24)
	doc.Text(72, 90, "Incident Response Handbook")
	doc.SetFont("Helvetica", "", 16)
	doc.Text(72, 140, "1. Triage")
	doc.SetFont("Helvetica", "", 12)
	doc.Text(72, 170, "Acknowledge the page and assess blast radius.")
	doc.SetFont("Helvetica", "", 16)
	doc.Text(72, 220, "2. Mitigation")

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func TestUpload_StoresDocumentAndOutline(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Upload(ctx, "handbook.pdf", bytes.NewReader(samplePDF(t)))
	require.NoError(t, err)
	require.NotNil(t, result.Document)
	require.NotNil(t, result.Outline)

	doc := result.Document
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "handbook.pdf", doc.Filename)
	assert.Equal(t, "Incident Response Handbook", doc.Title)
	assert.Equal(t, 1, doc.PageCount)
	assert.True(t, doc.HasOutline)
	assert.Greater(t, doc.FileSize, int64(0))

	// Both files must exist on disk, and the outline shares the PDF's
	// filename base.
	_, err = os.Stat(doc.FilePath)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(svc.outlines, "handbook.json"), doc.OutlinePath)
	_, err = os.Stat(doc.OutlinePath)
	assert.NoError(t, err)

	// The persisted outline round-trips through GetOutline.
	loaded, err := svc.GetOutline(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Outline.Title, loaded.Title)
	assert.Len(t, loaded.Outline, 2)
}

func TestUpload_DuplicateReturnsExistingRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Upload(ctx, "handbook.pdf", bytes.NewReader(samplePDF(t)))
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := svc.Upload(ctx, "handbook.pdf", bytes.NewReader(samplePDF(t)))
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Document.ID, second.Document.ID)
	assert.Nil(t, second.Outline)

	// Nothing new was stored.
	count, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count.TotalDocuments)
}

func TestUpload_RejectsInvalidFilenames(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"", "notes.txt", "../escape.pdf", "a/b.pdf"} {
		_, err := svc.Upload(ctx, name, bytes.NewReader(samplePDF(t)))
		assert.Error(t, err, "filename %q should be rejected", name)
	}
}

func TestUpload_RetainsUnreadableFile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Upload(ctx, "garbage.pdf", bytes.NewReader([]byte("not a pdf at all")))
	require.NoError(t, err)
	require.NotNil(t, result.Document)

	// The document is kept without an outline rather than rejected.
	doc := result.Document
	assert.False(t, doc.HasOutline)
	assert.Empty(t, doc.OutlinePath)
	assert.Nil(t, result.Outline)

	_, err = os.Stat(filepath.Join(svc.uploads, "garbage.pdf"))
	assert.NoError(t, err)

	_, err = svc.GetOutline(ctx, doc.ID)
	assert.Error(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, 1, stats.WithoutOutline)
}

func TestBulkUpload_ReportsPerFileStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "existing.pdf", bytes.NewReader(samplePDF(t)))
	require.NoError(t, err)

	items := svc.BulkUpload(ctx, map[string]io.Reader{
		"broken.pdf":   bytes.NewReader([]byte("junk")),
		"existing.pdf": bytes.NewReader(samplePDF(t)),
		"invalid.txt":  bytes.NewReader(samplePDF(t)),
		"fresh.pdf":    bytes.NewReader(samplePDF(t)),
	})
	require.Len(t, items, 4)

	byName := make(map[string]interfaces.BulkUploadItem)
	for _, item := range items {
		byName[item.Filename] = item
	}

	// An unreadable PDF is still accepted, just without an outline.
	assert.Equal(t, "ok", byName["broken.pdf"].Status)
	require.NotEmpty(t, byName["broken.pdf"].ID)
	broken, err := svc.Get(ctx, byName["broken.pdf"].ID)
	require.NoError(t, err)
	assert.False(t, broken.HasOutline)

	assert.Equal(t, "duplicate", byName["existing.pdf"].Status)
	assert.NotEmpty(t, byName["existing.pdf"].ID)
	assert.Equal(t, "error", byName["invalid.txt"].Status)
	assert.Equal(t, "ok", byName["fresh.pdf"].Status)
	assert.NotEmpty(t, byName["fresh.pdf"].ID)
}

func TestDelete_RemovesRecordAndFiles(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	result, err := svc.Upload(ctx, "handbook.pdf", bytes.NewReader(samplePDF(t)))
	require.NoError(t, err)
	doc := result.Document

	require.NoError(t, svc.Delete(ctx, doc.ID))

	_, err = svc.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = os.Stat(doc.FilePath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(doc.OutlinePath)
	assert.True(t, os.IsNotExist(err))

	count, err := storage.DocumentStorage().CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDelete_UnknownID(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Delete(context.Background(), "doc_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSync_ImportsAndRemoves(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// A file dropped straight into the upload directory has no record yet.
	require.NoError(t, os.WriteFile(filepath.Join(svc.uploads, "dropped.pdf"), samplePDF(t), 0644))

	// An uploaded document whose file is then removed behind our back.
	result, err := svc.Upload(ctx, "vanishing.pdf", bytes.NewReader(samplePDF(t)))
	require.NoError(t, err)
	require.NoError(t, os.Remove(result.Document.FilePath))

	report, err := svc.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"dropped.pdf"}, report.Imported)
	assert.Equal(t, []string{result.Document.ID}, report.Removed)
	assert.Empty(t, report.Errors)
	assert.False(t, report.SyncedAt.IsZero())

	// The imported file is now a full document with an outline.
	doc, err := svc.storage.DocumentStorage().GetDocumentByFilename("dropped.pdf")
	require.NoError(t, err)
	assert.True(t, doc.HasOutline)
}

func TestSync_AdoptsUnreadableFileWithoutOutline(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(svc.uploads, "scan.pdf"), []byte("junk"), 0644))

	report, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"scan.pdf"}, report.Imported)
	assert.Empty(t, report.Errors)

	doc, err := svc.storage.DocumentStorage().GetDocumentByFilename("scan.pdf")
	require.NoError(t, err)
	assert.False(t, doc.HasOutline)
}

func TestSync_IsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "stable.pdf", bytes.NewReader(samplePDF(t)))
	require.NoError(t, err)

	report, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Imported)
	assert.Empty(t, report.Removed)

	report, err = svc.Sync(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Imported)
	assert.Empty(t, report.Removed)
}

func TestList_Pagination(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		_, err := svc.Upload(ctx, name, bytes.NewReader(samplePDF(t)))
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := svc.List(ctx, &interfaces.ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}
