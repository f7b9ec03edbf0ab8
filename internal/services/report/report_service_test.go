package report

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

type stubLibrary struct {
	interfaces.DocumentService
	doc     *models.Document
	outline *models.ExtractionResult
}

func (s *stubLibrary) Get(ctx context.Context, id string) (*models.Document, error) {
	if s.doc == nil || s.doc.ID != id {
		return nil, errors.New("document not found")
	}
	return s.doc, nil
}

func (s *stubLibrary) GetOutline(ctx context.Context, id string) (*models.ExtractionResult, error) {
	if s.outline == nil {
		return nil, errors.New("no outline")
	}
	return s.outline, nil
}

func TestOutlineReport_RendersPDF(t *testing.T) {
	svc := NewService(&stubLibrary{
		doc: &models.Document{ID: "doc_1", Filename: "paper.pdf", PageCount: 12},
		outline: &models.ExtractionResult{
			Title: "Observability in Depth",
			Outline: []models.OutlineEntry{
				{Level: models.LevelH1, Text: "1. Metrics", Page: 1},
				{Level: models.LevelH2, Text: "1.1 Counters — naïve vs correct", Page: 2},
				{Level: models.LevelH3, Text: "1.1.1 Reset handling", Page: 3},
			},
		},
	}, arbor.NewLogger())

	data, err := svc.OutlineReport(context.Background(), "doc_1")
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "output must be a PDF")
}

func TestOutlineReport_EmptyOutline(t *testing.T) {
	svc := NewService(&stubLibrary{
		doc:     &models.Document{ID: "doc_1", Filename: "blank.pdf"},
		outline: &models.ExtractionResult{Title: "Blank", Outline: []models.OutlineEntry{}},
	}, arbor.NewLogger())

	data, err := svc.OutlineReport(context.Background(), "doc_1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestOutlineReport_UnknownDocument(t *testing.T) {
	svc := NewService(&stubLibrary{}, arbor.NewLogger())

	_, err := svc.OutlineReport(context.Background(), "doc_missing")
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "café ?", sanitize("café —"))
}
