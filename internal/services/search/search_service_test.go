package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/common"
	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

// stubLibrary serves canned documents and outlines; the embedded interface
// panics on anything search shouldn't touch.
type stubLibrary struct {
	interfaces.DocumentService
	docs     []*models.Document
	outlines map[string]*models.ExtractionResult
}

func (s *stubLibrary) List(ctx context.Context, opts *interfaces.ListOptions) ([]*models.Document, error) {
	return s.docs, nil
}

func (s *stubLibrary) GetOutline(ctx context.Context, id string) (*models.ExtractionResult, error) {
	return s.outlines[id], nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	library := &stubLibrary{
		docs: []*models.Document{
			{ID: "doc_ml", Filename: "ml-systems.pdf", HasOutline: true},
			{ID: "doc_ops", Filename: "ops-runbook.pdf", HasOutline: true},
		},
		outlines: map[string]*models.ExtractionResult{
			"doc_ml": {
				Title: "Machine Learning Systems",
				Outline: []models.OutlineEntry{
					{Level: models.LevelH1, Text: "Introduction to Machine Learning", Page: 1},
					{Level: models.LevelH2, Text: "Gradient Descent Optimization", Page: 4},
					{Level: models.LevelH2, Text: "Cross-Validation Strategies", Page: 9},
				},
			},
			"doc_ops": {
				Title: "Ops Runbook",
				Outline: []models.OutlineEntry{
					{Level: models.LevelH1, Text: "Incident Response", Page: 2},
					{Level: models.LevelH2, Text: "Machine Provisioning", Page: 5},
				},
			},
		},
	}

	cfg := &common.SearchConfig{MaxResults: 50, MinScore: 0.1}
	return NewService(library, cfg, arbor.NewLogger())
}

func TestSearch_RanksByRelevance(t *testing.T) {
	svc := newTestService(t)

	results, err := svc.Search(context.Background(), "machine learning", interfaces.SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// The heading containing both query terms must outrank the one that
	// only shares "machine".
	assert.Equal(t, "Introduction to Machine Learning", results[0].Heading)
	assert.Equal(t, "doc_ml", results[0].DocumentID)
	assert.Equal(t, "ml-systems.pdf", results[0].Document)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Relevance, results[i-1].Relevance)
	}
}

func TestSearch_RelevanceFloor(t *testing.T) {
	svc := newTestService(t)

	results, err := svc.Search(context.Background(), "quantum chromodynamics", interfaces.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results, "unrelated query should fall below the relevance floor")
}

func TestSearch_HyphenatedTerms(t *testing.T) {
	svc := newTestService(t)

	// "validation" alone must reach the hyphenated heading.
	results, err := svc.Search(context.Background(), "validation", interfaces.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Cross-Validation Strategies", results[0].Heading)
}

func TestSearch_LevelFilter(t *testing.T) {
	svc := newTestService(t)

	results, err := svc.Search(context.Background(), "", interfaces.SearchOptions{Level: "h1"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, models.LevelH1, r.Level)
	}
}

func TestSearch_DocumentFilter(t *testing.T) {
	svc := newTestService(t)

	results, err := svc.Search(context.Background(), "machine", interfaces.SearchOptions{DocumentID: "doc_ops"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Machine Provisioning", results[0].Heading)
}

func TestSearch_LimitClamped(t *testing.T) {
	svc := newTestService(t)

	results, err := svc.Search(context.Background(), "machine", interfaces.SearchOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_EmptyQueryWithoutFilters(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Search(context.Background(), "  ", interfaces.SearchOptions{})
	assert.Error(t, err)
}

func TestReindex_CountsHeadings(t *testing.T) {
	svc := newTestService(t)

	assert.Equal(t, 0, svc.IndexedHeadings())
	require.NoError(t, svc.Reindex(context.Background()))
	assert.Equal(t, 5, svc.IndexedHeadings())
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"stopwords removed", "The State of the Art", []string{"state", "art"}},
		{"hyphen indexed both ways", "Cross-Validation", []string{"cross-validation", "cross", "validation"}},
		{"numbers kept", "Chapter 12 Results", []string{"chapter", "12", "results"}},
		{"single letters dropped", "A B Testing", []string{"testing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tokenize(tt.input))
		})
	}
}
