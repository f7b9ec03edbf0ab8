package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conspectus/conspectus/internal/models"
)

func TestGetListParams(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/api/documents", 50, 0},
		{"explicit values", "/api/documents?limit=20&offset=40", 20, 40},
		{"limit above cap ignored", "/api/documents?limit=500", 50, 0},
		{"negative values ignored", "/api/documents?limit=-1&offset=-5", 50, 0},
		{"non-numeric ignored", "/api/documents?limit=abc&offset=xyz", 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			limit, offset := GetListParams(req)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("valid request passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/connections/find",
			strings.NewReader(`{"selected_text":"neural networks"}`))
		rec := httptest.NewRecorder()

		var body models.ConnectionRequest
		require.True(t, DecodeAndValidate(rec, req, &body))
		assert.Equal(t, "neural networks", body.SelectedText)
	})

	t.Run("missing required field rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/connections/find",
			strings.NewReader(`{"current_document":"a.pdf"}`))
		rec := httptest.NewRecorder()

		var body models.ConnectionRequest
		require.False(t, DecodeAndValidate(rec, req, &body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "SelectedText")
	})

	t.Run("malformed JSON rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/connections/find",
			strings.NewReader(`{"selected_text":`))
		rec := httptest.NewRecorder()

		var body models.ConnectionRequest
		require.False(t, DecodeAndValidate(rec, req, &body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oneof constraint enforced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/podcast/generate-audio",
			strings.NewReader(`{"selected_text":"x","duration":"marathon"}`))
		rec := httptest.NewRecorder()

		var body models.PodcastRequest
		require.False(t, DecodeAndValidate(rec, req, &body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTranscriptPreview(t *testing.T) {
	script := &models.PodcastScript{Segments: []models.PodcastSegment{
		{Speaker: "Host", Text: "Welcome to the show."},
		{Speaker: "Expert", Text: "Glad to be here."},
	}}

	preview := transcriptPreview(script)
	assert.Equal(t, "Host: Welcome to the show. | Expert: Glad to be here.", preview)
}

func TestTranscriptPreview_Truncates(t *testing.T) {
	long := strings.Repeat("a", 2*transcriptPreviewLimit)
	script := &models.PodcastScript{Segments: []models.PodcastSegment{
		{Speaker: "Narrator", Text: long},
	}}

	preview := transcriptPreview(script)
	assert.Len(t, preview, transcriptPreviewLimit)
}

func TestSanitizeHeaderValue(t *testing.T) {
	assert.Equal(t, "plain text", sanitizeHeaderValue("plain text"))
	assert.Equal(t, "café", sanitizeHeaderValue("café"))
	assert.Equal(t, "em?dash", sanitizeHeaderValue("em—dash"))
	assert.Equal(t, "line?break", sanitizeHeaderValue("line\nbreak"))
}
