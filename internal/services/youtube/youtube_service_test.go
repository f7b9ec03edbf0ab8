package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/common"
	"github.com/conspectus/conspectus/internal/models"
)

func apiItem(id, title string) map[string]any {
	return map[string]any{
		"id": map[string]any{"videoId": id},
		"snippet": map[string]any{
			"title":        title,
			"description":  "about " + title,
			"channelTitle": "TestChannel",
			"publishedAt":  "2026-01-01T00:00:00Z",
			"thumbnails": map[string]any{
				"medium": map[string]any{"url": "https://img/" + id + "/m.jpg"},
			},
		},
	}
}

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewService(&common.YouTubeConfig{
		APIKey:     "test-key",
		MaxResults: 5,
		CacheTTL:   "5m",
	}, arbor.NewLogger())
	require.NoError(t, err)
	svc.endpoint = server.URL
	return svc, server
}

func TestSearch_ParsesAndDedupes(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tail latency", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "video", r.URL.Query().Get("type"))

		json.NewEncoder(w).Encode(map[string]any{
			"items": []any{
				apiItem("vid1", "First"),
				apiItem("vid1", "Duplicate of first"),
				apiItem("vid2", "Second"),
				map[string]any{"id": map[string]any{}, "snippet": map[string]any{"title": "no video id"}},
			},
		})
	})

	videos, err := svc.Search(context.Background(), &models.YouTubeRequest{Query: "tail latency"})
	require.NoError(t, err)
	require.Len(t, videos, 2)

	assert.Equal(t, "vid1", videos[0].VideoID)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid1", videos[0].URL)
	assert.Equal(t, "https://img/vid1/m.jpg", videos[0].Thumbnail)
	assert.Equal(t, "TestChannel", videos[0].Channel)
	assert.Equal(t, "vid2", videos[1].VideoID)
}

func TestSearch_ClampsMaxResults(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("maxResults"))
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	})

	_, err := svc.Search(context.Background(), &models.YouTubeRequest{Query: "x", MaxResults: 50})
	require.NoError(t, err)
}

func TestSearch_CachesResponses(t *testing.T) {
	calls := 0
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{"items": []any{apiItem("v", "t")}})
	})

	req := &models.YouTubeRequest{Query: "repeat me"}
	_, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second identical query must hit the cache")

	// A different limit is a different cache key.
	_, err = svc.Search(context.Background(), &models.YouTubeRequest{Query: "repeat me", MaxResults: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSearch_APIError(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "quota exceeded"},
		})
	})

	_, err := svc.Search(context.Background(), &models.YouTubeRequest{Query: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSearch_MissingKey(t *testing.T) {
	svc, err := NewService(&common.YouTubeConfig{MaxResults: 5}, arbor.NewLogger())
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), &models.YouTubeRequest{Query: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Search(context.Background(), &models.YouTubeRequest{Query: "   "})
	assert.Error(t, err)
}

func TestCacheKey_CaseInsensitive(t *testing.T) {
	assert.Equal(t, cacheKey("Tail Latency", 5), cacheKey("tail latency", 5))
	assert.NotEqual(t, cacheKey("tail latency", 5), cacheKey("tail latency", 6))
}
