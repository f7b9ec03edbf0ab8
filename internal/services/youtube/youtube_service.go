package youtube

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/common"
	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

const searchEndpoint = "https://www.googleapis.com/youtube/v3/search"

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = fmt.Errorf("youtube API key not configured")

// searchResponse mirrors the Data API v3 search payload.
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type cacheEntry struct {
	videos  []*models.YouTubeVideo
	expires time.Time
}

// Service searches the YouTube Data API v3 for recommendations, with a
// short-lived in-memory cache to absorb repeated queries.
type Service struct {
	config   *common.YouTubeConfig
	client   *http.Client
	endpoint string
	cacheTTL time.Duration
	logger   arbor.ILogger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewService creates a YouTube recommendation service
func NewService(config *common.YouTubeConfig, logger arbor.ILogger) (*Service, error) {
	ttl := 5 * time.Minute
	if config.CacheTTL != "" {
		parsed, err := time.ParseDuration(config.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid youtube cache_ttl: %w", err)
		}
		ttl = parsed
	}

	return &Service{
		config:   config,
		client:   &http.Client{Timeout: 8 * time.Second},
		endpoint: searchEndpoint,
		cacheTTL: ttl,
		logger:   logger,
		cache:    make(map[string]cacheEntry),
	}, nil
}

// Search returns up to MaxResults deduplicated videos for the query
func (s *Service) Search(ctx context.Context, req *models.YouTubeRequest) ([]*models.YouTubeVideo, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("query text must not be empty")
	}
	if s.config.APIKey == "" {
		return nil, ErrNotConfigured
	}

	limit := req.MaxResults
	if limit <= 0 {
		limit = s.config.MaxResults
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 10 {
		limit = 10
	}

	key := cacheKey(query, limit)
	if videos, ok := s.cached(key); ok {
		s.logger.Debug().Str("query", query).Msg("YouTube results served from cache")
		return videos, nil
	}

	videos, err := s.fetch(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{videos: videos, expires: time.Now().Add(s.cacheTTL)}
	s.mu.Unlock()

	return videos, nil
}

func (s *Service) fetch(ctx context.Context, query string, limit int) ([]*models.YouTubeVideo, error) {
	params := url.Values{
		"part":       {"snippet"},
		"q":          {query},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(limit)},
		"key":        {s.config.APIKey},
		"safeSearch": {"moderate"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read youtube response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed youtube response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := parsed.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(string(body[:min(len(body), 200)]))
		}
		return nil, fmt.Errorf("youtube API error (%d): %s", resp.StatusCode, msg)
	}

	seen := make(map[string]bool)
	videos := make([]*models.YouTubeVideo, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		id := item.ID.VideoID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		thumbnail := item.Snippet.Thumbnails.Medium.URL
		if thumbnail == "" {
			thumbnail = item.Snippet.Thumbnails.Default.URL
		}

		videos = append(videos, &models.YouTubeVideo{
			VideoID:     id,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Channel:     item.Snippet.ChannelTitle,
			Thumbnail:   thumbnail,
			PublishedAt: item.Snippet.PublishedAt,
			URL:         "https://www.youtube.com/watch?v=" + id,
		})
		if len(videos) == limit {
			break
		}
	}

	s.logger.Debug().
		Str("query", query).
		Int("results", len(videos)).
		Msg("YouTube search completed")

	return videos, nil
}

func (s *Service) cached(key string) ([]*models.YouTubeVideo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(s.cache, key)
		return nil, false
	}
	return entry.videos, true
}

func cacheKey(query string, limit int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s::%d", strings.ToLower(query), limit)))
	return fmt.Sprintf("%x", sum)
}

var _ interfaces.YouTubeService = (*Service)(nil)
