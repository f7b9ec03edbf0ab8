package models

import "time"

// Connection links a source heading to a related section in another document.
type Connection struct {
	Title           string  `json:"title"`
	SourceDocument  string  `json:"source_document"`
	SourceHeading   string  `json:"source_heading"`
	TargetDocument  string  `json:"target_document"`
	TargetHeading   string  `json:"target_heading"`
	TargetPage      int     `json:"target_page"`
	Snippet         string  `json:"snippet"`
	Strength        string  `json:"strength"` // "high", "medium", "low"
	RelevanceScore  float64 `json:"relevance_score,omitempty"`
}

// ConnectionResponse is returned by the connection finder.
type ConnectionResponse struct {
	Connections []Connection `json:"connections"`
	Summary     string       `json:"summary,omitempty"`
	Fallback    bool         `json:"fallback,omitempty"`
}

// InsightType enumerates the insight categories the insight generator produces.
type InsightType string

const (
	InsightKeyTakeaways    InsightType = "key_takeaways"
	InsightContradictions  InsightType = "contradictions"
	InsightExamples        InsightType = "examples"
	InsightCrossReferences InsightType = "cross_references"
	InsightDidYouKnow      InsightType = "did_you_know"
)

// Insight is one generated insight with its source attribution. Persisted
// insights carry the ID of the document they were generated for so cached
// results can be replayed and invalidated per document.
type Insight struct {
	ID              string      `json:"id,omitempty" badgerhold:"key"`
	DocumentID      string      `json:"document_id,omitempty" badgerhold:"index"`
	Type            InsightType `json:"type"`
	Content         string      `json:"content"`
	SourceDocuments []string    `json:"source_documents,omitempty"`
	CreatedAt       time.Time   `json:"created_at,omitempty"`
}

// InsightResponse bundles all generated insights for a selection.
type InsightResponse struct {
	Insights []Insight `json:"insights"`
	Fallback bool      `json:"fallback,omitempty"`
}

// PodcastSegment is a single spoken line in a podcast script.
type PodcastSegment struct {
	Speaker string `json:"speaker"` // "Host", "Expert", or "Narrator"
	Text    string `json:"text"`
}

// PodcastScript is a generated dialogue or overview script.
type PodcastScript struct {
	Segments        []PodcastSegment `json:"segments"`
	DurationSeconds int              `json:"duration_seconds"`
	Fallback        bool             `json:"fallback,omitempty"`
}

// PodcastScriptRecord is the persisted cache entry for a generated script,
// keyed by document and length preset.
type PodcastScriptRecord struct {
	Key        string `badgerhold:"key"` // "<document_id>:<length>"
	DocumentID string `badgerhold:"index"`
	Length     string // "short", "medium", or "long"
	Script     PodcastScript
	CreatedAt  time.Time
}

// YouTubeVideo is a single recommendation from the YouTube Data API.
type YouTubeVideo struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Channel     string `json:"channel"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	URL         string `json:"url"`
}

// SearchResult is a heading matched by the heading search index.
type SearchResult struct {
	DocumentID string       `json:"document_id"`
	Document   string       `json:"document"`
	Heading    string       `json:"heading"`
	Level      HeadingLevel `json:"level"`
	Page       int          `json:"page"`
	Relevance  float64      `json:"relevance"`
}
