package models

// ConnectionRequest asks for connections between a selection and the corpus.
type ConnectionRequest struct {
	SelectedText    string   `json:"selected_text" validate:"required,min=1"`
	CurrentDocument string   `json:"current_document,omitempty"`
	DocumentIDs     []string `json:"document_ids,omitempty"`
}

// InsightRequest asks for insights grounded in previously found connections.
// Types defaults to all five insight types when empty.
type InsightRequest struct {
	SelectedText string        `json:"selected_text" validate:"required,min=1"`
	DocumentID   string        `json:"document_id,omitempty"`
	Types        []InsightType `json:"types,omitempty"`
	Connections  []Connection  `json:"connections,omitempty"`
}

// PodcastRequest asks for an audio overview of a selection and its insights.
type PodcastRequest struct {
	SelectedText string       `json:"selected_text" validate:"required,min=1"`
	DocumentID   string       `json:"document_id,omitempty"`
	Insights     []Insight    `json:"insights,omitempty"`
	Connections  []Connection `json:"connections,omitempty"`
	Duration     string       `json:"duration,omitempty" validate:"omitempty,oneof=short medium long"`
	Format       string       `json:"format,omitempty" validate:"omitempty,oneof=podcast overview"`
}

// YouTubeRequest asks for video recommendations for a text selection.
type YouTubeRequest struct {
	Query      string `json:"query" validate:"required,min=1"`
	MaxResults int    `json:"max_results,omitempty" validate:"omitempty,min=1,max=10"`
}
