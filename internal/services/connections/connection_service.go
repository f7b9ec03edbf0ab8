package connections

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

const (
	// headingsPerDocument caps outline context per document to conserve
	// prompt tokens.
	headingsPerDocument = 8

	// maxConnections and minConnections bound the response size.
	maxConnections = 4
	minConnections = 2

	// snippetWordCap truncates provider snippets.
	snippetWordCap = 20
)

const connectionSystemPrompt = `You are a document connection expert. Analyze the selected text and find relevant sections across different PDF documents using their outlines.

TASK: For each relevant PDF section, generate a connection object with:
- title: The exact heading from the PDF outline
- document: Single PDF filename
- pages: Array of page numbers for this section
- snippet: Exactly 2 sentences explaining relevance (max 20 words total)
- strength: Connection strength (low/medium/high)

RESPONSE FORMAT: Valid JSON array with separate objects for each PDF section. Example:
[{"title":"Marseille: The Oldest City","document":"Cities.pdf","pages":[3],"snippet":"Ancient Greek origins described. Historical significance emphasized.","strength":"high"}]

CRITICAL: Each object represents ONE PDF section. Generate 2-4 objects total. Valid JSON only.`

const summarySystemPrompt = `You are a document connection summarizer. Create a concise 2-3 sentence summary of the cross-document connections found for the selected text. Focus on the main themes and relationships identified. Use plain text format only.`

// providerConnection is the JSON shape the model is asked to return.
type providerConnection struct {
	Title    string `json:"title"`
	Document string `json:"document"`
	Pages    []int  `json:"pages"`
	Snippet  string `json:"snippet"`
	Strength string `json:"strength"`
}

// Service finds cross-document connections by handing the library's outlines
// to an LLM. Provider failures never surface to the caller: the response
// degrades to deterministic fallback connections instead.
type Service struct {
	docs   interfaces.DocumentService
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewService creates a connection service
func NewService(docs interfaces.DocumentService, llm interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{
		docs:   docs,
		llm:    llm,
		logger: logger,
	}
}

// FindConnections returns 2-4 connections for the selected text
func (s *Service) FindConnections(ctx context.Context, req *models.ConnectionRequest) (*models.ConnectionResponse, error) {
	sourceName := "Unknown document"
	if req.CurrentDocument != "" {
		if doc, err := s.docs.Get(ctx, req.CurrentDocument); err == nil {
			sourceName = doc.Filename
		}
	}

	libraryContext, err := s.buildLibraryContext(ctx, req.SelectedText, sourceName, req.DocumentIDs)
	if err != nil {
		return nil, err
	}

	userPrompt := fmt.Sprintf(`%s

Find relevant PDF sections for the selected text. For each relevant section, return a connection object using the exact heading from the outline as title. Return JSON array with 2-4 connection objects:`, libraryContext)

	response := &models.ConnectionResponse{}

	raw, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: connectionSystemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err == nil {
		response.Connections, err = s.parseConnections(raw, sourceName, req.SelectedText)
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("Connection generation degraded to fallback")
		response.Connections = fallbackConnections(sourceName, req.SelectedText)
		response.Fallback = true
	}

	response.Summary = s.summarize(ctx, req.SelectedText, response.Connections)

	return response, nil
}

// buildLibraryContext formats the selection plus every document's outline
// (first 8 headings each, indented by level) into one prompt block.
func (s *Service) buildLibraryContext(ctx context.Context, selectedText, sourceName string, onlyIDs []string) (string, error) {
	docs, err := s.docs.List(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to list documents: %w", err)
	}

	idFilter := make(map[string]bool, len(onlyIDs))
	for _, id := range onlyIDs {
		idFilter[id] = true
	}

	var b strings.Builder
	b.WriteString("AVAILABLE PDF DOCUMENTS AND THEIR OUTLINES:\n")
	fmt.Fprintf(&b, "\nSELECTED TEXT FROM %q:\n%q\n", sourceName, selectedText)
	b.WriteString("\nDOCUMENT LIBRARY:\n")

	included := 0
	for _, doc := range docs {
		if len(idFilter) > 0 && !idFilter[doc.ID] {
			continue
		}
		if !doc.HasOutline {
			continue
		}
		outline, err := s.docs.GetOutline(ctx, doc.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("doc_id", doc.ID).Msg("Skipping document in connection context")
			continue
		}

		fmt.Fprintf(&b, "\n--- %s ---\n", doc.Filename)
		fmt.Fprintf(&b, "Title: %s\n", outline.Title)
		if len(outline.Outline) > 0 {
			b.WriteString("Structure:\n")
			for i, heading := range outline.Outline {
				if i >= headingsPerDocument {
					break
				}
				indent := strings.Repeat("  ", max(0, heading.Level.Rank()-1))
				fmt.Fprintf(&b, "%s- %s (p.%d)\n", indent, heading.Text, heading.Page)
			}
		}
		included++
	}

	if included == 0 {
		b.WriteString("No PDF documents available.\n")
	}

	return b.String(), nil
}

// parseConnections extracts the JSON array from a possibly chatty response by
// slicing from the first '[' to the last ']'.
func (s *Service) parseConnections(raw, sourceName, selectedText string) ([]models.Connection, error) {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in provider response")
	}

	var parsed []providerConnection
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse connections: %w", err)
	}

	connections := make([]models.Connection, 0, len(parsed))
	for _, p := range parsed {
		if p.Title == "" {
			p.Title = "Document Section"
		}
		if p.Document == "" {
			p.Document = sourceName
		}
		page := 1
		if len(p.Pages) > 0 {
			page = p.Pages[0]
		}
		connections = append(connections, models.Connection{
			Title:          p.Title,
			SourceDocument: sourceName,
			SourceHeading:  firstWords(selectedText, 10),
			TargetDocument: p.Document,
			TargetHeading:  p.Title,
			TargetPage:     page,
			Snippet:        firstWords(p.Snippet, snippetWordCap),
			Strength:       normalizeStrength(p.Strength),
		})
		if len(connections) == maxConnections {
			break
		}
	}

	// Pad below the minimum with deterministic placeholders.
	for i := len(connections); i < minConnections; i++ {
		connections = append(connections, models.Connection{
			Title:          fmt.Sprintf("Related Concept %d", i+1),
			SourceDocument: sourceName,
			SourceHeading:  firstWords(selectedText, 10),
			TargetDocument: sourceName,
			TargetPage:     1,
			Snippet:        "Additional related concept found. Further analysis needed.",
			Strength:       "low",
		})
	}

	return connections, nil
}

// summarize asks the provider for a 2-3 sentence connection summary; on any
// failure it returns a counted description instead.
func (s *Service) summarize(ctx context.Context, selectedText string, connections []models.Connection) string {
	var lines []string
	for _, conn := range connections {
		lines = append(lines, fmt.Sprintf("%s (%s strength): %s", conn.Title, conn.Strength, conn.Snippet))
	}

	userPrompt := fmt.Sprintf(`Selected text: %s

Connections found:
%s

Provide a 2-3 sentence summary of these cross-document connections:`, selectedText, strings.Join(lines, "\n"))

	summary, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Connection summary degraded to fallback")
		return fmt.Sprintf("Found %d cross-document connections related to the selected text.", len(connections))
	}
	return strings.TrimSpace(summary)
}

// fallbackConnections is the deterministic pair returned when the provider
// output is unusable.
func fallbackConnections(sourceName, selectedText string) []models.Connection {
	source := firstWords(selectedText, 10)
	return []models.Connection{
		{
			Title:          "Related Section",
			SourceDocument: sourceName,
			SourceHeading:  source,
			TargetDocument: sourceName,
			TargetPage:     1,
			Snippet:        "Related content identified. Detailed analysis pending.",
			Strength:       "medium",
		},
		{
			Title:          "Thematic Content",
			SourceDocument: sourceName,
			SourceHeading:  source,
			TargetDocument: sourceName,
			TargetPage:     1,
			Snippet:        "Common themes detected. Additional review required.",
			Strength:       "low",
		},
	}
}

func normalizeStrength(strength string) string {
	switch strings.ToLower(strings.TrimSpace(strength)) {
	case "high":
		return "high"
	case "low":
		return "low"
	default:
		return "medium"
	}
}

// firstWords truncates text to at most n whitespace-separated words.
func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

var _ interfaces.ConnectionService = (*Service)(nil)
