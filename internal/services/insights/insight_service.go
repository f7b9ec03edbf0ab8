package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

const (
	// maxRelatedSections caps the outline context handed to the provider.
	maxRelatedSections = 8

	// maxSourceDocuments caps per-insight attribution.
	maxSourceDocuments = 5

	// outlineHeadingsPerDocument limits supplemental context per document.
	outlineHeadingsPerDocument = 3
)

// AllInsightTypes is the default set generated when a request names none.
var AllInsightTypes = []models.InsightType{
	models.InsightKeyTakeaways,
	models.InsightContradictions,
	models.InsightExamples,
	models.InsightCrossReferences,
	models.InsightDidYouKnow,
}

// systemPrompts holds the per-type analyst persona.
var systemPrompts = map[models.InsightType]string{
	models.InsightKeyTakeaways:    `You are an expert content analyst with access to a document library. Your task is to identify the most important takeaways from the provided text and related sections while considering the broader context of available documents. Focus on actionable insights, practical advice, and core concepts that readers should remember. Always respond in plain text format - no markdown, bullets, or special formatting. Respond in 1-2 clear sentences that capture the essence of the content in relation to the document library.`,
	models.InsightContradictions:  `You are a critical analysis expert with access to a document library. Your task is to find discrepancies between different pieces of information, conflicting advice, or opposing viewpoints while considering the broader context of available documents. If no contradictions exist, explain how the content complements each other and maintains consistency. Be thorough and objective in your analysis. Always respond in plain text format - no markdown, bullets, or special formatting. Respond in 1-2 clear sentences.`,
	models.InsightExamples:        `You are a practical application specialist with access to a document library. Your task is to provide specific, actionable examples that demonstrate how the content can be applied in practice while considering the broader context of available documents. Create detailed scenarios that readers can relate to and implement. Make examples diverse and comprehensive. Always respond in plain text format - no markdown, bullets, or special formatting. Respond in 1-2 clear sentences with concrete examples.`,
	models.InsightCrossReferences: `You are a knowledge connection expert with access to a document library. Your task is to find connections, patterns, and relationships across different pieces of content within the available documents. Show how ideas link together, build upon each other, or create a coherent narrative across the document library. Always respond in plain text format - no markdown, bullets, or special formatting. Respond in 2-3 sentences that clearly explain the connections.`,
	models.InsightDidYouKnow:      `You are a fascinating facts curator with access to a document library. Your task is to identify intriguing, lesser-known facts or surprising aspects of the content while considering the broader context of available documents. Focus on information that would make readers say "I didn't know that!" and that relates to the document library. Make it engaging and memorable. Always respond in plain text format - no markdown, bullets, or special formatting. Respond in 2-3 sentences with fascinating insights.`,
}

// userPromptTails holds the per-type closing instruction.
var userPromptTails = map[models.InsightType]string{
	models.InsightKeyTakeaways:    "Based on the above content and considering the available documents in the library, provide the most important key takeaways that readers should remember:",
	models.InsightContradictions:  "Analyze the above content for contradictions or conflicts, considering the broader context of the document library:",
	models.InsightExamples:        "Provide practical examples based on this content, considering how it relates to other documents in the library:",
	models.InsightCrossReferences: "Identify connections and relationships between this content and other documents in the library:",
	models.InsightDidYouKnow:      "Generate fascinating facts from this content that relate to the broader document library:",
}

// relatedSection is one piece of library context feeding an insight prompt.
type relatedSection struct {
	document string
	heading  string
	content  string
	page     int
	strength string
}

// Service generates typed insights by combining the selection, the caller's
// connections, and outline context from the rest of the library. Results are
// persisted per document so repeat requests replay from the store.
type Service struct {
	docs   interfaces.DocumentService
	store  interfaces.InsightStorage
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewService creates an insight service
func NewService(docs interfaces.DocumentService, store interfaces.InsightStorage, llm interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{
		docs:   docs,
		store:  store,
		llm:    llm,
		logger: logger,
	}
}

// GenerateInsights produces one insight per requested type. A provider
// failure for one type yields a placeholder insight rather than failing
// the batch.
func (s *Service) GenerateInsights(ctx context.Context, req *models.InsightRequest) (*models.InsightResponse, error) {
	types := req.Types
	if len(types) == 0 {
		types = AllInsightTypes
	}
	for _, t := range types {
		if _, ok := systemPrompts[t]; !ok {
			return nil, fmt.Errorf("unknown insight type %q", t)
		}
	}

	sections, err := s.collectSections(ctx, req)
	if err != nil {
		return nil, err
	}
	sources := s.sourceDocuments(ctx, req, sections)

	relatedText := formatSections(sections)

	response := &models.InsightResponse{Insights: make([]models.Insight, 0, len(types))}
	for _, insightType := range types {
		content, err := s.generateOne(ctx, insightType, req.SelectedText, relatedText)
		if err != nil {
			s.logger.Warn().Err(err).Str("type", string(insightType)).Msg("Insight generation degraded")
			content = fmt.Sprintf("Unable to generate %s insight at this time.", insightType)
			response.Fallback = true
		}

		insight := models.Insight{
			DocumentID:      req.DocumentID,
			Type:            insightType,
			Content:         content,
			SourceDocuments: sources,
		}
		if req.DocumentID != "" {
			if err := s.store.SaveInsight(&insight); err != nil {
				s.logger.Warn().Err(err).Str("doc_id", req.DocumentID).Msg("Failed to cache insight")
			}
		}
		response.Insights = append(response.Insights, insight)
	}

	return response, nil
}

// collectSections builds the related-section context: the caller's
// connections first, then up to three headings from every other document,
// prioritized by strength and document diversity.
func (s *Service) collectSections(ctx context.Context, req *models.InsightRequest) ([]relatedSection, error) {
	var sections []relatedSection

	for _, conn := range req.Connections {
		sections = append(sections, relatedSection{
			document: conn.TargetDocument,
			heading:  conn.TargetHeading,
			content:  conn.Snippet,
			page:     conn.TargetPage,
			strength: conn.Strength,
		})
	}

	docs, err := s.docs.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	for _, doc := range docs {
		if doc.ID == req.DocumentID || !doc.HasOutline {
			continue
		}
		outline, err := s.docs.GetOutline(ctx, doc.ID)
		if err != nil {
			continue
		}
		for i, heading := range outline.Outline {
			if i >= outlineHeadingsPerDocument {
				break
			}
			sections = append(sections, relatedSection{
				document: doc.Filename,
				heading:  heading.Text,
				content:  fmt.Sprintf("Section from %s: %s", doc.Filename, heading.Text),
				page:     heading.Page,
				strength: "medium",
			})
		}
	}

	return prioritize(sections), nil
}

// prioritize keeps high-strength sections first, then fills remaining slots
// with sections from documents not yet represented.
func prioritize(sections []relatedSection) []relatedSection {
	seen := make(map[string]bool)
	out := make([]relatedSection, 0, maxRelatedSections)

	for _, section := range sections {
		if section.strength == "high" && len(out) < maxRelatedSections {
			out = append(out, section)
			seen[section.document] = true
		}
	}
	for _, section := range sections {
		if section.strength == "high" {
			continue
		}
		if !seen[section.document] && len(out) < maxRelatedSections {
			out = append(out, section)
			seen[section.document] = true
		}
	}
	return out
}

// sourceDocuments attributes the insight to the primary document plus the
// distinct documents contributing context, capped at five.
func (s *Service) sourceDocuments(ctx context.Context, req *models.InsightRequest, sections []relatedSection) []string {
	var sources []string
	seen := make(map[string]bool)

	if req.DocumentID != "" {
		if doc, err := s.docs.Get(ctx, req.DocumentID); err == nil {
			sources = append(sources, doc.Filename)
			seen[doc.Filename] = true
		}
	}
	for _, section := range sections {
		if len(sources) >= maxSourceDocuments {
			break
		}
		if section.document != "" && !seen[section.document] {
			sources = append(sources, section.document)
			seen[section.document] = true
		}
	}
	return sources
}

func (s *Service) generateOne(ctx context.Context, insightType models.InsightType, selectedText, relatedText string) (string, error) {
	userPrompt := fmt.Sprintf(`Selected text: %s

Related sections:
%s

%s`, selectedText, relatedText, userPromptTails[insightType])

	content, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: systemPrompts[insightType]},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return "", err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("empty %s response", insightType)
	}
	return content, nil
}

func formatSections(sections []relatedSection) string {
	if len(sections) == 0 {
		return "No related sections available."
	}
	parts := make([]string, 0, len(sections))
	for _, section := range sections {
		parts = append(parts, fmt.Sprintf("From %s, %s (p.%d):\n%s",
			section.document, section.heading, section.page, section.content))
	}
	return strings.Join(parts, "\n\n")
}

var _ interfaces.InsightService = (*Service)(nil)
