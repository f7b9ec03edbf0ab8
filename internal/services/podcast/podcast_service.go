package podcast

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

// durationTargets maps the length presets to target seconds.
var durationTargets = map[string]int{
	"short":  120,
	"medium": 210,
	"long":   300,
}

// wordsPerMinute drives the spoken-duration estimate.
const wordsPerMinute = 150

const dialogueSystemPrompt = `You are a professional podcast script writer with access to a document library. Your task is to write dialogue between a Host (who asks questions) and an Expert (who provides detailed answers) while incorporating relevant information from the available documents. Make the conversation flow naturally with realistic speech patterns. The Host should be curious and ask insightful follow-up questions. The Expert should be knowledgeable, provide clear explanations, and reference the document library when relevant. Always format your response as valid JSON with speaker and text fields. Keep the dialogue relevant to the uploaded documents.`

const overviewSystemPrompt = `You are a professional audio content creator with access to a document library. Your task is to create smooth, informative overview scripts that sound natural when read aloud while incorporating relevant information from the available documents. Use transitions that flow well and maintain listener engagement throughout. Always format your response as valid JSON. Reference relevant documents from the library in your narration.`

// Service generates podcast scripts through the LLM and, when a speech
// backend is configured, renders them to WAV files in the audio directory.
// Scripts are cached per document and length preset.
type Service struct {
	llm      interfaces.LLMService
	tts      interfaces.TTSService
	store    interfaces.PodcastStorage
	audioDir string
	logger   arbor.ILogger
}

// NewService creates a podcast service
func NewService(llm interfaces.LLMService, tts interfaces.TTSService, store interfaces.PodcastStorage, audioDir string, logger arbor.ILogger) (*Service, error) {
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	return &Service{
		llm:      llm,
		tts:      tts,
		store:    store,
		audioDir: audioDir,
		logger:   logger,
	}, nil
}

// GenerateScript builds the conversation script for a selection. Unusable
// provider output degrades to a scripted fallback instead of failing.
func (s *Service) GenerateScript(ctx context.Context, req *models.PodcastRequest) (*models.PodcastScript, error) {
	length := req.Duration
	if _, ok := durationTargets[length]; !ok {
		length = "medium"
	}
	format := req.Format
	if format != "overview" {
		format = "podcast"
	}

	// Replay a cached script for the same document and preset.
	if req.DocumentID != "" {
		if cached, err := s.store.GetScript(req.DocumentID, length); err == nil && cached != nil {
			s.logger.Debug().Str("doc_id", req.DocumentID).Str("length", length).Msg("Podcast script served from cache")
			return cached, nil
		}
	}

	script := s.generate(ctx, req, format, length)
	script.DurationSeconds = estimateDuration(script.Segments)

	if req.DocumentID != "" && !script.Fallback {
		if err := s.store.SaveScript(req.DocumentID, length, script); err != nil {
			s.logger.Warn().Err(err).Str("doc_id", req.DocumentID).Msg("Failed to cache podcast script")
		}
	}

	return script, nil
}

// GenerateAudio synthesizes the script into a single WAV file under the
// audio directory and returns its path. Without a configured speech backend
// the path is empty and the transcript stands alone.
func (s *Service) GenerateAudio(ctx context.Context, documentID string, script *models.PodcastScript) (string, error) {
	if !s.tts.Available() {
		return "", nil
	}

	audio, err := s.tts.SynthesizeScript(ctx, script)
	if err != nil {
		return "", fmt.Errorf("audio synthesis failed: %w", err)
	}

	name := fmt.Sprintf("podcast_%s_%d.wav", sanitizeID(documentID), len(script.Segments))
	path := filepath.Join(s.audioDir, name)
	if err := os.WriteFile(path, audio, 0644); err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	s.logger.Info().
		Str("doc_id", documentID).
		Str("path", path).
		Int("bytes", len(audio)).
		Msg("Podcast audio generated")

	return path, nil
}

func (s *Service) generate(ctx context.Context, req *models.PodcastRequest, format, length string) *models.PodcastScript {
	target := durationTargets[length]
	userPrompt := s.buildUserPrompt(req, format, target)

	system := dialogueSystemPrompt
	if format == "overview" {
		system = overviewSystemPrompt
	}

	raw, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Podcast script degraded to fallback")
		return fallbackScript(format, req.SelectedText)
	}

	segments, err := parseSegments(raw)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Podcast script response unparseable, wrapping raw text")
		return wrapRawResponse(format, raw)
	}

	return &models.PodcastScript{Segments: segments}
}

func (s *Service) buildUserPrompt(req *models.PodcastRequest, format string, targetSeconds int) string {
	targetWords := targetSeconds * wordsPerMinute / 60

	var connectionLines []string
	for _, conn := range req.Connections {
		connectionLines = append(connectionLines, fmt.Sprintf("%s (%s): %s", conn.Title, conn.TargetDocument, conn.Snippet))
	}
	var insightLines []string
	for _, insight := range req.Insights {
		insightLines = append(insightLines, fmt.Sprintf("%s: %s", insight.Type, insight.Content))
	}

	shape := `Format as JSON array with objects containing:
- "speaker": "Host" or "Expert"
- "text": what they say`
	if format == "overview" {
		shape = `Format as JSON array with a single object:
- "speaker": "Narrator"
- "text": the complete narration`
	}

	return fmt.Sprintf(`Create an audio script of roughly %d seconds (about %d words) about this topic, incorporating relevant information from the document library:

Main topic: %s

Related information:
%s

Key insights:
%s

%s

Make sure to reference relevant documents from the library.`,
		targetSeconds, targetWords, req.SelectedText,
		orNone(connectionLines), orNone(insightLines), shape)
}

// parseSegments extracts the JSON array (or single object) from a possibly
// chatty response.
func parseSegments(raw string) ([]models.PodcastSegment, error) {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")

	var segments []models.PodcastSegment
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &segments); err != nil {
			return nil, fmt.Errorf("failed to parse script array: %w", err)
		}
	} else {
		// Some providers return one bare object instead of an array.
		var single models.PodcastSegment
		objStart := strings.Index(raw, "{")
		objEnd := strings.LastIndex(raw, "}")
		if objStart < 0 || objEnd <= objStart {
			return nil, fmt.Errorf("no JSON in script response")
		}
		if err := json.Unmarshal([]byte(raw[objStart:objEnd+1]), &single); err != nil {
			return nil, fmt.Errorf("failed to parse script object: %w", err)
		}
		segments = []models.PodcastSegment{single}
	}

	cleaned := segments[:0]
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		if seg.Speaker == "" {
			seg.Speaker = "Narrator"
		}
		cleaned = append(cleaned, seg)
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("script response had no spoken segments")
	}
	return cleaned, nil
}

// wrapRawResponse salvages a non-JSON reply by speaking it verbatim.
func wrapRawResponse(format, raw string) *models.PodcastScript {
	raw = strings.TrimSpace(raw)
	if format == "overview" {
		return &models.PodcastScript{
			Segments: []models.PodcastSegment{{Speaker: "Narrator", Text: raw}},
			Fallback: true,
		}
	}
	return &models.PodcastScript{
		Segments: []models.PodcastSegment{
			{Speaker: "Host", Text: "Today we're discussing an interesting topic from our document library."},
			{Speaker: "Expert", Text: raw},
		},
		Fallback: true,
	}
}

// fallbackScript covers total provider failure with a minimal scripted
// exchange.
func fallbackScript(format, topic string) *models.PodcastScript {
	if format == "overview" {
		return &models.PodcastScript{
			Segments: []models.PodcastSegment{{
				Speaker: "Narrator",
				Text:    fmt.Sprintf("This overview covers %s, drawing on the documents in the library. Generation is currently limited, so please try again shortly for the full narration.", topic),
			}},
			Fallback: true,
		}
	}
	return &models.PodcastScript{
		Segments: []models.PodcastSegment{
			{Speaker: "Host", Text: fmt.Sprintf("Welcome back. Today we're looking at %s.", topic)},
			{Speaker: "Expert", Text: "The full conversation isn't available right now, but the document library has the detailed sections on this topic."},
		},
		Fallback: true,
	}
}

// estimateDuration converts total word count to seconds at 150 words per
// minute.
func estimateDuration(segments []models.PodcastSegment) int {
	words := 0
	for _, seg := range segments {
		words += len(strings.Fields(seg.Text))
	}
	return words * 60 / wordsPerMinute
}

func orNone(lines []string) string {
	if len(lines) == 0 {
		return "None available."
	}
	return strings.Join(lines, "\n")
}

func sanitizeID(id string) string {
	if id == "" {
		return "adhoc"
	}
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			return r
		}
		return '-'
	}, id)
}

var _ interfaces.PodcastService = (*Service)(nil)
