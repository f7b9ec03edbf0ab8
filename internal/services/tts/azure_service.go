package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/common"
	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

// interSegmentSilenceMs is the pause inserted between speakers.
const interSegmentSilenceMs = 500

// outputFormat is the Azure synthesis format; the WAV stitcher depends on it.
const outputFormat = "riff-16khz-16bit-mono-pcm"

// speakerVoices maps script speakers to Azure neural voices.
var speakerVoices = map[string]string{
	"Host":     "en-US-JennyNeural",
	"Expert":   "en-US-GuyNeural",
	"Narrator": "en-US-AriaNeural",
}

const defaultVoice = "en-US-AriaNeural"

// AzureService synthesizes speech through the Azure Cognitive Services REST
// endpoint for the configured region.
type AzureService struct {
	config  *common.TTSConfig
	client  *http.Client
	timeout time.Duration
	logger  arbor.ILogger
}

// NewAzureService creates an Azure speech service from config
func NewAzureService(config *common.TTSConfig, logger arbor.ILogger) (*AzureService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("azure speech API key is required")
	}
	if config.Region == "" {
		return nil, fmt.Errorf("azure speech region is required")
	}

	timeout := 30 * time.Second
	if config.RequestTimeout != "" {
		parsed, err := time.ParseDuration(config.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid tts request_timeout: %w", err)
		}
		timeout = parsed
	}

	return &AzureService{
		config:  config,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Available reports whether synthesis is configured
func (s *AzureService) Available() bool {
	return true
}

// SynthesizeScript renders each segment with its speaker's voice and stitches
// the results into one WAV payload with 500ms pauses between speakers.
// A failed segment is skipped rather than failing the whole script.
func (s *AzureService) SynthesizeScript(ctx context.Context, script *models.PodcastScript) ([]byte, error) {
	if script == nil || len(script.Segments) == 0 {
		return nil, fmt.Errorf("script has no segments")
	}

	segments := make([][]byte, 0, len(script.Segments))
	for i, segment := range script.Segments {
		audio, err := s.synthesizeSegment(ctx, segment)
		if err != nil {
			s.logger.Warn().Err(err).
				Int("segment", i).
				Str("speaker", segment.Speaker).
				Msg("Skipping segment after synthesis failure")
			continue
		}
		segments = append(segments, audio)
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("all %d segments failed to synthesize", len(script.Segments))
	}

	return concatWAV(segments, interSegmentSilenceMs)
}

func (s *AzureService) synthesizeSegment(ctx context.Context, segment models.PodcastSegment) ([]byte, error) {
	voice, ok := speakerVoices[segment.Speaker]
	if !ok {
		voice = defaultVoice
	}

	ssml := fmt.Sprintf(
		`<speak version='1.0' xml:lang='en-US'><voice xml:lang='en-US' name='%s'>%s</voice></speak>`,
		voice, escapeXML(segment.Text))

	endpoint := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", s.config.Region)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.config.APIKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	req.Header.Set("User-Agent", "conspectus")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("synthesis returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return io.ReadAll(resp.Body)
}

func escapeXML(text string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(text)
}

// NoopService is used when no speech backend is configured: podcasts then
// ship transcript-only.
type NoopService struct{}

func (NoopService) Available() bool { return false }

func (NoopService) SynthesizeScript(ctx context.Context, script *models.PodcastScript) ([]byte, error) {
	return nil, fmt.Errorf("text-to-speech is not configured")
}

// NewService returns the Azure implementation when enabled and configured,
// the noop implementation otherwise.
func NewService(config *common.TTSConfig, logger arbor.ILogger) interfaces.TTSService {
	if !config.Enabled || config.APIKey == "" {
		logger.Info().Msg("Text-to-speech disabled, podcasts will be transcript-only")
		return NoopService{}
	}
	svc, err := NewAzureService(config, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Falling back to transcript-only podcasts")
		return NoopService{}
	}
	return svc
}

var (
	_ interfaces.TTSService = (*AzureService)(nil)
	_ interfaces.TTSService = NoopService{}
)
