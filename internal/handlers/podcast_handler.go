package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/interfaces"
	"github.com/conspectus/conspectus/internal/models"
)

// transcriptPreviewLimit caps the X-Transcript-Preview header length.
const transcriptPreviewLimit = 500

type PodcastHandler struct {
	podcastService interfaces.PodcastService
	logger         arbor.ILogger
}

func NewPodcastHandler(podcastService interfaces.PodcastService, logger arbor.ILogger) *PodcastHandler {
	return &PodcastHandler{
		podcastService: podcastService,
		logger:         logger,
	}
}

// GenerateAudioHandler handles POST /api/podcast/generate-audio. When a
// speech backend is configured the response body is the WAV audio with the
// transcript preview carried in headers; otherwise the script is returned
// as JSON with an empty audio URL.
func (h *PodcastHandler) GenerateAudioHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.PodcastRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	script, err := h.podcastService.GenerateScript(r.Context(), &req)
	if err != nil {
		h.logger.Error().Err(err).Msg("Podcast script generation failed")
		WriteError(w, http.StatusInternalServerError, "Failed to generate podcast script")
		return
	}

	audioPath, err := h.podcastService.GenerateAudio(r.Context(), req.DocumentID, script)
	if err != nil {
		h.logger.Error().Err(err).Msg("Podcast audio synthesis failed")
		WriteError(w, http.StatusInternalServerError, "Failed to synthesize podcast audio")
		return
	}

	if audioPath == "" {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"script":    script,
			"audio_url": "",
		})
		return
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		h.logger.Error().Err(err).Str("path", audioPath).Msg("Failed to read synthesized audio")
		WriteError(w, http.StatusInternalServerError, "Failed to read synthesized audio")
		return
	}

	// Header values must survive HTTP/1.1 transport, so the preview is
	// reduced to latin-1.
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("X-Audio-URL", path.Join("/static/audio", filepath.Base(audioPath)))
	w.Header().Set("X-Duration-Seconds", strconv.Itoa(script.DurationSeconds))
	w.Header().Set("X-Transcript-Preview", sanitizeHeaderValue(transcriptPreview(script)))
	if script.Fallback {
		w.Header().Set("X-Script-Fallback", "true")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

// transcriptPreview flattens script segments into "Speaker: text" lines and
// truncates to the preview limit.
func transcriptPreview(script *models.PodcastScript) string {
	var b strings.Builder
	for _, seg := range script.Segments {
		if b.Len() > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(seg.Speaker)
		b.WriteString(": ")
		b.WriteString(seg.Text)
		if b.Len() >= transcriptPreviewLimit {
			break
		}
	}
	preview := b.String()
	if len(preview) > transcriptPreviewLimit {
		preview = preview[:transcriptPreviewLimit]
	}
	return preview
}

// sanitizeHeaderValue replaces anything outside printable latin-1 with '?'.
func sanitizeHeaderValue(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 32 && r < 256 && r != 127 {
			out = append(out, r)
		} else {
			out = append(out, '?')
		}
	}
	return string(out)
}
