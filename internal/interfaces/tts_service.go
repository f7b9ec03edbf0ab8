package interfaces

import (
	"context"

	"github.com/conspectus/conspectus/internal/models"
)

// TTSService synthesizes podcast scripts to audio. Implementations map
// speakers to voices; the noop implementation reports itself unavailable so
// script generation still works without any speech backend configured.
type TTSService interface {
	// Available reports whether audio synthesis is configured
	Available() bool

	// SynthesizeScript renders every segment and stitches the audio into
	// a single WAV payload
	SynthesizeScript(ctx context.Context, script *models.PodcastScript) ([]byte, error)
}
