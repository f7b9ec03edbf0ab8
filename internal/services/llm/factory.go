package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/conspectus/conspectus/internal/common"
	"github.com/conspectus/conspectus/internal/interfaces"
)

// NewLLMService creates the LLM service for the configured default provider.
// Provider selection is config-driven so insight services stay
// provider-agnostic.
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderGemini
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing LLM service")

	switch provider {
	case common.LLMProviderGemini:
		return NewGeminiService(&cfg.Gemini, logger)
	case common.LLMProviderClaude:
		return NewClaudeService(&cfg.Claude, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (must be 'gemini' or 'claude')", provider)
	}
}

// Compile-time interface checks
var (
	_ interfaces.LLMService = (*GeminiService)(nil)
	_ interfaces.LLMService = (*ClaudeService)(nil)
)
