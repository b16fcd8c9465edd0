package ai

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
)

// NewAIService creates the gateway selected by ai.provider. Gemini is the
// full-capability backend; Anthropic covers structured text generation only,
// so video plans on it fail at execution time with a clear error.
func NewAIService(config *common.AIConfig, logger arbor.ILogger) (interfaces.AIService, error) {
	switch config.Provider {
	case "gemini", "":
		return NewGeminiService(config, logger)
	case "anthropic":
		return NewClaudeService(config, logger)
	default:
		return nil, fmt.Errorf("unknown ai provider '%s': must be 'gemini' or 'anthropic'", config.Provider)
	}
}
