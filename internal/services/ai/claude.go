// -----------------------------------------------------------------------
// Claude gateway - structured generation only (no video, no PDF parts)
// -----------------------------------------------------------------------

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
)

const claudeMaxTokens = 8192

// ClaudeService implements the text half of the AIService surface using
// the Anthropic API. Video synthesis and native PDF ingestion are not
// supported on this backend; plans that need them must run on Gemini.
type ClaudeService struct {
	config  *common.AIConfig
	logger  arbor.ILogger
	client  anthropic.Client
	timeout time.Duration
}

// NewClaudeService creates the Anthropic-backed gateway
func NewClaudeService(config *common.AIConfig, logger arbor.ILogger) (*ClaudeService, error) {
	if config.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ai.anthropic_api_key or ODYSSEY_ANTHROPIC_API_KEY)")
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid ai timeout '%s': %w", config.Timeout, err)
	}

	model := config.TextModel
	if model == "" || !strings.HasPrefix(model, "claude-") {
		model = "claude-sonnet-4-20250514"
	}
	config.TextModel = model

	client := anthropic.NewClient(
		option.WithAPIKey(config.AnthropicAPIKey),
	)

	logger.Info().
		Str("text_model", model).
		Dur("timeout", timeout).
		Msg("Claude AI gateway initialized")

	return &ClaudeService{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}, nil
}

// Provider returns the backend name
func (s *ClaudeService) Provider() string { return "anthropic" }

// GenerateStructured produces a JSON document. Claude has no native response
// schema enforcement, so the schema is marshaled into the prompt and the
// reply is parsed back out. Grounding tools are not available on this
// backend and are ignored with a warning.
func (s *ClaudeService) GenerateStructured(ctx context.Context, prompt string, schema interface{}, tools ...interfaces.AITool) (models.Document, error) {
	if len(tools) > 0 {
		s.logger.Warn().
			Int("tools", len(tools)).
			Msg("Grounding tools requested but not supported on the Anthropic backend; continuing without them")
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	full := prompt + "\n\nRespond with a single JSON object conforming to this schema, no prose:\n" + string(schemaJSON)

	start := time.Now()
	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.TextModel),
		MaxTokens: claudeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(full)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude generation failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("empty response from claude")
	}

	doc, err := parseJSONResponse(text.String())
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("model", s.config.TextModel).
		Dur("elapsed", time.Since(start)).
		Msg("Structured generation complete")
	return doc, nil
}

// GenerateFromPDF is not supported on the Anthropic backend
func (s *ClaudeService) GenerateFromPDF(ctx context.Context, pdf []byte, prompt string, schema interface{}) (models.Document, error) {
	return nil, fmt.Errorf("pdf ingestion is not supported on the anthropic backend; set ai.provider = \"gemini\"")
}

// GenerateVideoSegment is not supported on the Anthropic backend
func (s *ClaudeService) GenerateVideoSegment(ctx context.Context, req interfaces.VideoRequest) (*interfaces.VideoResult, error) {
	return nil, fmt.Errorf("video synthesis is not supported on the anthropic backend; set ai.provider = \"gemini\"")
}

// ConcatVideos merges segment bytes in order into one video
func (s *ClaudeService) ConcatVideos(ctx context.Context, segments [][]byte) ([]byte, error) {
	return concatVideos(ctx, segments)
}

// Close releases client resources
func (s *ClaudeService) Close() error { return nil }

var _ interfaces.AIService = (*ClaudeService)(nil)
