// -----------------------------------------------------------------------
// Gemini gateway - structured generation, PDF ingestion, Veo video
// -----------------------------------------------------------------------

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"google.golang.org/genai"
)

const videoPollInterval = 10 * time.Second

// GeminiService implements the full AIService surface: structured JSON with
// optional search grounding and URL context, PDF ingestion, and Veo video
// synthesis with cross-segment continuity.
type GeminiService struct {
	config  *common.AIConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiService creates the Gemini-backed gateway
func NewGeminiService(config *common.AIConfig, logger arbor.ILogger) (*GeminiService, error) {
	if config.GoogleAPIKey == "" {
		return nil, fmt.Errorf("Google API key is required (set ai.google_api_key or ODYSSEY_GOOGLE_API_KEY)")
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid ai timeout '%s': %w", config.Timeout, err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.GoogleAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Info().
		Str("text_model", config.TextModel).
		Str("video_model", config.VideoModel).
		Dur("timeout", timeout).
		Msg("Gemini AI gateway initialized")

	return &GeminiService{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}, nil
}

// Provider returns the backend name
func (s *GeminiService) Provider() string { return "gemini" }

// GenerateStructured produces a JSON document conforming to the schema.
// Recognised tools attach GoogleSearch grounding and URL context.
func (s *GeminiService) GenerateStructured(ctx context.Context, prompt string, schema interface{}, tools ...interfaces.AITool) (models.Document, error) {
	geminiSchema, ok := schema.(*genai.Schema)
	if !ok {
		return nil, fmt.Errorf("gemini gateway requires a *genai.Schema, got %T", schema)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{}
	var geminiTools []*genai.Tool
	for _, tool := range tools {
		switch tool {
		case interfaces.ToolWebSearch:
			geminiTools = append(geminiTools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
		case interfaces.ToolURLContext:
			geminiTools = append(geminiTools, &genai.Tool{URLContext: &genai.URLContext{}})
		default:
			return nil, fmt.Errorf("unknown ai tool: %s", tool)
		}
	}

	// Gemini rejects ResponseSchema together with search grounding; when
	// tools are attached the schema is inlined into the prompt instead.
	if len(geminiTools) > 0 {
		config.Tools = geminiTools
		prompt = prompt + "\n\nRespond with a single JSON object conforming to this schema, no prose:\n" + schemaAsJSON(geminiSchema)
	} else {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = geminiSchema
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	start := time.Now()
	resp, err := s.client.Models.GenerateContent(ctx, s.config.TextModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	doc, err := parseJSONResponse(resp.Text())
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("model", s.config.TextModel).
		Int("tools", len(geminiTools)).
		Dur("elapsed", time.Since(start)).
		Msg("Structured generation complete")
	return doc, nil
}

// GenerateFromPDF extracts a structured document from resume bytes
func (s *GeminiService) GenerateFromPDF(ctx context.Context, pdf []byte, prompt string, schema interface{}) (models.Document, error) {
	geminiSchema, ok := schema.(*genai.Schema)
	if !ok {
		return nil, fmt.Errorf("gemini gateway requires a *genai.Schema, got %T", schema)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromBytes(pdf, "application/pdf"),
			genai.NewPartFromText(prompt),
		},
	}}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiSchema,
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.config.TextModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini pdf extraction failed: %w", err)
	}
	return parseJSONResponse(resp.Text())
}

// GenerateVideoSegment synthesizes one segment with Veo. The continuity
// reference is the previous segment's video URI, passed back as the source
// video so successive segments share visual identity.
func (s *GeminiService) GenerateVideoSegment(ctx context.Context, req interfaces.VideoRequest) (*interfaces.VideoResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	source := &genai.GenerateVideosSource{Prompt: req.Prompt}
	if req.ContinuityRef != "" {
		source.Video = &genai.Video{URI: req.ContinuityRef}
	}

	duration := int32(req.DurationSecs)
	config := &genai.GenerateVideosConfig{
		NumberOfVideos:  1,
		DurationSeconds: &duration,
		AspectRatio:     req.AspectRatio,
		Resolution:      req.Resolution,
	}

	op, err := s.client.Models.GenerateVideosFromSource(ctx, s.config.VideoModel, source, config)
	if err != nil {
		return nil, fmt.Errorf("veo generation failed to start: %w", err)
	}

	for !op.Done {
		timer := time.NewTimer(videoPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		op, err = s.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, fmt.Errorf("veo operation poll failed: %w", err)
		}
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return nil, fmt.Errorf("veo operation finished with no video")
	}

	video := op.Response.GeneratedVideos[0].Video
	data := video.VideoBytes
	if len(data) == 0 {
		data, err = s.client.Files.Download(ctx, video, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to download generated video: %w", err)
		}
	}

	s.logger.Info().
		Str("model", s.config.VideoModel).
		Int("bytes", len(data)).
		Bool("chained", req.ContinuityRef != "").
		Msg("Video segment generated")

	return &interfaces.VideoResult{Handle: video.URI, Bytes: data}, nil
}

// ConcatVideos merges segment bytes in order into one video
func (s *GeminiService) ConcatVideos(ctx context.Context, segments [][]byte) ([]byte, error) {
	return concatVideos(ctx, segments)
}

// Close releases client resources
func (s *GeminiService) Close() error { return nil }

func schemaAsJSON(schema *genai.Schema) string {
	data, err := json.Marshal(schema)
	if err != nil {
		return "{}"
	}
	return string(data)
}

var _ interfaces.AIService = (*GeminiService)(nil)
