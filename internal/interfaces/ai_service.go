package interfaces

import (
	"context"

	"github.com/ternarybob/odyssey/internal/models"
)

// AITool names an optional capability attached to a structured generation call
type AITool string

const (
	// ToolWebSearch grounds generation in live web search results
	ToolWebSearch AITool = "web-search-grounding"
	// ToolURLContext lets the model read the referenced URL inline
	ToolURLContext AITool = "url-inline-context"
)

// VideoRequest describes one documentary segment synthesis call
type VideoRequest struct {
	Prompt        string
	DurationSecs  int
	Resolution    string
	AspectRatio   string
	ContinuityRef string // Opaque handle from the previous segment, empty for the first
}

// VideoResult is the outcome of one segment synthesis call
type VideoResult struct {
	Handle string // Opaque continuity reference for the next segment
	Bytes  []byte // Local video bytes, ready for blob upload and concatenation
}

// AIService is the single gateway abstraction over text/JSON generation,
// search-grounded generation, PDF ingestion, and video synthesis. Calls are
// long-latency; retry and timeout policy belongs to the scheduler, not here.
type AIService interface {
	// GenerateStructured produces a JSON document conforming to the given
	// provider-native schema. The schema is opaque to callers.
	GenerateStructured(ctx context.Context, prompt string, schema interface{}, tools ...AITool) (models.Document, error)

	// GenerateFromPDF extracts a structured document from resume bytes
	GenerateFromPDF(ctx context.Context, pdf []byte, prompt string, schema interface{}) (models.Document, error)

	// GenerateVideoSegment synthesizes one video segment, optionally chained
	// to a previous segment through its continuity reference
	GenerateVideoSegment(ctx context.Context, req VideoRequest) (*VideoResult, error)

	// ConcatVideos merges segment bytes, in order, into a single video
	ConcatVideos(ctx context.Context, segments [][]byte) ([]byte, error)

	// Provider returns the backend name for logging
	Provider() string

	// Close releases client resources
	Close() error
}
