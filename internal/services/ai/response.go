package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/odyssey/internal/models"
)

// parseJSONResponse decodes a model reply into a document, tolerating
// markdown code fences that grounded generations sometimes wrap around
// the JSON body.
func parseJSONResponse(text string) (models.Document, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil, fmt.Errorf("empty model response")
	}

	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	// Grounded replies occasionally prepend prose; recover the outermost object
	if !strings.HasPrefix(cleaned, "{") {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("model response contains no JSON object")
		}
		cleaned = cleaned[start : end+1]
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	return doc, nil
}
