// -----------------------------------------------------------------------
// Stage handlers - one per task kind, dispatched by the scheduler
// -----------------------------------------------------------------------

package stages

import (
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
)

// Output document keys attached by the enrichment stage
const (
	keyScrapedContent      = "scraped_content"
	keyEnrichmentStats     = "enrichment_stats"
	keyGitHubData          = "github_data"
	keyEnrichmentTimestamp = "enrichment_timestamp"
)

// Deps bundles the external collaborators stage handlers draw on. Handlers
// receive the full set and pick what they need; unit tests inject fakes.
type Deps struct {
	AI      interfaces.AIService
	Scraper interfaces.ScraperService
	GitHub  interfaces.GitHubService
	History interfaces.HistoryStorage
	Auth    interfaces.AuthStorage
	Blobs   interfaces.BlobStorage
	Video   *common.VideoConfig
	Logger  arbor.ILogger
}

// NewHandlers builds the dispatch table keyed by task kind
func NewHandlers(deps Deps) map[models.TaskKind]interfaces.StageHandler {
	handlers := []interfaces.StageHandler{
		NewFetchHandler(deps),
		NewEnrichHandler(deps),
		NewAggregateHandler(deps),
		NewStructureHandler(deps),
		NewTimelineHandler(deps),
		NewDocumentaryHandler(deps),
		NewVideoHandler(deps),
	}

	table := make(map[models.TaskKind]interfaces.StageHandler, len(handlers))
	for _, h := range handlers {
		table[h.Kind()] = h
	}
	return table
}

// decodeDoc converts an opaque document into a typed stage structure.
// Validation of AI output happens here, at the gateway boundary.
func decodeDoc(doc models.Document, out interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("document does not match expected shape: %w", err)
	}
	return nil
}

// encodeDoc converts a typed value back into the opaque document currency
func encodeDoc(v interface{}) (models.Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode value into document: %w", err)
	}
	return doc, nil
}

// profileFromPlan resolves the best available profile document for the
// downstream narrative stages: merged, then enriched, then fetched.
func profileFromPlan(plan *models.Plan) (models.Document, bool) {
	for _, kind := range []models.TaskKind{
		models.TaskAggregateHistory,
		models.TaskEnrichProfile,
		models.TaskFetchProfile,
	} {
		if doc, ok := plan.Result(kind); ok && len(doc) > 0 {
			return doc, true
		}
	}
	return nil, false
}

// stringAt reads a string field out of a document, tolerating absence
func stringAt(doc models.Document, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}
