// -----------------------------------------------------------------------
// AGGREGATE_HISTORY - merge the enriched profile with prior records
// -----------------------------------------------------------------------

package stages

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"github.com/ternarybob/odyssey/internal/services/ai"
)

// AggregateHandler reconciles the current enriched profile with the owner's
// prior history rows into one canonical merged profile, persisted to the
// history row. A first record with no scraped content skips the AI call.
type AggregateHandler struct {
	ai      interfaces.AIService
	history interfaces.HistoryStorage
	logger  arbor.ILogger
}

// NewAggregateHandler creates the aggregation stage
func NewAggregateHandler(deps Deps) *AggregateHandler {
	return &AggregateHandler{
		ai:      deps.AI,
		history: deps.History,
		logger:  deps.Logger,
	}
}

// Kind returns the task kind this handler executes
func (h *AggregateHandler) Kind() models.TaskKind { return models.TaskAggregateHistory }

// Execute merges current and prior records and persists the result
func (h *AggregateHandler) Execute(ctx context.Context, plan *models.Plan, task *models.Task, report interfaces.ProgressFunc) (models.Document, error) {
	current, ok := plan.Result(models.TaskEnrichProfile)
	if !ok {
		// Enrichment skipped or failed; fall back to the raw fetch output
		current, ok = plan.Result(models.TaskFetchProfile)
		if !ok {
			return nil, fmt.Errorf("no profile available to aggregate")
		}
	}

	historyID := plan.Options.HistoryID

	report(20, "Loading prior records")

	prior := h.priorRecords(ctx, plan.Options.GuestID, historyID)
	scraped := scrapedDocs(current)

	// First record with nothing scraped: the fetched profile already is the
	// canonical one.
	if len(prior) == 0 && len(scraped) == 0 {
		merged := copyDoc(current)
		merged["aggregated"] = false
		merged["first_record"] = true
		h.persist(ctx, historyID, plan.JobID, merged, current)
		return merged, nil
	}

	report(50, fmt.Sprintf("Merging %d prior records and %d scraped sources", len(prior), len(scraped)))

	merged, err := h.ai.GenerateStructured(ctx, ai.AggregatePrompt(current, prior, scraped), ai.ProfileSchema)
	if err != nil {
		return nil, fmt.Errorf("history aggregation failed: %w", err)
	}
	merged["aggregated"] = true
	merged["first_record"] = len(prior) == 0

	h.persist(ctx, historyID, plan.JobID, merged, current)

	h.logger.Info().
		Str("job_id", plan.JobID).
		Int("prior_records", len(prior)).
		Int("scraped_sources", len(scraped)).
		Msg("History aggregated")
	return merged, nil
}

// priorRecords loads the owner's other history rows, filtered to those
// carrying non-empty merged data. Store failures degrade to none.
func (h *AggregateHandler) priorRecords(ctx context.Context, ownerRef, excludeID string) []models.Document {
	if h.history == nil || ownerRef == "" {
		return nil
	}
	rows, err := h.history.ListByOwner(ctx, ownerRef)
	if err != nil {
		h.logger.Warn().Str("owner", ownerRef).Err(err).Msg("Failed to list prior records, aggregating without them")
		return nil
	}

	var records []models.Document
	for _, row := range rows {
		if row.ID == excludeID {
			continue
		}
		if doc, ok := row.Fields[models.FieldMerged]; ok && len(doc) > 0 {
			records = append(records, doc)
		} else if doc, ok := row.Fields[models.FieldRaw]; ok && len(doc) > 0 {
			records = append(records, doc)
		}
	}
	return records
}

// persist writes the merged document and the raw input to the history row.
// Persistence failures are logged, not fatal.
func (h *AggregateHandler) persist(ctx context.Context, historyID, jobID string, merged, raw models.Document) {
	if h.history == nil || historyID == "" {
		return
	}
	if err := h.history.WriteField(ctx, historyID, models.FieldMerged, merged); err != nil {
		h.logger.Error().Str("job_id", jobID).Str("history_id", historyID).Err(err).Msg("Failed to persist merged profile")
	}
	if err := h.history.WriteField(ctx, historyID, models.FieldRaw, raw); err != nil {
		h.logger.Error().Str("job_id", jobID).Str("history_id", historyID).Err(err).Msg("Failed to persist raw record")
	}
}

// scrapedDocs extracts the ranked scraped content attached by enrichment
func scrapedDocs(doc models.Document) []models.Document {
	switch v := doc[keyScrapedContent].(type) {
	case []models.Document:
		return v
	case []*models.ScrapedDoc:
		out := make([]models.Document, 0, len(v))
		for _, d := range v {
			if enc, err := encodeDoc(d); err == nil {
				out = append(out, enc)
			}
		}
		return out
	case []interface{}:
		out := make([]models.Document, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func copyDoc(doc models.Document) models.Document {
	out := make(models.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

var _ interfaces.StageHandler = (*AggregateHandler)(nil)
