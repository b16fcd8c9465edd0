// -----------------------------------------------------------------------
// GENERATE_DOCUMENTARY - script a short documentary from the journey
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

// DocumentaryHandler scripts the documentary from the structured journey.
// In a documentary-only plan the journey is read back from the store.
type DocumentaryHandler struct {
	ai      interfaces.AIService
	history interfaces.HistoryStorage
	logger  arbor.ILogger
}

// NewDocumentaryHandler creates the documentary scripting stage
func NewDocumentaryHandler(deps Deps) *DocumentaryHandler {
	return &DocumentaryHandler{
		ai:      deps.AI,
		history: deps.History,
		logger:  deps.Logger,
	}
}

// Kind returns the task kind this handler executes
func (h *DocumentaryHandler) Kind() models.TaskKind { return models.TaskGenerateDocumentary }

// Execute scripts the documentary and rejects unrenderable results
func (h *DocumentaryHandler) Execute(ctx context.Context, plan *models.Plan, task *models.Task, report interfaces.ProgressFunc) (models.Document, error) {
	journey, err := h.resolveJourney(ctx, plan)
	if err != nil {
		return nil, err
	}

	report(30, "Scripting documentary")

	doc, err := h.ai.GenerateStructured(ctx, ai.DocumentaryPrompt(journey), ai.DocumentarySchema)
	if err != nil {
		return nil, fmt.Errorf("documentary scripting failed: %w", err)
	}

	var script models.Documentary
	if err := decodeDoc(doc, &script); err != nil {
		return nil, fmt.Errorf("documentary document unusable: %w", err)
	}
	if len(script.Segments) == 0 {
		return nil, fmt.Errorf("documentary script has no segments")
	}
	if !script.HasRenderableSegment() {
		return nil, fmt.Errorf("no documentary segment has both narration and a visual description")
	}

	if h.history != nil && plan.Options.HistoryID != "" {
		if err := h.history.WriteField(ctx, plan.Options.HistoryID, models.FieldDocumentary, doc); err != nil {
			h.logger.Error().Str("job_id", plan.JobID).Err(err).Msg("Failed to persist documentary")
		}
	}

	h.logger.Info().
		Str("job_id", plan.JobID).
		Str("title", script.Title).
		Int("segments", len(script.Segments)).
		Msg("Documentary scripted")
	return doc, nil
}

// resolveJourney prefers the in-plan journey and falls back to the stored
// one for documentary-only plans.
func (h *DocumentaryHandler) resolveJourney(ctx context.Context, plan *models.Plan) (models.Document, error) {
	if journey, ok := plan.Result(models.TaskStructureJourney); ok {
		return journey, nil
	}

	if h.history == nil || plan.Options.HistoryID == "" {
		return nil, fmt.Errorf("no journey available for the documentary")
	}
	stored, err := h.history.ReadStructured(ctx, plan.Options.HistoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored journey: %w", err)
	}
	if journey, ok := stored[models.FieldJourney].(models.Document); ok && len(journey) > 0 {
		return journey, nil
	}
	// Last resort: script directly from the merged profile
	if merged, ok := stored[models.FieldMerged].(map[string]interface{}); ok && len(merged) > 0 {
		return merged, nil
	}
	return nil, fmt.Errorf("no stored journey or profile for history %s", plan.Options.HistoryID)
}

var _ interfaces.StageHandler = (*DocumentaryHandler)(nil)
