// -----------------------------------------------------------------------
// GENERATE_TIMELINE - flatten the journey into renderable events
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

// TimelineHandler converts the structured journey into a flat chronological
// timeline with the fixed category presentation applied.
type TimelineHandler struct {
	ai      interfaces.AIService
	history interfaces.HistoryStorage
	logger  arbor.ILogger
}

// NewTimelineHandler creates the timeline stage
func NewTimelineHandler(deps Deps) *TimelineHandler {
	return &TimelineHandler{
		ai:      deps.AI,
		history: deps.History,
		logger:  deps.Logger,
	}
}

// Kind returns the task kind this handler executes
func (h *TimelineHandler) Kind() models.TaskKind { return models.TaskGenerateTimeline }

// Execute generates and persists the timeline document
func (h *TimelineHandler) Execute(ctx context.Context, plan *models.Plan, task *models.Task, report interfaces.ProgressFunc) (models.Document, error) {
	journey, ok := plan.Result(models.TaskStructureJourney)
	if !ok {
		return nil, fmt.Errorf("no structured journey available for the timeline")
	}

	report(30, "Generating timeline")

	doc, err := h.ai.GenerateStructured(ctx, ai.TimelinePrompt(journey), ai.TimelineSchema)
	if err != nil {
		return nil, fmt.Errorf("timeline generation failed: %w", err)
	}

	var timeline models.Timeline
	if err := decodeDoc(doc, &timeline); err != nil {
		return nil, fmt.Errorf("timeline document unusable: %w", err)
	}

	// Category presentation is fixed, never model-chosen
	for i := range timeline.Events {
		timeline.Events[i].Color = models.CategoryColor(timeline.Events[i].Category)
		timeline.Events[i].Icon = models.CategoryIcon(timeline.Events[i].Category)
	}
	for i := range timeline.Eras {
		if timeline.Eras[i].Color == "" {
			timeline.Eras[i].Color = models.CategoryColor("")
		}
	}

	doc, err = encodeDoc(&timeline)
	if err != nil {
		return nil, err
	}

	if h.history != nil && plan.Options.HistoryID != "" {
		if err := h.history.WriteField(ctx, plan.Options.HistoryID, models.FieldTimeline, doc); err != nil {
			h.logger.Error().Str("job_id", plan.JobID).Err(err).Msg("Failed to persist timeline")
		}
	}

	h.logger.Info().
		Str("job_id", plan.JobID).
		Int("events", len(timeline.Events)).
		Int("eras", len(timeline.Eras)).
		Msg("Timeline generated")
	return doc, nil
}

var _ interfaces.StageHandler = (*TimelineHandler)(nil)
