// -----------------------------------------------------------------------
// STRUCTURE_JOURNEY - shape the merged profile into a career narrative
// -----------------------------------------------------------------------

package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"github.com/ternarybob/odyssey/internal/services/ai"
)

// StructureHandler turns the best available profile into a structured
// journey narrative and persists it to the history row.
type StructureHandler struct {
	ai      interfaces.AIService
	history interfaces.HistoryStorage
	logger  arbor.ILogger
}

// NewStructureHandler creates the journey structuring stage
func NewStructureHandler(deps Deps) *StructureHandler {
	return &StructureHandler{
		ai:      deps.AI,
		history: deps.History,
		logger:  deps.Logger,
	}
}

// Kind returns the task kind this handler executes
func (h *StructureHandler) Kind() models.TaskKind { return models.TaskStructureJourney }

// Execute generates the journey narrative. Gateway errors propagate so the
// scheduler can retry them; a structurally empty reply after a successful
// call is unretryable and degrades to the minimal fallback document.
func (h *StructureHandler) Execute(ctx context.Context, plan *models.Plan, task *models.Task, report interfaces.ProgressFunc) (models.Document, error) {
	profile, ok := profileFromPlan(plan)
	if !ok {
		return nil, fmt.Errorf("no profile available to structure")
	}

	enrichment := models.Document{}
	if scraped, ok := profile[keyScrapedContent]; ok {
		enrichment[keyScrapedContent] = scraped
	}
	if gh, ok := profile[keyGitHubData]; ok {
		enrichment[keyGitHubData] = gh
	}

	report(30, "Structuring career journey")

	doc, err := h.ai.GenerateStructured(ctx, ai.JourneyPrompt(profile, enrichment), ai.JourneySchema)
	if err != nil {
		return nil, fmt.Errorf("journey structuring failed: %w", err)
	}

	var journey models.Journey
	if err := decodeDoc(doc, &journey); err != nil || strings.TrimSpace(journey.Summary.Headline) == "" {
		reason := "model returned an empty journey"
		if err != nil {
			reason = err.Error()
		}
		h.logger.Warn().Str("job_id", plan.JobID).Str("reason", reason).Msg("Journey unusable, synthesizing fallback")
		doc = fallbackJourney(profile, reason)
	}

	if h.history != nil && plan.Options.HistoryID != "" {
		if err := h.history.WriteField(ctx, plan.Options.HistoryID, models.FieldJourney, doc); err != nil {
			h.logger.Error().Str("job_id", plan.JobID).Err(err).Msg("Failed to persist journey")
		}
	}
	return doc, nil
}

// fallbackJourney synthesizes the minimal journey document from the bare
// profile when the model's reply could not be used.
func fallbackJourney(profile models.Document, reason string) models.Document {
	name := stringAt(profile, "name")
	headline := "A professional journey"
	if name != "" {
		headline = fmt.Sprintf("The professional journey of %s", name)
	}
	return models.Document{
		"summary": models.Document{
			"headline":    headline,
			"narrative":   "",
			"career_span": "",
			"key_themes":  []string{},
		},
		"milestones":       []models.Document{},
		"career_chapters":  []models.Document{},
		"skills_evolution": []models.Document{},
		"impact_metrics":   models.Document{},
		"error":            reason,
	}
}

var _ interfaces.StageHandler = (*StructureHandler)(nil)
