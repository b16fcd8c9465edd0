package stages

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/odyssey/internal/models"
)

func journeyDoc() models.Document {
	return models.Document{
		"summary": map[string]interface{}{
			"headline":  "From intern to staff engineer",
			"narrative": "A decade of steady growth.",
		},
		"milestones": []interface{}{},
	}
}

func TestStructure_GeneratesJourney(t *testing.T) {
	ai := &fakeAI{structuredDoc: journeyDoc()}
	history := newFakeHistory()
	history.addRow("hist_1", "g1", nil)
	h := NewStructureHandler(testDeps(ai, nil, nil, history, nil, nil))

	plan := planWith("prof_1", models.PlanOptions{HistoryID: "hist_1"}, map[models.TaskKind]models.Document{
		models.TaskAggregateHistory: {"name": "Jane Doe"},
	})

	out, err := h.Execute(context.Background(), plan, plan.Task("task_004"), noProgress)
	require.NoError(t, err)
	assert.Equal(t, journeyDoc(), out)

	// Journey persisted to the history row
	assert.Equal(t, journeyDoc(), history.field("hist_1", models.FieldJourney))
}

func TestStructure_GatewayErrorPropagatesForRetry(t *testing.T) {
	ai := &fakeAI{structuredErr: fmt.Errorf("model overloaded")}
	h := NewStructureHandler(testDeps(ai, nil, nil, nil, nil, nil))

	plan := planWith("prof_1", models.PlanOptions{}, map[models.TaskKind]models.Document{
		models.TaskAggregateHistory: {"name": "Jane Doe"},
	})

	_, err := h.Execute(context.Background(), plan, plan.Task("task_004"), noProgress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journey structuring failed")
}

func TestStructure_EmptyReplySynthesizesFallback(t *testing.T) {
	// A successful call whose document has no headline is unretryable
	ai := &fakeAI{structuredDoc: models.Document{"summary": map[string]interface{}{"headline": "  "}}}
	h := NewStructureHandler(testDeps(ai, nil, nil, nil, nil, nil))

	plan := planWith("prof_1", models.PlanOptions{}, map[models.TaskKind]models.Document{
		models.TaskAggregateHistory: {"name": "Jane Doe"},
	})

	out, err := h.Execute(context.Background(), plan, plan.Task("task_004"), noProgress)
	require.NoError(t, err)

	summary, ok := out["summary"].(models.Document)
	require.True(t, ok)
	assert.Equal(t, "The professional journey of Jane Doe", summary["headline"])
	assert.NotEmpty(t, out["error"])
}

func TestStructure_PrefersMergedOverFetched(t *testing.T) {
	var gotPrompt string
	ai := &fakeAI{structured: func(prompt string) (models.Document, error) {
		gotPrompt = prompt
		return journeyDoc(), nil
	}}
	h := NewStructureHandler(testDeps(ai, nil, nil, nil, nil, nil))

	plan := planWith("prof_1", models.PlanOptions{}, map[models.TaskKind]models.Document{
		models.TaskFetchProfile:     {"name": "Fetched Name"},
		models.TaskAggregateHistory: {"name": "Merged Name"},
	})

	_, err := h.Execute(context.Background(), plan, plan.Task("task_004"), noProgress)
	require.NoError(t, err)
	assert.Contains(t, gotPrompt, "Merged Name")
	assert.NotContains(t, gotPrompt, "Fetched Name")
}

func TestStructure_NoProfileFails(t *testing.T) {
	h := NewStructureHandler(testDeps(&fakeAI{}, nil, nil, nil, nil, nil))
	plan := planWith("prof_1", models.PlanOptions{}, nil)

	_, err := h.Execute(context.Background(), plan, plan.Task("task_004"), noProgress)
	assert.Error(t, err)
}
