package stages

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/odyssey/internal/models"
)

func TestAggregate_FirstRecordWithoutScrapesSkipsAI(t *testing.T) {
	ai := &fakeAI{}
	history := newFakeHistory()
	history.addRow("hist_1", "g1", nil)
	h := NewAggregateHandler(testDeps(ai, nil, nil, history, nil, nil))

	enriched := models.Document{"name": "Jane Doe", "title": "Engineer"}
	plan := planWith("prof_1", models.PlanOptions{GuestID: "g1", HistoryID: "hist_1"}, map[models.TaskKind]models.Document{
		models.TaskEnrichProfile: enriched,
	})

	out, err := h.Execute(context.Background(), plan, plan.Task("task_003"), noProgress)
	require.NoError(t, err)

	assert.Empty(t, ai.prompts, "no AI call for a first record with nothing scraped")
	assert.Equal(t, false, out["aggregated"])
	assert.Equal(t, true, out["first_record"])
	assert.Equal(t, "Jane Doe", out["name"])
	// Enrichment output stays untouched
	_, mutated := enriched["aggregated"]
	assert.False(t, mutated)

	assert.NotNil(t, history.field("hist_1", models.FieldMerged))
	assert.NotNil(t, history.field("hist_1", models.FieldRaw))
}

func TestAggregate_MergesPriorRecords(t *testing.T) {
	ai := &fakeAI{structuredDoc: models.Document{"name": "Jane Doe", "skills": []interface{}{"Go", "SQL"}}}
	history := newFakeHistory()
	history.addRow("hist_1", "g1", nil)
	history.addRow("hist_0", "g1", map[string]models.Document{
		models.FieldMerged: {"name": "Jane Doe", "skills": []interface{}{"SQL"}},
	})
	h := NewAggregateHandler(testDeps(ai, nil, nil, history, nil, nil))

	plan := planWith("prof_1", models.PlanOptions{GuestID: "g1", HistoryID: "hist_1"}, map[models.TaskKind]models.Document{
		models.TaskEnrichProfile: {"name": "Jane Doe"},
	})

	out, err := h.Execute(context.Background(), plan, plan.Task("task_003"), noProgress)
	require.NoError(t, err)

	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], "Prior record 1")
	assert.Equal(t, true, out["aggregated"])
	assert.Equal(t, false, out["first_record"])

	merged := history.field("hist_1", models.FieldMerged)
	assert.Equal(t, true, merged["aggregated"])
}

func TestAggregate_ExcludesCurrentRowFromPriors(t *testing.T) {
	ai := &fakeAI{structuredDoc: models.Document{"name": "Jane"}}
	history := newFakeHistory()
	history.addRow("hist_1", "g1", map[string]models.Document{
		models.FieldMerged: {"name": "stale self"},
	})
	h := NewAggregateHandler(testDeps(ai, nil, nil, history, nil, nil))

	// Scraped content forces the AI path even with no priors
	plan := planWith("prof_1", models.PlanOptions{GuestID: "g1", HistoryID: "hist_1"}, map[models.TaskKind]models.Document{
		models.TaskEnrichProfile: {
			"name":           "Jane",
			keyScrapedContent: []interface{}{map[string]interface{}{"url": "https://a.dev", "content": "bio"}},
		},
	})

	out, err := h.Execute(context.Background(), plan, plan.Task("task_003"), noProgress)
	require.NoError(t, err)

	require.Len(t, ai.prompts, 1)
	assert.NotContains(t, ai.prompts[0], "stale self")
	assert.Contains(t, ai.prompts[0], "Scraped public sources")
	assert.Equal(t, true, out["first_record"], "own row does not count as a prior")
}

func TestAggregate_FallsBackToFetchOutput(t *testing.T) {
	ai := &fakeAI{}
	h := NewAggregateHandler(testDeps(ai, nil, nil, nil, nil, nil))

	plan := planWith("prof_1", models.PlanOptions{GuestID: "g1"}, map[models.TaskKind]models.Document{
		models.TaskFetchProfile: {"name": "Jane Doe"},
	})

	out, err := h.Execute(context.Background(), plan, plan.Task("task_003"), noProgress)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", out["name"])
}

func TestAggregate_NoProfileFails(t *testing.T) {
	h := NewAggregateHandler(testDeps(&fakeAI{}, nil, nil, nil, nil, nil))
	plan := planWith("prof_1", models.PlanOptions{}, nil)

	_, err := h.Execute(context.Background(), plan, plan.Task("task_003"), noProgress)
	assert.Error(t, err)
}

func TestAggregate_GatewayErrorPropagates(t *testing.T) {
	ai := &fakeAI{structuredErr: fmt.Errorf("model overloaded")}
	history := newFakeHistory()
	history.addRow("hist_0", "g1", map[string]models.Document{
		models.FieldMerged: {"name": "prior"},
	})
	history.addRow("hist_1", "g1", nil)
	h := NewAggregateHandler(testDeps(ai, nil, nil, history, nil, nil))

	plan := planWith("prof_1", models.PlanOptions{GuestID: "g1", HistoryID: "hist_1"}, map[models.TaskKind]models.Document{
		models.TaskEnrichProfile: {"name": "Jane"},
	})

	_, err := h.Execute(context.Background(), plan, plan.Task("task_003"), noProgress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history aggregation failed")
}
