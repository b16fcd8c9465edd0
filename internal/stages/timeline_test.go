package stages

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/odyssey/internal/models"
)

func TestTimeline_GeneratesAndFixesCategoryPresentation(t *testing.T) {
	// Model-chosen colors and icons must be overwritten by the fixed mapping
	ai := &fakeAI{structuredDoc: models.Document{
		"events": []interface{}{
			map[string]interface{}{
				"id": "evt_001", "date": "2015-06-01", "title": "Graduated",
				"category": "education", "color": "hotpink", "icon": "sparkles",
			},
			map[string]interface{}{
				"id": "evt_002", "date": "2015-09-01", "title": "First role",
				"category": "career",
			},
			map[string]interface{}{
				"id": "evt_003", "date": "2020-01-01", "title": "Unclassified",
				"category": "mystery",
			},
		},
		"eras": []interface{}{
			map[string]interface{}{"name": "Early years", "start_date": "2015-06-01", "end_date": "2020-01-01"},
		},
	}}
	history := newFakeHistory()
	history.addRow("hist_1", "g1", nil)
	h := NewTimelineHandler(testDeps(ai, nil, nil, history, nil, nil))

	plan := planWith("prof_1", models.PlanOptions{HistoryID: "hist_1"}, map[models.TaskKind]models.Document{
		models.TaskStructureJourney: journeyDoc(),
	})

	out, err := h.Execute(context.Background(), plan, plan.Task("task_005"), noProgress)
	require.NoError(t, err)

	var timeline models.Timeline
	require.NoError(t, decodeDoc(out, &timeline))
	require.Len(t, timeline.Events, 3)

	assert.Equal(t, "green", timeline.Events[0].Color)
	assert.Equal(t, "grad-cap", timeline.Events[0].Icon)
	assert.Equal(t, "blue", timeline.Events[1].Color)
	assert.Equal(t, "briefcase", timeline.Events[1].Icon)
	// Unknown categories fall back to the defaults
	assert.Equal(t, "blue", timeline.Events[2].Color)
	assert.Equal(t, "briefcase", timeline.Events[2].Icon)

	require.Len(t, timeline.Eras, 1)
	assert.NotEmpty(t, timeline.Eras[0].Color)

	assert.Equal(t, out, history.field("hist_1", models.FieldTimeline))
}

func TestTimeline_RequiresJourney(t *testing.T) {
	h := NewTimelineHandler(testDeps(&fakeAI{}, nil, nil, nil, nil, nil))
	plan := planWith("prof_1", models.PlanOptions{}, nil)

	_, err := h.Execute(context.Background(), plan, plan.Task("task_005"), noProgress)
	assert.Error(t, err)
}

func TestTimeline_GatewayErrorPropagates(t *testing.T) {
	ai := &fakeAI{structuredErr: fmt.Errorf("model overloaded")}
	h := NewTimelineHandler(testDeps(ai, nil, nil, nil, nil, nil))

	plan := planWith("prof_1", models.PlanOptions{}, map[models.TaskKind]models.Document{
		models.TaskStructureJourney: journeyDoc(),
	})

	_, err := h.Execute(context.Background(), plan, plan.Task("task_005"), noProgress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeline generation failed")
}
