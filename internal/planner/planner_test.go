package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/odyssey/internal/models"
)

func TestBuildPlan_StandardShape(t *testing.T) {
	plan := BuildPlan("prof_test", models.SourceRef{Kind: models.SourceKindURL, URL: "https://example.dev/me"}, models.PlanOptions{GuestID: "g1"})

	require.Len(t, plan.Tasks, 6)
	assert.NotEmpty(t, plan.PlanID)
	assert.Equal(t, "prof_test", plan.JobID)
	assert.Equal(t, models.PlanStatusPending, plan.Status)

	expected := []struct {
		id       string
		kind     models.TaskKind
		critical bool
		deps     []string
	}{
		{"task_001", models.TaskFetchProfile, true, []string{}},
		{"task_002", models.TaskEnrichProfile, false, []string{"task_001"}},
		{"task_003", models.TaskAggregateHistory, false, []string{"task_002"}},
		{"task_004", models.TaskStructureJourney, false, []string{"task_003"}},
		{"task_005", models.TaskGenerateTimeline, false, []string{"task_001", "task_004"}},
		{"task_006", models.TaskGenerateDocumentary, false, []string{"task_001", "task_004"}},
	}

	for i, want := range expected {
		task := plan.Tasks[i]
		assert.Equal(t, want.id, task.ID)
		assert.Equal(t, want.kind, task.Kind)
		assert.Equal(t, i+1, task.Order)
		assert.Equal(t, want.critical, task.Critical, "criticality of %s", want.id)
		assert.ElementsMatch(t, want.deps, task.Dependencies)
		assert.Equal(t, models.TaskStatusPending, task.Status)
		assert.Equal(t, 2, task.MaxRetries)
		assert.Greater(t, task.EstimatedSeconds, 0)
	}
}

func TestBuildPlan_DocumentaryOnly(t *testing.T) {
	plan := BuildPlan("prof_doc", models.SourceRef{Kind: models.SourceKindURL, URL: "https://example.dev/me"},
		models.PlanOptions{HistoryID: "hist_1", DocumentaryOnly: true})

	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, models.TaskGenerateDocumentary, plan.Tasks[0].Kind)
	assert.Empty(t, plan.Tasks[0].Dependencies)
	assert.False(t, plan.Tasks[0].Critical)
}

func TestBuildPlan_VideoOnly(t *testing.T) {
	plan := BuildPlan("prof_vid", models.SourceRef{Kind: models.SourceKindURL, URL: "https://example.dev/me"},
		models.PlanOptions{HistoryID: "hist_1", VideoOnly: true})

	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, models.TaskGenerateVideo, plan.Tasks[0].Kind)
	assert.Empty(t, plan.Tasks[0].Dependencies)
}

func TestBuildPlan_VideoOnlyWinsOverDocumentaryOnly(t *testing.T) {
	plan := BuildPlan("prof_both", models.SourceRef{Kind: models.SourceKindURL, URL: "https://example.dev/me"},
		models.PlanOptions{VideoOnly: true, DocumentaryOnly: true})

	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, models.TaskGenerateVideo, plan.Tasks[0].Kind)
}

func TestBuildPlan_UniqueOrders(t *testing.T) {
	plan := BuildPlan("prof_x", models.SourceRef{Kind: models.SourceKindURL, URL: "https://example.dev/me"}, models.PlanOptions{})

	seen := make(map[int]bool)
	for _, task := range plan.Tasks {
		assert.False(t, seen[task.Order], "duplicate order %d", task.Order)
		seen[task.Order] = true
	}
}
