package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTask(order int, kind TaskKind, critical bool) *Task {
	return &Task{
		ID:         fmt.Sprintf("task_%03d", order),
		Kind:       kind,
		Order:      order,
		Critical:   critical,
		MaxRetries: 2,
		Status:     TaskStatusPending,
	}
}

func sixTaskPlan() *Plan {
	plan := NewPlan("plan_1", "prof_1", SourceRef{Kind: SourceKindURL, URL: "https://example.dev"}, PlanOptions{})
	kinds := []TaskKind{
		TaskFetchProfile, TaskEnrichProfile, TaskAggregateHistory,
		TaskStructureJourney, TaskGenerateTimeline, TaskGenerateDocumentary,
	}
	for i, kind := range kinds {
		plan.Tasks = append(plan.Tasks, testTask(i+1, kind, i == 0))
	}
	return plan
}

func TestPlanProgressCountsOnlyCompleted(t *testing.T) {
	plan := sixTaskPlan()

	for _, id := range []string{"task_001", "task_002", "task_003"} {
		plan.Task(id).MarkStarted()
		plan.Task(id).MarkCompleted(Document{})
	}
	plan.Task("task_004").MarkFailed("gateway down")
	plan.Task("task_005").MarkSkipped("dependency task_004 did not complete")
	plan.Task("task_006").MarkSkipped("dependency task_004 did not complete")

	assert.Equal(t, 3, plan.CompletedCount())
	assert.Equal(t, 6, plan.TerminalCount())

	plan.Lock()
	plan.RecalcProgress()
	plan.Unlock()
	assert.Equal(t, 50, plan.Progress, "failed and skipped tasks never count toward progress")

	snap := plan.Snapshot()
	assert.Equal(t, 3, snap.CompletedTasks)
	assert.Equal(t, 6, snap.TotalTasks)
}

func TestPlanMarkCompletedForcesFullProgress(t *testing.T) {
	plan := sixTaskPlan()
	plan.Task("task_004").MarkFailed("gateway down")

	plan.Lock()
	plan.MarkCompleted()
	plan.Unlock()

	assert.Equal(t, PlanStatusCompleted, plan.Status)
	assert.Equal(t, 100, plan.Progress)
	require.NotNil(t, plan.CompletedAt)
	assert.True(t, plan.IsTerminal())
}

func TestPlanResults(t *testing.T) {
	plan := sixTaskPlan()

	_, ok := plan.Result(TaskFetchProfile)
	assert.False(t, ok)

	plan.SetResult(TaskFetchProfile, Document{"name": "Jane"})
	doc, ok := plan.Result(TaskFetchProfile)
	require.True(t, ok)
	assert.Equal(t, "Jane", doc["name"])

	all := plan.Results()
	assert.Len(t, all, 1)

	// The returned map is a copy; mutating it does not touch the plan
	delete(all, TaskFetchProfile)
	_, ok = plan.Result(TaskFetchProfile)
	assert.True(t, ok)
}

func TestTaskLifecycle(t *testing.T) {
	task := testTask(1, TaskFetchProfile, true)
	assert.Equal(t, "task_001", task.ID)
	assert.Equal(t, TaskStatusPending, task.Status)
	assert.False(t, task.IsTerminal())

	task.MarkStarted()
	assert.Equal(t, TaskStatusRunning, task.Status)
	assert.NotNil(t, task.StartedAt)

	task.MarkCompleted(Document{"k": "v"})
	assert.Equal(t, TaskStatusCompleted, task.Status)
	assert.Equal(t, 100, task.Progress)
	assert.True(t, task.IsTerminal())
	assert.NotNil(t, task.CompletedAt)
}
