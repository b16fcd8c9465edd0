// -----------------------------------------------------------------------
// DAG planner - materializes one of three prebuilt plan shapes
// -----------------------------------------------------------------------

package planner

import (
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/models"
)

const defaultMaxRetries = 2

// taskSpec is one row of a plan shape
type taskSpec struct {
	kind      TaskKindSpec
	critical  bool
	estimated int
	deps      []int // Orders of prerequisite tasks
}

type TaskKindSpec struct {
	kind        models.TaskKind
	name        string
	description string
}

var (
	specFetch = TaskKindSpec{models.TaskFetchProfile, "Fetch profile",
		"Extract the professional profile from the submitted source"}
	specEnrich = TaskKindSpec{models.TaskEnrichProfile, "Enrich profile",
		"Scrape related public pages and collect code-hosting statistics"}
	specAggregate = TaskKindSpec{models.TaskAggregateHistory, "Aggregate history",
		"Merge raw records into one canonical profile"}
	specStructure = TaskKindSpec{models.TaskStructureJourney, "Structure journey",
		"Shape the profile into a narrative career journey"}
	specTimeline = TaskKindSpec{models.TaskGenerateTimeline, "Generate timeline",
		"Flatten the journey into renderable chronological events"}
	specDocumentary = TaskKindSpec{models.TaskGenerateDocumentary, "Generate documentary",
		"Script a short-form documentary from the journey"}
	specVideo = TaskKindSpec{models.TaskGenerateVideo, "Generate video",
		"Synthesize documentary segments into video"}
)

// The standard shape: a linear spine with a fan-out tail. Timeline and
// documentary both declare the fetch dependency explicitly alongside the
// journey one.
var standardShape = []taskSpec{
	{kind: specFetch, critical: true, estimated: 60},
	{kind: specEnrich, estimated: 90, deps: []int{1}},
	{kind: specAggregate, estimated: 45, deps: []int{2}},
	{kind: specStructure, estimated: 60, deps: []int{3}},
	{kind: specTimeline, estimated: 45, deps: []int{1, 4}},
	{kind: specDocumentary, estimated: 60, deps: []int{1, 4}},
}

// Documentary-only: reads the persisted profile and journey from the store
var documentaryShape = []taskSpec{
	{kind: specDocumentary, estimated: 60},
}

// Video-only: reads the persisted documentary from the store
var videoShape = []taskSpec{
	{kind: specVideo, estimated: 300},
}

// BuildPlan materializes the shape selected by the submission options
func BuildPlan(jobID string, source models.SourceRef, options models.PlanOptions) *models.Plan {
	shape := standardShape
	switch {
	case options.VideoOnly:
		shape = videoShape
	case options.DocumentaryOnly:
		shape = documentaryShape
	}

	plan := models.NewPlan(common.NewPlanID(), jobID, source, options)
	plan.Tasks = make([]*models.Task, 0, len(shape))
	for i, spec := range shape {
		order := i + 1
		deps := make([]string, 0, len(spec.deps))
		for _, depOrder := range spec.deps {
			deps = append(deps, common.TaskID(depOrder))
		}
		plan.Tasks = append(plan.Tasks, &models.Task{
			ID:               common.TaskID(order),
			Kind:             spec.kind.kind,
			Name:             spec.kind.name,
			Description:      spec.kind.description,
			Order:            order,
			Dependencies:     deps,
			Critical:         spec.critical,
			MaxRetries:       defaultMaxRetries,
			EstimatedSeconds: spec.estimated,
			Status:           models.TaskStatusPending,
		})
	}
	return plan
}
