package interfaces

import (
	"context"

	"github.com/ternarybob/odyssey/internal/models"
)

// ProgressFunc reports a task's intermediate progress through the event bus.
// The scheduler records the values on the task under the plan lock, so
// status pollers snapshotting the plan never race a running handler; status
// transitions remain the scheduler's duty.
type ProgressFunc func(progress int, message string)

// StageHandler executes one task kind. Consumes prior stages' outputs from
// the plan's result map; any returned error is retry-accounted by the
// scheduler.
type StageHandler interface {
	Kind() models.TaskKind
	Execute(ctx context.Context, plan *models.Plan, task *models.Task, report ProgressFunc) (models.Document, error)
}
