// -----------------------------------------------------------------------
// Task - one node in a plan's stage DAG
// -----------------------------------------------------------------------

package models

import "time"

// TaskKind enumerates the closed set of pipeline stages
type TaskKind string

const (
	TaskFetchProfile        TaskKind = "fetch_profile"
	TaskEnrichProfile       TaskKind = "enrich_profile"
	TaskAggregateHistory    TaskKind = "aggregate_history"
	TaskStructureJourney    TaskKind = "structure_journey"
	TaskGenerateTimeline    TaskKind = "generate_timeline"
	TaskGenerateDocumentary TaskKind = "generate_documentary"
	TaskGenerateVideo       TaskKind = "generate_video"
)

// TaskStatus tracks a task through the scheduler's state machine
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusSkipped   TaskStatus = "skipped"
)

// Document is the opaque inter-stage currency at the AI gateway boundary.
// Typed stage outputs are converted to/from Documents when crossing it.
type Document = map[string]interface{}

// Task is one node in the DAG. Immutable planning fields are set by the
// planner; mutable runtime fields are owned by the scheduler (only Progress
// and Message may be set by a running handler).
type Task struct {
	// Planning fields (immutable after planning)
	ID               string   `json:"task_id"`
	Kind             TaskKind `json:"kind"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Order            int      `json:"order"` // >= 1, unique within a plan
	Dependencies     []string `json:"dependencies"`
	Critical         bool     `json:"critical"`
	MaxRetries       int      `json:"max_retries"`
	EstimatedSeconds int      `json:"estimated_seconds"`

	// Runtime fields
	Status      TaskStatus `json:"status"`
	Progress    int        `json:"progress"` // 0..100
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Outputs     Document   `json:"outputs,omitempty"`
}

// IsTerminal returns true once the task has finished for good
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted ||
		t.Status == TaskStatusFailed ||
		t.Status == TaskStatusSkipped
}

// MarkStarted transitions the task to running
func (t *Task) MarkStarted() {
	t.Status = TaskStatusRunning
	now := time.Now()
	t.StartedAt = &now
}

// MarkCompleted transitions the task to completed with full progress
func (t *Task) MarkCompleted(outputs Document) {
	t.Status = TaskStatusCompleted
	t.Progress = 100
	t.Outputs = outputs
	now := time.Now()
	t.CompletedAt = &now
}

// MarkFailed records the terminal failure
func (t *Task) MarkFailed(errMsg string) {
	t.Status = TaskStatusFailed
	t.Error = errMsg
	t.Message = errMsg
	now := time.Now()
	t.CompletedAt = &now
}

// MarkSkipped records that the task never ran because a dependency did not complete
func (t *Task) MarkSkipped(reason string) {
	t.Status = TaskStatusSkipped
	t.Message = reason
	now := time.Now()
	t.CompletedAt = &now
}

// TaskSnapshot is the wire representation published to subscribers and pollers
type TaskSnapshot struct {
	TaskID           string     `json:"task_id"`
	Kind             TaskKind   `json:"kind"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Order            int        `json:"order"`
	Status           TaskStatus `json:"status"`
	Progress         int        `json:"progress"`
	Message          string     `json:"message,omitempty"`
	Dependencies     []string   `json:"dependencies"`
	Error            string     `json:"error,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	EstimatedSeconds int        `json:"estimated_seconds"`
	Critical         bool       `json:"critical"`
}

// Snapshot copies the task into its wire form
func (t *Task) Snapshot() TaskSnapshot {
	deps := make([]string, len(t.Dependencies))
	copy(deps, t.Dependencies)
	return TaskSnapshot{
		TaskID:           t.ID,
		Kind:             t.Kind,
		Name:             t.Name,
		Description:      t.Description,
		Order:            t.Order,
		Status:           t.Status,
		Progress:         t.Progress,
		Message:          t.Message,
		Dependencies:     deps,
		Error:            t.Error,
		StartedAt:        t.StartedAt,
		CompletedAt:      t.CompletedAt,
		EstimatedSeconds: t.EstimatedSeconds,
		Critical:         t.Critical,
	}
}
