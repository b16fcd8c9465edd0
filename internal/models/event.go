package models

import "time"

// EventKind enumerates the progress events published per job
type EventKind string

const (
	EventConnected     EventKind = "connected"
	EventPlanStarted   EventKind = "plan_started"
	EventTaskStarted   EventKind = "task_started"
	EventTaskProgress  EventKind = "task_progress"
	EventTaskCompleted EventKind = "task_completed"
	EventTaskRetrying  EventKind = "task_retrying"
	EventTaskFailed    EventKind = "task_failed"
	EventPlanCompleted EventKind = "plan_completed"
	EventPlanFailed    EventKind = "plan_failed"
	EventInitialStatus EventKind = "initial_status"
	EventStatusReply   EventKind = "status_response"
)

// Event is one typed progress message fanned out to a job's subscribers
type Event struct {
	Kind      EventKind   `json:"event"`
	JobID     string      `json:"job_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"data,omitempty"`
}

// TaskEventPayload carries a task snapshot plus the plan-level progress
type TaskEventPayload struct {
	Task         TaskSnapshot `json:"task"`
	PlanProgress int          `json:"plan_progress"`
}

// PlanEventPayload carries a full plan snapshot
type PlanEventPayload struct {
	Plan PlanSnapshot `json:"plan"`
}
