// -----------------------------------------------------------------------
// Plan - the per-job DAG of tasks plus shared result state
// -----------------------------------------------------------------------

package models

import (
	"sync"
	"time"
)

// PlanStatus tracks the plan through its lifecycle
type PlanStatus string

const (
	PlanStatusPending   PlanStatus = "pending"
	PlanStatusRunning   PlanStatus = "running"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusFailed    PlanStatus = "failed"
)

// SourceKind distinguishes the two accepted inputs
type SourceKind string

const (
	SourceKindURL    SourceKind = "url"
	SourceKindResume SourceKind = "resume"
)

// SourceRef is the job's input: a profile URL or an uploaded resume handle
type SourceRef struct {
	Kind SourceKind `json:"kind"`
	URL  string     `json:"url,omitempty"`
	Blob string     `json:"blob,omitempty"` // Blob key for an uploaded resume
}

// PlanOptions carries the submission options through planning and execution
type PlanOptions struct {
	GuestID          string `json:"guest_id"`
	HistoryID        string `json:"history_id"`
	IncludeGitHub    bool   `json:"include_github"`
	FirstSegmentOnly bool   `json:"first_segment_only"`
	DocumentaryOnly  bool   `json:"documentary_only"`
	VideoOnly        bool   `json:"video_only"`
	Resolution       string `json:"resolution,omitempty"`
	AspectRatio      string `json:"aspect_ratio,omitempty"`
}

// Plan is one job's materialized DAG. It is exclusively owned by the job
// registry; the scheduler and the current task's handler borrow it for the
// duration of one task. The mutex guards the result map and runtime fields
// against concurrent snapshot reads from status pollers and subscribers.
type Plan struct {
	mu sync.RWMutex

	PlanID        string      `json:"plan_id"`
	JobID         string      `json:"job_id"`
	Source        SourceRef   `json:"source_ref"`
	Options       PlanOptions `json:"options"`
	Tasks         []*Task     `json:"tasks"` // Ascending order
	Status        PlanStatus  `json:"status"`
	Progress      int         `json:"progress"` // floor(completed/total*100)
	CurrentTaskID string      `json:"current_task_id,omitempty"`
	Error         string      `json:"error,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`

	results map[TaskKind]Document
}

// NewPlan creates an empty plan shell; tasks are attached by the planner
func NewPlan(planID, jobID string, source SourceRef, options PlanOptions) *Plan {
	return &Plan{
		PlanID:    planID,
		JobID:     jobID,
		Source:    source,
		Options:   options,
		Status:    PlanStatusPending,
		CreatedAt: time.Now(),
		results:   make(map[TaskKind]Document),
	}
}

// Task returns the task with the given ID, or nil
func (p *Plan) Task(taskID string) *Task {
	for _, t := range p.Tasks {
		if t.ID == taskID {
			return t
		}
	}
	return nil
}

// TaskByKind returns the first task of the given kind, or nil
func (p *Plan) TaskByKind(kind TaskKind) *Task {
	for _, t := range p.Tasks {
		if t.Kind == kind {
			return t
		}
	}
	return nil
}

// SetResult records a stage's output document. The write happens-before the
// task_completed event the scheduler publishes afterwards.
func (p *Plan) SetResult(kind TaskKind, doc Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[kind] = doc
}

// Result returns a stage's output document, if the stage has produced one
func (p *Plan) Result(kind TaskKind) (Document, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	doc, ok := p.results[kind]
	return doc, ok
}

// Results returns a shallow copy of the result map keyed by stage kind
func (p *Plan) Results() map[TaskKind]Document {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[TaskKind]Document, len(p.results))
	for k, v := range p.results {
		out[k] = v
	}
	return out
}

// Lock acquires the plan's runtime mutex for a compound mutation
func (p *Plan) Lock() { p.mu.Lock() }

// Unlock releases the plan's runtime mutex
func (p *Plan) Unlock() { p.mu.Unlock() }

// CompletedCount returns the number of tasks that finished successfully.
// Failed and skipped tasks are terminal but do not count toward progress.
func (p *Plan) CompletedCount() int {
	count := 0
	for _, t := range p.Tasks {
		if t.Status == TaskStatusCompleted {
			count++
		}
	}
	return count
}

// TerminalCount returns the number of tasks that have finished for good
func (p *Plan) TerminalCount() int {
	count := 0
	for _, t := range p.Tasks {
		if t.IsTerminal() {
			count++
		}
	}
	return count
}

// RecalcProgress recomputes plan progress from terminal task counts.
// Caller must hold the plan lock.
func (p *Plan) RecalcProgress() {
	if len(p.Tasks) == 0 {
		return
	}
	p.Progress = p.CompletedCount() * 100 / len(p.Tasks)
}

// IsTerminal returns true when the plan has finished
func (p *Plan) IsTerminal() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status == PlanStatusCompleted || p.Status == PlanStatusFailed
}

// MarkCompleted transitions the plan to its successful terminal state.
// Caller must hold the plan lock.
func (p *Plan) MarkCompleted() {
	p.Status = PlanStatusCompleted
	p.Progress = 100
	p.CurrentTaskID = ""
	now := time.Now()
	p.CompletedAt = &now
}

// MarkFailed transitions the plan to its failed terminal state.
// Caller must hold the plan lock.
func (p *Plan) MarkFailed(errMsg string) {
	p.Status = PlanStatusFailed
	p.Error = errMsg
	p.CurrentTaskID = ""
	now := time.Now()
	p.CompletedAt = &now
}

// PlanSnapshot is the wire representation of a plan
type PlanSnapshot struct {
	PlanID         string         `json:"plan_id"`
	JobID          string         `json:"job_id"`
	Source         SourceRef      `json:"source_ref"`
	Status         PlanStatus     `json:"status"`
	Progress       int            `json:"progress"`
	CurrentTaskID  string         `json:"current_task_id,omitempty"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	Tasks          []TaskSnapshot `json:"tasks"`
	TotalTasks     int            `json:"total_tasks"`
	CompletedTasks int            `json:"completed_tasks"`
}

// Snapshot copies the plan and its tasks into wire form
func (p *Plan) Snapshot() PlanSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tasks := make([]TaskSnapshot, 0, len(p.Tasks))
	completed := 0
	for _, t := range p.Tasks {
		tasks = append(tasks, t.Snapshot())
		if t.Status == TaskStatusCompleted {
			completed++
		}
	}
	return PlanSnapshot{
		PlanID:         p.PlanID,
		JobID:          p.JobID,
		Source:         p.Source,
		Status:         p.Status,
		Progress:       p.Progress,
		CurrentTaskID:  p.CurrentTaskID,
		Error:          p.Error,
		CreatedAt:      p.CreatedAt,
		CompletedAt:    p.CompletedAt,
		Tasks:          tasks,
		TotalTasks:     len(p.Tasks),
		CompletedTasks: completed,
	}
}
