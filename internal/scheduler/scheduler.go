// -----------------------------------------------------------------------
// Scheduler - drives a plan's task DAG with retries, skips and events
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
)

// ErrPlanNotFound is returned when execution is requested for an unknown job
var ErrPlanNotFound = errors.New("plan not found")

// BackoffFunc computes the sleep before a retry attempt (1-based)
type BackoffFunc func(attempt int) time.Duration

// defaultBackoff is exponential: 2^attempt seconds
func defaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// Scheduler executes plans task by task. One logical worker drives one
// plan; many plans run concurrently. The executing set is the process-wide
// duplicate-execution guard.
type Scheduler struct {
	registry *Registry
	handlers map[models.TaskKind]interfaces.StageHandler
	events   interfaces.EventService
	logger   arbor.ILogger
	backoff  BackoffFunc

	mu        sync.Mutex
	executing map[string]bool
	cancelled map[string]bool
}

// NewScheduler creates the executor over the given handler table
func NewScheduler(registry *Registry, handlers map[models.TaskKind]interfaces.StageHandler, events interfaces.EventService, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		registry:  registry,
		handlers:  handlers,
		events:    events,
		logger:    logger,
		backoff:   defaultBackoff,
		executing: make(map[string]bool),
		cancelled: make(map[string]bool),
	}
}

// SetBackoff overrides the retry backoff; tests use this to avoid sleeping
func (s *Scheduler) SetBackoff(fn BackoffFunc) {
	if fn != nil {
		s.backoff = fn
	}
}

// IsExecuting reports whether a worker currently owns the job's plan
func (s *Scheduler) IsExecuting(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executing[jobID]
}

// Cancel marks a running plan for failure at the next task boundary. The
// in-flight handler call is never aborted.
func (s *Scheduler) Cancel(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.executing[jobID] {
		s.cancelled[jobID] = true
	}
}

// Execute drives the plan for the given job to a terminal state. A second
// call for a job already executing, or whose plan is terminal, is a no-op.
// Execute blocks until the plan finishes; callers wanting asynchronous
// execution run it on its own goroutine.
func (s *Scheduler) Execute(ctx context.Context, jobID string) error {
	plan := s.registry.Get(jobID)
	if plan == nil {
		s.logger.Error().Str("job_id", jobID).Msg("Execution requested for unknown plan")
		return ErrPlanNotFound
	}

	s.mu.Lock()
	if s.executing[jobID] || plan.IsTerminal() {
		s.mu.Unlock()
		return nil
	}
	s.executing[jobID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.executing, jobID)
		delete(s.cancelled, jobID)
		s.mu.Unlock()
	}()

	s.runPlan(ctx, plan)
	return nil
}

func (s *Scheduler) runPlan(ctx context.Context, plan *models.Plan) {
	plan.Lock()
	plan.Status = models.PlanStatusRunning
	plan.Unlock()
	s.publishPlan(models.EventPlanStarted, plan)

	s.logger.Info().
		Str("job_id", plan.JobID).
		Str("plan_id", plan.PlanID).
		Int("tasks", len(plan.Tasks)).
		Msg("Plan execution started")

	tasks := make([]*models.Task, len(plan.Tasks))
	copy(tasks, plan.Tasks)
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Order < tasks[j].Order })

	for _, task := range tasks {
		if s.isCancelled(plan.JobID) {
			s.failPlan(plan, "plan cancelled")
			return
		}
		if task.IsTerminal() {
			continue
		}

		if unmet := s.unmetDependency(plan, task); unmet != "" {
			plan.Lock()
			task.MarkSkipped(fmt.Sprintf("dependency %s did not complete", unmet))
			plan.RecalcProgress()
			plan.Unlock()
			s.publishTask(models.EventTaskCompleted, plan, task)
			s.logger.Info().
				Str("job_id", plan.JobID).
				Str("task_id", task.ID).
				Str("dependency", unmet).
				Msg("Task skipped on unmet dependency")
			continue
		}

		if !s.runTask(ctx, plan, task) {
			// Critical failure: the plan is already failed, later tasks
			// stay pending.
			return
		}
	}

	plan.Lock()
	plan.MarkCompleted()
	plan.Unlock()
	s.publishPlan(models.EventPlanCompleted, plan)

	s.logger.Info().
		Str("job_id", plan.JobID).
		Msg("Plan completed")
}

// runTask drives one task through its retry cycle. Returns false when a
// critical failure has terminated the plan.
func (s *Scheduler) runTask(ctx context.Context, plan *models.Plan, task *models.Task) bool {
	handler, ok := s.handlers[task.Kind]
	if !ok {
		// Internal invariant violation: every planned kind must dispatch
		s.logger.Error().
			Str("job_id", plan.JobID).
			Str("kind", string(task.Kind)).
			Msg("No handler registered for task kind")
		plan.Lock()
		task.MarkFailed(fmt.Sprintf("no handler for task kind %s", task.Kind))
		plan.RecalcProgress()
		plan.Unlock()
		s.publishTask(models.EventTaskFailed, plan, task)
		s.failPlan(plan, fmt.Sprintf("internal error: no handler for %s", task.Kind))
		return false
	}

	plan.Lock()
	plan.CurrentTaskID = task.ID
	task.MarkStarted()
	plan.Unlock()
	s.publishTask(models.EventTaskStarted, plan, task)

	// Handler progress writes go through the plan lock; snapshot readers on
	// the status path see the task fields consistently.
	report := func(progress int, message string) {
		plan.Lock()
		task.Progress = progress
		task.Message = message
		plan.Unlock()
		s.publishTask(models.EventTaskProgress, plan, task)
	}

	for {
		outputs, err := s.executeGuarded(ctx, handler, plan, task, report)
		if err == nil {
			// Result write happens-before the task_completed event
			plan.SetResult(task.Kind, outputs)
			plan.Lock()
			task.MarkCompleted(outputs)
			plan.RecalcProgress()
			plan.Unlock()
			s.publishTask(models.EventTaskCompleted, plan, task)
			return true
		}

		if task.RetryCount < task.MaxRetries {
			plan.Lock()
			task.RetryCount++
			task.Message = fmt.Sprintf("Retrying after error: %v (attempt %d of %d)", err, task.RetryCount, task.MaxRetries)
			plan.Unlock()
			s.publishTask(models.EventTaskRetrying, plan, task)
			s.logger.Warn().
				Str("job_id", plan.JobID).
				Str("task_id", task.ID).
				Int("attempt", task.RetryCount).
				Err(err).
				Msg("Task retrying")

			if !s.sleep(ctx, s.backoff(task.RetryCount)) {
				err = ctx.Err()
			} else {
				continue
			}
		}

		plan.Lock()
		task.MarkFailed(err.Error())
		plan.RecalcProgress()
		plan.Unlock()
		s.publishTask(models.EventTaskFailed, plan, task)
		s.logger.Error().
			Str("job_id", plan.JobID).
			Str("task_id", task.ID).
			Err(err).
			Msg("Task failed")

		if task.Critical {
			s.failPlan(plan, fmt.Sprintf("%s failed: %v", task.Name, err))
			return false
		}
		return true
	}
}

// executeGuarded runs the handler, converting panics into errors so one
// bad stage cannot take the worker down.
func (s *Scheduler) executeGuarded(ctx context.Context, handler interfaces.StageHandler, plan *models.Plan, task *models.Task, report interfaces.ProgressFunc) (outputs models.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			s.logger.Error().
				Str("job_id", plan.JobID).
				Str("task_id", task.ID).
				Msgf("Recovered handler panic: %v", r)
		}
	}()
	return handler.Execute(ctx, plan, task, report)
}

// unmetDependency returns the first dependency not in a satisfiable state,
// or empty when the task may run.
func (s *Scheduler) unmetDependency(plan *models.Plan, task *models.Task) string {
	for _, depID := range task.Dependencies {
		dep := plan.Task(depID)
		if dep == nil {
			return depID
		}
		if dep.Status != models.TaskStatusCompleted && dep.Status != models.TaskStatusSkipped {
			return depID
		}
	}
	return ""
}

func (s *Scheduler) failPlan(plan *models.Plan, reason string) {
	plan.Lock()
	plan.MarkFailed(reason)
	plan.Unlock()
	s.publishPlan(models.EventPlanFailed, plan)

	s.logger.Error().
		Str("job_id", plan.JobID).
		Str("reason", reason).
		Msg("Plan failed")
}

func (s *Scheduler) isCancelled(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled[jobID]
}

// sleep waits for the backoff duration, returning false when the context
// ended first.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Scheduler) publishTask(kind models.EventKind, plan *models.Plan, task *models.Task) {
	plan.Lock()
	payload := models.TaskEventPayload{
		Task:         task.Snapshot(),
		PlanProgress: plan.Progress,
	}
	plan.Unlock()
	s.events.Publish(plan.JobID, models.Event{
		Kind:      kind,
		JobID:     plan.JobID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func (s *Scheduler) publishPlan(kind models.EventKind, plan *models.Plan) {
	s.events.Publish(plan.JobID, models.Event{
		Kind:      kind,
		JobID:     plan.JobID,
		Timestamp: time.Now(),
		Payload:   models.PlanEventPayload{Plan: plan.Snapshot()},
	})
}
