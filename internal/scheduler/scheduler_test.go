package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
	"github.com/ternarybob/odyssey/internal/planner"
)

// recordingBus captures published events in order
type recordingBus struct {
	mu      sync.Mutex
	events  []models.Event
	dropped []string
}

func (b *recordingBus) Subscribe(jobID string, sub interfaces.Subscriber)   {}
func (b *recordingBus) Unsubscribe(jobID string, sub interfaces.Subscriber) {}

func (b *recordingBus) Publish(jobID string, event models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) DropJob(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropped = append(b.dropped, jobID)
}

func (b *recordingBus) kinds() []models.EventKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.EventKind, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Kind)
	}
	return out
}

func (b *recordingBus) count(kind models.EventKind) int {
	n := 0
	for _, k := range b.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func (b *recordingBus) find(kind models.EventKind) (models.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e.Kind == kind {
			return e, true
		}
	}
	return models.Event{}, false
}

// stubHandler executes a configurable function for one task kind
type stubHandler struct {
	kind models.TaskKind
	fn   func(ctx context.Context, plan *models.Plan, task *models.Task) (models.Document, error)
}

func (h *stubHandler) Kind() models.TaskKind { return h.kind }

func (h *stubHandler) Execute(ctx context.Context, plan *models.Plan, task *models.Task, report interfaces.ProgressFunc) (models.Document, error) {
	return h.fn(ctx, plan, task)
}

// progressHandler streams a burst of progress reports while executing
type progressHandler struct {
	kind  models.TaskKind
	loops int
}

func (h *progressHandler) Kind() models.TaskKind { return h.kind }

func (h *progressHandler) Execute(ctx context.Context, plan *models.Plan, task *models.Task, report interfaces.ProgressFunc) (models.Document, error) {
	for i := 0; i < h.loops; i++ {
		report(i%100, "working")
	}
	return models.Document{}, nil
}

// okHandlers builds a full table of handlers that succeed immediately
func okHandlers() map[models.TaskKind]interfaces.StageHandler {
	kinds := []models.TaskKind{
		models.TaskFetchProfile, models.TaskEnrichProfile, models.TaskAggregateHistory,
		models.TaskStructureJourney, models.TaskGenerateTimeline, models.TaskGenerateDocumentary,
		models.TaskGenerateVideo,
	}
	table := make(map[models.TaskKind]interfaces.StageHandler, len(kinds))
	for _, kind := range kinds {
		k := kind
		table[k] = &stubHandler{kind: k, fn: func(ctx context.Context, plan *models.Plan, task *models.Task) (models.Document, error) {
			return models.Document{"kind": string(k)}, nil
		}}
	}
	return table
}

func newTestScheduler(t *testing.T, handlers map[models.TaskKind]interfaces.StageHandler) (*Scheduler, *Registry, *recordingBus) {
	t.Helper()
	bus := &recordingBus{}
	registry := NewRegistry(&common.RegistryConfig{SweepInterval: time.Minute, MaxAge: time.Minute}, bus, common.GetLogger())
	sched := NewScheduler(registry, handlers, bus, common.GetLogger())
	sched.SetBackoff(func(attempt int) time.Duration { return time.Millisecond })
	return sched, registry, bus
}

func standardPlan(jobID string) *models.Plan {
	return planner.BuildPlan(jobID, models.SourceRef{Kind: models.SourceKindURL, URL: "https://example.dev/me"}, models.PlanOptions{GuestID: "g1"})
}

func TestExecute_HappyPath(t *testing.T) {
	sched, registry, bus := newTestScheduler(t, okHandlers())
	plan := standardPlan("prof_happy")
	registry.Put(plan)

	require.NoError(t, sched.Execute(context.Background(), "prof_happy"))

	snap := plan.Snapshot()
	assert.Equal(t, models.PlanStatusCompleted, snap.Status)
	assert.Equal(t, 100, snap.Progress)
	assert.NotNil(t, snap.CompletedAt)
	assert.Equal(t, 6, snap.CompletedTasks)
	for _, task := range snap.Tasks {
		assert.Equal(t, models.TaskStatusCompleted, task.Status)
		assert.Equal(t, 100, task.Progress)
		assert.NotNil(t, task.CompletedAt)
	}

	// One result document per stage kind
	for _, kind := range []models.TaskKind{
		models.TaskFetchProfile, models.TaskEnrichProfile, models.TaskAggregateHistory,
		models.TaskStructureJourney, models.TaskGenerateTimeline, models.TaskGenerateDocumentary,
	} {
		_, ok := plan.Result(kind)
		assert.True(t, ok, "missing result for %s", kind)
	}

	kinds := bus.kinds()
	require.Equal(t, models.EventPlanStarted, kinds[0])
	require.Equal(t, models.EventPlanCompleted, kinds[len(kinds)-1])
	assert.Equal(t, 6, bus.count(models.EventTaskStarted))
	assert.Equal(t, 6, bus.count(models.EventTaskCompleted))
	assert.Zero(t, bus.count(models.EventTaskFailed))
	assert.Zero(t, bus.count(models.EventPlanFailed))

	// Event timestamps are monotonic per job
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i := 1; i < len(bus.events); i++ {
		assert.False(t, bus.events[i].Timestamp.Before(bus.events[i-1].Timestamp))
	}
}

func TestExecute_NonCriticalFailureSkipsDownstream(t *testing.T) {
	handlers := okHandlers()
	handlers[models.TaskStructureJourney] = &stubHandler{
		kind: models.TaskStructureJourney,
		fn: func(ctx context.Context, plan *models.Plan, task *models.Task) (models.Document, error) {
			return nil, errors.New("gateway unavailable")
		},
	}

	sched, registry, bus := newTestScheduler(t, handlers)
	plan := standardPlan("prof_noncrit")
	registry.Put(plan)

	require.NoError(t, sched.Execute(context.Background(), "prof_noncrit"))

	assert.Equal(t, models.TaskStatusFailed, plan.Task("task_004").Status)
	assert.Equal(t, 2, plan.Task("task_004").RetryCount)
	assert.Equal(t, models.TaskStatusSkipped, plan.Task("task_005").Status)
	assert.Equal(t, models.TaskStatusSkipped, plan.Task("task_006").Status)

	snap := plan.Snapshot()
	assert.Equal(t, models.PlanStatusCompleted, snap.Status)
	assert.Equal(t, 3, snap.CompletedTasks)
	assert.Zero(t, bus.count(models.EventPlanFailed))
	assert.Equal(t, 2, bus.count(models.EventTaskRetrying))

	// Plan progress at the moment of the failure reflects 3 of 6 done
	failed, ok := bus.find(models.EventTaskFailed)
	require.True(t, ok)
	payload := failed.Payload.(models.TaskEventPayload)
	assert.Equal(t, 50, payload.PlanProgress)
}

func TestExecute_CriticalFailureFailsPlan(t *testing.T) {
	handlers := okHandlers()
	handlers[models.TaskFetchProfile] = &stubHandler{
		kind: models.TaskFetchProfile,
		fn: func(ctx context.Context, plan *models.Plan, task *models.Task) (models.Document, error) {
			return nil, errors.New("source unreachable")
		},
	}

	sched, registry, bus := newTestScheduler(t, handlers)
	plan := standardPlan("prof_crit")
	registry.Put(plan)

	require.NoError(t, sched.Execute(context.Background(), "prof_crit"))

	assert.Equal(t, models.TaskStatusFailed, plan.Task("task_001").Status)
	for _, id := range []string{"task_002", "task_003", "task_004", "task_005", "task_006"} {
		assert.Equal(t, models.TaskStatusPending, plan.Task(id).Status, "task %s should stay pending", id)
	}

	snap := plan.Snapshot()
	assert.Equal(t, models.PlanStatusFailed, snap.Status)
	assert.NotEmpty(t, snap.Error)
	assert.Equal(t, 1, bus.count(models.EventPlanFailed))
	assert.Zero(t, bus.count(models.EventPlanCompleted))
}

func TestExecute_DuplicateConcurrentExecutionIsNoOp(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	handlers := okHandlers()
	handlers[models.TaskFetchProfile] = &stubHandler{
		kind: models.TaskFetchProfile,
		fn: func(ctx context.Context, plan *models.Plan, task *models.Task) (models.Document, error) {
			once.Do(func() { close(started) })
			<-release
			return models.Document{}, nil
		},
	}

	sched, registry, bus := newTestScheduler(t, handlers)
	plan := standardPlan("prof_dup")
	registry.Put(plan)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Execute(context.Background(), "prof_dup")
	}()

	<-started
	// Second call while the first owns the plan: returns immediately
	require.NoError(t, sched.Execute(context.Background(), "prof_dup"))
	close(release)
	wg.Wait()

	assert.Equal(t, 1, bus.count(models.EventPlanStarted))
	assert.Equal(t, 1, bus.count(models.EventPlanCompleted))
	assert.Equal(t, 6, bus.count(models.EventTaskStarted))
}

func TestExecute_TerminalPlanIsNotReExecuted(t *testing.T) {
	sched, registry, bus := newTestScheduler(t, okHandlers())
	plan := standardPlan("prof_rerun")
	registry.Put(plan)

	require.NoError(t, sched.Execute(context.Background(), "prof_rerun"))
	eventsAfterFirst := len(bus.kinds())

	require.NoError(t, sched.Execute(context.Background(), "prof_rerun"))
	assert.Equal(t, eventsAfterFirst, len(bus.kinds()), "second execute must not emit events")
}

func TestExecute_UnknownJob(t *testing.T) {
	sched, _, _ := newTestScheduler(t, okHandlers())
	assert.ErrorIs(t, sched.Execute(context.Background(), "prof_missing"), ErrPlanNotFound)
}

func TestExecute_CancelTakesEffectAtTaskBoundary(t *testing.T) {
	inFetch := make(chan struct{})
	release := make(chan struct{})

	handlers := okHandlers()
	handlers[models.TaskFetchProfile] = &stubHandler{
		kind: models.TaskFetchProfile,
		fn: func(ctx context.Context, plan *models.Plan, task *models.Task) (models.Document, error) {
			close(inFetch)
			<-release
			return models.Document{}, nil
		},
	}

	sched, registry, bus := newTestScheduler(t, handlers)
	plan := standardPlan("prof_cancel")
	registry.Put(plan)

	done := make(chan struct{})
	go func() {
		sched.Execute(context.Background(), "prof_cancel")
		close(done)
	}()

	<-inFetch
	sched.Cancel("prof_cancel")
	close(release)
	<-done

	snap := plan.Snapshot()
	assert.Equal(t, models.PlanStatusFailed, snap.Status)
	// The in-flight task finished; everything after the boundary never ran
	assert.Equal(t, models.TaskStatusCompleted, plan.Task("task_001").Status)
	assert.Equal(t, models.TaskStatusPending, plan.Task("task_002").Status)
	assert.Equal(t, 1, bus.count(models.EventPlanFailed))
}

func TestExecute_CompletedTaskDepsInvariant(t *testing.T) {
	handlers := okHandlers()
	handlers[models.TaskEnrichProfile] = &stubHandler{
		kind: models.TaskEnrichProfile,
		fn: func(ctx context.Context, plan *models.Plan, task *models.Task) (models.Document, error) {
			return nil, errors.New("enrichment down")
		},
	}

	sched, registry, _ := newTestScheduler(t, handlers)
	plan := standardPlan("prof_inv")
	registry.Put(plan)

	require.NoError(t, sched.Execute(context.Background(), "prof_inv"))

	// task_003 skips on the failed enrichment; its skip is satisfiable,
	// so task_004 still runs and completes.
	assert.Equal(t, models.TaskStatusSkipped, plan.Task("task_003").Status)
	assert.Equal(t, models.TaskStatusCompleted, plan.Task("task_004").Status)

	for _, task := range plan.Tasks {
		if task.Status != models.TaskStatusCompleted {
			continue
		}
		for _, depID := range task.Dependencies {
			dep := plan.Task(depID)
			assert.Contains(t, []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusSkipped}, dep.Status,
				"completed task %s has dep %s in state %s", task.ID, depID, dep.Status)
		}
	}
}

// Status pollers snapshot the plan while a handler is streaming progress;
// run under the race detector this covers the write path behind the lock.
func TestExecute_SnapshotsConcurrentWithProgressReports(t *testing.T) {
	handlers := okHandlers()
	handlers[models.TaskEnrichProfile] = &progressHandler{kind: models.TaskEnrichProfile, loops: 500}

	sched, registry, bus := newTestScheduler(t, handlers)
	plan := standardPlan("prof_poll")
	registry.Put(plan)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = plan.Snapshot()
			}
		}
	}()

	require.NoError(t, sched.Execute(context.Background(), "prof_poll"))
	close(stop)
	wg.Wait()

	assert.Equal(t, models.PlanStatusCompleted, plan.Snapshot().Status)
	assert.Equal(t, 500, bus.count(models.EventTaskProgress))
}

func TestExecute_HandlerPanicIsRetryAccounted(t *testing.T) {
	handlers := okHandlers()
	calls := 0
	handlers[models.TaskStructureJourney] = &stubHandler{
		kind: models.TaskStructureJourney,
		fn: func(ctx context.Context, plan *models.Plan, task *models.Task) (models.Document, error) {
			calls++
			if calls == 1 {
				panic("boom")
			}
			return models.Document{}, nil
		},
	}

	sched, registry, bus := newTestScheduler(t, handlers)
	plan := standardPlan("prof_panic")
	registry.Put(plan)

	require.NoError(t, sched.Execute(context.Background(), "prof_panic"))

	assert.Equal(t, models.TaskStatusCompleted, plan.Task("task_004").Status)
	assert.Equal(t, 1, plan.Task("task_004").RetryCount)
	assert.Equal(t, 1, bus.count(models.EventTaskRetrying))
	assert.Equal(t, models.PlanStatusCompleted, plan.Snapshot().Status)
}
