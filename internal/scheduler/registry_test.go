package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/models"
)

func newTestRegistry(t *testing.T) (*Registry, *recordingBus) {
	t.Helper()
	bus := &recordingBus{}
	return NewRegistry(&common.RegistryConfig{SweepInterval: time.Minute, MaxAge: 30 * time.Minute}, bus, common.GetLogger()), bus
}

func TestRegistry_PutGetRemove(t *testing.T) {
	registry, bus := newTestRegistry(t)

	assert.Nil(t, registry.Get("prof_a"))

	plan := standardPlan("prof_a")
	registry.Put(plan)
	assert.Same(t, plan, registry.Get("prof_a"))
	assert.Equal(t, 1, registry.Count())

	registry.Remove("prof_a")
	assert.Nil(t, registry.Get("prof_a"))
	assert.Equal(t, 0, registry.Count())
	assert.Equal(t, []string{"prof_a"}, bus.dropped)

	// Removing an absent job does not disconnect anything
	registry.Remove("prof_a")
	assert.Len(t, bus.dropped, 1)
}

func TestRegistry_SweepEvictsOldTerminalPlans(t *testing.T) {
	registry, bus := newTestRegistry(t)

	old := standardPlan("prof_old")
	old.Lock()
	old.MarkCompleted()
	old.Unlock()
	stale := time.Now().Add(-time.Hour)
	old.CompletedAt = &stale
	registry.Put(old)

	fresh := standardPlan("prof_fresh")
	fresh.Lock()
	fresh.MarkFailed("source unreachable")
	fresh.Unlock()
	registry.Put(fresh)

	running := standardPlan("prof_running")
	running.Status = models.PlanStatusRunning
	registry.Put(running)

	evicted := registry.Sweep(30 * time.Minute)

	require.Equal(t, 1, evicted)
	assert.Nil(t, registry.Get("prof_old"))
	assert.NotNil(t, registry.Get("prof_fresh"))
	assert.NotNil(t, registry.Get("prof_running"))
	assert.Equal(t, []string{"prof_old"}, bus.dropped)
}

func TestRegistry_SweepIgnoresNonTerminalRegardlessOfAge(t *testing.T) {
	registry, _ := newTestRegistry(t)

	plan := standardPlan("prof_slow")
	plan.Status = models.PlanStatusRunning
	plan.CreatedAt = time.Now().Add(-24 * time.Hour)
	registry.Put(plan)

	assert.Zero(t, registry.Sweep(time.Minute))
	assert.NotNil(t, registry.Get("prof_slow"))
}
