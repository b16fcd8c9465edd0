// -----------------------------------------------------------------------
// Job registry - in-memory plan ownership and retention
// -----------------------------------------------------------------------

package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
)

// Registry is the exclusive owner of live plans. Everything else borrows a
// plan for the duration of one task or one snapshot.
type Registry struct {
	mu     sync.Mutex
	plans  map[string]*models.Plan
	events interfaces.EventService
	config *common.RegistryConfig
	logger arbor.ILogger
	cron   *cron.Cron
}

// NewRegistry creates the registry; Start attaches the periodic sweep
func NewRegistry(config *common.RegistryConfig, events interfaces.EventService, logger arbor.ILogger) *Registry {
	return &Registry{
		plans:  make(map[string]*models.Plan),
		events: events,
		config: config,
		logger: logger,
	}
}

// Put registers a plan under its job ID
func (r *Registry) Put(plan *models.Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.JobID] = plan
}

// Get returns the plan for a job, or nil
func (r *Registry) Get(jobID string) *models.Plan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plans[jobID]
}

// Remove drops a plan and disconnects its subscribers
func (r *Registry) Remove(jobID string) {
	r.mu.Lock()
	_, ok := r.plans[jobID]
	delete(r.plans, jobID)
	r.mu.Unlock()

	if ok {
		r.events.DropJob(jobID)
	}
}

// Count returns the number of live plans
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plans)
}

// Sweep evicts terminal plans whose completion is older than maxAge and
// returns the number evicted. Subscribers on evicted plans are disconnected.
func (r *Registry) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	var evicted []string
	for jobID, plan := range r.plans {
		snap := plan.Snapshot()
		if snap.Status != models.PlanStatusCompleted && snap.Status != models.PlanStatusFailed {
			continue
		}
		if snap.CompletedAt != nil && snap.CompletedAt.Before(cutoff) {
			evicted = append(evicted, jobID)
		}
	}
	for _, jobID := range evicted {
		delete(r.plans, jobID)
	}
	r.mu.Unlock()

	for _, jobID := range evicted {
		r.events.DropJob(jobID)
	}

	if len(evicted) > 0 {
		r.logger.Info().
			Int("evicted", len(evicted)).
			Dur("max_age", maxAge).
			Msg("Registry sweep evicted terminal plans")
	}
	return len(evicted)
}

// Start begins the periodic sweep
func (r *Registry) Start() error {
	r.cron = cron.New()
	_, err := r.cron.AddFunc("@every "+r.config.SweepInterval.String(), func() {
		r.Sweep(r.config.MaxAge)
	})
	if err != nil {
		return err
	}
	r.cron.Start()

	r.logger.Info().
		Dur("interval", r.config.SweepInterval).
		Dur("max_age", r.config.MaxAge).
		Msg("Registry sweep scheduled")
	return nil
}

// Stop halts the periodic sweep
func (r *Registry) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}
