// -----------------------------------------------------------------------
// Event bus - per-job pub/sub fan-out of typed progress events
// -----------------------------------------------------------------------

package events

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/interfaces"
	"github.com/ternarybob/odyssey/internal/models"
)

// Bus implements EventService with a mutex-guarded subscriber map. Publish
// holds the mutex only long enough to snapshot the subscriber set, then
// releases it before sending so a slow peer cannot block registration or
// other jobs' fan-out.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string][]interfaces.Subscriber
	logger      arbor.ILogger
}

// NewBus creates a new event bus
func NewBus(logger arbor.ILogger) *Bus {
	return &Bus{
		subscribers: make(map[string][]interfaces.Subscriber),
		logger:      logger,
	}
}

// Subscribe attaches a subscriber to a job's event stream
func (b *Bus) Subscribe(jobID string, sub interfaces.Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[jobID] = append(b.subscribers[jobID], sub)

	b.logger.Debug().
		Str("job_id", jobID).
		Str("subscriber", sub.ID()).
		Int("count", len(b.subscribers[jobID])).
		Msg("Subscriber attached")
}

// Unsubscribe detaches a subscriber from a job's event stream
func (b *Bus) Unsubscribe(jobID string, sub interfaces.Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(jobID, sub)
}

func (b *Bus) removeLocked(jobID string, sub interfaces.Subscriber) {
	subs := b.subscribers[jobID]
	for i, s := range subs {
		if s.ID() == sub.ID() {
			b.subscribers[jobID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[jobID]) == 0 {
		delete(b.subscribers, jobID)
	}
}

// Publish fans an event out to the job's subscribers in registration order.
// A subscriber whose Send fails is removed; the rest are unaffected.
// Publishing to a job with no subscribers succeeds silently.
func (b *Bus) Publish(jobID string, event models.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.JobID == "" {
		event.JobID = jobID
	}

	b.mu.Lock()
	subs := make([]interfaces.Subscriber, len(b.subscribers[jobID]))
	copy(subs, b.subscribers[jobID])
	b.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	var failed []interfaces.Subscriber
	for _, sub := range subs {
		if !sub.Send(event) {
			failed = append(failed, sub)
		}
	}

	if len(failed) > 0 {
		b.mu.Lock()
		for _, sub := range failed {
			b.removeLocked(jobID, sub)
		}
		b.mu.Unlock()

		for _, sub := range failed {
			sub.Close()
			b.logger.Warn().
				Str("job_id", jobID).
				Str("subscriber", sub.ID()).
				Str("event", string(event.Kind)).
				Msg("Subscriber evicted after send failure")
		}
	}
}

// DropJob evicts and closes every subscriber attached to a job
func (b *Bus) DropJob(jobID string) {
	b.mu.Lock()
	subs := b.subscribers[jobID]
	delete(b.subscribers, jobID)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	if len(subs) > 0 {
		b.logger.Debug().Str("job_id", jobID).Int("count", len(subs)).Msg("Job subscribers dropped")
	}
}

// SubscriberCount returns the current number of subscribers for a job
func (b *Bus) SubscriberCount(jobID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[jobID])
}

var _ interfaces.EventService = (*Bus)(nil)
