package interfaces

import "github.com/ternarybob/odyssey/internal/models"

// Subscriber receives the ordered event stream for one job. Send must not
// block the bus: implementations enqueue and return, reporting false when
// the subscriber can no longer accept events (it is then evicted).
type Subscriber interface {
	// ID identifies the subscriber within a job's set
	ID() string

	// Send enqueues one event. A false return evicts the subscriber.
	Send(event models.Event) bool

	// Close releases the subscriber after eviction or disconnect
	Close()
}

// EventService fans typed progress events out to a job's subscribers
type EventService interface {
	Subscribe(jobID string, sub Subscriber)
	Unsubscribe(jobID string, sub Subscriber)
	Publish(jobID string, event models.Event)

	// DropJob evicts and closes every subscriber attached to a job
	DropJob(jobID string)
}
