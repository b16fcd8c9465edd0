package events

import (
	"sync"

	"github.com/google/uuid"
	"github.com/ternarybob/odyssey/internal/models"
)

// ChannelSubscriber buffers events in a channel so the publisher enqueues
// and returns immediately. A per-subscriber pump (the transport's write
// loop) drains the channel. When the buffer overflows the subscriber is
// considered too slow and reports send failure, which evicts it.
type ChannelSubscriber struct {
	id     string
	events chan models.Event
	once   sync.Once
	closed chan struct{}
}

// NewChannelSubscriber creates a subscriber with the given buffer capacity
func NewChannelSubscriber(buffer int) *ChannelSubscriber {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelSubscriber{
		id:     uuid.New().String(),
		events: make(chan models.Event, buffer),
		closed: make(chan struct{}),
	}
}

// ID identifies the subscriber within a job's set
func (s *ChannelSubscriber) ID() string { return s.id }

// Send enqueues without blocking. Returns false on overflow or after close.
func (s *ChannelSubscriber) Send(event models.Event) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.events <- event:
		return true
	default:
		return false
	}
}

// Events exposes the drain side for the transport pump
func (s *ChannelSubscriber) Events() <-chan models.Event { return s.events }

// Done is closed when the subscriber is evicted or disconnected
func (s *ChannelSubscriber) Done() <-chan struct{} { return s.closed }

// Close releases the subscriber; safe to call more than once
func (s *ChannelSubscriber) Close() {
	s.once.Do(func() { close(s.closed) })
}
