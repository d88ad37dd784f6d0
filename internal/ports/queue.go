package ports

import "github.com/hnodriturbo/Project-5-Security-Box/internal/domain"

// OutboundQueue buffers telemetry until the link can deliver it.
type OutboundQueue interface {
	// Push appends a message, evicting the oldest entry when the queue is
	// at capacity. It reports whether an eviction happened.
	Push(p domain.Payload) (evicted bool)
	// PushFront reinserts a message at the head after a failed send so it
	// is retried before anything newer.
	PushFront(p domain.Payload)
	// Pop removes and returns the oldest message, or nil when empty.
	Pop() domain.Payload
	Len() int
	Cap() int
}
