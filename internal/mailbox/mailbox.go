// Package mailbox implements the single-slot, sequence-numbered handoff
// used to move data from an interrupt-style producer to a polling consumer.
// It is not a queue: a value written before the consumer looks is silently
// replaced, only the latest matters.
package mailbox

import "sync"

// Mailbox holds the latest value and a strictly monotonic sequence number
// that increments on every Put. One producer, one consumer.
type Mailbox[T any] struct {
	mu     sync.Mutex
	latest T
	seq    uint64
}

func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{}
}

// Put overwrites the slot and bumps the sequence.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.latest = v
	m.seq++
	m.mu.Unlock()
}

// Peek returns the current value and its sequence. A consumer that remembers
// the last sequence it handled treats any different sequence as new data.
func (m *Mailbox[T]) Peek() (T, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest, m.seq
}

// Seq returns the current sequence without copying the value.
func (m *Mailbox[T]) Seq() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}
