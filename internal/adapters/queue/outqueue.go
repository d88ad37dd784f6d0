package queue

import (
	"sync"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/ports"
)

// OutQueue is a bounded in-memory FIFO for outbound telemetry. When full,
// the oldest entry is evicted so the newest state always survives. A failed
// send goes back to the head via PushFront, keeping near-FIFO ordering.
type OutQueue struct {
	mu   sync.Mutex
	data []domain.Payload
	cap  int
}

func NewOutQueue(capacity int) *OutQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &OutQueue{
		data: make([]domain.Payload, 0, capacity),
		cap:  capacity,
	}
}

func (q *OutQueue) Push(p domain.Payload) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	evicted := false
	if len(q.data) >= q.cap {
		copy(q.data, q.data[1:])
		q.data = q.data[:len(q.data)-1]
		evicted = true
	}
	q.data = append(q.data, p)
	return evicted
}

func (q *OutQueue) PushFront(p domain.Payload) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		// Head insertion wins over the newest entry when at capacity.
		q.data = q.data[:len(q.data)-1]
	}
	q.data = append(q.data, nil)
	copy(q.data[1:], q.data)
	q.data[0] = p
}

func (q *OutQueue) Pop() domain.Payload {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	p := q.data[0]
	copy(q.data, q.data[1:])
	q.data = q.data[:len(q.data)-1]
	return p
}

func (q *OutQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

func (q *OutQueue) Cap() int { return q.cap }

var _ ports.OutboundQueue = (*OutQueue)(nil)
