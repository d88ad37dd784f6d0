package queue

import (
	"testing"

	"github.com/hnodriturbo/Project-5-Security-Box/internal/domain"
)

func msg(n string) domain.Payload {
	return domain.Payload{"event": n}
}

func TestPushPopOrder(t *testing.T) {
	q := NewOutQueue(4)

	if evicted := q.Push(msg("a")); evicted {
		t.Fatalf("no eviction expected below capacity")
	}
	q.Push(msg("b"))

	if p := q.Pop(); p["event"] != "a" {
		t.Fatalf("unexpected first pop: %v", p)
	}
	if p := q.Pop(); p["event"] != "b" {
		t.Fatalf("unexpected second pop: %v", p)
	}
	if p := q.Pop(); p != nil {
		t.Fatalf("empty queue should pop nil, got %v", p)
	}
}

func TestPushEvictsOldestAtCapacity(t *testing.T) {
	q := NewOutQueue(2)

	q.Push(msg("a"))
	q.Push(msg("b"))
	if evicted := q.Push(msg("c")); !evicted {
		t.Fatalf("expected eviction at capacity")
	}

	if q.Len() != 2 {
		t.Fatalf("queue must never exceed capacity, len=%d", q.Len())
	}
	if p := q.Pop(); p["event"] != "b" {
		t.Fatalf("oldest entry should have been evicted, got %v", p)
	}
	if p := q.Pop(); p["event"] != "c" {
		t.Fatalf("unexpected tail: %v", p)
	}
}

func TestPushFrontPreservesFailedMessagePosition(t *testing.T) {
	q := NewOutQueue(4)

	q.Push(msg("failed"))
	q.Push(msg("next"))

	// Simulate a failed send: pop, then reinsert at the head.
	p := q.Pop()
	q.PushFront(p)

	if got := q.Pop(); got["event"] != "failed" {
		t.Fatalf("failed message should be retried first, got %v", got)
	}
	if got := q.Pop(); got["event"] != "next" {
		t.Fatalf("unexpected order after reinsertion: %v", got)
	}
}

func TestPushFrontAtCapacityDropsNewest(t *testing.T) {
	q := NewOutQueue(2)

	q.Push(msg("a"))
	q.Push(msg("b"))
	q.PushFront(msg("retry"))

	if q.Len() != 2 {
		t.Fatalf("capacity exceeded: %d", q.Len())
	}
	if got := q.Pop(); got["event"] != "retry" {
		t.Fatalf("head should be the reinserted message, got %v", got)
	}
}
