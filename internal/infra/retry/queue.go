// Package retry schedules redelivery of failed work with exponential backoff.
// Entries sit in a min-heap keyed on their next attempt time, so draining
// the ready set is O(k log n).
package retry

import (
	"container/heap"
	"sync"
	"time"
)

// ─── Config ─────────────────────────────────────────────────────────────────

// Config configures backoff behavior.
type Config struct {
	MaxAttempts int           // Attempts after the first failure before giving up
	BaseDelay   time.Duration // Delay before the first retry (doubles each retry)
	MaxDelay    time.Duration // Cap on backoff delay
	MaxPending  int           // Entries beyond this are dropped; 0 = unbounded
}

// DefaultConfig returns production retry defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		MaxDelay:    2 * time.Minute,
		MaxPending:  1024,
	}
}

// Backoff returns the delay before the given attempt (1-based):
// BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (c Config) Backoff(attempt int) time.Duration {
	delay := c.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// ─── Queue ──────────────────────────────────────────────────────────────────

// Entry is one piece of failed work awaiting another attempt.
type Entry[T any] struct {
	Key      string
	Value    T
	Attempt  int       // Retries scheduled so far, including this one
	NextAt   time.Time // Earliest time this can be retried
	FailedAt time.Time
	Error    string // Last failure reason
	seq      uint64
}

// Stats reports queue counters.
type Stats struct {
	Pending   int   `json:"pending"`
	Scheduled int64 `json:"scheduled"`
	Exhausted int64 `json:"exhausted"`
	Dropped   int64 `json:"dropped"`
}

// Queue holds failed entries ordered by next attempt time.
type Queue[T any] struct {
	mu    sync.Mutex
	cfg   Config
	items entryHeap[T]
	seq   uint64

	scheduled int64
	exhausted int64
	dropped   int64
}

// New creates an empty queue.
func New[T any](cfg Config) *Queue[T] {
	return &Queue[T]{cfg: cfg}
}

// Schedule records a failure of e at now and queues the next attempt.
// e.Attempt is the number of retries already made. Returns false when
// the entry has used up MaxAttempts or the queue is full.
func (q *Queue[T]) Schedule(e Entry[T], cause error, now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e.Attempt++
	if e.Attempt > q.cfg.MaxAttempts {
		q.exhausted++
		return false
	}
	if q.cfg.MaxPending > 0 && len(q.items) >= q.cfg.MaxPending {
		q.dropped++
		return false
	}
	if cause != nil {
		e.Error = cause.Error()
	}
	e.FailedAt = now
	e.NextAt = now.Add(q.cfg.Backoff(e.Attempt))
	q.seq++
	e.seq = q.seq
	heap.Push(&q.items, e)
	q.scheduled++
	return true
}

// DrainReady removes and returns every entry due at or before now,
// earliest first.
func (q *Queue[T]) DrainReady(now time.Time) []Entry[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ready []Entry[T]
	for len(q.items) > 0 && !q.items[0].NextAt.After(now) {
		ready = append(ready, heap.Pop(&q.items).(Entry[T]))
	}
	return ready
}

// Next returns the time the earliest entry becomes ready.
func (q *Queue[T]) Next() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].NextAt, true
}

// Len returns the number of pending entries.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Stats returns a snapshot of the counters.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Pending:   len(q.items),
		Scheduled: q.scheduled,
		Exhausted: q.exhausted,
		Dropped:   q.dropped,
	}
}

// ─── Heap ───────────────────────────────────────────────────────────────────

type entryHeap[T any] []Entry[T]

func (h entryHeap[T]) Len() int { return len(h) }

func (h entryHeap[T]) Less(i, j int) bool {
	if h[i].NextAt.Equal(h[j].NextAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].NextAt.Before(h[j].NextAt)
}

func (h entryHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap[T]) Push(x any) { *h = append(*h, x.(Entry[T])) }

func (h *entryHeap[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
