package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
}

// ─── Backoff ────────────────────────────────────────────────────────────────

func TestBackoff(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, 1*time.Second, cfg.Backoff(1))
	assert.Equal(t, 2*time.Second, cfg.Backoff(2))
	assert.Equal(t, 4*time.Second, cfg.Backoff(3))
	assert.Equal(t, 5*time.Second, cfg.Backoff(4))
	assert.Equal(t, 5*time.Second, cfg.Backoff(30))
}

// ─── Queue ──────────────────────────────────────────────────────────────────

func TestQueue_ScheduleAndDrain(t *testing.T) {
	q := New[string](testConfig())

	ok := q.Schedule(Entry[string]{Key: "n-1", Value: "hello"}, errors.New("timeout"), t0)
	require.True(t, ok)
	assert.Equal(t, 1, q.Len())

	assert.Empty(t, q.DrainReady(t0), "nothing is due before the backoff elapses")

	ready := q.DrainReady(t0.Add(time.Second))
	require.Len(t, ready, 1)
	assert.Equal(t, "hello", ready[0].Value)
	assert.Equal(t, 1, ready[0].Attempt)
	assert.Equal(t, "timeout", ready[0].Error)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_Exhausted(t *testing.T) {
	q := New[int](testConfig())
	e := Entry[int]{Key: "k", Value: 7}

	for i := 0; i < 3; i++ {
		require.True(t, q.Schedule(e, nil, t0), "retry %d", i+1)
		got := q.DrainReady(t0.Add(time.Hour))
		require.Len(t, got, 1)
		e = got[0]
	}
	assert.False(t, q.Schedule(e, nil, t0))
	assert.Equal(t, int64(1), q.Stats().Exhausted)
	assert.Equal(t, int64(3), q.Stats().Scheduled)
}

func TestQueue_OrderedByNextAttempt(t *testing.T) {
	q := New[string](testConfig())
	q.Schedule(Entry[string]{Key: "late", Value: "late", Attempt: 2}, nil, t0)
	q.Schedule(Entry[string]{Key: "early", Value: "early"}, nil, t0)
	q.Schedule(Entry[string]{Key: "early-2", Value: "early-2"}, nil, t0)

	next, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, t0.Add(time.Second), next)

	ready := q.DrainReady(t0.Add(time.Minute))
	require.Len(t, ready, 3)
	assert.Equal(t, []string{"early", "early-2", "late"},
		[]string{ready[0].Value, ready[1].Value, ready[2].Value})
}

func TestQueue_MaxPending(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPending = 1
	q := New[string](cfg)

	assert.True(t, q.Schedule(Entry[string]{Key: "a"}, nil, t0))
	assert.False(t, q.Schedule(Entry[string]{Key: "b"}, nil, t0))
	assert.Equal(t, int64(1), q.Stats().Dropped)
	assert.Equal(t, 1, q.Stats().Pending)
}
