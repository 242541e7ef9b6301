package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/queue"
	"github.com/dnvriend/aws-primitives-tool/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStrictOrdering exercises strict ordering: lower priority pops first,
// and within a priority, earlier pushes pop first.
func TestStrictOrdering(t *testing.T) {
	fake := storetest.New()
	q := queue.New(fake)
	ctx := context.Background()

	_, err := q.Push(ctx, "jobs", "low-pri-first", 5, "", false, nil)
	require.NoError(t, err)
	_, err = q.Push(ctx, "jobs", "high-pri-second", 1, "", false, nil)
	require.NoError(t, err)
	_, err = q.Push(ctx, "jobs", "low-pri-third", 5, "", false, nil)
	require.NoError(t, err)

	first, err := q.Pop(ctx, "jobs", nil)
	require.NoError(t, err)
	assert.Equal(t, "high-pri-second", first.Body)

	second, err := q.Pop(ctx, "jobs", nil)
	require.NoError(t, err)
	assert.Equal(t, "low-pri-first", second.Body)

	third, err := q.Pop(ctx, "jobs", nil)
	require.NoError(t, err)
	assert.Equal(t, "low-pri-third", third.Body)
}

func TestPopEmptyQueueReturnsNotFound(t *testing.T) {
	fake := storetest.New()
	q := queue.New(fake)
	_, err := q.Pop(context.Background(), "empty", nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.As(err).Kind)
}

// TestDuplicatePushRejected exercises dedup: a second push with the same
// dedupId within the dedup window fails.
func TestDuplicatePushRejected(t *testing.T) {
	fake := storetest.New()
	q := queue.New(fake)
	ctx := context.Background()

	_, err := q.Push(ctx, "orders", "order-1", 0, "order-1-dedup", true, nil)
	require.NoError(t, err)

	_, err = q.Push(ctx, "orders", "order-1-retry", 0, "order-1-dedup", true, nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindAlreadyExists, errs.As(err).Kind)

	size, err := q.Size(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

// TestPopWithVisibilityTimeoutHidesEntryUntilExpiry exercises the
// visibility-deadline claim path: a popped-with-timeout entry is invisible
// to a second pop until the wall clock (Pop reads time.Now, not the fake's
// clock) passes the deadline.
func TestPopWithVisibilityTimeoutHidesEntryUntilExpiry(t *testing.T) {
	fake := storetest.New()
	q := queue.New(fake)
	ctx := context.Background()

	_, err := q.Push(ctx, "tasks", "task-1", 0, "", false, nil)
	require.NoError(t, err)

	vt := int64(1)
	rec, err := q.Pop(ctx, "tasks", &vt)
	require.NoError(t, err)
	assert.Equal(t, "task-1", rec.Body)

	_, err = q.Pop(ctx, "tasks", &vt)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.As(err).Kind)

	time.Sleep(2100 * time.Millisecond)
	again, err := q.Pop(ctx, "tasks", &vt)
	require.NoError(t, err)
	assert.Equal(t, "task-1", again.Body)

	require.NoError(t, q.Ack(ctx, "tasks", again.Receipt))
	require.NoError(t, q.Ack(ctx, "tasks", again.Receipt)) // idempotent
}

func TestPeekDoesNotMutate(t *testing.T) {
	fake := storetest.New()
	q := queue.New(fake)
	ctx := context.Background()
	_, err := q.Push(ctx, "peekable", "a", 0, "", false, nil)
	require.NoError(t, err)

	peeked, err := q.Peek(ctx, "peekable", 10)
	require.NoError(t, err)
	require.Len(t, peeked, 1)

	size, err := q.Size(ctx, "peekable")
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestRedriveMovesOverReceivedEntries(t *testing.T) {
	fake := storetest.New()
	q := queue.New(fake)
	ctx := context.Background()
	_, err := q.Push(ctx, "tasks", "poison", 0, "", false, nil)
	require.NoError(t, err)

	// A deadline set far in the past is visible again on the very next
	// Pop call regardless of real wall-clock advancement between calls,
	// so each iteration claims the same entry and increments its
	// receiveCount.
	vt := int64(-1000000)
	for i := 0; i < 3; i++ {
		_, err := q.Pop(ctx, "tasks", &vt)
		require.NoError(t, err)
	}

	result, err := q.Redrive(ctx, "tasks", "tasks-dlq", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Redriven)

	size, err := q.Size(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, 0, size)

	dlqSize, err := q.Size(ctx, "tasks-dlq")
	require.NoError(t, err)
	assert.Equal(t, 1, dlqSize)
}

func TestRedriveLeavesEntriesBelowThreshold(t *testing.T) {
	fake := storetest.New()
	q := queue.New(fake)
	ctx := context.Background()
	_, err := q.Push(ctx, "tasks", "fine", 0, "", false, nil)
	require.NoError(t, err)

	result, err := q.Redrive(ctx, "tasks", "tasks-dlq", 2)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Redriven)

	size, err := q.Size(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}
