package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/lock"
	"github.com/dnvriend/aws-primitives-tool/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMutualExclusion exercises scenario 2 from 
func TestMutualExclusion(t *testing.T) {
	fake := storetest.New()
	l := lock.New(fake)
	ctx := context.Background()

	_, errA := l.Acquire(ctx, "L", "A", 10, 0)
	_, errB := l.Acquire(ctx, "L", "B", 10, 0)
	require.NoError(t, errA)
	require.Error(t, errB)
	assert.Equal(t, errs.KindCoordinationUnavailable, errs.As(errB).Kind)

	require.NoError(t, l.Release(ctx, "L", "A"))

	_, errC := l.Acquire(ctx, "L", "C", 10, 0)
	require.NoError(t, errC)
}

func TestReleaseByWrongOwnerFails(t *testing.T) {
	fake := storetest.New()
	l := lock.New(fake)
	ctx := context.Background()

	_, err := l.Acquire(ctx, "L", "A", 10, 0)
	require.NoError(t, err)

	err = l.Release(ctx, "L", "B")
	require.Error(t, err)
	assert.Equal(t, errs.KindConditionFailed, errs.As(err).Kind)
}

func TestReleaseAbsentLockIsIdempotent(t *testing.T) {
	fake := storetest.New()
	l := lock.New(fake)
	require.NoError(t, l.Release(context.Background(), "never-acquired", "A"))
}

func TestAcquireWaitZeroFailsImmediately(t *testing.T) {
	fake := storetest.New()
	l := lock.New(fake)
	ctx := context.Background()
	_, err := l.Acquire(ctx, "L", "A", 10, 0)
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Acquire(ctx, "L", "B", 10, 0)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestExtendRequiresOwnerMatch(t *testing.T) {
	fake := storetest.New()
	l := lock.New(fake)
	ctx := context.Background()
	_, err := l.Acquire(ctx, "L", "A", 5, 0)
	require.NoError(t, err)

	_, err = l.Extend(ctx, "L", "B", 10)
	require.Error(t, err)

	_, err = l.Extend(ctx, "L", "A", 10)
	require.NoError(t, err)
}

func TestListEnumeratesHeldLocks(t *testing.T) {
	fake := storetest.New()
	l := lock.New(fake)
	ctx := context.Background()

	_, err := l.Acquire(ctx, "L1", "A", 10, 0)
	require.NoError(t, err)
	_, err = l.Acquire(ctx, "L2", "B", 10, 0)
	require.NoError(t, err)

	recs, err := l.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	byName := map[string]lock.Record{}
	for _, r := range recs {
		byName[r.Lock] = r
	}
	assert.Equal(t, "A", byName["L1"].Owner)
	assert.Equal(t, "B", byName["L2"].Owner)
}
