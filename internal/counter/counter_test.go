package counter_test

import (
	"context"
	"testing"

	"github.com/dnvriend/aws-primitives-tool/internal/counter"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCumulativeSum exercises 1000 sequential incs, which must sum exactly
// on a single goroutine (the fake driver already serializes access under a
// mutex; true concurrent summation is a property test, not this one).
func TestCumulativeSum(t *testing.T) {
	fake := storetest.New()
	c := counter.New(fake)
	ctx := context.Background()

	_, err := c.Inc(ctx, "requests", 1, true)
	require.NoError(t, err)
	for i := 0; i < 999; i++ {
		_, err := c.Inc(ctx, "requests", 1, false)
		require.NoError(t, err)
	}

	rec, err := c.Get(ctx, "requests")
	require.NoError(t, err)
	assert.EqualValues(t, 1000, rec.Value)
}

func TestIncWithoutCreateFails(t *testing.T) {
	fake := storetest.New()
	c := counter.New(fake)
	_, err := c.Inc(context.Background(), "missing", 1, false)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.As(err).Kind)
}

func TestDecIsNegatedAdd(t *testing.T) {
	fake := storetest.New()
	c := counter.New(fake)
	ctx := context.Background()
	_, err := c.Inc(ctx, "balance", 10, true)
	require.NoError(t, err)
	rec, err := c.Dec(ctx, "balance", 3, false)
	require.NoError(t, err)
	assert.EqualValues(t, 7, rec.Value)
}

func TestAddRejectsZeroDelta(t *testing.T) {
	fake := storetest.New()
	c := counter.New(fake)
	_, err := c.Inc(context.Background(), "x", 0, true)
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidArgument, errs.As(err).Kind)
}
