package collection_test

import (
	"context"
	"testing"

	"github.com/dnvriend/aws-primitives-tool/internal/collection"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetIsIdempotentAndUnordered(t *testing.T) {
	fake := storetest.New()
	c := collection.New(fake)
	ctx := context.Background()

	_, err := c.SAdd(ctx, "tags", "go")
	require.NoError(t, err)
	_, err = c.SAdd(ctx, "tags", "go") // idempotent
	require.NoError(t, err)
	_, err = c.SAdd(ctx, "tags", "aws")
	require.NoError(t, err)

	card, err := c.SCard(ctx, "tags")
	require.NoError(t, err)
	assert.Equal(t, 2, card)

	is, err := c.SIsMember(ctx, "tags", "go")
	require.NoError(t, err)
	assert.True(t, is)

	require.NoError(t, c.SRem(ctx, "tags", "go"))
	require.NoError(t, c.SRem(ctx, "tags", "go")) // idempotent

	is, err = c.SIsMember(ctx, "tags", "go")
	require.NoError(t, err)
	assert.False(t, is)
}

// TestListLIFOViaLPushLPop exercises the LIFO guarantee.
func TestListLIFOViaLPushLPop(t *testing.T) {
	fake := storetest.New()
	c := collection.New(fake)
	ctx := context.Background()

	_, err := c.LPush(ctx, "stack", "a")
	require.NoError(t, err)
	_, err = c.LPush(ctx, "stack", "b")
	require.NoError(t, err)
	_, err = c.LPush(ctx, "stack", "c")
	require.NoError(t, err)

	first, err := c.LPop(ctx, "stack")
	require.NoError(t, err)
	assert.Equal(t, "c", first.Value)

	second, err := c.LPop(ctx, "stack")
	require.NoError(t, err)
	assert.Equal(t, "b", second.Value)
}

// TestListFIFOViaRPushLPop exercises the FIFO guarantee.
func TestListFIFOViaRPushLPop(t *testing.T) {
	fake := storetest.New()
	c := collection.New(fake)
	ctx := context.Background()

	_, err := c.RPush(ctx, "queue-like", "a")
	require.NoError(t, err)
	_, err = c.RPush(ctx, "queue-like", "b")
	require.NoError(t, err)
	_, err = c.RPush(ctx, "queue-like", "c")
	require.NoError(t, err)

	first, err := c.LPop(ctx, "queue-like")
	require.NoError(t, err)
	assert.Equal(t, "a", first.Value)

	second, err := c.LPop(ctx, "queue-like")
	require.NoError(t, err)
	assert.Equal(t, "b", second.Value)
}

func TestLPopEmptyListReturnsNotFound(t *testing.T) {
	fake := storetest.New()
	c := collection.New(fake)
	_, err := c.LPop(context.Background(), "never-pushed")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.As(err).Kind)
}

func TestLRangeResolvesNegativeIndices(t *testing.T) {
	fake := storetest.New()
	c := collection.New(fake)
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c", "d", "e"} {
		_, err := c.RPush(ctx, "l", v)
		require.NoError(t, err)
	}

	all, err := c.LRange(ctx, "l", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b", "c", "d", "e"}, all.Values)

	lastTwo, err := c.LRange(ctx, "l", -2, -1)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"d", "e"}, lastTwo.Values)
}
