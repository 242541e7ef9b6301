package leader_test

import (
	"context"
	"testing"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/leader"
	"github.com/dnvriend/aws-primitives-tool/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElectRejectsSecondCandidateUntilTTLElapses(t *testing.T) {
	fake := storetest.New()
	l := leader.New(fake)
	ctx := context.Background()

	_, err := l.Elect(ctx, "pool", "node-a", 10)
	require.NoError(t, err)

	_, err = l.Elect(ctx, "pool", "node-b", 10)
	require.Error(t, err)
	assert.Equal(t, errs.KindCoordinationUnavailable, errs.As(err).Kind)
}

func TestHeartbeatRequiresCurrentLeader(t *testing.T) {
	fake := storetest.New()
	l := leader.New(fake)
	ctx := context.Background()

	_, err := l.Elect(ctx, "pool", "node-a", 10)
	require.NoError(t, err)

	_, err = l.Heartbeat(ctx, "pool", "node-b", 10)
	require.Error(t, err)
	assert.Equal(t, errs.KindCoordinationUnavailable, errs.As(err).Kind)

	_, err = l.Heartbeat(ctx, "pool", "node-a", 10)
	require.NoError(t, err)
}

func TestCheckReportsCurrentLeader(t *testing.T) {
	fake := storetest.New()
	l := leader.New(fake)
	ctx := context.Background()

	held, _, err := l.Check(ctx, "pool")
	require.NoError(t, err)
	assert.False(t, held)

	_, err = l.Elect(ctx, "pool", "node-a", 10)
	require.NoError(t, err)

	held, rec, err := l.Check(ctx, "pool")
	require.NoError(t, err)
	require.True(t, held)
	assert.Equal(t, "node-a", rec.ID)
}

func TestResignRequiresCurrentLeader(t *testing.T) {
	fake := storetest.New()
	l := leader.New(fake)
	ctx := context.Background()

	_, err := l.Elect(ctx, "pool", "node-a", 10)
	require.NoError(t, err)

	err = l.Resign(ctx, "pool", "node-b")
	require.Error(t, err)
	assert.Equal(t, errs.KindConditionFailed, errs.As(err).Kind)

	require.NoError(t, l.Resign(ctx, "pool", "node-a"))

	_, err = l.Elect(ctx, "pool", "node-b", 10)
	require.NoError(t, err)
}

func TestListEnumeratesActivePools(t *testing.T) {
	fake := storetest.New()
	l := leader.New(fake)
	ctx := context.Background()

	_, err := l.Elect(ctx, "pool-a", "node-1", 10)
	require.NoError(t, err)
	_, err = l.Elect(ctx, "pool-b", "node-2", 10)
	require.NoError(t, err)

	recs, err := l.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	byPool := map[string]leader.Record{}
	for _, r := range recs {
		byPool[r.Pool] = r
	}
	assert.Equal(t, "node-1", byPool["pool-a"].ID)
	assert.Equal(t, "node-2", byPool["pool-b"].ID)
}
