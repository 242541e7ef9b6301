package txn_test

import (
	"context"
	"testing"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/key"
	"github.com/dnvriend/aws-primitives-tool/internal/kv"
	"github.com/dnvriend/aws-primitives-tool/internal/storetest"
	"github.com/dnvriend/aws-primitives-tool/internal/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteAppliesAllOrNothing(t *testing.T) {
	fake := storetest.New()
	e := txn.New(fake)
	ctx := context.Background()

	result, err := e.Execute(ctx, []txn.Operation{
		{Kind: txn.OpPut, Namespace: key.NamespaceKV, Name: "a", Value: "1"},
		{Kind: txn.OpPut, Namespace: key.NamespaceKV, Name: "b", Value: "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)

	kvp := kv.New(fake)
	rec, err := kvp.Get(ctx, "a", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "1", rec.Value)
}

func TestExecuteRollsBackOnConditionFailure(t *testing.T) {
	fake := storetest.New()
	e := txn.New(fake)
	k := kv.New(fake)
	ctx := context.Background()

	_, err := k.Set(ctx, "exists-already", "orig", nil, kv.ModeOverwrite)
	require.NoError(t, err)

	_, err = e.Execute(ctx, []txn.Operation{
		{Kind: txn.OpPut, Namespace: key.NamespaceKV, Name: "fresh", Value: "new"},
		{Kind: txn.OpPut, Namespace: key.NamespaceKV, Name: "exists-already", Value: "new", IfAbsent: true},
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindConditionFailed, errs.As(err).Kind)

	_, err = k.Get(ctx, "fresh", nil, false)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.As(err).Kind)
}

func TestExecuteRejectsDuplicateTarget(t *testing.T) {
	fake := storetest.New()
	e := txn.New(fake)
	_, err := e.Execute(context.Background(), []txn.Operation{
		{Kind: txn.OpPut, Namespace: key.NamespaceKV, Name: "dup", Value: "1"},
		{Kind: txn.OpDelete, Namespace: key.NamespaceKV, Name: "dup"},
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidArgument, errs.As(err).Kind)
}

func TestExecuteRejectsEmptyBatch(t *testing.T) {
	fake := storetest.New()
	e := txn.New(fake)
	_, err := e.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidArgument, errs.As(err).Kind)
}
