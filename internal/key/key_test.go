package key_test

import (
	"testing"

	"github.com/dnvriend/aws-primitives-tool/internal/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	require.NoError(t, key.ValidateName("job.1/retry-count_2"))
	require.Error(t, key.ValidateName(""))
	require.Error(t, key.ValidateName("has a space"))
}

func TestSingletonSameKey(t *testing.T) {
	pk, sk := key.Singleton(key.NamespaceLock, "orders")
	assert.Equal(t, "lock:orders", pk)
	assert.Equal(t, pk, sk)
}

func TestListElementSortKeyOrdering(t *testing.T) {
	negative := key.ListElementSortKey("l", -3)
	zero := key.ListElementSortKey("l", 0)
	positive := key.ListElementSortKey("l", 3)
	assert.True(t, negative < zero)
	assert.True(t, zero < positive)
}

func TestQueueEntrySortKeyPriorityOrdering(t *testing.T) {
	lowPriority := key.QueueEntrySortKey("q", 1, 1000, "a")
	highPriority := key.QueueEntrySortKey("q", 5, 1000, "a")
	assert.True(t, lowPriority < highPriority, "lower numeric priority must sort first")

	sameEarlier := key.QueueEntrySortKey("q", 1, 500, "a")
	sameLater := key.QueueEntrySortKey("q", 1, 1000, "a")
	assert.True(t, sameEarlier < sameLater, "earlier timestamp must sort first within a priority")
}

func TestValidateRejectsUnknownNamespace(t *testing.T) {
	require.Error(t, key.Validate("topic"))
	require.NoError(t, key.Validate(key.NamespaceKV))
}
