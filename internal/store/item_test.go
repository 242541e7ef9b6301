package store_test

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/dnvriend/aws-primitives-tool/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNumberRoundTripsAsFloat64 exercises the real dynamodbattribute
// codec rather than the in-memory fake. dynamodbattribute decodes a
// DynamoDB Number into a float64 when the destination field is
// interface{}, as Item.Value and Item.Metadata's values both are; a bare
// `.(int64)` assertion against the round-tripped item fails silently
// (comma-ok), which is exactly what the fake's native int64 storage never
// reproduces.
func TestNumberRoundTripsAsFloat64(t *testing.T) {
	in := store.Item{
		PartitionKey: "counter:requests",
		SortKey:      "counter:requests",
		Type:         store.TypeCounter,
		Value:        int64(1000),
		Metadata:     map[string]interface{}{"acquiredAt": int64(1700000000123456)},
		CreatedAt:    1700000000,
		UpdatedAt:    1700000000,
	}

	av, err := dynamodbattribute.MarshalMap(in)
	require.NoError(t, err)

	var out store.Item
	require.NoError(t, dynamodbattribute.UnmarshalMap(av, &out))

	_, isInt64 := out.Value.(int64)
	assert.False(t, isInt64, "dynamodbattribute is expected to decode Number as float64, not int64")
	_, isFloat64 := out.Value.(float64)
	assert.True(t, isFloat64)

	value, ok := store.AsInt64(out.Value)
	require.True(t, ok)
	assert.EqualValues(t, 1000, value)

	acquiredAt, ok := store.AsInt64(out.Metadata["acquiredAt"])
	require.True(t, ok)
	assert.EqualValues(t, 1700000000123456, acquiredAt)
}

func TestAsInt64Variants(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want int64
		ok   bool
	}{
		{"int64", int64(42), 42, true},
		{"float64", float64(42), 42, true},
		{"int", 42, 42, true},
		{"json.Number", json.Number("42"), 42, true},
		{"string", "42", 0, false},
		{"nil", nil, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := store.AsInt64(c.in)
			assert.Equal(t, c.ok, ok)
			if c.ok {
				assert.Equal(t, c.want, got)
			}
		})
	}
}
