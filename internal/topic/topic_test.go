package topic_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/topic"
	"github.com/dnvriend/aws-primitives-tool/internal/topictest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderedTopicAppendsFifoSuffix(t *testing.T) {
	fake := topictest.New()
	a := topic.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, "orders", true, true)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rec.Name, ".fifo"))
	assert.True(t, rec.Ordered)
}

func TestPublishToOrderedTopicRequiresGroupID(t *testing.T) {
	fake := topictest.New()
	a := topic.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, "orders", true, false)
	require.NoError(t, err)

	_, err = a.Publish(ctx, topic.PublishInput{TopicARN: rec.ARN, Body: "hi"})
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidArgument, errs.As(err).Kind)

	_, err = a.Publish(ctx, topic.PublishInput{TopicARN: rec.ARN, Body: "hi", GroupID: "g1"})
	require.NoError(t, err)
}

func TestSubscribeQueueRejectsNonOrderedEndpointForOrderedTopic(t *testing.T) {
	fake := topictest.New()
	a := topic.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, "orders", true, false)
	require.NoError(t, err)

	_, err = a.SubscribeQueue(ctx, rec.ARN, "arn:aws:sqs:local:000000000000:plain-queue", false, "", "")
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidArgument, errs.As(err).Kind)

	_, err = a.SubscribeQueue(ctx, rec.ARN, "arn:aws:sqs:local:000000000000:orders.fifo", false, "", "")
	require.NoError(t, err)
}
