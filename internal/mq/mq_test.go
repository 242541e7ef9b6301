package mq_test

import (
	"context"
	"strings"
	"testing"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/mq"
	"github.com/dnvriend/aws-primitives-tool/internal/mqtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderedQueueAppendsFifoSuffix(t *testing.T) {
	fake := mqtest.New()
	a := mq.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, mq.CreateInput{Name: "jobs", Ordered: true, ContentDedup: true})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rec.Name, ".fifo"))
	assert.True(t, rec.Ordered)
	assert.True(t, strings.HasSuffix(rec.URL, ".fifo"))
}

func TestSendToOrderedQueueRequiresGroupID(t *testing.T) {
	fake := mqtest.New()
	a := mq.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, mq.CreateInput{Name: "jobs", Ordered: true})
	require.NoError(t, err)

	_, err = a.Send(ctx, mq.SendInput{QueueURL: rec.URL, Body: "hi"})
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidArgument, errs.As(err).Kind)

	_, err = a.Send(ctx, mq.SendInput{QueueURL: rec.URL, Body: "hi", GroupID: "g1"})
	require.NoError(t, err)
}

func TestSendThenReceiveRoundTrips(t *testing.T) {
	fake := mqtest.New()
	a := mq.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, mq.CreateInput{Name: "jobs"})
	require.NoError(t, err)

	_, err = a.Send(ctx, mq.SendInput{QueueURL: rec.URL, Body: "payload-1"})
	require.NoError(t, err)

	msgs, err := a.Receive(ctx, mq.ReceiveInput{QueueURL: rec.URL, MaxMessages: 10, WaitSeconds: 0})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "payload-1", msgs[0].Body)
	assert.NotEmpty(t, msgs[0].Receipt)

	require.NoError(t, a.Delete(ctx, rec.URL, msgs[0].Receipt))

	msgs, err = a.Receive(ctx, mq.ReceiveInput{QueueURL: rec.URL, MaxMessages: 10, WaitSeconds: 0})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestReceiveAutoDeleteRemovesMessage(t *testing.T) {
	fake := mqtest.New()
	a := mq.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, mq.CreateInput{Name: "jobs"})
	require.NoError(t, err)
	_, err = a.Send(ctx, mq.SendInput{QueueURL: rec.URL, Body: "payload"})
	require.NoError(t, err)

	msgs, err := a.Receive(ctx, mq.ReceiveInput{QueueURL: rec.URL, MaxMessages: 1, WaitSeconds: 0, AutoDelete: true})
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	msgs, err = a.Receive(ctx, mq.ReceiveInput{QueueURL: rec.URL, MaxMessages: 1, WaitSeconds: 0})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestReceiveRejectsOutOfRangeMax(t *testing.T) {
	fake := mqtest.New()
	a := mq.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, mq.CreateInput{Name: "jobs"})
	require.NoError(t, err)

	_, err = a.Receive(ctx, mq.ReceiveInput{QueueURL: rec.URL, MaxMessages: 0, WaitSeconds: 0})
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidArgument, errs.As(err).Kind)

	_, err = a.Receive(ctx, mq.ReceiveInput{QueueURL: rec.URL, MaxMessages: 11, WaitSeconds: 0})
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidArgument, errs.As(err).Kind)

	_, err = a.Receive(ctx, mq.ReceiveInput{QueueURL: rec.URL, MaxMessages: 1, WaitSeconds: 21})
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidArgument, errs.As(err).Kind)
}

func TestPurgeEmptiesQueue(t *testing.T) {
	fake := mqtest.New()
	a := mq.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, mq.CreateInput{Name: "jobs"})
	require.NoError(t, err)
	_, err = a.Send(ctx, mq.SendInput{QueueURL: rec.URL, Body: "a"})
	require.NoError(t, err)
	_, err = a.Send(ctx, mq.SendInput{QueueURL: rec.URL, Body: "b"})
	require.NoError(t, err)

	require.NoError(t, a.Purge(ctx, rec.URL))

	msgs, err := a.Receive(ctx, mq.ReceiveInput{QueueURL: rec.URL, MaxMessages: 10, WaitSeconds: 0})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestQueueARNResolvesFromAttributes(t *testing.T) {
	fake := mqtest.New()
	a := mq.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, mq.CreateInput{Name: "jobs"})
	require.NoError(t, err)

	arn, err := a.QueueARN(ctx, rec.URL)
	require.NoError(t, err)
	assert.Contains(t, arn, "jobs")
}

func TestGetAndSetAttributesRoundTrip(t *testing.T) {
	fake := mqtest.New()
	a := mq.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, mq.CreateInput{Name: "jobs", VisibilityTimeout: 30})
	require.NoError(t, err)

	attrs, err := a.GetAttributes(ctx, rec.URL)
	require.NoError(t, err)
	assert.Equal(t, "30", attrs["VisibilityTimeout"])

	require.NoError(t, a.SetAttributes(ctx, rec.URL, map[string]string{"VisibilityTimeout": "60"}))

	attrs, err = a.GetAttributes(ctx, rec.URL)
	require.NoError(t, err)
	assert.Equal(t, "60", attrs["VisibilityTimeout"])
}

func TestCreateWithDLQSetsRedrivePolicy(t *testing.T) {
	fake := mqtest.New()
	a := mq.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, mq.CreateInput{Name: "jobs", DLQArn: "arn:aws:sqs:local:000000000000:jobs-dlq", MaxReceiveCount: 3})
	require.NoError(t, err)

	attrs, err := a.GetAttributes(ctx, rec.URL)
	require.NoError(t, err)
	assert.Contains(t, attrs["RedrivePolicy"], "jobs-dlq")
	assert.Contains(t, attrs["RedrivePolicy"], `"maxReceiveCount":3`)
}

func TestDeleteQueueRemovesIt(t *testing.T) {
	fake := mqtest.New()
	a := mq.New(fake)
	ctx := context.Background()

	rec, err := a.Create(ctx, mq.CreateInput{Name: "jobs"})
	require.NoError(t, err)
	require.NoError(t, a.DeleteQueue(ctx, rec.URL))

	_, err = a.GetAttributes(ctx, rec.URL)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.As(err).Kind)
}
