// Package topictest provides an in-memory snsiface.SNSAPI substitute.
package topictest

import (
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
)

type topicState struct {
	attrs map[string]*string
	subs  []*sns.Subscription
}

// Fake is a minimal in-memory SNS, covering exactly the snsiface.SNSAPI
// methods internal/topic exercises.
type Fake struct {
	snsiface.SNSAPI

	mu       sync.Mutex
	topics   map[string]*topicState
	nextID   int
	Messages []*sns.PublishInput
}

func New() *Fake { return &Fake{topics: map[string]*topicState{}} }

func (f *Fake) CreateTopicWithContext(_ aws.Context, in *sns.CreateTopicInput, _ ...request.Option) (*sns.CreateTopicOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	arn := "arn:aws:sns:local:000000000000:" + aws.StringValue(in.Name)
	f.topics[arn] = &topicState{attrs: in.Attributes}
	return &sns.CreateTopicOutput{TopicArn: aws.String(arn)}, nil
}

func (f *Fake) PublishWithContext(_ aws.Context, in *sns.PublishInput, _ ...request.Option) (*sns.PublishOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.Messages = append(f.Messages, in)
	return &sns.PublishOutput{MessageId: aws.String(fmt.Sprintf("msg-%d", f.nextID))}, nil
}

func (f *Fake) ListTopicsPagesWithContext(_ aws.Context, _ *sns.ListTopicsInput, fn func(*sns.ListTopicsOutput, bool) bool, _ ...request.Option) error {
	f.mu.Lock()
	var topics []*sns.Topic
	for arn := range f.topics {
		topics = append(topics, &sns.Topic{TopicArn: aws.String(arn)})
	}
	f.mu.Unlock()
	fn(&sns.ListTopicsOutput{Topics: topics}, true)
	return nil
}

func (f *Fake) DeleteTopicWithContext(_ aws.Context, in *sns.DeleteTopicInput, _ ...request.Option) (*sns.DeleteTopicOutput, error) {
	f.mu.Lock()
	delete(f.topics, aws.StringValue(in.TopicArn))
	f.mu.Unlock()
	return &sns.DeleteTopicOutput{}, nil
}

func (f *Fake) GetTopicAttributesWithContext(_ aws.Context, in *sns.GetTopicAttributesInput, _ ...request.Option) (*sns.GetTopicAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.topics[aws.StringValue(in.TopicArn)]
	if !ok {
		return nil, fmt.Errorf("topic not found")
	}
	return &sns.GetTopicAttributesOutput{Attributes: t.attrs}, nil
}

func (f *Fake) SetTopicAttributesWithContext(_ aws.Context, in *sns.SetTopicAttributesInput, _ ...request.Option) (*sns.SetTopicAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.topics[aws.StringValue(in.TopicArn)]
	if !ok {
		return nil, fmt.Errorf("topic not found")
	}
	if t.attrs == nil {
		t.attrs = map[string]*string{}
	}
	t.attrs[aws.StringValue(in.AttributeName)] = in.AttributeValue
	return &sns.SetTopicAttributesOutput{}, nil
}

func (f *Fake) ListSubscriptionsByTopicPagesWithContext(_ aws.Context, in *sns.ListSubscriptionsByTopicInput, fn func(*sns.ListSubscriptionsByTopicOutput, bool) bool, _ ...request.Option) error {
	f.mu.Lock()
	t := f.topics[aws.StringValue(in.TopicArn)]
	var subs []*sns.Subscription
	if t != nil {
		subs = t.subs
	}
	f.mu.Unlock()
	fn(&sns.ListSubscriptionsByTopicOutput{Subscriptions: subs}, true)
	return nil
}

func (f *Fake) SubscribeWithContext(_ aws.Context, in *sns.SubscribeInput, _ ...request.Option) (*sns.SubscribeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.topics[aws.StringValue(in.TopicArn)]
	if !ok {
		return nil, fmt.Errorf("topic not found")
	}
	f.nextID++
	arn := fmt.Sprintf("%s:sub-%d", aws.StringValue(in.TopicArn), f.nextID)
	t.subs = append(t.subs, &sns.Subscription{
		SubscriptionArn: aws.String(arn), Protocol: in.Protocol, Endpoint: in.Endpoint, TopicArn: in.TopicArn,
	})
	return &sns.SubscribeOutput{SubscriptionArn: aws.String(arn)}, nil
}
