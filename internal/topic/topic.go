// Package topic implements the fan-out half of C12: a thin adapter over
// Amazon SNS preserving the topic contract. No business logic
// beyond the ordered-topic naming/grouping validation lives here; SNS
// itself owns delivery semantics.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package topic

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// orderedSuffix is the FIFO naming convention is required for
// ordered topics/queues, mirroring SQS/SNS's own ".fifo" requirement.
const orderedSuffix = ".fifo"

// Adapter wraps snsiface.SNSAPI so tests can substitute a fake, per the
// same constructor-injection discipline as every other primitive.
type Adapter struct {
	svc snsiface.SNSAPI
}

func New(svc snsiface.SNSAPI) *Adapter { return &Adapter{svc: svc} }

func NewFromSession(sess *session.Session, region string) *Adapter {
	cfg := &aws.Config{}
	if region != "" {
		cfg.Region = aws.String(region)
	}
	return &Adapter{svc: sns.New(sess, cfg)}
}

// TopicRecord is the canonical response shape for topic operations.
type TopicRecord struct {
	Name    string `json:"name"`
	ARN     string `json:"arn"`
	Ordered bool   `json:"ordered"`
}

func (r TopicRecord) PrimaryScalar() interface{} { return r.ARN }

func topicName(name string, ordered bool) string {
	if ordered && !strings.HasSuffix(name, orderedSuffix) {
		return name + orderedSuffix
	}
	return name
}

// Create provisions a topic, enforcing the ordered-topic FIFO naming
// convention and enabling content-based dedup when requested.
func (a *Adapter) Create(ctx context.Context, name string, ordered bool, contentDedup bool) (*TopicRecord, error) {
	full := topicName(name, ordered)
	attrs := map[string]*string{}
	if ordered {
		attrs["FifoTopic"] = aws.String("true")
		if contentDedup {
			attrs["ContentBasedDeduplication"] = aws.String("true")
		}
	}
	out, err := a.svc.CreateTopicWithContext(ctx, &sns.CreateTopicInput{Name: aws.String(full), Attributes: attrs})
	if err != nil {
		return nil, classify("CreateTopic", err)
	}
	return &TopicRecord{Name: full, ARN: aws.StringValue(out.TopicArn), Ordered: ordered}, nil
}

// PublishInput carries the publish(name, body, groupId?,
// dedupId?, subject?, attributes?); GroupID is required when the target
// topic is ordered.
type PublishInput struct {
	TopicARN   string
	Body       string
	GroupID    string
	DedupID    string
	Subject    string
	Attributes map[string]string
}

// PublishRecord is the canonical response for a publish call.
type PublishRecord struct {
	MessageID string `json:"messageId"`
}

func (r PublishRecord) PrimaryScalar() interface{} { return r.MessageID }

func (a *Adapter) Publish(ctx context.Context, in PublishInput) (*PublishRecord, error) {
	ordered := strings.HasSuffix(in.TopicARN, orderedSuffix)
	if ordered && in.GroupID == "" {
		return nil, errs.InvalidArgument("groupId is required to publish to an ordered topic", "pass --group-id")
	}
	req := &sns.PublishInput{TopicArn: aws.String(in.TopicARN), Message: aws.String(in.Body)}
	if in.Subject != "" {
		req.Subject = aws.String(in.Subject)
	}
	if in.GroupID != "" {
		req.MessageGroupId = aws.String(in.GroupID)
	}
	if in.DedupID != "" {
		req.MessageDeduplicationId = aws.String(in.DedupID)
	}
	if len(in.Attributes) > 0 {
		attrs := make(map[string]*sns.MessageAttributeValue, len(in.Attributes))
		for k, v := range in.Attributes {
			attrs[k] = &sns.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
		}
		req.MessageAttributes = attrs
	}
	out, err := a.svc.PublishWithContext(ctx, req)
	if err != nil {
		return nil, classify("Publish", err)
	}
	return &PublishRecord{MessageID: aws.StringValue(out.MessageId)}, nil
}

func (a *Adapter) ListTopics(ctx context.Context) ([]TopicRecord, error) {
	var out []TopicRecord
	err := a.svc.ListTopicsPagesWithContext(ctx, &sns.ListTopicsInput{}, func(page *sns.ListTopicsOutput, lastPage bool) bool {
		for _, t := range page.Topics {
			arn := aws.StringValue(t.TopicArn)
			out = append(out, TopicRecord{ARN: arn, Ordered: strings.HasSuffix(arn, orderedSuffix)})
		}
		return true
	})
	if err != nil {
		return nil, classify("ListTopics", err)
	}
	return out, nil
}

func (a *Adapter) DeleteTopic(ctx context.Context, arn string) error {
	_, err := a.svc.DeleteTopicWithContext(ctx, &sns.DeleteTopicInput{TopicArn: aws.String(arn)})
	return classify("DeleteTopic", err)
}

func (a *Adapter) GetAttributes(ctx context.Context, arn string) (map[string]string, error) {
	out, err := a.svc.GetTopicAttributesWithContext(ctx, &sns.GetTopicAttributesInput{TopicArn: aws.String(arn)})
	if err != nil {
		return nil, classify("GetTopicAttributes", err)
	}
	attrs := make(map[string]string, len(out.Attributes))
	for k, v := range out.Attributes {
		attrs[k] = aws.StringValue(v)
	}
	return attrs, nil
}

// SubscriptionRecord is one entry in listSubscriptions.
type SubscriptionRecord struct {
	ARN      string `json:"arn"`
	Protocol string `json:"protocol"`
	Endpoint string `json:"endpoint"`
}

func (r SubscriptionRecord) PrimaryScalar() interface{} { return r.ARN }

func (a *Adapter) ListSubscriptions(ctx context.Context, topicARN string) ([]SubscriptionRecord, error) {
	var out []SubscriptionRecord
	err := a.svc.ListSubscriptionsByTopicPagesWithContext(ctx, &sns.ListSubscriptionsByTopicInput{TopicArn: aws.String(topicARN)},
		func(page *sns.ListSubscriptionsByTopicOutput, lastPage bool) bool {
			for _, s := range page.Subscriptions {
				out = append(out, SubscriptionRecord{
					ARN: aws.StringValue(s.SubscriptionArn), Protocol: aws.StringValue(s.Protocol), Endpoint: aws.StringValue(s.Endpoint),
				})
			}
			return true
		})
	if err != nil {
		return nil, classify("ListSubscriptionsByTopic", err)
	}
	return out, nil
}

func (a *Adapter) SetAccessPolicy(ctx context.Context, topicARN, policyJSON string) error {
	_, err := a.svc.SetTopicAttributesWithContext(ctx, &sns.SetTopicAttributesInput{
		TopicArn: aws.String(topicARN), AttributeName: aws.String("Policy"), AttributeValue: aws.String(policyJSON),
	})
	return classify("SetTopicAttributes", err)
}

// SubscribeQueue subscribes an SQS queue to this topic, enforcing that an
// ordered (FIFO) topic may only fan out to ordered queues.
// rawDelivery/filterPolicy/filterScope are the subscription options
// exposed for subscribeToTopic.
func (a *Adapter) SubscribeQueue(ctx context.Context, topicARN, queueARN string, rawDelivery bool, filterPolicy string, filterScope string) (string, error) {
	topicOrdered := strings.HasSuffix(topicARN, orderedSuffix)
	queueOrdered := strings.HasSuffix(queueARN, orderedSuffix)
	if topicOrdered && !queueOrdered {
		return "", errs.InvalidArgument(
			"ordered topic "+topicARN+" cannot fan out to non-ordered queue "+queueARN,
			"subscribe a queue whose name ends in .fifo, or create a non-ordered topic",
		)
	}
	out, err := a.svc.SubscribeWithContext(ctx, &sns.SubscribeInput{
		TopicArn: aws.String(topicARN), Protocol: aws.String("sqs"), Endpoint: aws.String(queueARN),
		Attributes: subscriptionAttributes(rawDelivery, filterPolicy, filterScope),
		ReturnSubscriptionArn: aws.Bool(true),
	})
	if err != nil {
		return "", classify("Subscribe", err)
	}
	return aws.StringValue(out.SubscriptionArn), nil
}

func subscriptionAttributes(rawDelivery bool, filterPolicy, filterScope string) map[string]*string {
	attrs := map[string]*string{}
	if rawDelivery {
		attrs["RawMessageDelivery"] = aws.String("true")
	}
	if filterPolicy != "" {
		attrs["FilterPolicy"] = aws.String(filterPolicy)
		if filterScope != "" {
			attrs["FilterPolicyScope"] = aws.String(filterScope)
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
