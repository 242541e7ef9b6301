// Package mq implements the 1-to-1 buffered half of C12: a thin adapter
// over Amazon SQS preserving the message-queue contract.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package mq

import (
	"context"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// orderedSuffix is the FIFO naming convention SQS itself enforces; ordered
// queues and topics in this module reuse the same name-suffix convention.
const orderedSuffix = ".fifo"

// Adapter wraps sqsiface.SQSAPI so tests can substitute a fake.
type Adapter struct {
	svc sqsiface.SQSAPI
}

func New(svc sqsiface.SQSAPI) *Adapter { return &Adapter{svc: svc} }

func NewFromSession(sess *session.Session, region string) *Adapter {
	cfg := &aws.Config{}
	if region != "" {
		cfg.Region = aws.String(region)
	}
	return &Adapter{svc: sqs.New(sess, cfg)}
}

func queueName(name string, ordered bool) string {
	if ordered && !strings.HasSuffix(name, orderedSuffix) {
		return name + orderedSuffix
	}
	return name
}

func isOrdered(nameOrURL string) bool { return strings.Contains(nameOrURL, orderedSuffix) }

// CreateInput carries the create(name, ordered, visibilityTimeout,
// retention, deliveryDelay, receiveWait, dlq?, maxReceiveCount?, contentDedup?).
type CreateInput struct {
	Name              string
	Ordered           bool
	VisibilityTimeout int64
	RetentionSeconds  int64
	DeliveryDelay     int64
	ReceiveWaitTime   int64
	DLQArn            string
	MaxReceiveCount   int64
	ContentDedup      bool
}

// QueueRecord is the canonical response shape for queue lifecycle
// operations.
type QueueRecord struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Ordered bool   `json:"ordered"`
}

func (r QueueRecord) PrimaryScalar() interface{} { return r.URL }

func (a *Adapter) Create(ctx context.Context, in CreateInput) (*QueueRecord, error) {
	full := queueName(in.Name, in.Ordered)
	attrs := map[string]*string{}
	if in.VisibilityTimeout > 0 {
		attrs["VisibilityTimeout"] = aws.String(strconv.FormatInt(in.VisibilityTimeout, 10))
	}
	if in.RetentionSeconds > 0 {
		attrs["MessageRetentionPeriod"] = aws.String(strconv.FormatInt(in.RetentionSeconds, 10))
	}
	if in.DeliveryDelay > 0 {
		attrs["DelaySeconds"] = aws.String(strconv.FormatInt(in.DeliveryDelay, 10))
	}
	if in.ReceiveWaitTime > 0 {
		attrs["ReceiveMessageWaitTimeSeconds"] = aws.String(strconv.FormatInt(in.ReceiveWaitTime, 10))
	}
	if in.Ordered {
		attrs["FifoQueue"] = aws.String("true")
		if in.ContentDedup {
			attrs["ContentBasedDeduplication"] = aws.String("true")
		}
	}
	if in.DLQArn != "" {
		maxReceive := in.MaxReceiveCount
		if maxReceive <= 0 {
			maxReceive = 5
		}
		attrs["RedrivePolicy"] = aws.String(`{"deadLetterTargetArn":"` + in.DLQArn + `","maxReceiveCount":` + strconv.FormatInt(maxReceive, 10) + `}`)
	}
	out, err := a.svc.CreateQueueWithContext(ctx, &sqs.CreateQueueInput{QueueName: aws.String(full), Attributes: attrs})
	if err != nil {
		return nil, classify("CreateQueue", err)
	}
	return &QueueRecord{Name: full, URL: aws.StringValue(out.QueueUrl), Ordered: in.Ordered}, nil
}

// SendInput carries the send(name, body, groupId?, dedupId?,
// delay?, attributes?); GroupID is required for ordered queues.
type SendInput struct {
	QueueURL   string
	Body       string
	GroupID    string
	DedupID    string
	Delay      int64
	Attributes map[string]string
}

type SendRecord struct {
	MessageID string `json:"messageId"`
}

func (r SendRecord) PrimaryScalar() interface{} { return r.MessageID }

func (a *Adapter) Send(ctx context.Context, in SendInput) (*SendRecord, error) {
	if isOrdered(in.QueueURL) && in.GroupID == "" {
		return nil, errs.InvalidArgument("groupId is required to send to an ordered queue", "pass --group-id")
	}
	req := &sqs.SendMessageInput{QueueUrl: aws.String(in.QueueURL), MessageBody: aws.String(in.Body)}
	if in.GroupID != "" {
		req.MessageGroupId = aws.String(in.GroupID)
	}
	if in.DedupID != "" {
		req.MessageDeduplicationId = aws.String(in.DedupID)
	}
	if in.Delay > 0 {
		req.DelaySeconds = aws.Int64(in.Delay)
	}
	if len(in.Attributes) > 0 {
		attrs := make(map[string]*sqs.MessageAttributeValue, len(in.Attributes))
		for k, v := range in.Attributes {
			attrs[k] = &sqs.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
		}
		req.MessageAttributes = attrs
	}
	out, err := a.svc.SendMessageWithContext(ctx, req)
	if err != nil {
		return nil, classify("SendMessage", err)
	}
	return &SendRecord{MessageID: aws.StringValue(out.MessageId)}, nil
}

// ReceiveInput carries the receive(name, max, visibilityTimeout?,
// waitSeconds, attributes?, autoDelete?).
type ReceiveInput struct {
	QueueURL          string
	MaxMessages       int64
	VisibilityTimeout int64
	WaitSeconds       int64
	WithAttributes    bool
	AutoDelete        bool
}

// MessageRecord is one received message.
type MessageRecord struct {
	Body       string            `json:"body"`
	Receipt    string            `json:"receipt"`
	MessageID  string            `json:"messageId"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (r MessageRecord) PrimaryScalar() interface{} { return r.Body }

func (a *Adapter) Receive(ctx context.Context, in ReceiveInput) ([]MessageRecord, error) {
	if in.MaxMessages < 1 || in.MaxMessages > 10 {
		return nil, errs.InvalidArgument("max must be between 1 and 10", "pass --max in [1,10]")
	}
	if in.WaitSeconds < 0 || in.WaitSeconds > 20 {
		return nil, errs.InvalidArgument("waitSeconds must be between 0 and 20", "pass --wait in [0,20]")
	}
	req := &sqs.ReceiveMessageInput{
		QueueUrl: aws.String(in.QueueURL), MaxNumberOfMessages: aws.Int64(in.MaxMessages), WaitTimeSeconds: aws.Int64(in.WaitSeconds),
	}
	if in.VisibilityTimeout > 0 {
		req.VisibilityTimeout = aws.Int64(in.VisibilityTimeout)
	}
	if in.WithAttributes {
		req.MessageAttributeNames = []*string{aws.String("All")}
		req.AttributeNames = []*string{aws.String("All")}
	}
	out, err := a.svc.ReceiveMessageWithContext(ctx, req)
	if err != nil {
		return nil, classify("ReceiveMessage", err)
	}
	records := make([]MessageRecord, 0, len(out.Messages))
	for _, m := range out.Messages {
		rec := MessageRecord{Body: aws.StringValue(m.Body), Receipt: aws.StringValue(m.ReceiptHandle), MessageID: aws.StringValue(m.MessageId)}
		if len(m.MessageAttributes) > 0 {
			rec.Attributes = map[string]string{}
			for k, v := range m.MessageAttributes {
				rec.Attributes[k] = aws.StringValue(v.StringValue)
			}
		}
		records = append(records, rec)
		if in.AutoDelete {
			if _, err := a.svc.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{QueueUrl: aws.String(in.QueueURL), ReceiptHandle: m.ReceiptHandle}); err != nil {
				return nil, classify("DeleteMessage", err)
			}
		}
	}
	return records, nil
}

func (a *Adapter) Delete(ctx context.Context, queueURL, receipt string) error {
	_, err := a.svc.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{QueueUrl: aws.String(queueURL), ReceiptHandle: aws.String(receipt)})
	return classify("DeleteMessage", err)
}

func (a *Adapter) Purge(ctx context.Context, queueURL string) error {
	_, err := a.svc.PurgeQueueWithContext(ctx, &sqs.PurgeQueueInput{QueueUrl: aws.String(queueURL)})
	return classify("PurgeQueue", err)
}

func (a *Adapter) DeleteQueue(ctx context.Context, queueURL string) error {
	_, err := a.svc.DeleteQueueWithContext(ctx, &sqs.DeleteQueueInput{QueueUrl: aws.String(queueURL)})
	return classify("DeleteQueue", err)
}

func (a *Adapter) GetAttributes(ctx context.Context, queueURL string) (map[string]string, error) {
	out, err := a.svc.GetQueueAttributesWithContext(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl: aws.String(queueURL), AttributeNames: []*string{aws.String("All")},
	})
	if err != nil {
		return nil, classify("GetQueueAttributes", err)
	}
	attrs := make(map[string]string, len(out.Attributes))
	for k, v := range out.Attributes {
		attrs[k] = aws.StringValue(v)
	}
	return attrs, nil
}

func (a *Adapter) SetAttributes(ctx context.Context, queueURL string, attrs map[string]string) error {
	sqsAttrs := make(map[string]*string, len(attrs))
	for k, v := range attrs {
		sqsAttrs[k] = aws.String(v)
	}
	_, err := a.svc.SetQueueAttributesWithContext(ctx, &sqs.SetQueueAttributesInput{QueueUrl: aws.String(queueURL), Attributes: sqsAttrs})
	return classify("SetQueueAttributes", err)
}

// QueueARN resolves a queue's ARN from its attributes, so a caller can feed
// it to topic.Adapter.SubscribeQueue without hand-assembling the ARN.
func (a *Adapter) QueueARN(ctx context.Context, queueURL string) (string, error) {
	attrs, err := a.GetAttributes(ctx, queueURL)
	if err != nil {
		return "", err
	}
	arn, ok := attrs["QueueArn"]
	if !ok {
		return "", errs.NotFound(queueURL+" has no QueueArn attribute", "verify the queue exists")
	}
	return arn, nil
}
