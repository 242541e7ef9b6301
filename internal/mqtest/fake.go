// Package mqtest provides an in-memory sqsiface.SQSAPI substitute.
package mqtest

import (
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

type queueState struct {
	url      string
	attrs    map[string]*string
	messages []*message
}

type message struct {
	id      string
	receipt string
	body    *sqs.SendMessageInput
}

// Fake is a minimal in-memory SQS, covering exactly the sqsiface.SQSAPI
// methods internal/mq exercises.
type Fake struct {
	sqsiface.SQSAPI

	mu     sync.Mutex
	queues map[string]*queueState // keyed by URL
	nextID int
}

func New() *Fake { return &Fake{queues: map[string]*queueState{}} }

func (f *Fake) CreateQueueWithContext(_ aws.Context, in *sqs.CreateQueueInput, _ ...request.Option) (*sqs.CreateQueueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://sqs.local.amazonaws.com/000000000000/" + aws.StringValue(in.QueueName)
	f.queues[url] = &queueState{url: url, attrs: in.Attributes}
	return &sqs.CreateQueueOutput{QueueUrl: aws.String(url)}, nil
}

func (f *Fake) SendMessageWithContext(_ aws.Context, in *sqs.SendMessageInput, _ ...request.Option) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queues[aws.StringValue(in.QueueUrl)]
	if !ok {
		return nil, awserr.New("QueueDoesNotExist", "queue not found", nil)
	}
	f.nextID++
	id := fmt.Sprintf("msg-%d", f.nextID)
	q.messages = append(q.messages, &message{id: id, receipt: fmt.Sprintf("receipt-%d", f.nextID), body: in})
	return &sqs.SendMessageOutput{MessageId: aws.String(id)}, nil
}

func (f *Fake) ReceiveMessageWithContext(_ aws.Context, in *sqs.ReceiveMessageInput, _ ...request.Option) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queues[aws.StringValue(in.QueueUrl)]
	if !ok {
		return nil, awserr.New("QueueDoesNotExist", "queue not found", nil)
	}
	max := aws.Int64Value(in.MaxNumberOfMessages)
	if max == 0 {
		max = 1
	}
	var out []*sqs.Message
	for _, m := range q.messages {
		if int64(len(out)) >= max {
			break
		}
		rec := &sqs.Message{MessageId: aws.String(m.id), ReceiptHandle: aws.String(m.receipt), Body: m.body.MessageBody}
		if len(m.body.MessageAttributes) > 0 {
			rec.MessageAttributes = m.body.MessageAttributes
		}
		out = append(out, rec)
	}
	return &sqs.ReceiveMessageOutput{Messages: out}, nil
}

func (f *Fake) DeleteMessageWithContext(_ aws.Context, in *sqs.DeleteMessageInput, _ ...request.Option) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queues[aws.StringValue(in.QueueUrl)]
	if !ok {
		return nil, awserr.New("QueueDoesNotExist", "queue not found", nil)
	}
	for i, m := range q.messages {
		if m.receipt == aws.StringValue(in.ReceiptHandle) {
			q.messages = append(q.messages[:i], q.messages[i+1:]...)
			return &sqs.DeleteMessageOutput{}, nil
		}
	}
	return nil, awserr.New("ReceiptHandleIsInvalid", "receipt handle not found or expired", nil)
}

func (f *Fake) PurgeQueueWithContext(_ aws.Context, in *sqs.PurgeQueueInput, _ ...request.Option) (*sqs.PurgeQueueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queues[aws.StringValue(in.QueueUrl)]
	if !ok {
		return nil, awserr.New("QueueDoesNotExist", "queue not found", nil)
	}
	q.messages = nil
	return &sqs.PurgeQueueOutput{}, nil
}

func (f *Fake) DeleteQueueWithContext(_ aws.Context, in *sqs.DeleteQueueInput, _ ...request.Option) (*sqs.DeleteQueueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.queues, aws.StringValue(in.QueueUrl))
	return &sqs.DeleteQueueOutput{}, nil
}

func (f *Fake) GetQueueAttributesWithContext(_ aws.Context, in *sqs.GetQueueAttributesInput, _ ...request.Option) (*sqs.GetQueueAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queues[aws.StringValue(in.QueueUrl)]
	if !ok {
		return nil, awserr.New("QueueDoesNotExist", "queue not found", nil)
	}
	attrs := map[string]*string{}
	for k, v := range q.attrs {
		attrs[k] = v
	}
	attrs["QueueArn"] = aws.String("arn:aws:sqs:local:000000000000:" + q.url[len(q.url)-lastSegmentLen(q.url):])
	attrs["ApproximateNumberOfMessages"] = aws.String(fmt.Sprintf("%d", len(q.messages)))
	return &sqs.GetQueueAttributesOutput{Attributes: attrs}, nil
}

func (f *Fake) SetQueueAttributesWithContext(_ aws.Context, in *sqs.SetQueueAttributesInput, _ ...request.Option) (*sqs.SetQueueAttributesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.queues[aws.StringValue(in.QueueUrl)]
	if !ok {
		return nil, awserr.New("QueueDoesNotExist", "queue not found", nil)
	}
	if q.attrs == nil {
		q.attrs = map[string]*string{}
	}
	for k, v := range in.Attributes {
		q.attrs[k] = v
	}
	return &sqs.SetQueueAttributesOutput{}, nil
}

func lastSegmentLen(url string) int {
	for i := len(url) - 1; i >= 0; i-- {
		if url[i] == '/' {
			return len(url) - i - 1
		}
	}
	return len(url)
}
