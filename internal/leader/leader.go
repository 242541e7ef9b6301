// Package leader implements the Leader primitive (C7): elect, heartbeat,
// check, resign, with TTL-based failover.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package leader

import (
	"context"
	"time"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/key"
	"github.com/dnvriend/aws-primitives-tool/internal/store"
)

type Primitive struct {
	driver store.Driver
}

func New(driver store.Driver) *Primitive { return &Primitive{driver: driver} }

type Record struct {
	Pool       string `json:"pool"`
	ID         string `json:"id"`
	TTL        int64  `json:"ttl"`
	ElectedAt  int64  `json:"electedAt"`
}

func (r Record) PrimaryScalar() interface{} { return r.ID }

// Elect conditionally puts an attribute_not_exists(pk) OR ttl < now
// precondition, matching the lock primitive's re-election-after-expiry
// shape but keyed by opaque id rather than an owner/fencing pair.
func (p *Primitive) Elect(ctx context.Context, pool, id string, ttlSeconds int64) (*Record, error) {
	if err := key.ValidateName(pool); err != nil {
		return nil, err
	}
	pk, sk := key.Singleton(key.NamespaceLeader, pool)
	now := time.Now().Unix()
	expiry := now + ttlSeconds
	item := store.Item{
		PartitionKey: pk, SortKey: sk, Type: store.TypeLeader,
		Value: id, TTL: &expiry,
		Metadata:  map[string]interface{}{"electedAt": now},
		CreatedAt: now, UpdatedAt: now,
	}
	cond := store.Or(
		store.AttributeNotExists("partitionKey"),
		store.AttributeLessThan("ttl", "now", now),
	)
	if err := p.driver.PutItem(ctx, item, cond); err != nil {
		if errs.As(err).Kind == errs.KindConditionFailed {
			return nil, errs.CoordinationUnavailable(pool+" already has a live leader", "wait for the current leader's ttl to elapse, or call check to see who holds it")
		}
		return nil, err
	}
	return &Record{Pool: pool, ID: id, TTL: ttlSeconds, ElectedAt: now}, nil
}

// Heartbeat requires value == id; losing leadership surfaces
// CoordinationUnavailable so the formerly-leading process can halt its
// leader-only work.
func (p *Primitive) Heartbeat(ctx context.Context, pool, id string, ttlSeconds int64) (*Record, error) {
	if err := key.ValidateName(pool); err != nil {
		return nil, err
	}
	pk, sk := key.Singleton(key.NamespaceLeader, pool)
	now := time.Now().Unix()
	expiry := now + ttlSeconds
	upd := store.NewUpdate().Set("ttl", "ttl", expiry).Set("updatedAt", "now", now).Build()
	cond := store.AttributeEquals("value", "id", id)

	item, err := p.driver.UpdateItem(ctx, store.Key{PartitionKey: pk, SortKey: sk}, upd, cond, store.ReturnAllNew)
	if err != nil {
		e := errs.As(err)
		if e.Kind == errs.KindConditionFailed || e.Kind == errs.KindNotFound {
			return nil, errs.CoordinationUnavailable(id+" is no longer leader of "+pool, "stop leader-only work and call elect again")
		}
		return nil, err
	}
	electedAt, _ := store.AsInt64(item.Metadata["electedAt"])
	return &Record{Pool: pool, ID: id, TTL: ttlSeconds, ElectedAt: electedAt}, nil
}

// Check reports whether a non-expired leader currently exists.
func (p *Primitive) Check(ctx context.Context, pool string) (bool, *Record, error) {
	if err := key.ValidateName(pool); err != nil {
		return false, nil, err
	}
	pk, sk := key.Singleton(key.NamespaceLeader, pool)
	item, err := p.driver.GetItem(ctx, store.Key{PartitionKey: pk, SortKey: sk}, false)
	if err != nil {
		if errs.As(err).Kind == errs.KindNotFound {
			return false, nil, nil
		}
		return false, nil, err
	}
	id, _ := item.Value.(string)
	electedAt, _ := store.AsInt64(item.Metadata["electedAt"])
	var ttl int64
	if item.TTL != nil {
		ttl = *item.TTL - time.Now().Unix()
	}
	return true, &Record{Pool: pool, ID: id, TTL: ttl, ElectedAt: electedAt}, nil
}

// Resign requires value == id before deleting, idempotent when the pool
// has no leader at all. A conditional delete against an absent item
// always reports ConditionalCheckFailedException (never
// ResourceNotFoundException), so the condition itself must admit the
// absent case.
func (p *Primitive) Resign(ctx context.Context, pool, id string) error {
	if err := key.ValidateName(pool); err != nil {
		return err
	}
	pk, sk := key.Singleton(key.NamespaceLeader, pool)
	cond := store.Or(
		store.AttributeNotExists("partitionKey"),
		store.AttributeEquals("value", "id", id),
	)
	err := p.driver.DeleteItem(ctx, store.Key{PartitionKey: pk, SortKey: sk}, cond)
	if err == nil {
		return nil
	}
	e := errs.As(err)
	if e.Kind == errs.KindNotFound {
		return nil
	}
	if e.Kind == errs.KindConditionFailed {
		return errs.ConditionFailed(id+" is not the current leader of "+pool, "only the current leader may resign")
	}
	return err
}

// List enumerates active leader pools via the (type, updatedAt) secondary
// index.
func (p *Primitive) List(ctx context.Context, limit int) ([]Record, error) {
	out, err := p.driver.Query(ctx, store.QueryInput{
		TypeIndex:    true,
		PartitionKey: string(store.TypeLeader),
		Limit:        limit,
		Ascending:    true,
	})
	if err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(out.Items))
	for _, it := range out.Items {
		pool := it.PartitionKey[len(string(key.NamespaceLeader))+1:]
		id, _ := it.Value.(string)
		electedAt, _ := store.AsInt64(it.Metadata["electedAt"])
		var ttl int64
		if it.TTL != nil {
			ttl = *it.TTL - time.Now().Unix()
		}
		recs = append(recs, Record{Pool: pool, ID: id, TTL: ttl, ElectedAt: electedAt})
	}
	return recs, nil
}
