// Package lock implements the Lock primitive (C5): acquire (non-blocking
// and bounded-wait), release, check, extend, with fencing via an owner
// token and an acquiredAt/version pair.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package lock

import (
	"context"
	"math/rand"
	"time"

	"github.com/dnvriend/aws-primitives-tool/internal/backoff"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/key"
	"github.com/dnvriend/aws-primitives-tool/internal/store"
)

type Primitive struct {
	driver store.Driver
}

func New(driver store.Driver) *Primitive { return &Primitive{driver: driver} }

type Record struct {
	Lock       string `json:"lock"`
	Owner      string `json:"owner"`
	TTL        int64  `json:"ttl"`
	AcquiredAt int64  `json:"acquiredAt"`
	Version    int64  `json:"version"`
}

func (r Record) PrimaryScalar() interface{} { return r.Owner }

func acquirePut(pk, sk, owner string, ttlSeconds int64, acquiredAtMicros, version int64) store.Item {
	expiry := time.Now().Unix() + ttlSeconds
	return store.Item{
		PartitionKey: pk, SortKey: sk, Type: store.TypeLock,
		TTL: &expiry,
		Metadata: map[string]interface{}{
			"owner":      owner,
			"acquiredAt": acquiredAtMicros,
		},
		Version:   &version,
		CreatedAt: time.Now().Unix(),
		UpdatedAt: time.Now().Unix(),
	}
}

// Acquire attempts a single non-blocking conditional put; when wait > 0 it
// retries with exponential backoff+jitter (base 100ms, factor 2, cap 2s)
// until wait elapses. Each sleep is drawn uniformly from [delay/2, delay].
// Every attempt's conditional put also succeeds when the stored ttl has
// already passed, so a TTL-expired lock is taken over without a separate
// read.
func (p *Primitive) Acquire(ctx context.Context, name, owner string, ttlSeconds int64, wait time.Duration) (*Record, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	pk, sk := key.Singleton(key.NamespaceLock, name)

	try := func() (*Record, error) {
		acquiredAt := time.Now().UnixMicro()
		version := acquiredAt
		item := acquirePut(pk, sk, owner, ttlSeconds, acquiredAt, version)
		cond := store.Or(
			store.AttributeNotExists("partitionKey"),
			store.AttributeLessThan("ttl", "now", time.Now().Unix()),
		)
		if err := p.driver.PutItem(ctx, item, cond); err != nil {
			return nil, err
		}
		return &Record{Lock: name, Owner: owner, TTL: ttlSeconds, AcquiredAt: acquiredAt, Version: version}, nil
	}

	rec, err := try()
	if err == nil {
		return rec, nil
	}
	if errs.As(err).Kind != errs.KindConditionFailed {
		return nil, err
	}
	if wait <= 0 {
		return nil, errs.CoordinationUnavailable(name+" is held by another owner", "retry later, or pass --wait to block until it frees")
	}

	deadline := time.Now().Add(wait)
	pol := backoff.DefaultPolicy()
	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	delay := pol.Base
	for {
		sleep := delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))
		if err := backoff.Sleep(waitCtx, sleep); err != nil {
			return nil, errs.Timeout(name+" was not acquired within the wait budget", "increase --wait or retry later")
		}
		rec, err := try()
		if err == nil {
			return rec, nil
		}
		if errs.As(err).Kind != errs.KindConditionFailed {
			return nil, err
		}
		delay = nextDelay(delay, pol)
	}
}

func nextDelay(cur time.Duration, pol backoff.Policy) time.Duration {
	next := time.Duration(float64(cur) * pol.Multiplier)
	if next > pol.Cap {
		next = pol.Cap
	}
	return next
}

// Release is idempotent when the lock is already absent; it fails with
// ConditionFailed (surfaced as exit 4) when held by a different owner. A
// conditional delete against an absent item always reports
// ConditionalCheckFailedException (never ResourceNotFoundException), so
// the condition itself must admit the absent case rather than relying on
// classify to turn the failure into NotFound.
func (p *Primitive) Release(ctx context.Context, name, owner string) error {
	if err := key.ValidateName(name); err != nil {
		return err
	}
	pk, sk := key.Singleton(key.NamespaceLock, name)
	cond := store.Or(
		store.AttributeNotExists("partitionKey"),
		store.AttributeEquals("metadata.owner", "owner", owner),
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
		return errs.ConditionFailed(name+" is held by a different owner", "only the current owner may release this lock")
	}
	return err
}

// Extend requires the caller's owner to match the stored owner, setting
// ttl = now + ttl.
func (p *Primitive) Extend(ctx context.Context, name, owner string, ttlSeconds int64) (*Record, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	pk, sk := key.Singleton(key.NamespaceLock, name)
	newExpiry := time.Now().Unix() + ttlSeconds
	upd := store.NewUpdate().Set("ttl", "ttl", newExpiry).Build()
	cond := store.AttributeEquals("metadata.owner", "owner", owner)

	item, err := p.driver.UpdateItem(ctx, store.Key{PartitionKey: pk, SortKey: sk}, upd, cond, store.ReturnAllNew)
	if err != nil {
		e := errs.As(err)
		if e.Kind == errs.KindConditionFailed {
			return nil, errs.ConditionFailed(name+" is not held by "+owner, "only the current owner may extend this lock")
		}
		return nil, err
	}
	acquiredAt, _ := store.AsInt64(item.Metadata["acquiredAt"])
	var version int64
	if item.Version != nil {
		version = *item.Version
	}
	return &Record{Lock: name, Owner: owner, TTL: ttlSeconds, AcquiredAt: acquiredAt, Version: version}, nil
}

// Check reports whether the lock is currently held (TTL not elapsed).
func (p *Primitive) Check(ctx context.Context, name string) (bool, *Record, error) {
	if err := key.ValidateName(name); err != nil {
		return false, nil, err
	}
	pk, sk := key.Singleton(key.NamespaceLock, name)
	item, err := p.driver.GetItem(ctx, store.Key{PartitionKey: pk, SortKey: sk}, false)
	if err != nil {
		if errs.As(err).Kind == errs.KindNotFound {
			return false, nil, nil
		}
		return false, nil, err
	}
	owner, _ := item.Metadata["owner"].(string)
	acquiredAt, _ := store.AsInt64(item.Metadata["acquiredAt"])
	var version int64
	if item.Version != nil {
		version = *item.Version
	}
	var ttl int64
	if item.TTL != nil {
		ttl = *item.TTL - time.Now().Unix()
	}
	return true, &Record{Lock: name, Owner: owner, TTL: ttl, AcquiredAt: acquiredAt, Version: version}, nil
}

// List enumerates currently-held locks via the (type, updatedAt) secondary
// index. Expired-but-not-yet-deleted items are dropped by the driver's
// Query, just as Check's GetItem treats them as absent.
func (p *Primitive) List(ctx context.Context, limit int) ([]Record, error) {
	out, err := p.driver.Query(ctx, store.QueryInput{
		TypeIndex:    true,
		PartitionKey: string(store.TypeLock),
		Limit:        limit,
		Ascending:    true,
	})
	if err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(out.Items))
	for _, it := range out.Items {
		name := it.PartitionKey[len(string(key.NamespaceLock))+1:]
		owner, _ := it.Metadata["owner"].(string)
		acquiredAt, _ := store.AsInt64(it.Metadata["acquiredAt"])
		var version int64
		if it.Version != nil {
			version = *it.Version
		}
		var ttl int64
		if it.TTL != nil {
			ttl = *it.TTL - time.Now().Unix()
		}
		recs = append(recs, Record{Lock: name, Owner: owner, TTL: ttl, AcquiredAt: acquiredAt, Version: version})
	}
	return recs, nil
}
