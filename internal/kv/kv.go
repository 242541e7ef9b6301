// Package kv implements the KV primitive (C3): set, get, delete, exists,
// list, with TTL, if-not-exists, and if-value preconditions.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package kv

import (
	"context"
	"time"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/key"
	"github.com/dnvriend/aws-primitives-tool/internal/store"
)

// Mode selects the precondition a Set call applies.
type Mode int

const (
	ModeOverwrite Mode = iota
	ModeIfAbsent
)

// Primitive binds a store.Driver to the kv namespace's encoding.
type Primitive struct {
	driver store.Driver
}

func New(driver store.Driver) *Primitive { return &Primitive{driver: driver} }

// Record is the canonical kv response shape.
type Record struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	Type      string      `json:"type"`
	TTL       *int64      `json:"ttl,omitempty"`
	CreatedAt int64       `json:"createdAt"`
	UpdatedAt int64       `json:"updatedAt"`
	Default   bool        `json:"default,omitempty"`
}

func (r Record) PrimaryScalar() interface{} { return r.Value }

func (p *Primitive) Set(ctx context.Context, name string, value interface{}, ttl *int64, mode Mode) (*Record, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	pk, sk := key.Singleton(key.NamespaceKV, name)
	now := time.Now().Unix()
	item := store.Item{
		PartitionKey: pk, SortKey: sk, Type: store.TypeKV,
		Value: value, TTL: ttl, CreatedAt: now, UpdatedAt: now,
	}
	var cond *store.Condition
	if mode == ModeIfAbsent {
		cond = store.AttributeNotExists("partitionKey")
	}
	if err := p.driver.PutItem(ctx, item, cond); err != nil {
		if e := errs.As(err); e.Kind == errs.KindConditionFailed {
			return nil, errs.AlreadyExists(name+" already exists", "drop --if-not-exists to overwrite it, or choose a different key")
		}
		return nil, err
	}
	return &Record{Key: name, Value: value, Type: string(store.TypeKV), TTL: ttl, CreatedAt: now, UpdatedAt: now}, nil
}

func (p *Primitive) Get(ctx context.Context, name string, def interface{}, hasDefault bool) (*Record, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	pk, sk := key.Singleton(key.NamespaceKV, name)
	item, err := p.driver.GetItem(ctx, store.Key{PartitionKey: pk, SortKey: sk}, false)
	if err != nil {
		if hasDefault && errs.As(err).Kind == errs.KindNotFound {
			return &Record{Key: name, Value: def, Type: string(store.TypeKV), Default: true}, nil
		}
		return nil, err
	}
	return &Record{Key: name, Value: item.Value, Type: string(store.TypeKV), TTL: item.TTL, CreatedAt: item.CreatedAt, UpdatedAt: item.UpdatedAt}, nil
}

func (p *Primitive) Exists(ctx context.Context, name string) (bool, error) {
	if err := key.ValidateName(name); err != nil {
		return false, err
	}
	pk, sk := key.Singleton(key.NamespaceKV, name)
	_, err := p.driver.GetItem(ctx, store.Key{PartitionKey: pk, SortKey: sk}, false)
	if err != nil {
		if errs.As(err).Kind == errs.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes the key; it is idempotent when the item is already
// absent, and conditionally checks Value when ifValue is supplied. A
// conditional delete against an absent item always reports
// ConditionalCheckFailedException (never ResourceNotFoundException), so
// the ifValue condition itself must admit the absent case.
func (p *Primitive) Delete(ctx context.Context, name string, ifValue interface{}, hasIfValue bool) error {
	if err := key.ValidateName(name); err != nil {
		return err
	}
	pk, sk := key.Singleton(key.NamespaceKV, name)
	var cond *store.Condition
	if hasIfValue {
		cond = store.Or(
			store.AttributeNotExists("partitionKey"),
			store.AttributeEquals("value", "expected", ifValue),
		)
	}
	err := p.driver.DeleteItem(ctx, store.Key{PartitionKey: pk, SortKey: sk}, cond)
	if err == nil {
		return nil
	}
	e := errs.As(err)
	if e.Kind == errs.KindNotFound {
		return nil // idempotent
	}
	if e.Kind == errs.KindConditionFailed {
		return errs.ConditionFailed(name+" does not match the expected value", "read the current value first with `kv get` before deleting")
	}
	return err
}

// List enumerates kv items via the (type, updatedAt) secondary index with
// a client-narrowing begins_with filter on partitionKey, since distinct kv
// keys live in distinct partitions and cannot be Query'd directly by
// prefix.
func (p *Primitive) List(ctx context.Context, prefix string, limit int) ([]Record, error) {
	fullPrefix := key.PartitionKey(key.NamespaceKV, prefix)
	out, err := p.driver.Query(ctx, store.QueryInput{
		TypeIndex:  true,
		PartitionKey: string(store.TypeKV),
		FilterExpr: store.BeginsWith("partitionKey", "prefix", fullPrefix),
		Limit:      limit,
		Ascending:  true,
	})
	if err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(out.Items))
	for _, it := range out.Items {
		name := it.PartitionKey[len(string(key.NamespaceKV))+1:]
		recs = append(recs, Record{Key: name, Value: it.Value, Type: string(it.Type), TTL: it.TTL, CreatedAt: it.CreatedAt, UpdatedAt: it.UpdatedAt})
	}
	return recs, nil
}
