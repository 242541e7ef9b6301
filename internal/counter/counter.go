// Package counter implements the Counter primitive (C4): atomic inc/dec,
// get-counter, create-on-demand.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package counter

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
	Key       string `json:"key"`
	Value     int64  `json:"value"`
	Type      string `json:"type"`
	UpdatedAt int64  `json:"updatedAt"`
}

func (r Record) PrimaryScalar() interface{} { return r.Value }

// Add applies a signed delta; dec(k, n) is sugar for add(k, -n).
func (p *Primitive) Add(ctx context.Context, name string, by int64, create bool) (*Record, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	if by == 0 {
		return nil, errs.InvalidArgument("by must be non-zero", "pass a non-zero --by value")
	}
	pk, sk := key.Singleton(key.NamespaceCounter, name)
	now := time.Now().Unix()

	upd := store.NewUpdate().
		Add("value", "by", by).
		Set("updatedAt", "now", now).
		Set("type", "ty", string(store.TypeCounter)).
		SetIfAbsent("createdAt", "createdAt", now).
		Build()

	// When create=false, DynamoDB's ADD would otherwise silently
	// auto-vivify the item; attribute_exists(partitionKey) forces the
	// not-found-without-create behavior. When create=true, no condition
	// is supplied and the ADD auto-creates the item on first use.
	var cond *store.Condition
	if !create {
		cond = store.AttributeExists("partitionKey")
	}

	item, err := p.driver.UpdateItem(ctx, store.Key{PartitionKey: pk, SortKey: sk}, upd, cond, store.ReturnAllNew)
	if err != nil {
		e := errs.As(err)
		if e.Kind == errs.KindConditionFailed {
			return nil, errs.NotFound(name+" does not exist", "pass --create to initialize the counter on first use")
		}
		return nil, err
	}
	value, _ := store.AsInt64(item.Value)
	return &Record{Key: name, Value: value, Type: string(store.TypeCounter), UpdatedAt: item.UpdatedAt}, nil
}

func (p *Primitive) Inc(ctx context.Context, name string, by int64, create bool) (*Record, error) {
	return p.Add(ctx, name, by, create)
}

func (p *Primitive) Dec(ctx context.Context, name string, by int64, create bool) (*Record, error) {
	return p.Add(ctx, name, -by, create)
}

// Get reads the counter value strictly-consistently.
func (p *Primitive) Get(ctx context.Context, name string) (*Record, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	pk, sk := key.Singleton(key.NamespaceCounter, name)
	item, err := p.driver.GetItem(ctx, store.Key{PartitionKey: pk, SortKey: sk}, true)
	if err != nil {
		return nil, err
	}
	value, _ := store.AsInt64(item.Value)
	return &Record{Key: name, Value: value, Type: string(store.TypeCounter), UpdatedAt: item.UpdatedAt}, nil
}
