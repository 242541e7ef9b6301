// Package collection implements the Set and List primitives (C8).
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package collection

import (
	"context"
	"strings"
	"time"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/key"
	"github.com/dnvriend/aws-primitives-tool/internal/store"
)

type Primitive struct {
	driver store.Driver
}

func New(driver store.Driver) *Primitive { return &Primitive{driver: driver} }

// SetRecord is the canonical response shape for set operations.
type SetRecord struct {
	Set     string   `json:"set"`
	Member  string   `json:"member,omitempty"`
	Members []string `json:"members,omitempty"`
	Card    int      `json:"card,omitempty"`
}

func (r SetRecord) PrimaryScalar() interface{} {
	if r.Member != "" {
		return r.Member
	}
	return r.Card
}

// SAdd is idempotent: a plain conditionless put overwrites an identically
// keyed member.
func (p *Primitive) SAdd(ctx context.Context, name, member string) (*SetRecord, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	item := store.Item{
		PartitionKey: key.SetPartitionKey(name), SortKey: key.SetMemberSortKey(name, member),
		Type: store.TypeSet, CreatedAt: now, UpdatedAt: now,
	}
	if err := p.driver.PutItem(ctx, item, nil); err != nil {
		return nil, err
	}
	return &SetRecord{Set: name, Member: member}, nil
}

// SRem is an idempotent delete.
func (p *Primitive) SRem(ctx context.Context, name, member string) error {
	if err := key.ValidateName(name); err != nil {
		return err
	}
	k := store.Key{PartitionKey: key.SetPartitionKey(name), SortKey: key.SetMemberSortKey(name, member)}
	return p.driver.DeleteItem(ctx, k, nil)
}

func (p *Primitive) SIsMember(ctx context.Context, name, member string) (bool, error) {
	if err := key.ValidateName(name); err != nil {
		return false, err
	}
	k := store.Key{PartitionKey: key.SetPartitionKey(name), SortKey: key.SetMemberSortKey(name, member)}
	_, err := p.driver.GetItem(ctx, k, false)
	if err != nil {
		if errs.As(err).Kind == errs.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *Primitive) SMembers(ctx context.Context, name string) (*SetRecord, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	out, err := p.driver.Query(ctx, store.QueryInput{PartitionKey: key.SetPartitionKey(name), Ascending: true})
	if err != nil {
		return nil, err
	}
	members := make([]string, 0, len(out.Items))
	memberPrefix := "set:" + name + "#"
	for _, it := range out.Items {
		members = append(members, strings.TrimPrefix(it.SortKey, memberPrefix))
	}
	return &SetRecord{Set: name, Members: members, Card: len(members)}, nil
}

func (p *Primitive) SCard(ctx context.Context, name string) (int, error) {
	if err := key.ValidateName(name); err != nil {
		return 0, err
	}
	out, err := p.driver.Query(ctx, store.QueryInput{PartitionKey: key.SetPartitionKey(name), CountOnly: true})
	if err != nil {
		return 0, err
	}
	return out.Count, nil
}
