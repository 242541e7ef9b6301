// Package txn implements the Transaction Engine (C9): an all-or-nothing
// batch of put/update/delete/condition-check actions against any
// coordination primitive, executed via a single TransactWrite.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package txn

import (
	"context"
	"fmt"
	"time"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/key"
	"github.com/dnvriend/aws-primitives-tool/internal/store"
)

// OpKind enumerates the four action shapes a transaction batch may mix.
type OpKind string

const (
	OpPut    OpKind = "put"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
	OpCheck  OpKind = "check"
)

// Operation targets one singleton-keyed item (kv, counter, lock, leader;
// SortKey lets a caller address a set member or queue/list entry directly
// when Namespace's default sk==pk convention does not apply).
type Operation struct {
	Kind    OpKind
	Namespace key.Namespace
	Name    string
	SortKey string // overrides the default sk==pk singleton encoding when set

	Value interface{} // OpPut
	TTL   *int64      // OpPut/OpUpdate

	IfAbsent         bool        // OpPut: fail if already present
	IfExists         bool        // OpUpdate/OpDelete/OpCheck: fail if absent
	HasExpectedValue bool        // OpUpdate/OpDelete/OpCheck: CAS on value
	ExpectedValue    interface{}
}

func (op Operation) key() (pk, sk string) {
	pk = key.PartitionKey(op.Namespace, op.Name)
	if op.SortKey != "" {
		return pk, op.SortKey
	}
	return pk, pk
}

// Engine validates and executes a batch of Operations as a single
// TransactWrite, 
type Engine struct {
	driver store.Driver
}

func New(driver store.Driver) *Engine { return &Engine{driver: driver} }

// Result reports the batch's outcome. Execute fills in only Applied: on
// failure it returns an error instead of a Result, so FailedIndex and
// Reason are never set. A validation failure names the offending
// operation's index in the error's cause line; a condition failure does
// not say which action was rejected.
type Result struct {
	Applied     int  `json:"applied"`
	FailedIndex *int `json:"failedIndex,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

func (r Result) PrimaryScalar() interface{} { return r.Applied }

// Execute validates the batch (namespace, name grammar, and no two actions
// targeting the same (partitionKey, sortKey)) before encoding it through
// key.PartitionKey and calling TransactWrite. All-or-nothing: on
// any condition failure, no item is mutated.
func (e *Engine) Execute(ctx context.Context, ops []Operation) (*Result, error) {
	if len(ops) == 0 {
		return nil, errs.InvalidArgument("transaction has no operations", "pass at least one put/update/delete/check operation")
	}
	seen := map[store.Key]bool{}
	actions := make([]store.TransactAction, 0, len(ops))
	now := time.Now().Unix()

	for i, op := range ops {
		if err := key.Validate(op.Namespace); err != nil {
			return nil, withIndex(err, i)
		}
		if err := key.ValidateName(op.Name); err != nil {
			return nil, withIndex(err, i)
		}
		pk, sk := op.key()
		k := store.Key{PartitionKey: pk, SortKey: sk}
		if seen[k] {
			return nil, withIndex(errs.InvalidArgument(
				"transaction targets "+pk+"/"+sk+" twice",
				"each (namespace, name) may appear at most once per transaction",
			), i)
		}
		seen[k] = true

		action, err := buildAction(op, k, now)
		if err != nil {
			return nil, withIndex(err, i)
		}
		actions = append(actions, action)
	}

	if err := e.driver.TransactWrite(ctx, actions); err != nil {
		e := errs.As(err)
		if e.Kind == errs.KindConditionFailed {
			return nil, errs.ConditionFailed("one or more transaction actions failed their condition", "re-read the affected items and retry the batch")
		}
		return nil, e
	}
	return &Result{Applied: len(actions)}, nil
}

func buildAction(op Operation, k store.Key, now int64) (store.TransactAction, error) {
	switch op.Kind {
	case OpPut:
		item := store.Item{PartitionKey: k.PartitionKey, SortKey: k.SortKey, Value: op.Value, TTL: op.TTL, CreatedAt: now, UpdatedAt: now}
		var cond *store.Condition
		if op.IfAbsent {
			cond = store.AttributeNotExists("partitionKey")
		}
		return store.TransactAction{Key: k, Put: &item, Condition: cond}, nil

	case OpUpdate:
		b := store.NewUpdate().Set("value", "value", op.Value).Set("updatedAt", "now", now)
		if op.TTL != nil {
			b = b.Set("ttl", "ttl", *op.TTL)
		}
		upd := b.Build()
		cond := updateDeleteCondition(op)
		return store.TransactAction{Key: k, Update: &upd, Condition: cond}, nil

	case OpDelete:
		return store.TransactAction{Key: k, Delete: true, Condition: updateDeleteCondition(op)}, nil

	case OpCheck:
		cond := updateDeleteCondition(op)
		if cond == nil {
			cond = store.AttributeExists("partitionKey")
		}
		return store.TransactAction{Key: k, ConditionCheck: true, Condition: cond}, nil

	default:
		return store.TransactAction{}, errs.InvalidArgument("unknown operation kind "+string(op.Kind), "use one of put, update, delete, check")
	}
}

func updateDeleteCondition(op Operation) *store.Condition {
	var cond *store.Condition
	if op.IfExists {
		cond = store.AttributeExists("partitionKey")
	}
	if op.HasExpectedValue {
		valueCond := store.AttributeEquals("value", "expected", op.ExpectedValue)
		if cond == nil {
			cond = valueCond
		} else {
			cond = store.And(cond, valueCond)
		}
	}
	return cond
}

// withIndex annotates a batch-validation failure's cause line with the
// offending operation's position.
func withIndex(err error, i int) error {
	e := errs.As(err)
	return errs.New(e.Kind, fmt.Sprintf("operation[%d]: %s", i, e.Cause), e.Solution)
}
