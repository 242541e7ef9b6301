// Package storetest provides an in-memory store.Driver fake used by every
// primitive package's unit tests, so those tests exercise real
// conditional-write and query semantics without talking to DynamoDB.
package storetest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/store"
)

type Fake struct {
	mu    sync.Mutex
	items map[store.Key]store.Item
	// Now lets tests pin the clock instead of depending on wall time.
	Now func() int64
}

func New() *Fake {
	return &Fake{items: map[store.Key]store.Item{}, Now: func() int64 { return time.Now().Unix() }}
}

func (f *Fake) expired(it store.Item) bool { return it.Expired(f.Now()) }

// getAttr resolves a dotted attribute path against a candidate item,
// reporting whether the attribute is present, the same distinction
// attribute_exists/attribute_not_exists draw in a real condition
// expression. exists reflects whether the item itself is present at all.
func getAttr(it store.Item, exists bool, attr string) (interface{}, bool) {
	switch {
	case attr == "partitionKey":
		return it.PartitionKey, exists
	case attr == "value":
		return it.Value, exists && it.Value != nil
	case attr == "ttl":
		if it.TTL == nil {
			return nil, false
		}
		return *it.TTL, true
	case strings.HasPrefix(attr, "metadata."):
		if it.Metadata == nil {
			return nil, false
		}
		v, ok := it.Metadata[strings.TrimPrefix(attr, "metadata.")]
		return v, ok
	default:
		return nil, false
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

// evalCondition walks a store.Condition's structural shape (kind/attr/
// bound, or a left/right pair for Or/And) and evaluates it against a
// candidate item, mirroring what DynamoDB would do server-side.
func evalCondition(it store.Item, exists bool, cond *store.Condition) bool {
	if cond == nil {
		return true
	}
	switch cond.Kind() {
	case "not_exists":
		_, present := getAttr(it, exists, cond.Attr())
		return !present
	case "exists":
		_, present := getAttr(it, exists, cond.Attr())
		return present
	case "equals":
		v, present := getAttr(it, exists, cond.Attr())
		if !present {
			return false
		}
		bound, _ := cond.Bound()
		return v == bound
	case "less_than":
		v, present := getAttr(it, exists, cond.Attr())
		if !present {
			return false
		}
		bound, _ := cond.Bound()
		vi, ok1 := toInt64(v)
		bi, ok2 := toInt64(bound)
		return ok1 && ok2 && vi < bi
	case "begins_with":
		v, present := getAttr(it, exists, cond.Attr())
		if !present {
			return false
		}
		s, _ := v.(string)
		bound, _ := cond.Bound()
		prefix, _ := bound.(string)
		return strings.HasPrefix(s, prefix)
	case "or":
		l, r := cond.Sub()
		return evalCondition(it, exists, l) || evalCondition(it, exists, r)
	case "and":
		l, r := cond.Sub()
		return evalCondition(it, exists, l) && evalCondition(it, exists, r)
	default:
		return true
	}
}

func setAttr(it *store.Item, attr string, value interface{}, ifAbsent bool) {
	switch {
	case attr == "value":
		if !ifAbsent || it.Value == nil {
			it.Value = value
		}
	case attr == "ttl":
		ttl, _ := value.(int64)
		if !ifAbsent || it.TTL == nil {
			it.TTL = &ttl
		}
	case attr == "type":
		s, _ := value.(string)
		it.Type = store.ItemType(s)
	case attr == "createdAt":
		n, _ := value.(int64)
		if !ifAbsent || it.CreatedAt == 0 {
			it.CreatedAt = n
		}
	case attr == "updatedAt":
		n, _ := value.(int64)
		if !ifAbsent || it.UpdatedAt == 0 {
			it.UpdatedAt = n
		}
	case strings.HasPrefix(attr, "metadata."):
		key := strings.TrimPrefix(attr, "metadata.")
		if it.Metadata == nil {
			it.Metadata = map[string]interface{}{}
		}
		if _, present := it.Metadata[key]; !ifAbsent || !present {
			it.Metadata[key] = value
		}
	}
}

func addAttr(it *store.Item, attr string, delta interface{}) {
	switch {
	case attr == "value":
		n, _ := it.Value.(int64)
		d, _ := delta.(int64)
		it.Value = n + d
	case strings.HasPrefix(attr, "metadata."):
		key := strings.TrimPrefix(attr, "metadata.")
		if it.Metadata == nil {
			it.Metadata = map[string]interface{}{}
		}
		n, _ := it.Metadata[key].(int64)
		d, _ := delta.(int64)
		it.Metadata[key] = n + d
	}
}

func removeAttr(it *store.Item, attr string) {
	if strings.HasPrefix(attr, "metadata.") && it.Metadata != nil {
		delete(it.Metadata, strings.TrimPrefix(attr, "metadata."))
	}
}

func applyOps(it *store.Item, ops []store.UpdateOp) {
	for _, op := range ops {
		switch op.Kind {
		case "set":
			setAttr(it, op.Attr, op.Value, false)
		case "set_if_absent":
			setAttr(it, op.Attr, op.Value, true)
		case "add":
			addAttr(it, op.Attr, op.Value)
		case "remove":
			removeAttr(it, op.Attr)
		}
	}
}

func (f *Fake) PutItem(_ context.Context, item store.Item, cond *store.Condition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := store.Key{PartitionKey: item.PartitionKey, SortKey: item.SortKey}
	existing, ok := f.items[k]
	exists := ok && !f.expired(existing)
	if !evalCondition(existing, exists, cond) {
		return errs.ConditionFailed("condition failed", "re-read the item and retry")
	}
	f.items[k] = item
	return nil
}

func (f *Fake) GetItem(_ context.Context, k store.Key, _ bool) (*store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[k]
	if !ok || f.expired(it) {
		return nil, errs.NotFound("item not found", "create it first")
	}
	cp := it
	return &cp, nil
}

// DeleteItem mirrors DynamoDB's own DeleteItem semantics: unconditional
// deletes always succeed (a no-op against an absent item), and a
// conditional delete evaluates its expression against the item whether or
// not it exists, never surfacing NotFound on its own, since "the item does
// not exist" is itself a condition callers can ask for via
// attribute_not_exists.
func (f *Fake) DeleteItem(_ context.Context, k store.Key, cond *store.Condition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[k]
	exists := ok && !f.expired(it)
	if !evalCondition(it, exists, cond) {
		return errs.ConditionFailed("condition failed", "re-read the item and retry")
	}
	if exists {
		delete(f.items, k)
	}
	return nil
}

// UpdateItem re-derives a DynamoDB UpdateItem call's effect from the
// structured Update.Ops() the caller built, the same boundary the real
// driver crosses via an UpdateExpression string.
func (f *Fake) UpdateItem(_ context.Context, k store.Key, update store.Update, cond *store.Condition, rv store.ReturnValues) (*store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[k]
	exists := ok && !f.expired(it)

	if !evalCondition(it, exists, cond) {
		return nil, errs.ConditionFailed("condition failed", "re-read the item and retry")
	}
	if !exists {
		it = store.Item{PartitionKey: k.PartitionKey, SortKey: k.SortKey, Metadata: map[string]interface{}{}}
	}
	if it.Metadata == nil {
		it.Metadata = map[string]interface{}{}
	}
	applyOps(&it, update.Ops())

	f.items[k] = it
	cp := it
	if rv == store.ReturnNone {
		return nil, nil
	}
	return &cp, nil
}

func (f *Fake) Query(_ context.Context, in store.QueryInput) (*store.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []store.Item
	for _, it := range f.items {
		if f.expired(it) {
			continue
		}
		if in.TypeIndex {
			if string(it.Type) != in.PartitionKey {
				continue
			}
		} else if it.PartitionKey != in.PartitionKey {
			continue
		}
		if in.SortKeyPrefix != "" && !strings.HasPrefix(it.SortKey, in.SortKeyPrefix) {
			continue
		}
		if in.SortKeyBetween != nil {
			lo, hi := in.SortKeyBetween[0], in.SortKeyBetween[1]
			if it.SortKey < lo || it.SortKey > hi {
				continue
			}
		}
		if in.FilterExpr != nil && !evalCondition(it, true, in.FilterExpr) {
			continue
		}
		matched = append(matched, it)
	}
	// ascending sort by sort key, since the fake has no native ordering
	for i := 0; i < len(matched); i++ {
		for j := i + 1; j < len(matched); j++ {
			if matched[j].SortKey < matched[i].SortKey {
				matched[i], matched[j] = matched[j], matched[i]
			}
		}
	}
	if !in.Ascending {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}
	if in.Limit > 0 && len(matched) > in.Limit {
		matched = matched[:in.Limit]
	}
	return &store.QueryOutput{Items: matched, Count: len(matched)}, nil
}

// checkCondition implements a TransactWrite ConditionCheck action: unlike
// GetItem it never surfaces NotFound on its own, since "the item must not
// exist" is itself a valid condition to check for.
func (f *Fake) checkCondition(k store.Key, cond *store.Condition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[k]
	exists := ok && !f.expired(it)
	if !evalCondition(it, exists, cond) {
		return errs.ConditionFailed("condition check failed", "re-read the item and retry")
	}
	return nil
}

func (f *Fake) TransactWrite(ctx context.Context, actions []store.TransactAction) error {
	f.mu.Lock()
	snapshot := make(map[store.Key]store.Item, len(f.items))
	for k, v := range f.items {
		snapshot[k] = v
	}
	f.mu.Unlock()

	for _, a := range actions {
		var err error
		switch {
		case a.Put != nil:
			err = f.PutItem(ctx, *a.Put, a.Condition)
		case a.Update != nil:
			_, err = f.UpdateItem(ctx, a.Key, *a.Update, a.Condition, store.ReturnNone)
		case a.Delete:
			err = f.DeleteItem(ctx, a.Key, a.Condition)
		case a.ConditionCheck:
			err = f.checkCondition(a.Key, a.Condition)
		}
		if err != nil {
			f.mu.Lock()
			f.items = snapshot
			f.mu.Unlock()
			return err
		}
	}
	return nil
}

func (f *Fake) TransactGet(ctx context.Context, keys []store.Key) ([]*store.Item, error) {
	results := make([]*store.Item, len(keys))
	for i, k := range keys {
		it, err := f.GetItem(ctx, k, false)
		if err != nil {
			continue
		}
		results[i] = it
	}
	return results, nil
}
