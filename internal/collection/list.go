package collection

import (
	"context"
	"time"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
	"github.com/dnvriend/aws-primitives-tool/internal/key"
	"github.com/dnvriend/aws-primitives-tool/internal/store"
)

// maxHeaderCASAttempts bounds the header compare-and-swap retry loop every
// list mutation runs, the same shape as the queue's bounded pop retry.
const maxHeaderCASAttempts = 5

// header is the decoded list boundary pair tracked on the list:<name>:header
// item. An absent header is treated as the empty-list sentinel headIdx=0,
// tailIdx=-1 (count = tailIdx-headIdx+1 == 0).
type header struct {
	headIdx int64
	tailIdx int64
	exists  bool
}

func (h header) count() int64 { return h.tailIdx - h.headIdx + 1 }

// ListRecord is the canonical response shape for list operations.
type ListRecord struct {
	List     string        `json:"list"`
	Value    interface{}   `json:"value,omitempty"`
	Values   []interface{} `json:"values,omitempty"`
	Len      int64         `json:"len,omitempty"`
}

func (r ListRecord) PrimaryScalar() interface{} { return r.Value }

func (p *Primitive) readHeader(ctx context.Context, name string) (header, error) {
	k := store.Key{PartitionKey: key.ListPartitionKey(name), SortKey: key.ListHeaderSortKey(name)}
	item, err := p.driver.GetItem(ctx, k, true)
	if err != nil {
		if errs.As(err).Kind == errs.KindNotFound {
			return header{headIdx: 0, tailIdx: -1}, nil
		}
		return header{}, err
	}
	h, _ := store.AsInt64(item.Metadata["headIdx"])
	t, _ := store.AsInt64(item.Metadata["tailIdx"])
	return header{headIdx: h, tailIdx: t, exists: true}, nil
}

func headerCond(h header) *store.Condition {
	if !h.exists {
		return store.AttributeNotExists("partitionKey")
	}
	return store.And(
		store.AttributeEquals("metadata.headIdx", "head", h.headIdx),
		store.AttributeEquals("metadata.tailIdx", "tail", h.tailIdx),
	)
}

func headerItem(name string, h header, now int64) store.Item {
	return store.Item{
		PartitionKey: key.ListPartitionKey(name), SortKey: key.ListHeaderSortKey(name),
		Type:      store.TypeList,
		Metadata:  map[string]interface{}{"headIdx": h.headIdx, "tailIdx": h.tailIdx},
		CreatedAt: now, UpdatedAt: now,
	}
}

func headerUpdate(h header, now int64) store.Update {
	return store.NewUpdate().
		Set("metadata.headIdx", "head", h.headIdx).
		Set("metadata.tailIdx", "tail", h.tailIdx).
		Set("updatedAt", "now", now).
		Build()
}

// push implements both lpush (dir=-1, extends headIdx) and rpush (dir=+1,
// extends tailIdx) with a header compare-and-swap per attempt.
func (p *Primitive) push(ctx context.Context, name string, value interface{}, dir int64) (*ListRecord, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < maxHeaderCASAttempts; attempt++ {
		h, err := p.readHeader(ctx, name)
		if err != nil {
			return nil, err
		}
		now := time.Now().Unix()
		next := h
		var newIdx int64
		if dir < 0 {
			next.headIdx = h.headIdx - 1
			newIdx = next.headIdx
		} else {
			next.tailIdx = h.tailIdx + 1
			newIdx = next.tailIdx
		}
		next.exists = true

		elem := store.Item{
			PartitionKey: key.ListPartitionKey(name), SortKey: key.ListElementSortKey(name, newIdx),
			Type: store.TypeList, Value: value, CreatedAt: now, UpdatedAt: now,
		}

		var headerAction store.TransactAction
		if !h.exists {
			hdrItem := headerItem(name, next, now)
			headerAction = store.TransactAction{
				Key:       store.Key{PartitionKey: hdrItem.PartitionKey, SortKey: hdrItem.SortKey},
				Put:       &hdrItem,
				Condition: headerCond(h),
			}
		} else {
			upd := headerUpdate(next, now)
			headerAction = store.TransactAction{
				Key:       store.Key{PartitionKey: key.ListPartitionKey(name), SortKey: key.ListHeaderSortKey(name)},
				Update:    &upd,
				Condition: headerCond(h),
			}
		}
		elemAction := store.TransactAction{Key: store.Key{PartitionKey: elem.PartitionKey, SortKey: elem.SortKey}, Put: &elem}

		err = p.driver.TransactWrite(ctx, []store.TransactAction{headerAction, elemAction})
		if err != nil {
			if errs.As(err).Kind == errs.KindConditionFailed {
				continue
			}
			return nil, err
		}
		return &ListRecord{List: name, Value: value, Len: next.count()}, nil
	}
	return nil, errs.CoordinationUnavailable(name+" could not be pushed to", "retry; another writer is racing for the same list header")
}

func (p *Primitive) LPush(ctx context.Context, name string, value interface{}) (*ListRecord, error) {
	return p.push(ctx, name, value, -1)
}

func (p *Primitive) RPush(ctx context.Context, name string, value interface{}) (*ListRecord, error) {
	return p.push(ctx, name, value, 1)
}

// pop implements both lpop (dir=-1, consumes headIdx) and rpop (dir=+1,
// consumes tailIdx).
func (p *Primitive) pop(ctx context.Context, name string, dir int64) (*ListRecord, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < maxHeaderCASAttempts; attempt++ {
		h, err := p.readHeader(ctx, name)
		if err != nil {
			return nil, err
		}
		if h.count() <= 0 {
			return nil, errs.NotFound(name+" is empty", "push a value before popping")
		}
		now := time.Now().Unix()
		var boundaryIdx int64
		next := h
		if dir < 0 {
			boundaryIdx = h.headIdx
			next.headIdx = h.headIdx + 1
		} else {
			boundaryIdx = h.tailIdx
			next.tailIdx = h.tailIdx - 1
		}

		elemKey := store.Key{PartitionKey: key.ListPartitionKey(name), SortKey: key.ListElementSortKey(name, boundaryIdx)}
		elem, err := p.driver.GetItem(ctx, elemKey, true)
		if err != nil {
			return nil, err
		}

		upd := headerUpdate(next, now)
		actions := []store.TransactAction{
			{Key: elemKey, Delete: true, Condition: store.AttributeExists("partitionKey")},
			{
				Key:       store.Key{PartitionKey: key.ListPartitionKey(name), SortKey: key.ListHeaderSortKey(name)},
				Update:    &upd,
				Condition: headerCond(h),
			},
		}
		if err := p.driver.TransactWrite(ctx, actions); err != nil {
			if errs.As(err).Kind == errs.KindConditionFailed {
				continue
			}
			return nil, err
		}
		return &ListRecord{List: name, Value: elem.Value, Len: next.count()}, nil
	}
	return nil, errs.CoordinationUnavailable(name+" could not be popped from", "retry; another writer is racing for the same list header")
}

func (p *Primitive) LPop(ctx context.Context, name string) (*ListRecord, error) {
	return p.pop(ctx, name, -1)
}

func (p *Primitive) RPop(ctx context.Context, name string) (*ListRecord, error) {
	return p.pop(ctx, name, 1)
}

// resolveIndex maps a logical (possibly negative) list position to the
// list's absolute storage index, ("negative indices
// resolve against the current tailIdx").
func resolveIndex(h header, pos int64) int64 {
	if pos >= 0 {
		return h.headIdx + pos
	}
	return h.tailIdx + pos + 1
}

// LRange queries the sort-key range covering [start, stop] inclusive,
// clamped to the list's current bounds.
func (p *Primitive) LRange(ctx context.Context, name string, start, stop int64) (*ListRecord, error) {
	if err := key.ValidateName(name); err != nil {
		return nil, err
	}
	h, err := p.readHeader(ctx, name)
	if err != nil {
		return nil, err
	}
	if h.count() <= 0 {
		return &ListRecord{List: name, Values: []interface{}{}}, nil
	}
	lo, hi := resolveIndex(h, start), resolveIndex(h, stop)
	if lo < h.headIdx {
		lo = h.headIdx
	}
	if hi > h.tailIdx {
		hi = h.tailIdx
	}
	if lo > hi {
		return &ListRecord{List: name, Values: []interface{}{}}, nil
	}

	out, err := p.driver.Query(ctx, store.QueryInput{
		PartitionKey:   key.ListPartitionKey(name),
		SortKeyBetween: &[2]string{key.ListElementSortKey(name, lo), key.ListElementSortKey(name, hi)},
		Ascending:      true,
	})
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, 0, len(out.Items))
	for _, it := range out.Items {
		if it.SortKey == key.ListHeaderSortKey(name) {
			continue
		}
		values = append(values, it.Value)
	}
	return &ListRecord{List: name, Values: values, Len: h.count()}, nil
}
