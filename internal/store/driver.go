package store

import "context"

// ReturnValues mirrors the handful of DynamoDB return-value modes the
// primitives actually need.
type ReturnValues string

const (
	ReturnNone     ReturnValues = "NONE"
	ReturnAllNew   ReturnValues = "ALL_NEW"
	ReturnAllOld   ReturnValues = "ALL_OLD"
)

// Condition is an opaque, backend-specific condition expression built by
// the helpers in expr.go. Treating it as opaque here keeps every primitive
// package free of aws-sdk-go imports.
//
// Alongside the DynamoDB expression text, a Condition also records its
// shape structurally (kind/attr/bound value, or a left/right pair for
// Or/And) so that the in-memory test fake (internal/storetest) can
// evaluate it against a candidate item without parsing expression syntax.
type Condition struct {
	expr   string
	names  map[string]*string
	values map[string]interface{}

	kind  string // "not_exists", "exists", "equals", "less_than", "begins_with", "or", "and"
	attr  string
	bound interface{}
	left  *Condition
	right *Condition
}

// Expr and Values expose a Condition's DynamoDB expression text read-only.
func (c *Condition) Expr() string                   { return c.expr }
func (c *Condition) Values() map[string]interface{} { return c.values }

// Kind, Attr, Bound, and Sub expose a Condition's structural shape,
// populated by the constructors in expr.go, for storetest's generic
// in-memory evaluator.
func (c *Condition) Kind() string { return c.kind }
func (c *Condition) Attr() string { return c.attr }
func (c *Condition) Bound() (interface{}, bool) {
	if c.kind == "or" || c.kind == "and" {
		return nil, false
	}
	return c.bound, true
}
func (c *Condition) Sub() (left, right *Condition) { return c.left, c.right }

// Update describes a single UpdateItem call's SET/ADD/REMOVE expression,
// built by the helpers in expr.go. Ops carries the same clauses
// structurally, for storetest's generic application to a fake item.
type Update struct {
	expr   string
	names  map[string]*string
	values map[string]interface{}
	ops    []UpdateOp
}

func (u *Update) Expr() string                   { return u.expr }
func (u *Update) Values() map[string]interface{} { return u.values }
func (u *Update) Ops() []UpdateOp                { return u.ops }

// TransactAction is one action within a TransactWrite batch: exactly one
// of Put, Update, Delete, or ConditionCheck is non-nil.
type TransactAction struct {
	Key           Key
	Put           *Item
	Update        *Update
	Delete        bool
	ConditionCheck bool
	Condition     *Condition
}

// QueryOutput is the decoded result of a Query call.
type QueryOutput struct {
	Items      []Item
	Count      int
	LastKey    *Key // set when the result was truncated
}

// QueryInput describes a partition-scoped (optionally sort-key-bounded)
// query. SortKeyPrefix, SortKeyBetween and FilterExpr are mutually
// exclusive refinements over the same partition.
type QueryInput struct {
	PartitionKey   string
	SortKeyPrefix  string
	SortKeyBetween *[2]string
	FilterExpr     *Condition
	Limit          int
	Ascending      bool
	CountOnly      bool
	ExclusiveStart *Key

	// TypeIndex, when set, queries the (type, updatedAt) secondary index
	// instead of the base table, with PartitionKey reinterpreted as the
	// item Type and FilterExpr applied client-side by the service after
	// the index narrows by type (e.g. kv list's
	// begins_with(partitionKey, :prefix) scan).
	TypeIndex bool
}

// Driver is the typed wrapper every coordination primitive calls through.
// Every method returns either the typed result or a classified *errs.Error
// (see errs.go); callers never see a raw aws-sdk-go error.
type Driver interface {
	PutItem(ctx context.Context, item Item, cond *Condition) error
	GetItem(ctx context.Context, key Key, consistent bool) (*Item, error)
	UpdateItem(ctx context.Context, key Key, update Update, cond *Condition, rv ReturnValues) (*Item, error)
	DeleteItem(ctx context.Context, key Key, cond *Condition) error
	Query(ctx context.Context, in QueryInput) (*QueryOutput, error)
	TransactWrite(ctx context.Context, actions []TransactAction) error
	TransactGet(ctx context.Context, keys []Key) ([]*Item, error)
}
