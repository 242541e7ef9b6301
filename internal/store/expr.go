package store

import "fmt"

// The helpers below build backend-agnostic Condition/Update values. The
// DynamoDB driver (dynamo.go) translates them into expression attribute
// names/values at the call boundary; no other package imports aws-sdk-go
// for expression syntax.

// reservedAttrs are the item attributes that collide with DynamoDB
// reserved words and therefore must always go through an expression
// attribute name alias rather than appear literally in an expression.
var reservedAttrs = map[string]bool{"type": true, "value": true, "ttl": true}

// alias replaces an attribute whose whole name is in reservedAttrs by a
// "#name" placeholder, returning the rewritten path plus the
// placeholder->attribute bindings to merge into the expression's
// ExpressionAttributeNames. Dotted paths are returned unchanged; their
// segments are not checked.
func alias(attr string) (path string, names map[string]*string) {
	if !reservedAttrs[attr] {
		return attr, nil
	}
	placeholder := "#" + attr
	a := attr
	return placeholder, map[string]*string{placeholder: &a}
}

// AttributeNotExists requires attr to be absent; on "partitionKey" it is
// the canonical "create if absent" precondition.
func AttributeNotExists(attr string) *Condition {
	path, names := alias(attr)
	return &Condition{expr: fmt.Sprintf("attribute_not_exists(%s)", path), names: names, kind: "not_exists", attr: attr}
}

// AttributeExists requires attr to be present.
func AttributeExists(attr string) *Condition {
	path, names := alias(attr)
	return &Condition{expr: fmt.Sprintf("attribute_exists(%s)", path), names: names, kind: "exists", attr: attr}
}

// Or combines two conditions with OR, used by lock/leader re-acquisition
// on an expired TTL: attribute_not_exists(pk) OR ttl < :now.
func Or(a, b *Condition) *Condition {
	return &Condition{
		expr:   fmt.Sprintf("(%s) OR (%s)", a.expr, b.expr),
		names:  mergeNames(a.names, b.names),
		values: mergeValues(a.values, b.values),
		kind:   "or", left: a, right: b,
	}
}

// And combines two conditions with AND.
func And(a, b *Condition) *Condition {
	return &Condition{
		expr:   fmt.Sprintf("(%s) AND (%s)", a.expr, b.expr),
		names:  mergeNames(a.names, b.names),
		values: mergeValues(a.values, b.values),
		kind:   "and", left: a, right: b,
	}
}

// AttributeLessThan builds "<attr> < :name" bound to value.
func AttributeLessThan(attr, valueName string, value interface{}) *Condition {
	path, names := alias(attr)
	return &Condition{
		expr:   fmt.Sprintf("%s < :%s", path, valueName),
		names:  names,
		values: map[string]interface{}{valueName: value},
		kind:   "less_than", attr: attr, bound: value,
	}
}

// AttributeEquals builds "<attr> = :name" bound to value, used for owner
// and value-match preconditions (lock release/extend, kv delete --if-value,
// queue visibility-deadline races, list header compare-and-swap).
func AttributeEquals(attr, valueName string, value interface{}) *Condition {
	path, names := alias(attr)
	return &Condition{
		expr:   fmt.Sprintf("%s = :%s", path, valueName),
		names:  names,
		values: map[string]interface{}{valueName: value},
		kind:   "equals", attr: attr, bound: value,
	}
}

// BeginsWith builds "begins_with(<attr>, :name)", used by kv list's
// partition-key prefix filter over the type index.
func BeginsWith(attr, valueName string, value string) *Condition {
	path, names := alias(attr)
	return &Condition{
		expr:   fmt.Sprintf("begins_with(%s, :%s)", path, valueName),
		names:  names,
		values: map[string]interface{}{valueName: value},
		kind:   "begins_with", attr: attr, bound: value,
	}
}

func mergeNames(maps ...map[string]*string) map[string]*string {
	out := map[string]*string{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func mergeValues(maps ...map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// UpdateBuilder accumulates SET/ADD/REMOVE clauses for a single UpdateItem
// call. Attribute names go through alias, so the reserved top-level names
// in reservedAttrs become "#name" placeholders and every other path is
// referenced directly.
type UpdateBuilder struct {
	sets    []string
	adds    []string
	removes []string
	names   map[string]*string
	values  map[string]interface{}
	ops     []UpdateOp
}

// UpdateOp records one SET/ADD/REMOVE/SET-IF-ABSENT clause structurally
// (attribute path and bound value) so storetest's fake can apply an Update
// by walking an item's fields directly instead of re-deriving intent from
// the DynamoDB placeholder names chosen for Update.Values().
type UpdateOp struct {
	Kind  string // "set", "set_if_absent", "add", "remove"
	Attr  string
	Value interface{}
}

func NewUpdate() *UpdateBuilder {
	return &UpdateBuilder{values: map[string]interface{}{}, names: map[string]*string{}}
}

func (u *UpdateBuilder) mergeAlias(attr string) string {
	path, names := alias(attr)
	for k, v := range names {
		u.names[k] = v
	}
	return path
}

func (u *UpdateBuilder) Set(attr, valueName string, value interface{}) *UpdateBuilder {
	path := u.mergeAlias(attr)
	u.sets = append(u.sets, fmt.Sprintf("%s = :%s", path, valueName))
	u.values[valueName] = value
	u.ops = append(u.ops, UpdateOp{Kind: "set", Attr: attr, Value: value})
	return u
}

// SetIfAbsent emits "attr = if_not_exists(attr, :valueName)", the
// idiomatic DynamoDB way to stamp a createdAt-style field only the first
// time an item is written, including on auto-vivification by an ADD.
func (u *UpdateBuilder) SetIfAbsent(attr, valueName string, value interface{}) *UpdateBuilder {
	path := u.mergeAlias(attr)
	u.sets = append(u.sets, fmt.Sprintf("%s = if_not_exists(%s, :%s)", path, path, valueName))
	u.values[valueName] = value
	u.ops = append(u.ops, UpdateOp{Kind: "set_if_absent", Attr: attr, Value: value})
	return u
}

func (u *UpdateBuilder) Add(attr, valueName string, value interface{}) *UpdateBuilder {
	path := u.mergeAlias(attr)
	u.adds = append(u.adds, fmt.Sprintf("%s :%s", path, valueName))
	u.values[valueName] = value
	u.ops = append(u.ops, UpdateOp{Kind: "add", Attr: attr, Value: value})
	return u
}

func (u *UpdateBuilder) Remove(attr string) *UpdateBuilder {
	u.removes = append(u.removes, u.mergeAlias(attr))
	u.ops = append(u.ops, UpdateOp{Kind: "remove", Attr: attr})
	return u
}

func (u *UpdateBuilder) Build() Update {
	var expr string
	if len(u.sets) > 0 {
		expr += "SET " + join(u.sets, ", ")
	}
	if len(u.adds) > 0 {
		if expr != "" {
			expr += " "
		}
		expr += "ADD " + join(u.adds, ", ")
	}
	if len(u.removes) > 0 {
		if expr != "" {
			expr += " "
		}
		expr += "REMOVE " + join(u.removes, ", ")
	}
	return Update{expr: expr, names: u.names, values: u.values, ops: u.ops}
}

func join(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
