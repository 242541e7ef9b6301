// Package key implements the deterministic mapping from logical
// (namespace, name[, member/index]) tuples to the item store's
// partition-key / sort-key strings.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package key

import (
	"fmt"
	"regexp"

	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// Namespace enumerates the exhaustive set of reserved partition-key
// prefixes. Any other prefix is rejected by Validate.
type Namespace string

const (
	NamespaceKV      Namespace = "kv"
	NamespaceCounter Namespace = "counter"
	NamespaceLock    Namespace = "lock"
	NamespaceLeader  Namespace = "leader"
	NamespaceQueue   Namespace = "queue"
	NamespaceSet     Namespace = "set"
	NamespaceList    Namespace = "list"
)

var reservedNamespaces = map[Namespace]bool{
	NamespaceKV: true, NamespaceCounter: true, NamespaceLock: true,
	NamespaceLeader: true, NamespaceQueue: true, NamespaceSet: true, NamespaceList: true,
}

// nameRe matches the fixed name grammar: [A-Za-z0-9_./-]{1,200}.
var nameRe = regexp.MustCompile(`^[A-Za-z0-9_./-]{1,200}$`)

// ValidateName rejects names that do not match the reserved grammar, before
// any service call is attempted.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return errs.InvalidArgument(
			fmt.Sprintf("name %q does not match [A-Za-z0-9_./-]{1,200}", name),
			"choose a name using only letters, digits, underscore, dot, slash, or dash, 1-200 characters long",
		)
	}
	return nil
}

// PartitionKey returns "<namespace>:<name>" for any namespace.
func PartitionKey(ns Namespace, name string) string {
	return fmt.Sprintf("%s:%s", ns, name)
}

// Singleton returns the (pk, sk) pair for kv/counter/lock/leader items,
// where sk == pk per the Open Question decision recorded in DESIGN.md.
func Singleton(ns Namespace, name string) (pk, sk string) {
	pk = PartitionKey(ns, name)
	return pk, pk
}

// SetPartitionKey is the collection-wide partition key a set's members share.
func SetPartitionKey(name string) string { return PartitionKey(NamespaceSet, name) }

// SetMemberSortKey encodes a single set member's sort key as
// "set:<name>#<member>", the same "#"-delimited convention the list and
// queue sort keys use. The partition key already scopes by name, but the
// sort key carries it too so it stays self-describing when read outside
// the partition (e.g. in a table scan or export).
func SetMemberSortKey(name, member string) string {
	return fmt.Sprintf("set:%s#%s", name, member)
}

// ListPartitionKey is the collection-wide partition key a list's header and
// elements share.
func ListPartitionKey(name string) string { return PartitionKey(NamespaceList, name) }

// ListHeaderSortKey identifies the header item carrying headIdx/tailIdx.
func ListHeaderSortKey(name string) string {
	return fmt.Sprintf("list:%s:header", name)
}

// QueuePartitionKey is the collection-wide partition key a queue's entries share.
func QueuePartitionKey(name string) string { return PartitionKey(NamespaceQueue, name) }

// Validate rejects any namespace outside the reserved set.
func Validate(ns Namespace) error {
	if !reservedNamespaces[ns] {
		return errs.InvalidArgument(
			fmt.Sprintf("namespace %q is not one of kv, counter, lock, leader, queue, set, list", ns),
			"use one of the reserved namespace prefixes",
		)
	}
	return nil
}
