/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package message

import "github.com/yaksio/yaks-go/value"

// ChangeKind distinguishes the three kinds of notification a
// subscription can deliver.
type ChangeKind uint8

const (
	ChangePut ChangeKind = iota
	ChangeUpdate
	ChangeRemove
)

// KeyValue is one (path, value) pair, the unit carried by PUT/UPDATE
// bodies and by the values_list in VALUES/NOTIFY bodies.
type KeyValue struct {
	Path  string
	Value value.Value
}

// Entry is one (path, value, timestamp?) result of a get(). The wire's
// values_list (see the package doc) carries no per-entry timestamp, so
// HasStamp is always false for entries decoded off the wire today;
// the field exists so a future protocol revision that adds one does
// not need an API break. Series selectors ("starttime="/"stoptime=")
// rely instead on the server already returning historical entries for
// a path in ascending order; Workspace.Get preserves that order.
type Entry struct {
	Path      string
	Value     value.Value
	Timestamp uint64
	HasStamp  bool
}

// Change is one notification record delivered to a subscription
// listener. See Entry's doc comment: HasStamp is always false for the
// current wire format. The values_list carries no per-entry change kind
// either, so Kind is ChangePut for every Change a Session delivers.
type Change struct {
	Path      string
	Kind      ChangeKind
	Timestamp uint64
	HasStamp  bool
	Value     value.Value
}
