/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package value implements the Value tuple (encoding, payload) carried
// by every PUT/UPDATE/NOTIFY/VALUES message, along with its wire encoding.
package value

import (
	"github.com/gravwell/jsonparser"

	"github.com/yaksio/yaks-go/yerr"
)

// Encoding identifies how a Value's payload is interpreted. The byte
// codes are part of the wire format and must not be renumbered.
type Encoding uint8

const (
	RAW      Encoding = 0x00
	STRING   Encoding = 0x01
	JSON     Encoding = 0x02
	SQL      Encoding = 0x03
	PROTOBUF Encoding = 0x04 // reserved, unsupported
	INVALID  Encoding = 0xff // sentinel, never serialized
)

func (e Encoding) String() string {
	switch e {
	case RAW:
		return "RAW"
	case STRING:
		return "STRING"
	case JSON:
		return "JSON"
	case SQL:
		return "SQL"
	case PROTOBUF:
		return "PROTOBUF"
	case INVALID:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// SQLPayload is the pair carried by a Value with encoding SQL: one row
// of values alongside the column names they correspond to.
type SQLPayload struct {
	RowValues   []string
	ColumnNames []string
}

// Value is the tagged payload tuple (encoding, payload). Only RAW
// carries a Representation string; it is ignored for every other
// encoding.
type Value struct {
	encoding       Encoding
	payload        string
	sql            SQLPayload
	representation string
}

// NewRaw builds a RAW value with the given MIME-like representation tag.
func NewRaw(payload, representation string) Value {
	return Value{encoding: RAW, payload: payload, representation: representation}
}

// NewString builds a STRING value.
func NewString(payload string) Value {
	return Value{encoding: STRING, payload: payload}
}

// NewJSON builds a JSON value. The payload is carried opaquely; this
// package never parses it (see JSONLookup for a peek without a full
// unmarshal).
func NewJSON(payload string) Value {
	return Value{encoding: JSON, payload: payload}
}

// NewSQL builds a SQL value from a row of values and their column names.
func NewSQL(rowValues, columnNames []string) Value {
	return Value{encoding: SQL, sql: SQLPayload{RowValues: rowValues, ColumnNames: columnNames}}
}

// New builds a value with the default encoding (RAW, empty
// representation), mirroring the source's constructor default.
func New(payload string) Value {
	return NewRaw(payload, "")
}

// Encoding returns the value's encoding discriminator.
func (v Value) Encoding() Encoding { return v.encoding }

// Representation returns the RAW MIME-like tag; "" for every other encoding.
func (v Value) Representation() string { return v.representation }

// Payload returns the string payload for RAW/STRING/JSON values.
func (v Value) Payload() string { return v.payload }

// SQL returns the SQL payload pair. Only meaningful when Encoding() == SQL.
func (v Value) SQL() SQLPayload { return v.sql }

// Equal reports structural equality, used by tests and by subscription
// fixtures comparing a Change's value against an expected put Value.
func (v Value) Equal(o Value) bool {
	if v.encoding != o.encoding {
		return false
	}
	switch v.encoding {
	case SQL:
		return stringsEqual(v.sql.RowValues, o.sql.RowValues) && stringsEqual(v.sql.ColumnNames, o.sql.ColumnNames)
	case RAW:
		return v.payload == o.payload && v.representation == o.representation
	default:
		return v.payload == o.payload
	}
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// JSONLookup reads a single field out of a JSON-encoded value's payload
// without building a full encoding/json tree, using
// github.com/gravwell/jsonparser. It is a convenience only: the wire
// codec never interprets JSON payloads, so this is purely opt-in for
// callers (e.g. an eval function that needs one field of its argument).
func (v Value) JSONLookup(keys ...string) ([]byte, jsonparser.ValueType, error) {
	if v.encoding != JSON {
		return nil, jsonparser.NotExist, yerr.Invalid(yerr.ErrInvalidEncoding, "JSONLookup requires a JSON value")
	}
	val, typ, _, err := jsonparser.Get([]byte(v.payload), keys...)
	return val, typ, err
}
