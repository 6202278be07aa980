/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package value

import (
	"github.com/yaksio/yaks-go/vle"
	"github.com/yaksio/yaks-go/yerr"
)

// Encode appends the wire encoding of v to dst, per spec:
//
//	RAW:            encoding:u8(0) VLE(rlen) repr:bytes VLE(vlen) payload:bytes
//	STRING/JSON:    encoding:u8     VLE(vlen) payload:bytes
//	SQL:            encoding:u8     list(row_values) list(column_names)
//
// A Value with encoding INVALID, or PROTOBUF (reserved/unsupported),
// must never be serialized; Encode returns an error for both.
func Encode(dst []byte, v Value) ([]byte, error) {
	switch v.encoding {
	case RAW:
		dst = append(dst, byte(RAW))
		dst = vle.Encode(dst, uint64(len(v.representation)))
		dst = append(dst, v.representation...)
		dst = vle.Encode(dst, uint64(len(v.payload)))
		dst = append(dst, v.payload...)
	case STRING, JSON:
		dst = append(dst, byte(v.encoding))
		dst = vle.Encode(dst, uint64(len(v.payload)))
		dst = append(dst, v.payload...)
	case SQL:
		dst = append(dst, byte(SQL))
		dst = encodeStringList(dst, v.sql.RowValues)
		dst = encodeStringList(dst, v.sql.ColumnNames)
	case PROTOBUF:
		return nil, yerr.ErrNotImplemented
	case INVALID:
		return nil, yerr.Invalid(yerr.ErrInvalidEncoding, "INVALID value cannot be serialized")
	default:
		return nil, yerr.Invalid(yerr.ErrInvalidEncoding, "unknown encoding")
	}
	return dst, nil
}

func encodeStringList(dst []byte, vals []string) []byte {
	dst = vle.Encode(dst, uint64(len(vals)))
	for _, s := range vals {
		dst = vle.Encode(dst, uint64(len(s)))
		dst = append(dst, s...)
	}
	return dst
}

// Decode reads one encoded Value from the front of buf, returning the
// value and the number of bytes consumed.
func Decode(buf []byte) (Value, int, error) {
	if len(buf) < 1 {
		return Value{}, 0, yerr.ErrMalformed
	}
	enc := Encoding(buf[0])
	pos := 1
	switch enc {
	case RAW:
		repr, n, err := decodeString(buf, pos)
		if err != nil {
			return Value{}, 0, err
		}
		pos += n
		payload, n, err := decodeString(buf, pos)
		if err != nil {
			return Value{}, 0, err
		}
		pos += n
		return Value{encoding: RAW, payload: payload, representation: repr}, pos, nil
	case STRING, JSON:
		payload, n, err := decodeString(buf, pos)
		if err != nil {
			return Value{}, 0, err
		}
		pos += n
		return Value{encoding: enc, payload: payload}, pos, nil
	case SQL:
		rows, n, err := decodeStringList(buf, pos)
		if err != nil {
			return Value{}, 0, err
		}
		pos += n
		cols, n, err := decodeStringList(buf, pos)
		if err != nil {
			return Value{}, 0, err
		}
		pos += n
		return Value{encoding: SQL, sql: SQLPayload{RowValues: rows, ColumnNames: cols}}, pos, nil
	default:
		return Value{}, 0, yerr.ErrMalformed
	}
}

func decodeString(buf []byte, pos int) (string, int, error) {
	l, n, err := vle.Decode(buf[pos:])
	if err != nil {
		return "", 0, err
	}
	start := pos + n
	end := start + int(l)
	if end > len(buf) || end < start {
		return "", 0, yerr.ErrMalformed
	}
	return string(buf[start:end]), n + int(l), nil
}

func decodeStringList(buf []byte, pos int) ([]string, int, error) {
	l, n, err := vle.Decode(buf[pos:])
	if err != nil {
		return nil, 0, err
	}
	total := n
	pos += n
	out := make([]string, 0, l)
	for i := uint64(0); i < l; i++ {
		s, sn, err := decodeString(buf, pos)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
		pos += sn
		total += sn
	}
	return out, total, nil
}
