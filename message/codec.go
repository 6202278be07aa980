/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package message

import (
	"github.com/yaksio/yaks-go/vle"
	"github.com/yaksio/yaks-go/yerr"
)

// Encode serializes m's header, properties (if any) and body, in that
// order. It does not length-prefix the result; that is the wire
// framer's job (see the message package doc and the framer package).
func Encode(dst []byte, m *Message) []byte {
	dst = append(dst, byte(m.Code), m.Flags)
	dst = vle.Encode(dst, m.CorrID)
	if m.HasProperties() {
		dst = vle.Encode(dst, uint64(len(m.Properties)))
		for _, p := range m.Properties {
			dst = vle.Encode(dst, uint64(len(p.Key)))
			dst = append(dst, p.Key...)
			dst = vle.Encode(dst, uint64(len(p.Value)))
			dst = append(dst, p.Value...)
		}
	}
	dst = append(dst, m.Body...)
	return dst
}

// Decode parses a Message out of buf (the full message_bytes the
// framer handed over, with no surrounding length prefix).
func Decode(buf []byte) (*Message, error) {
	if len(buf) < 2 {
		return nil, yerr.ErrMalformed
	}
	m := &Message{Code: Code(buf[0]), Flags: buf[1]}
	pos := 2
	corrID, n, err := vle.Decode(buf[pos:])
	if err != nil {
		return nil, yerr.ErrMalformed
	}
	m.CorrID = corrID
	pos += n

	if m.HasProperties() {
		count, n, err := vle.Decode(buf[pos:])
		if err != nil {
			return nil, yerr.ErrMalformed
		}
		pos += n
		props := make([]Property, 0, count)
		for i := uint64(0); i < count; i++ {
			k, n, err := readString(buf, pos)
			if err != nil {
				return nil, err
			}
			pos += n
			v, n, err := readString(buf, pos)
			if err != nil {
				return nil, err
			}
			pos += n
			props = append(props, Property{Key: k, Value: v})
		}
		m.Properties = props
	}
	m.Body = buf[pos:]
	return m, nil
}

func readString(buf []byte, pos int) (string, int, error) {
	l, n, err := vle.Decode(buf[pos:])
	if err != nil {
		return "", 0, yerr.ErrMalformed
	}
	start := pos + n
	end := start + int(l)
	if end > len(buf) || end < start {
		return "", 0, yerr.ErrMalformed
	}
	return string(buf[start:end]), n + int(l), nil
}
