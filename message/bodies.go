/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package message

import (
	"github.com/yaksio/yaks-go/value"
	"github.com/yaksio/yaks-go/vle"
	"github.com/yaksio/yaks-go/yerr"
)

// --- body encoders, one per wire-body shape in spec.md §6 ---

func encodeStringBody(s string) []byte {
	dst := vle.Encode(nil, uint64(len(s)))
	return append(dst, s...)
}

func decodeStringBody(body []byte) (string, error) {
	s, n, err := readString(body, 0)
	if err != nil {
		return "", err
	}
	if n != len(body) {
		return "", yerr.ErrMalformed
	}
	return s, nil
}

func encodeKeyValueList(kvs []KeyValue) ([]byte, error) {
	dst := vle.Encode(nil, uint64(len(kvs)))
	for _, kv := range kvs {
		dst = vle.Encode(dst, uint64(len(kv.Path)))
		dst = append(dst, kv.Path...)
		var err error
		dst, err = value.Encode(dst, kv.Value)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func decodeKeyValueList(body []byte, pos int) ([]KeyValue, int, error) {
	count, n, err := vle.Decode(body[pos:])
	if err != nil {
		return nil, 0, yerr.ErrMalformed
	}
	total := n
	pos += n
	out := make([]KeyValue, 0, count)
	for i := uint64(0); i < count; i++ {
		path, n, err := readString(body, pos)
		if err != nil {
			return nil, 0, err
		}
		pos += n
		total += n
		v, n, err := value.Decode(body[pos:])
		if err != nil {
			return nil, 0, yerr.ErrMalformed
		}
		pos += n
		total += n
		out = append(out, KeyValue{Path: path, Value: v})
	}
	return out, total, nil
}

// NewLogin builds a LOGIN message. If user/pass are both non-empty, the
// "yaks.login" property carries "user:pass" as spec.md §3 specifies.
func NewLogin(corrID uint64, user, pass string) *Message {
	m := &Message{Code: LOGIN, CorrID: corrID}
	if user != "" && pass != "" {
		m.AddProperty("yaks.login", user+":"+pass)
	}
	return m
}

// NewLogout builds a LOGOUT message.
func NewLogout(corrID uint64) *Message {
	return &Message{Code: LOGOUT, CorrID: corrID}
}

// NewWorkspace builds a WORKSPACE handshake message carrying path in the body.
func NewWorkspace(corrID uint64, path string) *Message {
	return &Message{Code: WORKSPACE, CorrID: corrID, Body: encodeStringBody(path)}
}

// GetPath decodes a path-only body (WORKSPACE, DELETE).
func (m *Message) GetPath() (string, error) { return decodeStringBody(m.Body) }

// NewPut builds a PUT message: wsid property plus a one-element
// (path,value) list, per spec.md §6.
func NewPut(corrID uint64, wsid, path string, v value.Value) (*Message, error) {
	m := &Message{Code: PUT, CorrID: corrID}
	m.AddProperty("wsid", wsid)
	body, err := encodeKeyValueList([]KeyValue{{Path: path, Value: v}})
	if err != nil {
		return nil, err
	}
	m.Body = body
	return m, nil
}

// NewUpdate mirrors NewPut's framing; Workspace.Update never sends it
// (ErrNotImplemented), but the wire shape is identical to PUT so it is
// provided for completeness and for decode-side round-trip coverage.
func NewUpdate(corrID uint64, wsid, path string, v value.Value) (*Message, error) {
	m, err := NewPut(corrID, wsid, path, v)
	if err != nil {
		return nil, err
	}
	m.Code = UPDATE
	return m, nil
}

// GetKeyValueList decodes a PUT/UPDATE body.
func (m *Message) GetKeyValueList() ([]KeyValue, error) {
	kvs, n, err := decodeKeyValueList(m.Body, 0)
	if err != nil {
		return nil, err
	}
	if n != len(m.Body) {
		return nil, yerr.ErrMalformed
	}
	return kvs, nil
}

// NewGet builds a GET message: wsid property plus a selector body.
func NewGet(corrID uint64, wsid, selector string) *Message {
	m := &Message{Code: GET, CorrID: corrID}
	m.AddProperty("wsid", wsid)
	m.Body = encodeStringBody(selector)
	return m
}

// NewDelete builds a DELETE message: wsid property plus a path body.
func NewDelete(corrID uint64, wsid, path string) *Message {
	m := &Message{Code: DELETE, CorrID: corrID}
	m.AddProperty("wsid", wsid)
	m.Body = encodeStringBody(path)
	return m
}

// GetSelector decodes a selector-only body (GET, SUB).
func (m *Message) GetSelector() (string, error) { return decodeStringBody(m.Body) }

// NewSub builds a SUB message: wsid property plus a selector body.
func NewSub(corrID uint64, wsid, selector string) *Message {
	m := &Message{Code: SUB, CorrID: corrID}
	m.AddProperty("wsid", wsid)
	m.Body = encodeStringBody(selector)
	return m
}

// NewUnsub builds an UNSUB message: wsid property plus a sub_id body.
func NewUnsub(corrID uint64, wsid, subID string) *Message {
	m := &Message{Code: UNSUB, CorrID: corrID}
	m.AddProperty("wsid", wsid)
	m.Body = encodeStringBody(subID)
	return m
}

// GetSubID decodes a subscription-id-only body (UNSUB).
func (m *Message) GetSubID() (string, error) { return decodeStringBody(m.Body) }

// NewNotify builds a NOTIFY message: sub_id plus a values_list, per
// spec.md §6 ("VLE(idlen) sub_id || values_list").
func NewNotify(corrID uint64, subID string, kvs []KeyValue) (*Message, error) {
	body := encodeStringBody(subID)
	kvBody, err := encodeKeyValueList(kvs)
	if err != nil {
		return nil, err
	}
	return &Message{Code: NOTIFY, CorrID: corrID, Body: append(body, kvBody...)}, nil
}

// GetNotify decodes a NOTIFY body into its subscription id and key/value list.
func (m *Message) GetNotify() (string, []KeyValue, error) {
	subID, n, err := readString(m.Body, 0)
	if err != nil {
		return "", nil, err
	}
	kvs, n2, err := decodeKeyValueList(m.Body, n)
	if err != nil {
		return "", nil, err
	}
	if n+n2 != len(m.Body) {
		return "", nil, yerr.ErrMalformed
	}
	return subID, kvs, nil
}

// NewEvalRegister builds an EVAL message (R flag set, wsid property,
// path body) registering an eval function at path. The unregister_eval
// variant carries the same path plus an "unregister" property (see
// NewEvalUnregister).
func NewEvalRegister(corrID uint64, wsid, path string) *Message {
	m := &Message{Code: EVAL, CorrID: corrID, Flags: FlagEvalReg}
	m.AddProperty("wsid", wsid)
	m.Body = encodeStringBody(path)
	return m
}

// NewEvalUnregister builds the EVAL unregistration tombstone for path.
func NewEvalUnregister(corrID uint64, wsid, path string) *Message {
	m := NewEvalRegister(corrID, wsid, path)
	m.AddProperty("unregister", "1")
	return m
}

// NewEvalInvoke builds a live EVAL invocation (R flag clear) carrying a
// query selector, as the server would send it to a registered client.
func NewEvalInvoke(corrID uint64, selector string) *Message {
	return &Message{Code: EVAL, CorrID: corrID, Body: encodeStringBody(selector)}
}

// NewValues builds a VALUES reply carrying kvs, echoing corrID.
func NewValues(corrID uint64, kvs []KeyValue) (*Message, error) {
	body, err := encodeKeyValueList(kvs)
	if err != nil {
		return nil, err
	}
	return &Message{Code: VALUES, CorrID: corrID, Body: body}, nil
}

// GetValues decodes a VALUES body.
func (m *Message) GetValues() ([]KeyValue, error) {
	kvs, n, err := decodeKeyValueList(m.Body, 0)
	if err != nil {
		return nil, err
	}
	if n != len(m.Body) {
		return nil, yerr.ErrMalformed
	}
	return kvs, nil
}

// NewOK builds an OK reply. body carries the operation's assigned id
// (workspace id from WORKSPACE, subscription id from SUB) when one was
// produced; it is empty for ops that only ack.
func NewOK(corrID uint64, body string) *Message {
	m := &Message{Code: OK, CorrID: corrID}
	if body != "" {
		m.Body = encodeStringBody(body)
	}
	return m
}

// GetOKBody decodes OK's optional id body; returns "" if none was sent.
func (m *Message) GetOKBody() (string, error) {
	if len(m.Body) == 0 {
		return "", nil
	}
	return decodeStringBody(m.Body)
}

// NewError builds an ERROR reply carrying errno verbatim.
func NewError(corrID, errno uint64) *Message {
	return &Message{Code: ERROR, CorrID: corrID, Body: vle.Encode(nil, errno)}
}

// GetErrno decodes an ERROR body.
func (m *Message) GetErrno() (uint64, error) {
	errno, n, err := vle.Decode(m.Body)
	if err != nil || n != len(m.Body) {
		return 0, yerr.ErrMalformed
	}
	return errno, nil
}
