/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package workspace implements the Workspace facade: a thin,
// path-resolving wrapper over a session.Session bound to one absolute
// path and its negotiated workspace id. See spec.md §4.6. Grounded on
// the teacher's client/client.go resource-scoped wrapper methods over
// a shared connection (e.g. Client.GetTemplates/Client.AddTemplate
// delegating straight through to the underlying httpClient), adapted
// here from HTTP-resource wrapping to Session-request wrapping.
package workspace

import (
	"context"
	"sort"
	"strings"

	"github.com/yaksio/yaks-go/message"
	"github.com/yaksio/yaks-go/pathsel"
	"github.com/yaksio/yaks-go/session"
	"github.com/yaksio/yaks-go/value"
	"github.com/yaksio/yaks-go/yerr"
)

// Workspace is bound to one absolute path and the workspace id the
// server assigned it at Open. All its methods accept paths/selectors
// either absolute or relative to that path; relative ones are
// resolved by concatenation with path+"/" (spec.md §3).
type Workspace struct {
	sess *session.Session
	path string
	wsid string
}

// Open performs the WORKSPACE handshake for path and returns a bound
// Workspace. path must be absolute.
func Open(ctx context.Context, sess *session.Session, path string) (*Workspace, error) {
	if _, err := pathsel.NewPath(path); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(path, "/") {
		return nil, yerr.Invalid(yerr.ErrInvalidPath, "workspace path must be absolute")
	}
	wsid, err := sess.OpenWorkspace(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Workspace{sess: sess, path: path, wsid: wsid}, nil
}

// Path returns the Workspace's absolute path.
func (w *Workspace) Path() string { return w.path }

// ID returns the server-assigned workspace id every data op echoes.
func (w *Workspace) ID() string { return w.wsid }

// toAbsolute resolves p against the Workspace's path if p is not
// already absolute, per spec.md §3 and §4.6.
func (w *Workspace) toAbsolute(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return w.path + "/" + p
}

// Put writes v at p (absolute or relative).
func (w *Workspace) Put(ctx context.Context, p string, v value.Value) error {
	if v.Encoding() == value.INVALID {
		return yerr.Invalid(yerr.ErrInvalidEncoding, "cannot put an INVALID value")
	}
	return w.sess.Put(ctx, w.wsid, w.toAbsolute(p), v)
}

// Update is permanently yerr.ErrNotImplemented; see spec.md §4.6's
// Open Question decision, recorded in DESIGN.md. It is never routed
// to Put.
func (w *Workspace) Update(ctx context.Context, p string, v value.Value) error {
	return w.sess.Update(ctx, w.wsid, w.toAbsolute(p), v)
}

// isSeriesSelector reports whether sel's query part requests a time
// series ("starttime=" or "stoptime="), per spec.md §4.6/§8: a series
// selector returns every entry per path in ascending timestamp order;
// otherwise only the latest entry per path is kept.
func isSeriesSelector(sel pathsel.Selector) bool {
	q, err := sel.QueryDict()
	if err != nil {
		return false
	}
	_, hasStart := q["starttime"]
	_, hasStop := q["stoptime"]
	return hasStart || hasStop
}

// Get queries selector (absolute or relative) and returns the
// resulting Entries. A series selector returns every historical entry
// per path sorted ascending by timestamp; otherwise only the newest
// entry per path survives.
func (w *Workspace) Get(ctx context.Context, selector string) ([]message.Entry, error) {
	abs := w.toAbsolute(selector)
	sel, err := pathsel.NewSelector(abs)
	if err != nil {
		return nil, err
	}
	kvs, err := w.sess.Get(ctx, w.wsid, abs)
	if err != nil {
		return nil, err
	}

	series := isSeriesSelector(sel)
	if series {
		entries := make([]message.Entry, 0, len(kvs))
		for _, kv := range kvs {
			entries = append(entries, message.Entry{Path: kv.Path, Value: kv.Value})
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp < entries[j].Timestamp })
		return entries, nil
	}

	latest := make(map[string]message.Entry, len(kvs))
	order := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		if _, ok := latest[kv.Path]; !ok {
			order = append(order, kv.Path)
		}
		latest[kv.Path] = message.Entry{Path: kv.Path, Value: kv.Value}
	}
	entries := make([]message.Entry, 0, len(order))
	for _, p := range order {
		entries = append(entries, latest[p])
	}
	return entries, nil
}

// Eval is semantically identical to Get: a selector whose results
// originate from eval-registered paths is queried the same way a
// stored path is (spec.md §4.6).
func (w *Workspace) Eval(ctx context.Context, selector string) ([]message.Entry, error) {
	return w.Get(ctx, selector)
}

// Remove deletes p (absolute or relative).
func (w *Workspace) Remove(ctx context.Context, p string) error {
	return w.sess.Remove(ctx, w.wsid, w.toAbsolute(p))
}

// Subscribe registers listener against selector (absolute or
// relative) and returns the server-assigned subscription id.
func (w *Workspace) Subscribe(ctx context.Context, selector string, listener session.NotifyListener) (string, error) {
	abs := w.toAbsolute(selector)
	if _, err := pathsel.NewSelector(abs); err != nil {
		return "", err
	}
	return w.sess.Subscribe(ctx, w.wsid, abs, listener)
}

// Unsubscribe cancels a previous Subscribe by id.
func (w *Workspace) Unsubscribe(ctx context.Context, id string) error {
	return w.sess.Unsubscribe(ctx, w.wsid, id)
}

// RegisterEval registers fn as the computation invoked when a query
// selector's path part matches p (absolute or relative).
func (w *Workspace) RegisterEval(ctx context.Context, p string, fn session.EvalFunc) error {
	return w.sess.RegisterEval(ctx, w.wsid, w.toAbsolute(p), fn)
}

// UnregisterEval removes a previous RegisterEval at p.
func (w *Workspace) UnregisterEval(ctx context.Context, p string) error {
	return w.sess.UnregisterEval(ctx, w.wsid, w.toAbsolute(p))
}
