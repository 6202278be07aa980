/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package admin implements the thin storage-management layer over a
// session.Session: add_storage and remove_storage (spec.md §4.7).
// Grounded on the teacher's client/admin.go admin-command wrapper
// style (small methods that build a request and delegate to the
// shared connection, no state of their own) and, for the property
// key, on the "selector" property spec.md §4.7 calls out explicitly.
package admin

import (
	"context"

	"github.com/yaksio/yaks-go/session"
)

// Admin manages storage backends over a logged-in Session. It holds
// no state beyond the Session handle; unlike Workspace it is not
// bound to any one path.
type Admin struct {
	sess *session.Session
}

// New returns an Admin bound to sess.
func New(sess *session.Session) *Admin {
	return &Admin{sess: sess}
}

// AddStorage creates a storage backend named id, selected by the
// "selector" key in props (and any backend-specific keys alongside
// it).
func (a *Admin) AddStorage(ctx context.Context, id string, props map[string]string) error {
	return a.sess.AdminAddStorage(ctx, id, props)
}

// RemoveStorage removes the storage backend named id.
func (a *Admin) RemoveStorage(ctx context.Context, id string) error {
	return a.sess.AdminRemoveStorage(ctx, id)
}
