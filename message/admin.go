/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package message

// Admin storage operations reuse the WORKSPACE/DELETE codes with an
// "entity=storage" property rather than minting new wire codes, per
// spec.md §4.7 ("a WORKSPACE-family admin message, property-driven").
// The storage's id travels in the body exactly like a workspace path;
// its selector and any other configuration travel as properties.
const adminEntityStorage = "storage"

// NewAdminAddStorage builds the WORKSPACE-family message that creates
// a storage backend named id. props must include "selector" (the path
// selector the storage backs) and may carry backend-specific keys.
func NewAdminAddStorage(corrID uint64, id string, props map[string]string) *Message {
	m := &Message{Code: WORKSPACE, CorrID: corrID, Body: encodeStringBody(id)}
	m.AddProperty("entity", adminEntityStorage)
	for k, v := range props {
		m.AddProperty(k, v)
	}
	return m
}

// NewAdminRemoveStorage builds the DELETE-family counterpart to
// NewAdminAddStorage, removing the storage named id.
func NewAdminRemoveStorage(corrID uint64, id string) *Message {
	m := &Message{Code: DELETE, CorrID: corrID, Body: encodeStringBody(id)}
	m.AddProperty("entity", adminEntityStorage)
	return m
}

// IsAdminStorage reports whether m carries the "entity=storage" marker
// added by the two constructors above.
func (m *Message) IsAdminStorage() bool {
	v, ok := m.Property("entity")
	return ok && v == adminEntityStorage
}
