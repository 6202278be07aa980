/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package yerr collects the error taxonomy shared by every layer of the
// client: validation failures, protocol errors, transport failures and
// server-reported errors. Sentinels are wrapped with fmt.Errorf("%w", ...)
// where a caller-supplied detail needs to travel with the kind, so
// errors.Is still matches against the sentinel.
package yerr

import (
	"errors"
	"fmt"
)

// Validation errors. These are returned synchronously, before any bytes
// reach the wire.
var (
	ErrInvalidPath     = errors.New("yaks: invalid path")
	ErrInvalidSelector = errors.New("yaks: invalid selector")
	ErrInvalidEncoding = errors.New("yaks: invalid value encoding")
)

// Protocol errors.
var (
	ErrMalformed         = errors.New("yaks: malformed message")
	ErrUnexpectedMessage = errors.New("yaks: unexpected message")
	ErrAuthFailed        = errors.New("yaks: authentication failed")
)

// Transport errors.
var (
	ErrConnectionLost = errors.New("yaks: connection lost")
	ErrClosed         = errors.New("yaks: session closed")
	ErrTimeout        = errors.New("yaks: request timed out")
)

// ErrNotImplemented covers the operations the protocol declares but does
// not implement: Workspace.update and the PROTOBUF value encoding.
var ErrNotImplemented = errors.New("yaks: not implemented")

// Errno values a server may send back in an ERROR message's body.
// These are the three the client itself reasons about (spec.md §4.5,
// §4.8): a failed LOGIN, an EVAL arriving for a registration that is
// being removed, and an eval callback that panicked or errored.
const (
	ErrnoUnauthorized        uint64 = 1
	ErrnoNotFound            uint64 = 2
	ErrnoInternalServerError uint64 = 3
)

// ServerError wraps an ERROR message that came back for a request. Errno
// is returned verbatim from the wire.
type ServerError struct {
	Errno uint64
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("yaks: server error %d", e.Errno)
}

// NewServerError builds a ServerError for the given wire errno.
func NewServerError(errno uint64) error {
	return &ServerError{Errno: errno}
}

// Invalid wraps ErrInvalidPath/ErrInvalidSelector/ErrInvalidEncoding with
// a human-readable reason, preserving errors.Is against the sentinel.
func Invalid(sentinel error, reason string) error {
	return fmt.Errorf("%w: %s", sentinel, reason)
}
