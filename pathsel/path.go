/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package pathsel implements the Path and Selector grammar: syntactic
// validation of hierarchical paths, prefix relations, and the wildcard
// selector / query-string grammar used to subscribe to and query ranges
// of paths.
package pathsel

import (
	"strings"

	"github.com/yaksio/yaks-go/yerr"
)

// Path is a non-empty string identifying a location in the Yaks
// key space. Equality is plain string equality.
type Path struct {
	s string
}

// NewPath validates s and returns a Path. s must be non-empty, must not
// contain any of '?', '#', '*', and must not start with "//".
func NewPath(s string) (Path, error) {
	if !validPathString(s) {
		return Path{}, yerr.Invalid(yerr.ErrInvalidPath, "not a valid Path")
	}
	return Path{s: s}, nil
}

func validPathString(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, "?#*") {
		return false
	}
	if strings.HasPrefix(s, "//") {
		return false
	}
	return true
}

// String returns the path's wire form.
func (p Path) String() string { return p.s }

// IsAbsolute reports whether the path begins with '/'.
func (p Path) IsAbsolute() bool { return strings.HasPrefix(p.s, "/") }

// IsPrefix reports whether prefix is a string-prefix of p. This is a
// plain string-prefix test; it does not enforce segment alignment
// (matches the source semantics: "/ab" is a prefix of "/abc").
func (p Path) IsPrefix(prefix string) bool {
	return strings.HasPrefix(p.s, prefix)
}

// Equal reports whether two paths are the same string.
func (p Path) Equal(o Path) bool { return p.s == o.s }
