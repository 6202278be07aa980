/*************************************************************************
 * Copyright 2024 Yaks Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package pathsel

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/yaksio/yaks-go/yerr"
)

// Selector is a possibly-wildcarded path_part plus an optional query
// string: "path_part[?query_part]". path_part may contain '*' (matches
// exactly one path segment) and '**' (matches zero or more segments).
// query_part is a sequence of "key=value" pairs separated by '&'; a
// dotted key ("a.b=v") denotes nesting in QueryDict.
type Selector struct {
	raw      string
	pathPart string
	optPart  string
	hasQuery bool
	matcher  segMatcher
}

// NewSelector parses and validates s.
func NewSelector(s string) (Selector, error) {
	pathPart := s
	optPart := ""
	hasQuery := false
	if idx := strings.IndexByte(s, '?'); idx >= 0 {
		pathPart = s[:idx]
		optPart = s[idx+1:]
		hasQuery = true
	}
	if pathPart == "" || strings.ContainsAny(pathPart, "?#") {
		return Selector{}, yerr.Invalid(yerr.ErrInvalidSelector, "empty or invalid path part")
	}
	if hasQuery {
		if _, err := parseQuery(optPart); err != nil {
			return Selector{}, err
		}
	}
	m, err := compileSegments(pathPart)
	if err != nil {
		return Selector{}, err
	}
	return Selector{raw: s, pathPart: pathPart, optPart: optPart, hasQuery: hasQuery, matcher: m}, nil
}

// String returns the selector's original wire form.
func (s Selector) String() string { return s.raw }

// PathPart returns the (possibly wildcarded) path portion of the selector.
func (s Selector) PathPart() string { return s.pathPart }

// OptionalPart returns everything after the first '?', or "" if the
// selector carries no query string.
func (s Selector) OptionalPart() string { return s.optPart }

// QueryDict parses the query part into a possibly-nested string-keyed
// map. A key containing '.' is split into nested maps by successive
// components, e.g. "a.b.c=v" -> {"a": {"b": {"c": "v"}}}.
func (s Selector) QueryDict() (map[string]interface{}, error) {
	if !s.hasQuery {
		return map[string]interface{}{}, nil
	}
	return parseQuery(s.optPart)
}

// Matches reports whether path satisfies the selector's wildcard
// grammar. '*' matches exactly one path segment; '**' matches zero or
// more segments.
func (s Selector) Matches(path string) bool {
	return s.matcher.match(splitSegments(path))
}

func parseQuery(q string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if q == "" {
		return out, nil
	}
	for _, pair := range strings.Split(q, "&") {
		if pair == "" {
			continue
		}
		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			return nil, yerr.Invalid(yerr.ErrInvalidSelector, "query pair missing '='")
		}
		key, val := pair[:eq], pair[eq+1:]
		if key == "" {
			return nil, yerr.Invalid(yerr.ErrInvalidSelector, "query pair missing key")
		}
		setNested(out, strings.Split(key, "."), val)
	}
	return out, nil
}

func setNested(m map[string]interface{}, keys []string, val string) {
	cur := m
	for i, k := range keys {
		if i == len(keys)-1 {
			cur[k] = val
			return
		}
		next, ok := cur[k].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			cur[k] = next
		}
		cur = next
	}
}

// segElem is one token of a compiled path pattern: either a literal
// segment glob (including the single-segment wildcard "*", which
// compiles to a glob that accepts any one segment, an empty one
// included) or the
// double-star "zero or more segments" marker.
type segElem struct {
	doubleStar bool
	g          glob.Glob
}

func (e segElem) matchSegment(s string) bool {
	if e.doubleStar {
		return false
	}
	return e.g.Match(s)
}

type segMatcher struct {
	elems []segElem
}

func compileSegments(pathPart string) (segMatcher, error) {
	raw := strings.Split(strings.TrimPrefix(pathPart, "/"), "/")
	elems := make([]segElem, 0, len(raw))
	for _, seg := range raw {
		if seg == "**" {
			elems = append(elems, segElem{doubleStar: true})
			continue
		}
		pattern := seg
		if seg != "*" {
			// Only "*" carries wildcard meaning at the segment level;
			// everything else in a segment is a literal, including any
			// glob metacharacters it happens to contain.
			pattern = glob.QuoteMeta(seg)
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			return segMatcher{}, yerr.Invalid(yerr.ErrInvalidSelector, "invalid wildcard segment")
		}
		elems = append(elems, segElem{g: g})
	}
	return segMatcher{elems: elems}, nil
}

func splitSegments(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

// match implements the classic greedy "**"-as-wildcard-run algorithm,
// the same two-pointer backtracking used for '*' glob matching but
// operating over whole path segments instead of characters.
func (m segMatcher) match(subject []string) bool {
	i, j := 0, 0
	starIdx, matchIdx := -1, 0
	for j < len(subject) {
		if i < len(m.elems) && !m.elems[i].doubleStar && m.elems[i].matchSegment(subject[j]) {
			i++
			j++
		} else if i < len(m.elems) && m.elems[i].doubleStar {
			starIdx = i
			matchIdx = j
			i++
		} else if starIdx != -1 {
			i = starIdx + 1
			matchIdx++
			j = matchIdx
		} else {
			return false
		}
	}
	for i < len(m.elems) && m.elems[i].doubleStar {
		i++
	}
	return i == len(m.elems)
}
