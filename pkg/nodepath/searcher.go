// ABOUTME: Path searcher recovering typed parameters from raw coordination-store keys
// ABOUTME: Criteria are node paths whose unset fields act as named wildcards

package nodepath

import (
	"fmt"
	"strings"
)

// SearchCriteria is a path-shaped matcher derived from a node path.
// Set fields match literally, unset fields capture the key segment at their position.
type SearchCriteria struct {
	template  string
	skeleton  []segment
	wildcards []string
	capture   int
}

// NewSearchCriteria builds a criteria from p; capture names the wildcard
// returned by Get and Find. It panics if capture is not an unset field of p,
// which is a static programming error.
func NewSearchCriteria(p NodePath, capture string) SearchCriteria {
	t, values, err := fieldValues(p)
	if err != nil {
		panic(err)
	}

	c := SearchCriteria{template: t.raw, capture: -1}
	for _, seg := range t.segments {
		if !seg.isParam() {
			c.skeleton = append(c.skeleton, seg)
			continue
		}
		if value := values[seg.param]; value != "" {
			c.skeleton = append(c.skeleton, segment{literal: value})
			continue
		}
		if seg.param == capture {
			c.capture = len(c.wildcards)
		}
		c.skeleton = append(c.skeleton, seg)
		c.wildcards = append(c.wildcards, seg.param)
	}

	if c.capture < 0 {
		panic(fmt.Sprintf("nodepath: %q is not a wildcard of %s", capture, t.raw))
	}
	return c
}

// Wildcards returns the captured field names in positional order.
func (c SearchCriteria) Wildcards() []string {
	return append([]string(nil), c.wildcards...)
}

// String renders the criteria with wildcards shown as ${name}.
func (c SearchCriteria) String() string {
	parts := make([]string, len(c.skeleton))
	for i, seg := range c.skeleton {
		if seg.isParam() {
			parts[i] = "${" + seg.param + "}"
		} else {
			parts[i] = seg.literal
		}
	}
	return join(parts)
}

// Captures holds the values matched by a criteria's wildcards.
type Captures struct {
	names  []string
	values []string
	rest   string
}

// Len returns the number of captured values.
func (c Captures) Len() int {
	return len(c.values)
}

// At returns the i-th captured value in left-to-right order.
func (c Captures) At(i int) string {
	return c.values[i]
}

// Named returns the value captured for a field name.
func (c Captures) Named(name string) (string, bool) {
	for i, n := range c.names {
		if n == name {
			return c.values[i], true
		}
	}
	return "", false
}

// Rest returns the part of the key beyond the criteria, without a leading slash.
// It is empty when the key has exactly the criteria's length.
func (c Captures) Rest() string {
	return c.rest
}

// Match compares rawKey against the criteria segment by segment.
// Keys with extra trailing segments still match; the excess is reported by Rest.
func (c SearchCriteria) Match(rawKey string) (Captures, bool) {
	parts, ok := splitPath(rawKey)
	if !ok || len(parts) < len(c.skeleton) {
		return Captures{}, false
	}

	captures := Captures{names: c.wildcards, values: make([]string, 0, len(c.wildcards))}
	for i, seg := range c.skeleton {
		if seg.isParam() {
			if parts[i] == "" {
				return Captures{}, false
			}
			captures.values = append(captures.values, parts[i])
			continue
		}
		if parts[i] != seg.literal {
			return Captures{}, false
		}
	}

	captures.rest = strings.Join(parts[len(c.skeleton):], "/")
	return captures, true
}

// Get returns the value of the criteria's capture field in rawKey.
func Get(rawKey string, c SearchCriteria) (string, error) {
	value, ok := Find(rawKey, c)
	if !ok {
		return "", fmt.Errorf("%w: %q against %s", ErrNotMatched, rawKey, c)
	}
	return value, nil
}

// Find is like Get but reports a mismatch with false instead of an error.
func Find(rawKey string, c SearchCriteria) (string, bool) {
	captures, ok := c.Match(rawKey)
	if !ok {
		return "", false
	}
	return captures.At(c.capture), true
}

// IsMatchedPath reports whether rawKey, or a prefix of it, conforms to c.
func IsMatchedPath(rawKey string, c SearchCriteria) bool {
	_, ok := c.Match(rawKey)
	return ok
}
