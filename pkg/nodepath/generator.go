// ABOUTME: Renders typed node paths into canonical slash-delimited keys
// ABOUTME: Supports container (exact=false) and owner (exact=true) rendering of partial paths

package nodepath

import (
	"fmt"
	"strings"
)

// ToPath renders p into its canonical path.
//
// Rendering stops at the first unset field. With exact=false the result is the
// container holding entities of that kind (e.g. /metadata/foo_db/schemas); with
// exact=true the trailing type marker is dropped as well, yielding the owning
// entity (e.g. /metadata/foo_db). Every field after an unset one must be unset too.
func ToPath(p NodePath, exact bool) (string, error) {
	t, values, err := fieldValues(p)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(t.segments))
	stopped := ""
	for _, seg := range t.segments {
		if !seg.isParam() {
			if stopped == "" {
				parts = append(parts, seg.literal)
			}
			continue
		}

		value := values[seg.param]
		if value == "" {
			if stopped == "" {
				stopped = seg.param
			}
			continue
		}
		if stopped != "" {
			return "", fmt.Errorf("%w: %s has %s set while %s is unset", ErrInvalidPathKind, t.raw, seg.param, stopped)
		}
		if strings.Contains(value, "/") {
			return "", fmt.Errorf("%w: %s=%q", ErrInvalidSegment, seg.param, value)
		}
		parts = append(parts, value)
	}

	if stopped != "" && exact {
		parts = trimTypeMarker(t, parts)
	}

	return join(parts), nil
}

// MustToPath is like ToPath but panics on an invalid node path.
func MustToPath(p NodePath, exact bool) string {
	path, err := ToPath(p, exact)
	if err != nil {
		panic(err)
	}
	return path
}

// trimTypeMarker drops the literal that introduces the first unset parameter.
func trimTypeMarker(t Template, parts []string) []string {
	n := len(parts)
	if n == 0 || t.segments[n-1].isParam() {
		return parts
	}
	return parts[:n-1]
}
