// ABOUTME: Typed node paths addressing cluster metadata in the coordination store
// ABOUTME: Templates with ${param} segments are rendered from per-kind field values

package nodepath

import (
	"fmt"
	"strings"
)

// Root is the canonical path of the namespace root.
const Root = "/"

// NodePath describes one metadata entity kind and its field values.
type NodePath interface {
	// Template returns the path pattern of the entity kind.
	Template() Template
	// Values returns one value per template parameter, in template order.
	// An empty string marks the field as unset.
	Values() []string
}

// segment is either a literal or a named parameter.
type segment struct {
	literal string
	param   string
}

func (s segment) isParam() bool {
	return s.param != ""
}

// Template is a parsed path pattern such as /metadata/${database}/schemas/${schema}.
type Template struct {
	raw      string
	segments []segment
	params   []string
}

// ParseTemplate parses a slash-delimited pattern.
func ParseTemplate(raw string) (Template, error) {
	if !strings.HasPrefix(raw, "/") || (len(raw) > 1 && strings.HasSuffix(raw, "/")) {
		return Template{}, fmt.Errorf("template %q must start and must not end with '/'", raw)
	}

	t := Template{raw: raw}
	if raw == Root {
		return t, nil
	}

	seen := make(map[string]bool)
	for _, part := range strings.Split(raw[1:], "/") {
		if part == "" {
			return Template{}, fmt.Errorf("template %q has an empty segment", raw)
		}
		if strings.HasPrefix(part, "${") && strings.HasSuffix(part, "}") {
			name := part[2 : len(part)-1]
			if name == "" || seen[name] {
				return Template{}, fmt.Errorf("template %q has an invalid parameter %q", raw, part)
			}
			seen[name] = true
			t.segments = append(t.segments, segment{param: name})
			t.params = append(t.params, name)
			continue
		}
		t.segments = append(t.segments, segment{literal: part})
	}

	return t, nil
}

// MustParseTemplate is like ParseTemplate but panics on a malformed pattern.
// It is meant for package-level template definitions.
func MustParseTemplate(raw string) Template {
	t, err := ParseTemplate(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the raw pattern.
func (t Template) String() string {
	return t.raw
}

// Params returns the parameter names in template order.
func (t Template) Params() []string {
	return append([]string(nil), t.params...)
}

// fieldValues pairs each parameter with its value, checking the arity of the node path.
func fieldValues(p NodePath) (Template, map[string]string, error) {
	t := p.Template()
	values := p.Values()
	if len(values) != len(t.params) {
		return t, nil, fmt.Errorf("%w: %s expects %d values, got %d", ErrInvalidPathKind, t.raw, len(t.params), len(values))
	}

	result := make(map[string]string, len(values))
	for i, name := range t.params {
		result[name] = values[i]
	}
	return t, result, nil
}

// HasPathPrefix reports whether key equals prefix or lies below it.
// Unlike strings.HasPrefix it never matches a partial segment.
func HasPathPrefix(key, prefix string) bool {
	if prefix == Root {
		return strings.HasPrefix(key, "/")
	}
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	return len(key) == len(prefix) || key[len(prefix)] == '/'
}

// join renders segment values into a canonical path.
func join(parts []string) string {
	if len(parts) == 0 {
		return Root
	}
	return "/" + strings.Join(parts, "/")
}

// splitPath splits a canonical path into its segments.
func splitPath(key string) ([]string, bool) {
	if !strings.HasPrefix(key, "/") {
		return nil, false
	}
	if key == Root {
		return nil, true
	}
	return strings.Split(key[1:], "/"), true
}
