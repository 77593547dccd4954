// ABOUTME: Version node paths: one active version pointer plus indexed history per entity
// ABOUTME: Pure path arithmetic, no store access

package nodepath

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	activeVersionNode = "active_version"
	versionsNode      = "versions"
)

// VersionNodePath decorates a fully specified entity path with its version keys.
type VersionNodePath struct {
	path string
}

// NewVersionNodePath renders p and derives its version paths.
func NewVersionNodePath(p NodePath) (VersionNodePath, error) {
	for _, v := range p.Values() {
		if v == "" {
			return VersionNodePath{}, fmt.Errorf("%w: versioned entity %s must be fully specified", ErrInvalidPathKind, p.Template())
		}
	}

	path, err := ToPath(p, false)
	if err != nil {
		return VersionNodePath{}, err
	}
	return VersionNodePath{path: path}, nil
}

// Path returns the entity path.
func (v VersionNodePath) Path() string {
	return v.path
}

// ActiveVersionPath returns the key holding the active version number.
func (v VersionNodePath) ActiveVersionPath() string {
	return v.child(activeVersionNode)
}

// VersionsPath returns the container of all versions.
func (v VersionNodePath) VersionsPath() string {
	return v.child(versionsNode)
}

// VersionPath returns the key of version n.
func (v VersionNodePath) VersionPath(n int) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidVersion, n)
	}
	return v.VersionsPath() + "/" + strconv.Itoa(n), nil
}

// IsActiveVersionPath reports whether key is this entity's active version pointer.
func (v VersionNodePath) IsActiveVersionPath(key string) bool {
	return key == v.ActiveVersionPath()
}

// FindVersion extracts n from a key of the form <path>/versions/n.
func (v VersionNodePath) FindVersion(key string) (int, bool) {
	prefix := v.VersionsPath() + "/"
	if !strings.HasPrefix(key, prefix) {
		return 0, false
	}
	raw := key[len(prefix):]
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || strconv.Itoa(n) != raw {
		return 0, false
	}
	return n, true
}

func (v VersionNodePath) child(name string) string {
	if v.path == Root {
		return Root + name
	}
	return v.path + "/" + name
}
