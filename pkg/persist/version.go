// ABOUTME: Versioned writes: each change becomes a new version plus an active pointer
// ABOUTME: Readers follow active_version to the current content

package persist

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nainya/metacoord/pkg/nodepath"
	"github.com/nainya/metacoord/pkg/repository"
)

// VersionPersistService writes versioned entities to the coordination store.
type VersionPersistService struct {
	repo repository.ClusterRepository
}

// NewVersionPersistService creates a service writing to repo.
func NewVersionPersistService(repo repository.ClusterRepository) *VersionPersistService {
	return &VersionPersistService{repo: repo}
}

// Persist stores content as the next version of p and activates it.
// Versions start at 0. It returns the new version.
func (s *VersionPersistService) Persist(ctx context.Context, p nodepath.NodePath, content string) (int, error) {
	vp, err := nodepath.NewVersionNodePath(p)
	if err != nil {
		return 0, err
	}

	// The entity key anchors deletion events of the whole entity.
	if _, err := s.repo.PersistIfAbsent(ctx, vp.Path(), ""); err != nil {
		return 0, fmt.Errorf("create %s: %w", vp.Path(), err)
	}

	next, err := s.nextVersion(ctx, vp)
	if err != nil {
		return 0, err
	}
	key, err := vp.VersionPath(next)
	if err != nil {
		return 0, err
	}
	if err := s.repo.Persist(ctx, key, content); err != nil {
		return 0, fmt.Errorf("persist %s: %w", key, err)
	}
	if err := s.repo.Persist(ctx, vp.ActiveVersionPath(), strconv.Itoa(next)); err != nil {
		return 0, fmt.Errorf("activate version %d of %s: %w", next, vp.Path(), err)
	}
	return next, nil
}

func (s *VersionPersistService) nextVersion(ctx context.Context, vp nodepath.VersionNodePath) (int, error) {
	children, err := s.repo.GetChildrenKeys(ctx, vp.VersionsPath())
	if err != nil {
		return 0, fmt.Errorf("list versions of %s: %w", vp.Path(), err)
	}

	next := 0
	for _, child := range children {
		if n, ok := vp.FindVersion(vp.VersionsPath() + "/" + child); ok && n >= next {
			next = n + 1
		}
	}
	return next, nil
}

// ActiveVersion returns the active version of p.
func (s *VersionPersistService) ActiveVersion(ctx context.Context, p nodepath.NodePath) (int, error) {
	vp, err := nodepath.NewVersionNodePath(p)
	if err != nil {
		return 0, err
	}

	value, err := s.repo.Get(ctx, vp.ActiveVersionPath())
	if err != nil {
		return 0, fmt.Errorf("active version of %s: %w", vp.Path(), err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: active version %q of %s", nodepath.ErrInvalidVersion, value, vp.Path())
	}
	return n, nil
}

// LoadActive returns the content of the active version of p.
func (s *VersionPersistService) LoadActive(ctx context.Context, p nodepath.NodePath) (string, error) {
	n, err := s.ActiveVersion(ctx, p)
	if err != nil {
		return "", err
	}

	vp, err := nodepath.NewVersionNodePath(p)
	if err != nil {
		return "", err
	}
	key, err := vp.VersionPath(n)
	if err != nil {
		return "", err
	}
	return s.repo.Get(ctx, key)
}

// Delete removes p with all of its versions.
func (s *VersionPersistService) Delete(ctx context.Context, p nodepath.NodePath) error {
	vp, err := nodepath.NewVersionNodePath(p)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, vp.Path())
}
