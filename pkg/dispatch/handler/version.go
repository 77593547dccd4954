package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nainya/metacoord/pkg/manager"
	"github.com/nainya/metacoord/pkg/nodepath"
)

// loadTimeout bounds the read of a version's content.
const loadTimeout = 5 * time.Second

// loadActiveVersion reads the content of the version that an active_version
// event points to.
func loadActiveVersion(cm *manager.ContextManager, vp nodepath.VersionNodePath, activeVersion string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(activeVersion))
	if err != nil {
		return "", fmt.Errorf("%w: active version %q of %s", nodepath.ErrInvalidVersion, activeVersion, vp.Path())
	}
	key, err := vp.VersionPath(n)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	content, err := cm.Repository.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return content, nil
}
