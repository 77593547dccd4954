// ABOUTME: ContextManager bundles the process state handed to every change handler
// ABOUTME: Built once at bootstrap; replaces process-wide singletons

package manager

import (
	"github.com/nainya/metacoord/pkg/instance"
	"github.com/nainya/metacoord/pkg/metadata"
	"github.com/nainya/metacoord/pkg/repository"
)

// ContextManager is the explicit context passed into handlers.
type ContextManager struct {
	InstanceContext *instance.ComputeNodeInstanceContext
	MetaData        *metadata.MetaData
	Repository      repository.ClusterRepository
}

// NewContextManager creates a manager for the local instance backed by repo.
func NewContextManager(local *instance.ComputeNodeInstance, repo repository.ClusterRepository) *ContextManager {
	return &ContextManager{
		InstanceContext: instance.NewComputeNodeInstanceContext(local),
		MetaData:        metadata.NewMetaData(),
		Repository:      repo,
	}
}

// Close releases the coordination store.
func (m *ContextManager) Close() error {
	if m.Repository == nil {
		return nil
	}
	return m.Repository.Close()
}
