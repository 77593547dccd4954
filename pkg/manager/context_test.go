package manager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/metacoord/pkg/instance"
	"github.com/nainya/metacoord/pkg/repository"
)

func TestNewContextManager(t *testing.T) {
	local := instance.NewComputeNodeInstance(instance.MetaData{ID: "instance-1", Type: instance.TypeProxy})
	repo := repository.NewMemoryRepository(nil, nil)

	cm := NewContextManager(local, repo)
	require.NotNil(t, cm.InstanceContext)
	require.NotNil(t, cm.MetaData)
	assert.Equal(t, "instance-1", cm.InstanceContext.LocalInstance().MetaData.ID)
	assert.Empty(t, cm.MetaData.Databases())

	require.NoError(t, cm.Close())
	_, err := repo.Get(context.Background(), "/props")
	assert.ErrorIs(t, err, repository.ErrClosed)
}

func TestCloseWithoutRepository(t *testing.T) {
	cm := &ContextManager{}
	assert.NoError(t, cm.Close())
}
