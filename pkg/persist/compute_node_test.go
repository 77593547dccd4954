package persist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/metacoord/pkg/instance"
)

func TestComputeNodeOnlineOffline(t *testing.T) {
	repo := newRepository(t)
	svc := NewComputeNodePersistService(repo)
	ctx := context.Background()

	inst := instance.NewComputeNodeInstance(instance.MetaData{ID: "instance-1", Type: instance.TypeProxy, Attribute: "10.0.0.1@3307"})
	inst.Labels = []string{"blue"}
	require.NoError(t, svc.Online(ctx, *inst))

	content, err := repo.Get(ctx, "/nodes/compute/online/PROXY/instance-1")
	require.NoError(t, err)
	md, err := instance.DecodeMetaData(instance.TypeProxy, "instance-1", content)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1@3307", md.Attribute)

	state, err := repo.Get(ctx, "/nodes/compute/status/instance-1")
	require.NoError(t, err)
	assert.Equal(t, "OK", state)

	require.NoError(t, svc.UpdateState(ctx, "instance-1", instance.StateCircuitBreak))
	state, _ = repo.Get(ctx, "/nodes/compute/status/instance-1")
	assert.Equal(t, "CIRCUIT_BREAK", state)

	labels, err := repo.Get(ctx, "/nodes/compute/labels/instance-1")
	require.NoError(t, err)
	decoded, err := instance.DecodeLabels(labels)
	require.NoError(t, err)
	assert.Equal(t, []string{"blue"}, decoded)

	require.NoError(t, svc.Offline(ctx, *inst))
	assert.Equal(t, 0, repo.Len())

	// A second offline is harmless.
	require.NoError(t, svc.Offline(ctx, *inst))
}
