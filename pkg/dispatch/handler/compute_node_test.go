package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/metacoord/pkg/event"
	"github.com/nainya/metacoord/pkg/instance"
)

const onlineKey = "/nodes/compute/online/JDBC/instance-2"

func TestOnlineHandlerAddsAndRemovesInstances(t *testing.T) {
	cm := newContextManager(t)
	h := ComputeNodeOnlineHandler{}
	assert.Equal(t, "/nodes/compute/online", h.SubscribedKey())

	require.NoError(t, h.Handle(cm, event.New(onlineKey, "attribute: 10.0.0.2@3307\nversion: 1.0.0\n", event.Added)))

	instances := cm.InstanceContext.ClusterInstances()
	require.Len(t, instances, 1)
	assert.Equal(t, "instance-2", instances[0].MetaData.ID)
	assert.Equal(t, instance.TypeJDBC, instances[0].MetaData.Type)
	assert.Equal(t, "10.0.0.2@3307", instances[0].MetaData.Attribute)
	assert.Equal(t, instance.StateOK, instances[0].State)

	require.NoError(t, h.Handle(cm, event.New(onlineKey, "", event.Deleted)))
	assert.Empty(t, cm.InstanceContext.ClusterInstances())
}

func TestOnlineHandlerIgnoresTypeContainer(t *testing.T) {
	cm := newContextManager(t)
	h := ComputeNodeOnlineHandler{}

	require.NoError(t, h.Handle(cm, event.New("/nodes/compute/online/JDBC", "", event.Added)))
	assert.Empty(t, cm.InstanceContext.ClusterInstances())
}

func TestOnlineHandlerRejectsBadPayload(t *testing.T) {
	cm := newContextManager(t)
	h := ComputeNodeOnlineHandler{}

	assert.Error(t, h.Handle(cm, event.New(onlineKey, "attribute: [unterminated", event.Added)))
	assert.Empty(t, cm.InstanceContext.ClusterInstances())
}

func TestStateHandler(t *testing.T) {
	cm := newContextManager(t)
	cm.InstanceContext.AddClusterInstance(instance.NewComputeNodeInstance(instance.MetaData{ID: "instance-2", Type: instance.TypeJDBC}))
	h := ComputeNodeStateChangedHandler{}

	require.NoError(t, h.Handle(cm, event.New("/nodes/compute/status/instance-2", "CIRCUIT_BREAK", event.Added)))
	inst, ok := cm.InstanceContext.Instance("instance-2")
	require.True(t, ok)
	assert.Equal(t, instance.StateCircuitBreak, inst.State)

	assert.Error(t, h.Handle(cm, event.New("/nodes/compute/status/instance-2", "ON_FIRE", event.Updated)))
	inst, _ = cm.InstanceContext.Instance("instance-2")
	assert.Equal(t, instance.StateCircuitBreak, inst.State)

	require.NoError(t, h.Handle(cm, event.New("/nodes/compute/status/instance-2", "", event.Deleted)))
	inst, _ = cm.InstanceContext.Instance("instance-2")
	assert.Equal(t, instance.StateOK, inst.State)
}

func TestStateHandlerAppliesToLocalInstance(t *testing.T) {
	cm := newContextManager(t)
	h := ComputeNodeStateChangedHandler{}

	require.NoError(t, h.Handle(cm, event.New("/nodes/compute/status/local", "CIRCUIT_BREAK", event.Updated)))
	assert.Equal(t, instance.StateCircuitBreak, cm.InstanceContext.LocalInstance().State)
}

func TestStateAndLabelsIgnoreKeysBelowInstance(t *testing.T) {
	cm := newContextManager(t)

	require.NoError(t, ComputeNodeStateChangedHandler{}.Handle(cm, event.New("/nodes/compute/status/local", "CIRCUIT_BREAK", event.Added)))
	require.NoError(t, ComputeNodeStateChangedHandler{}.Handle(cm, event.New("/nodes/compute/status/local/extra", "", event.Deleted)))
	assert.Equal(t, instance.StateCircuitBreak, cm.InstanceContext.LocalInstance().State)

	require.NoError(t, ComputeNodeLabelsChangedHandler{}.Handle(cm, event.New("/nodes/compute/labels/local", "- blue\n", event.Added)))
	require.NoError(t, ComputeNodeLabelsChangedHandler{}.Handle(cm, event.New("/nodes/compute/labels/local/extra", "", event.Deleted)))
	assert.Equal(t, []string{"blue"}, cm.InstanceContext.LocalInstance().Labels)
}

func TestLabelsHandler(t *testing.T) {
	cm := newContextManager(t)
	h := ComputeNodeLabelsChangedHandler{}

	require.NoError(t, h.Handle(cm, event.New("/nodes/compute/labels/local", "- blue\n- east\n", event.Added)))
	assert.Equal(t, []string{"blue", "east"}, cm.InstanceContext.LocalInstance().Labels)

	require.NoError(t, h.Handle(cm, event.New("/nodes/compute/labels/local", "", event.Deleted)))
	assert.Empty(t, cm.InstanceContext.LocalInstance().Labels)
}
