// ABOUTME: Process-wide registry of compute node instances and their worker ids
// ABOUTME: Mutated only by dispatched change handlers, read by id generation

package instance

import (
	"sync"

	"golang.org/x/exp/slices"
)

// ComputeNodeInstanceContext mirrors the cluster's compute nodes and worker id assignments.
// Worker ids are owned by the coordination store; this context only keeps the last
// value observed per instance, so writes are plain last-write-wins overwrites.
type ComputeNodeInstanceContext struct {
	mu        sync.RWMutex
	local     *ComputeNodeInstance
	instances map[string]*ComputeNodeInstance
	workerIDs map[string]int
}

// NewComputeNodeInstanceContext creates the context for the local instance.
func NewComputeNodeInstanceContext(local *ComputeNodeInstance) *ComputeNodeInstanceContext {
	return &ComputeNodeInstanceContext{
		local:     local,
		instances: make(map[string]*ComputeNodeInstance),
		workerIDs: make(map[string]int),
	}
}

// LocalInstance returns a copy of this process's instance.
func (c *ComputeNodeInstanceContext) LocalInstance() ComputeNodeInstance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return *c.local.clone()
}

// UpdateWorkerID records the worker id of an instance. A nil workerID clears it.
func (c *ComputeNodeInstanceContext) UpdateWorkerID(instanceID string, workerID *int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if workerID == nil {
		delete(c.workerIDs, instanceID)
		return
	}
	c.workerIDs[instanceID] = *workerID
}

// WorkerID returns the worker id of an instance, if assigned.
func (c *ComputeNodeInstanceContext) WorkerID(instanceID string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.workerIDs[instanceID]
	return id, ok
}

// LocalWorkerID returns the worker id of this process, if assigned.
func (c *ComputeNodeInstanceContext) LocalWorkerID() (int, bool) {
	return c.WorkerID(c.local.MetaData.ID)
}

// WorkerIDs returns a snapshot of all known assignments.
func (c *ComputeNodeInstanceContext) WorkerIDs() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]int, len(c.workerIDs))
	for k, v := range c.workerIDs {
		result[k] = v
	}
	return result
}

// AddClusterInstance registers or replaces a remote instance.
// The local instance is never replaced.
func (c *ComputeNodeInstanceContext) AddClusterInstance(inst *ComputeNodeInstance) {
	if inst.MetaData.ID == c.local.MetaData.ID {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[inst.MetaData.ID] = inst.clone()
}

// DeleteClusterInstance drops a remote instance.
func (c *ComputeNodeInstanceContext) DeleteClusterInstance(instanceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.instances, instanceID)
}

// Instance returns a copy of the local or a remote instance.
func (c *ComputeNodeInstanceContext) Instance(instanceID string) (ComputeNodeInstance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	inst := c.lookup(instanceID)
	if inst == nil {
		return ComputeNodeInstance{}, false
	}
	return *inst.clone(), true
}

// ClusterInstances returns copies of all remote instances ordered by id.
func (c *ComputeNodeInstanceContext) ClusterInstances() []ComputeNodeInstance {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.instances))
	for id := range c.instances {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	result := make([]ComputeNodeInstance, 0, len(ids))
	for _, id := range ids {
		result = append(result, *c.instances[id].clone())
	}
	return result
}

// UpdateState sets the state of a known instance. It reports whether the instance exists.
func (c *ComputeNodeInstanceContext) UpdateState(instanceID string, state State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst := c.lookup(instanceID)
	if inst == nil {
		return false
	}
	inst.State = state
	return true
}

// UpdateLabels replaces the labels of a known instance. It reports whether the instance exists.
func (c *ComputeNodeInstanceContext) UpdateLabels(instanceID string, labels []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst := c.lookup(instanceID)
	if inst == nil {
		return false
	}
	inst.Labels = append([]string(nil), labels...)
	return true
}

// lookup must be called with mu held.
func (c *ComputeNodeInstanceContext) lookup(instanceID string) *ComputeNodeInstance {
	if instanceID == c.local.MetaData.ID {
		return c.local
	}
	return c.instances[instanceID]
}
