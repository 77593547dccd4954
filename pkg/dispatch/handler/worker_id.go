// ABOUTME: Keeps the local worker id registry in sync with the coordination store
// ABOUTME: One key per instance under /nodes/compute/worker_id

package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nainya/metacoord/pkg/event"
	"github.com/nainya/metacoord/pkg/manager"
	"github.com/nainya/metacoord/pkg/nodepath"
)

// ErrMalformedWorkerID reports a worker id value that is not an integer.
var ErrMalformedWorkerID = errors.New("malformed worker id")

// ComputeNodeWorkerIDChangedHandler mirrors worker id assignments into the instance context.
type ComputeNodeWorkerIDChangedHandler struct{}

func (ComputeNodeWorkerIDChangedHandler) SubscribedKey() string {
	return nodepath.MustToPath(nodepath.ComputeNodeWorkerIDNodePath{}, false)
}

func (ComputeNodeWorkerIDChangedHandler) SubscribedTypes() []event.Type {
	return []event.Type{event.Added, event.Updated, event.Deleted}
}

// Handle overwrites the worker id of the instance named by the key.
// A malformed value leaves the previous assignment in place.
func (ComputeNodeWorkerIDChangedHandler) Handle(cm *manager.ContextManager, ev event.DataChangedEvent) error {
	instanceID, ok := exactInstanceID(ev.Key, nodepath.InstanceIDSearchCriteria())
	if !ok {
		return nil
	}

	if ev.Value == "" || ev.Type == event.Deleted {
		cm.InstanceContext.UpdateWorkerID(instanceID, nil)
		return nil
	}

	workerID, err := strconv.Atoi(strings.TrimSpace(ev.Value))
	if err != nil {
		return fmt.Errorf("%w %q for instance %s", ErrMalformedWorkerID, ev.Value, instanceID)
	}
	cm.InstanceContext.UpdateWorkerID(instanceID, &workerID)
	return nil
}
