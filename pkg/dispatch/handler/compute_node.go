// ABOUTME: Handlers mirroring compute node registrations, states and labels
// ABOUTME: Unknown instances are ignored until their online registration arrives

package handler

import (
	"github.com/nainya/metacoord/pkg/event"
	"github.com/nainya/metacoord/pkg/instance"
	"github.com/nainya/metacoord/pkg/manager"
	"github.com/nainya/metacoord/pkg/nodepath"
)

// ComputeNodeOnlineHandler adds and removes cluster instances as they go online and offline.
type ComputeNodeOnlineHandler struct{}

func (ComputeNodeOnlineHandler) SubscribedKey() string {
	return nodepath.MustToPath(nodepath.ComputeNodeOnlineNodePath{}, false)
}

func (ComputeNodeOnlineHandler) SubscribedTypes() []event.Type {
	return []event.Type{event.Added, event.Deleted}
}

func (ComputeNodeOnlineHandler) Handle(cm *manager.ContextManager, ev event.DataChangedEvent) error {
	captures, ok := nodepath.ComputeNodeOnlineSearchCriteria().Match(ev.Key)
	if !ok || captures.Rest() != "" {
		return nil
	}
	instanceType, _ := captures.Named("instanceType")
	instanceID, _ := captures.Named("instanceId")

	if ev.Type == event.Deleted {
		cm.InstanceContext.DeleteClusterInstance(instanceID)
		return nil
	}

	md, err := instance.DecodeMetaData(instanceType, instanceID, ev.Value)
	if err != nil {
		return err
	}
	cm.InstanceContext.AddClusterInstance(instance.NewComputeNodeInstance(md))
	return nil
}

// ComputeNodeStateChangedHandler tracks the state of every known instance.
type ComputeNodeStateChangedHandler struct{}

func (ComputeNodeStateChangedHandler) SubscribedKey() string {
	return nodepath.MustToPath(nodepath.ComputeNodeStateNodePath{}, false)
}

func (ComputeNodeStateChangedHandler) SubscribedTypes() []event.Type {
	return []event.Type{event.Added, event.Updated, event.Deleted}
}

// Handle sets the reported state. A removed or empty state means OK.
func (ComputeNodeStateChangedHandler) Handle(cm *manager.ContextManager, ev event.DataChangedEvent) error {
	instanceID, ok := exactInstanceID(ev.Key, nodepath.ComputeNodeStateSearchCriteria())
	if !ok {
		return nil
	}

	state := instance.StateOK
	if ev.Type != event.Deleted && ev.Value != "" {
		parsed, err := instance.ParseState(ev.Value)
		if err != nil {
			return err
		}
		state = parsed
	}
	cm.InstanceContext.UpdateState(instanceID, state)
	return nil
}

// ComputeNodeLabelsChangedHandler tracks the labels of every known instance.
type ComputeNodeLabelsChangedHandler struct{}

func (ComputeNodeLabelsChangedHandler) SubscribedKey() string {
	return nodepath.MustToPath(nodepath.ComputeNodeLabelNodePath{}, false)
}

func (ComputeNodeLabelsChangedHandler) SubscribedTypes() []event.Type {
	return []event.Type{event.Added, event.Updated, event.Deleted}
}

func (ComputeNodeLabelsChangedHandler) Handle(cm *manager.ContextManager, ev event.DataChangedEvent) error {
	instanceID, ok := exactInstanceID(ev.Key, nodepath.ComputeNodeLabelSearchCriteria())
	if !ok {
		return nil
	}

	var labels []string
	if ev.Type != event.Deleted {
		decoded, err := instance.DecodeLabels(ev.Value)
		if err != nil {
			return err
		}
		labels = decoded
	}
	cm.InstanceContext.UpdateLabels(instanceID, labels)
	return nil
}

// exactInstanceID returns the instance id of a key naming the instance itself.
// Keys below the instance key belong to nobody.
func exactInstanceID(key string, criteria nodepath.SearchCriteria) (string, bool) {
	captures, ok := criteria.Match(key)
	if !ok || captures.Rest() != "" {
		return "", false
	}
	return captures.Named("instanceId")
}
