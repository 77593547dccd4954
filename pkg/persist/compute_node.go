// ABOUTME: Writes compute node registrations, states and labels
// ABOUTME: An online instance owns its online, status and labels keys

package persist

import (
	"context"
	"errors"

	"github.com/nainya/metacoord/pkg/instance"
	"github.com/nainya/metacoord/pkg/nodepath"
	"github.com/nainya/metacoord/pkg/repository"
)

// ComputeNodePersistService publishes the local instance to the cluster.
type ComputeNodePersistService struct {
	repo repository.ClusterRepository
}

// NewComputeNodePersistService creates a service writing to repo.
func NewComputeNodePersistService(repo repository.ClusterRepository) *ComputeNodePersistService {
	return &ComputeNodePersistService{repo: repo}
}

// Online registers inst with its state and labels.
func (s *ComputeNodePersistService) Online(ctx context.Context, inst instance.ComputeNodeInstance) error {
	content, err := instance.EncodeMetaData(inst.MetaData)
	if err != nil {
		return err
	}
	key, err := fullPath(nodepath.ComputeNodeOnlineNodePath{InstanceType: inst.MetaData.Type, InstanceID: inst.MetaData.ID})
	if err != nil {
		return err
	}

	if err := s.UpdateState(ctx, inst.MetaData.ID, inst.State); err != nil {
		return err
	}
	if err := s.UpdateLabels(ctx, inst.MetaData.ID, inst.Labels); err != nil {
		return err
	}
	return s.repo.Persist(ctx, key, content)
}

// Offline removes every key owned by inst. Missing keys are ignored.
func (s *ComputeNodePersistService) Offline(ctx context.Context, inst instance.ComputeNodeInstance) error {
	paths := []nodepath.NodePath{
		nodepath.ComputeNodeOnlineNodePath{InstanceType: inst.MetaData.Type, InstanceID: inst.MetaData.ID},
		nodepath.ComputeNodeStateNodePath{InstanceID: inst.MetaData.ID},
		nodepath.ComputeNodeLabelNodePath{InstanceID: inst.MetaData.ID},
	}

	var errs []error
	for _, p := range paths {
		key, err := fullPath(p)
		if err != nil {
			return err
		}
		errs = append(errs, s.repo.Delete(ctx, key))
	}
	return errors.Join(errs...)
}

// UpdateState publishes the state of an instance.
func (s *ComputeNodePersistService) UpdateState(ctx context.Context, instanceID string, state instance.State) error {
	key, err := fullPath(nodepath.ComputeNodeStateNodePath{InstanceID: instanceID})
	if err != nil {
		return err
	}
	return s.repo.Persist(ctx, key, string(state))
}

// UpdateLabels publishes the labels of an instance.
func (s *ComputeNodePersistService) UpdateLabels(ctx context.Context, instanceID string, labels []string) error {
	content, err := instance.EncodeLabels(labels)
	if err != nil {
		return err
	}
	key, err := fullPath(nodepath.ComputeNodeLabelNodePath{InstanceID: instanceID})
	if err != nil {
		return err
	}
	return s.repo.Persist(ctx, key, content)
}
