// ABOUTME: Cluster-wide unique worker id assignment for compute nodes
// ABOUTME: Ids are claimed through create-if-absent reservations

package persist

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/nainya/metacoord/pkg/nodepath"
	"github.com/nainya/metacoord/pkg/repository"
)

// MaxWorkerID bounds the worker id space; valid ids are 0 to MaxWorkerID-1.
const MaxWorkerID = 1024

// ErrWorkerIDExhausted reports that every worker id is reserved.
var ErrWorkerIDExhausted = errors.New("worker ids exhausted")

// WorkerIDAllocator assigns worker ids to instances.
type WorkerIDAllocator struct {
	repo repository.ClusterRepository
	max  int
}

// NewWorkerIDAllocator creates an allocator over the full id space.
func NewWorkerIDAllocator(repo repository.ClusterRepository) *WorkerIDAllocator {
	return &WorkerIDAllocator{repo: repo, max: MaxWorkerID}
}

// Allocate returns the worker id of instanceID, reserving the lowest free one
// if the instance has none yet.
func (a *WorkerIDAllocator) Allocate(ctx context.Context, instanceID string) (int, error) {
	key, err := fullPath(nodepath.ComputeNodeWorkerIDNodePath{InstanceID: instanceID})
	if err != nil {
		return 0, err
	}

	if id, ok, err := a.assigned(ctx, key); err != nil || ok {
		return id, err
	}

	reserved, err := a.reserved(ctx)
	if err != nil {
		return 0, err
	}
	for id := 0; id < a.max; id++ {
		if slices.Contains(reserved, id) {
			continue
		}
		workerID := id
		claimed, err := a.repo.PersistIfAbsent(ctx, nodepath.MustToPath(nodepath.WorkerIDReservationNodePath{WorkerID: &workerID}, false), instanceID)
		if err != nil {
			return 0, fmt.Errorf("reserve worker id %d: %w", id, err)
		}
		if !claimed {
			continue
		}
		if err := a.repo.Persist(ctx, key, strconv.Itoa(id)); err != nil {
			return 0, fmt.Errorf("assign worker id %d to %s: %w", id, instanceID, err)
		}
		return id, nil
	}
	return 0, fmt.Errorf("%w: %d in use", ErrWorkerIDExhausted, a.max)
}

// Release frees the worker id of instanceID. It is a no-op without an assignment.
func (a *WorkerIDAllocator) Release(ctx context.Context, instanceID string) error {
	key, err := fullPath(nodepath.ComputeNodeWorkerIDNodePath{InstanceID: instanceID})
	if err != nil {
		return err
	}

	id, ok, err := a.assigned(ctx, key)
	if err != nil || !ok {
		return err
	}

	reservation := nodepath.MustToPath(nodepath.WorkerIDReservationNodePath{WorkerID: &id}, false)
	owner, err := a.repo.Get(ctx, reservation)
	switch {
	case errors.Is(err, repository.ErrKeyNotFound):
	case err != nil:
		return err
	case owner == instanceID:
		if err := a.repo.Delete(ctx, reservation); err != nil {
			return fmt.Errorf("release worker id %d: %w", id, err)
		}
	}
	return a.repo.Delete(ctx, key)
}

func (a *WorkerIDAllocator) assigned(ctx context.Context, key string) (int, bool, error) {
	value, err := a.repo.Get(ctx, key)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false, fmt.Errorf("worker id of %s: %q is not an integer", key, value)
	}
	return id, true, nil
}

func (a *WorkerIDAllocator) reserved(ctx context.Context) ([]int, error) {
	container := nodepath.MustToPath(nodepath.WorkerIDReservationNodePath{}, false)
	children, err := a.repo.GetChildrenKeys(ctx, container)
	if err != nil {
		return nil, fmt.Errorf("list worker id reservations: %w", err)
	}

	ids := make([]int, 0, len(children))
	for _, child := range children {
		if id, err := strconv.Atoi(child); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
