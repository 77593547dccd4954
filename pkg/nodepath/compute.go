// ABOUTME: Node paths of compute nodes: online registrations, state, labels and worker ids
// ABOUTME: Worker id reservations guarantee cluster-wide uniqueness of worker ids

package nodepath

import "strconv"

var (
	computeNodeOnlineTemplate   = MustParseTemplate("/nodes/compute/online/${instanceType}/${instanceId}")
	computeNodeStateTemplate    = MustParseTemplate("/nodes/compute/status/${instanceId}")
	computeNodeLabelTemplate    = MustParseTemplate("/nodes/compute/labels/${instanceId}")
	computeNodeWorkerIDTemplate = MustParseTemplate("/nodes/compute/worker_id/${instanceId}")
	workerIDReservationTemplate = MustParseTemplate("/reservation/worker_id/${workerId}")
)

// ComputeNodeOnlineNodePath addresses the online registration of an instance.
type ComputeNodeOnlineNodePath struct {
	InstanceType string
	InstanceID   string
}

func (p ComputeNodeOnlineNodePath) Template() Template { return computeNodeOnlineTemplate }
func (p ComputeNodeOnlineNodePath) Values() []string {
	return []string{p.InstanceType, p.InstanceID}
}

// ComputeNodeStateNodePath addresses the state of an instance.
type ComputeNodeStateNodePath struct {
	InstanceID string
}

func (p ComputeNodeStateNodePath) Template() Template { return computeNodeStateTemplate }
func (p ComputeNodeStateNodePath) Values() []string   { return []string{p.InstanceID} }

// ComputeNodeLabelNodePath addresses the labels of an instance.
type ComputeNodeLabelNodePath struct {
	InstanceID string
}

func (p ComputeNodeLabelNodePath) Template() Template { return computeNodeLabelTemplate }
func (p ComputeNodeLabelNodePath) Values() []string   { return []string{p.InstanceID} }

// ComputeNodeWorkerIDNodePath addresses the worker id assigned to an instance.
type ComputeNodeWorkerIDNodePath struct {
	InstanceID string
}

func (p ComputeNodeWorkerIDNodePath) Template() Template { return computeNodeWorkerIDTemplate }
func (p ComputeNodeWorkerIDNodePath) Values() []string   { return []string{p.InstanceID} }

// WorkerIDReservationNodePath addresses the reservation of one worker id.
// A nil WorkerID addresses the reservation container.
type WorkerIDReservationNodePath struct {
	WorkerID *int
}

func (p WorkerIDReservationNodePath) Template() Template { return workerIDReservationTemplate }
func (p WorkerIDReservationNodePath) Values() []string {
	if p.WorkerID == nil {
		return []string{""}
	}
	return []string{strconv.Itoa(*p.WorkerID)}
}

// InstanceIDSearchCriteria captures the instance id of a worker id key.
func InstanceIDSearchCriteria() SearchCriteria {
	return NewSearchCriteria(ComputeNodeWorkerIDNodePath{}, "instanceId")
}

// ComputeNodeStateSearchCriteria captures the instance id of a state key.
func ComputeNodeStateSearchCriteria() SearchCriteria {
	return NewSearchCriteria(ComputeNodeStateNodePath{}, "instanceId")
}

// ComputeNodeLabelSearchCriteria captures the instance id of a labels key.
func ComputeNodeLabelSearchCriteria() SearchCriteria {
	return NewSearchCriteria(ComputeNodeLabelNodePath{}, "instanceId")
}

// ComputeNodeOnlineSearchCriteria captures instance type and id of an online key.
func ComputeNodeOnlineSearchCriteria() SearchCriteria {
	return NewSearchCriteria(ComputeNodeOnlineNodePath{}, "instanceId")
}
