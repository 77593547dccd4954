// ABOUTME: Compute node instance model: identity, state, labels
// ABOUTME: Instances are registered by the online handler and mirror remote state

package instance

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Instance types of compute nodes.
const (
	TypeProxy = "PROXY"
	TypeJDBC  = "JDBC"
)

// State is the operational state of a compute node.
type State string

const (
	StateOK           State = "OK"
	StateCircuitBreak State = "CIRCUIT_BREAK"
)

// ParseState validates a state string from the coordination store.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateOK, StateCircuitBreak:
		return State(s), nil
	default:
		return "", fmt.Errorf("unknown instance state %q", s)
	}
}

// MetaData identifies a compute node and how to reach it.
type MetaData struct {
	ID        string `yaml:"-"`
	Type      string `yaml:"-"`
	Attribute string `yaml:"attribute"`
	Version   string `yaml:"version"`
}

// ComputeNodeInstance is the local view of one compute node.
type ComputeNodeInstance struct {
	MetaData MetaData
	State    State
	Labels   []string
}

// NewComputeNodeInstance creates an instance in the OK state.
func NewComputeNodeInstance(md MetaData) *ComputeNodeInstance {
	return &ComputeNodeInstance{MetaData: md, State: StateOK}
}

func (i *ComputeNodeInstance) clone() *ComputeNodeInstance {
	c := *i
	c.Labels = append([]string(nil), i.Labels...)
	return &c
}

// NewInstanceID returns a fresh, lexicographically sortable instance id.
func NewInstanceID() string {
	return ulid.Make().String()
}
