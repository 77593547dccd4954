// ABOUTME: Change notifications delivered by the coordination store
// ABOUTME: One event per key mutation: added, updated or deleted

package event

import "fmt"

// Type is the kind of mutation a DataChangedEvent reports.
type Type int

const (
	Added Type = iota + 1
	Updated
	Deleted
)

// AllTypes lists every change type.
var AllTypes = []Type{Added, Updated, Deleted}

func (t Type) String() string {
	switch t {
	case Added:
		return "ADDED"
	case Updated:
		return "UPDATED"
	case Deleted:
		return "DELETED"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType parses the String form of a change type.
func ParseType(s string) (Type, error) {
	switch s {
	case "ADDED":
		return Added, nil
	case "UPDATED":
		return Updated, nil
	case "DELETED":
		return Deleted, nil
	default:
		return 0, fmt.Errorf("unknown change type %q", s)
	}
}

// DataChangedEvent reports a single key mutation. Value is empty for deletions.
type DataChangedEvent struct {
	Key   string
	Value string
	Type  Type
}

// New creates a change event.
func New(key, value string, t Type) DataChangedEvent {
	return DataChangedEvent{Key: key, Value: value, Type: t}
}

func (e DataChangedEvent) String() string {
	return fmt.Sprintf("%s %s=%q", e.Type, e.Key, e.Value)
}
