// Package handler provides the change handlers registered by compute nodes.
package handler

import "github.com/nainya/metacoord/pkg/dispatch"

// Defaults returns every handler in registration order. Containers are
// registered before their content so a single event creates parents first.
func Defaults() []dispatch.Handler {
	return []dispatch.Handler{
		ComputeNodeOnlineHandler{},
		ComputeNodeStateChangedHandler{},
		ComputeNodeLabelsChangedHandler{},
		ComputeNodeWorkerIDChangedHandler{},
		DatabaseChangedHandler{},
		SchemaChangedHandler{},
		TableChangedHandler{},
		ViewChangedHandler{},
		GlobalRuleChangedHandler{},
		PropertiesChangedHandler{},
	}
}
