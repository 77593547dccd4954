// ABOUTME: Capability interface implemented by every change handler
// ABOUTME: Handlers subscribe to a key prefix and a set of change types

package dispatch

import (
	"github.com/nainya/metacoord/pkg/event"
	"github.com/nainya/metacoord/pkg/manager"
)

// Handler reacts to change events under SubscribedKey.
type Handler interface {
	// SubscribedKey is the path prefix of interesting keys.
	SubscribedKey() string
	// SubscribedTypes lists the change types the handler wants.
	SubscribedTypes() []event.Type
	// Handle applies ev to the process state held by cm.
	Handle(cm *manager.ContextManager, ev event.DataChangedEvent) error
}
