// ABOUTME: Coordination store contract consumed by the metadata layer
// ABOUTME: Key/value access plus prefix watches delivering change events

package repository

import (
	"context"
	"errors"

	"github.com/nainya/metacoord/pkg/event"
)

// ErrKeyNotFound reports a Get on a missing key.
var ErrKeyNotFound = errors.New("key not found")

// ErrClosed reports use of a closed repository.
var ErrClosed = errors.New("repository closed")

// Listener receives change events of a watched prefix.
// Events of one key arrive in the order the store applied them.
type Listener func(event.DataChangedEvent)

// ClusterRepository is the remote coordination store shared by all compute nodes.
type ClusterRepository interface {
	// Get returns the value of key or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)
	// GetChildrenKeys returns the sorted names of the direct children of key.
	GetChildrenKeys(ctx context.Context, key string) ([]string, error)
	// Persist creates or overwrites key.
	Persist(ctx context.Context, key, value string) error
	// PersistIfAbsent creates key only if it does not exist and reports whether it did.
	PersistIfAbsent(ctx context.Context, key, value string) (bool, error)
	// Delete removes key and everything below it.
	Delete(ctx context.Context, key string) error
	// Watch registers listener for every mutation at or below prefix until ctx is done.
	// The subscription is active when Watch returns.
	Watch(ctx context.Context, prefix string, listener Listener) error
	// Close releases the repository and stops all watches.
	Close() error
}
