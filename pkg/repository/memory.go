// ABOUTME: In-process coordination store used by the standalone daemon and tests
// ABOUTME: Mutations are serialized; each watcher drains its own ordered queue

package repository

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/nainya/metacoord/internal/logger"
	"github.com/nainya/metacoord/internal/metrics"
	"github.com/nainya/metacoord/pkg/event"
	"github.com/nainya/metacoord/pkg/nodepath"
)

// MemoryRepository keeps all keys in a map guarded by a single lock.
type MemoryRepository struct {
	mu       sync.RWMutex
	data     map[string]string
	watchers map[*watcher]struct{}
	closed   bool

	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewMemoryRepository creates an empty store. m may be nil.
func NewMemoryRepository(log *logger.Logger, m *metrics.Metrics) *MemoryRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &MemoryRepository{
		data:     make(map[string]string),
		watchers: make(map[*watcher]struct{}),
		log:      log.RepositoryLogger("memory"),
		metrics:  m,
	}
}

func (r *MemoryRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return "", ErrClosed
	}
	value, ok := r.data[key]
	if !ok {
		r.record("get", ErrKeyNotFound)
		return "", ErrKeyNotFound
	}
	r.record("get", nil)
	return value, nil
}

func (r *MemoryRepository) GetChildrenKeys(_ context.Context, key string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrClosed
	}

	prefix := strings.TrimSuffix(key, "/") + "/"
	seen := make(map[string]bool)
	var children []string
	for k := range r.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		child, _, _ := strings.Cut(k[len(prefix):], "/")
		if child != "" && !seen[child] {
			seen[child] = true
			children = append(children, child)
		}
	}
	slices.Sort(children)

	r.record("children", nil)
	return children, nil
}

func (r *MemoryRepository) Persist(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	typ := event.Updated
	if _, ok := r.data[key]; !ok {
		typ = event.Added
	}
	r.data[key] = value
	r.notify(event.New(key, value, typ))

	r.record("persist", nil)
	return nil
}

func (r *MemoryRepository) PersistIfAbsent(_ context.Context, key, value string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, ErrClosed
	}
	if _, ok := r.data[key]; ok {
		r.record("persist_if_absent", nil)
		return false, nil
	}
	r.data[key] = value
	r.notify(event.New(key, value, event.Added))

	r.record("persist_if_absent", nil)
	return true, nil
}

func (r *MemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	var removed []string
	for k := range r.data {
		if nodepath.HasPathPrefix(k, key) {
			removed = append(removed, k)
		}
	}
	// Children first, so a deleted container is reported after its content.
	slices.SortFunc(removed, func(a, b string) int { return strings.Compare(b, a) })
	for _, k := range removed {
		delete(r.data, k)
		r.notify(event.New(k, "", event.Deleted))
	}

	r.record("delete", nil)
	return nil
}

func (r *MemoryRepository) Watch(ctx context.Context, prefix string, listener Listener) error {
	w := newWatcher(prefix, listener)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.watchers[w] = struct{}{}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.WatchesActive.Inc()
	}
	r.log.Debug("watch registered").Str("prefix", prefix).Send()

	go w.run()
	go func() {
		select {
		case <-ctx.Done():
		case <-w.done:
		}
		r.removeWatcher(w)
	}()
	return nil
}

// Close stops every watcher. Pending events are dropped.
func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	watchers := make([]*watcher, 0, len(r.watchers))
	for w := range r.watchers {
		watchers = append(watchers, w)
	}
	r.mu.Unlock()

	for _, w := range watchers {
		r.removeWatcher(w)
	}
	return nil
}

// Len returns the number of stored keys.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

func (r *MemoryRepository) removeWatcher(w *watcher) {
	r.mu.Lock()
	_, ok := r.watchers[w]
	delete(r.watchers, w)
	r.mu.Unlock()

	if !ok {
		return
	}
	w.stop()
	if r.metrics != nil {
		r.metrics.WatchesActive.Dec()
	}
	r.log.Debug("watch removed").Str("prefix", w.prefix).Send()
}

// notify must be called with mu held for writing.
func (r *MemoryRepository) notify(ev event.DataChangedEvent) {
	for w := range r.watchers {
		if nodepath.HasPathPrefix(ev.Key, w.prefix) {
			w.enqueue(ev)
		}
	}
	if r.metrics != nil {
		r.metrics.RepositoryKeys.Set(float64(len(r.data)))
	}
}

func (r *MemoryRepository) record(op string, err error) {
	if r.metrics != nil {
		r.metrics.RecordRepositoryOperation(op, err)
	}
}

// watcher delivers events to one listener in enqueue order without blocking writers.
type watcher struct {
	prefix   string
	listener Listener

	mu      sync.Mutex
	pending []event.DataChangedEvent
	signal  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newWatcher(prefix string, listener Listener) *watcher {
	return &watcher{
		prefix:   prefix,
		listener: listener,
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (w *watcher) enqueue(ev event.DataChangedEvent) {
	w.mu.Lock()
	w.pending = append(w.pending, ev)
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case <-w.signal:
		}

		w.mu.Lock()
		batch := w.pending
		w.pending = nil
		w.mu.Unlock()

		for _, ev := range batch {
			select {
			case <-w.done:
				return
			default:
			}
			w.listener(ev)
		}
	}
}

func (w *watcher) stop() {
	w.once.Do(func() { close(w.done) })
}
