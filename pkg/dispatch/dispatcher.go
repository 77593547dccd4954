// ABOUTME: Routes change events to subscribed handlers with per-handler isolation
// ABOUTME: Optional worker pool partitions events by leading key segments to keep their order

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"github.com/nainya/metacoord/internal/logger"
	"github.com/nainya/metacoord/internal/metrics"
	"github.com/nainya/metacoord/pkg/event"
	"github.com/nainya/metacoord/pkg/manager"
	"github.com/nainya/metacoord/pkg/nodepath"
	"github.com/nainya/metacoord/pkg/repository"
)

// ErrStopped reports a Submit after Stop.
var ErrStopped = errors.New("dispatcher stopped")

// Config sizes the worker pool.
type Config struct {
	Workers   int
	QueueSize int
	// PartitionDepth is the number of leading key segments that pick a worker.
	// Keys sharing them, such as everything below /metadata/{database}, keep store order.
	PartitionDepth int
}

// DefaultConfig returns the pool size used by the compute node agent.
func DefaultConfig() Config {
	return Config{
		Workers:        4,
		QueueSize:      256,
		PartitionDepth: 2,
	}
}

// Dispatcher delivers change events to handlers registered at construction.
type Dispatcher struct {
	cm       *manager.ContextManager
	cfg      Config
	handlers []Handler
	log      *logger.Logger
	metrics  *metrics.Metrics

	mu      sync.RWMutex
	queues  []chan event.DataChangedEvent
	stopped bool
	wg      sync.WaitGroup
}

// New creates a dispatcher. Handlers run in the given order. m may be nil.
func New(cm *manager.ContextManager, cfg Config, log *logger.Logger, m *metrics.Metrics, handlers ...Handler) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.PartitionDepth <= 0 {
		cfg.PartitionDepth = DefaultConfig().PartitionDepth
	}
	return &Dispatcher{
		cm:       cm,
		cfg:      cfg,
		handlers: append([]Handler(nil), handlers...),
		log:      log.DispatchLogger(),
		metrics:  m,
	}
}

// Dispatch runs every matching handler synchronously. A failing or panicking
// handler is logged and counted; the remaining handlers still run.
func (d *Dispatcher) Dispatch(ev event.DataChangedEvent) {
	if d.metrics != nil {
		d.metrics.RecordEventReceived(ev.Type.String())
	}

	for _, h := range d.handlers {
		if !matches(h, ev) {
			continue
		}
		d.invoke(h, ev)
	}

	if d.metrics != nil && d.cm != nil && d.cm.InstanceContext != nil {
		d.metrics.WorkerIDsAssigned.Set(float64(len(d.cm.InstanceContext.WorkerIDs())))
	}
}

func (d *Dispatcher) invoke(h Handler, ev event.DataChangedEvent) {
	name := handlerName(h)
	start := time.Now()
	err := safeHandle(h, d.cm, ev)
	duration := time.Since(start)

	d.log.LogEventHandled(name, ev.Key, ev.Type.String(), duration, err)
	if d.metrics != nil {
		d.metrics.RecordHandlerInvocation(name, duration, err)
	}
}

func safeHandle(h Handler, cm *manager.ContextManager, ev event.DataChangedEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(cm, ev)
}

func matches(h Handler, ev event.DataChangedEvent) bool {
	return nodepath.HasPathPrefix(ev.Key, h.SubscribedKey()) && slices.Contains(h.SubscribedTypes(), ev.Type)
}

func handlerName(h Handler) string {
	name := fmt.Sprintf("%T", h)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Start launches the worker pool. Workers stop when ctx is done or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.queues != nil || d.stopped {
		d.mu.Unlock()
		return
	}
	d.queues = make([]chan event.DataChangedEvent, d.cfg.Workers)
	for i := range d.queues {
		d.queues[i] = make(chan event.DataChangedEvent, d.cfg.QueueSize)
		d.wg.Add(1)
		go d.work(d.queues[i])
	}
	d.mu.Unlock()

	d.log.Info("Dispatcher started").
		Int("workers", d.cfg.Workers).
		Int("queue_size", d.cfg.QueueSize).
		Int("handlers", len(d.handlers)).
		Send()

	go func() {
		<-ctx.Done()
		d.Stop()
	}()
}

func (d *Dispatcher) work(queue <-chan event.DataChangedEvent) {
	defer d.wg.Done()
	for ev := range queue {
		if d.metrics != nil {
			d.metrics.DispatchQueueDepth.Dec()
		}
		d.Dispatch(ev)
	}
}

// Submit hands ev to the worker owning its key partition, blocking while that queue is full.
// Before Start it dispatches inline.
func (d *Dispatcher) Submit(ctx context.Context, ev event.DataChangedEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrStopped
	}
	if d.queues == nil {
		d.Dispatch(ev)
		return nil
	}

	queue := d.queues[partition(partitionKey(ev.Key, d.cfg.PartitionDepth), len(d.queues))]
	if d.metrics != nil {
		d.metrics.DispatchQueueDepth.Inc()
	}
	select {
	case queue <- ev:
		return nil
	case <-ctx.Done():
		if d.metrics != nil {
			d.metrics.DispatchQueueDepth.Dec()
		}
		return ctx.Err()
	}
}

// Stop drains queued events and waits for the workers. It is safe to call twice.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info("Dispatcher stopped").Send()
}

// partitionKey keeps the first depth segments of key.
func partitionKey(key string, depth int) string {
	segments := 0
	for i := 1; i < len(key); i++ {
		if key[i] != '/' {
			continue
		}
		segments++
		if segments == depth {
			return key[:i]
		}
	}
	return key
}

func partition(key string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

// Prefixes returns the subscribed keys that are not covered by another subscription.
func (d *Dispatcher) Prefixes() []string {
	var keys []string
	for _, h := range d.handlers {
		if key := h.SubscribedKey(); !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	var result []string
	for _, key := range keys {
		covered := false
		for _, other := range result {
			if nodepath.HasPathPrefix(key, other) {
				covered = true
				break
			}
		}
		if !covered {
			result = append(result, key)
		}
	}
	return result
}

// Listen watches every prefix on repo and submits the received events.
// Each event is dispatched once even when subscriptions overlap.
func (d *Dispatcher) Listen(ctx context.Context, repo repository.ClusterRepository) error {
	for _, prefix := range d.Prefixes() {
		err := repo.Watch(ctx, prefix, func(ev event.DataChangedEvent) {
			if err := d.Submit(ctx, ev); err != nil && ctx.Err() == nil {
				d.log.Warn("dropping change event").Str("key", ev.Key).Err(err).Send()
			}
		})
		if err != nil {
			return fmt.Errorf("listen on %s: %w", prefix, err)
		}
		d.log.Debug("listening").Str("prefix", prefix).Send()
	}
	return nil
}
