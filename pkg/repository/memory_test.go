package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/metacoord/internal/metrics"
	"github.com/nainya/metacoord/pkg/event"
)

// recorder collects watched events.
type recorder struct {
	mu     sync.Mutex
	events []event.DataChangedEvent
}

func (r *recorder) listen(ev event.DataChangedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []event.DataChangedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.DataChangedEvent(nil), r.events...)
}

func (r *recorder) waitFor(t *testing.T, n int) []event.DataChangedEvent {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.snapshot()) >= n }, 2*time.Second, 5*time.Millisecond)
	return r.snapshot()
}

func TestPersistAndGet(t *testing.T) {
	repo := NewMemoryRepository(nil, nil)
	defer repo.Close()
	ctx := context.Background()

	_, err := repo.Get(ctx, "/props")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, repo.Persist(ctx, "/props", "sql-show: true"))
	value, err := repo.Get(ctx, "/props")
	require.NoError(t, err)
	assert.Equal(t, "sql-show: true", value)
	assert.Equal(t, 1, repo.Len())
}

func TestPersistIfAbsent(t *testing.T) {
	repo := NewMemoryRepository(nil, nil)
	defer repo.Close()
	ctx := context.Background()

	ok, err := repo.PersistIfAbsent(ctx, "/reservation/worker_id/0", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.PersistIfAbsent(ctx, "/reservation/worker_id/0", "b")
	require.NoError(t, err)
	assert.False(t, ok)

	value, _ := repo.Get(ctx, "/reservation/worker_id/0")
	assert.Equal(t, "a", value)
}

func TestGetChildrenKeys(t *testing.T) {
	repo := NewMemoryRepository(nil, nil)
	defer repo.Close()
	ctx := context.Background()

	for _, key := range []string{
		"/metadata/db/schemas/s/views/v/versions/1",
		"/metadata/db/schemas/s/views/v/versions/0",
		"/metadata/db/schemas/s/views/v/versions/10",
		"/metadata/db/schemas/s/views/v/active_version",
	} {
		require.NoError(t, repo.Persist(ctx, key, "x"))
	}

	children, err := repo.GetChildrenKeys(ctx, "/metadata/db/schemas/s/views/v/versions")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "10"}, children)

	children, err = repo.GetChildrenKeys(ctx, "/metadata/db/schemas/s/views/v/")
	require.NoError(t, err)
	assert.Equal(t, []string{"active_version", "versions"}, children)

	children, err = repo.GetChildrenKeys(ctx, "/missing")
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestWatchDeliversInOrder(t *testing.T) {
	repo := NewMemoryRepository(nil, nil)
	defer repo.Close()
	ctx := context.Background()

	rec := &recorder{}
	require.NoError(t, repo.Watch(ctx, "/nodes/compute/worker_id", rec.listen))

	key := "/nodes/compute/worker_id/instance-1"
	require.NoError(t, repo.Persist(ctx, key, "1"))
	require.NoError(t, repo.Persist(ctx, "/nodes/compute/worker_idx/other", "x"))
	for i := 2; i <= 50; i++ {
		require.NoError(t, repo.Persist(ctx, key, fmt.Sprint(i)))
	}
	require.NoError(t, repo.Delete(ctx, key))

	events := rec.waitFor(t, 51)
	require.Len(t, events, 51)
	assert.Equal(t, event.New(key, "1", event.Added), events[0])
	for i := 1; i < 50; i++ {
		assert.Equal(t, event.New(key, fmt.Sprint(i+1), event.Updated), events[i])
	}
	assert.Equal(t, event.New(key, "", event.Deleted), events[50])
}

func TestDeleteIsRecursive(t *testing.T) {
	repo := NewMemoryRepository(nil, nil)
	defer repo.Close()
	ctx := context.Background()

	require.NoError(t, repo.Persist(ctx, "/metadata/db", ""))
	require.NoError(t, repo.Persist(ctx, "/metadata/db/schemas/s", ""))
	require.NoError(t, repo.Persist(ctx, "/metadata/dbx", ""))

	rec := &recorder{}
	require.NoError(t, repo.Watch(ctx, "/metadata", rec.listen))
	require.NoError(t, repo.Delete(ctx, "/metadata/db"))

	events := rec.waitFor(t, 2)
	assert.Equal(t, []event.DataChangedEvent{
		event.New("/metadata/db/schemas/s", "", event.Deleted),
		event.New("/metadata/db", "", event.Deleted),
	}, events)

	_, err := repo.Get(ctx, "/metadata/dbx")
	assert.NoError(t, err)
}

func TestWatchStopsWithContext(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	repo := NewMemoryRepository(nil, m)
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	require.NoError(t, repo.Watch(ctx, "/props", rec.listen))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WatchesActive))

	require.NoError(t, repo.Persist(context.Background(), "/props", "a"))
	rec.waitFor(t, 1)

	cancel()
	require.Eventually(t, func() bool { return testutil.ToFloat64(m.WatchesActive) == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, repo.Persist(context.Background(), "/props", "b"))
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestClosedRepository(t *testing.T) {
	repo := NewMemoryRepository(nil, nil)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())
	ctx := context.Background()

	assert.ErrorIs(t, repo.Persist(ctx, "/a", "b"), ErrClosed)
	_, err := repo.Get(ctx, "/a")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, repo.Watch(ctx, "/a", func(event.DataChangedEvent) {}), ErrClosed)
}
