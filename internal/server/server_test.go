// Integration tests for the Coordinator gRPC server
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nainya/metacoord/internal/logger"
	"github.com/nainya/metacoord/internal/metrics"
	"github.com/nainya/metacoord/pkg/event"
	"github.com/nainya/metacoord/pkg/repository"
	pb "github.com/nainya/metacoord/proto"
)

const bufSize = 1024 * 1024

type testEnv struct {
	store   *repository.MemoryRepository
	remote  *repository.RemoteRepository
	client  pb.CoordinatorClient
	metrics *metrics.Metrics
}

func setupTestServer(t *testing.T) (*testEnv, func()) {
	log := logger.Nop()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	store := repository.NewMemoryRepository(log, m)

	// Create a new listener for this test
	lis := bufconn.Listen(bufSize)

	// Create gRPC server
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(GrpcMetricsInterceptor(m, log)),
		grpc.StreamInterceptor(GrpcStreamMetricsInterceptor(m, log)),
	)
	server := NewServer(store, log, m)
	server.Register(grpcServer)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			// Server closed is expected during cleanup
		}
	}()

	// Create client with custom dialer
	bufDialer := func(context.Context, string) (net.Conn, error) {
		return lis.Dial()
	}

	ctx := context.Background()
	conn, err := grpc.DialContext(ctx, "bufnet",
		grpc.WithContextDialer(bufDialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Failed to dial bufnet: %v", err)
	}

	env := &testEnv{
		store:   store,
		remote:  repository.NewRemoteRepository(conn, log),
		client:  pb.NewCoordinatorClient(conn),
		metrics: m,
	}

	cleanup := func() {
		env.remote.Close()
		grpcServer.Stop()
		lis.Close()
		server.Close()
	}

	return env, cleanup
}

func TestPersistAndGet(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	ctx := context.Background()

	if err := env.remote.Persist(ctx, "/nodes/compute/worker_id/instance-1", "5"); err != nil {
		t.Fatalf("Failed to persist: %v", err)
	}

	value, err := env.remote.Get(ctx, "/nodes/compute/worker_id/instance-1")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if value != "5" {
		t.Errorf("Expected 5, got %q", value)
	}

	// The write went to the backing store
	stored, err := env.store.Get(ctx, "/nodes/compute/worker_id/instance-1")
	if err != nil || stored != "5" {
		t.Errorf("Expected store to hold 5, got %q (%v)", stored, err)
	}
}

func TestGetMissingKey(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	_, err := env.remote.Get(context.Background(), "/missing")
	if !errors.Is(err, repository.ErrKeyNotFound) {
		t.Fatalf("Expected ErrKeyNotFound, got %v", err)
	}

	_, err = env.client.Get(context.Background(), wrapperspb.String("/missing"))
	if status.Code(err) != codes.NotFound {
		t.Errorf("Expected NotFound, got %v", status.Code(err))
	}
}

func TestInvalidKey(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	_, err := env.client.Get(context.Background(), wrapperspb.String("relative/key"))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("Expected InvalidArgument, got %v", status.Code(err))
	}

	if err := env.remote.Persist(context.Background(), "", "x"); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Expected InvalidArgument for empty key, got %v", err)
	}
}

func TestPersistIfAbsentAndChildren(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	ctx := context.Background()

	created, err := env.remote.PersistIfAbsent(ctx, "/reservation/worker_id/0", "instance-1")
	if err != nil || !created {
		t.Fatalf("Expected first reservation to succeed, got %v (%v)", created, err)
	}
	created, err = env.remote.PersistIfAbsent(ctx, "/reservation/worker_id/0", "instance-2")
	if err != nil || created {
		t.Fatalf("Expected second reservation to fail, got %v (%v)", created, err)
	}
	if _, err := env.remote.PersistIfAbsent(ctx, "/reservation/worker_id/1", "instance-2"); err != nil {
		t.Fatalf("Failed to reserve: %v", err)
	}

	children, err := env.remote.GetChildrenKeys(ctx, "/reservation/worker_id")
	if err != nil {
		t.Fatalf("Failed to list children: %v", err)
	}
	if strings.Join(children, ",") != "0,1" {
		t.Errorf("Expected children 0,1, got %v", children)
	}
}

func TestDelete(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	ctx := context.Background()
	env.remote.Persist(ctx, "/metadata/foo_db", "")
	env.remote.Persist(ctx, "/metadata/foo_db/schemas/public", "")

	if err := env.remote.Delete(ctx, "/metadata/foo_db"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if env.store.Len() != 0 {
		t.Errorf("Expected empty store, got %d keys", env.store.Len())
	}
}

func TestWatch(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan event.DataChangedEvent, 16)
	if err := env.remote.Watch(ctx, "/nodes/compute/worker_id", func(ev event.DataChangedEvent) {
		events <- ev
	}); err != nil {
		t.Fatalf("Failed to watch: %v", err)
	}

	key := "/nodes/compute/worker_id/instance-1"
	env.store.Persist(ctx, "/nodes/compute/status/instance-1", "OK")
	env.store.Persist(ctx, key, "5")
	env.store.Persist(ctx, key, "6")
	env.store.Delete(ctx, key)

	want := []event.DataChangedEvent{
		event.New(key, "5", event.Added),
		event.New(key, "6", event.Updated),
		event.New(key, "", event.Deleted),
	}
	for i, w := range want {
		select {
		case got := <-events:
			if got != w {
				t.Errorf("Event %d: expected %v, got %v", i, w, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for event %d", i)
		}
	}
}

func TestWatchAfterClose(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	env.remote.Close()
	err := env.remote.Watch(context.Background(), "/metadata", func(event.DataChangedEvent) {})
	if !errors.Is(err, repository.ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestInterceptorRecordsMetrics(t *testing.T) {
	env, cleanup := setupTestServer(t)
	defer cleanup()

	env.remote.Persist(context.Background(), "/props", "")
	env.remote.Get(context.Background(), "/missing")

	success := testutil.ToFloat64(env.metrics.GrpcRequestsTotal.WithLabelValues(pb.Coordinator_Persist_FullMethodName, "success"))
	if success != 1 {
		t.Errorf("Expected 1 successful Persist, got %v", success)
	}
	failed := testutil.ToFloat64(env.metrics.GrpcRequestsTotal.WithLabelValues(pb.Coordinator_Get_FullMethodName, "error"))
	if failed != 1 {
		t.Errorf("Expected 1 failed Get, got %v", failed)
	}
}

func TestObservabilityEndpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	m.RecordEventReceived("ADDED")

	obs := NewObservabilityServer(0, reg, logger.Nop())

	for path, want := range map[string]string{
		"/health":  `"status":"healthy"`,
		"/ready":   `"status":"ready"`,
		"/metrics": "metacoord_events_received_total",
	} {
		rec := httptest.NewRecorder()
		obs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("%s: expected body to contain %q", path, want)
		}
	}
}
