// ABOUTME: Coordination store client speaking the Coordinator gRPC service
// ABOUTME: Each Watch is one server stream feeding the listener until cancelled

package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nainya/metacoord/internal/logger"
	pb "github.com/nainya/metacoord/proto"
)

// RemoteRepository is a ClusterRepository backed by a remote coordinator.
type RemoteRepository struct {
	client pb.CoordinatorClient
	conn   io.Closer
	log    *logger.Logger

	mu      sync.Mutex
	cancels []context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// NewRemoteRepository wraps an established connection. Close closes conn
// when it implements io.Closer, as *grpc.ClientConn does.
func NewRemoteRepository(conn grpc.ClientConnInterface, log *logger.Logger) *RemoteRepository {
	if log == nil {
		log = logger.Nop()
	}
	r := &RemoteRepository{
		client: pb.NewCoordinatorClient(conn),
		log:    log.RepositoryLogger("remote"),
	}
	if closer, ok := conn.(io.Closer); ok {
		r.conn = closer
	}
	return r
}

func (r *RemoteRepository) Get(ctx context.Context, key string) (string, error) {
	resp, err := r.client.Get(ctx, wrapperspb.String(key))
	if err != nil {
		return "", fromStatus(err)
	}
	return resp.GetValue(), nil
}

func (r *RemoteRepository) GetChildrenKeys(ctx context.Context, key string) ([]string, error) {
	resp, err := r.client.GetChildrenKeys(ctx, wrapperspb.String(key))
	if err != nil {
		return nil, fromStatus(err)
	}

	children := make([]string, 0, len(resp.GetValues()))
	for _, v := range resp.GetValues() {
		children = append(children, v.GetStringValue())
	}
	return children, nil
}

func (r *RemoteRepository) Persist(ctx context.Context, key, value string) error {
	_, err := r.client.Persist(ctx, pb.NewKeyValue(key, value))
	return fromStatus(err)
}

func (r *RemoteRepository) PersistIfAbsent(ctx context.Context, key, value string) (bool, error) {
	resp, err := r.client.PersistIfAbsent(ctx, pb.NewKeyValue(key, value))
	if err != nil {
		return false, fromStatus(err)
	}
	return resp.GetValue(), nil
}

func (r *RemoteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.client.Delete(ctx, wrapperspb.String(key))
	return fromStatus(err)
}

func (r *RemoteRepository) Watch(ctx context.Context, prefix string, listener Listener) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	watchCtx, cancel := context.WithCancel(ctx)
	r.cancels = append(r.cancels, cancel)
	r.mu.Unlock()

	stream, err := r.client.Watch(watchCtx, wrapperspb.String(prefix))
	if err != nil {
		cancel()
		return fmt.Errorf("watch %s: %w", prefix, fromStatus(err))
	}
	// The server sends headers once the subscription is registered.
	if _, err := stream.Header(); err != nil {
		cancel()
		return fmt.Errorf("watch %s: %w", prefix, fromStatus(err))
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		r.receive(watchCtx, prefix, stream, listener)
	}()
	return nil
}

func (r *RemoteRepository) receive(ctx context.Context, prefix string, stream pb.Coordinator_WatchClient, listener Listener) {
	for {
		msg, err := stream.Recv()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				r.log.Error("watch stream failed").Str("prefix", prefix).Err(err).Send()
			}
			return
		}

		ev, err := pb.ToEvent(msg)
		if err != nil {
			r.log.Warn("dropping malformed change event").Str("prefix", prefix).Err(err).Send()
			continue
		}
		listener(ev)
	}
}

// Close cancels all watches and closes the connection.
func (r *RemoteRepository) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	cancels := r.cancels
	r.cancels = nil
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	r.wg.Wait()

	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// fromStatus maps gRPC status codes back to repository errors.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrKeyNotFound, status.Convert(err).Message())
	case codes.Unavailable:
		if status.Convert(err).Message() == ErrClosed.Error() {
			return ErrClosed
		}
	}
	return err
}
