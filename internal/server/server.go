// Package server implements the Coordinator gRPC service on top of a coordination store
package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nainya/metacoord/internal/logger"
	"github.com/nainya/metacoord/internal/metrics"
	"github.com/nainya/metacoord/pkg/event"
	"github.com/nainya/metacoord/pkg/repository"
	pb "github.com/nainya/metacoord/proto"
)

// watchBuffer bounds the events queued per watch stream before backpressure
// reaches the store's watcher.
const watchBuffer = 256

// Server implements the CoordinatorServer interface
type Server struct {
	pb.UnimplementedCoordinatorServer

	repo    repository.ClusterRepository
	log     *logger.Logger
	metrics *metrics.Metrics

	startTime time.Time
}

// NewServer creates a new gRPC server instance serving repo
func NewServer(repo repository.ClusterRepository, log *logger.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		repo:      repo,
		log:       log,
		metrics:   m,
		startTime: time.Now(),
	}
}

// Register attaches the service to a gRPC server
func (s *Server) Register(registrar grpc.ServiceRegistrar) {
	pb.RegisterCoordinatorServer(registrar, s)
}

// Uptime returns how long the server has been running
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Close closes the underlying store
func (s *Server) Close() error {
	return s.repo.Close()
}

func (s *Server) Get(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if err := validateKey(req.GetValue()); err != nil {
		return nil, err
	}

	value, err := s.repo.Get(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err, req.GetValue())
	}
	return wrapperspb.String(value), nil
}

func (s *Server) GetChildrenKeys(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	if err := validateKey(req.GetValue()); err != nil {
		return nil, err
	}

	children, err := s.repo.GetChildrenKeys(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err, req.GetValue())
	}

	values := make([]*structpb.Value, len(children))
	for i, child := range children {
		values[i] = structpb.NewStringValue(child)
	}
	return &structpb.ListValue{Values: values}, nil
}

func (s *Server) Persist(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	key, value := pb.KeyValue(req)
	if err := validateKey(key); err != nil {
		return nil, err
	}

	if err := s.repo.Persist(ctx, key, value); err != nil {
		return nil, toStatus(err, key)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) PersistIfAbsent(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	key, value := pb.KeyValue(req)
	if err := validateKey(key); err != nil {
		return nil, err
	}

	created, err := s.repo.PersistIfAbsent(ctx, key, value)
	if err != nil {
		return nil, toStatus(err, key)
	}
	return wrapperspb.Bool(created), nil
}

func (s *Server) Delete(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := validateKey(req.GetValue()); err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, req.GetValue()); err != nil {
		return nil, toStatus(err, req.GetValue())
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Watch(req *wrapperspb.StringValue, stream pb.Coordinator_WatchServer) error {
	prefix := req.GetValue()
	if err := validateKey(prefix); err != nil {
		return err
	}

	ctx := stream.Context()
	events := make(chan event.DataChangedEvent, watchBuffer)
	listener := func(ev event.DataChangedEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}
	if err := s.repo.Watch(ctx, prefix, listener); err != nil {
		return toStatus(err, prefix)
	}
	if err := stream.SendHeader(metadata.Pairs("x-watch-prefix", prefix)); err != nil {
		return err
	}

	log := s.log.GrpcLogger(pb.Coordinator_Watch_FullMethodName)
	log.Debug("watch opened").Str("prefix", prefix).Send()
	defer log.Debug("watch closed").Str("prefix", prefix).Send()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if err := stream.Send(pb.FromEvent(ev)); err != nil {
				return err
			}
		}
	}
}

func validateKey(key string) error {
	if !strings.HasPrefix(key, "/") {
		return status.Errorf(codes.InvalidArgument, "key %q must start with '/'", key)
	}
	return nil
}

func toStatus(err error, key string) error {
	switch {
	case errors.Is(err, repository.ErrKeyNotFound):
		return status.Errorf(codes.NotFound, "key not found: %s", key)
	case errors.Is(err, repository.ErrClosed):
		return status.Error(codes.Unavailable, repository.ErrClosed.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Errorf(codes.Internal, "%s: %v", key, err)
	}
}
