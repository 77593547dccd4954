package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "metacoord.v1.Coordinator"

const (
	Coordinator_Get_FullMethodName             = "/metacoord.v1.Coordinator/Get"
	Coordinator_GetChildrenKeys_FullMethodName = "/metacoord.v1.Coordinator/GetChildrenKeys"
	Coordinator_Persist_FullMethodName         = "/metacoord.v1.Coordinator/Persist"
	Coordinator_PersistIfAbsent_FullMethodName = "/metacoord.v1.Coordinator/PersistIfAbsent"
	Coordinator_Delete_FullMethodName          = "/metacoord.v1.Coordinator/Delete"
	Coordinator_Watch_FullMethodName           = "/metacoord.v1.Coordinator/Watch"
)

// CoordinatorClient is the client API for the Coordinator service.
type CoordinatorClient interface {
	Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	GetChildrenKeys(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Persist(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	PersistIfAbsent(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	Delete(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Watch(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (Coordinator_WatchClient, error)
}

type coordinatorClient struct {
	cc grpc.ClientConnInterface
}

func NewCoordinatorClient(cc grpc.ClientConnInterface) CoordinatorClient {
	return &coordinatorClient{cc}
}

func (c *coordinatorClient) Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, Coordinator_Get_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) GetChildrenKeys(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, Coordinator_GetChildrenKeys_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) Persist(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Coordinator_Persist_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) PersistIfAbsent(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, Coordinator_PersistIfAbsent_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) Delete(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Coordinator_Delete_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) Watch(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (Coordinator_WatchClient, error) {
	stream, err := c.cc.NewStream(ctx, &Coordinator_ServiceDesc.Streams[0], Coordinator_Watch_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &coordinatorWatchClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Coordinator_WatchClient receives change events of one watched prefix.
type Coordinator_WatchClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type coordinatorWatchClient struct {
	grpc.ClientStream
}

func (x *coordinatorWatchClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// CoordinatorServer is the server API for the Coordinator service.
type CoordinatorServer interface {
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	GetChildrenKeys(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	Persist(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	PersistIfAbsent(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	Delete(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Watch(*wrapperspb.StringValue, Coordinator_WatchServer) error
}

// UnimplementedCoordinatorServer can be embedded to have forward compatible implementations.
type UnimplementedCoordinatorServer struct{}

func (UnimplementedCoordinatorServer) Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedCoordinatorServer) GetChildrenKeys(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetChildrenKeys not implemented")
}
func (UnimplementedCoordinatorServer) Persist(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Persist not implemented")
}
func (UnimplementedCoordinatorServer) PersistIfAbsent(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PersistIfAbsent not implemented")
}
func (UnimplementedCoordinatorServer) Delete(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Delete not implemented")
}
func (UnimplementedCoordinatorServer) Watch(*wrapperspb.StringValue, Coordinator_WatchServer) error {
	return status.Errorf(codes.Unimplemented, "method Watch not implemented")
}

func RegisterCoordinatorServer(s grpc.ServiceRegistrar, srv CoordinatorServer) {
	s.RegisterService(&Coordinator_ServiceDesc, srv)
}

func _Coordinator_Get_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Coordinator_Get_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoordinatorServer).Get(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Coordinator_GetChildrenKeys_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).GetChildrenKeys(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Coordinator_GetChildrenKeys_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoordinatorServer).GetChildrenKeys(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Coordinator_Persist_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).Persist(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Coordinator_Persist_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoordinatorServer).Persist(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Coordinator_PersistIfAbsent_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).PersistIfAbsent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Coordinator_PersistIfAbsent_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoordinatorServer).PersistIfAbsent(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Coordinator_Delete_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).Delete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Coordinator_Delete_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoordinatorServer).Delete(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Coordinator_Watch_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(CoordinatorServer).Watch(m, &coordinatorWatchServer{stream})
}

// Coordinator_WatchServer sends change events of one watched prefix.
type Coordinator_WatchServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type coordinatorWatchServer struct {
	grpc.ServerStream
}

func (x *coordinatorWatchServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// Coordinator_ServiceDesc is the grpc.ServiceDesc for the Coordinator service.
var Coordinator_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CoordinatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: _Coordinator_Get_Handler},
		{MethodName: "GetChildrenKeys", Handler: _Coordinator_GetChildrenKeys_Handler},
		{MethodName: "Persist", Handler: _Coordinator_Persist_Handler},
		{MethodName: "PersistIfAbsent", Handler: _Coordinator_PersistIfAbsent_Handler},
		{MethodName: "Delete", Handler: _Coordinator_Delete_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       _Coordinator_Watch_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "metacoord/v1/coordinator.proto",
}
