package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ControlService wire contract. Requests and responses are well-known
// protobuf types.

const ServiceName = "confluence.ControlService"

const (
	getSnapshotMethod     = "/" + ServiceName + "/GetSnapshot"
	getMacroOutlookMethod = "/" + ServiceName + "/GetMacroOutlook"
	getRecentEventsMethod = "/" + ServiceName + "/GetRecentEvents"
)

// ControlServer is implemented by ControlService.
type ControlServer interface {
	GetSnapshot(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	GetMacroOutlook(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	GetRecentEvents(context.Context, *wrapperspb.Int32Value) (*structpb.Struct, error)
}

func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&controlServiceDesc, srv)
}

var controlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSnapshot", Handler: getSnapshotHandler},
		{MethodName: "GetMacroOutlook", Handler: getMacroOutlookHandler},
		{MethodName: "GetRecentEvents", Handler: getRecentEventsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "confluence/control.proto",
}

// -----------------------------------------------------------------------------

func getSnapshotHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).GetSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getSnapshotMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).GetSnapshot(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func getMacroOutlookHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).GetMacroOutlook(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getMacroOutlookMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).GetMacroOutlook(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func getRecentEventsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).GetRecentEvents(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getRecentEventsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControlServer).GetRecentEvents(ctx, req.(*wrapperspb.Int32Value))
	}
	return interceptor(ctx, in, info, handler)
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

type ControlClient struct {
	cc grpc.ClientConnInterface
}

func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

// GetSnapshot asks for the snapshot at unixSeconds; zero means the server's now.
func (c *ControlClient) GetSnapshot(ctx context.Context, unixSeconds int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getSnapshotMethod, wrapperspb.Int64(unixSeconds), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) GetMacroOutlook(ctx context.Context, unixSeconds int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getMacroOutlookMethod, wrapperspb.Int64(unixSeconds), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) GetRecentEvents(ctx context.Context, limit int32, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getRecentEventsMethod, wrapperspb.Int32(limit), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
