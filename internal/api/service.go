package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// BugDetailsServiceName is the fully qualified gRPC service name.
const BugDetailsServiceName = "failureinsights.v1.BugDetails"

const (
	analyzeMethod    = "/" + BugDetailsServiceName + "/Analyze"
	filterRowsMethod = "/" + BugDetailsServiceName + "/FilterRows"
)

// BugDetailsServer is the server API of the BugDetails service. Payloads are
// google.protobuf.Struct documents shaped like the JSON of the domain types.
type BugDetailsServer interface {
	Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	FilterRows(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// BugDetailsServiceDesc describes the BugDetails service for grpc.Server.RegisterService.
var BugDetailsServiceDesc = grpc.ServiceDesc{
	ServiceName: BugDetailsServiceName,
	HandlerType: (*BugDetailsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: analyzeHandler},
		{MethodName: "FilterRows", Handler: filterRowsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "failureinsights/v1/bug_details.proto",
}

// RegisterBugDetailsServer registers srv on s.
func RegisterBugDetailsServer(s grpc.ServiceRegistrar, srv BugDetailsServer) {
	s.RegisterService(&BugDetailsServiceDesc, srv)
}

func analyzeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BugDetailsServer).Analyze(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: analyzeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BugDetailsServer).Analyze(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func filterRowsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BugDetailsServer).FilterRows(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: filterRowsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BugDetailsServer).FilterRows(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// BugDetailsClient calls the BugDetails service.
type BugDetailsClient struct {
	cc grpc.ClientConnInterface
}

// NewBugDetailsClient wraps an established connection.
func NewBugDetailsClient(cc grpc.ClientConnInterface) *BugDetailsClient {
	return &BugDetailsClient{cc: cc}
}

// Analyze invokes BugDetails/Analyze.
func (c *BugDetailsClient) Analyze(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, analyzeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// FilterRows invokes BugDetails/FilterRows.
func (c *BugDetailsClient) FilterRows(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, filterRowsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
