package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "isin.v1.BurstDetection"

const (
	detectMethod    = "/" + ServiceName + "/Detect"
	histogramMethod = "/" + ServiceName + "/Histogram"
)

// BurstDetectionServer is the server API of the burst detection service. Messages are
// google.protobuf.Struct documents; see handlers.go for the field layout.
type BurstDetectionServer interface {
	Detect(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Histogram(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterBurstDetectionServer attaches srv to a gRPC registrar.
func RegisterBurstDetectionServer(s grpc.ServiceRegistrar, srv BurstDetectionServer) {
	s.RegisterService(&burstDetectionServiceDesc, srv)
}

var burstDetectionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BurstDetectionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Detect", Handler: detectHandler},
		{MethodName: "Histogram", Handler: histogramHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "isin/v1/burst_detection.proto",
}

func detectHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BurstDetectionServer).Detect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: detectMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BurstDetectionServer).Detect(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func histogramHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BurstDetectionServer).Histogram(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: histogramMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BurstDetectionServer).Histogram(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the burst detection service over an established connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Detect invokes the Detect RPC.
func (c *Client) Detect(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, detectMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Histogram invokes the Histogram RPC.
func (c *Client) Histogram(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, histogramMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
