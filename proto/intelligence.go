package proto

import (
	"context"

	"google.golang.org/grpc"
)

// InterpretRequest carries one utterance to interpret.
type InterpretRequest struct {
	UserText  string
	SessionID string
}

// InterpretResponse carries the resolved intent and its arguments.
type InterpretResponse struct {
	Intent             string
	StructuredDataJson string
}

// IntelligenceServiceClient is the client interface for the intelligence service
type IntelligenceServiceClient interface {
	InterpretText(ctx context.Context, in *InterpretRequest, opts ...grpc.CallOption) (*InterpretResponse, error)
}

// intelligenceServiceClient implements IntelligenceServiceClient
type intelligenceServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewIntelligenceServiceClient creates a new IntelligenceServiceClient
func NewIntelligenceServiceClient(cc grpc.ClientConnInterface) IntelligenceServiceClient {
	return &intelligenceServiceClient{cc}
}

func (c *intelligenceServiceClient) InterpretText(ctx context.Context, in *InterpretRequest, opts ...grpc.CallOption) (*InterpretResponse, error) {
	out := new(InterpretResponse)
	err := c.cc.Invoke(ctx, "/intentgate.IntelligenceService/InterpretText", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IntelligenceServiceServer is the server interface for the intelligence service
type IntelligenceServiceServer interface {
	InterpretText(context.Context, *InterpretRequest) (*InterpretResponse, error)
}

// UnimplementedIntelligenceServiceServer provides default implementations
type UnimplementedIntelligenceServiceServer struct{}

func (UnimplementedIntelligenceServiceServer) InterpretText(context.Context, *InterpretRequest) (*InterpretResponse, error) {
	return nil, nil
}

// _IntelligenceService_InterpretText_Handler is the handler for the InterpretText RPC method
func _IntelligenceService_InterpretText_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InterpretRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IntelligenceServiceServer).InterpretText(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/intentgate.IntelligenceService/InterpretText",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IntelligenceServiceServer).InterpretText(ctx, req.(*InterpretRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterIntelligenceServiceServer registers the intelligence service with gRPC
func RegisterIntelligenceServiceServer(s grpc.ServiceRegistrar, srv IntelligenceServiceServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "intentgate.IntelligenceService",
		HandlerType: (*IntelligenceServiceServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "InterpretText",
				Handler:    _IntelligenceService_InterpretText_Handler,
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "intelligence.proto",
	}, srv)
}
