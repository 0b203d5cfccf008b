// Package grpcregistry exposes a registry.Registry over gRPC.
//
// The service is defined by hand over protobuf well-known wrapper types so
// the module does not require a protoc/codegen toolchain. Structured
// requests are canonical JSON carried in a BytesValue; see wire.go.
package grpcregistry

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "xdao.feereg.registry.v1.Registry"

// RegistryServer is the server API for the Registry gRPC service.
//
// Proto definition: registry.proto.
type RegistryServer interface {
	Register(context.Context, *wrapperspb.BytesValue) (*wrapperspb.UInt64Value, error)
	Assign(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error)
	DeclareCapabilities(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error)
	Capabilities(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	SetSigner(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error)
	RemoveSigner(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error)
	IsSigner(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error)
	Authorize(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error)
	TokenID(context.Context, *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error)
	IsRegistered(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	Balance(context.Context, *wrapperspb.UInt64Value) (*wrapperspb.UInt64Value, error)
	Counter(context.Context, *emptypb.Empty) (*wrapperspb.UInt64Value, error)
}

// UnimplementedRegistryServer can be embedded to have forward compatible implementations.
type UnimplementedRegistryServer struct{}

func (UnimplementedRegistryServer) Register(context.Context, *wrapperspb.BytesValue) (*wrapperspb.UInt64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedRegistryServer) Assign(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Assign not implemented")
}
func (UnimplementedRegistryServer) DeclareCapabilities(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method DeclareCapabilities not implemented")
}
func (UnimplementedRegistryServer) Capabilities(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Capabilities not implemented")
}
func (UnimplementedRegistryServer) SetSigner(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method SetSigner not implemented")
}
func (UnimplementedRegistryServer) RemoveSigner(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveSigner not implemented")
}
func (UnimplementedRegistryServer) IsSigner(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method IsSigner not implemented")
}
func (UnimplementedRegistryServer) Authorize(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Authorize not implemented")
}
func (UnimplementedRegistryServer) TokenID(context.Context, *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method TokenID not implemented")
}
func (UnimplementedRegistryServer) IsRegistered(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method IsRegistered not implemented")
}
func (UnimplementedRegistryServer) Balance(context.Context, *wrapperspb.UInt64Value) (*wrapperspb.UInt64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method Balance not implemented")
}
func (UnimplementedRegistryServer) Counter(context.Context, *emptypb.Empty) (*wrapperspb.UInt64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method Counter not implemented")
}

// RegisterRegistryServer registers the Registry service on a gRPC server.
func RegisterRegistryServer(s grpc.ServiceRegistrar, srv RegistryServer) {
	s.RegisterService(&Registry_ServiceDesc, srv)
}

// RegistryClient is the client API for the Registry gRPC service.
type RegistryClient interface {
	Register(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
	Assign(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	DeclareCapabilities(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	Capabilities(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	SetSigner(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	RemoveSigner(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	IsSigner(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	Authorize(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	TokenID(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
	IsRegistered(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	Balance(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
	Counter(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
}

type registryClient struct{ cc grpc.ClientConnInterface }

func NewRegistryClient(cc grpc.ClientConnInterface) RegistryClient { return &registryClient{cc: cc} }

func (c *registryClient) Register(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Register", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) Assign(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Assign", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) DeclareCapabilities(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/DeclareCapabilities", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) Capabilities(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Capabilities", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) SetSigner(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/SetSigner", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) RemoveSigner(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/RemoveSigner", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) IsSigner(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/IsSigner", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) Authorize(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Authorize", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) TokenID(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/TokenID", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) IsRegistered(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/IsRegistered", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) Balance(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Balance", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) Counter(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Counter", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func bytesHandler(method string, call func(context.Context, RegistryServer, *wrapperspb.BytesValue) (interface{}, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.BytesValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, srv.(RegistryServer), in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, srv.(RegistryServer), req.(*wrapperspb.BytesValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func stringHandler(method string, call func(context.Context, RegistryServer, *wrapperspb.StringValue) (interface{}, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, srv.(RegistryServer), in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, srv.(RegistryServer), req.(*wrapperspb.StringValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func _Registry_Balance_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegistryServer).Balance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Balance"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegistryServer).Balance(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func _Registry_Counter_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RegistryServer).Counter(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Counter"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RegistryServer).Counter(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Registry_ServiceDesc is the grpc.ServiceDesc for the Registry service.
var Registry_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RegistryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: bytesHandler("Register", func(ctx context.Context, s RegistryServer, in *wrapperspb.BytesValue) (interface{}, error) {
			return s.Register(ctx, in)
		})},
		{MethodName: "Assign", Handler: bytesHandler("Assign", func(ctx context.Context, s RegistryServer, in *wrapperspb.BytesValue) (interface{}, error) {
			return s.Assign(ctx, in)
		})},
		{MethodName: "DeclareCapabilities", Handler: bytesHandler("DeclareCapabilities", func(ctx context.Context, s RegistryServer, in *wrapperspb.BytesValue) (interface{}, error) {
			return s.DeclareCapabilities(ctx, in)
		})},
		{MethodName: "Capabilities", Handler: stringHandler("Capabilities", func(ctx context.Context, s RegistryServer, in *wrapperspb.StringValue) (interface{}, error) {
			return s.Capabilities(ctx, in)
		})},
		{MethodName: "SetSigner", Handler: bytesHandler("SetSigner", func(ctx context.Context, s RegistryServer, in *wrapperspb.BytesValue) (interface{}, error) {
			return s.SetSigner(ctx, in)
		})},
		{MethodName: "RemoveSigner", Handler: bytesHandler("RemoveSigner", func(ctx context.Context, s RegistryServer, in *wrapperspb.BytesValue) (interface{}, error) {
			return s.RemoveSigner(ctx, in)
		})},
		{MethodName: "IsSigner", Handler: bytesHandler("IsSigner", func(ctx context.Context, s RegistryServer, in *wrapperspb.BytesValue) (interface{}, error) {
			return s.IsSigner(ctx, in)
		})},
		{MethodName: "Authorize", Handler: bytesHandler("Authorize", func(ctx context.Context, s RegistryServer, in *wrapperspb.BytesValue) (interface{}, error) {
			return s.Authorize(ctx, in)
		})},
		{MethodName: "TokenID", Handler: stringHandler("TokenID", func(ctx context.Context, s RegistryServer, in *wrapperspb.StringValue) (interface{}, error) {
			return s.TokenID(ctx, in)
		})},
		{MethodName: "IsRegistered", Handler: stringHandler("IsRegistered", func(ctx context.Context, s RegistryServer, in *wrapperspb.StringValue) (interface{}, error) {
			return s.IsRegistered(ctx, in)
		})},
		{MethodName: "Balance", Handler: _Registry_Balance_Handler},
		{MethodName: "Counter", Handler: _Registry_Counter_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "registry.proto",
}
