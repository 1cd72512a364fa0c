package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the transfer session service
const ServiceName = "wealthflow.transfer.v1.TransferSessionService"

// TransferSessionServer is the server API for the transfer session service.
// Messages are google.protobuf.Struct values so the service needs no generated code.
type TransferSessionServer interface {
	ListAccounts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	OpenSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReopenSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Dispatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CommitSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(TransferSessionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// methods lists every RPC of the service by name
var methods = map[string]unaryMethod{
	"ListAccounts":  TransferSessionServer.ListAccounts,
	"OpenSession":   TransferSessionServer.OpenSession,
	"ReopenSession": TransferSessionServer.ReopenSession,
	"Dispatch":      TransferSessionServer.Dispatch,
	"GetSession":    TransferSessionServer.GetSession,
	"CommitSession": TransferSessionServer.CommitSession,
	"CloseSession":  TransferSessionServer.CloseSession,
}

// RegisterTransferSessionServer registers srv on s
func RegisterTransferSessionServer(s grpc.ServiceRegistrar, srv TransferSessionServer) {
	desc := grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*TransferSessionServer)(nil),
		Metadata:    "wealthflow/transfer/v1/transfer.proto",
	}
	for name, method := range methods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: name,
			Handler:    unaryHandler(name, method),
		})
	}
	s.RegisterService(&desc, srv)
}

func unaryHandler(name string, method unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := "/" + ServiceName + "/" + name

	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(TransferSessionServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return method(srv.(TransferSessionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls the transfer session service over a client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a Client on cc
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes the named RPC with fields as the request body
func (c *Client) Call(ctx context.Context, method string, fields map[string]interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
