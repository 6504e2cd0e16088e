package programmer

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/roadrunner/internal/domain/chip"
	"github.com/oshokin/roadrunner/internal/logger"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "roadrunner.v1.ChipProgrammer"
	// DispatchMethod is the full method name of Dispatch.
	DispatchMethod = "/" + ServiceName + "/Dispatch"
	// ActorMetadataKey carries "user@host" of the requesting client.
	ActorMetadataKey = "x-actor"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Dispatch(ctx context.Context, req chip.Request) chip.Response
}

// ChipProgrammerServer is the server API of the chip programmer service.
type ChipProgrammerServer interface {
	Dispatch(ctx context.Context, in *structpb.ListValue) (*structpb.ListValue, error)
}

// Server implements ChipProgrammerServer on top of a Service.
type Server struct {
	// service executes decoded requests.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Dispatch decodes the request, runs it and encodes the reply.
// Malformed requests are answered with a failure triple rather than a gRPC error.
func (s *Server) Dispatch(ctx context.Context, in *structpb.ListValue) (*structpb.ListValue, error) {
	if actor := actorFromContext(ctx); actor != "" {
		ctx = logger.WithKV(ctx, "actor", actor)
	}

	var resp chip.Response

	req, err := DecodeRequest(in)
	if err != nil {
		resp = chip.Failed(err)
	} else {
		resp = s.service.Dispatch(ctx, req)
	}

	out, err := EncodeResponse(resp)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to encode response", "error", err)

		return EncodeResponse(chip.Failed(fmt.Errorf("encode response: %w", err)))
	}

	return out, nil
}

// actorFromContext returns the requesting actor sent by the client, if any.
func actorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	return strings.Join(md.Get(ActorMetadataKey), ",")
}

// ServiceDesc describes the chip programmer service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by gRPC convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChipProgrammerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Dispatch",
			Handler:    dispatchHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "roadrunner/v1/chip_programmer.proto",
}

// RegisterChipProgrammerServer registers srv with the gRPC server.
func RegisterChipProgrammerServer(registrar grpc.ServiceRegistrar, srv ChipProgrammerServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

func dispatchHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.ListValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	server, _ := srv.(ChipProgrammerServer)

	if interceptor == nil {
		return server.Dispatch(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: DispatchMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		listValue, _ := req.(*structpb.ListValue)

		return server.Dispatch(ctx, listValue)
	}

	return interceptor(ctx, in, info, handler)
}

// Client is the client API of the chip programmer service.
type Client struct {
	// cc is the underlying connection.
	cc grpc.ClientConnInterface
}

// NewClient returns a client using cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dispatch sends one request and returns the reply.
func (c *Client) Dispatch(ctx context.Context, in *structpb.ListValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, DispatchMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
