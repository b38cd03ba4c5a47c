package simserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "frontsim.v1.SimulationService"

const (
	methodCreateGame    = "/" + ServiceName + "/CreateGame"
	methodSubmitTurn    = "/" + ServiceName + "/SubmitTurn"
	methodQuery         = "/" + ServiceName + "/Query"
	methodReportHash    = "/" + ServiceName + "/ReportHash"
	methodStreamUpdates = "/" + ServiceName + "/StreamUpdates"
)

// SimulationServer is the server API of the simulation service. Payloads
// are msgpack documents carried in BytesValue envelopes.
type SimulationServer interface {
	CreateGame(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	SubmitTurn(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Query(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	ReportHash(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	StreamUpdates(*wrapperspb.BytesValue, UpdatesServerStream) error
}

// UpdatesServerStream is the server side of StreamUpdates.
type UpdatesServerStream interface {
	Send(*wrapperspb.BytesValue) error
	grpc.ServerStream
}

type updatesServerStream struct {
	grpc.ServerStream
}

func (x *updatesServerStream) Send(m *wrapperspb.BytesValue) error {
	return x.ServerStream.SendMsg(m)
}

type unaryMethod func(SimulationServer, context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.BytesValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SimulationServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(SimulationServer), ctx, req.(*wrapperspb.BytesValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func streamUpdatesHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(wrapperspb.BytesValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SimulationServer).StreamUpdates(in, &updatesServerStream{stream})
}

// ServiceDesc describes the simulation service for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulationServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateGame",
			Handler:    unaryHandler(methodCreateGame, SimulationServer.CreateGame),
		},
		{
			MethodName: "SubmitTurn",
			Handler:    unaryHandler(methodSubmitTurn, SimulationServer.SubmitTurn),
		},
		{
			MethodName: "Query",
			Handler:    unaryHandler(methodQuery, SimulationServer.Query),
		},
		{
			MethodName: "ReportHash",
			Handler:    unaryHandler(methodReportHash, SimulationServer.ReportHash),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamUpdates",
			Handler:       streamUpdatesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "frontsim/v1/simulation.proto",
}

// RegisterSimulationServer registers srv with s.
func RegisterSimulationServer(s grpc.ServiceRegistrar, srv SimulationServer) {
	s.RegisterService(&ServiceDesc, srv)
}
