package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "ridehail.v1.RideService"

// RideServiceServer is the server API for ridehail.v1.RideService. Requests
// and responses are google.protobuf.Struct documents.
type RideServiceServer interface {
	RequestTrip(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AcceptTrip(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyDriverStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyClientStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MarkPaid(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTrip(context.Context, *structpb.Struct) (*structpb.Struct, error)

	GetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TransferSavings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSavingsStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetReferralEarningsSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)

	RequestWithdrawal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListWithdrawals(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApproveWithdrawal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RejectWithdrawal(context.Context, *structpb.Struct) (*structpb.Struct, error)

	PreviewSettlement(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type rideCall func(RideServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call rideCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RideServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(RideServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var RideServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RideServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("RequestTrip", RideServiceServer.RequestTrip),
		unary("AcceptTrip", RideServiceServer.AcceptTrip),
		unary("ApplyDriverStatus", RideServiceServer.ApplyDriverStatus),
		unary("ApplyClientStatus", RideServiceServer.ApplyClientStatus),
		unary("MarkPaid", RideServiceServer.MarkPaid),
		unary("GetTrip", RideServiceServer.GetTrip),
		unary("GetBalance", RideServiceServer.GetBalance),
		unary("GetTransactions", RideServiceServer.GetTransactions),
		unary("TransferSavings", RideServiceServer.TransferSavings),
		unary("GetSavingsStatus", RideServiceServer.GetSavingsStatus),
		unary("GetReferralEarningsSummary", RideServiceServer.GetReferralEarningsSummary),
		unary("RequestWithdrawal", RideServiceServer.RequestWithdrawal),
		unary("ListWithdrawals", RideServiceServer.ListWithdrawals),
		unary("ApproveWithdrawal", RideServiceServer.ApproveWithdrawal),
		unary("RejectWithdrawal", RideServiceServer.RejectWithdrawal),
		unary("PreviewSettlement", RideServiceServer.PreviewSettlement),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ridehail/v1/ride.proto",
}

func RegisterRideServiceServer(s grpc.ServiceRegistrar, srv RideServiceServer) {
	s.RegisterService(&RideServiceDesc, srv)
}
