package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the fund analytics service
const ServiceName = "navflow.v1.FundAnalyticsService"

// Full method names, as seen by interceptors in grpc.UnaryServerInfo.FullMethod
const (
	SearchFundsMethod  = "/" + ServiceName + "/SearchFunds"
	CompareFundsMethod = "/" + ServiceName + "/CompareFunds"
)

// FundAnalyticsServer is the server API of the fund analytics service.
// Requests and responses are google.protobuf.Struct documents.
type FundAnalyticsServer interface {
	SearchFunds(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CompareFunds(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// FundAnalyticsServiceDesc describes the service for grpc.Server.RegisterService
var FundAnalyticsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FundAnalyticsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SearchFunds", Handler: searchFundsHandler},
		{MethodName: "CompareFunds", Handler: compareFundsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "navflow/v1/fund_analytics.proto",
}

// RegisterFundAnalyticsServer registers srv on s
func RegisterFundAnalyticsServer(s grpc.ServiceRegistrar, srv FundAnalyticsServer) {
	s.RegisterService(&FundAnalyticsServiceDesc, srv)
}

func searchFundsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FundAnalyticsServer).SearchFunds(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SearchFundsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FundAnalyticsServer).SearchFunds(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func compareFundsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FundAnalyticsServer).CompareFunds(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CompareFundsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FundAnalyticsServer).CompareFunds(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// FundAnalyticsClient calls the fund analytics service over a client connection
type FundAnalyticsClient struct {
	cc grpc.ClientConnInterface
}

// NewFundAnalyticsClient creates a client on cc
func NewFundAnalyticsClient(cc grpc.ClientConnInterface) *FundAnalyticsClient {
	return &FundAnalyticsClient{cc: cc}
}

// SearchFunds calls SearchFunds
func (c *FundAnalyticsClient) SearchFunds(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SearchFundsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CompareFunds calls CompareFunds
func (c *FundAnalyticsClient) CompareFunds(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CompareFundsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
