package grpc

// service.go declares the StrokeRiskService server interface and its service
// descriptor by hand. Messages travel through JSONCodec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Fully-qualified names of the service and its methods.
const (
	ServiceName         = "strokerisk.v1.StrokeRiskService"
	AssessRiskMethod    = "/" + ServiceName + "/AssessRisk"
	GetAssessmentMethod = "/" + ServiceName + "/GetAssessment"
)

// StrokeRiskServiceServer is the server API for StrokeRiskService.
type StrokeRiskServiceServer interface {
	AssessRisk(context.Context, *AssessRiskRequest) (*AssessRiskResponse, error)
	GetAssessment(context.Context, *GetAssessmentRequest) (*GetAssessmentResponse, error)
	mustEmbedUnimplementedStrokeRiskServiceServer()
}

// UnimplementedStrokeRiskServiceServer provides forward-compatible default implementations.
type UnimplementedStrokeRiskServiceServer struct{}

func (UnimplementedStrokeRiskServiceServer) AssessRisk(context.Context, *AssessRiskRequest) (*AssessRiskResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AssessRisk not implemented")
}
func (UnimplementedStrokeRiskServiceServer) GetAssessment(context.Context, *GetAssessmentRequest) (*GetAssessmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetAssessment not implemented")
}
func (UnimplementedStrokeRiskServiceServer) mustEmbedUnimplementedStrokeRiskServiceServer() {}

// RegisterStrokeRiskServiceServer registers srv with s.
func RegisterStrokeRiskServiceServer(s grpclib.ServiceRegistrar, srv StrokeRiskServiceServer) {
	s.RegisterService(&strokeRiskServiceDesc, srv)
}

var strokeRiskServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StrokeRiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "AssessRisk", Handler: assessRiskHandler},
		{MethodName: "GetAssessment", Handler: getAssessmentHandler},
	},
	Streams: []grpclib.StreamDesc{},
}

func assessRiskHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(AssessRiskRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StrokeRiskServiceServer).AssessRisk(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: AssessRiskMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StrokeRiskServiceServer).AssessRisk(ctx, req.(*AssessRiskRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func getAssessmentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(GetAssessmentRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StrokeRiskServiceServer).GetAssessment(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: GetAssessmentMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StrokeRiskServiceServer).GetAssessment(ctx, req.(*GetAssessmentRequest))
	}
	return interceptor(ctx, req, info, handler)
}
