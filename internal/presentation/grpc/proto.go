package grpc

// proto.go defines the gRPC server interface for scamshield.v1.ScamShieldService.
// Messages are plain structs carried by the JSON codec registered in codec.go.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "scamshield.v1.ScamShieldService"

	classifyTextMethod    = "/" + ServiceName + "/ClassifyText"
	getScorerStatusMethod = "/" + ServiceName + "/GetScorerStatus"
)

// ClassifyTextRequest represents the ClassifyTextRequest message. Text is a pointer so
// a missing field can be told apart from an empty message.
type ClassifyTextRequest struct {
	Text    *string `json:"text"`
	Channel string  `json:"channel,omitempty"`
}

// ClassifyTextResponse represents the ClassifyTextResponse message.
type ClassifyTextResponse struct {
	Probabilities map[string]float64 `json:"probabilities"`
	MessageID     string             `json:"message_id"`
	Label         string             `json:"label"`
	Strategy      string             `json:"strategy"`
	Channel       string             `json:"channel"`
	ClassifiedAt  string             `json:"classified_at"`
	Signals       []string           `json:"signals,omitempty"`
	RiskScore     float64            `json:"risk_score"`
	Flagged       bool               `json:"flagged"`
}

// GetScorerStatusRequest represents the GetScorerStatusRequest message.
type GetScorerStatusRequest struct{}

// GetScorerStatusResponse represents the GetScorerStatusResponse message.
type GetScorerStatusResponse struct {
	Strategy    string `json:"strategy"`
	Ready       bool   `json:"ready"`
	ModelLoaded bool   `json:"model_loaded"`
}

// ScamShieldServiceServer is the server API for ScamShieldService.
type ScamShieldServiceServer interface {
	ClassifyText(context.Context, *ClassifyTextRequest) (*ClassifyTextResponse, error)
	GetScorerStatus(context.Context, *GetScorerStatusRequest) (*GetScorerStatusResponse, error)
	mustEmbedUnimplementedScamShieldServiceServer()
}

// UnimplementedScamShieldServiceServer provides forward-compatible default implementations.
type UnimplementedScamShieldServiceServer struct{}

func (UnimplementedScamShieldServiceServer) ClassifyText(context.Context, *ClassifyTextRequest) (*ClassifyTextResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ClassifyText not implemented")
}
func (UnimplementedScamShieldServiceServer) GetScorerStatus(context.Context, *GetScorerStatusRequest) (*GetScorerStatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetScorerStatus not implemented")
}
func (UnimplementedScamShieldServiceServer) mustEmbedUnimplementedScamShieldServiceServer() {}

// RegisterScamShieldServiceServer registers the ScamShieldServiceServer with the gRPC server.
func RegisterScamShieldServiceServer(s grpclib.ServiceRegistrar, srv ScamShieldServiceServer) {
	s.RegisterService(&_ScamShieldService_serviceDesc, srv)
}

var _ScamShieldService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScamShieldServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "ClassifyText", Handler: _ScamShieldService_ClassifyText_Handler},
		{MethodName: "GetScorerStatus", Handler: _ScamShieldService_GetScorerStatus_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

func _ScamShieldService_ClassifyText_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(ClassifyTextRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScamShieldServiceServer).ClassifyText(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: classifyTextMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ScamShieldServiceServer).ClassifyText(ctx, req.(*ClassifyTextRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _ScamShieldService_GetScorerStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetScorerStatusRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScamShieldServiceServer).GetScorerStatus(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: getScorerStatusMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ScamShieldServiceServer).GetScorerStatus(ctx, req.(*GetScorerStatusRequest))
	}
	return interceptor(ctx, req, info, handler)
}
