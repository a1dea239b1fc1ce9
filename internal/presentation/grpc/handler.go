package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/scamshield/internal/application/dto"
	"github.com/bibbank/scamshield/internal/application/usecase"
	"github.com/bibbank/scamshield/internal/domain/service"
)

// Compile-time assertion that ScamShieldServiceHandler implements ScamShieldServiceServer.
var _ ScamShieldServiceServer = (*ScamShieldServiceHandler)(nil)

// ScamShieldServiceHandler implements the gRPC ScamShieldServiceServer interface.
type ScamShieldServiceHandler struct {
	UnimplementedScamShieldServiceServer
	classifyText    *usecase.ClassifyText
	getScorerStatus *usecase.GetScorerStatus
	logger          *slog.Logger
}

// NewScamShieldServiceHandler creates a new gRPC handler.
func NewScamShieldServiceHandler(
	classifyText *usecase.ClassifyText,
	getScorerStatus *usecase.GetScorerStatus,
	logger *slog.Logger,
) *ScamShieldServiceHandler {
	return &ScamShieldServiceHandler{
		classifyText:    classifyText,
		getScorerStatus: getScorerStatus,
		logger:          logger,
	}
}

// ClassifyText handles a text classification request.
func (h *ScamShieldServiceHandler) ClassifyText(ctx context.Context, req *ClassifyTextRequest) (*ClassifyTextResponse, error) {
	if req == nil || req.Text == nil {
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}

	result, err := h.classifyText.Execute(ctx, dto.ClassifyTextRequest{
		Text:    *req.Text,
		Channel: req.Channel,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return &ClassifyTextResponse{
		MessageID:     result.MessageID.String(),
		Probabilities: result.Probabilities,
		Label:         result.Label,
		RiskScore:     result.RiskScore,
		Strategy:      result.Strategy,
		Channel:       result.Channel,
		Signals:       result.Signals,
		Flagged:       result.Flagged,
		ClassifiedAt:  result.ClassifiedAt.Format(time.RFC3339Nano),
	}, nil
}

// GetScorerStatus reports the active strategy and its readiness.
func (h *ScamShieldServiceHandler) GetScorerStatus(ctx context.Context, _ *GetScorerStatusRequest) (*GetScorerStatusResponse, error) {
	st := h.getScorerStatus.Execute(ctx)
	return &GetScorerStatusResponse{
		Strategy:    st.Strategy,
		Ready:       st.Ready,
		ModelLoaded: st.ModelLoaded,
	}, nil
}

// toStatus maps engine error kinds onto gRPC codes. A deadline is checked before the
// generic prediction failure it is wrapped in.
func toStatus(err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNotReady):
		return status.Error(codes.Unavailable, "scorer not ready")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "classification timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "classification canceled")
	case errors.Is(err, service.ErrPrediction):
		return status.Error(codes.Internal, "prediction failed")
	case errors.Is(err, service.ErrValidationViolation):
		return status.Error(codes.Internal, "invalid classification result")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
