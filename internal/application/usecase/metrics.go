package usecase

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/scamshield/internal/domain/service"
)

const instrumentationName = "github.com/bibbank/scamshield/internal/application/usecase"

const (
	outcomeOK         = "ok"
	outcomeNotReady   = "not_ready"
	outcomePrediction = "prediction_error"
	outcomeValidation = "validation_error"
	outcomeError      = "error"
)

type classificationMetrics struct {
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

func newClassificationMetrics(meter metric.Meter) (*classificationMetrics, error) {
	total, err := meter.Int64Counter("scamshield_classifications",
		metric.WithDescription("Classifications by strategy, label and outcome."),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("scamshield_classification_duration",
		metric.WithDescription("Time spent scoring one text."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &classificationMetrics{total: total, duration: duration}, nil
}

func (m *classificationMetrics) record(ctx context.Context, strategy, label, outcome string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.String("label", label),
		attribute.String("outcome", outcome),
	)
	m.total.Add(ctx, 1, attrs)
	m.duration.Record(ctx, seconds, attrs)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, service.ErrNotReady):
		return outcomeNotReady
	case errors.Is(err, service.ErrPrediction):
		return outcomePrediction
	case errors.Is(err, service.ErrValidationViolation):
		return outcomeValidation
	default:
		return outcomeError
	}
}
