package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/scamshield/internal/application/dto"
	"github.com/bibbank/scamshield/internal/domain/event"
	"github.com/bibbank/scamshield/internal/domain/model"
	"github.com/bibbank/scamshield/internal/domain/port"
	"github.com/bibbank/scamshield/internal/domain/service"
	"github.com/bibbank/scamshield/internal/domain/valueobject"
)

// ClassifyTextConfig tunes the ClassifyText use case. Nil Meter and Tracer fall back to
// the global OpenTelemetry providers.
type ClassifyTextConfig struct {
	Meter         metric.Meter
	Tracer        trace.Tracer
	Now           func() time.Time
	Timeout       time.Duration
	FlagThreshold float64
}

// ClassifyText is the use case for scoring one message and announcing the outcome.
type ClassifyText struct {
	classifier *service.Classifier
	publisher  port.EventPublisher
	logger     *slog.Logger
	metrics    *classificationMetrics
	tracer     trace.Tracer
	now        func() time.Time
	timeout    time.Duration
	threshold  float64
}

// NewClassifyText creates a new ClassifyText use case.
func NewClassifyText(
	classifier *service.Classifier,
	publisher port.EventPublisher,
	logger *slog.Logger,
	cfg ClassifyTextConfig,
) (*ClassifyText, error) {
	meter := cfg.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	m, err := newClassificationMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification metrics: %w", err)
	}

	return &ClassifyText{
		classifier: classifier,
		publisher:  publisher,
		logger:     logger,
		metrics:    m,
		tracer:     tracer,
		now:        now,
		timeout:    cfg.Timeout,
		threshold:  cfg.FlagThreshold,
	}, nil
}

// Execute scores the text, publishes the resulting events and returns the response.
// Errors carry the engine's kinds; an exceeded deadline is reported as a prediction failure.
func (uc *ClassifyText) Execute(ctx context.Context, req dto.ClassifyTextRequest) (dto.ClassificationResponse, error) {
	// 1. Resolve the channel; any text, even invalid UTF-8, is scored.
	channel, err := valueobject.ChannelFromString(req.Channel)
	if err != nil {
		return dto.ClassificationResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	strategy := uc.classifier.Strategy()
	ctx, span := uc.tracer.Start(ctx, "ClassifyText", trace.WithAttributes(
		attribute.String("scamshield.strategy", strategy),
		attribute.String("scamshield.channel", channel.String()),
		attribute.Int("scamshield.text_length", len(req.Text)),
	))
	defer span.End()

	// 2. Score under the configured deadline.
	scoreCtx := ctx
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		scoreCtx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	start := uc.now()
	result, err := uc.classifier.Classify(scoreCtx, model.ScoringRequest{Text: req.Text})
	elapsed := uc.now().Sub(start)

	if err == nil && scoreCtx.Err() != nil {
		err = scoreCtx.Err()
	}
	if err != nil {
		if isContextErr(err) && !errors.Is(err, service.ErrPrediction) {
			err = fmt.Errorf("%w: %w", service.ErrPrediction, err)
		}
		uc.metrics.record(ctx, strategy, "", outcomeOf(err), elapsed.Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, outcomeOf(err))
		uc.logger.WarnContext(ctx, "classification failed",
			slog.String("strategy", strategy),
			slog.String("channel", channel.String()),
			slog.Int("text_length", len(req.Text)),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
		return dto.ClassificationResponse{}, fmt.Errorf("failed to classify text: %w", err)
	}

	label := result.PredictedLabel().String()
	uc.metrics.record(ctx, strategy, label, outcomeOK, elapsed.Seconds())
	span.SetAttributes(
		attribute.String("scamshield.label", label),
		attribute.Float64("scamshield.risk_score", result.RiskScore()),
	)

	// 3. Publish domain events. The classification stands even if publishing fails.
	id := uuid.New()
	at := uc.now().UTC()
	flagged := result.RiskScore() >= uc.threshold
	if err := uc.publisher.Publish(ctx, uc.events(id, channel, req.Text, result, flagged, at)...); err != nil {
		uc.logger.ErrorContext(ctx, "failed to publish classification events",
			slog.String("message_id", id.String()),
			slog.String("error", err.Error()),
		)
	}

	uc.logger.InfoContext(ctx, "text classified",
		slog.String("message_id", id.String()),
		slog.String("strategy", strategy),
		slog.String("channel", channel.String()),
		slog.String("label", label),
		slog.Float64("risk_score", result.RiskScore()),
		slog.Bool("flagged", flagged),
		slog.Int("text_length", len(req.Text)),
		slog.Duration("duration", elapsed),
	)

	return dto.FromResult(id, channel.String(), result, flagged, at), nil
}

func (uc *ClassifyText) events(
	id uuid.UUID,
	channel valueobject.Channel,
	text string,
	r model.ClassificationResult,
	flagged bool,
	at time.Time,
) []event.DomainEvent {
	digest := sha256.Sum256([]byte(text))

	events := []event.DomainEvent{
		event.MessageClassified{
			MessageID:     id,
			Channel:       channel.String(),
			Strategy:      r.Strategy(),
			Label:         r.PredictedLabel().String(),
			TextSHA256:    hex.EncodeToString(digest[:]),
			Probabilities: r.Distribution().Map(),
			RiskScore:     r.RiskScore(),
			TextLength:    len(text),
			ClassifiedAt:  at,
		},
	}
	if flagged {
		events = append(events, event.HighRiskDetected{
			MessageID:  id,
			Channel:    channel.String(),
			Label:      r.PredictedLabel().String(),
			Signals:    r.Signals(),
			RiskScore:  r.RiskScore(),
			Threshold:  uc.threshold,
			DetectedAt: at,
		})
	}
	return events
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
