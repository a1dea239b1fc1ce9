package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/bibbank/scamshield/internal/domain/model"
	"github.com/bibbank/scamshield/internal/domain/valueobject"
)

// Assembler checks a scorer's output against the result invariants before it leaves the
// engine. It never corrects a result: a violation is reported as ErrValidationViolation.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates a new Assembler.
func NewAssembler(logger *slog.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Assemble validates r and returns it unchanged when it holds.
func (a *Assembler) Assemble(r model.ClassificationResult) (model.ClassificationResult, error) {
	if err := checkInvariants(r); err != nil {
		a.logger.Error("scorer produced an invalid result",
			slog.String("strategy", r.Strategy()),
			slog.String("label", r.PredictedLabel().String()),
			slog.Float64("risk_score", r.RiskScore()),
			slog.Any("distribution", r.Distribution().Map()),
			slog.String("error", err.Error()),
		)
		return model.ClassificationResult{}, fmt.Errorf("%w: %w", ErrValidationViolation, err)
	}
	return r, nil
}

func checkInvariants(r model.ClassificationResult) error {
	if r.IsZero() {
		return fmt.Errorf("result has no predicted label")
	}

	dist := r.Distribution()
	if err := dist.Validate(); err != nil {
		return err
	}

	if argmax := dist.Argmax(); !argmax.Equal(r.PredictedLabel()) {
		return fmt.Errorf("predicted label %s does not match argmax %s", r.PredictedLabel(), argmax)
	}

	score := r.RiskScore()
	if math.IsNaN(score) || score < 0 || score > 1 {
		return fmt.Errorf("risk score out of range: %v", score)
	}

	if r.Strategy() == StrategyModel && score != dist.Probability(valueobject.RiskLabelHigh) {
		return fmt.Errorf("model risk score %v differs from HIGH probability %v",
			score, dist.Probability(valueobject.RiskLabelHigh))
	}

	return nil
}

// Classifier is the single entry point of the scoring engine. It is backed by exactly one
// Scorer chosen at construction and only delegates to it.
type Classifier struct {
	scorer    Scorer
	assembler *Assembler
}

// NewClassifier creates a Classifier over the given strategy.
func NewClassifier(scorer Scorer, logger *slog.Logger) *Classifier {
	return &Classifier{
		scorer:    scorer,
		assembler: NewAssembler(logger),
	}
}

// Classify scores the request text and validates the outcome.
func (c *Classifier) Classify(ctx context.Context, req model.ScoringRequest) (model.ClassificationResult, error) {
	r, err := c.scorer.Score(ctx, req.Text)
	if err != nil {
		return model.ClassificationResult{}, err
	}
	return c.assembler.Assemble(r)
}

// Ready reports whether the underlying scorer can serve.
func (c *Classifier) Ready() bool {
	return c.scorer.Ready()
}

// Strategy returns the name of the active scorer.
func (c *Classifier) Strategy() string {
	return c.scorer.Name()
}
