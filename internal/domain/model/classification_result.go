package model

import (
	"github.com/bibbank/scamshield/internal/domain/valueobject"
)

// ScoringRequest is the single input of the scoring engine. Text may be empty.
type ScoringRequest struct {
	Text string
}

// ClassificationResult is the outcome of scoring one piece of text.
// It is created per call and never mutated after construction.
type ClassificationResult struct {
	distribution   valueobject.RiskDistribution
	predictedLabel valueobject.RiskLabel
	strategy       string
	signals        []string
	riskScore      float64
}

// NewClassificationResult assembles a result. Invariants are checked by the assembler,
// not here, so that a faulty scorer is reported instead of silently corrected.
func NewClassificationResult(
	distribution valueobject.RiskDistribution,
	predictedLabel valueobject.RiskLabel,
	riskScore float64,
	strategy string,
	signals []string,
) ClassificationResult {
	s := make([]string, len(signals))
	copy(s, signals)
	return ClassificationResult{
		distribution:   distribution,
		predictedLabel: predictedLabel,
		riskScore:      riskScore,
		strategy:       strategy,
		signals:        s,
	}
}

// --- Accessors ---

func (r ClassificationResult) Distribution() valueobject.RiskDistribution { return r.distribution }
func (r ClassificationResult) PredictedLabel() valueobject.RiskLabel      { return r.predictedLabel }
func (r ClassificationResult) RiskScore() float64                         { return r.riskScore }
func (r ClassificationResult) Strategy() string                           { return r.strategy }

// Signals returns the indicators that contributed to the verdict, if the scorer reports any.
func (r ClassificationResult) Signals() []string {
	s := make([]string, len(r.signals))
	copy(s, r.signals)
	return s
}

// IsZero reports whether the result was never populated.
func (r ClassificationResult) IsZero() bool {
	return r.predictedLabel.IsZero()
}
