package service

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/bibbank/scamshield/internal/domain/model"
	"github.com/bibbank/scamshield/internal/domain/valueobject"
)

// fraudIndicators are matched as substrings of the lowercased text, so "verify identity"
// also counts "verify". Multi-word indicators need the single space as written. Each indicator contributes at most once.
var fraudIndicators = []string{
	// urgency
	"suspended", "immediately", "urgent", "action required",
	// account compromise
	"account", "security", "compromised", "locked", "unlock", "suspicious", "fraud", "scam",
	// credential and PII solicitation
	"verify", "verify identity", "personal information", "social security", "credit card",
	"bank account", "password", "login", "click here",
	// reward bait
	"prize", "won", "claim",
}

// Fixed confidence tiers. Each vector sums to exactly 1.0 in float64.
var (
	lexicalHighDistribution   = valueobject.NewRiskDistribution(0.05, 0.15, 0.80)
	lexicalMediumDistribution = valueobject.NewRiskDistribution(0.20, 0.60, 0.20)
	lexicalLowDistribution    = valueobject.NewRiskDistribution(0.70, 0.25, 0.05)
)

const (
	highDensityThreshold   = 0.10
	mediumDensityThreshold = 0.05
	highCountThreshold     = 3
	mediumCountThreshold   = 1

	lowScoreMin   = 0.1
	lowScoreRange = 0.2
)

// LexicalEvaluation holds the intermediate keyword statistics for one text.
type LexicalEvaluation struct {
	Matched    []string
	FraudCount int
	WordCount  int
	Density    float64
}

// LexicalScorer is a domain service that classifies text by fraud-indicator keyword density.
// It never fails and is always ready.
type LexicalScorer struct {
	random func() float64
}

// LexicalOption configures a LexicalScorer.
type LexicalOption func(*LexicalScorer)

// WithRandomSource replaces the uniform [0,1) source used for LOW-risk scores.
// The function must be safe for concurrent use.
func WithRandomSource(f func() float64) LexicalOption {
	return func(s *LexicalScorer) {
		if f != nil {
			s.random = f
		}
	}
}

// NewLexicalScorer creates a new LexicalScorer. By default LOW-risk scores are drawn from
// the process-seeded global generator of math/rand/v2.
func NewLexicalScorer(opts ...LexicalOption) *LexicalScorer {
	s := &LexicalScorer{random: rand.Float64}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Indicators returns a copy of the fraud-indicator set.
func Indicators() []string {
	out := make([]string, len(fraudIndicators))
	copy(out, fraudIndicators)
	return out
}

// Evaluate computes keyword statistics without making a decision.
func (s *LexicalScorer) Evaluate(text string) LexicalEvaluation {
	norm := Normalize(text)

	matched := make([]string, 0)
	for _, kw := range fraudIndicators {
		if strings.Contains(norm.Text, kw) {
			matched = append(matched, kw)
		}
	}

	return LexicalEvaluation{
		Matched:    matched,
		FraudCount: len(matched),
		WordCount:  norm.WordCount(),
		Density:    float64(len(matched)) / float64(norm.DensityBase()),
	}
}

// Score classifies text. The first matching rule wins.
func (s *LexicalScorer) Score(_ context.Context, text string) (model.ClassificationResult, error) {
	ev := s.Evaluate(text)

	var (
		label valueobject.RiskLabel
		score float64
		dist  valueobject.RiskDistribution
	)

	switch {
	// Rule: dense or numerous indicators.
	case ev.Density > highDensityThreshold || ev.FraudCount >= highCountThreshold:
		label = valueobject.RiskLabelHigh
		score = min(0.9, 0.3+ev.Density*2)
		dist = lexicalHighDistribution

	// Rule: any indicator at all.
	case ev.Density > mediumDensityThreshold || ev.FraudCount >= mediumCountThreshold:
		label = valueobject.RiskLabelMedium
		score = min(0.7, 0.2+ev.Density*3)
		dist = lexicalMediumDistribution

	default:
		label = valueobject.RiskLabelLow
		score = lowScoreMin + s.random()*lowScoreRange
		dist = lexicalLowDistribution
	}

	return model.NewClassificationResult(dist, label, score, StrategyLexical, ev.Matched), nil
}

// Ready always returns true.
func (s *LexicalScorer) Ready() bool {
	return true
}

// Name returns the strategy name.
func (s *LexicalScorer) Name() string {
	return StrategyLexical
}
