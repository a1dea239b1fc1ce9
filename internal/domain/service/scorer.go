package service

import (
	"context"

	"github.com/bibbank/scamshield/internal/domain/model"
)

// Strategy names, as used in configuration and reported on every result.
const (
	StrategyLexical = "lexical"
	StrategyModel   = "model"
)

// Scorer defines the interface for risk scoring strategies.
// Both LexicalScorer (keyword heuristic) and ModelScorer (pretrained classifier) implement this.
type Scorer interface {
	Score(ctx context.Context, text string) (model.ClassificationResult, error)
	// Ready reports whether the scorer can serve requests.
	Ready() bool
	Name() string
}
