package usecase

import (
	"context"

	"github.com/bibbank/scamshield/internal/application/dto"
	"github.com/bibbank/scamshield/internal/domain/service"
)

// GetScorerStatus reports which strategy is active and whether it can serve.
type GetScorerStatus struct {
	classifier *service.Classifier
}

// NewGetScorerStatus creates a new GetScorerStatus use case.
func NewGetScorerStatus(classifier *service.Classifier) *GetScorerStatus {
	return &GetScorerStatus{classifier: classifier}
}

// Execute returns the current scorer status.
func (uc *GetScorerStatus) Execute(_ context.Context) dto.ScorerStatus {
	ready := uc.classifier.Ready()
	strategy := uc.classifier.Strategy()
	return dto.ScorerStatus{
		Strategy:    strategy,
		Ready:       ready,
		ModelLoaded: strategy == service.StrategyModel && ready,
	}
}
