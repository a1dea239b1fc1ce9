package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/scamshield/internal/domain/model"
)

// ClassifyTextRequest is the input DTO for the ClassifyText use case.
type ClassifyTextRequest struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"` // EMAIL, SMS, CALL; empty for unknown
}

// ClassificationResponse is the output DTO returned after a classification.
type ClassificationResponse struct {
	ClassifiedAt  time.Time          `json:"classified_at" yaml:"classified_at"`
	Probabilities map[string]float64 `json:"probabilities" yaml:"probabilities"`
	Signals       []string           `json:"signals,omitempty" yaml:"signals,omitempty"`
	MessageID     uuid.UUID          `json:"message_id" yaml:"message_id"`
	Label         string             `json:"label" yaml:"label"`
	Strategy      string             `json:"strategy" yaml:"strategy"`
	Channel       string             `json:"channel" yaml:"channel"`
	RiskScore     float64            `json:"risk_score" yaml:"risk_score"`
	Flagged       bool               `json:"flagged" yaml:"flagged"`
}

// ScorerStatus describes the active scoring strategy and whether it can serve.
type ScorerStatus struct {
	Strategy    string `json:"strategy"`
	Ready       bool   `json:"ready"`
	ModelLoaded bool   `json:"model_loaded"`
}

// FromResult maps a domain classification result to the response DTO.
func FromResult(id uuid.UUID, channel string, r model.ClassificationResult, flagged bool, at time.Time) ClassificationResponse {
	return ClassificationResponse{
		MessageID:     id,
		Probabilities: r.Distribution().Map(),
		Label:         r.PredictedLabel().String(),
		RiskScore:     r.RiskScore(),
		Strategy:      r.Strategy(),
		Channel:       channel,
		Signals:       r.Signals(),
		Flagged:       flagged,
		ClassifiedAt:  at,
	}
}
