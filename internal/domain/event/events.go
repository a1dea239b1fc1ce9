package event

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is implemented by every event the service publishes.
type DomainEvent interface {
	EventType() string
	// AggregateID identifies the classified message; publishers key by it.
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

const (
	// EventTypeMessageClassified is emitted after every successful classification.
	EventTypeMessageClassified = "scamshield.message.classified"

	// EventTypeHighRiskDetected is emitted when a message's risk score reaches the flag threshold.
	EventTypeHighRiskDetected = "scamshield.high_risk.detected"
)

// MessageClassified is published when a message has been scored. The message text is
// never included; TextSHA256 lets consumers correlate duplicates.
type MessageClassified struct {
	MessageID     uuid.UUID          `json:"message_id"`
	Channel       string             `json:"channel"`
	Strategy      string             `json:"strategy"`
	Label         string             `json:"label"`
	TextSHA256    string             `json:"text_sha256"`
	Probabilities map[string]float64 `json:"probabilities"`
	RiskScore     float64            `json:"risk_score"`
	TextLength    int                `json:"text_length"`
	ClassifiedAt  time.Time          `json:"classified_at"`
}

// EventType returns the event type identifier.
func (e MessageClassified) EventType() string {
	return EventTypeMessageClassified
}

// AggregateID returns the message ID as the aggregate identifier.
func (e MessageClassified) AggregateID() uuid.UUID {
	return e.MessageID
}

// OccurredAt returns when the message was classified.
func (e MessageClassified) OccurredAt() time.Time {
	return e.ClassifiedAt
}

// HighRiskDetected is published when a message crosses the auto-flag threshold.
type HighRiskDetected struct {
	MessageID  uuid.UUID `json:"message_id"`
	Channel    string    `json:"channel"`
	Label      string    `json:"label"`
	Signals    []string  `json:"signals"`
	RiskScore  float64   `json:"risk_score"`
	Threshold  float64   `json:"threshold"`
	DetectedAt time.Time `json:"detected_at"`
}

// EventType returns the event type identifier.
func (e HighRiskDetected) EventType() string {
	return EventTypeHighRiskDetected
}

// AggregateID returns the message ID as the aggregate identifier.
func (e HighRiskDetected) AggregateID() uuid.UUID {
	return e.MessageID
}

func (e HighRiskDetected) OccurredAt() time.Time {
	return e.DetectedAt
}
