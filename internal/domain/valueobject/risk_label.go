package valueobject

import (
	"fmt"
	"strings"
)

// RiskLabel is an immutable value object representing the categorical fraud-risk verdict.
// Labels are ordered by increasing severity: LOW < MEDIUM < HIGH.
type RiskLabel struct {
	value string
}

var (
	RiskLabelLow    = RiskLabel{value: "LOW"}
	RiskLabelMedium = RiskLabel{value: "MEDIUM"}
	RiskLabelHigh   = RiskLabel{value: "HIGH"}
)

// LabelCount is the number of risk labels a distribution covers.
const LabelCount = 3

// RiskLabels returns every label in severity order.
func RiskLabels() [LabelCount]RiskLabel {
	return [LabelCount]RiskLabel{RiskLabelLow, RiskLabelMedium, RiskLabelHigh}
}

// RiskLabelFromString reconstructs a RiskLabel from its canonical string representation.
func RiskLabelFromString(s string) (RiskLabel, error) {
	switch s {
	case "LOW":
		return RiskLabelLow, nil
	case "MEDIUM":
		return RiskLabelMedium, nil
	case "HIGH":
		return RiskLabelHigh, nil
	default:
		return RiskLabel{}, fmt.Errorf("invalid risk label: %s", s)
	}
}

// RiskLabelFromModelName maps a class name published by a classifier's label map onto a
// risk label. Matching is case-insensitive.
func RiskLabelFromModelName(name string) (RiskLabel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fraud", "spam", "scam", "high":
		return RiskLabelHigh, nil
	case "suspicious", "medium":
		return RiskLabelMedium, nil
	case "legit", "legitimate", "ham", "safe", "benign", "low":
		return RiskLabelLow, nil
	default:
		return RiskLabel{}, fmt.Errorf("unrecognised model label: %q", name)
	}
}

// String returns the string representation.
func (r RiskLabel) String() string {
	return r.value
}

// Severity returns the position of the label in severity order, or -1 for the zero value.
func (r RiskLabel) Severity() int {
	switch r.value {
	case "LOW":
		return 0
	case "MEDIUM":
		return 1
	case "HIGH":
		return 2
	default:
		return -1
	}
}

// IsZero returns true if the RiskLabel has not been set.
func (r RiskLabel) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another RiskLabel.
func (r RiskLabel) Equal(other RiskLabel) bool {
	return r.value == other.value
}

// MarshalText implements encoding.TextMarshaler.
func (r RiskLabel) MarshalText() ([]byte, error) {
	return []byte(r.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RiskLabel) UnmarshalText(b []byte) error {
	l, err := RiskLabelFromString(string(b))
	if err != nil {
		return err
	}
	*r = l
	return nil
}
