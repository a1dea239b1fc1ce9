package valueobject

import (
	"fmt"
	"math"
)

// DistributionTolerance is the allowed deviation of a distribution's total from 1.0.
const DistributionTolerance = 1e-6

// RiskDistribution is an immutable probability mass over the three risk labels.
// It is indexed by severity, so it always covers exactly LOW, MEDIUM and HIGH.
type RiskDistribution struct {
	probs [LabelCount]float64
}

// NewRiskDistribution builds a distribution from per-label probabilities.
// It does not validate; call Validate to check the invariants.
func NewRiskDistribution(low, medium, high float64) RiskDistribution {
	return RiskDistribution{probs: [LabelCount]float64{low, medium, high}}
}

// RiskDistributionFromSlice builds a distribution from probabilities ordered [LOW, MEDIUM, HIGH].
func RiskDistributionFromSlice(p []float64) (RiskDistribution, error) {
	if len(p) != LabelCount {
		return RiskDistribution{}, fmt.Errorf("distribution needs %d values, got %d", LabelCount, len(p))
	}
	return NewRiskDistribution(p[0], p[1], p[2]), nil
}

// Probability returns the mass assigned to label, or 0 for an unknown label.
func (d RiskDistribution) Probability(label RiskLabel) float64 {
	idx := label.Severity()
	if idx < 0 {
		return 0
	}
	return d.probs[idx]
}

// Sum returns the total probability mass.
func (d RiskDistribution) Sum() float64 {
	var s float64
	for _, p := range d.probs {
		s += p
	}
	return s
}

// Argmax returns the most probable label. Exact ties go to the least severe label.
func (d RiskDistribution) Argmax() RiskLabel {
	best := 0
	for i := 1; i < LabelCount; i++ {
		if d.probs[i] > d.probs[best] {
			best = i
		}
	}
	return RiskLabels()[best]
}

// Validate checks that every probability lies in [0,1] and the total is 1 within tolerance.
func (d RiskDistribution) Validate() error {
	for i, p := range d.probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("probability for %s out of range: %v", RiskLabels()[i], p)
		}
	}
	if sum := d.Sum(); math.Abs(sum-1) > DistributionTolerance {
		return fmt.Errorf("probabilities sum to %v, want 1", sum)
	}
	return nil
}

// Map renders the distribution keyed by label name.
func (d RiskDistribution) Map() map[string]float64 {
	out := make(map[string]float64, LabelCount)
	for i, l := range RiskLabels() {
		out[l.String()] = d.probs[i]
	}
	return out
}

// Equal reports whether two distributions hold identical values.
func (d RiskDistribution) Equal(other RiskDistribution) bool {
	return d.probs == other.probs
}
