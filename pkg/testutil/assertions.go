package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// severityOrder breaks exact ties in favour of the less severe label.
var severityOrder = []string{"LOW", "MEDIUM", "HIGH"}

// AssertDistribution checks that probs is a valid probability vector summing to one.
func AssertDistribution(t *testing.T, probs map[string]float64) {
	t.Helper()
	sum := 0.0
	for label, p := range probs {
		assert.False(t, math.IsNaN(p), "probability for %s is NaN", label)
		assert.GreaterOrEqual(t, p, 0.0, "probability for %s", label)
		assert.LessOrEqual(t, p, 1.0, "probability for %s", label)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

// AssertArgmaxLabel checks that label is the most probable entry of probs.
func AssertArgmaxLabel(t *testing.T, label string, probs map[string]float64) {
	t.Helper()
	best, bestP := "", math.Inf(-1)
	for _, l := range severityOrder {
		if p, ok := probs[l]; ok && p > bestP {
			best, bestP = l, p
		}
	}
	assert.Equal(t, best, label, "label should be the argmax of %v", probs)
}
