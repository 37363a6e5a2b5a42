package valueobject

import (
	"fmt"
	"math"
)

// Probability is the model's estimate of P(stroke = 1), always within [0, 1].
type Probability struct {
	value float64
}

// NewProbability validates p and wraps it.
func NewProbability(p float64) (Probability, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Probability{}, fmt.Errorf("probability must be within [0, 1], got %v", p)
	}
	return Probability{value: p}, nil
}

// MustProbability is NewProbability for values known to be in range.
func MustProbability(p float64) Probability {
	prob, err := NewProbability(p)
	if err != nil {
		panic(err)
	}
	return prob
}

// Float64 returns the raw value.
func (p Probability) Float64() float64 {
	return p.value
}

// Confidence is the distance of the prediction from the decision boundary,
// max(p, 1-p). It is never below 0.5.
func (p Probability) Confidence() float64 {
	return math.Max(p.value, 1-p.value)
}

// Percent renders the probability as a percentage with two decimals, e.g. "82.00%".
func (p Probability) Percent() string {
	return FormatPercent(p.value)
}

// ConfidencePercent renders Confidence the same way as Percent.
func (p Probability) ConfidencePercent() string {
	return FormatPercent(p.Confidence())
}

// FormatPercent renders a fraction in [0, 1] as "NN.NN%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
