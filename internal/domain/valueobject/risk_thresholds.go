package valueobject

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidThresholds is returned by NewRiskThresholds when the bounds do not
// satisfy 0 < low < med < 1.
var ErrInvalidThresholds = errors.New("invalid risk thresholds")

// RiskThresholds holds the two cut points of the threshold banding policy.
// A value of this type always satisfies 0 < low < med < 1.
type RiskThresholds struct {
	low float64
	med float64
}

// ThresholdViolations lists every rule the pair (low, med) breaks. An empty
// result means the pair is valid. Inverted bounds are reported, never swapped.
func ThresholdViolations(low, med float64) []string {
	var violations []string
	if math.IsNaN(low) || low <= 0 || low >= 1 {
		violations = append(violations, fmt.Sprintf("low_bound must be within (0, 1), got %v", low))
	}
	if math.IsNaN(med) || med <= 0 || med >= 1 {
		violations = append(violations, fmt.Sprintf("med_bound must be within (0, 1), got %v", med))
	}
	if !(low < med) {
		violations = append(violations, fmt.Sprintf("low_bound (%v) must be less than med_bound (%v)", low, med))
	}
	return violations
}

// NewRiskThresholds builds a validated threshold pair.
func NewRiskThresholds(low, med float64) (RiskThresholds, error) {
	if v := ThresholdViolations(low, med); len(v) > 0 {
		return RiskThresholds{}, fmt.Errorf("%w: %s", ErrInvalidThresholds, strings.Join(v, "; "))
	}
	return RiskThresholds{low: low, med: med}, nil
}

// Low returns the upper edge of the low band.
func (t RiskThresholds) Low() float64 { return t.low }

// Med returns the upper edge of the medium band.
func (t RiskThresholds) Med() float64 { return t.med }

// IsZero returns true if the thresholds have not been set.
func (t RiskThresholds) IsZero() bool {
	return t.low == 0 && t.med == 0
}
