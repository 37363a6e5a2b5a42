package valueobject

import "fmt"

// Policy names accepted in configuration and requests.
const (
	PolicyQualitative = "qualitative"
	PolicyThreshold   = "threshold"
)

// Lower edges of the qualitative bands. Intervals are half-open:
// [0, 0.20) Less likely, [0.20, 0.50) Likely, [0.50, 1] Highly likely.
const (
	LikelyLowerBound       = 0.20
	HighlyLikelyLowerBound = 0.50
)

// BandPolicy maps a probability onto a RiskBand. Every policy is a total,
// deterministic step function over [0, 1].
type BandPolicy interface {
	Name() string
	Band(p Probability) RiskBand
	Bands() []RiskBand
	IsTopBand(b RiskBand) bool
}

// QualitativePolicy is the fixed three-level labelling shown on the patient form.
type QualitativePolicy struct{}

// Name returns "qualitative".
func (QualitativePolicy) Name() string { return PolicyQualitative }

// Band buckets p into Less likely, Likely or Highly likely.
func (QualitativePolicy) Band(p Probability) RiskBand {
	switch v := p.Float64(); {
	case v < LikelyLowerBound:
		return BandLessLikely
	case v < HighlyLikelyLowerBound:
		return BandLikely
	default:
		return BandHighlyLikely
	}
}

// Bands returns the bands in ascending order of risk.
func (QualitativePolicy) Bands() []RiskBand {
	return []RiskBand{BandLessLikely, BandLikely, BandHighlyLikely}
}

// IsTopBand reports whether b is Highly likely.
func (QualitativePolicy) IsTopBand(b RiskBand) bool {
	return b.Equal(BandHighlyLikely)
}

// ThresholdPolicy buckets by two configurable cut points:
// [0, low] Low Risk, (low, med] Medium Risk, (med, 1] High Risk.
type ThresholdPolicy struct {
	thresholds RiskThresholds
}

// NewThresholdPolicy builds a policy from already validated thresholds.
func NewThresholdPolicy(t RiskThresholds) ThresholdPolicy {
	return ThresholdPolicy{thresholds: t}
}

// Name returns "threshold".
func (ThresholdPolicy) Name() string { return PolicyThreshold }

// Thresholds returns the cut points in use.
func (tp ThresholdPolicy) Thresholds() RiskThresholds { return tp.thresholds }

// Band buckets p into Low Risk, Medium Risk or High Risk.
func (tp ThresholdPolicy) Band(p Probability) RiskBand {
	switch v := p.Float64(); {
	case v <= tp.thresholds.Low():
		return BandLowRisk
	case v <= tp.thresholds.Med():
		return BandMediumRisk
	default:
		return BandHighRisk
	}
}

// Bands returns the bands in ascending order of risk.
func (ThresholdPolicy) Bands() []RiskBand {
	return []RiskBand{BandLowRisk, BandMediumRisk, BandHighRisk}
}

// IsTopBand reports whether b is High Risk.
func (ThresholdPolicy) IsTopBand(b RiskBand) bool {
	return b.Equal(BandHighRisk)
}

// PolicyByName returns the policy registered under name. The threshold
// policy is built from t.
func PolicyByName(name string, t RiskThresholds) (BandPolicy, error) {
	switch name {
	case PolicyQualitative:
		return QualitativePolicy{}, nil
	case PolicyThreshold:
		if t.IsZero() {
			return nil, fmt.Errorf("%w: threshold policy needs bounds", ErrInvalidThresholds)
		}
		return NewThresholdPolicy(t), nil
	default:
		return nil, fmt.Errorf("unknown banding policy: %q", name)
	}
}
