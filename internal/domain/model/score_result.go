package model

import "github.com/bibhealth/strokerisk/internal/domain/valueobject"

// ScoreResult is the outcome of scoring one record.
type ScoreResult struct {
	Band        valueobject.RiskBand
	Probability valueobject.Probability
}

// Confidence is max(p, 1-p).
func (r ScoreResult) Confidence() float64 {
	return r.Probability.Confidence()
}
