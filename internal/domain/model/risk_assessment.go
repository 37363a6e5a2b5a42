package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bibhealth/strokerisk/internal/domain/event"
	"github.com/bibhealth/strokerisk/internal/domain/valueobject"
	"github.com/bibhealth/strokerisk/pkg/events"
)

// RiskAssessment is the aggregate root for one scored patient record. It is
// written at most once and never updated.
type RiskAssessment struct {
	events.EventCollector

	assessedAt  time.Time
	policy      string
	modelRef    string
	modelName   string
	band        valueobject.RiskBand
	record      FeatureRecord
	probability valueobject.Probability
	id          uuid.UUID
}

// NewRiskAssessment captures a score result and raises AssessmentCompleted,
// plus HighRiskDetected when the band is the policy's top band.
func NewRiskAssessment(
	record FeatureRecord,
	result ScoreResult,
	policy valueobject.BandPolicy,
	modelRef string,
	modelName string,
) (*RiskAssessment, error) {
	if policy == nil {
		return nil, fmt.Errorf("banding policy is required")
	}
	if result.Band.IsZero() {
		return nil, fmt.Errorf("score result has no band")
	}
	if modelRef == "" {
		return nil, fmt.Errorf("model reference is required")
	}

	a := &RiskAssessment{
		id:          uuid.New(),
		record:      record,
		probability: result.Probability,
		band:        result.Band,
		policy:      policy.Name(),
		modelRef:    modelRef,
		modelName:   modelName,
		assessedAt:  time.Now().UTC(),
	}

	a.Record(event.NewAssessmentCompleted(
		a.id, a.probability.Float64(), a.probability.Confidence(),
		a.band.String(), a.policy, a.modelRef, a.assessedAt,
	))

	if policy.IsTopBand(a.band) {
		a.Record(event.NewHighRiskDetected(
			a.id, a.probability.Float64(), a.band.String(), a.policy, a.assessedAt,
		))
	}

	return a, nil
}

// ReconstructRiskAssessment rebuilds an assessment from persisted data (no validation, no events).
func ReconstructRiskAssessment(
	id uuid.UUID,
	record FeatureRecord,
	probability valueobject.Probability,
	band valueobject.RiskBand,
	policy, modelRef, modelName string,
	assessedAt time.Time,
) *RiskAssessment {
	return &RiskAssessment{
		id:          id,
		record:      record,
		probability: probability,
		band:        band,
		policy:      policy,
		modelRef:    modelRef,
		modelName:   modelName,
		assessedAt:  assessedAt,
	}
}

// --- Accessors ---

func (a *RiskAssessment) ID() uuid.UUID                        { return a.id }
func (a *RiskAssessment) Features() FeatureRecord              { return a.record }
func (a *RiskAssessment) Probability() valueobject.Probability { return a.probability }
func (a *RiskAssessment) Band() valueobject.RiskBand           { return a.band }
func (a *RiskAssessment) Policy() string                       { return a.policy }
func (a *RiskAssessment) ModelRef() string                     { return a.modelRef }
func (a *RiskAssessment) ModelName() string                    { return a.modelName }
func (a *RiskAssessment) AssessedAt() time.Time                { return a.assessedAt }

// Result returns the score result the assessment was built from.
func (a *RiskAssessment) Result() ScoreResult {
	return ScoreResult{Probability: a.probability, Band: a.band}
}
