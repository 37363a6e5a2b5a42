package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bibhealth/strokerisk/pkg/events"
)

const (
	// EventTypeAssessmentCompleted is emitted for every scored record.
	EventTypeAssessmentCompleted = "strokerisk.assessment.completed"

	// EventTypeHighRiskDetected is emitted when the band is the top band of its policy.
	EventTypeHighRiskDetected = "strokerisk.high_risk.detected"

	// AggregateType names the aggregate that raises these events.
	AggregateType = "RiskAssessment"
)

// AssessmentCompleted is published once a record has been scored and banded.
// The payload carries no patient attributes.
type AssessmentCompleted struct {
	events.BaseEvent `json:"-"`
	AssessedAt       time.Time `json:"assessed_at"`
	Band             string    `json:"band"`
	Policy           string    `json:"policy"`
	ModelRef         string    `json:"model_ref"`
	Probability      float64   `json:"probability"`
	Confidence       float64   `json:"confidence"`
	AssessmentID     uuid.UUID `json:"assessment_id"`
}

// NewAssessmentCompleted builds the event and its JSON payload.
func NewAssessmentCompleted(
	assessmentID uuid.UUID,
	probability, confidence float64,
	band, policy, modelRef string,
	assessedAt time.Time,
) AssessmentCompleted {
	e := AssessmentCompleted{
		AssessmentID: assessmentID,
		Probability:  probability,
		Confidence:   confidence,
		Band:         band,
		Policy:       policy,
		ModelRef:     modelRef,
		AssessedAt:   assessedAt,
	}
	payload, _ := json.Marshal(e)
	e.BaseEvent = events.NewBaseEvent(EventTypeAssessmentCompleted, AggregateType, assessmentID, assessedAt, payload)
	return e
}

// HighRiskDetected is published alongside AssessmentCompleted when the
// probability lands in the policy's top band.
type HighRiskDetected struct {
	events.BaseEvent `json:"-"`
	DetectedAt       time.Time `json:"detected_at"`
	Band             string    `json:"band"`
	Policy           string    `json:"policy"`
	Probability      float64   `json:"probability"`
	AssessmentID     uuid.UUID `json:"assessment_id"`
}

// NewHighRiskDetected builds the event and its JSON payload.
func NewHighRiskDetected(
	assessmentID uuid.UUID,
	probability float64,
	band, policy string,
	detectedAt time.Time,
) HighRiskDetected {
	e := HighRiskDetected{
		AssessmentID: assessmentID,
		Probability:  probability,
		Band:         band,
		Policy:       policy,
		DetectedAt:   detectedAt,
	}
	payload, _ := json.Marshal(e)
	e.BaseEvent = events.NewBaseEvent(EventTypeHighRiskDetected, AggregateType, assessmentID, detectedAt, payload)
	return e
}
