package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bibhealth/strokerisk/internal/domain/model"
)

// Flag is a boolean form field that also accepts 0/1 and yes/no.
type Flag bool

// NewFlag returns a pointer to b as a Flag.
func NewFlag(b bool) *Flag {
	f := Flag(b)
	return &f
}

// ErrEmptyFlag is returned by ParseFlag for a blank value.
var ErrEmptyFlag = errors.New("boolean value is empty")

// ParseFlag interprets the textual forms of a boolean field. A blank value
// is not false; it returns ErrEmptyFlag.
func ParseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	case "":
		return false, ErrEmptyFlag
	default:
		return false, fmt.Errorf("invalid boolean value %q", s)
	}
}

// UnmarshalJSON accepts true/false, 0/1 and their string forms.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n != 0 && n != 1 {
			return fmt.Errorf("invalid boolean value %d", n)
		}
		*f = n == 1
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid boolean value %s", data)
	}
	parsed, err := ParseFlag(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f *Flag) value() bool {
	return f != nil && bool(*f)
}

// AssessRiskRequest is the input DTO for the AssessRisk use case. A nil flag
// was not supplied.
type AssessRiskRequest struct {
	LowBound        *float64 `json:"low_bound,omitempty"`
	MedBound        *float64 `json:"med_bound,omitempty"`
	Gender          string   `json:"gender"`
	SmokingStatus   string   `json:"smoking_status"`
	ModelRef        string   `json:"model,omitempty"`
	Policy          string   `json:"policy,omitempty"`
	AvgGlucoseLevel float64  `json:"avg_glucose_level"`
	BMI             float64  `json:"bmi"`
	Age             int      `json:"age"`
	Hypertension    *Flag    `json:"hypertension"`
	HeartDisease    *Flag    `json:"heart_disease"`
}

// Missing lists a violation for every required flag that was not supplied.
func (r AssessRiskRequest) Missing() []string {
	var missing []string
	if r.Hypertension == nil {
		missing = append(missing, model.FeatureHypertension+" is required")
	}
	if r.HeartDisease == nil {
		missing = append(missing, model.FeatureHeartDisease+" is required")
	}
	return missing
}

// FeatureInput maps the request onto the domain input. Check Missing first;
// an absent flag maps to false here.
func (r AssessRiskRequest) FeatureInput() model.FeatureInput {
	return model.FeatureInput{
		Age:             r.Age,
		Hypertension:    r.Hypertension.value(),
		HeartDisease:    r.HeartDisease.value(),
		AvgGlucoseLevel: r.AvgGlucoseLevel,
		BMI:             r.BMI,
		Gender:          r.Gender,
		SmokingStatus:   r.SmokingStatus,
	}
}

// PatientDTO echoes the patient attributes of a recorded assessment.
type PatientDTO struct {
	Gender          string  `json:"gender"`
	SmokingStatus   string  `json:"smoking_status"`
	AvgGlucoseLevel float64 `json:"avg_glucose_level"`
	BMI             float64 `json:"bmi"`
	Age             int     `json:"age"`
	Hypertension    bool    `json:"hypertension"`
	HeartDisease    bool    `json:"heart_disease"`
}

// AssessmentResponse is the output DTO returned after an assessment.
type AssessmentResponse struct {
	AssessedAt     time.Time   `json:"assessed_at"`
	Patient        *PatientDTO `json:"patient,omitempty"`
	ProbabilityPct string      `json:"probability_pct"`
	ConfidencePct  string      `json:"confidence_pct"`
	Band           string      `json:"band"`
	Policy         string      `json:"policy"`
	ModelRef       string      `json:"model"`
	ModelName      string      `json:"model_name"`
	Probability    float64     `json:"probability"`
	Confidence     float64     `json:"confidence"`
	ID             uuid.UUID   `json:"id"`
	Recorded       bool        `json:"recorded"`
}

// ListAssessmentsResponse is the output DTO of ListAssessments.
type ListAssessmentsResponse struct {
	Assessments []AssessmentResponse `json:"assessments"`
	Count       int                  `json:"count"`
}

// InvalidateModelRequest names the cached model to drop. All drops every one.
type InvalidateModelRequest struct {
	ModelRef string `json:"model"`
	All      bool   `json:"all"`
}

// InvalidateModelResponse reports how many cached models were dropped.
type InvalidateModelResponse struct {
	Invalidated int `json:"invalidated"`
}

// FromModel maps a domain model to the response DTO.
func FromModel(a *model.RiskAssessment, recorded bool) AssessmentResponse {
	p := a.Probability()
	return AssessmentResponse{
		ID:             a.ID(),
		Probability:    p.Float64(),
		ProbabilityPct: p.Percent(),
		Confidence:     p.Confidence(),
		ConfidencePct:  p.ConfidencePercent(),
		Band:           a.Band().String(),
		Policy:         a.Policy(),
		ModelRef:       a.ModelRef(),
		ModelName:      a.ModelName(),
		Recorded:       recorded,
		AssessedAt:     a.AssessedAt(),
	}
}

// WithPatient attaches the patient attributes of a.
func (r AssessmentResponse) WithPatient(a *model.RiskAssessment) AssessmentResponse {
	in := a.Features().Input()
	r.Patient = &PatientDTO{
		Age:             in.Age,
		Hypertension:    in.Hypertension,
		HeartDisease:    in.HeartDisease,
		AvgGlucoseLevel: in.AvgGlucoseLevel,
		BMI:             in.BMI,
		Gender:          in.Gender,
		SmokingStatus:   in.SmokingStatus,
	}
	return r
}
