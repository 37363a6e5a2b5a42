package model

import (
	"fmt"
	"math"
)

// Gender is one of the categories collected on the patient form.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Genders lists the accepted values in form order.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// SmokingStatus is one of the categories collected on the patient form.
type SmokingStatus string

const (
	SmokingNever    SmokingStatus = "never smoked"
	SmokingFormerly SmokingStatus = "formerly smoked"
	SmokingSmokes   SmokingStatus = "smokes"
	SmokingUnknown  SmokingStatus = "Unknown"
)

// SmokingStatuses lists the accepted values in form order.
var SmokingStatuses = []SmokingStatus{SmokingNever, SmokingFormerly, SmokingSmokes, SmokingUnknown}

// Clinical bounds enforced by NewFeatureRecord.
const (
	MinAge     = 1
	MaxAge     = 120
	MinGlucose = 1.0
	MaxGlucose = 600.0
	MinBMI     = 1.0
	MaxBMI     = 80.0
)

// Feature names, which double as the column names of the default schema.
const (
	FeatureAge             = "age"
	FeatureHypertension    = "hypertension"
	FeatureHeartDisease    = "heart_disease"
	FeatureAvgGlucoseLevel = "avg_glucose_level"
	FeatureBMI             = "bmi"
	FeatureGender          = "gender"
	FeatureSmokingStatus   = "smoking_status"
)

// PatientAttributeKeys lists the feature names, which are kept out of logs.
func PatientAttributeKeys() []string {
	return []string{
		FeatureAge, FeatureHypertension, FeatureHeartDisease,
		FeatureAvgGlucoseLevel, FeatureBMI, FeatureGender, FeatureSmokingStatus,
	}
}

// FeatureInput is the unvalidated form of a FeatureRecord.
type FeatureInput struct {
	Gender          string
	SmokingStatus   string
	AvgGlucoseLevel float64
	BMI             float64
	Age             int
	Hypertension    bool
	HeartDisease    bool
}

// FeatureRecord is one patient's validated attributes. It is immutable.
type FeatureRecord struct {
	gender          Gender
	smokingStatus   SmokingStatus
	avgGlucoseLevel float64
	bmi             float64
	age             int
	hypertension    bool
	heartDisease    bool
}

// NewFeatureRecord validates in and returns a *ValidationError listing every
// violation when any bound or category check fails.
func NewFeatureRecord(in FeatureInput) (FeatureRecord, error) {
	if err := NewValidationError(in.Violations()...); err != nil {
		return FeatureRecord{}, err
	}
	return ReconstructFeatureRecord(in), nil
}

// Violations lists every rule the input breaks, in field order.
func (in FeatureInput) Violations() []string {
	var v []string
	if in.Age < MinAge || in.Age > MaxAge {
		v = append(v, fmt.Sprintf("age must be between %d and %d, got %d", MinAge, MaxAge, in.Age))
	}
	if math.IsNaN(in.AvgGlucoseLevel) || in.AvgGlucoseLevel <= MinGlucose || in.AvgGlucoseLevel > MaxGlucose {
		v = append(v, fmt.Sprintf("avg_glucose_level must be greater than %g and at most %g, got %g", MinGlucose, MaxGlucose, in.AvgGlucoseLevel))
	}
	if math.IsNaN(in.BMI) || in.BMI <= MinBMI || in.BMI > MaxBMI {
		v = append(v, fmt.Sprintf("bmi must be greater than %g and at most %g, got %g", MinBMI, MaxBMI, in.BMI))
	}
	if !validGender(in.Gender) {
		v = append(v, fmt.Sprintf("gender must be one of Male, Female, Other, got %q", in.Gender))
	}
	if !validSmokingStatus(in.SmokingStatus) {
		v = append(v, fmt.Sprintf("smoking_status must be one of never smoked, formerly smoked, smokes, Unknown, got %q", in.SmokingStatus))
	}
	return v
}

// ReconstructFeatureRecord rebuilds a record from persisted data (no validation).
func ReconstructFeatureRecord(in FeatureInput) FeatureRecord {
	return FeatureRecord{
		age:             in.Age,
		hypertension:    in.Hypertension,
		heartDisease:    in.HeartDisease,
		avgGlucoseLevel: in.AvgGlucoseLevel,
		bmi:             in.BMI,
		gender:          Gender(in.Gender),
		smokingStatus:   SmokingStatus(in.SmokingStatus),
	}
}

func validGender(s string) bool {
	for _, g := range Genders {
		if string(g) == s {
			return true
		}
	}
	return false
}

func validSmokingStatus(s string) bool {
	for _, st := range SmokingStatuses {
		if string(st) == s {
			return true
		}
	}
	return false
}

// --- Accessors ---

func (r FeatureRecord) Age() int                     { return r.age }
func (r FeatureRecord) Hypertension() bool           { return r.hypertension }
func (r FeatureRecord) HeartDisease() bool           { return r.heartDisease }
func (r FeatureRecord) AvgGlucoseLevel() float64     { return r.avgGlucoseLevel }
func (r FeatureRecord) BMI() float64                 { return r.bmi }
func (r FeatureRecord) Gender() Gender               { return r.gender }
func (r FeatureRecord) SmokingStatus() SmokingStatus { return r.smokingStatus }

// Input returns the record as a FeatureInput, for persistence.
func (r FeatureRecord) Input() FeatureInput {
	return FeatureInput{
		Age:             r.age,
		Hypertension:    r.hypertension,
		HeartDisease:    r.heartDisease,
		AvgGlucoseLevel: r.avgGlucoseLevel,
		BMI:             r.bmi,
		Gender:          string(r.gender),
		SmokingStatus:   string(r.smokingStatus),
	}
}
