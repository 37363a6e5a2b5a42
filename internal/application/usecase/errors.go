package usecase

import (
	"errors"

	"github.com/bibhealth/strokerisk/internal/domain/model"
)

var (
	// ErrAuditDisabled is returned by queries when no repository is configured.
	ErrAuditDisabled = errors.New("audit trail is disabled")

	// ErrAssessmentNotFound is returned when no recorded assessment has the requested id.
	ErrAssessmentNotFound = errors.New("assessment not found")
)

// Failure kinds reported to MetricsRecorder.
const (
	FailureValidation    = "validation"
	FailureInputMismatch = "input_mismatch"
	FailureModelLoad     = "model_load"
	FailureOther         = "other"
)

// FailureKind classifies err for metrics and logs.
func FailureKind(err error) string {
	var (
		validationErr *model.ValidationError
		mismatchErr   *model.InputMismatchError
		loadErr       *model.ModelLoadError
	)
	switch {
	case errors.As(err, &validationErr):
		return FailureValidation
	case errors.As(err, &mismatchErr):
		return FailureInputMismatch
	case errors.As(err, &loadErr):
		return FailureModelLoad
	default:
		return FailureOther
	}
}
