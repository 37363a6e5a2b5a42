package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bibhealth/strokerisk/internal/application/usecase"
	"github.com/bibhealth/strokerisk/internal/domain/model"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Message    string   `json:"message,omitempty"`
	Hint       string   `json:"hint,omitempty"`
	Column     string   `json:"column,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// statusFor maps a use case error to its HTTP status and JSON body.
func statusFor(err error) (int, ErrorResponse) {
	var (
		validationErr *model.ValidationError
		mismatchErr   *model.InputMismatchError
		loadErr       *model.ModelLoadError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, ErrorResponse{
			Error:      "validation_failed",
			Violations: validationErr.Violations,
		}
	case errors.As(err, &mismatchErr):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "input_mismatch",
			Message: mismatchErr.Error(),
			Column:  mismatchErr.Column,
			Hint:    mismatchErr.Hint(),
		}
	case errors.As(err, &loadErr):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error:   "model_unavailable",
			Message: loadErr.PublicMessage(),
		}
	case errors.Is(err, usecase.ErrAssessmentNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()}
	case errors.Is(err, usecase.ErrAuditDisabled):
		return http.StatusNotImplemented, ErrorResponse{Error: "audit_disabled", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal_error"}
	}
}
