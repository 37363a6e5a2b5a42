package model

import (
	"fmt"
	"strings"
)

// ValidationError reports every implausible input of a request at once.
// Scoring never runs when one is returned.
type ValidationError struct {
	Violations []string
}

// NewValidationError returns nil when there are no violations.
func NewValidationError(violations ...string) *ValidationError {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// InputMismatchError means the record cannot be encoded into the feature
// layout the classifier was trained on.
type InputMismatchError struct {
	Column string
	Reason string
}

func (e *InputMismatchError) Error() string {
	return fmt.Sprintf("input does not match model schema at column %q: %s", e.Column, e.Reason)
}

// Hint suggests the usual remedy for a mismatch.
func (e *InputMismatchError) Hint() string {
	return "use a model artifact whose feature schema matches the transforms applied at training time " +
		"(column names, category sets and binary encoding), or retrain with a preprocessing pipeline"
}

// ModelLoadError wraps any failure to obtain a usable classifier from a
// reference: missing file, unreadable document, unknown kind.
type ModelLoadError struct {
	Err error
	Ref string
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %q: %v", e.Ref, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// PublicMessage describes the failure without the underlying cause, which may
// name files or parser internals.
func (e *ModelLoadError) PublicMessage() string {
	return fmt.Sprintf("model %q could not be loaded", e.Ref)
}
