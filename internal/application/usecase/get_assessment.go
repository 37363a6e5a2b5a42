package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bibhealth/strokerisk/internal/application/dto"
	"github.com/bibhealth/strokerisk/internal/domain/port"
)

// GetAssessment is the use case for retrieving a recorded assessment.
type GetAssessment struct {
	repo port.AssessmentRepository
}

// NewGetAssessment creates a new GetAssessment use case. repo may be nil when
// the audit trail is disabled.
func NewGetAssessment(repo port.AssessmentRepository) *GetAssessment {
	return &GetAssessment{repo: repo}
}

// Execute retrieves an assessment by ID, including the patient attributes.
func (uc *GetAssessment) Execute(ctx context.Context, id uuid.UUID) (dto.AssessmentResponse, error) {
	if uc.repo == nil {
		return dto.AssessmentResponse{}, ErrAuditDisabled
	}

	assessment, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("failed to find assessment: %w", err)
	}
	if assessment == nil {
		return dto.AssessmentResponse{}, fmt.Errorf("%w: %s", ErrAssessmentNotFound, id)
	}

	return dto.FromModel(assessment, true).WithPatient(assessment), nil
}
