package usecase

import (
	"context"
	"fmt"

	"github.com/bibhealth/strokerisk/internal/application/dto"
	"github.com/bibhealth/strokerisk/internal/domain/port"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListAssessments is the use case for browsing the most recent assessments.
type ListAssessments struct {
	repo port.AssessmentRepository
}

// NewListAssessments creates a new ListAssessments use case.
func NewListAssessments(repo port.AssessmentRepository) *ListAssessments {
	return &ListAssessments{repo: repo}
}

// Execute returns up to limit assessments, newest first. A non-positive limit
// means DefaultListLimit; larger values are capped at MaxListLimit.
func (uc *ListAssessments) Execute(ctx context.Context, limit int) (dto.ListAssessmentsResponse, error) {
	if uc.repo == nil {
		return dto.ListAssessmentsResponse{}, ErrAuditDisabled
	}

	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	assessments, err := uc.repo.ListRecent(ctx, limit)
	if err != nil {
		return dto.ListAssessmentsResponse{}, fmt.Errorf("failed to list assessments: %w", err)
	}

	out := make([]dto.AssessmentResponse, 0, len(assessments))
	for _, a := range assessments {
		out = append(out, dto.FromModel(a, true))
	}

	return dto.ListAssessmentsResponse{Assessments: out, Count: len(out)}, nil
}
