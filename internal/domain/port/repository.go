package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/pkg/events"
)

// AssessmentRepository defines the persistence port for the audit trail.
type AssessmentRepository interface {
	// Save persists a new assessment together with its pending domain
	// events, atomically. Assessments are never updated.
	Save(ctx context.Context, assessment *model.RiskAssessment) error

	// FindByID retrieves an assessment by its unique identifier.
	// It returns (nil, nil) when no assessment has that id.
	FindByID(ctx context.Context, id uuid.UUID) (*model.RiskAssessment, error)

	// ListRecent returns the most recent assessments, newest first.
	ListRecent(ctx context.Context, limit int) ([]*model.RiskAssessment, error)
}

// EventPublisher defines the port the outbox relay publishes through.
type EventPublisher interface {
	// Publish sends one or more stored events to the messaging infrastructure.
	Publish(ctx context.Context, entries ...events.OutboxEntry) error
}
