package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/internal/domain/valueobject"
	"github.com/bibhealth/strokerisk/pkg/events"
	pgutil "github.com/bibhealth/strokerisk/pkg/postgres"
)

const selectColumns = `
	SELECT id, age, hypertension, heart_disease, avg_glucose_level, bmi,
		gender, smoking_status, probability, band, policy,
		model_ref, model_name, assessed_at
	FROM risk_assessments
`

// AssessmentRepository implements port.AssessmentRepository using PostgreSQL.
type AssessmentRepository struct {
	db pgutil.DB
}

// NewAssessmentRepository creates a new PostgreSQL-backed assessment repository.
// db is usually a *pgxpool.Pool.
func NewAssessmentRepository(db pgutil.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Save persists an assessment and writes its pending domain events to the
// outbox in the same transaction. Assessments are immutable, so saving the
// same id twice keeps the first row and stores no events.
func (r *AssessmentRepository) Save(ctx context.Context, a *model.RiskAssessment) error {
	entries, err := events.NewOutboxEntries(a.Events())
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}

	err = pgutil.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		inserted, err := insertAssessment(ctx, tx, a)
		if err != nil || !inserted {
			return err
		}
		return NewOutboxRepository(tx).Store(ctx, entries)
	})
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

func insertAssessment(ctx context.Context, q pgutil.Querier, a *model.RiskAssessment) (bool, error) {
	query := `
		INSERT INTO risk_assessments (
			id, age, hypertension, heart_disease, avg_glucose_level, bmi,
			gender, smoking_status, probability, band, policy,
			model_ref, model_name, assessed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`

	f := a.Features()
	tag, err := q.Exec(ctx, query,
		a.ID(),
		f.Age(),
		f.Hypertension(),
		f.HeartDisease(),
		f.AvgGlucoseLevel(),
		f.BMI(),
		string(f.Gender()),
		string(f.SmokingStatus()),
		a.Probability().Float64(),
		a.Band().String(),
		a.Policy(),
		a.ModelRef(),
		a.ModelName(),
		a.AssessedAt(),
	)
	if err != nil {
		return false, fmt.Errorf("insert assessment: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// FindByID retrieves an assessment by its unique identifier. It returns nil,
// nil when no row matches.
func (r *AssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RiskAssessment, error) {
	assessment, err := scanAssessment(r.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return assessment, nil
}

// ListRecent returns up to limit assessments, newest first.
func (r *AssessmentRepository) ListRecent(ctx context.Context, limit int) ([]*model.RiskAssessment, error) {
	rows, err := r.db.Query(ctx, selectColumns+` ORDER BY assessed_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	assessments := make([]*model.RiskAssessment, 0, limit)
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessments: %w", err)
	}

	return assessments, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row scanner) (*model.RiskAssessment, error) {
	var (
		id         uuid.UUID
		in         model.FeatureInput
		p          float64
		band       string
		policy     string
		modelRef   string
		modelName  string
		assessedAt time.Time
	)

	err := row.Scan(
		&id, &in.Age, &in.Hypertension, &in.HeartDisease, &in.AvgGlucoseLevel, &in.BMI,
		&in.Gender, &in.SmokingStatus, &p, &band, &policy,
		&modelRef, &modelName, &assessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	return reconstructAssessment(id, in, p, band, policy, modelRef, modelName, assessedAt)
}

// reconstructAssessment maps raw column values back into the aggregate.
func reconstructAssessment(
	id uuid.UUID,
	in model.FeatureInput,
	p float64,
	band, policy, modelRef, modelName string,
	assessedAt time.Time,
) (*model.RiskAssessment, error) {
	probability, err := valueobject.NewProbability(p)
	if err != nil {
		return nil, fmt.Errorf("failed to parse probability: %w", err)
	}

	riskBand, err := valueobject.RiskBandFromString(band)
	if err != nil {
		return nil, fmt.Errorf("failed to parse band: %w", err)
	}

	return model.ReconstructRiskAssessment(
		id,
		model.ReconstructFeatureRecord(in),
		probability,
		riskBand,
		policy, modelRef, modelName,
		assessedAt.UTC(),
	), nil
}
