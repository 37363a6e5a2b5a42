package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibhealth/strokerisk/internal/application/dto"
	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/internal/domain/port"
	"github.com/bibhealth/strokerisk/internal/domain/service"
	"github.com/bibhealth/strokerisk/internal/domain/valueobject"
)

const tracerName = "github.com/bibhealth/strokerisk/internal/application/usecase"

// PolicyConfig holds the banding defaults applied when a request does not
// choose its own.
type PolicyConfig struct {
	Default    string
	Thresholds valueobject.RiskThresholds
}

// AssessRisk is the use case for scoring one patient record.
type AssessRisk struct {
	provider        port.ClassifierProvider
	scorer          *service.RiskScorer
	repo            port.AssessmentRepository
	keepEvents      bool
	metrics         MetricsRecorder
	logger          *slog.Logger
	tracer          trace.Tracer
	policies        PolicyConfig
	defaultModelRef string
}

// Option configures optional collaborators of AssessRisk.
type Option func(*AssessRisk)

// WithAuditTrail records every assessment in repo.
func WithAuditTrail(repo port.AssessmentRepository) Option {
	return func(uc *AssessRisk) {
		uc.repo = repo
	}
}

// WithEventOutbox keeps the domain events on the assessment so Save writes
// them to the outbox with it. Without it the events are dropped.
func WithEventOutbox() Option {
	return func(uc *AssessRisk) {
		uc.keepEvents = true
	}
}

// WithMetrics reports outcomes to m.
func WithMetrics(m MetricsRecorder) Option {
	return func(uc *AssessRisk) {
		if m != nil {
			uc.metrics = m
		}
	}
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(uc *AssessRisk) {
		if l != nil {
			uc.logger = l
		}
	}
}

// NewAssessRisk creates a new AssessRisk use case.
func NewAssessRisk(
	provider port.ClassifierProvider,
	scorer *service.RiskScorer,
	policies PolicyConfig,
	defaultModelRef string,
	opts ...Option,
) *AssessRisk {
	uc := &AssessRisk{
		provider:        provider,
		scorer:          scorer,
		policies:        policies,
		defaultModelRef: defaultModelRef,
		metrics:         nopMetrics{},
		logger:          slog.Default(),
		tracer:          otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// AuditEnabled reports whether assessments are recorded.
func (uc *AssessRisk) AuditEnabled() bool {
	return uc.repo != nil
}

// DefaultModelRef is the reference used when a request names none.
func (uc *AssessRisk) DefaultModelRef() string {
	return uc.defaultModelRef
}

// Execute validates the request, scores it and, when the audit trail is
// enabled, records the assessment together with its events.
func (uc *AssessRisk) Execute(ctx context.Context, req dto.AssessRiskRequest) (dto.AssessmentResponse, error) {
	ctx, span := uc.tracer.Start(ctx, "AssessRisk.Execute")
	defer span.End()

	start := time.Now()
	resp, err := uc.execute(ctx, req)
	if err != nil {
		kind := FailureKind(err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, kind)
		uc.metrics.RecordFailure(ctx, kind)
		return dto.AssessmentResponse{}, err
	}

	span.SetAttributes(
		attribute.String("strokerisk.band", resp.Band),
		attribute.String("strokerisk.policy", resp.Policy),
		attribute.String("strokerisk.model", resp.ModelRef),
	)
	uc.metrics.RecordAssessment(ctx, resp.Policy, resp.Band, resp.Probability, time.Since(start))
	return resp, nil
}

func (uc *AssessRisk) execute(ctx context.Context, req dto.AssessRiskRequest) (dto.AssessmentResponse, error) {
	// 1. Validate the record and the banding choice together.
	input := req.FeatureInput()
	policy, policyViolations := uc.resolvePolicy(req)
	ref, refViolations := uc.resolveModelRef(req)
	violations := append(req.Missing(), input.Violations()...)
	violations = append(violations, policyViolations...)
	violations = append(violations, refViolations...)
	if verr := model.NewValidationError(violations...); verr != nil {
		return dto.AssessmentResponse{}, verr
	}

	record, err := model.NewFeatureRecord(input)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	// 2. Resolve the classifier.
	clf, err := uc.provider.Get(ctx, ref)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	// 3. Score and band.
	result, err := uc.scorer.Assess(ctx, record, clf, policy)
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("failed to score record: %w", err)
	}

	assessment, err := model.NewRiskAssessment(record, result, policy, ref, clf.Name())
	if err != nil {
		return dto.AssessmentResponse{}, fmt.Errorf("failed to create assessment: %w", err)
	}

	// 4. Audit trail.
	recorded := false
	if uc.repo != nil {
		if !uc.keepEvents {
			assessment.ClearEvents()
		}
		if err := uc.repo.Save(ctx, assessment); err != nil {
			return dto.AssessmentResponse{}, fmt.Errorf("failed to save assessment: %w", err)
		}
		recorded = true
	}

	uc.logger.InfoContext(ctx, "record assessed",
		slog.String("assessment_id", assessment.ID().String()),
		slog.String("model", ref),
		slog.String("policy", policy.Name()),
		slog.String("band", result.Band.String()),
		slog.Bool("recorded", recorded),
	)

	return dto.FromModel(assessment, recorded), nil
}

// resolveModelRef returns the configured default, or the request's own
// reference once it is confined to the model directories.
func (uc *AssessRisk) resolveModelRef(req dto.AssessRiskRequest) (string, []string) {
	if req.ModelRef == "" {
		return uc.defaultModelRef, nil
	}
	return model.NormalizeRequestRef(req.ModelRef)
}

// resolvePolicy picks the banding policy for req. Bounds supplied without a
// policy name select the threshold policy. Threshold bounds missing from the
// request fall back to the configured ones.
func (uc *AssessRisk) resolvePolicy(req dto.AssessRiskRequest) (valueobject.BandPolicy, []string) {
	name := req.Policy
	if name == "" {
		if req.LowBound != nil || req.MedBound != nil {
			name = valueobject.PolicyThreshold
		} else {
			name = uc.policies.Default
		}
	}

	switch name {
	case valueobject.PolicyQualitative:
		return valueobject.QualitativePolicy{}, nil
	case valueobject.PolicyThreshold:
		low, med := uc.policies.Thresholds.Low(), uc.policies.Thresholds.Med()
		if req.LowBound != nil {
			low = *req.LowBound
		}
		if req.MedBound != nil {
			med = *req.MedBound
		}
		thresholds, err := valueobject.NewRiskThresholds(low, med)
		if err != nil {
			return nil, valueobject.ThresholdViolations(low, med)
		}
		return valueobject.NewThresholdPolicy(thresholds), nil
	default:
		return nil, []string{fmt.Sprintf("policy must be one of %s, %s, got %q",
			valueobject.PolicyQualitative, valueobject.PolicyThreshold, name)}
	}
}
