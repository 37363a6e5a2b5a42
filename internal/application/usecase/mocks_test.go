package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/internal/domain/port"
	"github.com/bibhealth/strokerisk/pkg/events"
)

// --- Mock implementations ---

type mockClassifier struct {
	p     float64
	calls int
}

func (m *mockClassifier) Name() string                { return "mock-lda" }
func (m *mockClassifier) Schema() model.FeatureSchema { return model.DefaultFeatureSchema() }

func (m *mockClassifier) PredictProba(_ context.Context, _ model.Row) ([]float64, error) {
	m.calls++
	return []float64{1 - m.p, m.p}, nil
}

type mockProvider struct {
	classifier      port.Classifier
	getFunc         func(ctx context.Context, ref string) (port.Classifier, error)
	gotRefs         []string
	invalidated     []string
	invalidateAllN  int
	invalidateFound bool
}

func (m *mockProvider) Get(ctx context.Context, ref string) (port.Classifier, error) {
	m.gotRefs = append(m.gotRefs, ref)
	if m.getFunc != nil {
		return m.getFunc(ctx, ref)
	}
	return m.classifier, nil
}

func (m *mockProvider) Invalidate(ref string) bool {
	m.invalidated = append(m.invalidated, ref)
	return m.invalidateFound
}

func (m *mockProvider) InvalidateAll() int {
	return m.invalidateAllN
}

type mockAssessmentRepository struct {
	savedAssessment *model.RiskAssessment
	savedEvents     []events.DomainEvent
	saveFunc        func(ctx context.Context, assessment *model.RiskAssessment) error
	findByIDFunc    func(ctx context.Context, id uuid.UUID) (*model.RiskAssessment, error)
	listRecentFunc  func(ctx context.Context, limit int) ([]*model.RiskAssessment, error)
}

func (m *mockAssessmentRepository) Save(ctx context.Context, assessment *model.RiskAssessment) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, assessment)
	}
	m.savedAssessment = assessment
	m.savedEvents = assessment.Events()
	return nil
}

func (m *mockAssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RiskAssessment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("assessment not found")
}

func (m *mockAssessmentRepository) ListRecent(ctx context.Context, limit int) ([]*model.RiskAssessment, error) {
	if m.listRecentFunc != nil {
		return m.listRecentFunc(ctx, limit)
	}
	return nil, nil
}

type recordedAssessment struct {
	policy      string
	band        string
	probability float64
}

type mockMetrics struct {
	mu          sync.Mutex
	assessments []recordedAssessment
	failures    []string
}

func (m *mockMetrics) RecordAssessment(_ context.Context, policy, band string, probability float64, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments = append(m.assessments, recordedAssessment{policy: policy, band: band, probability: probability})
}

func (m *mockMetrics) RecordFailure(_ context.Context, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, kind)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
