package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/bibhealth/strokerisk/internal/application/usecase"
	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/internal/domain/port"
	"github.com/bibhealth/strokerisk/internal/domain/service"
	"github.com/bibhealth/strokerisk/internal/domain/valueobject"
)

const testModelRef = "lda_tuned_model.json"

type fakeClassifier struct {
	schema model.FeatureSchema
	p      float64
	calls  int
}

func (c *fakeClassifier) Name() string                { return "lda_tuned" }
func (c *fakeClassifier) Schema() model.FeatureSchema { return c.schema }

func (c *fakeClassifier) PredictProba(context.Context, model.Row) ([]float64, error) {
	c.calls++
	return []float64{1 - c.p, c.p}, nil
}

type fakeProvider struct {
	models      map[string]port.Classifier
	invalidated []string
}

func (f *fakeProvider) Get(_ context.Context, ref string) (port.Classifier, error) {
	if clf, ok := f.models[ref]; ok {
		return clf, nil
	}
	return nil, &model.ModelLoadError{Ref: ref, Err: errors.New("artifact not found")}
}

func (f *fakeProvider) Invalidate(ref string) bool {
	f.invalidated = append(f.invalidated, ref)
	_, ok := f.models[ref]
	return ok
}

func (f *fakeProvider) InvalidateAll() int { return len(f.models) }

type memoryRepository struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.RiskAssessment
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{byID: make(map[uuid.UUID]*model.RiskAssessment)}
}

func (r *memoryRepository) Save(_ context.Context, a *model.RiskAssessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.ID()] = a
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id uuid.UUID) (*model.RiskAssessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memoryRepository) ListRecent(_ context.Context, limit int) ([]*model.RiskAssessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.RiskAssessment, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssessedAt().After(out[j].AssessedAt()) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	classifier *fakeClassifier
	provider   *fakeProvider
	repo       *memoryRepository
	assess     *usecase.AssessRisk
	handler    *AssessmentHandler
	form       *FormHandler
}

// newTestEnv wires real use cases over fakes. A nil repo disables the audit trail.
func newTestEnv(repo *memoryRepository) *testEnv {
	clf := &fakeClassifier{schema: model.DefaultFeatureSchema(), p: 0.82}
	mismatched, _ := model.NewFeatureSchema(model.Column{
		Name: "work_type", Kind: model.ColumnCategorical, Categories: []string{"Private"},
	})
	provider := &fakeProvider{models: map[string]port.Classifier{
		testModelRef:     clf,
		"work_type.json": &fakeClassifier{schema: mismatched, p: 0.5},
	}}

	thresholds, _ := valueobject.NewRiskThresholds(0.20, 0.50)
	policies := usecase.PolicyConfig{Default: valueobject.PolicyQualitative, Thresholds: thresholds}

	opts := []usecase.Option{usecase.WithLogger(discardLogger())}
	var repoPort port.AssessmentRepository
	if repo != nil {
		repoPort = repo
		opts = append(opts, usecase.WithAuditTrail(repo))
	}

	assess := usecase.NewAssessRisk(provider, service.NewRiskScorer(), policies, testModelRef, opts...)
	handler := NewAssessmentHandler(
		assess,
		usecase.NewGetAssessment(repoPort),
		usecase.NewListAssessments(repoPort),
		usecase.NewInvalidateModel(provider, testModelRef, discardLogger()),
		discardLogger(),
	)

	return &testEnv{
		classifier: clf,
		provider:   provider,
		repo:       repo,
		assess:     assess,
		handler:    handler,
		form:       NewFormHandler(assess, valueobject.PolicyQualitative, thresholds, discardLogger()),
	}
}

func slogJSON(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, nil))
}
