package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bibhealth/strokerisk/internal/application/usecase"
	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/internal/domain/port"
	"github.com/bibhealth/strokerisk/internal/domain/service"
	"github.com/bibhealth/strokerisk/internal/domain/valueobject"
	"github.com/bibhealth/strokerisk/pkg/auth"
)

const testModelRef = "lda_tuned_model.json"

// --- Mock implementations ---

type mockClassifier struct {
	schema model.FeatureSchema
	p      float64
}

func (m *mockClassifier) Name() string                { return "lda_tuned" }
func (m *mockClassifier) Schema() model.FeatureSchema { return m.schema }
func (m *mockClassifier) PredictProba(context.Context, model.Row) ([]float64, error) {
	return []float64{1 - m.p, m.p}, nil
}

type mockProvider struct {
	models map[string]port.Classifier
}

func (m *mockProvider) Get(_ context.Context, ref string) (port.Classifier, error) {
	if clf, ok := m.models[ref]; ok {
		return clf, nil
	}
	return nil, &model.ModelLoadError{Ref: ref, Err: errors.New("artifact not found")}
}

func (m *mockProvider) Invalidate(string) bool { return false }
func (m *mockProvider) InvalidateAll() int     { return 0 }

type mockAssessmentRepo struct {
	mu    sync.Mutex
	saved map[uuid.UUID]*model.RiskAssessment
}

func (m *mockAssessmentRepo) Save(_ context.Context, a *model.RiskAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[a.ID()] = a
	return nil
}

func (m *mockAssessmentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RiskAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[id], nil
}

func (m *mockAssessmentRepo) ListRecent(context.Context, int) ([]*model.RiskAssessment, error) {
	return nil, nil
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func contextWithRoles(roles ...string) context.Context {
	return auth.ContextWithClaims(context.Background(), &auth.Claims{UserID: uuid.New(), Roles: roles})
}

func buildTestHandler(t *testing.T) *StrokeRiskHandler {
	t.Helper()
	mismatched, err := model.NewFeatureSchema(model.Column{
		Name: "work_type", Kind: model.ColumnCategorical, Categories: []string{"Private"},
	})
	require.NoError(t, err)
	provider := &mockProvider{models: map[string]port.Classifier{
		testModelRef:     &mockClassifier{schema: model.DefaultFeatureSchema(), p: 0.82},
		"work_type.json": &mockClassifier{schema: mismatched, p: 0.5},
	}}
	repo := &mockAssessmentRepo{saved: make(map[uuid.UUID]*model.RiskAssessment)}

	thresholds, err := valueobject.NewRiskThresholds(0.20, 0.50)
	require.NoError(t, err)
	assess := usecase.NewAssessRisk(provider, service.NewRiskScorer(),
		usecase.PolicyConfig{Default: valueobject.PolicyQualitative, Thresholds: thresholds},
		testModelRef,
		usecase.WithAuditTrail(repo),
		usecase.WithLogger(testLogger()),
	)

	return NewStrokeRiskHandler(assess, usecase.NewGetAssessment(repo), testLogger())
}

func boolPtr(b bool) *bool { return &b }

func validPatient() *PatientMsg {
	return &PatientMsg{
		Age:             67,
		Hypertension:    boolPtr(true),
		HeartDisease:    boolPtr(false),
		AvgGlucoseLevel: 228.7,
		BMI:             36.6,
		Gender:          "Male",
		SmokingStatus:   "formerly smoked",
	}
}

// --- Tests ---

func TestAssessRisk(t *testing.T) {
	handler := buildTestHandler(t)

	resp, err := handler.AssessRisk(contextWithRoles(auth.RoleClinician), &AssessRiskRequest{Patient: validPatient()})

	require.NoError(t, err)
	require.NotNil(t, resp.Assessment)
	assert.Equal(t, "82.00%", resp.Assessment.ProbabilityPct)
	assert.Equal(t, "82.00%", resp.Assessment.ConfidencePct)
	assert.Equal(t, "Highly likely", resp.Assessment.Band)
	assert.True(t, resp.Assessment.Recorded)
	assert.NotEmpty(t, resp.Assessment.ID)
}

func TestAssessRisk_ErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		req      *AssessRiskRequest
		wantCode codes.Code
		wantMsg  string
	}{
		{
			name:     "missing patient",
			ctx:      contextWithRoles(auth.RoleClinician),
			req:      &AssessRiskRequest{},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "implausible glucose",
			ctx:  contextWithRoles(auth.RoleClinician),
			req: func() *AssessRiskRequest {
				p := validPatient()
				p.AvgGlucoseLevel = 0.5
				return &AssessRiskRequest{Patient: p}
			}(),
			wantCode: codes.InvalidArgument,
		},
		{
			name: "omitted flags",
			ctx:  contextWithRoles(auth.RoleClinician),
			req: func() *AssessRiskRequest {
				p := validPatient()
				p.Hypertension = nil
				p.HeartDisease = nil
				return &AssessRiskRequest{Patient: p}
			}(),
			wantCode: codes.InvalidArgument,
			wantMsg:  "hypertension is required; heart_disease is required",
		},
		{
			name:     "absolute model path",
			ctx:      contextWithRoles(auth.RoleClinician),
			req:      &AssessRiskRequest{Patient: validPatient(), Model: "/etc/hostname"},
			wantCode: codes.InvalidArgument,
		},
		{
			name:     "schema mismatch",
			ctx:      contextWithRoles(auth.RoleAPIClient),
			req:      &AssessRiskRequest{Patient: validPatient(), Model: "work_type.json"},
			wantCode: codes.FailedPrecondition,
		},
		{
			name:     "model unavailable",
			ctx:      contextWithRoles(auth.RoleAdmin),
			req:      &AssessRiskRequest{Patient: validPatient(), Model: "missing.json"},
			wantCode: codes.Unavailable,
			wantMsg:  `model "missing.json" could not be loaded`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := buildTestHandler(t)
			_, err := handler.AssessRisk(tt.ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, status.Code(err), err.Error())
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, status.Convert(err).Message())
			}
		})
	}
}

func TestGetAssessment(t *testing.T) {
	handler := buildTestHandler(t)
	created, err := handler.AssessRisk(contextWithRoles(auth.RoleClinician), &AssessRiskRequest{Patient: validPatient()})
	require.NoError(t, err)

	t.Run("auditor reads recorded assessment", func(t *testing.T) {
		resp, err := handler.GetAssessment(contextWithRoles(auth.RoleAuditor), &GetAssessmentRequest{ID: created.Assessment.ID})
		require.NoError(t, err)
		assert.Equal(t, created.Assessment.ID, resp.Assessment.ID)
		require.NotNil(t, resp.Assessment.Patient)
		assert.Equal(t, int32(67), resp.Assessment.Patient.Age)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := handler.GetAssessment(contextWithRoles(auth.RoleAuditor), &GetAssessmentRequest{ID: uuid.NewString()})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := handler.GetAssessment(contextWithRoles(auth.RoleAuditor), &GetAssessmentRequest{ID: "nope"})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestServer_EndToEnd(t *testing.T) {
	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "strokerisk"})
	require.NoError(t, err)
	token, err := jwtService.GenerateToken(uuid.New(), []string{auth.RoleClinician})
	require.NoError(t, err)
	auditorToken, err := jwtService.GenerateToken(uuid.New(), []string{auth.RoleAuditor})
	require.NoError(t, err)
	apiClientToken, err := jwtService.GenerateToken(uuid.New(), []string{auth.RoleAPIClient})
	require.NoError(t, err)

	srv, err := NewServer(buildTestHandler(t), ServerConfig{JWT: jwtService}, testLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()

	t.Run("health needs no token", func(t *testing.T) {
		resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})

	t.Run("assess without token", func(t *testing.T) {
		var resp AssessRiskResponse
		err := conn.Invoke(ctx, AssessRiskMethod, &AssessRiskRequest{Patient: validPatient()}, &resp,
			grpclib.ForceCodec(JSONCodec{}))
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("assess with token", func(t *testing.T) {
		authCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
		var resp AssessRiskResponse
		err := conn.Invoke(authCtx, AssessRiskMethod, &AssessRiskRequest{Patient: validPatient()}, &resp,
			grpclib.ForceCodec(JSONCodec{}))
		require.NoError(t, err)
		require.NotNil(t, resp.Assessment)
		assert.Equal(t, "Highly likely", resp.Assessment.Band)

		var got GetAssessmentResponse
		err = conn.Invoke(authCtx, GetAssessmentMethod, &GetAssessmentRequest{ID: resp.Assessment.ID}, &got,
			grpclib.ForceCodec(JSONCodec{}))
		require.NoError(t, err)
		assert.Equal(t, resp.Assessment.ID, got.Assessment.ID)

		auditorCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+auditorToken)
		err = conn.Invoke(auditorCtx, GetAssessmentMethod, &GetAssessmentRequest{ID: resp.Assessment.ID}, &got,
			grpclib.ForceCodec(JSONCodec{}))
		require.NoError(t, err)

		apiClientCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+apiClientToken)
		err = conn.Invoke(apiClientCtx, GetAssessmentMethod, &GetAssessmentRequest{ID: resp.Assessment.ID}, &got,
			grpclib.ForceCodec(JSONCodec{}))
		assert.Equal(t, codes.PermissionDenied, status.Code(err), "api client may not read")
	})

	t.Run("auditor may not score", func(t *testing.T) {
		auditorCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+auditorToken)
		var resp AssessRiskResponse
		err := conn.Invoke(auditorCtx, AssessRiskMethod, &AssessRiskRequest{Patient: validPatient()}, &resp,
			grpclib.ForceCodec(JSONCodec{}))
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("api client may score", func(t *testing.T) {
		apiClientCtx := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+apiClientToken)
		var resp AssessRiskResponse
		err := conn.Invoke(apiClientCtx, AssessRiskMethod, &AssessRiskRequest{Patient: validPatient()}, &resp,
			grpclib.ForceCodec(JSONCodec{}))
		require.NoError(t, err)
		assert.Equal(t, "Highly likely", resp.Assessment.Band)
	})
}

func TestServer_WithoutAuthAllowsAnonymousCalls(t *testing.T) {
	srv, err := NewServer(buildTestHandler(t), ServerConfig{}, testLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var resp AssessRiskResponse
	err = conn.Invoke(context.Background(), AssessRiskMethod, &AssessRiskRequest{Patient: validPatient()}, &resp,
		grpclib.ForceCodec(JSONCodec{}))
	require.NoError(t, err)
	assert.True(t, resp.Assessment.Recorded)
}

func TestNewServer_BadTLS(t *testing.T) {
	_, err := NewServer(buildTestHandler(t), ServerConfig{TLSCertFile: "nope.pem", TLSKeyFile: "nope-key.pem"}, testLogger())
	require.Error(t, err)
}
