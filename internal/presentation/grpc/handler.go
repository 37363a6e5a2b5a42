package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibhealth/strokerisk/internal/application/dto"
	"github.com/bibhealth/strokerisk/internal/application/usecase"
	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/pkg/auth"
)

// Compile-time assertion that StrokeRiskHandler implements StrokeRiskServiceServer.
var _ StrokeRiskServiceServer = (*StrokeRiskHandler)(nil)

// StrokeRiskHandler implements the gRPC StrokeRiskServiceServer interface.
type StrokeRiskHandler struct {
	UnimplementedStrokeRiskServiceServer
	assessRisk    *usecase.AssessRisk
	getAssessment *usecase.GetAssessment
	logger        *slog.Logger
}

// MethodRoles lists the roles allowed to call each method when the server
// authenticates callers.
var MethodRoles = map[string][]string{
	AssessRiskMethod:    {auth.RoleAdmin, auth.RoleClinician, auth.RoleAPIClient},
	GetAssessmentMethod: {auth.RoleAdmin, auth.RoleClinician, auth.RoleAuditor},
}

// NewStrokeRiskHandler creates a new gRPC handler.
func NewStrokeRiskHandler(
	assessRisk *usecase.AssessRisk,
	getAssessment *usecase.GetAssessment,
	logger *slog.Logger,
) *StrokeRiskHandler {
	return &StrokeRiskHandler{
		assessRisk:    assessRisk,
		getAssessment: getAssessment,
		logger:        logger,
	}
}

// Message types.

// PatientMsg carries the seven patient attributes. The flags are pointers so
// an omitted flag is reported instead of read as false.
type PatientMsg struct {
	Gender          string  `json:"gender"`
	SmokingStatus   string  `json:"smoking_status"`
	AvgGlucoseLevel float64 `json:"avg_glucose_level"`
	BMI             float64 `json:"bmi"`
	Age             int32   `json:"age"`
	Hypertension    *bool   `json:"hypertension"`
	HeartDisease    *bool   `json:"heart_disease"`
}

// AssessRiskRequest is the AssessRisk request message.
type AssessRiskRequest struct {
	Patient  *PatientMsg `json:"patient"`
	LowBound *float64    `json:"low_bound,omitempty"`
	MedBound *float64    `json:"med_bound,omitempty"`
	Model    string      `json:"model,omitempty"`
	Policy   string      `json:"policy,omitempty"`
}

// AssessmentMsg is one scored assessment.
type AssessmentMsg struct {
	Patient        *PatientMsg `json:"patient,omitempty"`
	ID             string      `json:"id"`
	ProbabilityPct string      `json:"probability_pct"`
	ConfidencePct  string      `json:"confidence_pct"`
	Band           string      `json:"band"`
	Policy         string      `json:"policy"`
	Model          string      `json:"model"`
	ModelName      string      `json:"model_name"`
	AssessedAt     string      `json:"assessed_at"`
	Probability    float64     `json:"probability"`
	Confidence     float64     `json:"confidence"`
	Recorded       bool        `json:"recorded"`
}

// AssessRiskResponse is the AssessRisk response message.
type AssessRiskResponse struct {
	Assessment *AssessmentMsg `json:"assessment"`
}

// GetAssessmentRequest is the GetAssessment request message.
type GetAssessmentRequest struct {
	ID string `json:"id"`
}

// GetAssessmentResponse is the GetAssessment response message.
type GetAssessmentResponse struct {
	Assessment *AssessmentMsg `json:"assessment"`
}

// AssessRisk scores one patient record.
func (h *StrokeRiskHandler) AssessRisk(ctx context.Context, req *AssessRiskRequest) (*AssessRiskResponse, error) {
	if req == nil || req.Patient == nil {
		return nil, status.Error(codes.InvalidArgument, "patient is required")
	}

	p := req.Patient
	resp, err := h.assessRisk.Execute(ctx, dto.AssessRiskRequest{
		Age:             int(p.Age),
		Hypertension:    flagOf(p.Hypertension),
		HeartDisease:    flagOf(p.HeartDisease),
		AvgGlucoseLevel: p.AvgGlucoseLevel,
		BMI:             p.BMI,
		Gender:          p.Gender,
		SmokingStatus:   p.SmokingStatus,
		ModelRef:        req.Model,
		Policy:          req.Policy,
		LowBound:        req.LowBound,
		MedBound:        req.MedBound,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "AssessRisk", err)
	}

	return &AssessRiskResponse{Assessment: toAssessmentMsg(resp)}, nil
}

// GetAssessment returns a recorded assessment.
func (h *StrokeRiskHandler) GetAssessment(ctx context.Context, req *GetAssessmentRequest) (*GetAssessmentResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id: %v", err)
	}

	resp, err := h.getAssessment.Execute(ctx, id)
	if err != nil {
		return nil, h.toStatus(ctx, "GetAssessment", err)
	}

	return &GetAssessmentResponse{Assessment: toAssessmentMsg(resp)}, nil
}

func flagOf(b *bool) *dto.Flag {
	if b == nil {
		return nil
	}
	return dto.NewFlag(*b)
}

// toStatus maps a use case error onto a gRPC status.
func (h *StrokeRiskHandler) toStatus(ctx context.Context, method string, err error) error {
	var (
		validationErr *model.ValidationError
		mismatchErr   *model.InputMismatchError
		loadErr       *model.ModelLoadError
	)
	switch {
	case errors.As(err, &validationErr):
		return status.Error(codes.InvalidArgument, strings.Join(validationErr.Violations, "; "))
	case errors.As(err, &mismatchErr):
		return status.Errorf(codes.FailedPrecondition, "%s; %s", mismatchErr.Error(), mismatchErr.Hint())
	case errors.As(err, &loadErr):
		h.logger.WarnContext(ctx, "model unavailable",
			slog.String("method", method),
			slog.String("error", err.Error()),
		)
		return status.Error(codes.Unavailable, loadErr.PublicMessage())
	case errors.Is(err, usecase.ErrAssessmentNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, usecase.ErrAuditDisabled):
		return status.Error(codes.Unimplemented, err.Error())
	default:
		h.logger.ErrorContext(ctx, "rpc failed",
			slog.String("method", method),
			slog.String("error", err.Error()),
		)
		return status.Error(codes.Internal, "internal error")
	}
}

func toAssessmentMsg(resp dto.AssessmentResponse) *AssessmentMsg {
	msg := &AssessmentMsg{
		ID:             resp.ID.String(),
		Probability:    resp.Probability,
		ProbabilityPct: resp.ProbabilityPct,
		Confidence:     resp.Confidence,
		ConfidencePct:  resp.ConfidencePct,
		Band:           resp.Band,
		Policy:         resp.Policy,
		Model:          resp.ModelRef,
		ModelName:      resp.ModelName,
		AssessedAt:     resp.AssessedAt.Format(time.RFC3339Nano),
		Recorded:       resp.Recorded,
	}
	if p := resp.Patient; p != nil {
		msg.Patient = &PatientMsg{
			Age:             int32(p.Age),
			Hypertension:    &p.Hypertension,
			HeartDisease:    &p.HeartDisease,
			AvgGlucoseLevel: p.AvgGlucoseLevel,
			BMI:             p.BMI,
			Gender:          p.Gender,
			SmokingStatus:   p.SmokingStatus,
		}
	}
	return msg
}
