package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/bibhealth/strokerisk/internal/application/dto"
	"github.com/bibhealth/strokerisk/internal/application/usecase"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// AssessmentHandler serves the JSON assessment API.
type AssessmentHandler struct {
	assessRisk      *usecase.AssessRisk
	getAssessment   *usecase.GetAssessment
	listAssessments *usecase.ListAssessments
	invalidateModel *usecase.InvalidateModel
	logger          *slog.Logger
}

// NewAssessmentHandler creates a new JSON API handler.
func NewAssessmentHandler(
	assessRisk *usecase.AssessRisk,
	getAssessment *usecase.GetAssessment,
	listAssessments *usecase.ListAssessments,
	invalidateModel *usecase.InvalidateModel,
	logger *slog.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		assessRisk:      assessRisk,
		getAssessment:   getAssessment,
		listAssessments: listAssessments,
		invalidateModel: invalidateModel,
		logger:          logger,
	}
}

// RegisterRoutes registers the assessment API on api, which is expected to be
// the /api/v1 subrouter. admin wraps routes reserved to administrators.
func (h *AssessmentHandler) RegisterRoutes(api *mux.Router, admin func(http.Handler) http.Handler) {
	api.HandleFunc("/assessments", h.Assess).Methods("POST")
	api.HandleFunc("/assessments", h.List).Methods("GET")
	api.HandleFunc("/assessments/{id}", h.Get).Methods("GET")

	invalidate := http.Handler(http.HandlerFunc(h.InvalidateModel))
	if admin != nil {
		invalidate = admin(invalidate)
	}
	api.Handle("/models/invalidate", invalidate).Methods("POST")
}

// Assess scores one patient record.
// POST /api/v1/assessments
func (h *AssessmentHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req dto.AssessRiskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}

	resp, err := h.assessRisk.Execute(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if resp.Recorded {
		status = http.StatusCreated
	}
	respondJSON(w, status, resp)
}

// Get returns one recorded assessment.
// GET /api/v1/assessments/{id}
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid assessment id")
		return
	}

	resp, err := h.getAssessment.Execute(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// List returns the most recent recorded assessments.
// GET /api/v1/assessments?limit=20
func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "limit must be an integer")
			return
		}
		limit = n
	}

	resp, err := h.listAssessments.Execute(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// InvalidateModel drops cached classifiers.
// POST /api/v1/models/invalidate
func (h *AssessmentHandler) InvalidateModel(w http.ResponseWriter, r *http.Request) {
	var req dto.InvalidateModelRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
			return
		}
	}
	respondJSON(w, http.StatusOK, h.invalidateModel.Execute(r.Context(), req))
}

func (h *AssessmentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	respondJSON(w, status, body)
}
