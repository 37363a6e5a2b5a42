package rest

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/bibhealth/strokerisk/internal/application/dto"
	"github.com/bibhealth/strokerisk/internal/application/usecase"
	"github.com/bibhealth/strokerisk/internal/domain/model"
	"github.com/bibhealth/strokerisk/internal/domain/valueobject"
)

//go:embed templates/form.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/form.html"))

// Form defaults.
const (
	DefaultFormAge     = 40
	DefaultFormGlucose = 100.0
	DefaultFormBMI     = 25.0
	DefaultFormModel   = "lda_tuned_model.json"
)

// FormValues are the raw field values echoed back into the form.
type FormValues struct {
	Model           string
	Policy          string
	LowBound        string
	MedBound        string
	Gender          string
	SmokingStatus   string
	Age             string
	AvgGlucoseLevel string
	BMI             string
	Hypertension    bool
	HeartDisease    bool
}

type formPage struct {
	Form            FormValues
	Result          *dto.AssessmentResponse
	Hint            string
	Errors          []string
	Policies        []string
	Genders         []model.Gender
	SmokingStatuses []model.SmokingStatus
}

// FormHandler serves the patient form and renders its result.
type FormHandler struct {
	assessRisk *usecase.AssessRisk
	defaults   FormValues
	logger     *slog.Logger
}

// NewFormHandler creates the form handler. defaultPolicy and thresholds seed
// the banding fields.
func NewFormHandler(assessRisk *usecase.AssessRisk, defaultPolicy string, thresholds valueobject.RiskThresholds, logger *slog.Logger) *FormHandler {
	if defaultPolicy == "" {
		defaultPolicy = valueobject.PolicyQualitative
	}
	d := FormValues{
		Model:           DefaultFormModel,
		Policy:          defaultPolicy,
		Gender:          string(model.GenderMale),
		SmokingStatus:   string(model.SmokingNever),
		Age:             strconv.Itoa(DefaultFormAge),
		AvgGlucoseLevel: strconv.FormatFloat(DefaultFormGlucose, 'f', 1, 64),
		BMI:             strconv.FormatFloat(DefaultFormBMI, 'f', 1, 64),
	}
	if !thresholds.IsZero() {
		d.LowBound = strconv.FormatFloat(thresholds.Low(), 'f', -1, 64)
		d.MedBound = strconv.FormatFloat(thresholds.Med(), 'f', -1, 64)
	}
	return &FormHandler{assessRisk: assessRisk, defaults: d, logger: logger}
}

// RegisterRoutes registers GET / and POST /predict.
func (h *FormHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Show).Methods("GET")
	router.HandleFunc("/predict", h.Predict).Methods("POST")
}

// Show renders the empty form.
func (h *FormHandler) Show(w http.ResponseWriter, _ *http.Request) {
	h.render(w, http.StatusOK, h.page(h.defaults))
}

// Predict scores the submitted form and renders the outcome below it.
func (h *FormHandler) Predict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		page := h.page(h.defaults)
		page.Errors = []string{"could not read form: " + err.Error()}
		h.render(w, http.StatusBadRequest, page)
		return
	}

	values := h.readValues(r)
	page := h.page(values)

	req, parseErrs := parseForm(values, r)
	if len(parseErrs) > 0 {
		page.Errors = parseErrs
		h.render(w, http.StatusBadRequest, page)
		return
	}
	resp, err := h.assessRisk.Execute(r.Context(), req)
	if err != nil {
		status, body := statusFor(err)
		page.Errors, page.Hint = formErrors(err, body)
		if status >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "form prediction failed", slog.String("error", err.Error()))
		}
		h.render(w, status, page)
		return
	}

	page.Result = &resp
	h.render(w, http.StatusOK, page)
}

func (h *FormHandler) page(values FormValues) formPage {
	return formPage{
		Form:            values,
		Policies:        []string{valueobject.PolicyQualitative, valueobject.PolicyThreshold},
		Genders:         model.Genders,
		SmokingStatuses: model.SmokingStatuses,
	}
}

func (h *FormHandler) readValues(r *http.Request) FormValues {
	field := func(name, fallback string) string {
		if v := strings.TrimSpace(r.PostForm.Get(name)); v != "" {
			return v
		}
		return fallback
	}
	flag := func(name string) bool {
		f, _ := dto.ParseFlag(r.PostForm.Get(name))
		return bool(f)
	}
	return FormValues{
		Model:           field("model", ""),
		Policy:          field("policy", h.defaults.Policy),
		LowBound:        field("low_bound", ""),
		MedBound:        field("med_bound", ""),
		Gender:          field("gender", ""),
		SmokingStatus:   field("smoking_status", ""),
		Age:             field("age", ""),
		AvgGlucoseLevel: field("avg_glucose_level", ""),
		BMI:             field("bmi", ""),
		Hypertension:    flag("hypertension"),
		HeartDisease:    flag("heart_disease"),
	}
}

// parseForm converts the text fields into a request. Every unparsable field
// is reported.
func parseForm(v FormValues, r *http.Request) (dto.AssessRiskRequest, []string) {
	var errs []string
	req := dto.AssessRiskRequest{
		ModelRef:      v.Model,
		Policy:        v.Policy,
		Gender:        v.Gender,
		SmokingStatus: v.SmokingStatus,
	}

	if age, err := strconv.Atoi(v.Age); err != nil {
		errs = append(errs, fmt.Sprintf("age must be a whole number, got %q", v.Age))
	} else {
		req.Age = age
	}

	parseFloat := func(name, raw string, dst *float64) {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be a number, got %q", name, raw))
			return
		}
		*dst = f
	}
	parseFloat(model.FeatureAvgGlucoseLevel, v.AvgGlucoseLevel, &req.AvgGlucoseLevel)
	parseFloat(model.FeatureBMI, v.BMI, &req.BMI)

	// A blank flag stays nil and is reported as required by the use case.
	for _, flag := range []struct {
		name string
		dst  **dto.Flag
	}{
		{model.FeatureHypertension, &req.Hypertension},
		{model.FeatureHeartDisease, &req.HeartDisease},
	} {
		f, err := dto.ParseFlag(r.PostForm.Get(flag.name))
		if errors.Is(err, dto.ErrEmptyFlag) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", flag.name, err))
			continue
		}
		*flag.dst = &f
	}

	if v.Policy == valueobject.PolicyThreshold {
		for _, b := range []struct {
			name string
			raw  string
			dst  **float64
		}{
			{"low_bound", v.LowBound, &req.LowBound},
			{"med_bound", v.MedBound, &req.MedBound},
		} {
			if b.raw == "" {
				continue
			}
			var f float64
			parseFloat(b.name, b.raw, &f)
			*b.dst = &f
		}
	}

	return req, errs
}

func formErrors(err error, body ErrorResponse) ([]string, string) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Violations, ""
	}
	switch body.Error {
	case "input_mismatch", "model_unavailable":
		return []string{body.Message}, body.Hint
	default:
		return []string{"prediction failed, see server logs"}, ""
	}
}

func (h *FormHandler) render(w http.ResponseWriter, status int, page formPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formTemplate.Execute(w, page); err != nil {
		h.logger.Error("failed to render form", slog.String("error", err.Error()))
	}
}
