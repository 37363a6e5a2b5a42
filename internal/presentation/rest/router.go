package rest

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bibhealth/strokerisk/pkg/auth"
)

// RouterConfig collects the handlers and cross-cutting settings of the HTTP
// surface.
type RouterConfig struct {
	Form           *FormHandler
	Assessments    *AssessmentHandler
	Health         *HealthHandler
	Metrics        http.Handler
	JWT            *auth.JWTService
	Logger         *slog.Logger
	RateLimitPerIP int
}

// NewRouter builds the HTTP handler. The API is authenticated when JWT is
// set; health, metrics and the form never are.
func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(router)
	}
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics).Methods("GET")
	}
	if cfg.Form != nil {
		cfg.Form.RegisterRoutes(router)
	}

	if cfg.Assessments != nil {
		api := router.PathPrefix("/api/v1").Subrouter()
		if cfg.RateLimitPerIP > 0 {
			api.Use(PerClientRateLimitMiddleware(NewPerClientRateLimiter(cfg.RateLimitPerIP)))
		}
		var admin func(http.Handler) http.Handler
		if cfg.JWT != nil {
			api.Use(auth.HTTPMiddleware(cfg.JWT))
			admin = auth.RequireRoleHTTP(auth.RoleAdmin)
		}
		cfg.Assessments.RegisterRoutes(api, admin)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "not_found", "no such route")
	})

	var h http.Handler = router
	if cfg.Logger != nil {
		h = LoggingMiddleware(cfg.Logger)(h)
	}
	return h
}
