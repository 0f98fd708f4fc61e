package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-auth-service/internal/config"
	"go-auth-service/internal/handler"
	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
)

// HealthChecker reports storage liveness for the health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) error
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, authHandler *handler.AuthHandler, health HealthChecker) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, "OK", "Welcome to app.")
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health.Health(req.Context()); err != nil {
				writeEnvelope(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database unreachable.")
				return
			}
		}
		writeEnvelope(w, http.StatusOK, "OK", "Healthy.")
	})

	r.Route("/api/auth", func(auth chi.Router) {
		auth.Use(middleware.Timeout(cfg.RequestTimeout))

		auth.Post("/register", authHandler.Register)
		auth.Post("/login", authHandler.Login)
		auth.With(authMiddleware.RequireAuth).Get("/get-profile", authHandler.GetProfile)
		auth.With(authMiddleware.RequireRefresh).Post("/refresh-token", authHandler.RefreshToken)
	})

	// Unknown routes share the envelope shape with everything else.
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusNotFound, "NOT_FOUND", "The requested resource could not be found.")
	})

	return r
}

func writeEnvelope(w http.ResponseWriter, code int, status string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Code:    code,
		Status:  status,
		Message: message,
	})
}
