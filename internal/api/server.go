package api

import (
	"net/http"
	"time"

	"github.com/futig/jd-assessment/internal/api/docs"
	logsapi "github.com/futig/jd-assessment/internal/api/logs"
	"github.com/futig/jd-assessment/internal/api/middleware"
	sessionapi "github.com/futig/jd-assessment/internal/api/session"
	"github.com/futig/jd-assessment/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	sessionHandler *sessionapi.Handler,
	logsHandler *logsapi.Handler,
	corsOrigins []string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(corsOrigins))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]string{"status": "healthy"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	docs.RegisterRoutes(r)

	sessionapi.RegisterRoutes(r, sessionHandler)
	logsapi.RegisterRoutes(r, logsHandler)

	return r
}
