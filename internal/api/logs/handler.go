package logs

import (
	"context"
	"errors"
	"net/http"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/pkg/logger"
	"github.com/futig/jd-assessment/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type LogsUsecase interface {
	Fetch(ctx context.Context, q *entity.LogsQuery) ([]entity.LogEntry, error)
}

type Handler struct {
	usecase LogsUsecase
}

func NewHandler(usecase LogsUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// GetLogs handles GET /logs/{type}?date=YYYY-MM-DD. Basic credentials are
// forwarded to the log service unchanged.
func (h *Handler) GetLogs(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetLogs")

	q := entity.LogsQuery{
		Type: entity.LogType(chi.URLParam(r, "type")),
		Date: r.URL.Query().Get("date"),
	}
	q.Username, q.Password, _ = r.BasicAuth()

	entries, err := h.usecase.Fetch(ctx, &q)
	if err != nil {
		if errors.Is(err, entity.ErrLogFetchFailed) {
			ctxzap.Warn(ctx, "log fetch failed", zap.Error(err))
			response.JSON(w, response.StatusFor(err), entity.LogsResponse{Logs: []entity.LogEntry{}, Error: err.Error()})
			return
		}
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, entity.LogsResponse{Logs: entries})
}

// RegisterRoutes registers log viewer routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/logs/{type}", h.GetLogs)
}
