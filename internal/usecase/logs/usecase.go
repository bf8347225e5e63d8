package logs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/pkg/logger"
	pkghttp "github.com/futig/jd-assessment/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type LogsConnector interface {
	FetchLogs(ctx context.Context, q *entity.LogsQuery) ([]entity.LogEntry, error)
}

type QueryValidator interface {
	ValidateLogsQuery(q *entity.LogsQuery) error
}

type LogsUsecase struct {
	connector LogsConnector
	validator QueryValidator
	now       func() time.Time
}

func NewUsecase(connector LogsConnector, validator QueryValidator) *LogsUsecase {
	return &LogsUsecase{
		connector: connector,
		validator: validator,
		now:       time.Now,
	}
}

// Fetch returns the collaborator's log records for one type and day. The
// date defaults to today in UTC. Transport failures are wrapped in
// ErrLogFetchFailed carrying the collaborator's message.
func (uc *LogsUsecase) Fetch(ctx context.Context, q *entity.LogsQuery) ([]entity.LogEntry, error) {
	ctx = logger.AddFields(logger.WithAction(ctx, "fetch_logs"), zap.String("log_type", string(q.Type)))

	if q.Date == "" {
		q.Date = uc.now().UTC().Format(time.DateOnly)
	}

	if err := uc.validator.ValidateLogsQuery(q); err != nil {
		return nil, err
	}

	entries, err := uc.connector.FetchLogs(ctx, q)
	if err != nil {
		ctxzap.Warn(ctx, "failed to fetch logs", zap.String("date", q.Date), zap.Error(err))
		return nil, fmt.Errorf("%w: %s", entity.ErrLogFetchFailed, describe(err))
	}

	if entries == nil {
		entries = []entity.LogEntry{}
	}
	return entries, nil
}

func describe(err error) string {
	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return err.Error()
}
