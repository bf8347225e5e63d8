package middleware

import (
	"context"
	"time"

	"github.com/futig/jd-assessment/internal/pkg/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// LoggingMiddleware attaches an update-scoped logger to the context and
// logs each update.
type LoggingMiddleware struct {
	logger *zap.Logger
}

func NewLoggingMiddleware(logger *zap.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger,
	}
}

func (m *LoggingMiddleware) Handle(ctx context.Context, update tgbotapi.Update, next Next) {
	start := time.Now()
	userID, chatID, _ := origin(update)
	updateKind := kind(update)

	l := m.logger.With(
		zap.Int("update_id", update.UpdateID),
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
		zap.String("type", updateKind),
	)
	ctx = ctxzap.ToContext(ctx, l)

	l.Info("telegram update received")
	metrics.TelegramUpdates.WithLabelValues(updateKind, "received").Inc()

	next(ctx, update)

	ctxzap.Info(ctx, "telegram update processed", zap.Duration("duration", time.Since(start)))
}
