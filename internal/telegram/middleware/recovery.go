package middleware

import (
	"context"
	"runtime/debug"

	"github.com/futig/jd-assessment/internal/pkg/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const panicNotice = "❌ Something went wrong. Try again or send /start"

// RecoveryMiddleware recovers from panics in the handlers below it.
type RecoveryMiddleware struct {
	bot Sender
}

func NewRecoveryMiddleware(bot Sender) *RecoveryMiddleware {
	return &RecoveryMiddleware{bot: bot}
}

func (m *RecoveryMiddleware) Handle(ctx context.Context, update tgbotapi.Update, next Next) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		ctxzap.Error(ctx, "panic recovered in telegram handler",
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())),
		)
		metrics.TelegramUpdates.WithLabelValues(kind(update), "panic").Inc()

		if _, chatID, ok := origin(update); ok {
			if _, err := m.bot.Send(tgbotapi.NewMessage(chatID, panicNotice)); err != nil {
				ctxzap.Error(ctx, "failed to send error message", zap.Error(err))
			}
		}
	}()

	next(ctx, update)
}
