package handlers

import (
	"context"
	"errors"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
)

// HandlerError represents a structured error with user message and logging info
type HandlerError struct {
	Err         error
	UserMessage string
	Severity    ErrorSeverity
}

// classifyHandlerError pairs an error with its user message; user mistakes
// and stale sessions are warnings.
func classifyHandlerError(err error) *HandlerError {
	he := &HandlerError{
		Err:         err,
		UserMessage: render.ClassifyError(err),
		Severity:    SeverityError,
	}

	switch {
	case errors.Is(err, entity.ErrSessionNotFound),
		errors.Is(err, entity.ErrQuestionNotFound),
		errors.Is(err, entity.ErrWrongStep),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrGenerationEmpty):
		he.Severity = SeverityWarning
	}

	return he
}

// HandleError logs err and sends the user-facing message.
func (h *BaseHandler) HandleError(ctx context.Context, chatID int64, err error) {
	if err == nil {
		return
	}

	he := classifyHandlerError(err)
	if he.Severity == SeverityWarning {
		ctxzap.Warn(ctx, "handler warning", zap.Error(he.Err), zap.Int64("chat_id", chatID))
	} else {
		ctxzap.Error(ctx, "handler error", zap.Error(he.Err), zap.Int64("chat_id", chatID))
	}

	h.sendMessage(chatID, he.UserMessage, nil)
}
