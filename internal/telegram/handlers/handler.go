package handlers

import (
	"context"
	"time"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/telegram/keyboard"
	"github.com/futig/jd-assessment/internal/telegram/state"
	"go.uber.org/zap"
)

// Handler state constants. Text messages are routed by the session step.
var (
	HandlerStateCallback = "CALLBACK"
	HandlerStateInput    = entity.StepInput.String()
	HandlerStateGenerate = entity.StepGenerate.String()
	HandlerStateAnswer   = entity.StepAnswer.String()
	HandlerStateResults  = entity.StepResults.String()
)

// Message represents a normalized Telegram message
type Message struct {
	ChatID       int64
	UserID       int64
	MessageID    int
	Text         string
	CallbackData string
	CallbackID   string
}

// Handler defines the interface for state-specific handlers
type Handler interface {
	// Handle processes a message for this state
	Handle(ctx context.Context, msg *Message) error

	// GetState returns the state this handler manages
	GetState() string
}

// Deps are the collaborators shared by every handler.
type Deps struct {
	API      Sender
	State    *state.Manager
	Sessions SessionUsecase
	Keyboard *keyboard.Builder
	Logger   *zap.Logger

	MinJDLength         int
	ConfidenceThreshold float64
	// EditInterval throttles edits of a streaming sample answer.
	EditInterval time.Duration
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	*Deps
	stateName     string
	messageSender *MessageSender
}

func newBase(deps *Deps, stateName string) BaseHandler {
	return BaseHandler{
		Deps:          deps,
		stateName:     stateName,
		messageSender: NewMessageSender(deps.API, deps.Logger),
	}
}

// GetState implements Handler
func (h *BaseHandler) GetState() string {
	return h.stateName
}

// sendMessage is a convenience wrapper for messageSender.Send
func (h *BaseHandler) sendMessage(chatID int64, text string, markup any) {
	_, _ = h.messageSender.Send(chatID, text, markup)
}

// IsValidState checks if a state is valid for handler registration
func IsValidState(s string) bool {
	switch s {
	case HandlerStateCallback, HandlerStateInput, HandlerStateGenerate, HandlerStateAnswer, HandlerStateResults:
		return true
	default:
		return false
	}
}
