package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/futig/jd-assessment/internal/config"
	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/pkg/logger"
	"github.com/futig/jd-assessment/internal/telegram/handlers"
	"github.com/futig/jd-assessment/internal/telegram/keyboard"
	"github.com/futig/jd-assessment/internal/telegram/middleware"
	"github.com/futig/jd-assessment/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const msgUnknownCommand = "❌ Unknown command. Send /help"

// UpdateSource delivers updates; *tgbotapi.BotAPI implements it.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot represents the Telegram bot
type Bot struct {
	source   UpdateSource
	cfg      config.TelegramConfig
	deps     *handlers.Deps
	handlers map[string]handlers.Handler
	logger   *zap.Logger

	loggingMW   *middleware.LoggingMiddleware
	recoveryMW  *middleware.RecoveryMiddleware
	rateLimitMW *middleware.RateLimiterMiddleware

	updatesChan tgbotapi.UpdatesChannel
	stopChan    chan struct{}
	// loopDone is closed once processUpdates returns. Nil until Start.
	loopDone chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// New creates a bot reading updates from source and replying through
// deps.API.
func New(cfg config.TelegramConfig, source UpdateSource, deps *handlers.Deps) *Bot {
	return &Bot{
		source:      source,
		cfg:         cfg,
		deps:        deps,
		handlers:    make(map[string]handlers.Handler),
		logger:      deps.Logger,
		loggingMW:   middleware.NewLoggingMiddleware(deps.Logger),
		recoveryMW:  middleware.NewRecoveryMiddleware(deps.API),
		rateLimitMW: middleware.NewRateLimiterMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst, deps.API),
		stopChan:    make(chan struct{}),
	}
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	b.updatesChan = b.source.GetUpdatesChan(u)
	b.loopDone = make(chan struct{})

	go b.processUpdates(ctxzap.ToContext(ctx, b.logger))

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully with timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.source.StopReceivingUpdates()
		b.rateLimitMW.Close()
	})

	// The loop is the only caller of wg.Add, so it must exit before Wait.
	done := make(chan struct{})
	go func() {
		if b.loopDone != nil {
			<-b.loopDone
		}
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return errors.New("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context) {
	defer close(b.loopDone)

	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				return
			}
			// select picks randomly among ready cases; drop updates
			// that race with Stop.
			select {
			case <-b.stopChan:
				ctxzap.Info(ctx, "stop signal received, stopping update processing")
				return
			default:
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(ctx, u)
			}(update)
		}
	}
}

// handleUpdateWithMiddleware runs rate limiting, then logging, then
// panic recovery around the router.
func (b *Bot) handleUpdateWithMiddleware(ctx context.Context, update tgbotapi.Update) {
	b.rateLimitMW.Handle(ctx, update, func(ctx context.Context, u tgbotapi.Update) {
		b.loggingMW.Handle(ctx, u, func(ctx context.Context, u tgbotapi.Update) {
			b.recoveryMW.Handle(ctx, u, b.handleUpdate)
		})
	})
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage routes text to the handler of the session's current step.
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	st, err := b.deps.State.Get(ctx, userID)
	if err != nil {
		ctxzap.Error(ctx, "failed to get chat state", zap.Error(err))
		b.sendMessage(ctx, chatID, render.ErrGeneric, nil)
		return
	}
	if st.SessionID == "" {
		b.sendMessage(ctx, chatID, render.ErrNoSession, b.deps.Keyboard.StartKeyboard())
		return
	}
	ctx = logger.WithSession(ctx, st.SessionID)

	view, err := b.deps.Sessions.GetSession(ctx, st.SessionID)
	if errors.Is(err, entity.ErrSessionNotFound) {
		ctxzap.Info(ctx, "session expired, dropping chat state")
		if err := b.deps.State.Delete(ctx, userID); err != nil {
			ctxzap.Warn(ctx, "failed to drop chat state", zap.Error(err))
		}
		b.sendMessage(ctx, chatID, render.ErrSessionNotFound, b.deps.Keyboard.StartKeyboard())
		return
	}
	if err != nil {
		ctxzap.Error(ctx, "failed to load session", zap.Error(err))
		b.sendMessage(ctx, chatID, render.ClassifyError(err), nil)
		return
	}

	stepName := view.Step.String()
	handler, exists := b.handlers[stepName]
	if !exists {
		ctxzap.Warn(ctx, "no handler for state", zap.String("state", stepName))
		b.sendMessage(ctx, chatID, render.ErrWrongStep, nil)
		return
	}

	msg := &handlers.Message{
		ChatID:    chatID,
		UserID:    userID,
		MessageID: message.MessageID,
		Text:      message.Text,
	}

	if err := handler.Handle(ctx, msg); err != nil {
		ctxzap.Error(ctx, "handler error", zap.Error(err), zap.String("state", stepName))
		b.sendMessage(ctx, chatID, render.ErrGeneric, nil)
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	chatID := message.Chat.ID

	ctxzap.Info(ctx, "command received", zap.String("command", command))

	switch command {
	case "start":
		b.sendMessage(ctx, chatID, render.MsgWelcome, b.deps.Keyboard.StartKeyboard())
	case "help":
		b.sendMessage(ctx, chatID, render.MsgHelp, nil)
	case "reset":
		b.dispatchCallback(ctx, &handlers.Message{
			ChatID:       chatID,
			UserID:       message.From.ID,
			MessageID:    message.MessageID,
			CallbackData: keyboard.EncodeCallback(keyboard.ActionControl, "reset"),
		})
	default:
		b.sendMessage(ctx, chatID, msgUnknownCommand, nil)
	}
}

// handleCallbackQuery acknowledges the button press before the work
// starts so Telegram does not show a stale spinner.
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}

	b.answerCallback(ctx, query.ID)

	b.dispatchCallback(ctx, &handlers.Message{
		ChatID:       query.Message.Chat.ID,
		UserID:       query.From.ID,
		MessageID:    query.Message.MessageID,
		CallbackData: query.Data,
		CallbackID:   query.ID,
	})
}

func (b *Bot) dispatchCallback(ctx context.Context, msg *handlers.Message) {
	handler, exists := b.handlers[handlers.HandlerStateCallback]
	if !exists {
		ctxzap.Warn(ctx, "callback handler not registered")
		return
	}

	if err := handler.Handle(ctx, msg); err != nil {
		ctxzap.Error(ctx, "callback handler error", zap.Error(err), zap.String("data", msg.CallbackData))
		b.sendMessage(ctx, msg.ChatID, render.ErrGeneric, nil)
	}
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, replyMarkup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}
	if _, err := b.deps.API.Send(msg); err != nil {
		ctxzap.Error(ctx, "failed to send message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) answerCallback(ctx context.Context, callbackID string) {
	if _, err := b.deps.API.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		ctxzap.Warn(ctx, "failed to answer callback", zap.Error(err))
	}
}

// RegisterHandler registers a handler for a state
func (b *Bot) RegisterHandler(handler handlers.Handler) error {
	state := handler.GetState()
	if !handlers.IsValidState(state) {
		return fmt.Errorf("invalid handler state %q", state)
	}

	b.handlers[state] = handler
	b.logger.Debug("handler registered", zap.String("state", state))
	return nil
}
