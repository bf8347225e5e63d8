package telegram

import (
	"context"
	"fmt"

	"github.com/futig/jd-assessment/internal/config"
	"github.com/futig/jd-assessment/internal/telegram/bot"
	"github.com/futig/jd-assessment/internal/telegram/handlers"
	"github.com/futig/jd-assessment/internal/telegram/keyboard"
	"github.com/futig/jd-assessment/internal/telegram/render"
	"github.com/futig/jd-assessment/internal/telegram/state"
	"github.com/futig/jd-assessment/internal/workflow"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// SessionUsecase is what the bot drives, plus a way to hear about step
// transitions for the results notice.
type SessionUsecase interface {
	handlers.SessionUsecase
	Subscribe(l workflow.Listener)
}

// NewBot authorizes against the Bot API and wires all handlers. It must
// run before the first session starts so the results notice is
// subscribed.
func NewBot(
	cfg config.TelegramConfig,
	sessionCfg config.SessionConfig,
	storage state.Storage,
	sessionUC SessionUsecase,
	logger *zap.Logger,
) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	deps := &handlers.Deps{
		API:                 api,
		State:               state.NewManager(storage),
		Sessions:            sessionUC,
		Keyboard:            keyboard.NewBuilder(countChoices(sessionCfg)...),
		Logger:              logger,
		MinJDLength:         sessionCfg.MinJDLength,
		ConfidenceThreshold: sessionCfg.ConfidenceThreshold,
		EditInterval:        cfg.StreamEditInterval,
	}

	b := bot.New(cfg, api, deps)
	notifier, err := registerHandlers(b, deps)
	if err != nil {
		return nil, err
	}
	sessionUC.Subscribe(notifier.OnTransition)

	logger.Info("telegram bot initialized successfully")

	return b, nil
}

// registerHandlers registers all handlers with the bot
func registerHandlers(b *bot.Bot, deps *handlers.Deps) (*handlers.ResultsNotifier, error) {
	notifier := handlers.NewResultsNotifier(deps)

	hs := []handlers.Handler{
		handlers.NewCallbackHandler(deps),
		handlers.NewJDHandler(deps),
		handlers.NewReminderHandler(deps, handlers.HandlerStateGenerate, render.MsgPickCount, func() any {
			return deps.Keyboard.QuestionCountKeyboard()
		}),
		handlers.NewAnswerHandler(deps),
		notifier,
	}
	for _, h := range hs {
		if err := b.RegisterHandler(h); err != nil {
			return nil, fmt.Errorf("register handler: %w", err)
		}
	}

	return notifier, nil
}

// countChoices keeps the offered batch sizes inside the configured range.
func countChoices(cfg config.SessionConfig) []int {
	var counts []int
	for _, n := range []int{5, 10, 15, 20} {
		if n >= cfg.MinQuestionCount && n <= cfg.MaxQuestionCount {
			counts = append(counts, n)
		}
	}
	if len(counts) == 0 {
		counts = []int{cfg.DefaultQuestionCount}
	}
	return counts
}
