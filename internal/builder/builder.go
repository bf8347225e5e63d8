package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/jd-assessment/internal/api"
	logsapi "github.com/futig/jd-assessment/internal/api/logs"
	sessionapi "github.com/futig/jd-assessment/internal/api/session"
	"github.com/futig/jd-assessment/internal/config"
	"github.com/futig/jd-assessment/internal/integration/assessment"
	"github.com/futig/jd-assessment/internal/pkg/formatter"
	pkglogger "github.com/futig/jd-assessment/internal/pkg/logger"
	"github.com/futig/jd-assessment/internal/pkg/validator"
	"github.com/futig/jd-assessment/internal/repository"
	"github.com/futig/jd-assessment/internal/telegram"
	"github.com/futig/jd-assessment/internal/usecase/answer"
	"github.com/futig/jd-assessment/internal/usecase/logs"
	"github.com/futig/jd-assessment/internal/usecase/session"
	"go.uber.org/zap"
)

// assessmentService is everything the usecases need from the assessment
// service; both the HTTP connector and the mock implement it.
type assessmentService interface {
	session.AssessmentConnector
	logs.LogsConnector
	answer.StreamingGenerator
	answer.SyncGenerator
}

// core holds what the API and the bot share.
type core struct {
	cfg       *config.Config
	logger    *zap.Logger
	backend   *kvBackend
	sessionUC *session.SessionUsecase
	logsUC    *logs.LogsUsecase
	validator *validator.Validator
}

func buildCore() (*core, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := pkglogger.New(cfg.LogCfg)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("cache_backend", cfg.CacheCfg.Backend),
	)

	backend, err := setupKVBackend(ctx, cfg.CacheCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup cache backend: %w", err)
	}

	var service assessmentService
	if cfg.EnableMocks {
		logger.Info("Using mock connector for the assessment service")
		service = assessment.NewMockConnector(logger)
	} else {
		logger.Info("Using real connector for the assessment service")
		service = assessment.NewConnector(cfg.AssessmentCfg, logger)
	}

	v := validator.New(cfg.SessionCfg)

	answers := answer.NewChain(
		answer.NewOrchestrator(service, cfg.AnswerCfg.StreamTimeout),
		service,
		cfg.AnswerCfg.WordLimit,
	)

	sessionUC := session.NewUsecase(
		repository.NewSessionRepository(cfg.SessionCfg.TTL),
		repository.NewQuestionCache(backend.open(cfg.CacheCfg.TTL)),
		service,
		answers,
		v,
		formatter.NewFactory(),
		cfg.SessionCfg,
		cfg.AnswerCfg,
		logger,
	)

	logsUC := logs.NewUsecase(service, v)
	logger.Info("Use cases initialized")

	return &core{
		cfg:       cfg,
		logger:    logger,
		backend:   backend,
		sessionUC: sessionUC,
		logsUC:    logsUC,
		validator: v,
	}, nil
}

// bot wires the Telegram front end onto the shared usecases. It has to
// run before any session starts.
func (c *core) bot() (telegram.Bot, error) {
	return telegram.NewBot(
		c.cfg.TelegramCfg,
		c.cfg.SessionCfg,
		c.backend.open(c.cfg.SessionCfg.TTL),
		c.sessionUC,
		c.logger,
	)
}

// Build assembles the HTTP API. The Telegram bot runs in the same
// process when a bot token is configured.
func Build() (*App, error) {
	c, err := buildCore()
	if err != nil {
		return nil, err
	}

	var bot telegram.Bot
	if c.cfg.TelegramCfg.BotToken != "" {
		bot, err = c.bot()
		if err != nil {
			_ = c.backend.close()
			return nil, fmt.Errorf("initialize telegram bot: %w", err)
		}
	}

	sessionHandler := sessionapi.NewHandler(c.sessionUC)
	logsHandler := logsapi.NewHandler(c.logsUC)
	logger := c.logger
	logger.Info("API handlers initialized")

	router := api.SetupRouter(sessionHandler, logsHandler, c.cfg.CORSOrigins, logger)
	logger.Info("HTTP router configured")

	// WriteTimeout stays off: answers stream over SSE for up to the
	// stream timeout plus the sync fallback.
	server := &http.Server{
		Addr:              c.cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", c.cfg.Environment),
		zap.Bool("telegram", bot != nil),
	)

	return &App{
		server:          server,
		bot:             bot,
		closeBackend:    c.backend.close,
		shutdownTimeout: c.cfg.ShutdownTimeout,
		logger:          logger,
	}, nil
}

// BuildTelegramBot creates the bot as a standalone process
func BuildTelegramBot() (telegram.Bot, *zap.Logger, func() error, error) {
	c, err := buildCore()
	if err != nil {
		return nil, nil, nil, err
	}

	if c.cfg.TelegramCfg.BotToken == "" {
		_ = c.backend.close()
		return nil, nil, nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	bot, err := c.bot()
	if err != nil {
		_ = c.backend.close()
		return nil, nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	c.logger.Info("Telegram bot built successfully",
		zap.String("environment", c.cfg.Environment),
	)

	return bot, c.logger, c.backend.close, nil
}
