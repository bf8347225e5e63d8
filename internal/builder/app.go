package builder

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/futig/jd-assessment/internal/telegram"
	"go.uber.org/zap"
)

// App represents the application with all its components
type App struct {
	server          *http.Server
	bot             telegram.Bot
	closeBackend    func() error
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// Run starts the HTTP server and, when configured, the bot, then waits
// for a signal or a server error.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.bot != nil {
		if err := a.bot.Start(ctx); err != nil {
			return err
		}
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		a.logger.Error("Server error", zap.Error(err))
		cancel()
		_ = a.shutdown()
		return err
	case sig := <-sigChan:
		a.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	cancel()
	return a.shutdown()
}

// shutdown gracefully shuts down the application
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.logger.Info("Shutting down server gracefully")

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown error", zap.Error(err))
		errs = append(errs, err)
	}

	if a.bot != nil {
		if err := a.bot.Stop(); err != nil {
			a.logger.Error("Bot shutdown error", zap.Error(err))
			errs = append(errs, err)
		}
	}

	a.logger.Info("Closing cache backend")
	if err := a.closeBackend(); err != nil {
		errs = append(errs, err)
	}

	_ = a.logger.Sync()
	a.logger.Info("Application stopped gracefully")
	return errors.Join(errs...)
}
