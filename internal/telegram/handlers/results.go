package handlers

import (
	"context"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/telegram/render"
	"github.com/futig/jd-assessment/internal/workflow"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ResultsNotifier posts the results dashboard when a session bound to a
// chat reaches the results step.
type ResultsNotifier struct {
	BaseHandler
}

func NewResultsNotifier(deps *Deps) *ResultsNotifier {
	return &ResultsNotifier{BaseHandler: newBase(deps, HandlerStateResults)}
}

// Handle re-sends the dashboard for free text in the results step.
func (n *ResultsNotifier) Handle(ctx context.Context, msg *Message) error {
	st, ok, err := n.activeSession(ctx, msg)
	if err != nil || !ok {
		return err
	}
	return n.send(ctx, msg.ChatID, st.SessionID)
}

// OnTransition is a workflow.Listener. It runs on the timer goroutine.
func (n *ResultsNotifier) OnTransition(t workflow.Transition) {
	if t.To != entity.StepResults {
		return
	}

	ctx := ctxzap.ToContext(context.Background(), n.Logger.With(zap.String("session_id", t.SessionID)))

	st, ok, err := n.State.BySession(ctx, t.SessionID)
	if err != nil {
		ctxzap.Error(ctx, "failed to look up chat for session", zap.Error(err))
		return
	}
	if !ok {
		// Not a Telegram session.
		return
	}

	if err := n.send(ctx, st.ChatID, t.SessionID); err != nil {
		ctxzap.Error(ctx, "failed to deliver results", zap.Error(err))
	}
}

func (n *ResultsNotifier) send(ctx context.Context, chatID int64, sessionID string) error {
	results, err := n.Sessions.Results(ctx, sessionID)
	if err != nil {
		n.HandleError(ctx, chatID, err)
		return nil
	}

	return sendCriticalMessage(n.messageSender, chatID, render.RenderResults(results), n.Keyboard.ResultsKeyboard(), n.Logger)
}
