package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// JDHandler handles text in the input step: the job description.
type JDHandler struct {
	BaseHandler
}

func NewJDHandler(deps *Deps) *JDHandler {
	return &JDHandler{BaseHandler: newBase(deps, HandlerStateInput)}
}

func (h *JDHandler) Handle(ctx context.Context, msg *Message) error {
	st, ok, err := h.activeSession(ctx, msg)
	if err != nil || !ok {
		return err
	}

	if msg.Text == "" {
		h.sendMessage(msg.ChatID, fmt.Sprintf(render.MsgAskJD, h.MinJDLength), nil)
		return nil
	}

	typing := StartTyping(ctx, h.API, msg.ChatID, h.Logger)
	resp, err := h.Sessions.SubmitJD(ctx, st.SessionID, &entity.SubmitJDRequest{JDText: msg.Text})
	typing.Stop()

	if errors.Is(err, entity.ErrValidationRejected) {
		ctxzap.Info(ctx, "job description rejected", zap.Error(err))
		var analysis *entity.JDAnalysis
		if resp != nil {
			analysis = resp.Analysis
		}
		if analysis == nil {
			h.sendMessage(msg.ChatID, fmt.Sprintf(render.MsgAskJD, h.MinJDLength), nil)
			return nil
		}
		h.sendMessage(msg.ChatID, render.RenderJDRejected(analysis, h.ConfidenceThreshold), nil)
		return nil
	}
	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	h.sendMessage(msg.ChatID, render.RenderJDAccepted(resp.Analysis), h.Keyboard.QuestionCountKeyboard())
	return nil
}
