package handlers

import (
	"context"
	"strings"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/telegram/render"
)

// AnswerHandler handles text in the answer step: the answer to the
// current question.
type AnswerHandler struct {
	BaseHandler
}

func NewAnswerHandler(deps *Deps) *AnswerHandler {
	return &AnswerHandler{BaseHandler: newBase(deps, HandlerStateAnswer)}
}

func (h *AnswerHandler) Handle(ctx context.Context, msg *Message) error {
	st, ok, err := h.activeSession(ctx, msg)
	if err != nil || !ok {
		return err
	}

	if strings.TrimSpace(msg.Text) == "" {
		h.sendMessage(msg.ChatID, render.ErrEmptyAnswer, nil)
		return nil
	}

	if st.CurrentQuestionID == "" {
		view, err := h.Sessions.GetSession(ctx, st.SessionID)
		if err != nil {
			h.HandleError(ctx, msg.ChatID, err)
			return nil
		}
		return h.askNext(ctx, msg.ChatID, st, view)
	}

	typing := StartTyping(ctx, h.API, msg.ChatID, h.Logger)
	resp, err := h.Sessions.SubmitAnswer(ctx, st.SessionID, st.CurrentQuestionID, &entity.SubmitAnswerRequest{UserAnswer: msg.Text})
	typing.Stop()
	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	h.sendMessage(msg.ChatID, render.RenderEvaluation(resp.Evaluation), nil)
	return h.askNext(ctx, msg.ChatID, st, resp.Session)
}
