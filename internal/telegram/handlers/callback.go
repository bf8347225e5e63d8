package handlers

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/pkg/logger"
	"github.com/futig/jd-assessment/internal/telegram/keyboard"
	"github.com/futig/jd-assessment/internal/telegram/render"
	"github.com/futig/jd-assessment/internal/telegram/state"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// CallbackHandler handles every inline button press
type CallbackHandler struct {
	BaseHandler
}

func NewCallbackHandler(deps *Deps) *CallbackHandler {
	return &CallbackHandler{BaseHandler: newBase(deps, HandlerStateCallback)}
}

func (h *CallbackHandler) Handle(ctx context.Context, msg *Message) error {
	data, err := keyboard.ParseCallback(msg.CallbackData)
	if err != nil {
		return err
	}

	ctx = logger.AddFields(ctx,
		zap.String("callback_action", data.Action),
		zap.String("callback_value", data.Value),
	)

	switch data.Action {
	case keyboard.ActionControl:
		switch data.Value {
		case "start":
			return h.start(ctx, msg)
		case "reset":
			return h.reset(ctx, msg)
		}
	case keyboard.ActionCount:
		return h.generateQuestions(ctx, msg, data.Value)
	case keyboard.ActionGenerate:
		return h.sampleAnswer(ctx, msg, data.Value)
	case keyboard.ActionSkip:
		return h.skip(ctx, msg, data.Value)
	case keyboard.ActionDownload:
		return h.download(ctx, msg, entity.ReportFormat(data.Value))
	}

	return fmt.Errorf("unknown callback %q", msg.CallbackData)
}

// start opens a fresh session, replacing any previous one.
func (h *CallbackHandler) start(ctx context.Context, msg *Message) error {
	view, err := h.Sessions.StartSession(ctx)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	if err := h.State.Delete(ctx, msg.UserID); err != nil {
		ctxzap.Warn(ctx, "failed to drop previous chat state", zap.Error(err))
	}

	st := &state.ChatState{UserID: msg.UserID, ChatID: msg.ChatID, SessionID: view.ID}
	if err := h.State.Save(ctx, st); err != nil {
		return fmt.Errorf("save chat state: %w", err)
	}

	ctxzap.Info(logger.WithSession(ctx, view.ID), "telegram assessment started", zap.Int64("user_id", msg.UserID))

	h.sendMessage(msg.ChatID, fmt.Sprintf(render.MsgAskJD, h.MinJDLength), nil)
	return nil
}

func (h *CallbackHandler) reset(ctx context.Context, msg *Message) error {
	st, ok, err := h.activeSession(ctx, msg)
	if err != nil || !ok {
		return err
	}

	if _, err := h.Sessions.Reset(ctx, st.SessionID); err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	st.CurrentQuestionID = ""
	st.Skipped = nil
	if err := h.State.Save(ctx, st); err != nil {
		return fmt.Errorf("save chat state: %w", err)
	}

	h.sendMessage(msg.ChatID, render.MsgResetDone+"\n\n"+fmt.Sprintf(render.MsgAskJD, h.MinJDLength), nil)
	return nil
}

func (h *CallbackHandler) generateQuestions(ctx context.Context, msg *Message, value string) error {
	count, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse question count %q: %w", value, err)
	}

	st, ok, err := h.activeSession(ctx, msg)
	if err != nil || !ok {
		return err
	}

	h.sendMessage(msg.ChatID, render.MsgGenerating, nil)

	typing := StartTyping(ctx, h.API, msg.ChatID, h.Logger)
	view, err := h.Sessions.GenerateQuestions(ctx, st.SessionID, &entity.GenerateQuestionsInput{QuestionCount: count})
	typing.Stop()
	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	st.Skipped = nil
	return h.askNext(ctx, msg.ChatID, st, view)
}

// sampleAnswer streams a sample answer into a single message, edited as
// text arrives and replaced by the final answer.
func (h *CallbackHandler) sampleAnswer(ctx context.Context, msg *Message, questionID string) error {
	st, ok, err := h.activeSession(ctx, msg)
	if err != nil || !ok {
		return err
	}

	placeholder, err := h.messageSender.Send(msg.ChatID, render.MsgSampleAnswerPending, nil)
	if err != nil {
		return err
	}

	editor := newStreamEditor(h.EditInterval, func(text string) {
		_ = h.messageSender.Edit(msg.ChatID, placeholder.MessageID, render.RenderSampleAnswer(text, true), nil)
	})

	generated, err := h.Sessions.GenerateAnswer(ctx, st.SessionID, questionID, editor.Update)
	editor.Stop()
	if err != nil {
		_ = h.messageSender.Edit(msg.ChatID, placeholder.MessageID, render.ClassifyError(err), nil)
		return nil
	}

	ctxzap.Debug(ctx, "sample answer delivered", zap.String("source", string(generated.Source)))

	if err := h.messageSender.Edit(msg.ChatID, placeholder.MessageID, render.RenderSampleAnswer(generated.Text, false), nil); err != nil {
		h.sendMessage(msg.ChatID, render.RenderSampleAnswer(generated.Text, false), nil)
	}
	return nil
}

func (h *CallbackHandler) skip(ctx context.Context, msg *Message, questionID string) error {
	st, ok, err := h.activeSession(ctx, msg)
	if err != nil || !ok {
		return err
	}

	view, err := h.Sessions.GetSession(ctx, st.SessionID)
	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}
	if view.Step != entity.StepAnswer {
		h.sendMessage(msg.ChatID, render.ErrWrongStep, nil)
		return nil
	}

	if !slices.Contains(st.Skipped, questionID) {
		st.Skipped = append(st.Skipped, questionID)
	}
	return h.askNext(ctx, msg.ChatID, st, view)
}

func (h *CallbackHandler) download(ctx context.Context, msg *Message, format entity.ReportFormat) error {
	st, ok, err := h.activeSession(ctx, msg)
	if err != nil || !ok {
		return err
	}

	file, err := h.Sessions.Report(ctx, st.SessionID, format)
	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	return h.messageSender.SendDocument(msg.ChatID, file)
}
