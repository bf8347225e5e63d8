package handlers

import (
	"context"
	"fmt"
	"slices"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/telegram/render"
	"github.com/futig/jd-assessment/internal/telegram/state"
)

// nextQuestion picks the first unscored question the user has not
// skipped. Once only skipped ones remain, the skip list is cleared and
// they come round again.
func nextQuestion(view *entity.SessionView, st *state.ChatState) (entity.Question, int, bool) {
	pick := func() (entity.Question, int, bool) {
		for i, q := range view.Questions {
			if _, scored := view.Scores[q.ID]; scored {
				continue
			}
			if slices.Contains(st.Skipped, q.ID) {
				continue
			}
			return q, i, true
		}
		return entity.Question{}, 0, false
	}

	if q, i, ok := pick(); ok {
		return q, i, true
	}
	if len(st.Skipped) == 0 {
		return entity.Question{}, 0, false
	}
	st.Skipped = nil
	return pick()
}

// askNext shows the next question, or announces that results are coming.
func (h *BaseHandler) askNext(ctx context.Context, chatID int64, st *state.ChatState, view *entity.SessionView) error {
	q, i, ok := nextQuestion(view, st)
	if !ok {
		st.CurrentQuestionID = ""
		if err := h.State.Save(ctx, st); err != nil {
			return fmt.Errorf("save chat state: %w", err)
		}
		h.sendMessage(chatID, render.MsgAllAnswered, nil)
		return nil
	}

	st.CurrentQuestionID = q.ID
	if err := h.State.Save(ctx, st); err != nil {
		return fmt.Errorf("save chat state: %w", err)
	}

	h.sendMessage(chatID, render.RenderQuestion(i+1, len(view.Questions), q.Text), h.Keyboard.QuestionKeyboard(q.ID))
	return nil
}

// activeSession loads the chat state and requires a bound session.
func (h *BaseHandler) activeSession(ctx context.Context, msg *Message) (*state.ChatState, bool, error) {
	st, err := h.State.Get(ctx, msg.UserID)
	if err != nil {
		return nil, false, err
	}
	if st.SessionID == "" {
		h.sendMessage(msg.ChatID, render.ErrNoSession, h.Keyboard.StartKeyboard())
		return st, false, nil
	}
	return st, true, nil
}
