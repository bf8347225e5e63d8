package handlers

import (
	"context"
)

// ReminderHandler answers free text in steps that expect a button press.
type ReminderHandler struct {
	BaseHandler
	text   string
	markup func() any
}

func NewReminderHandler(deps *Deps, stateName, text string, markup func() any) *ReminderHandler {
	return &ReminderHandler{
		BaseHandler: newBase(deps, stateName),
		text:        text,
		markup:      markup,
	}
}

func (h *ReminderHandler) Handle(_ context.Context, msg *Message) error {
	var markup any
	if h.markup != nil {
		markup = h.markup()
	}
	h.sendMessage(msg.ChatID, h.text, markup)
	return nil
}
