package state

import (
	"context"
	"time"
)

// ChatState maps a Telegram user onto an assessment session and keeps the
// UI position within it.
type ChatState struct {
	UserID    int64  `json:"user_id"`
	ChatID    int64  `json:"chat_id"`
	SessionID string `json:"session_id,omitempty"`

	// CurrentQuestionID is the question a plain text message answers.
	CurrentQuestionID string `json:"current_question_id,omitempty"`
	// Skipped holds question ids the user passed over in this batch.
	Skipped []string `json:"skipped,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Storage defines the interface for chat state persistence
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
