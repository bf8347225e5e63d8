package handlers

import (
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

const (
	maxSendRetries = 3
	retrySleepBase = time.Second
)

// sendCriticalMessage sends a message that must be delivered, such as the
// results of a finished assessment.
func sendCriticalMessage(sender *MessageSender, chatID int64, text string, markup any, logger *zap.Logger) error {
	return retry.Do(
		func() error {
			_, err := sender.Send(chatID, text, markup)
			return err
		},
		retry.Attempts(maxSendRetries),
		retry.Delay(retrySleepBase),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("failed to send message, retrying",
				zap.Error(err),
				zap.Uint("attempt", n+1),
				zap.Int64("chat_id", chatID),
			)
		}),
	)
}
