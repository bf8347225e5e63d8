package handlers

import (
	"context"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/usecase/answer"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the Bot API the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// SessionUsecase defines the session operations the bot drives
type SessionUsecase interface {
	StartSession(ctx context.Context) (*entity.SessionView, error)
	GetSession(ctx context.Context, sessionID string) (*entity.SessionView, error)
	SubmitJD(ctx context.Context, sessionID string, req *entity.SubmitJDRequest) (*entity.SubmitJDResponse, error)
	GenerateQuestions(ctx context.Context, sessionID string, req *entity.GenerateQuestionsInput) (*entity.SessionView, error)
	GenerateAnswer(ctx context.Context, sessionID, questionID string, onChunk answer.ChunkFunc) (*entity.GeneratedAnswer, error)
	SubmitAnswer(ctx context.Context, sessionID, questionID string, req *entity.SubmitAnswerRequest) (*entity.SubmitAnswerResponse, error)
	Results(ctx context.Context, sessionID string) (*entity.Results, error)
	Report(ctx context.Context, sessionID string, format entity.ReportFormat) (*entity.ReportFile, error)
	Reset(ctx context.Context, sessionID string) (*entity.SessionView, error)
}
