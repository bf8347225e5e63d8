package session

import (
	"context"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/usecase/answer"
)

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
