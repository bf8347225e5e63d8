package session

import (
	"context"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/usecase/answer"
	"github.com/futig/jd-assessment/internal/workflow"
)

type AssessmentConnector interface {
	AnalyzeJD(ctx context.Context, jdText string) (*entity.JDAnalysis, error)
	GenerateQuestions(ctx context.Context, jdText string, count int) ([]entity.Question, error)
	EvaluateAnswer(ctx context.Context, req *entity.EvaluateAnswerRequest) (*entity.Evaluation, error)
}

type AnswerProvider interface {
	Obtain(ctx context.Context, questionText string, wordLimit int, onChunk answer.ChunkFunc) entity.GeneratedAnswer
}

type SessionRepository interface {
	Save(ctx context.Context, m *workflow.Machine) error
	Get(ctx context.Context, id string) (*workflow.Machine, error)
	Delete(ctx context.Context, id string) error
}

type QuestionCache interface {
	Store(ctx context.Context, scope string, questions []entity.Question) error
	Get(ctx context.Context, scope, questionID string) (entity.StoredQuestion, bool)
	Clear(ctx context.Context, scope string) error
}
