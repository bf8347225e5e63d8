package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/jd-assessment/internal/config"
	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/pkg/formatter"
	"github.com/futig/jd-assessment/internal/pkg/logger"
	"github.com/futig/jd-assessment/internal/pkg/metrics"
	"github.com/futig/jd-assessment/internal/pkg/validator"
	"github.com/futig/jd-assessment/internal/usecase/answer"
	"github.com/futig/jd-assessment/internal/workflow"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Neutral evaluation used when the evaluator is unavailable.
const (
	fallbackScore       = 50.0
	fallbackFeedback    = "We encountered an error while evaluating your answer."
	fallbackSuggestions = "Please try again or check your network connection."
)

// SessionUsecase drives assessment sessions through their workflow
type SessionUsecase struct {
	sessions   SessionRepository
	cache      QuestionCache
	assessment AssessmentConnector
	answers    AnswerProvider
	validator  *validator.Validator
	formatters *formatter.Factory
	cfg        config.SessionConfig
	wordLimit  int
	listeners  []workflow.Listener
	scheduler  workflow.Scheduler
	logger     *zap.Logger
}

// NewUsecase creates a new session use case
func NewUsecase(
	sessions SessionRepository,
	cache QuestionCache,
	assessment AssessmentConnector,
	answers AnswerProvider,
	validator *validator.Validator,
	formatters *formatter.Factory,
	cfg config.SessionConfig,
	answerCfg config.AnswerConfig,
	logger *zap.Logger,
) *SessionUsecase {
	return &SessionUsecase{
		sessions:   sessions,
		cache:      cache,
		assessment: assessment,
		answers:    answers,
		validator:  validator,
		formatters: formatters,
		cfg:        cfg,
		wordLimit:  answerCfg.WordLimit,
		scheduler:  workflow.RealScheduler(),
		logger:     logger,
	}
}

// Subscribe registers l on every session created afterwards.
func (uc *SessionUsecase) Subscribe(l workflow.Listener) {
	uc.listeners = append(uc.listeners, l)
}

// WithScheduler replaces the timer source of new sessions.
func (uc *SessionUsecase) WithScheduler(s workflow.Scheduler) *SessionUsecase {
	uc.scheduler = s
	return uc
}

// StartSession creates a new session in the Input step
func (uc *SessionUsecase) StartSession(ctx context.Context) (*entity.SessionView, error) {
	opts := []workflow.Option{
		workflow.WithScheduler(uc.scheduler),
		workflow.WithResultsDelay(uc.cfg.ResultsDelay),
	}
	for _, l := range uc.listeners {
		opts = append(opts, workflow.WithListener(l))
	}

	m := workflow.New(uuid.NewString(), opts...)
	if err := uc.sessions.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	ctxzap.Info(logger.WithSession(ctx, m.ID()), "session started")

	view := m.Snapshot()
	return &view, nil
}

func (uc *SessionUsecase) GetSession(ctx context.Context, sessionID string) (*entity.SessionView, error) {
	m, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := m.Snapshot()
	return &view, nil
}

// SubmitJD validates the job description and, when the analyzer accepts it,
// moves the session to Generate. A rejected description returns the
// analysis together with an ErrValidationRejected error.
func (uc *SessionUsecase) SubmitJD(ctx context.Context, sessionID string, req *entity.SubmitJDRequest) (*entity.SubmitJDResponse, error) {
	ctx = logger.WithSession(logger.WithAction(ctx, "submit_jd"), sessionID)

	m, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if step := m.Step(); step != entity.StepInput {
		return nil, fmt.Errorf("%w: job description already accepted, session is in step %s", entity.ErrWrongStep, step)
	}

	if err := uc.validator.ValidateSubmitJD(req); err != nil {
		return nil, err
	}

	analysis, err := uc.assessment.AnalyzeJD(ctx, req.JDText)
	if err != nil {
		return nil, fmt.Errorf("analyze job description: %w", err)
	}

	if !analysis.Accepted(uc.cfg.ConfidenceThreshold) {
		ctxzap.Info(ctx, "job description rejected",
			zap.Bool("is_valid_jd", analysis.IsValidJD),
			zap.Float64("confidence", analysis.Confidence),
		)
		view := m.Snapshot()
		return &entity.SubmitJDResponse{Analysis: analysis, Session: &view},
			fmt.Errorf("%w: confidence %.0f%% is below %.0f%%", entity.ErrValidationRejected, analysis.Confidence, uc.cfg.ConfidenceThreshold)
	}

	if err := m.AcceptJD(req.JDText, analysis.Overview); err != nil {
		return nil, err
	}

	view := m.Snapshot()
	return &entity.SubmitJDResponse{Analysis: analysis, Session: &view}, nil
}

// GenerateQuestions requests a question batch and moves Generate -> Answer.
// The batch is also written to the question cache on a best-effort basis.
func (uc *SessionUsecase) GenerateQuestions(ctx context.Context, sessionID string, req *entity.GenerateQuestionsInput) (*entity.SessionView, error) {
	ctx = logger.WithSession(logger.WithAction(ctx, "generate_questions"), sessionID)

	count, err := uc.validator.QuestionCount(req.QuestionCount)
	if err != nil {
		return nil, err
	}

	m, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if step := m.Step(); step != entity.StepGenerate {
		return nil, fmt.Errorf("%w: cannot generate questions in step %s", entity.ErrWrongStep, step)
	}

	questions, err := uc.assessment.GenerateQuestions(ctx, m.JDText(), count)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	if len(questions) == 0 {
		ctxzap.Warn(ctx, "question generator returned an empty batch")
		return nil, entity.ErrGenerationEmpty
	}

	if len(questions) < count {
		ctxzap.Warn(ctx, "received fewer questions than requested",
			zap.Int("requested", count),
			zap.Int("received", len(questions)),
		)
	}

	if err := m.LoadQuestions(questions); err != nil {
		return nil, err
	}

	// Advisory: evaluation falls back to the in-memory batch.
	_ = uc.cache.Store(ctx, sessionID, questions)

	view := m.Snapshot()
	return &view, nil
}

// GenerateAnswer produces a sample answer for one question. onChunk sees
// the running streamed text. The call never fails once the question is
// resolved.
func (uc *SessionUsecase) GenerateAnswer(ctx context.Context, sessionID, questionID string, onChunk answer.ChunkFunc) (*entity.GeneratedAnswer, error) {
	ctx = logger.AddFields(logger.WithSession(logger.WithAction(ctx, "generate_answer"), sessionID),
		zap.String("question_id", questionID))

	m, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	q, ok := uc.resolveQuestion(ctx, m, questionID)
	if !ok || q.Text == "" {
		return nil, fmt.Errorf("%w: %s", entity.ErrQuestionNotFound, questionID)
	}

	generated := uc.answers.Obtain(ctx, q.Text, uc.wordLimit, onChunk)
	return &generated, nil
}

// SubmitAnswer evaluates the user's answer and records the score. When the
// evaluator fails a neutral score is recorded instead.
func (uc *SessionUsecase) SubmitAnswer(ctx context.Context, sessionID, questionID string, req *entity.SubmitAnswerRequest) (*entity.SubmitAnswerResponse, error) {
	ctx = logger.AddFields(logger.WithSession(logger.WithAction(ctx, "submit_answer"), sessionID),
		zap.String("question_id", questionID))

	if err := uc.validator.ValidateSubmitAnswer(req); err != nil {
		return nil, err
	}

	m, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if step := m.Step(); step != entity.StepAnswer {
		return nil, fmt.Errorf("%w: cannot submit answers in step %s", entity.ErrWrongStep, step)
	}

	if _, ok := m.Question(questionID); !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrQuestionNotFound, questionID)
	}

	evalReq := uc.buildEvaluationRequest(ctx, m, questionID, req.UserAnswer)

	evaluation, err := uc.assessment.EvaluateAnswer(ctx, evalReq)
	if err != nil {
		ctxzap.Error(ctx, "evaluation failed, recording neutral score",
			zap.Error(errors.Join(entity.ErrEvaluationFailed, err)))
		metrics.Evaluations.WithLabelValues("fallback").Inc()
		evaluation = &entity.Evaluation{
			Score:                  fallbackScore,
			Feedback:               fallbackFeedback,
			ImprovementSuggestions: fallbackSuggestions,
			Fallback:               true,
		}
	} else {
		metrics.Evaluations.WithLabelValues("success").Inc()
	}

	complete, err := m.RecordScore(questionID, evaluation.Score)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "answer scored",
		zap.Float64("score", evaluation.Score),
		zap.Bool("fallback", evaluation.Fallback),
		zap.Bool("all_answered", complete),
	)

	view := m.Snapshot()
	return &entity.SubmitAnswerResponse{Evaluation: evaluation, Session: &view}, nil
}

// Results aggregates the session scores
func (uc *SessionUsecase) Results(ctx context.Context, sessionID string) (*entity.Results, error) {
	m, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	res, err := m.Results()
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Reset returns the session to Input and drops its cached questions
func (uc *SessionUsecase) Reset(ctx context.Context, sessionID string) (*entity.SessionView, error) {
	ctx = logger.WithSession(logger.WithAction(ctx, "reset"), sessionID)

	m, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	m.Reset()

	if err := uc.cache.Clear(ctx, sessionID); err != nil {
		ctxzap.Warn(ctx, "failed to clear question cache", zap.Error(err))
	}

	ctxzap.Info(ctx, "session reset")

	view := m.Snapshot()
	return &view, nil
}
