package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/futig/jd-assessment/internal/config"
	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/pkg/formatter"
	"github.com/futig/jd-assessment/internal/pkg/validator"
	"github.com/futig/jd-assessment/internal/repository"
	"github.com/futig/jd-assessment/internal/usecase/answer"
	"github.com/futig/jd-assessment/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeAssessment struct {
	mu sync.Mutex

	analysis    *entity.JDAnalysis
	analyzeErr  error
	questions   []entity.Question
	evaluation  *entity.Evaluation
	evaluateErr error

	analyzeCalls int
	lastCount    int
	lastEval     *entity.EvaluateAnswerRequest
}

func (f *fakeAssessment) AnalyzeJD(_ context.Context, _ string) (*entity.JDAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzeCalls++
	return f.analysis, f.analyzeErr
}

func (f *fakeAssessment) GenerateQuestions(_ context.Context, _ string, count int) ([]entity.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCount = count
	return f.questions, nil
}

func (f *fakeAssessment) EvaluateAnswer(_ context.Context, req *entity.EvaluateAnswerRequest) (*entity.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEval = req
	return f.evaluation, f.evaluateErr
}

type fakeAnswers struct {
	lastQuestion string
}

func (f *fakeAnswers) Obtain(_ context.Context, questionText string, _ int, onChunk answer.ChunkFunc) entity.GeneratedAnswer {
	f.lastQuestion = questionText
	if onChunk != nil {
		onChunk("partial")
	}
	return entity.GeneratedAnswer{Text: "full answer", Source: entity.AnswerSourceStream}
}

type manualScheduler struct {
	mu    sync.Mutex
	funcs []func()
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) workflow.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcs = append(s.funcs, f)
	return noopTimer{}
}

func (s *manualScheduler) fireAll() {
	s.mu.Lock()
	funcs := s.funcs
	s.funcs = nil
	s.mu.Unlock()
	for _, f := range funcs {
		f()
	}
}

type fixture struct {
	uc        *SessionUsecase
	remote    *fakeAssessment
	answers   *fakeAnswers
	cache     *repository.QuestionCache
	scheduler *manualScheduler
}

func sessionConfig() config.SessionConfig {
	return config.SessionConfig{
		TTL:                  time.Hour,
		ResultsDelay:         time.Second,
		DefaultQuestionCount: 10,
		MinQuestionCount:     5,
		MaxQuestionCount:     50,
		MinJDLength:          200,
		ConfidenceThreshold:  80,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	remote := &fakeAssessment{
		analysis: &entity.JDAnalysis{IsValidJD: true, Confidence: 92, Overview: "Backend role"},
		questions: []entity.Question{
			{ID: "q1", Text: "Explain goroutines", ReferenceAnswer: "Lightweight threads"},
			{ID: "q2", Text: "Explain channels", ReferenceAnswer: "Typed conduits"},
		},
		evaluation: &entity.Evaluation{Score: 85, Feedback: "Good"},
	}
	answers := &fakeAnswers{}
	cache := repository.NewQuestionCache(repository.NewMemoryKVStore(time.Hour))
	scheduler := &manualScheduler{}
	cfg := sessionConfig()

	uc := NewUsecase(
		repository.NewSessionRepository(time.Hour),
		cache,
		remote,
		answers,
		validator.New(cfg),
		formatter.NewFactory(),
		cfg,
		config.AnswerConfig{WordLimit: 100},
		zaptest.NewLogger(t),
	).WithScheduler(scheduler)

	return &fixture{uc: uc, remote: remote, answers: answers, cache: cache, scheduler: scheduler}
}

func validJD() string {
	return strings.Repeat("We are hiring a senior Go engineer. ", 10)
}

// toAnswerStep drives a fresh session to the Answer step.
func (f *fixture) toAnswerStep(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	view, err := f.uc.StartSession(ctx)
	require.NoError(t, err)

	_, err = f.uc.SubmitJD(ctx, view.ID, &entity.SubmitJDRequest{JDText: validJD()})
	require.NoError(t, err)

	_, err = f.uc.GenerateQuestions(ctx, view.ID, &entity.GenerateQuestionsInput{QuestionCount: 5})
	require.NoError(t, err)

	return view.ID
}

func TestStartSession(t *testing.T) {
	f := newFixture(t)

	view, err := f.uc.StartSession(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, entity.StepInput, view.Step)

	got, err := f.uc.GetSession(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, view, got)
}

func TestGetSession_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestSubmitJD(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted description advances to generate", func(t *testing.T) {
		f := newFixture(t)
		view, err := f.uc.StartSession(ctx)
		require.NoError(t, err)

		resp, err := f.uc.SubmitJD(ctx, view.ID, &entity.SubmitJDRequest{JDText: validJD()})
		require.NoError(t, err)
		assert.Equal(t, entity.StepGenerate, resp.Session.Step)
		assert.Equal(t, "Backend role", resp.Session.JDOverview)
		assert.InDelta(t, 92, resp.Analysis.Confidence, 0.001)
	})

	t.Run("short description is rejected without a remote call", func(t *testing.T) {
		f := newFixture(t)
		view, err := f.uc.StartSession(ctx)
		require.NoError(t, err)

		_, err = f.uc.SubmitJD(ctx, view.ID, &entity.SubmitJDRequest{JDText: "too short"})
		assert.ErrorIs(t, err, entity.ErrValidationRejected)
		assert.Zero(t, f.remote.analyzeCalls)
	})

	t.Run("low confidence keeps the session in input", func(t *testing.T) {
		f := newFixture(t)
		f.remote.analysis = &entity.JDAnalysis{IsValidJD: true, Confidence: 79.9, Overview: "Unclear"}
		view, err := f.uc.StartSession(ctx)
		require.NoError(t, err)

		resp, err := f.uc.SubmitJD(ctx, view.ID, &entity.SubmitJDRequest{JDText: validJD()})
		assert.ErrorIs(t, err, entity.ErrValidationRejected)
		require.NotNil(t, resp)
		assert.Equal(t, entity.StepInput, resp.Session.Step)
	})

	t.Run("invalid verdict keeps the session in input", func(t *testing.T) {
		f := newFixture(t)
		f.remote.analysis = &entity.JDAnalysis{IsValidJD: false, Confidence: 95}
		view, err := f.uc.StartSession(ctx)
		require.NoError(t, err)

		_, err = f.uc.SubmitJD(ctx, view.ID, &entity.SubmitJDRequest{JDText: validJD()})
		assert.ErrorIs(t, err, entity.ErrValidationRejected)

		got, err := f.uc.GetSession(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StepInput, got.Step)
	})

	t.Run("analyzer failure is reported", func(t *testing.T) {
		f := newFixture(t)
		f.remote.analyzeErr = errors.New("boom")
		view, err := f.uc.StartSession(ctx)
		require.NoError(t, err)

		_, err = f.uc.SubmitJD(ctx, view.ID, &entity.SubmitJDRequest{JDText: validJD()})
		require.Error(t, err)
		assert.NotErrorIs(t, err, entity.ErrValidationRejected)
	})

	t.Run("second submission is a wrong step", func(t *testing.T) {
		f := newFixture(t)
		view, err := f.uc.StartSession(ctx)
		require.NoError(t, err)
		_, err = f.uc.SubmitJD(ctx, view.ID, &entity.SubmitJDRequest{JDText: validJD()})
		require.NoError(t, err)

		_, err = f.uc.SubmitJD(ctx, view.ID, &entity.SubmitJDRequest{JDText: validJD()})
		assert.ErrorIs(t, err, entity.ErrWrongStep)
		assert.Equal(t, 1, f.remote.analyzeCalls)
	})
}

func TestGenerateQuestions(t *testing.T) {
	ctx := context.Background()

	t.Run("loads batch and caches it", func(t *testing.T) {
		f := newFixture(t)
		id := f.toAnswerStep(t)

		got, err := f.uc.GetSession(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, entity.StepAnswer, got.Step)
		assert.Len(t, got.Questions, 2)
		assert.Equal(t, 5, f.remote.lastCount)

		cached, ok := f.cache.Get(ctx, id, "q2")
		require.True(t, ok)
		assert.Equal(t, "Explain channels", cached.Text)
	})

	t.Run("zero count uses the default", func(t *testing.T) {
		f := newFixture(t)
		view, err := f.uc.StartSession(ctx)
		require.NoError(t, err)
		_, err = f.uc.SubmitJD(ctx, view.ID, &entity.SubmitJDRequest{JDText: validJD()})
		require.NoError(t, err)

		_, err = f.uc.GenerateQuestions(ctx, view.ID, &entity.GenerateQuestionsInput{})
		require.NoError(t, err)
		assert.Equal(t, 10, f.remote.lastCount)
	})

	t.Run("out of range count", func(t *testing.T) {
		f := newFixture(t)
		view, err := f.uc.StartSession(ctx)
		require.NoError(t, err)

		_, err = f.uc.GenerateQuestions(ctx, view.ID, &entity.GenerateQuestionsInput{QuestionCount: 51})
		assert.ErrorIs(t, err, entity.ErrInvalidParameter)
	})

	t.Run("empty batch keeps generate step", func(t *testing.T) {
		f := newFixture(t)
		f.remote.questions = nil
		view, err := f.uc.StartSession(ctx)
		require.NoError(t, err)
		_, err = f.uc.SubmitJD(ctx, view.ID, &entity.SubmitJDRequest{JDText: validJD()})
		require.NoError(t, err)

		_, err = f.uc.GenerateQuestions(ctx, view.ID, &entity.GenerateQuestionsInput{QuestionCount: 5})
		assert.ErrorIs(t, err, entity.ErrGenerationEmpty)

		got, err := f.uc.GetSession(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StepGenerate, got.Step)
	})

	t.Run("input step is rejected", func(t *testing.T) {
		f := newFixture(t)
		view, err := f.uc.StartSession(ctx)
		require.NoError(t, err)

		_, err = f.uc.GenerateQuestions(ctx, view.ID, &entity.GenerateQuestionsInput{QuestionCount: 5})
		assert.ErrorIs(t, err, entity.ErrWrongStep)
	})

	t.Run("rejected batch is not cached", func(t *testing.T) {
		f := newFixture(t)
		f.remote.questions = []entity.Question{
			{ID: "q1", Text: "Explain goroutines"},
			{ID: "q1", Text: "Explain channels"},
		}
		view, err := f.uc.StartSession(ctx)
		require.NoError(t, err)
		_, err = f.uc.SubmitJD(ctx, view.ID, &entity.SubmitJDRequest{JDText: validJD()})
		require.NoError(t, err)

		_, err = f.uc.GenerateQuestions(ctx, view.ID, &entity.GenerateQuestionsInput{QuestionCount: 5})
		assert.ErrorIs(t, err, entity.ErrInvalidParameter)

		_, ok := f.cache.Get(ctx, view.ID, "q1")
		assert.False(t, ok)

		got, err := f.uc.GetSession(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StepGenerate, got.Step)
	})
}

func TestGenerateAnswer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.toAnswerStep(t)

	var chunks []string
	got, err := f.uc.GenerateAnswer(ctx, id, "q1", func(text string) {
		chunks = append(chunks, text)
	})
	require.NoError(t, err)
	assert.Equal(t, "full answer", got.Text)
	assert.Equal(t, entity.AnswerSourceStream, got.Source)
	assert.Equal(t, []string{"partial"}, chunks)
	assert.Equal(t, "Explain goroutines", f.answers.lastQuestion)

	_, err = f.uc.GenerateAnswer(ctx, id, "nope", nil)
	assert.ErrorIs(t, err, entity.ErrQuestionNotFound)
}

func TestSubmitAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("evaluation is recorded with question context", func(t *testing.T) {
		f := newFixture(t)
		id := f.toAnswerStep(t)

		resp, err := f.uc.SubmitAnswer(ctx, id, "q1", &entity.SubmitAnswerRequest{UserAnswer: "green threads"})
		require.NoError(t, err)
		assert.InDelta(t, 85, resp.Evaluation.Score, 0.001)
		assert.False(t, resp.Evaluation.Fallback)
		assert.InDelta(t, 85, resp.Session.Scores["q1"], 0.001)

		req := f.remote.lastEval
		require.NotNil(t, req)
		assert.Equal(t, "q1", req.QuestionID)
		assert.Equal(t, "Lightweight threads", req.ReferenceAnswer)
		require.NotNil(t, req.QuestionText)
		assert.Equal(t, "Explain goroutines", *req.QuestionText)
	})

	t.Run("evaluator failure records a neutral score", func(t *testing.T) {
		f := newFixture(t)
		f.remote.evaluation = nil
		f.remote.evaluateErr = errors.New("unavailable")
		id := f.toAnswerStep(t)

		resp, err := f.uc.SubmitAnswer(ctx, id, "q2", &entity.SubmitAnswerRequest{UserAnswer: "pipes"})
		require.NoError(t, err)
		assert.True(t, resp.Evaluation.Fallback)
		assert.InDelta(t, 50, resp.Evaluation.Score, 0.001)
		assert.Equal(t, fallbackFeedback, resp.Evaluation.Feedback)
		assert.Equal(t, fallbackSuggestions, resp.Evaluation.ImprovementSuggestions)
		assert.InDelta(t, 50, resp.Session.Scores["q2"], 0.001)
	})

	t.Run("blank answer is rejected", func(t *testing.T) {
		f := newFixture(t)
		id := f.toAnswerStep(t)

		_, err := f.uc.SubmitAnswer(ctx, id, "q1", &entity.SubmitAnswerRequest{UserAnswer: "   "})
		assert.ErrorIs(t, err, entity.ErrMissingField)
		assert.Nil(t, f.remote.lastEval)
	})

	t.Run("unknown question", func(t *testing.T) {
		f := newFixture(t)
		id := f.toAnswerStep(t)

		_, err := f.uc.SubmitAnswer(ctx, id, "q9", &entity.SubmitAnswerRequest{UserAnswer: "x"})
		assert.ErrorIs(t, err, entity.ErrQuestionNotFound)
	})

	t.Run("all answered moves to results after the delay", func(t *testing.T) {
		f := newFixture(t)
		id := f.toAnswerStep(t)

		_, err := f.uc.SubmitAnswer(ctx, id, "q1", &entity.SubmitAnswerRequest{UserAnswer: "a"})
		require.NoError(t, err)
		_, err = f.uc.SubmitAnswer(ctx, id, "q2", &entity.SubmitAnswerRequest{UserAnswer: "b"})
		require.NoError(t, err)

		got, err := f.uc.GetSession(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, entity.StepAnswer, got.Step)

		f.scheduler.fireAll()

		got, err = f.uc.GetSession(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, entity.StepResults, got.Step)

		_, err = f.uc.SubmitAnswer(ctx, id, "q1", &entity.SubmitAnswerRequest{UserAnswer: "late"})
		assert.ErrorIs(t, err, entity.ErrWrongStep)
	})
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var mu sync.Mutex
	var seen []entity.Step
	f.uc.Subscribe(func(tr workflow.Transition) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, tr.To)
	})

	id := f.toAnswerStep(t)
	for _, qid := range []string{"q1", "q2"} {
		_, err := f.uc.SubmitAnswer(ctx, id, qid, &entity.SubmitAnswerRequest{UserAnswer: "x"})
		require.NoError(t, err)
	}
	f.scheduler.fireAll()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []entity.Step{entity.StepGenerate, entity.StepAnswer, entity.StepResults}, seen)
}

func TestResultsAndReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	view, err := f.uc.StartSession(ctx)
	require.NoError(t, err)
	_, err = f.uc.Results(ctx, view.ID)
	assert.ErrorIs(t, err, entity.ErrWrongStep)

	id := f.toAnswerStep(t)
	_, err = f.uc.SubmitAnswer(ctx, id, "q1", &entity.SubmitAnswerRequest{UserAnswer: "a"})
	require.NoError(t, err)

	res, err := f.uc.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Answered)
	assert.Equal(t, 2, res.Total)
	assert.InDelta(t, 85, res.OverallScore, 0.001)

	file, err := f.uc.Report(ctx, id, entity.FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "assessment-results.md", file.Filename)
	assert.Contains(t, string(file.Content), "Explain goroutines")

	_, err = f.uc.Report(ctx, id, entity.ReportFormat("html"))
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.toAnswerStep(t)

	_, err := f.uc.SubmitAnswer(ctx, id, "q1", &entity.SubmitAnswerRequest{UserAnswer: "a"})
	require.NoError(t, err)

	view, err := f.uc.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StepInput, view.Step)
	assert.Empty(t, view.Questions)
	assert.Empty(t, view.Scores)
	assert.Empty(t, view.JDText)

	_, ok := f.cache.Get(ctx, id, "q1")
	assert.False(t, ok)

	// the pending results timer belongs to the old batch
	f.scheduler.fireAll()
	got, err := f.uc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StepInput, got.Step)
}
