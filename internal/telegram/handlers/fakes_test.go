package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/repository"
	"github.com/futig/jd-assessment/internal/telegram/keyboard"
	"github.com/futig/jd-assessment/internal/telegram/state"
	"github.com/futig/jd-assessment/internal/usecase/answer"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap/zaptest"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []tgbotapi.Chattable
	nextID int
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	s.nextID++
	return tgbotapi.Message{MessageID: s.nextID}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns sent and edited message texts, ignoring chat actions.
func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, c := range s.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		case tgbotapi.DocumentConfig:
			if f, ok := m.File.(tgbotapi.FileBytes); ok {
				out = append(out, "document:"+f.Name)
			}
		}
	}
	return out
}

func (s *fakeSender) last() string {
	texts := s.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type fakeSessions struct {
	mu   sync.Mutex
	view entity.SessionView

	jdResp      *entity.SubmitJDResponse
	jdErr       error
	evaluation  *entity.Evaluation
	chunks      []string
	answerText  string
	results     *entity.Results
	resetCalled bool
}

func (f *fakeSessions) StartSession(context.Context) (*entity.SessionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = entity.SessionView{ID: "s1", Step: entity.StepInput}
	v := f.view
	return &v, nil
}

func (f *fakeSessions) GetSession(context.Context, string) (*entity.SessionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.view
	return &v, nil
}

func (f *fakeSessions) SubmitJD(context.Context, string, *entity.SubmitJDRequest) (*entity.SubmitJDResponse, error) {
	return f.jdResp, f.jdErr
}

func (f *fakeSessions) GenerateQuestions(_ context.Context, _ string, _ *entity.GenerateQuestionsInput) (*entity.SessionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view.Step = entity.StepAnswer
	f.view.Questions = []entity.Question{
		{ID: "q1", Text: "What is a goroutine?"},
		{ID: "q2", Text: "What is a channel?"},
	}
	f.view.Scores = map[string]float64{}
	v := f.view
	return &v, nil
}

func (f *fakeSessions) GenerateAnswer(_ context.Context, _, _ string, onChunk answer.ChunkFunc) (*entity.GeneratedAnswer, error) {
	for _, c := range f.chunks {
		onChunk(c)
	}
	return &entity.GeneratedAnswer{Text: f.answerText, Source: entity.AnswerSourceStream}, nil
}

func (f *fakeSessions) SubmitAnswer(_ context.Context, _, questionID string, _ *entity.SubmitAnswerRequest) (*entity.SubmitAnswerResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view.Scores[questionID] = f.evaluation.Score
	v := f.view
	return &entity.SubmitAnswerResponse{Evaluation: f.evaluation, Session: &v}, nil
}

func (f *fakeSessions) Results(context.Context, string) (*entity.Results, error) {
	return f.results, nil
}

func (f *fakeSessions) Report(_ context.Context, _ string, format entity.ReportFormat) (*entity.ReportFile, error) {
	return &entity.ReportFile{Filename: "assessment-results." + string(format), Content: []byte("x")}, nil
}

func (f *fakeSessions) Reset(context.Context, string) (*entity.SessionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalled = true
	f.view = entity.SessionView{ID: f.view.ID, Step: entity.StepInput}
	v := f.view
	return &v, nil
}

func newDeps(t *testing.T, sessions SessionUsecase) (*Deps, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	return &Deps{
		API:                 sender,
		State:               state.NewManager(repository.NewMemoryKVStore(time.Hour)),
		Sessions:            sessions,
		Keyboard:            keyboard.NewBuilder(),
		Logger:              zaptest.NewLogger(t),
		MinJDLength:         200,
		ConfidenceThreshold: 80,
		EditInterval:        time.Hour,
	}, sender
}
