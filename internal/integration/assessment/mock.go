package assessment

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

var jdKeywords = []string{
	"responsibilit", "requirement", "qualification", "experience",
	"skills", "role", "team", "salary", "benefits", "years",
}

var mockTopics = []string{
	"system design", "testing strategy", "code review", "performance tuning",
	"incident response", "API design", "data modeling", "concurrency",
	"observability", "security", "mentoring", "deployment pipelines",
}

const mockAnswer = "A strong answer starts with the context of the problem. " +
	"It then explains the approach that was chosen and the trade-offs considered. " +
	"Next it describes how the result was measured and verified in production. " +
	"Finally it reflects on what would be done differently with hindsight. "

// MockConnector is a deterministic stand-in for the assessment service.
type MockConnector struct {
	logger     *zap.Logger
	chunkDelay time.Duration
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger:     logger,
		chunkDelay: 150 * time.Millisecond,
	}
}

// AnalyzeJD accepts text mentioning at least three job posting keywords
func (m *MockConnector) AnalyzeJD(ctx context.Context, jdText string) (*entity.JDAnalysis, error) {
	ctxzap.Info(ctx, "[MOCK] analyzing job description")

	lower := strings.ToLower(jdText)
	hits := 0
	for _, kw := range jdKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}

	confidence := min(float64(hits)*25, 98)
	overview := firstSentence(jdText)

	return &entity.JDAnalysis{
		IsValidJD:  hits >= 3,
		Confidence: confidence,
		Overview:   overview,
	}, nil
}

func (m *MockConnector) GenerateQuestions(ctx context.Context, jdText string, count int) ([]entity.Question, error) {
	ctxzap.Info(ctx, "[MOCK] generating questions", zap.Int("question_count", count))

	role := firstSentence(jdText)
	questions := make([]entity.Question, count)
	for i := range questions {
		topic := mockTopics[i%len(mockTopics)]
		questions[i] = entity.Question{
			ID:   uuid.NewString(),
			Text: fmt.Sprintf("Describe your experience with %s in a role like this: %s", topic, role),
			ReferenceAnswer: fmt.Sprintf(
				"A concrete example of %s, the decisions made, the measurable outcome and lessons learned.", topic),
		}
	}

	return questions, nil
}

// EvaluateAnswer scores by the share of reference words found in the answer
func (m *MockConnector) EvaluateAnswer(ctx context.Context, req *entity.EvaluateAnswerRequest) (*entity.Evaluation, error) {
	ctxzap.Info(ctx, "[MOCK] evaluating answer", zap.String("question_id", req.QuestionID))

	ref := wordSet(req.ReferenceAnswer)
	got := wordSet(req.UserAnswer)

	matched := 0
	for w := range ref {
		if _, ok := got[w]; ok {
			matched++
		}
	}

	score := 30.0
	if len(ref) > 0 {
		score += 65 * float64(matched) / float64(len(ref))
	}

	return &entity.Evaluation{
		Score:                  score,
		Feedback:               fmt.Sprintf("Your answer covers %d of %d key points.", matched, len(ref)),
		ImprovementSuggestions: "Add a concrete example with a measurable outcome.",
	}, nil
}

func (m *MockConnector) GenerateAnswer(ctx context.Context, req *entity.GenerateAnswerRequest) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating answer")
	return mockAnswer, nil
}

// StreamAnswer emits the canned answer sentence by sentence
func (m *MockConnector) StreamAnswer(ctx context.Context, req *entity.GenerateAnswerRequest) (entity.TextStream, error) {
	ctxzap.Info(ctx, "[MOCK] streaming answer")

	var sentences []string
	for _, s := range strings.SplitAfter(mockAnswer, ". ") {
		if s != "" {
			sentences = append(sentences, s)
		}
	}

	return newMockStream(ctx, sentences, m.chunkDelay), nil
}

func (m *MockConnector) FetchLogs(ctx context.Context, q *entity.LogsQuery) ([]entity.LogEntry, error) {
	ctxzap.Info(ctx, "[MOCK] fetching logs", zap.String("type", string(q.Type)))

	date := q.Date
	if date == "" {
		date = time.Now().UTC().Format(time.DateOnly)
	}

	return []entity.LogEntry{
		{"timestamp": date + "T09:00:00Z", "type": string(q.Type), "message": "mock log entry"},
		{"timestamp": date + "T09:05:00Z", "type": string(q.Type), "message": "another mock log entry"},
	}, nil
}

type mockStream struct {
	ctx       context.Context
	chunks    []string
	delay     time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

func newMockStream(ctx context.Context, chunks []string, delay time.Duration) *mockStream {
	return &mockStream{ctx: ctx, chunks: chunks, delay: delay, done: make(chan struct{})}
}

func (s *mockStream) Chunks() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer s.Close()
		for _, c := range s.chunks {
			select {
			case <-s.ctx.Done():
				yield("", s.ctx.Err())
				return
			case <-s.done:
				return
			case <-time.After(s.delay):
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

func (s *mockStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, ".\n"); i > 0 {
		text = text[:i]
	}
	if r := []rune(text); len(r) > 80 {
		text = string(r[:80]) + "..."
	}
	return text
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) > 3 {
			set[w] = struct{}{}
		}
	}
	return set
}
