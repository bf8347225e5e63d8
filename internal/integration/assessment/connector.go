package assessment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/futig/jd-assessment/internal/config"
	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/integration/common"
	pkghttp "github.com/futig/jd-assessment/pkg/http"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector talks to the assessment service: JD analysis, question
// generation, answer evaluation, sample answers and the log viewer.
type Connector struct {
	config    config.AssessmentConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.AssessmentConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// AnalyzeJD asks the service whether jdText is a job description
// POST {analyze_endpoint} {"jd_text": ...}
func (c *Connector) AnalyzeJD(ctx context.Context, jdText string) (*entity.JDAnalysis, error) {
	ctxzap.Info(ctx, "analyzing job description", zap.Int("jd_length", len(jdText)))

	var resp entity.JDAnalysis
	err := c.doWithRetry(ctx, "analyze_jd", c.config.AnalyzeJDEndpoint, &entity.AnalyzeJDRequest{JDText: jdText}, &resp)
	if err != nil {
		return nil, fmt.Errorf("analyze jd failed: %w", err)
	}

	ctxzap.Info(ctx, "job description analyzed",
		zap.Bool("is_valid_jd", resp.IsValidJD),
		zap.Float64("confidence", resp.Confidence),
	)

	return &resp, nil
}

// GenerateQuestions requests count interview questions for jdText.
// Questions without an id get a fresh one.
func (c *Connector) GenerateQuestions(ctx context.Context, jdText string, count int) ([]entity.Question, error) {
	ctxzap.Info(ctx, "generating questions", zap.Int("question_count", count))

	req := &entity.GenerateQuestionsRequest{JDText: jdText, QuestionCount: count}

	var resp entity.GenerateQuestionsResponse
	if err := c.doWithRetry(ctx, "generate_questions", c.config.GenerateQuestionsEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("generate questions failed: %w", err)
	}

	questions := make([]entity.Question, 0, len(resp.Questions))
	for _, q := range resp.Questions {
		if strings.TrimSpace(q.Text) == "" {
			continue
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		questions = append(questions, q)
	}

	ctxzap.Info(ctx, "questions generated", zap.Int("received", len(questions)))

	return questions, nil
}

// EvaluateAnswer scores a user answer against the reference answer
func (c *Connector) EvaluateAnswer(ctx context.Context, req *entity.EvaluateAnswerRequest) (*entity.Evaluation, error) {
	ctxzap.Info(ctx, "evaluating answer",
		zap.String("question_id", req.QuestionID),
		zap.Int("answer_length", len(req.UserAnswer)),
	)

	var resp entity.Evaluation
	if err := c.doWithRetry(ctx, "evaluate_answer", c.config.EvaluateAnswerEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("evaluate answer failed: %w", err)
	}

	ctxzap.Info(ctx, "answer evaluated", zap.Float64("score", resp.Score))

	return &resp, nil
}

// GenerateAnswer requests a complete sample answer. Not retried.
func (c *Connector) GenerateAnswer(ctx context.Context, req *entity.GenerateAnswerRequest) (string, error) {
	var resp entity.GenerateAnswerResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, c.config.GenerateAnswerEndpoint, req, &resp)
	if err != nil {
		return "", fmt.Errorf("generate answer failed: %w", err)
	}

	return resp.Answer, nil
}

// StreamAnswer opens the chunked sample answer stream. Not retried.
func (c *Connector) StreamAnswer(ctx context.Context, req *entity.GenerateAnswerRequest) (entity.TextStream, error) {
	ctxzap.Debug(ctx, "opening answer stream", zap.Int("word_limit", req.WordLimit))

	stream, err := c.connector.DoStream(ctx, http.MethodPost, c.config.StreamAnswerEndpoint, req)
	if err != nil {
		return nil, fmt.Errorf("open answer stream: %w", err)
	}

	return stream, nil
}

// FetchLogs reads one day of logs of the given type
// GET {logs_endpoint}?date=YYYY-MM-DD with Basic auth
func (c *Connector) FetchLogs(ctx context.Context, q *entity.LogsQuery) ([]entity.LogEntry, error) {
	endpoint := strings.Replace(c.config.LogsEndpoint, "{type}", url.PathEscape(string(q.Type)), 1)

	opts := []pkghttp.RequestOpt{pkghttp.WithRequestBasicAuth(q.Username, q.Password)}
	if q.Date != "" {
		opts = append(opts, pkghttp.WithQuery("date", q.Date))
	}

	var resp entity.LogsResponse
	err := retry.Do(
		func() error {
			return c.connector.DoRequest(ctx, http.MethodGet, endpoint, nil, &resp, opts...)
		},
		c.config.Retry.Options(ctx, "fetch_logs", pkghttp.IsRetryable)...,
	)
	if err != nil {
		return nil, err
	}

	return resp.Logs, nil
}

func (c *Connector) doWithRetry(ctx context.Context, operation, endpoint string, reqBody, respBody any) error {
	return retry.Do(
		func() error {
			return c.connector.DoRequest(ctx, http.MethodPost, endpoint, reqBody, respBody)
		},
		c.config.Retry.Options(ctx, operation, pkghttp.IsRetryable)...,
	)
}
