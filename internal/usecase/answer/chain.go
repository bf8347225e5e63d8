package answer

import (
	"context"
	"errors"
	"strings"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/pkg/metrics"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// StaticAnswer is returned when every generation strategy failed.
const StaticAnswer = "I couldn't generate a specific answer at this time. " +
	"Please write your own answer based on your experience and knowledge relevant to this question."

// Chain obtains a sample answer by trying streaming first, then the
// synchronous endpoint, then a fixed apology. It never fails.
type Chain struct {
	orchestrator *Orchestrator
	sync         SyncGenerator
	wordLimit    int
}

func NewChain(orchestrator *Orchestrator, sync SyncGenerator, wordLimit int) *Chain {
	if wordLimit <= 0 {
		wordLimit = DefaultWordLimit
	}
	return &Chain{
		orchestrator: orchestrator,
		sync:         sync,
		wordLimit:    wordLimit,
	}
}

// Obtain returns the best available answer for questionText. onChunk sees
// the running text of the streaming stage only; the returned answer is the
// one to display. A wordLimit of zero uses the chain default.
func (c *Chain) Obtain(ctx context.Context, questionText string, wordLimit int, onChunk ChunkFunc) entity.GeneratedAnswer {
	if wordLimit <= 0 {
		wordLimit = c.wordLimit
	}

	res, err := c.orchestrator.Run(ctx, questionText, wordLimit, onChunk)
	if err == nil && res.Success && strings.TrimSpace(res.Text) != "" {
		return c.done(ctx, res.Text, entity.AnswerSourceStream)
	}
	c.stageFailed(ctx, "stream", err)

	if ctx.Err() != nil {
		c.stageFailed(ctx, "sync", ctx.Err())
		return c.exhausted(ctx)
	}

	text, err := c.sync.GenerateAnswer(ctx, &entity.GenerateAnswerRequest{
		QuestionText: questionText,
		WordLimit:    wordLimit,
	})
	if err == nil && strings.TrimSpace(text) != "" {
		bounded, _ := Truncate(text, wordLimit)
		return c.done(ctx, bounded, entity.AnswerSourceSync)
	}
	if err == nil {
		err = errors.New("empty answer")
	}
	c.stageFailed(ctx, "sync", err)

	return c.exhausted(ctx)
}

func (c *Chain) done(ctx context.Context, text string, source entity.AnswerSource) entity.GeneratedAnswer {
	metrics.AnswersGenerated.WithLabelValues(string(source)).Inc()
	ctxzap.Info(ctx, "sample answer generated",
		zap.String("source", string(source)),
		zap.Int("length", len(text)),
	)
	return entity.GeneratedAnswer{Text: text, Source: source}
}

func (c *Chain) stageFailed(ctx context.Context, stage string, err error) {
	if err == nil {
		err = errors.New("no content received")
	}
	metrics.AnswerStageFailures.WithLabelValues(stage).Inc()
	ctxzap.Warn(ctx, "answer generation stage failed", zap.String("stage", stage), zap.Error(err))
}

func (c *Chain) exhausted(ctx context.Context) entity.GeneratedAnswer {
	ctxzap.Error(ctx, "using static answer", zap.Error(entity.ErrGenerationExhausted))
	return c.done(ctx, StaticAnswer, entity.AnswerSourceStatic)
}
