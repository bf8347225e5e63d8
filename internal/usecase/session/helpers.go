package session

import (
	"context"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/workflow"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
)

// resolveQuestion prefers the live batch and falls back to the cache.
func (uc *SessionUsecase) resolveQuestion(ctx context.Context, m *workflow.Machine, questionID string) (entity.StoredQuestion, bool) {
	if q, ok := m.Question(questionID); ok {
		return entity.StoredQuestion{Text: q.Text, ReferenceAnswer: q.ReferenceAnswer}, true
	}

	if q, ok := uc.cache.Get(ctx, m.ID(), questionID); ok {
		ctxzap.Debug(ctx, "question resolved from cache")
		return q, true
	}

	return entity.StoredQuestion{}, false
}

// buildEvaluationRequest fills question text and reference answer from the
// live batch, then from the cache, and leaves them empty otherwise.
func (uc *SessionUsecase) buildEvaluationRequest(ctx context.Context, m *workflow.Machine, questionID, userAnswer string) *entity.EvaluateAnswerRequest {
	req := &entity.EvaluateAnswerRequest{
		QuestionID: questionID,
		UserAnswer: userAnswer,
	}

	var text string
	if q, ok := m.Question(questionID); ok {
		text = q.Text
		req.ReferenceAnswer = q.ReferenceAnswer
	}

	if text == "" || req.ReferenceAnswer == "" {
		if cached, ok := uc.cache.Get(ctx, m.ID(), questionID); ok {
			if text == "" {
				text = cached.Text
			}
			if req.ReferenceAnswer == "" {
				req.ReferenceAnswer = cached.ReferenceAnswer
			}
		}
	}

	if text != "" {
		req.QuestionText = &text
	}

	return req
}
