package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const storedQuestionsKey = "storedQuestions"

// QuestionCache keeps the latest question batch of each client scope so
// evaluation can recover question text and reference answers even when the
// in-memory question objects are gone. Each scope holds one record that is
// replaced wholesale on every Store.
type QuestionCache struct {
	store KVStore
}

func NewQuestionCache(store KVStore) *QuestionCache {
	return &QuestionCache{store: store}
}

func (c *QuestionCache) key(scope string) string {
	return storedQuestionsKey + ":" + scope
}

// Store replaces the scope's record with questions.
func (c *QuestionCache) Store(ctx context.Context, scope string, questions []entity.Question) error {
	record := make(map[string]entity.StoredQuestion, len(questions))
	for _, q := range questions {
		record[q.ID] = entity.StoredQuestion{
			Text:            q.Text,
			ReferenceAnswer: q.ReferenceAnswer,
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal stored questions: %w", err)
	}

	if err := c.store.Set(ctx, c.key(scope), data); err != nil {
		ctxzap.Warn(ctx, "failed to store questions in cache", zap.Error(err))
		return fmt.Errorf("store questions: %w", err)
	}

	return nil
}

// Get returns the cached question. Read or decode failures count as a miss.
func (c *QuestionCache) Get(ctx context.Context, scope, questionID string) (entity.StoredQuestion, bool) {
	data, ok, err := c.store.Get(ctx, c.key(scope))
	if err != nil {
		ctxzap.Warn(ctx, "failed to read questions from cache", zap.Error(err))
		return entity.StoredQuestion{}, false
	}
	if !ok {
		return entity.StoredQuestion{}, false
	}

	var record map[string]entity.StoredQuestion
	if err := json.Unmarshal(data, &record); err != nil {
		ctxzap.Warn(ctx, "corrupted question cache record", zap.Error(err))
		return entity.StoredQuestion{}, false
	}

	q, ok := record[questionID]
	return q, ok
}

// Clear drops the scope's record.
func (c *QuestionCache) Clear(ctx context.Context, scope string) error {
	if err := c.store.Delete(ctx, c.key(scope)); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	return nil
}
