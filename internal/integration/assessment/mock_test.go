package assessment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMockConnector_AnalyzeJD(t *testing.T) {
	m := NewMockConnector(zaptest.NewLogger(t))

	good, err := m.AnalyzeJD(context.Background(), "Backend engineer. Responsibilities: build APIs. Requirements: 5 years experience with Go.")
	require.NoError(t, err)
	assert.True(t, good.Accepted(80))
	assert.Equal(t, "Backend engineer", good.Overview)

	bad, err := m.AnalyzeJD(context.Background(), "A recipe for lemon cake.")
	require.NoError(t, err)
	assert.False(t, bad.Accepted(80))
}

func TestMockConnector_GenerateQuestions(t *testing.T) {
	m := NewMockConnector(zaptest.NewLogger(t))

	qs, err := m.GenerateQuestions(context.Background(), "Go developer.", 7)

	require.NoError(t, err)
	require.Len(t, qs, 7)
	ids := map[string]bool{}
	for _, q := range qs {
		ids[q.ID] = true
		assert.NotEmpty(t, q.ReferenceAnswer)
	}
	assert.Len(t, ids, 7)
}

func TestMockConnector_EvaluateAnswer(t *testing.T) {
	m := NewMockConnector(zaptest.NewLogger(t))
	ref := "Goroutines are lightweight threads managed by the runtime"

	high, _ := m.EvaluateAnswer(context.Background(), &entity.EvaluateAnswerRequest{UserAnswer: ref, ReferenceAnswer: ref})
	low, _ := m.EvaluateAnswer(context.Background(), &entity.EvaluateAnswerRequest{UserAnswer: "no idea", ReferenceAnswer: ref})

	assert.InDelta(t, 95, high.Score, 0.001)
	assert.InDelta(t, 30, low.Score, 0.001)
}

func TestMockConnector_StreamAnswer(t *testing.T) {
	m := NewMockConnector(zaptest.NewLogger(t))
	m.chunkDelay = time.Millisecond

	stream, err := m.StreamAnswer(context.Background(), &entity.GenerateAnswerRequest{QuestionText: "q"})
	require.NoError(t, err)

	var parts []string
	for chunk, err := range stream.Chunks() {
		require.NoError(t, err)
		parts = append(parts, chunk)
	}
	assert.Len(t, parts, 4)
	assert.Equal(t, mockAnswer, strings.Join(parts, ""))
}

func TestMockConnector_StreamAnswer_StopsOnClose(t *testing.T) {
	m := NewMockConnector(zaptest.NewLogger(t))
	m.chunkDelay = time.Hour

	stream, err := m.StreamAnswer(context.Background(), &entity.GenerateAnswerRequest{QuestionText: "q"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for range stream.Chunks() {
		}
		close(done)
	}()
	require.NoError(t, stream.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after Close")
	}
}
