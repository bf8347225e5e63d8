package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/pkg/metrics"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const DefaultStreamTimeout = 10 * time.Second

// StreamResult is the outcome of one streaming attempt.
type StreamResult struct {
	Success bool
	Text    string
	// Truncated is set when the word ceiling stopped the stream.
	Truncated bool
}

// Orchestrator runs a single streaming request against a timeout and
// relays the bounded running text to the caller.
type Orchestrator struct {
	generator StreamingGenerator
	timeout   time.Duration
}

func NewOrchestrator(generator StreamingGenerator, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultStreamTimeout
	}
	return &Orchestrator{
		generator: generator,
		timeout:   timeout,
	}
}

// settleGate serialises chunk delivery with settlement. After settle
// returns, deliver never calls through again.
type settleGate struct {
	mu      sync.Mutex
	settled bool
}

func (g *settleGate) deliver(onChunk ChunkFunc, text string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.settled {
		return false
	}
	if onChunk != nil {
		onChunk(text)
	}
	return true
}

func (g *settleGate) settle() {
	g.mu.Lock()
	g.settled = true
	g.mu.Unlock()
}

type consumeResult struct {
	result StreamResult
	err    error
}

// Run streams an answer for questionText. Success requires at least one
// non-trivial chunk. Every failure wraps entity.ErrStreamUnavailable. No
// onChunk call happens after Run returns.
func (o *Orchestrator) Run(ctx context.Context, questionText string, wordLimit int, onChunk ChunkFunc) (StreamResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req := &entity.GenerateAnswerRequest{
		QuestionText: questionText,
		WordLimit:    wordLimit,
	}

	stream, err := o.generator.StreamAnswer(ctx, req)
	if err != nil {
		metrics.StreamDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return StreamResult{}, fmt.Errorf("%w: %w", entity.ErrStreamUnavailable, err)
	}

	gate := &settleGate{}
	done := make(chan consumeResult, 1)

	go func() {
		done <- consume(stream, NewAccumulator(wordLimit), gate, onChunk)
	}()

	select {
	case res := <-done:
		gate.settle()
		_ = stream.Close()

		outcome := "success"
		if res.err != nil || !res.result.Success {
			outcome = "error"
		}
		metrics.StreamDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

		if res.err != nil {
			return res.result, fmt.Errorf("%w: %w", entity.ErrStreamUnavailable, res.err)
		}
		return res.result, nil

	case <-ctx.Done():
		gate.settle()
		// The consumer may still be blocked in Read; closing the body and
		// the cancelled context release it, and the gate drops its output.
		_ = stream.Close()
		metrics.StreamDuration.WithLabelValues("timeout").Observe(time.Since(start).Seconds())

		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			ctxzap.Warn(ctx, "answer stream timed out", zap.Duration("timeout", o.timeout))
			err = fmt.Errorf("stream timed out after %s", o.timeout)
		}
		return StreamResult{}, fmt.Errorf("%w: %w", entity.ErrStreamUnavailable, err)
	}
}

func consume(stream entity.TextStream, acc *Accumulator, gate *settleGate, onChunk ChunkFunc) consumeResult {
	received := false

	for chunk, err := range stream.Chunks() {
		if err != nil {
			return consumeResult{result: StreamResult{Success: received, Text: acc.Text()}, err: err}
		}

		if strings.TrimSpace(chunk) == "" {
			continue
		}
		res := acc.Append(chunk)
		received = true

		if !gate.deliver(onChunk, res.Text) {
			return consumeResult{result: StreamResult{Success: received, Text: res.Text}, err: errors.New("stream abandoned")}
		}

		if res.Done {
			break
		}
	}

	return consumeResult{result: StreamResult{
		Success:   received,
		Text:      acc.Text(),
		Truncated: acc.Done(),
	}}
}
