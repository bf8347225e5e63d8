package answer

import (
	"context"

	"github.com/futig/jd-assessment/internal/entity"
)

// StreamingGenerator opens a chunked answer stream.
type StreamingGenerator interface {
	StreamAnswer(ctx context.Context, req *entity.GenerateAnswerRequest) (entity.TextStream, error)
}

// SyncGenerator produces a complete answer in one response.
type SyncGenerator interface {
	GenerateAnswer(ctx context.Context, req *entity.GenerateAnswerRequest) (string, error)
}

// Generator is what the assessment connector offers for answers.
type Generator interface {
	StreamingGenerator
	SyncGenerator
}

// ChunkFunc receives the running accumulated text, not the delta.
type ChunkFunc func(text string)
