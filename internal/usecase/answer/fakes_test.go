package answer

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/futig/jd-assessment/internal/entity"
)

// chanStream yields whatever is pushed into its channel. When stubborn it
// ignores Close, like a transport that keeps delivering after abandonment.
type chanStream struct {
	chunks   chan string
	err      error
	stubborn bool

	closed    chan struct{}
	closeOnce sync.Once
	stopped   atomic.Bool
}

func newChanStream(chunks ...string) *chanStream {
	s := &chanStream{
		chunks: make(chan string, len(chunks)+8),
		closed: make(chan struct{}),
	}
	for _, c := range chunks {
		s.chunks <- c
	}
	return s
}

func (s *chanStream) finish() *chanStream {
	close(s.chunks)
	return s
}

func (s *chanStream) Chunks() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer s.stopped.Store(true)

		closed := s.closed
		if s.stubborn {
			closed = nil
		}

		for {
			select {
			case c, ok := <-s.chunks:
				if !ok {
					if s.err != nil {
						yield("", s.err)
					}
					return
				}
				if !yield(c, nil) {
					return
				}
			case <-closed:
				return
			}
		}
	}
}

func (s *chanStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *chanStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

type fakeGenerator struct {
	stream    entity.TextStream
	streamErr error
	syncText  string
	syncErr   error

	mu          sync.Mutex
	streamCalls int
	syncCalls   int
	lastReq     *entity.GenerateAnswerRequest
}

func (g *fakeGenerator) StreamAnswer(ctx context.Context, req *entity.GenerateAnswerRequest) (entity.TextStream, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.streamCalls++
	g.lastReq = req
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.streamErr != nil {
		return nil, g.streamErr
	}
	return g.stream, nil
}

func (g *fakeGenerator) GenerateAnswer(ctx context.Context, req *entity.GenerateAnswerRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.syncCalls++
	g.lastReq = req
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.syncText, g.syncErr
}

// recorder collects onChunk calls safely across goroutines.
type recorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *recorder) onChunk(text string) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}
