package http

import (
	"errors"
	"io"
	"iter"
	"sync"
	"unicode/utf8"
)

const streamReadSize = 512

// Stream is an open chunked response body decoded as UTF-8 text.
type Stream struct {
	body      io.ReadCloser
	closeOnce sync.Once
	closeErr  error
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{body: body}
}

// NewStream wraps an arbitrary reader, mostly for tests and mocks.
func NewStream(body io.ReadCloser) *Stream {
	return newStream(body)
}

// Chunks yields decoded text in arrival order. A multi-byte rune split
// across two reads is held back until it is complete. Breaking out of the
// loop closes the body.
func (s *Stream) Chunks() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer s.Close()

		buf := make([]byte, streamReadSize)
		var pending []byte

		for {
			n, err := s.body.Read(buf)
			if n > 0 {
				pending = append(pending, buf[:n]...)
				cut := completePrefix(pending)
				if cut > 0 {
					text := string(pending[:cut])
					pending = append(pending[:0], pending[cut:]...)
					if !yield(text, nil) {
						return
					}
				}
			}

			if errors.Is(err, io.EOF) {
				if len(pending) > 0 {
					yield(string(pending), nil)
				}
				return
			}
			if err != nil {
				yield("", err)
				return
			}
		}
	}
}

// Close releases the response body. Safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

// completePrefix returns the length of the longest prefix of b that does
// not end inside an unfinished UTF-8 sequence.
func completePrefix(b []byte) int {
	end := len(b)
	// A rune is at most utf8.UTFMax bytes, so only the tail needs a look.
	for i := end - 1; i >= 0 && i >= end-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:end]) {
			return end
		}
		return i
	}
	return end
}
