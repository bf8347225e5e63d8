package http

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceReader returns one predefined slice per Read call.
type sliceReader struct {
	parts  [][]byte
	err    error
	closed bool
}

func (r *sliceReader) Read(p []byte) (int, error) {
	if len(r.parts) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.parts[0])
	r.parts = r.parts[1:]
	return n, nil
}

func (r *sliceReader) Close() error {
	r.closed = true
	return nil
}

func collect(t *testing.T, s *Stream) ([]string, error) {
	t.Helper()
	var chunks []string
	for chunk, err := range s.Chunks() {
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func TestStream_Chunks_PlainText(t *testing.T) {
	body := &sliceReader{parts: [][]byte{[]byte("Hello "), []byte("world. ")}}

	chunks, err := collect(t, NewStream(body))

	require.NoError(t, err)
	assert.Equal(t, []string{"Hello ", "world. "}, chunks)
	assert.True(t, body.closed)
}

func TestStream_Chunks_SplitMultiByteRune(t *testing.T) {
	euro := []byte("€") // 3 bytes
	body := &sliceReader{parts: [][]byte{
		append([]byte("cost "), euro[:1]...),
		euro[1:2],
		append(euro[2:], []byte("5 ")...),
	}}

	chunks, err := collect(t, NewStream(body))

	require.NoError(t, err)
	assert.Equal(t, "cost €5 ", strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.True(t, isValidUTF8(c), "chunk %q is not valid UTF-8", c)
	}
}

func TestStream_Chunks_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	body := &sliceReader{parts: [][]byte{[]byte("partial ")}, err: boom}

	chunks, err := collect(t, NewStream(body))

	assert.Equal(t, []string{"partial "}, chunks)
	assert.ErrorIs(t, err, boom)
	assert.True(t, body.closed)
}

func TestStream_Chunks_EarlyBreakClosesBody(t *testing.T) {
	body := &sliceReader{parts: [][]byte{[]byte("one "), []byte("two "), []byte("three ")}}
	s := NewStream(body)

	for chunk := range s.Chunks() {
		assert.Equal(t, "one ", chunk)
		break
	}

	assert.True(t, body.closed)
	assert.NoError(t, s.Close())
}

func TestCompletePrefix(t *testing.T) {
	euro := []byte("€")

	assert.Equal(t, 3, completePrefix([]byte("abc")))
	assert.Equal(t, 1, completePrefix(append([]byte("a"), euro[:2]...)))
	assert.Equal(t, 4, completePrefix(append([]byte("a"), euro...)))
	assert.Equal(t, 0, completePrefix(euro[:1]))
}

func isValidUTF8(s string) bool {
	return strings.ToValidUTF8(s, "�") == s
}
