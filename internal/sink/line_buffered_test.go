package sink

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type recorder struct {
	chunks []string
}

func (r *recorder) emit(text string) {
	r.chunks = append(r.chunks, text)
}

func TestWriteEmitsThroughLastNewline(t *testing.T) {
	rec := &recorder{}
	w := NewLineBuffered(rec.emit, Options{})

	n, err := w.Write([]byte("a\nb\nc"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []string{"a\nb\n"}, rec.chunks)
	assert.Equal(t, 1, w.Buffered())

	n, err = w.Write([]byte("d"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"a\nb\n"}, rec.chunks, "no newline, nothing emitted")

	require.NoError(t, w.Flush())
	assert.Equal(t, []string{"a\nb\n", "cd"}, rec.chunks)
	assert.Equal(t, 0, w.Buffered())
}

func TestSplitLinesEmitsEachLine(t *testing.T) {
	rec := &recorder{}
	w := NewLineBuffered(rec.emit, Options{SplitLines: true})

	_, _ = w.Write([]byte("a\nb\nc"))
	assert.Equal(t, []string{"a\n", "b\n"}, rec.chunks)
}

func TestFlush(t *testing.T) {
	t.Run("empty buffer emits nothing", func(t *testing.T) {
		rec := &recorder{}
		w := NewLineBuffered(rec.emit, Options{})
		require.NoError(t, w.Flush())
		require.NoError(t, w.Flush())
		assert.Empty(t, rec.chunks)
	})

	t.Run("partial line emits exactly once", func(t *testing.T) {
		rec := &recorder{}
		w := NewLineBuffered(rec.emit, Options{})
		_, _ = w.Write([]byte("abc"))
		require.NoError(t, w.Flush())
		require.NoError(t, w.Flush())
		assert.Equal(t, []string{"abc"}, rec.chunks)
	})

	t.Run("after complete line flush is a no-op", func(t *testing.T) {
		rec := &recorder{}
		w := NewLineBuffered(rec.emit, Options{})
		_, _ = w.Write([]byte("abc\n"))
		require.NoError(t, w.Flush())
		assert.Equal(t, []string{"abc\n"}, rec.chunks)
	})
}

func TestInvalidUTF8IsReplaced(t *testing.T) {
	rec := &recorder{}
	w := NewLineBuffered(rec.emit, Options{})

	_, err := w.Write([]byte{'o', 'k', 0xff, '\n', 0xe4, 0xbd})
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	require.Len(t, rec.chunks, 2)
	assert.Equal(t, "ok\uFFFD\n", rec.chunks[0])
	assert.True(t, strings.HasPrefix(rec.chunks[1], "\uFFFD"), "truncated sequence replaced: %q", rec.chunks[1])
}

func TestNilEmitterIsSafe(t *testing.T) {
	w := NewLineBuffered(nil, Options{})
	n, err := w.Write([]byte("x\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// chunk 把 data 按随机边界切成若干段。
func chunk(t *rapid.T, data []byte) [][]byte {
	var parts [][]byte
	for len(data) > 0 {
		n := rapid.IntRange(1, len(data)).Draw(t, "chunk")
		parts = append(parts, data[:n])
		data = data[n:]
	}
	return parts
}

func feed(opts Options, parts [][]byte) []string {
	rec := &recorder{}
	w := NewLineBuffered(rec.emit, opts)
	for _, p := range parts {
		_, _ = w.Write(p)
	}
	_ = w.Flush()
	return rec.chunks
}

func byteStream(t *rapid.T) []byte {
	alphabet := []byte{'a', 'b', '\n', ' ', 0xff, 0xe4, 0xbd, 0xa0}
	return rapid.SliceOf(rapid.SampledFrom(alphabet)).Draw(t, "data")
}

func TestChunkBoundaryIndependence_SplitLines(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		data := byteStream(rt)
		opts := Options{SplitLines: true}

		whole := feed(opts, [][]byte{data})
		var single [][]byte
		for i := range data {
			single = append(single, data[i:i+1])
		}
		assert.Equal(rt, whole, feed(opts, single))
		assert.Equal(rt, whole, feed(opts, chunk(rt, data)))
	})
}

func TestChunkBoundaryIndependence_DefaultConcatenation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		data := byteStream(rt)

		whole := strings.Join(feed(Options{}, [][]byte{data}), "")
		chunked := strings.Join(feed(Options{}, chunk(rt, data)), "")
		assert.Equal(rt, whole, chunked)
	})
}
