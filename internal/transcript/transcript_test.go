package transcript

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsume_SplitsLines(t *testing.T) {
	tr := New(0)
	tr.Consume([]byte("one\ntwo\nthr"))
	tr.Consume([]byte("ee\n$ "))

	assert.Equal(t, []string{"one", "two", "three", "$ "}, tr.Lines())
	assert.Equal(t, 4, tr.Len())
}

func TestConsume_StripsEscapes(t *testing.T) {
	tr := New(0)
	tr.Consume([]byte("\x1b[31mred\x1b[0m plain\r\n"))
	tr.Consume([]byte("\x1b]0;title\x07after\n"))

	assert.Equal(t, []string{"red plain", "after"}, tr.Lines())
}

func TestConsume_EscapeSplitAcrossBuffers(t *testing.T) {
	tr := New(0)
	tr.Consume([]byte("a\x1b[3"))
	tr.Consume([]byte("2mb\n"))

	assert.Equal(t, []string{"ab"}, tr.Lines())
}

func TestConsume_CarriageReturn(t *testing.T) {
	tr := New(0)
	tr.Consume([]byte("progress 10%\rprogress 100%\n"))

	assert.Equal(t, []string{"progress 100%"}, tr.Lines())
}

func TestConsume_Tabs(t *testing.T) {
	tr := New(0)
	tr.Consume([]byte("a\tb\n"))

	assert.Equal(t, []string{"a       b"}, tr.Lines())
}

func TestWrite(t *testing.T) {
	tr := New(0)
	n, err := fmt.Fprintf(tr, "x=%d\n", 5)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"x=5"}, tr.Lines())
}

func TestConsume_DoesNotRetainInput(t *testing.T) {
	tr := New(0)
	buf := []byte("abc")
	tr.Consume(buf)
	buf[0] = 'X'

	assert.Equal(t, []string{"abc"}, tr.Lines())
}

func TestEviction(t *testing.T) {
	tr := New(3)
	for i := 0; i < 5; i++ {
		tr.Consume([]byte(fmt.Sprintf("line%d\n", i)))
	}

	assert.Equal(t, []string{"line2", "line3", "line4"}, tr.Lines())
}

func TestEviction_ShiftsSelection(t *testing.T) {
	tr := New(3)
	tr.Consume([]byte("a\nb\nc\n"))
	tr.Select(1, 2)

	tr.Consume([]byte("d\n"))
	from, to, ok := tr.Selection()
	require.True(t, ok)
	assert.Equal(t, 0, from)
	assert.Equal(t, 1, to)
	assert.Equal(t, "b\nc", tr.SelectedText())

	tr.Consume([]byte("e\nf\n"))
	_, _, ok = tr.Selection()
	assert.False(t, ok, "selection evicted entirely")
}

func TestSelection(t *testing.T) {
	tr := New(0)
	tr.Consume([]byte("alpha\nbeta\ngamma\ndelta"))

	assert.Equal(t, "", tr.SelectedText())

	tr.Select(2, 1)
	assert.Equal(t, "beta\ngamma", tr.SelectedText())
	assert.True(t, tr.IsSelected(1))
	assert.False(t, tr.IsSelected(3))

	tr.Select(2, 10)
	assert.Equal(t, "gamma\ndelta", tr.SelectedText(), "clamped, includes the current line")

	tr.Select(-5, 0)
	assert.Equal(t, "alpha", tr.SelectedText())

	tr.ClearSelection()
	assert.Equal(t, "", tr.SelectedText())

	tr.Select(10, 20)
	_, _, ok := tr.Selection()
	assert.False(t, ok)
}

func TestTail(t *testing.T) {
	tr := New(0)
	tr.Consume([]byte("1\n2\n3\n4\n"))

	lines, start := tr.Tail(2)
	assert.Equal(t, []string{"3", "4"}, lines)
	assert.Equal(t, 2, start)

	lines, start = tr.Tail(10)
	assert.Len(t, lines, 4)
	assert.Equal(t, 0, start)
}

func TestResetAndVersion(t *testing.T) {
	tr := New(0)
	v0 := tr.Version()
	tr.Consume([]byte("x\n"))
	tr.Select(0, 0)
	assert.Greater(t, tr.Version(), v0)

	tr.Reset()
	assert.Empty(t, tr.Lines())
	assert.Equal(t, "", tr.SelectedText())
}

func TestConcurrentConsume(t *testing.T) {
	tr := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tr.Consume([]byte("l\n"))
				_ = tr.SelectedText()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, tr.Len())
}

func TestConsume_ProgressRedrawStaysBounded(t *testing.T) {
	tr := New(0)
	for i := 0; i < 10000; i++ {
		tr.Consume([]byte(fmt.Sprintf("\rprogress %5d%%", i)))
	}

	assert.Equal(t, []string{"progress  9999%"}, tr.Lines())
	assert.Less(t, len(tr.current), 32)

	tr.Consume([]byte("\rdone\r"))
	tr.Consume([]byte("\nnext\n"))
	assert.Equal(t, []string{"done", "next"}, tr.Lines())
}

func TestConsume_LongPartialLineIsCapped(t *testing.T) {
	tr := New(0)
	chunk := make([]byte, 4096)
	for i := range chunk {
		chunk[i] = 'x'
	}
	for i := 0; i < 64; i++ {
		tr.Consume(chunk)
	}

	assert.Equal(t, maxPartialBytes, len(tr.current))
}
