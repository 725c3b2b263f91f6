// Package transcript is a plain-text consumer of merged output buffers. It
// strips escape sequences, keeps a bounded list of lines and tracks a line
// selection for copying.
//
// It is not a terminal emulator: cursor movement and screen clears are
// dropped, carriage return restarts the current line, and backspace erases
// the previous character.
package transcript

import (
	"bytes"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

// DefaultMaxLines bounds the transcript when no limit is given.
const DefaultMaxLines = 5000

const tabWidth = 8

// maxPartialBytes bounds the unterminated line. Older bytes are dropped.
const maxPartialBytes = 64 << 10

// Transcript accumulates output lines. It is safe for concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	lines    []string
	current  []byte
	maxLines int
	version  uint64

	selActive bool
	selFrom   int
	selTo     int
}

// New creates a transcript holding at most maxLines completed lines.
func New(maxLines int) *Transcript {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Transcript{maxLines: maxLines}
}

// Consume appends a merged output buffer. Its signature matches
// coalesce.Consumer. data is not retained.
func (t *Transcript) Consume(data []byte) {
	if len(data) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		i := indexNewline(data)
		if i < 0 {
			t.current = append(t.current, data...)
			t.compactPartial()
			break
		}
		t.current = append(t.current, data[:i]...)
		t.lines = append(t.lines, cleanLine(t.current))
		t.current = t.current[:0]
		data = data[i+1:]
	}
	t.evict()
	t.version++
}

// Write implements io.Writer.
func (t *Transcript) Write(p []byte) (int, error) {
	t.Consume(p)
	return len(p), nil
}

func indexNewline(b []byte) int {
	for i, c := range b {
		if c == '\n' {
			return i
		}
	}
	return -1
}

func (t *Transcript) evict() {
	over := len(t.lines) - t.maxLines
	if over <= 0 {
		return
	}
	t.lines = append(t.lines[:0:0], t.lines[over:]...)

	if !t.selActive {
		return
	}
	t.selFrom -= over
	t.selTo -= over
	if t.selTo < 0 {
		t.selActive = false
		return
	}
	if t.selFrom < 0 {
		t.selFrom = 0
	}
}

// compactPartial drops the part of the unterminated line that a carriage
// return has already overwritten. A trailing \r is kept in case \n follows
// in the next buffer.
func (t *Transcript) compactPartial() {
	n := len(t.current)
	if n < 2 {
		return
	}
	cut := bytes.LastIndexByte(t.current[:n-1], '\r') + 1
	if over := n - maxPartialBytes; over > cut {
		cut = over
	}
	if cut > 0 {
		t.current = append(t.current[:0], t.current[cut:]...)
	}
}

// cleanLine turns the raw bytes of one line into display text.
func cleanLine(raw []byte) string {
	line := strings.TrimSuffix(string(raw), "\r")
	if i := strings.LastIndexByte(line, '\r'); i >= 0 {
		line = line[i+1:]
	}
	s := ansi.Strip(line)

	var b strings.Builder
	b.Grow(len(s))
	col := 0
	for _, r := range s {
		switch {
		case r == '\t':
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case r == '\b':
			out := b.String()
			if len(out) > 0 {
				_, size := utf8.DecodeLastRuneInString(out)
				b.Reset()
				b.WriteString(out[:len(out)-size])
				col--
			}
		case r < 0x20 || r == 0x7f:
			// other controls are dropped
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}

// Lines returns every line, including the unterminated current one when it
// is not empty.
func (t *Transcript) Lines() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.linesLocked()
}

func (t *Transcript) linesLocked() []string {
	out := make([]string, len(t.lines), len(t.lines)+1)
	copy(out, t.lines)
	if len(t.current) > 0 {
		out = append(out, cleanLine(t.current))
	}
	return out
}

// Tail returns the last n lines and the index of the first one.
func (t *Transcript) Tail(n int) ([]string, int) {
	lines := t.Lines()
	if n <= 0 {
		return nil, len(lines)
	}
	start := len(lines) - n
	if start < 0 {
		start = 0
	}
	return lines[start:], start
}

// Len returns the number of lines Lines would return.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := len(t.lines)
	if len(t.current) > 0 {
		n++
	}
	return n
}

// Version increments on every consumed buffer.
func (t *Transcript) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Select marks lines from..to inclusive, in either order. Indices are
// clamped to the existing lines.
func (t *Transcript) Select(from, to int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if from > to {
		from, to = to, from
	}
	n := len(t.lines)
	if len(t.current) > 0 {
		n++
	}
	if n == 0 || to < 0 || from >= n {
		t.selActive = false
		return
	}
	t.selFrom = max(from, 0)
	t.selTo = min(to, n-1)
	t.selActive = true
}

// ClearSelection removes the selection.
func (t *Transcript) ClearSelection() {
	t.mu.Lock()
	t.selActive = false
	t.mu.Unlock()
}

// Selection returns the selected line range.
func (t *Transcript) Selection() (from, to int, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selFrom, t.selTo, t.selActive
}

// IsSelected reports whether line i is inside the selection.
func (t *Transcript) IsSelected(i int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selActive && i >= t.selFrom && i <= t.selTo
}

// SelectedText returns the selected lines joined by newlines, or "" when
// nothing is selected.
func (t *Transcript) SelectedText() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.selActive {
		return ""
	}
	lines := t.linesLocked()
	to := min(t.selTo, len(lines)-1)
	if t.selFrom > to {
		return ""
	}
	return strings.Join(lines[t.selFrom:to+1], "\n")
}

// Reset drops all lines and the selection.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.lines = nil
	t.current = nil
	t.selActive = false
	t.version++
	t.mu.Unlock()
}
