package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func newWatcher(t *testing.T, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "write", OpWrite.String())
	assert.Equal(t, "create", OpCreate.String())
	assert.Equal(t, "remove", OpRemove.String())
	assert.Equal(t, "rename", OpRename.String())
	assert.Equal(t, "unknown", Operation(99).String())
}

func TestWatchUnwatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.toml")
	b := filepath.Join(dir, "b.toml")

	w := newWatcher(t)
	require.NoError(t, w.Watch(a))
	require.NoError(t, w.Watch(b))
	require.NoError(t, w.Watch(a))
	assert.ElementsMatch(t, []string{a, b}, w.WatchedFiles())
	assert.Equal(t, 2, w.dirs[dir])

	require.NoError(t, w.Unwatch(a))
	assert.Equal(t, []string{b}, w.WatchedFiles())
	assert.Equal(t, 1, w.dirs[dir], "directory stays watched for b")
	require.NoError(t, w.Unwatch(b))
	assert.Empty(t, w.dirs)
}

func TestWatch_MissingDirectory(t *testing.T) {
	w := newWatcher(t)
	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "missing", "theme.toml")))
}

func TestDetectsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.toml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	w := newWatcher(t, WithDebounce(20*time.Millisecond))
	var log eventLog
	w.OnChange(log.add)
	require.NoError(t, w.Watch(path))

	require.NoError(t, os.WriteFile(path, []byte("b"), 0o644))

	require.Eventually(t, func() bool { return len(log.snapshot()) > 0 }, 2*time.Second, 10*time.Millisecond)
	ev := log.snapshot()[0]
	assert.Equal(t, path, ev.Path)
	assert.Equal(t, OpWrite, ev.Op)
}

func TestDetectsCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.toml")

	w := newWatcher(t, WithDebounce(20*time.Millisecond))
	var log eventLog
	w.OnChange(log.add)
	require.NoError(t, w.Watch(path))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.Eventually(t, func() bool { return len(log.snapshot()) > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, OpCreate, log.snapshot()[0].Op, "create is not downgraded by the following write")
}

func TestIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theme.toml")

	w := newWatcher(t, WithDebounce(0))
	var log eventLog
	w.OnChange(log.add)
	require.NoError(t, w.Watch(path))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("y"), 0o644))

	require.Eventually(t, func() bool { return len(log.snapshot()) > 0 }, 2*time.Second, 10*time.Millisecond)
	for _, ev := range log.snapshot() {
		assert.Equal(t, path, ev.Path)
	}
}

func TestDebounceMergesBurst(t *testing.T) {
	w := newWatcher(t, WithDebounce(50*time.Millisecond))
	var log eventLog
	w.OnChange(log.add)

	now := time.Now()
	w.queue(Event{Path: "/x", Op: OpWrite, Time: now})
	w.queue(Event{Path: "/x", Op: OpWrite, Time: now})
	w.queue(Event{Path: "/x", Op: OpRemove, Time: now})
	w.queue(Event{Path: "/x", Op: OpWrite, Time: now})

	require.Eventually(t, func() bool { return len(log.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	events := log.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, OpRemove, events[0].Op)
}

func TestMergeOp(t *testing.T) {
	assert.Equal(t, OpCreate, mergeOp(OpCreate, OpWrite))
	assert.Equal(t, OpWrite, mergeOp(OpWrite, OpWrite))
	assert.Equal(t, OpRemove, mergeOp(OpWrite, OpRemove))
	assert.Equal(t, OpCreate, mergeOp(OpRemove, OpCreate))
	assert.Equal(t, OpRemove, mergeOp(OpRemove, OpRename))
	assert.Equal(t, OpRename, mergeOp(OpWrite, OpRename))
}

func TestHandlerPanicRecovered(t *testing.T) {
	w := newWatcher(t, WithDebounce(0))
	var log eventLog
	w.OnChange(func(Event) { panic("boom") })
	w.OnChange(log.add)

	w.emit(Event{Path: "/x", Op: OpWrite})
	assert.Len(t, log.snapshot(), 1)
}

func TestClose(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Watch("x"), ErrClosed)
}
