package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/termview/internal/input/key"
)

type fakeSelection string

func (s fakeSelection) SelectedText() string { return string(s) }

type fakeBackend struct {
	writes [][]byte
}

func (b *fakeBackend) WriteInput(data []byte) {
	b.writes = append(b.writes, data)
}

type fakeClipboard struct {
	texts []string
}

func (c *fakeClipboard) WriteText(text string) {
	c.texts = append(c.texts, text)
}

func newFixture(selection string) (*Translator, *fakeBackend, *fakeClipboard) {
	backend := &fakeBackend{}
	clip := &fakeClipboard{}
	return New(fakeSelection(selection), backend, clip), backend, clip
}

func TestCopy_WithSelection(t *testing.T) {
	tr, backend, clip := newFixture("hello world")

	d := tr.Translate(key.NewRuneEvent('C', key.ModCtrl|key.ModShift))

	assert.Equal(t, Suppress, d)
	assert.Equal(t, []string{"hello world"}, clip.texts)
	assert.Empty(t, backend.writes)
}

func TestCopy_LowercaseRune(t *testing.T) {
	tr, _, clip := newFixture("x")

	d := tr.Translate(key.NewRuneEvent('c', key.ModCtrl|key.ModShift))

	assert.Equal(t, Suppress, d)
	assert.Equal(t, []string{"x"}, clip.texts)
}

func TestCopy_EmptySelection(t *testing.T) {
	tr, backend, clip := newFixture("")

	d := tr.Translate(key.NewRuneEvent('C', key.ModCtrl|key.ModShift))

	assert.Equal(t, Suppress, d)
	assert.Empty(t, clip.texts)
	assert.Empty(t, backend.writes)
}

func TestCopy_ReleasePassesThrough(t *testing.T) {
	tr, _, clip := newFixture("sel")

	d := tr.Translate(key.NewRuneEvent('C', key.ModCtrl|key.ModShift).Released())

	assert.Equal(t, PassThrough, d)
	assert.Empty(t, clip.texts)
}

func TestCopy_RequiresBothModifiers(t *testing.T) {
	tr, _, clip := newFixture("sel")

	assert.Equal(t, PassThrough, tr.Translate(key.NewRuneEvent('c', key.ModCtrl)))
	assert.Equal(t, PassThrough, tr.Translate(key.NewRuneEvent('C', key.ModShift)))
	assert.Equal(t, PassThrough, tr.Translate(key.NewRuneEvent('v', key.ModCtrl|key.ModShift)))
	assert.Empty(t, clip.texts)
}

func TestShiftEnter_Press(t *testing.T) {
	tr, backend, clip := newFixture("ignored")

	d := tr.Translate(key.NewSpecialEvent(key.KeyEnter, key.ModShift))

	assert.Equal(t, Suppress, d)
	require.Len(t, backend.writes, 1)
	assert.Equal(t, []byte{0x1B, 0x5B, 0x31, 0x33, 0x3B, 0x32, 0x75}, backend.writes[0])
	assert.Empty(t, clip.texts)
}

func TestShiftEnter_Release(t *testing.T) {
	tr, backend, _ := newFixture("")

	d := tr.Translate(key.NewSpecialEvent(key.KeyEnter, key.ModShift).Released())

	assert.Equal(t, Suppress, d)
	assert.Empty(t, backend.writes)
}

func TestShiftEnter_WithCtrlPassesThrough(t *testing.T) {
	tr, backend, _ := newFixture("")

	d := tr.Translate(key.NewSpecialEvent(key.KeyEnter, key.ModShift|key.ModCtrl))

	assert.Equal(t, PassThrough, d)
	assert.Empty(t, backend.writes)
}

func TestShiftEnter_SequenceNotShared(t *testing.T) {
	tr, backend, _ := newFixture("")

	tr.Translate(key.NewSpecialEvent(key.KeyEnter, key.ModShift))
	backend.writes[0][0] = 'X'

	assert.Equal(t, byte(0x1B), ShiftEnterSequence[0])
}

func TestPlainKeysPassThrough(t *testing.T) {
	tr, backend, clip := newFixture("sel")

	for _, ev := range []key.Event{
		key.NewSpecialEvent(key.KeyEnter, key.ModNone),
		key.NewSpecialEvent(key.KeyEnter, key.ModNone).Released(),
		key.NewRuneEvent('a', key.ModNone),
		key.NewRuneEvent('c', key.ModCtrl),
		key.NewSpecialEvent(key.KeyTab, key.ModShift),
	} {
		assert.Equal(t, PassThrough, tr.Translate(ev), ev.String())
	}

	assert.Empty(t, backend.writes)
	assert.Empty(t, clip.texts)
}

func TestNilCollaborators(t *testing.T) {
	tr := New(nil, nil, nil)

	assert.Equal(t, Suppress, tr.Translate(key.NewRuneEvent('C', key.ModCtrl|key.ModShift)))
	assert.Equal(t, Suppress, tr.Translate(key.NewSpecialEvent(key.KeyEnter, key.ModShift)))
}

func TestRules_OrderedFirstMatchWins(t *testing.T) {
	backend := &fakeBackend{}
	var hits []string

	tr := New(fakeSelection(""), backend, nil, WithRules(
		Rule{
			Name:  "shadowed",
			Match: func(ev key.Event) bool { return ev.Key == key.KeyEnter && ev.Modifiers.HasShift() },
			Apply: func(key.Event, Env) Decision {
				hits = append(hits, "shadowed")
				return PassThrough
			},
		},
		Rule{
			Name:  "ctrl-q",
			Match: func(ev key.Event) bool { return ev.IsLetter('q') && ev.Modifiers.HasCtrl() },
		},
	))

	assert.Equal(t, []string{"copy-selection", "shift-enter", "shadowed", "ctrl-q"}, tr.Rules())

	// Built-in shift-enter wins over the later rule.
	assert.Equal(t, Suppress, tr.Translate(key.NewSpecialEvent(key.KeyEnter, key.ModShift)))
	assert.Empty(t, hits)

	// A rule without Apply suppresses.
	assert.Equal(t, Suppress, tr.Translate(key.NewRuneEvent('q', key.ModCtrl)))
}

func TestAppend(t *testing.T) {
	tr, backend, _ := newFixture("")

	tr.Append(Rule{
		Name:  "f12-marker",
		Match: func(ev key.Event) bool { return ev.Key == key.KeyF12 },
		Apply: func(_ key.Event, env Env) Decision {
			env.Backend.WriteInput([]byte("mark"))
			return Suppress
		},
	})

	assert.Equal(t, Suppress, tr.Translate(key.NewSpecialEvent(key.KeyF12, key.ModNone)))
	require.Len(t, backend.writes, 1)
	assert.Equal(t, "mark", string(backend.writes[0]))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "pass-through", PassThrough.String())
	assert.Equal(t, "suppress", Suppress.String())
}
