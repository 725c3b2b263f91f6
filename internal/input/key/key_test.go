package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{KeyNone, "None"},
		{KeyRune, "Rune"},
		{KeyEscape, "Escape"},
		{KeyEnter, "Enter"},
		{KeyBackspace, "Backspace"},
		{KeyPageDown, "PageDown"},
		{KeyLeft, "Left"},
		{KeyF1, "F1"},
		{KeyF12, "F12"},
		{Key(200), "Key(200)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.key.String())
	}
}

func TestKeyClassification(t *testing.T) {
	assert.False(t, KeyNone.IsSpecial())
	assert.False(t, KeyRune.IsSpecial())
	assert.True(t, KeyEnter.IsSpecial())

	assert.True(t, KeyF7.IsFunctionKey())
	assert.False(t, KeyUp.IsFunctionKey())

	assert.True(t, KeyRight.IsArrowKey())
	assert.False(t, KeyHome.IsArrowKey())
}

func TestFromName(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"enter", KeyEnter},
		{"Return", KeyEnter},
		{"  ESC ", KeyEscape},
		{"pgdn", KeyPageDown},
		{"F10", KeyF10},
		{"nonsense", KeyNone},
		{"", KeyNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FromName(tt.name), "FromName(%q)", tt.name)
	}
}

func TestModifier(t *testing.T) {
	m := ModCtrl | ModShift

	assert.True(t, m.Has(ModCtrl))
	assert.True(t, m.Has(ModCtrl|ModShift))
	assert.False(t, m.Has(ModCtrl|ModAlt))
	assert.True(t, m.HasShift())
	assert.False(t, m.HasAlt())
	assert.False(t, m.HasMeta())

	assert.Equal(t, ModCtrl, m.Without(ModShift))
	assert.Equal(t, ModCtrl|ModShift|ModAlt, m.With(ModAlt))
	assert.Equal(t, "Ctrl+Shift", m.String())
	assert.Equal(t, "", ModNone.String())
}

func TestModifier_XtermParam(t *testing.T) {
	tests := []struct {
		mod  Modifier
		want int
	}{
		{ModNone, 1},
		{ModShift, 2},
		{ModAlt, 3},
		{ModShift | ModAlt, 4},
		{ModCtrl, 5},
		{ModCtrl | ModShift, 6},
		{ModCtrl | ModAlt, 7},
		{ModCtrl | ModAlt | ModShift, 8},
		{ModMeta, 9},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mod.XtermParam(), tt.mod.String())
	}
}

func TestEvent(t *testing.T) {
	ev := NewRuneEvent('C', ModCtrl|ModShift)

	assert.True(t, ev.IsPress())
	assert.True(t, ev.IsRune())
	assert.True(t, ev.IsLetter('c'))
	assert.True(t, ev.IsLetter('C'))
	assert.False(t, ev.IsLetter('v'))
	assert.Equal(t, "Ctrl+Shift+C", ev.String())

	rel := ev.Released()
	assert.False(t, rel.IsPress())
	assert.True(t, ev.IsPress(), "Released returns a copy")
	assert.Equal(t, "Ctrl+Shift+C (release)", rel.String())

	enter := NewSpecialEvent(KeyEnter, ModShift)
	assert.False(t, enter.IsRune())
	assert.False(t, enter.IsLetter('e'))
	assert.Equal(t, "Shift+Enter", enter.String())

	assert.Equal(t, "Space", NewRuneEvent(' ', ModNone).String())
	assert.Equal(t, "press", Press.String())
	assert.Equal(t, "release", Release.String())
}
