package key

import (
	"strings"
	"unicode"
)

// Phase distinguishes key press from key release.
type Phase uint8

const (
	// Press is a key-down (or auto-repeat) event.
	Press Phase = iota

	// Release is a key-up event. Hosts that cannot observe releases never
	// produce it.
	Release
)

// String returns "press" or "release".
func (p Phase) String() string {
	if p == Release {
		return "release"
	}
	return "press"
}

// Event is a single keyboard event.
type Event struct {
	// Key identifies the key.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers holds the modifier keys down at the time of the event.
	Modifiers Modifier

	// Phase is press or release.
	Phase Phase
}

// NewRuneEvent creates a press event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// NewSpecialEvent creates a press event for a special key.
func NewSpecialEvent(k Key, mods Modifier) Event {
	return Event{Key: k, Modifiers: mods}
}

// Released returns a copy of e in the release phase.
func (e Event) Released() Event {
	e.Phase = Release
	return e
}

// IsPress reports whether e is a press event.
func (e Event) IsPress() bool {
	return e.Phase == Press
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsLetter reports whether e is the character key for letter, compared
// without regard to case. Shift and Caps Lock change the reported case.
func (e Event) IsLetter(letter rune) bool {
	return e.IsRune() && unicode.ToLower(e.Rune) == unicode.ToLower(letter)
}

// String returns a representation like "Ctrl+Shift+C" or "Shift+Enter".
func (e Event) String() string {
	var name string
	switch e.Key {
	case KeyRune:
		if e.Rune == ' ' {
			name = "Space"
		} else {
			name = string(e.Rune)
		}
	default:
		name = e.Key.String()
	}

	parts := []string{}
	if mods := e.Modifiers.String(); mods != "" {
		parts = append(parts, mods)
	}
	parts = append(parts, name)

	s := strings.Join(parts, "+")
	if e.Phase == Release {
		s += " (release)"
	}
	return s
}
