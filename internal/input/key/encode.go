package key

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrUnknownKey is returned by Bytes for names it cannot map.
var ErrUnknownKey = errors.New("unknown key")

const esc = 0x1B

// sequence describes how a special key is encoded.
type sequence struct {
	// plain is sent when no modifiers apply.
	plain string
	// final is the CSI final byte for keys encoded as CSI 1;m <final>
	// when modified.
	final byte
	// tilde is the numeric parameter for CSI n ~ keys.
	tilde int
}

var specialSequences = map[Key]sequence{
	KeyEnter:     {plain: "\r"},
	KeyTab:       {plain: "\t"},
	KeyEscape:    {plain: "\x1b"},
	KeyBackspace: {plain: "\x7f"},
	KeyInsert:    {plain: "\x1b[2~", tilde: 2},
	KeyDelete:    {plain: "\x1b[3~", tilde: 3},
	KeyPageUp:    {plain: "\x1b[5~", tilde: 5},
	KeyPageDown:  {plain: "\x1b[6~", tilde: 6},
	KeyUp:        {plain: "\x1b[A", final: 'A'},
	KeyDown:      {plain: "\x1b[B", final: 'B'},
	KeyRight:     {plain: "\x1b[C", final: 'C'},
	KeyLeft:      {plain: "\x1b[D", final: 'D'},
	KeyHome:      {plain: "\x1b[H", final: 'H'},
	KeyEnd:       {plain: "\x1b[F", final: 'F'},
	KeyF1:        {plain: "\x1bOP", final: 'P'},
	KeyF2:        {plain: "\x1bOQ", final: 'Q'},
	KeyF3:        {plain: "\x1bOR", final: 'R'},
	KeyF4:        {plain: "\x1bOS", final: 'S'},
	KeyF5:        {plain: "\x1b[15~", tilde: 15},
	KeyF6:        {plain: "\x1b[17~", tilde: 17},
	KeyF7:        {plain: "\x1b[18~", tilde: 18},
	KeyF8:        {plain: "\x1b[19~", tilde: 19},
	KeyF9:        {plain: "\x1b[20~", tilde: 20},
	KeyF10:       {plain: "\x1b[21~", tilde: 21},
	KeyF11:       {plain: "\x1b[23~", tilde: 23},
	KeyF12:       {plain: "\x1b[24~", tilde: 24},
}

// Bytes maps a friendly key name to the bytes a terminal sends for it.
//
// Supported names (case-insensitive, surrounding space ignored):
//   - ctrl+a through ctrl+z, ctrl+[, ctrl+\, ctrl+], ctrl+^, ctrl+_
//   - enter, return, cr, tab, escape, esc, backspace, bs, delete, del,
//     insert, ins, space
//   - up, down, left, right, home, end, pageup, pgup, pagedown, pgdn
//   - f1 through f12
//
// Backspace maps to BS (0x08) here, the byte scripted input expects.
func Bytes(name string) ([]byte, error) {
	lower := strings.ToLower(strings.TrimSpace(name))

	if suffix, ok := strings.CutPrefix(lower, "ctrl+"); ok {
		r, size := utf8.DecodeRuneInString(suffix)
		if size == len(suffix) && size > 0 {
			if b, ok := ctrlByte(r); ok {
				return []byte{b}, nil
			}
		}
		return nil, fmt.Errorf("%w: %q (supported: ctrl+a..z, ctrl+[, ctrl+], ctrl+\\, ctrl+^, ctrl+_)", ErrUnknownKey, name)
	}

	k := FromName(lower)
	switch k {
	case KeyNone:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	case KeySpace:
		return []byte{' '}, nil
	case KeyBackspace:
		return []byte{0x08}, nil
	}
	return []byte(specialSequences[k].plain), nil
}

// Encode returns the bytes a terminal sends for ev, following xterm
// conventions for modified special keys. Release events and keys with no
// encoding return false.
func Encode(ev Event) ([]byte, bool) {
	if ev.Phase == Release {
		return nil, false
	}

	switch ev.Key {
	case KeyRune:
		if ev.Rune == 0 {
			return nil, false
		}
		return encodeRune(ev.Rune, ev.Modifiers), true
	case KeySpace:
		return encodeRune(' ', ev.Modifiers), true
	case KeyNone:
		return nil, false
	}

	seq, ok := specialSequences[ev.Key]
	if !ok {
		return nil, false
	}

	mods := ev.Modifiers.Without(ModMeta)
	switch {
	case mods == ModNone:
		return []byte(seq.plain), true
	case ev.Key == KeyTab && mods == ModShift:
		return []byte("\x1b[Z"), true
	case seq.final != 0:
		return []byte("\x1b[1;" + strconv.Itoa(mods.XtermParam()) + string(seq.final)), true
	case seq.tilde != 0:
		return []byte("\x1b[" + strconv.Itoa(seq.tilde) + ";" + strconv.Itoa(mods.XtermParam()) + "~"), true
	case mods.HasAlt():
		return append([]byte{esc}, seq.plain...), true
	default:
		return []byte(seq.plain), true
	}
}

func encodeRune(r rune, mods Modifier) []byte {
	var out []byte
	if mods.HasAlt() {
		out = append(out, esc)
	}
	if mods.HasCtrl() {
		if b, ok := ctrlByte(r); ok {
			return append(out, b)
		}
		if r == ' ' || r == '@' {
			return append(out, 0)
		}
	}
	return utf8.AppendRune(out, r)
}

// ctrlByte returns the C0 control byte produced by Ctrl plus r.
func ctrlByte(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= 'A' && r <= 'Z':
		return byte(r-'A') + 1, true
	}
	switch r {
	case '[':
		return 0x1B, true
	case '\\':
		return 0x1C, true
	case ']':
		return 0x1D, true
	case '^':
		return 0x1E, true
	case '_':
		return 0x1F, true
	}
	return 0, false
}
