package host

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/termview/internal/input/key"
)

// ConvertKey converts a tcell key event to a key.Event. tcell does not
// report releases, so every converted event is a press. Control
// characters are reported as the letter with Ctrl held.
func ConvertKey(ev *tcell.EventKey) (key.Event, bool) {
	mods := convertMod(ev.Modifiers())

	switch k := ev.Key(); k {
	case tcell.KeyRune:
		r := ev.Rune()
		if r == ' ' {
			return key.NewSpecialEvent(key.KeySpace, mods), true
		}
		return key.NewRuneEvent(r, mods), true
	case tcell.KeyEscape:
		return key.NewSpecialEvent(key.KeyEscape, mods), true
	case tcell.KeyEnter:
		return key.NewSpecialEvent(key.KeyEnter, mods), true
	case tcell.KeyTab:
		return key.NewSpecialEvent(key.KeyTab, mods), true
	case tcell.KeyBacktab:
		return key.NewSpecialEvent(key.KeyTab, mods.With(key.ModShift)), true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return key.NewSpecialEvent(key.KeyBackspace, mods), true
	case tcell.KeyDelete:
		return key.NewSpecialEvent(key.KeyDelete, mods), true
	case tcell.KeyInsert:
		return key.NewSpecialEvent(key.KeyInsert, mods), true
	case tcell.KeyHome:
		return key.NewSpecialEvent(key.KeyHome, mods), true
	case tcell.KeyEnd:
		return key.NewSpecialEvent(key.KeyEnd, mods), true
	case tcell.KeyPgUp:
		return key.NewSpecialEvent(key.KeyPageUp, mods), true
	case tcell.KeyPgDn:
		return key.NewSpecialEvent(key.KeyPageDown, mods), true
	case tcell.KeyUp:
		return key.NewSpecialEvent(key.KeyUp, mods), true
	case tcell.KeyDown:
		return key.NewSpecialEvent(key.KeyDown, mods), true
	case tcell.KeyLeft:
		return key.NewSpecialEvent(key.KeyLeft, mods), true
	case tcell.KeyRight:
		return key.NewSpecialEvent(key.KeyRight, mods), true
	case tcell.KeyF1:
		return key.NewSpecialEvent(key.KeyF1, mods), true
	case tcell.KeyF2:
		return key.NewSpecialEvent(key.KeyF2, mods), true
	case tcell.KeyF3:
		return key.NewSpecialEvent(key.KeyF3, mods), true
	case tcell.KeyF4:
		return key.NewSpecialEvent(key.KeyF4, mods), true
	case tcell.KeyF5:
		return key.NewSpecialEvent(key.KeyF5, mods), true
	case tcell.KeyF6:
		return key.NewSpecialEvent(key.KeyF6, mods), true
	case tcell.KeyF7:
		return key.NewSpecialEvent(key.KeyF7, mods), true
	case tcell.KeyF8:
		return key.NewSpecialEvent(key.KeyF8, mods), true
	case tcell.KeyF9:
		return key.NewSpecialEvent(key.KeyF9, mods), true
	case tcell.KeyF10:
		return key.NewSpecialEvent(key.KeyF10, mods), true
	case tcell.KeyF11:
		return key.NewSpecialEvent(key.KeyF11, mods), true
	case tcell.KeyF12:
		return key.NewSpecialEvent(key.KeyF12, mods), true
	case tcell.KeyCtrlSpace:
		return key.NewSpecialEvent(key.KeySpace, mods.With(key.ModCtrl)), true
	default:
		if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
			r := 'a' + rune(k-tcell.KeyCtrlA)
			return key.NewRuneEvent(r, mods.With(key.ModCtrl)), true
		}
		return key.Event{}, false
	}
}

func convertMod(m tcell.ModMask) key.Modifier {
	var result key.Modifier
	if m&tcell.ModShift != 0 {
		result |= key.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= key.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= key.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		result |= key.ModMeta
	}
	return result
}
