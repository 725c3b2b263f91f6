// Package translate decides, for each keyboard event, whether the host
// handles it locally or lets it through to the backend.
//
// Rules are evaluated in order and the first match wins. The built-in rules
// are:
//
//  1. Ctrl+Shift+C (press): copy the current selection to the clipboard.
//  2. Shift+Enter (Ctrl not held): send the CSI-u sequence ESC [ 1 3 ; 2 u
//     on press, nothing on release.
//
// Everything else passes through. New key combinations are added as further
// ordered rules so the decision stays total and deterministic.
package translate

import (
	"github.com/dshills/termview/internal/input/key"
	"github.com/dshills/termview/internal/logging"
)

// ShiftEnterSequence is the CSI-u encoding of Enter (13) with the Shift
// modifier (2).
var ShiftEnterSequence = []byte{0x1B, '[', '1', '3', ';', '2', 'u'}

// Decision is the outcome for one key event.
type Decision uint8

const (
	// PassThrough lets the event reach the backend unmodified.
	PassThrough Decision = iota

	// Suppress stops the event; the translator handled it.
	Suppress
)

// String returns "pass-through" or "suppress".
func (d Decision) String() string {
	if d == Suppress {
		return "suppress"
	}
	return "pass-through"
}

// Selection reads the user's current text selection.
type Selection interface {
	SelectedText() string
}

// Backend receives input bytes for the underlying process. Delivery is
// fire-and-forget.
type Backend interface {
	WriteInput(data []byte)
}

// Clipboard places text on the system clipboard. Fire-and-forget.
type Clipboard interface {
	WriteText(text string)
}

// Env is what a rule's action may touch.
type Env struct {
	Selection Selection
	Backend   Backend
	Clipboard Clipboard
}

// Rule is one entry in the ordered rule list.
type Rule struct {
	// Name identifies the rule in logs.
	Name string

	// Match reports whether the rule applies to ev.
	Match func(ev key.Event) bool

	// Apply performs the rule's side effect, if any, and returns the
	// decision. A nil Apply suppresses without side effects.
	Apply func(ev key.Event, env Env) Decision
}

// Translator applies the ordered rule list. It keeps no state between
// events and is safe for concurrent use once configured.
type Translator struct {
	env    Env
	rules  []Rule
	logger *logging.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Translator) {
		t.logger = logging.OrNop(l).WithComponent("translate")
	}
}

// WithRules appends rules after the built-in ones.
func WithRules(rules ...Rule) Option {
	return func(t *Translator) {
		t.rules = append(t.rules, rules...)
	}
}

// New creates a translator with the built-in rules. Any collaborator may be
// nil; rules needing a missing collaborator skip their side effect.
func New(sel Selection, backend Backend, clip Clipboard, opts ...Option) *Translator {
	t := &Translator{
		env: Env{
			Selection: sel,
			Backend:   backend,
			Clipboard: clip,
		},
		rules:  DefaultRules(),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Append adds a rule after the existing ones. Call it before the translator
// is shared between goroutines.
func (t *Translator) Append(r Rule) {
	t.rules = append(t.rules, r)
}

// Rules returns the rule names in evaluation order.
func (t *Translator) Rules() []string {
	names := make([]string, len(t.rules))
	for i, r := range t.rules {
		names[i] = r.Name
	}
	return names
}

// Translate returns the decision for ev, performing the matching rule's
// side effect.
func (t *Translator) Translate(ev key.Event) Decision {
	for _, r := range t.rules {
		if r.Match == nil || !r.Match(ev) {
			continue
		}
		d := Suppress
		if r.Apply != nil {
			d = r.Apply(ev, t.env)
		}
		t.logger.Debug("%s matched %s: %s", r.Name, ev, d)
		return d
	}
	return PassThrough
}

// DefaultRules returns the built-in rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{CopySelectionRule(), ShiftEnterRule()}
}

// CopySelectionRule copies a non-empty selection on Ctrl+Shift+C press. The
// combination is always suppressed, selection or not.
func CopySelectionRule() Rule {
	return Rule{
		Name: "copy-selection",
		Match: func(ev key.Event) bool {
			return ev.IsPress() && ev.Modifiers.Has(key.ModCtrl|key.ModShift) && ev.IsLetter('c')
		},
		Apply: func(_ key.Event, env Env) Decision {
			if env.Selection == nil || env.Clipboard == nil {
				return Suppress
			}
			if text := env.Selection.SelectedText(); text != "" {
				env.Clipboard.WriteText(text)
			}
			return Suppress
		},
	}
}

// ShiftEnterRule sends the CSI-u Shift+Enter sequence so programs that
// speak the extended keyboard protocol can tell it apart from Enter.
func ShiftEnterRule() Rule {
	return Rule{
		Name: "shift-enter",
		Match: func(ev key.Event) bool {
			return ev.Key == key.KeyEnter && ev.Modifiers.HasShift() && !ev.Modifiers.HasCtrl()
		},
		Apply: func(ev key.Event, env Env) Decision {
			if ev.IsPress() && env.Backend != nil {
				seq := make([]byte, len(ShiftEnterSequence))
				copy(seq, ShiftEnterSequence)
				env.Backend.WriteInput(seq)
			}
			return Suppress
		},
	}
}
