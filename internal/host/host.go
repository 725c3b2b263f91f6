// Package host runs the interactive surface: a tcell screen showing the
// transcript, with keyboard input routed through the key translator to the
// backend session.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/x/ansi"
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/termview/internal/color"
	"github.com/dshills/termview/internal/input/key"
	"github.com/dshills/termview/internal/input/translate"
	"github.com/dshills/termview/internal/logging"
	"github.com/dshills/termview/internal/metrics"
	"github.com/dshills/termview/internal/theme"
	"github.com/dshills/termview/internal/transcript"
)

// ErrMissingDependency is returned by New when a required option is nil.
var ErrMissingDependency = errors.New("missing host dependency")

// Backend is the process receiving input.
type Backend interface {
	WriteInput(data []byte)
	Resize(cols, rows int) error
}

// Options configures a Host.
type Options struct {
	Screen     tcell.Screen
	Translator *translate.Translator
	Backend    Backend
	Transcript *transcript.Transcript
	Themes     *theme.Manager

	// Title is shown at the left of the status line.
	Title string

	// Metrics is optional.
	Metrics *metrics.Metrics
	Logger  *logging.Logger
}

// titlePaletteIndex is the ANSI palette entry (blue) behind the status title.
const titlePaletteIndex = 4

type redrawRequest struct{}

type quitRequest struct{}

// Host owns the screen and its event loop.
type Host struct {
	screen     tcell.Screen
	translator *translate.Translator
	backend    Backend
	transcript *transcript.Transcript
	themes     *theme.Manager
	metrics    *metrics.Metrics
	logger     *logging.Logger
	title      string

	redrawPending atomic.Bool
	stopOnce      sync.Once

	// Only touched on the event loop goroutine.
	selecting bool
	anchor    int
	viewStart int
}

// New creates a host. The screen must not be initialised yet.
func New(opts Options) (*Host, error) {
	switch {
	case opts.Screen == nil:
		return nil, fmt.Errorf("%w: screen", ErrMissingDependency)
	case opts.Translator == nil:
		return nil, fmt.Errorf("%w: translator", ErrMissingDependency)
	case opts.Backend == nil:
		return nil, fmt.Errorf("%w: backend", ErrMissingDependency)
	case opts.Transcript == nil:
		return nil, fmt.Errorf("%w: transcript", ErrMissingDependency)
	case opts.Themes == nil:
		return nil, fmt.Errorf("%w: themes", ErrMissingDependency)
	}

	title := opts.Title
	if title == "" {
		title = "termview"
	}
	return &Host{
		screen:     opts.Screen,
		translator: opts.Translator,
		backend:    opts.Backend,
		transcript: opts.Transcript,
		themes:     opts.Themes,
		metrics:    opts.Metrics,
		logger:     logging.OrNop(opts.Logger).WithComponent("host"),
		title:      title,
	}, nil
}

// Notify requests a redraw from any goroutine. Requests made while one is
// already queued are merged.
func (h *Host) Notify() {
	if !h.redrawPending.CompareAndSwap(false, true) {
		return
	}
	if err := h.screen.PostEvent(tcell.NewEventInterrupt(redrawRequest{})); err != nil {
		h.redrawPending.Store(false)
	}
}

// Stop asks the event loop to return.
func (h *Host) Stop() {
	h.stopOnce.Do(func() {
		if err := h.screen.PostEvent(tcell.NewEventInterrupt(quitRequest{})); err != nil {
			h.logger.Warn("post quit: %v", err)
		}
	})
}

// Run initialises the screen and processes events until ctx is done or
// Stop is called. The screen is finalised before Run returns.
func (h *Host) Run(ctx context.Context) error {
	if err := h.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer h.screen.Fini()

	h.screen.EnableMouse()
	h.screen.Clear()

	w, ht := h.screen.Size()
	h.resize(w, ht)
	h.draw()

	stop := context.AfterFunc(ctx, h.Stop)
	defer stop()

	for {
		ev := h.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if !h.handle(ev) {
			return nil
		}
	}
}

// handle processes one event and reports whether the loop should go on.
func (h *Host) handle(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventInterrupt:
		switch e.Data().(type) {
		case quitRequest:
			return false
		case redrawRequest:
			h.redrawPending.Store(false)
			h.draw()
		}
	case *tcell.EventKey:
		h.handleKey(e)
	case *tcell.EventMouse:
		h.handleMouse(e)
		h.draw()
	case *tcell.EventResize:
		w, ht := e.Size()
		h.resize(w, ht)
		h.screen.Sync()
		h.draw()
	}
	return true
}

func (h *Host) handleKey(e *tcell.EventKey) {
	ev, ok := ConvertKey(e)
	if !ok {
		return
	}

	if h.translator.Translate(ev) == translate.Suppress {
		if h.metrics != nil {
			h.metrics.KeysSuppressed.Inc()
		}
		return
	}

	if data, ok := key.Encode(ev); ok {
		h.backend.WriteInput(data)
	}
}

func (h *Host) handleMouse(e *tcell.EventMouse) {
	_, y := e.Position()
	_, height := h.screen.Size()
	row := min(max(y, 0), max(height-2, 0))
	line := h.viewStart + row

	if e.Buttons()&tcell.Button1 == 0 {
		h.selecting = false
		return
	}

	if !h.selecting {
		h.selecting = true
		h.anchor = line
		h.transcript.ClearSelection()
		return
	}
	h.transcript.Select(h.anchor, line)
}

// resize gives the backend every row except the status line.
func (h *Host) resize(w, ht int) {
	rows := max(ht-1, 1)
	if err := h.backend.Resize(max(w, 1), rows); err != nil {
		h.logger.Warn("resize backend: %v", err)
	}
}

func toTcell(p color.Packed) tcell.Color {
	return tcell.NewRGBColor(int32(p.R()), int32(p.G()), int32(p.B()))
}

func (h *Host) styles() (text, selected, status tcell.Style) {
	fg := h.themes.Resolve(theme.RoleForeground)
	bg := h.themes.Resolve(theme.RoleBackground)
	sel := h.themes.Resolve(theme.RoleSelection)
	dim := h.themes.Resolver().Dim(fg)

	text = tcell.StyleDefault.Foreground(toTcell(fg)).Background(toTcell(bg))
	selected = text.Background(toTcell(sel))
	status = tcell.StyleDefault.Foreground(toTcell(dim)).Background(toTcell(bg)).Reverse(true)
	return text, selected, status
}

// titleStyle highlights the title segment of the status line with a palette
// color.
func (h *Host) titleStyle() tcell.Style {
	accent := h.themes.Palette(titlePaletteIndex)
	bg := h.themes.Resolve(theme.RoleBackground)
	return tcell.StyleDefault.Foreground(toTcell(accent)).Background(toTcell(bg)).Reverse(true)
}

func (h *Host) draw() {
	width, height := h.screen.Size()
	if width <= 0 || height <= 0 {
		return
	}
	textStyle, selStyle, statusStyle := h.styles()

	h.screen.SetStyle(textStyle)
	h.screen.Clear()

	rows := max(height-1, 0)
	lines, start := h.transcript.Tail(rows)
	h.viewStart = start
	for y := 0; y < rows; y++ {
		style := textStyle
		if y < len(lines) && h.transcript.IsSelected(start+y) {
			style = selStyle
		}
		fillRow(h.screen, y, width, style)
		if y < len(lines) {
			drawText(h.screen, 0, y, width, lines[y], style)
		}
	}

	fillRow(h.screen, height-1, width, statusStyle)
	drawText(h.screen, 0, height-1, width, h.statusText(), statusStyle)
	drawText(h.screen, 0, height-1, width, h.titleText(), h.titleStyle())
	h.screen.Show()
}

func (h *Host) titleText() string {
	return " " + h.title + " "
}

func (h *Host) statusText() string {
	s := fmt.Sprintf("%s| %s | %d lines", h.titleText(), h.themes.Current().Name, h.transcript.Len())
	if from, to, ok := h.transcript.Selection(); ok {
		s += fmt.Sprintf(" | sel %d-%d (Ctrl+Shift+C copies)", from+1, to+1)
	}
	return s
}

func fillRow(s tcell.Screen, y, width int, style tcell.Style) {
	for x := 0; x < width; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

// drawText draws text at (x, y), truncated to width cells.
func drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	text = ansi.Truncate(text, width-x, "")
	for _, r := range text {
		w := ansi.StringWidth(string(r))
		if w == 0 {
			continue
		}
		s.SetContent(x, y, r, nil, style)
		x += w
	}
}
