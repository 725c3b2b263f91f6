// Package clipboard provides clipboard writers for the key translator's
// copy action: the native system clipboard and the OSC 52 terminal escape,
// which also works over SSH.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"

	"github.com/dshills/termview/internal/logging"
)

var (
	// ErrUnsupported is returned when no native clipboard utility exists.
	ErrUnsupported = errors.New("system clipboard not supported")

	// ErrUnknownMode is returned by ParseMode.
	ErrUnknownMode = errors.New("unknown clipboard mode")
)

// Mode selects the clipboard strategy.
type Mode string

const (
	// ModeAuto tries the system clipboard and falls back to OSC 52.
	ModeAuto Mode = "auto"
	// ModeSystem uses only the system clipboard.
	ModeSystem Mode = "system"
	// ModeOSC52 uses only the OSC 52 escape sequence.
	ModeOSC52 Mode = "osc52"
)

// ParseMode validates a mode name. Empty means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeSystem, ModeOSC52:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Copier places text on a clipboard.
type Copier interface {
	Copy(text string) error
}

// System copies through the platform clipboard utility.
type System struct {
	write       func(string) error
	unsupported bool
}

// NewSystem returns a copier backed by the platform clipboard.
func NewSystem() *System {
	return &System{
		write:       clipboard.WriteAll,
		unsupported: clipboard.Unsupported,
	}
}

// Copy implements Copier.
func (s *System) Copy(text string) error {
	if s.unsupported {
		return ErrUnsupported
	}
	if err := s.write(text); err != nil {
		return fmt.Errorf("system clipboard: %w", err)
	}
	return nil
}

// OSC52 copies by writing an OSC 52 sequence to the host terminal.
type OSC52 struct {
	mu   sync.Mutex
	out  io.Writer
	tmux bool
}

// NewOSC52 returns a copier writing to out. Inside tmux the sequence is
// wrapped in a DCS passthrough.
func NewOSC52(out io.Writer, tmux bool) *OSC52 {
	return &OSC52{out: out, tmux: tmux}
}

// Copy implements Copier.
func (o *OSC52) Copy(text string) error {
	seq := osc52.New(text)
	if o.tmux {
		seq = seq.Tmux()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := seq.WriteTo(o.out); err != nil {
		return fmt.Errorf("osc52: %w", err)
	}
	return nil
}

// Clipboard tries each copier in order until one succeeds.
type Clipboard struct {
	copiers []Copier
	logger  *logging.Logger
}

// New builds the clipboard for mode. out receives OSC 52 sequences.
func New(mode Mode, out io.Writer, tmux bool, logger *logging.Logger) (*Clipboard, error) {
	var copiers []Copier
	switch mode {
	case ModeAuto, "":
		copiers = []Copier{NewSystem(), NewOSC52(out, tmux)}
	case ModeSystem:
		copiers = []Copier{NewSystem()}
	case ModeOSC52:
		copiers = []Copier{NewOSC52(out, tmux)}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return NewChain(logger, copiers...), nil
}

// NewChain builds a clipboard from explicit copiers.
func NewChain(logger *logging.Logger, copiers ...Copier) *Clipboard {
	return &Clipboard{
		copiers: copiers,
		logger:  logging.OrNop(logger).WithComponent("clipboard"),
	}
}

// Copy tries each copier and returns the combined error if all fail.
func (c *Clipboard) Copy(text string) error {
	var errs []error
	for _, cp := range c.copiers {
		err := cp.Copy(text)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// WriteText copies text, logging rather than returning failures.
func (c *Clipboard) WriteText(text string) {
	if err := c.Copy(text); err != nil {
		c.logger.Warn("copy failed: %v", err)
		return
	}
	c.logger.Debug("copied %d bytes", len(text))
}
