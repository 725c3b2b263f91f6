// Package config loads termview settings.
//
// Settings come from three layers, later ones winning: built-in defaults,
// a TOML file, and TERMVIEW_* environment variables. The result is validated
// before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/termview/internal/clipboard"
	"github.com/dshills/termview/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. TERMVIEW_LOG_LEVEL.
const EnvPrefix = "TERMVIEW"

// Frame rate bounds for the output clock.
const (
	MinFrameRate = 1
	MaxFrameRate = 240
)

// Config holds all termview settings.
type Config struct {
	Output    OutputConfig    `toml:"output"`
	Shell     ShellConfig     `toml:"shell"`
	Clipboard ClipboardConfig `toml:"clipboard"`
	Theme     ThemeConfig     `toml:"theme"`
	Log       LogConfig       `toml:"log"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// OutputConfig controls output coalescing.
type OutputConfig struct {
	// FrameRate is the refresh clock rate in Hz.
	FrameRate int `toml:"frame_rate" split_words:"true"`
	// MaxPendingBytes forces a flush once the pending batch grows past it.
	// Zero disables the bound.
	MaxPendingBytes int `toml:"max_pending_bytes" split_words:"true"`
}

// ShellConfig describes the backend process.
type ShellConfig struct {
	// Program defaults to $SHELL, then /bin/sh.
	Program string   `toml:"program" split_words:"true"`
	Args    []string `toml:"args" split_words:"true"`
	Cols    int      `toml:"cols" split_words:"true"`
	Rows    int      `toml:"rows" split_words:"true"`
}

// ClipboardConfig selects the copy strategy.
type ClipboardConfig struct {
	Mode string `toml:"mode" split_words:"true"`
	Tmux bool   `toml:"tmux" split_words:"true"`
}

// ThemeConfig points at a theme file and optionally overrides its roles.
type ThemeConfig struct {
	Path       string `toml:"path" split_words:"true"`
	Watch      bool   `toml:"watch" split_words:"true"`
	Foreground string `toml:"foreground" split_words:"true"`
	Background string `toml:"background" split_words:"true"`
	Cursor     string `toml:"cursor" split_words:"true"`
	Selection  string `toml:"selection" split_words:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `toml:"level" split_words:"true"`
	File        string `toml:"file" split_words:"true"`
	Development bool   `toml:"development" split_words:"true"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `toml:"addr" split_words:"true"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			FrameRate:       60,
			MaxPendingBytes: 4 << 20,
		},
		Shell: ShellConfig{
			Cols: 80,
			Rows: 24,
		},
		Clipboard: ClipboardConfig{
			Mode: string(clipboard.ModeAuto),
		},
		Theme: ThemeConfig{
			Watch: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path and
// the environment. An empty path skips the file; a missing file is an
// error only when explicitly requested.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "termview", "config.toml")
}

// LoadDefault loads from DefaultPath, tolerating a missing file.
func LoadDefault() (*Config, error) {
	path := DefaultPath()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	return Load(path)
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return c.decode(path, bytes.NewReader(data))
}

// decode overlays TOML from r onto c. Keys missing from the input keep
// their current values; unknown keys are rejected.
func (c *Config) decode(source string, r io.Reader) error {
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	return nil
}

func (c *Config) applyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if c.Output.FrameRate < MinFrameRate || c.Output.FrameRate > MaxFrameRate {
		return &ValidationError{
			Path:    "output.frame_rate",
			Message: fmt.Sprintf("must be between %d and %d", MinFrameRate, MaxFrameRate),
			Value:   c.Output.FrameRate,
		}
	}
	if c.Output.MaxPendingBytes < 0 {
		return &ValidationError{Path: "output.max_pending_bytes", Message: "must not be negative", Value: c.Output.MaxPendingBytes}
	}
	if c.Shell.Cols <= 0 {
		return &ValidationError{Path: "shell.cols", Message: "must be positive", Value: c.Shell.Cols}
	}
	if c.Shell.Rows <= 0 {
		return &ValidationError{Path: "shell.rows", Message: "must be positive", Value: c.Shell.Rows}
	}
	if _, err := clipboard.ParseMode(c.Clipboard.Mode); err != nil {
		return &ValidationError{Path: "clipboard.mode", Message: "must be auto, system or osc52", Value: c.Clipboard.Mode}
	}
	if !logging.ValidLevel(c.Log.Level) {
		return &ValidationError{Path: "log.level", Message: "must be debug, info, warn or error", Value: c.Log.Level}
	}
	return nil
}

// ShellProgram returns the program to run, resolving the default.
func (c *Config) ShellProgram() string {
	if c.Shell.Program != "" {
		return c.Shell.Program
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}
