// Package main is the entry point for termview.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/termview/internal/clipboard"
	"github.com/dshills/termview/internal/coalesce"
	"github.com/dshills/termview/internal/color"
	"github.com/dshills/termview/internal/config"
	"github.com/dshills/termview/internal/config/watcher"
	"github.com/dshills/termview/internal/host"
	"github.com/dshills/termview/internal/input/key"
	"github.com/dshills/termview/internal/input/translate"
	"github.com/dshills/termview/internal/logging"
	"github.com/dshills/termview/internal/metrics"
	"github.com/dshills/termview/internal/session"
	"github.com/dshills/termview/internal/theme"
	"github.com/dshills/termview/internal/transcript"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	logLevel   string
	shell      string
	themePath  string
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:   "termview",
		Short: "Run a shell behind a frame-paced plain-text view",
		Long: `termview runs a shell in a pseudo-terminal and shows its output as a
plain-text transcript. Output is merged once per display frame, colors come
from a theme, and Ctrl+Shift+C copies the selected lines.

Drag with the mouse to select lines. Exit the shell to quit.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	root.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "path to configuration file")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.Flags().StringVar(&f.shell, "shell", "", "program to run instead of $SHELL")
	root.Flags().StringVar(&f.themePath, "theme", "", `theme file, or "builtin:<name>"`)

	root.AddCommand(newKeysCmd(), newThemesCmd(), newConfigCmd(&f))
	return root
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys <name>...",
		Short: "Print the bytes sent for named keys",
		Long: `Print the bytes a terminal sends for each named key.

Examples:
  termview keys ctrl+c enter up f5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range args {
				b, err := key.Bytes(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-10s % x\n", name, b)
			}
			return nil
		},
	}
}

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List built-in themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range theme.BuiltinNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newConfigCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*f)
			if err != nil {
				return err
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// loadConfig applies command-line flags on top of the loaded configuration.
func loadConfig(f flags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.Load(f.configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.shell != "" {
		cfg.Shell.Program = f.shell
	}
	if f.themePath != "" {
		cfg.Theme.Path = f.themePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.New(logging.Config{
		Level:       logging.ParseLevel(cfg.Log.Level),
		File:        cfg.Log.File,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	resolver := color.NewResolver(color.Options{})
	themes := theme.NewManager(resolver, theme.Default(), logger)
	themes.SetOverrides(theme.Overrides{
		Foreground: cfg.Theme.Foreground,
		Background: cfg.Theme.Background,
		Cursor:     cfg.Theme.Cursor,
		Selection:  cfg.Theme.Selection,
	})
	if cfg.Theme.Path != "" {
		if err := themes.LoadFile(cfg.Theme.Path); err != nil {
			logger.Warn("theme: %v", err)
		}
	}

	m := metrics.New()
	m.ObserveResolver(resolver)
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, m, logger)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	view := transcript.New(0)
	var surface atomic.Pointer[host.Host]

	clock := coalesce.NewTickerClock(cfg.Output.FrameRate)
	defer clock.Stop()

	coalescer := coalesce.New(clock, func(data []byte) {
		view.Consume(data)
		if h := surface.Load(); h != nil {
			h.Notify()
		}
	}, coalesce.Options{
		MaxPendingBytes: cfg.Output.MaxPendingBytes,
		Observer:        m,
		Logger:          logger,
	})
	defer coalescer.Cancel()

	sess, err := session.Start(session.Options{
		Program: cfg.ShellProgram(),
		Args:    cfg.Shell.Args,
		Cols:    cfg.Shell.Cols,
		Rows:    cfg.Shell.Rows,
		Sink:    coalescer.Push,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start shell: %w", err)
	}
	defer sess.Close()

	mode, _ := clipboard.ParseMode(cfg.Clipboard.Mode)
	clip, err := clipboard.New(mode, os.Stdout, cfg.Clipboard.Tmux || os.Getenv("TMUX") != "", logger)
	if err != nil {
		return err
	}

	translator := translate.New(view, sess, clip, translate.WithLogger(logger))

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}

	h, err := host.New(host.Options{
		Screen:     screen,
		Translator: translator,
		Backend:    sess,
		Transcript: view,
		Themes:     themes,
		Title:      sess.Program(),
		Metrics:    m,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	surface.Store(h)
	themes.OnChange(func(theme.Theme) { h.Notify() })

	if cfg.Theme.Path != "" && cfg.Theme.Watch {
		if w := watchTheme(cfg.Theme.Path, themes, logger); w != nil {
			defer w.Close()
		}
	}

	go func() {
		select {
		case <-sess.Done():
			coalescer.Flush()
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := h.Run(ctx); err != nil {
		return err
	}

	if code := sess.ExitCode(); code > 0 {
		return fmt.Errorf("shell exited with status %d", code)
	}
	return nil
}

func serveMetrics(addr string, m *metrics.Metrics, logger *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server: %v", err)
		}
	}()
	logger.Info("serving metrics on %s", addr)
	return srv
}

// watchTheme reloads the theme whenever its file changes. Builtin themes
// have no file and are not watched.
func watchTheme(path string, themes *theme.Manager, logger *logging.Logger) *watcher.Watcher {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	w, err := watcher.New(watcher.WithLogger(logger))
	if err != nil {
		logger.Warn("theme watcher: %v", err)
		return nil
	}
	if err := w.Watch(path); err != nil {
		logger.Warn("theme watcher: %v", err)
		_ = w.Close()
		return nil
	}

	w.OnChange(func(ev watcher.Event) {
		if ev.Op == watcher.OpRemove {
			return
		}
		if err := themes.LoadFile(path); err != nil {
			logger.Warn("reload theme: %v", err)
		}
	})
	return w
}
