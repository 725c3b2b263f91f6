package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60, cfg.Output.FrameRate)
	assert.Equal(t, "auto", cfg.Clipboard.Mode)
	assert.Equal(t, 80, cfg.Shell.Cols)
	assert.Equal(t, 24, cfg.Shell.Rows)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Output, cfg.Output)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[output]
frame_rate = 30

[shell]
program = "/bin/bash"
args = ["-l"]

[theme]
foreground = "#c0c0c0"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Output.FrameRate)
	assert.Equal(t, Default().Output.MaxPendingBytes, cfg.Output.MaxPendingBytes, "unset keys keep defaults")
	assert.Equal(t, "/bin/bash", cfg.Shell.Program)
	assert.Equal(t, []string{"-l"}, cfg.Shell.Args)
	assert.Equal(t, "#c0c0c0", cfg.Theme.Foreground)
	assert.Equal(t, 80, cfg.Shell.Cols)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[output]
frame_rate = 30

[log]
level = "warn"
`)
	t.Setenv("TERMVIEW_OUTPUT_FRAME_RATE", "120")
	t.Setenv("TERMVIEW_CLIPBOARD_MODE", "osc52")
	t.Setenv("TERMVIEW_METRICS_ADDR", "127.0.0.1:9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.Output.FrameRate)
	assert.Equal(t, "osc52", cfg.Clipboard.Mode)
	assert.Equal(t, "127.0.0.1:9090", cfg.Metrics.Addr)
	assert.Equal(t, "warn", cfg.Log.Level, "file value kept when env unset")
}

func TestLoad_UnprefixedEnvIgnored(t *testing.T) {
	t.Setenv("TMUX", "/tmp/tmux-1000/default,1234,0")
	t.Setenv("LEVEL", "bogus")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Clipboard.Tmux)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, `
[output]
frame_rat = 30
`)
	_, err := Load(path)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, path, perr.Path)
}

func TestLoad_Malformed(t *testing.T) {
	path := writeConfig(t, "[output\nframe_rate = ")
	_, err := Load(path)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "parse error in")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"frame rate zero", func(c *Config) { c.Output.FrameRate = 0 }, "output.frame_rate"},
		{"frame rate high", func(c *Config) { c.Output.FrameRate = 1000 }, "output.frame_rate"},
		{"negative bound", func(c *Config) { c.Output.MaxPendingBytes = -1 }, "output.max_pending_bytes"},
		{"cols", func(c *Config) { c.Shell.Cols = 0 }, "shell.cols"},
		{"rows", func(c *Config) { c.Shell.Rows = -3 }, "shell.rows"},
		{"clipboard", func(c *Config) { c.Clipboard.Mode = "x11" }, "clipboard.mode"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrValidationFailed)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.path, verr.Path)
		})
	}
}

func TestShellProgram(t *testing.T) {
	cfg := Default()
	cfg.Shell.Program = "/usr/bin/zsh"
	assert.Equal(t, "/usr/bin/zsh", cfg.ShellProgram())

	cfg.Shell.Program = ""
	t.Setenv("SHELL", "/bin/fish")
	assert.Equal(t, "/bin/fish", cfg.ShellProgram())

	t.Setenv("SHELL", "")
	assert.Equal(t, "/bin/sh", cfg.ShellProgram())
}
