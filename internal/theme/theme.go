// Package theme holds the color scheme used to draw the transcript. Colors
// are kept as textual specs and resolved through a color.Resolver.
package theme

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/termview/internal/color"
)

// PaletteSize is the number of ANSI palette entries a theme carries.
const PaletteSize = 16

var (
	// ErrUnknownTheme is returned by Builtin for unknown names.
	ErrUnknownTheme = errors.New("unknown theme")

	// ErrPaletteSize is returned when a theme has more than PaletteSize
	// palette entries.
	ErrPaletteSize = errors.New("palette has too many entries")
)

// Role names a themed surface.
type Role uint8

const (
	RoleForeground Role = iota
	RoleBackground
	RoleCursor
	RoleSelection
)

// String returns the role's TOML key.
func (r Role) String() string {
	switch r {
	case RoleForeground:
		return "foreground"
	case RoleBackground:
		return "background"
	case RoleCursor:
		return "cursor"
	case RoleSelection:
		return "selection"
	default:
		return "unknown"
	}
}

// Theme defines the colors for the transcript view.
type Theme struct {
	// Name is the display name of the theme.
	Name string `toml:"name"`

	// Foreground is the default text color.
	Foreground string `toml:"foreground"`

	// Background is the view background color.
	Background string `toml:"background"`

	// Cursor is the cursor color.
	Cursor string `toml:"cursor"`

	// Selection is the selection highlight color.
	Selection string `toml:"selection"`

	// Palette holds the 16 ANSI colors. Missing entries fall back to the
	// default palette.
	Palette []string `toml:"palette"`
}

// Overrides replaces individual roles of a loaded theme. Empty fields
// leave the theme's value in place.
type Overrides struct {
	Foreground string
	Background string
	Cursor     string
	Selection  string
}

var defaultPalette = []string{
	"#000000", "#cd0000", "#00cd00", "#cdcd00",
	"#0000ee", "#cd00cd", "#00cdcd", "#e5e5e5",
	"#7f7f7f", "#ff0000", "#00ff00", "#ffff00",
	"#5c5cff", "#ff00ff", "#00ffff", "#ffffff",
}

// Default returns a sensible default dark theme.
func Default() Theme {
	return Theme{
		Name:       "Default Dark",
		Foreground: "#d4d4d4",
		Background: "#1e1e1e",
		Cursor:     "#ffffff",
		Selection:  "rgb(64, 64, 128)",
		Palette:    append([]string(nil), defaultPalette...),
	}
}

// Monokai returns a Monokai-inspired theme.
func Monokai() Theme {
	return Theme{
		Name:       "Monokai",
		Foreground: "#f8f8f2",
		Background: "#272822",
		Cursor:     "#f8f8f0",
		Selection:  "#49483e",
		Palette: []string{
			"#272822", "#f92672", "#a6e22e", "#f4bf75",
			"#66d9ef", "#ae81ff", "#a1efe4", "#f8f8f2",
			"#75715e", "#f92672", "#a6e22e", "#f4bf75",
			"#66d9ef", "#ae81ff", "#a1efe4", "#f9f8f5",
		},
	}
}

// Dracula returns a Dracula-inspired theme.
func Dracula() Theme {
	return Theme{
		Name:       "Dracula",
		Foreground: "#f8f8f2",
		Background: "#282a36",
		Cursor:     "#f8f8f2",
		Selection:  "#44475a",
		Palette: []string{
			"#21222c", "#ff5555", "#50fa7b", "#f1fa8c",
			"#bd93f9", "#ff79c6", "#8be9fd", "#f8f8f2",
			"#6272a4", "#ff6e6e", "#69ff94", "#ffffa5",
			"#d6acff", "#ff92df", "#a4ffff", "#ffffff",
		},
	}
}

var builtins = map[string]func() Theme{
	"default": Default,
	"monokai": Monokai,
	"dracula": Dracula,
}

// Builtin returns a built-in theme by case-insensitive name.
func Builtin(name string) (Theme, error) {
	fn, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	return fn(), nil
}

// BuiltinNames returns the built-in theme names, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads a theme from a TOML file. Keys missing from the file keep the
// default theme's values. A value of "builtin:<name>" for path loads a
// built-in theme instead.
func Load(path string) (Theme, error) {
	if name, ok := strings.CutPrefix(path, "builtin:"); ok {
		return Builtin(name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("reading theme %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses a TOML theme on top of the default theme.
func Decode(data []byte) (Theme, error) {
	t := Default()
	t.Palette = nil

	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return Theme{}, fmt.Errorf("decoding theme: %w", err)
	}
	if len(t.Palette) > PaletteSize {
		return Theme{}, fmt.Errorf("%w: %d", ErrPaletteSize, len(t.Palette))
	}
	for i := len(t.Palette); i < PaletteSize; i++ {
		t.Palette = append(t.Palette, defaultPalette[i])
	}
	return t, nil
}

// Apply returns t with the non-empty overrides applied.
func (t Theme) Apply(o Overrides) Theme {
	if o.Foreground != "" {
		t.Foreground = o.Foreground
	}
	if o.Background != "" {
		t.Background = o.Background
	}
	if o.Cursor != "" {
		t.Cursor = o.Cursor
	}
	if o.Selection != "" {
		t.Selection = o.Selection
	}
	return t
}

// Spec returns the color spec for role.
func (t Theme) Spec(role Role) string {
	switch role {
	case RoleBackground:
		return t.Background
	case RoleCursor:
		return t.Cursor
	case RoleSelection:
		return t.Selection
	default:
		return t.Foreground
	}
}

// Validate resolves every spec in t through r and reports the malformed
// ones. The theme is still usable when Validate fails; bad entries render
// with the resolver's fallback.
func (t Theme) Validate(r *color.Resolver) error {
	var errs []error
	for _, role := range []Role{RoleForeground, RoleBackground, RoleCursor, RoleSelection} {
		if _, err := r.Lookup(t.Spec(role)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", role, err))
		}
	}
	for i, spec := range t.Palette {
		if _, err := r.Lookup(spec); err != nil {
			errs = append(errs, fmt.Errorf("palette[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
