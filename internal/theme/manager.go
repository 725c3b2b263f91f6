package theme

import (
	"slices"
	"sync"

	"github.com/dshills/termview/internal/color"
	"github.com/dshills/termview/internal/logging"
)

// Manager owns the current theme and the resolver that turns its specs into
// pixel values. Changing the theme clears the resolver cache.
type Manager struct {
	mu        sync.RWMutex
	theme     Theme
	overrides Overrides
	resolver  *color.Resolver
	listeners []func(Theme)
	logger    *logging.Logger
}

// NewManager creates a manager with t as the current theme.
func NewManager(r *color.Resolver, t Theme, logger *logging.Logger) *Manager {
	return &Manager{
		theme:    t,
		resolver: r,
		logger:   logging.OrNop(logger).WithComponent("theme"),
	}
}

// Resolver returns the resolver bound to the manager.
func (m *Manager) Resolver() *color.Resolver {
	return m.resolver
}

// Current returns the theme in effect, overrides applied.
func (m *Manager) Current() Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme.Apply(m.overrides)
}

// SetOverrides installs role overrides applied on top of every theme.
func (m *Manager) SetOverrides(o Overrides) {
	m.mu.Lock()
	m.overrides = o
	m.mu.Unlock()
	m.changed()
}

// Set replaces the theme.
func (m *Manager) Set(t Theme) {
	m.mu.Lock()
	m.theme = t
	m.mu.Unlock()
	m.changed()
}

// LoadFile loads the theme at path and makes it current. On error the
// current theme is kept.
func (m *Manager) LoadFile(path string) error {
	t, err := Load(path)
	if err != nil {
		return err
	}
	if err := t.Validate(m.resolver); err != nil {
		m.logger.Warn("theme %s has invalid colors: %v", path, err)
	}
	m.Set(t)
	m.logger.Info("loaded theme %q from %s", t.Name, path)
	return nil
}

// OnChange registers fn to run after every theme change.
func (m *Manager) OnChange(fn func(Theme)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Resolve returns the pixel value for role.
func (m *Manager) Resolve(role Role) color.Packed {
	m.mu.RLock()
	spec := m.theme.Apply(m.overrides).Spec(role)
	m.mu.RUnlock()
	return m.resolver.Parse(spec)
}

// Palette returns the pixel value for ANSI palette index i. Out-of-range
// indices resolve to the foreground.
func (m *Manager) Palette(i int) color.Packed {
	m.mu.RLock()
	t := m.theme.Apply(m.overrides)
	m.mu.RUnlock()

	if i < 0 || i >= len(t.Palette) {
		return m.resolver.Parse(t.Foreground)
	}
	return m.resolver.Parse(t.Palette[i])
}

func (m *Manager) changed() {
	m.resolver.Clear()

	m.mu.RLock()
	t := m.theme.Apply(m.overrides)
	listeners := slices.Clone(m.listeners)
	m.mu.RUnlock()

	for _, fn := range listeners {
		fn(t)
	}
}
