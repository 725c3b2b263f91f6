// Package color resolves textual color specifications into packed pixel
// values for the renderer.
//
// Three forms are recognised:
//
//	#RRGGBB        six hex digits
//	#RGB           three hex digits, each doubled
//	rgb(r, g, b)   decimal components, whitespace allowed around separators
//
// Resolution never fails: anything else resolves to a fallback color (opaque
// white by default). Callers that want to know about bad input use Lookup,
// which returns ErrInvalidColor alongside the fallback.
package color

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColor is returned by Lookup for specs that match no known form.
var ErrInvalidColor = errors.New("invalid color spec")

// DimFactor scales each channel for the faint text attribute.
const DimFactor = 0.67

var (
	hexPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	rgbPattern = regexp.MustCompile(`^rgb\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)$`)
)

// Options configures a Resolver.
type Options struct {
	// Fallback is returned for malformed specs. Nil means opaque white.
	Fallback *Packed
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

type entry struct {
	value Packed
	valid bool
}

// Resolver converts color specs to packed values and memoizes the results.
// Entries live until Clear. It is safe for concurrent use.
type Resolver struct {
	mu    sync.RWMutex
	cache map[string]entry

	fallback Packed
	parse    func(spec string) (Packed, bool)

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewResolver creates a resolver with the given options.
func NewResolver(opts Options) *Resolver {
	fallback := White
	if opts.Fallback != nil {
		fallback = *opts.Fallback
	}
	return &Resolver{
		cache:    make(map[string]entry),
		fallback: fallback,
		parse:    parseSpec,
	}
}

// Parse resolves spec, returning the fallback for malformed input.
func (r *Resolver) Parse(spec string) Packed {
	e := r.resolve(spec)
	if !e.valid {
		return r.fallback
	}
	return e.value
}

// Lookup resolves spec like Parse but also reports malformed input. The
// returned value is always usable.
func (r *Resolver) Lookup(spec string) (Packed, error) {
	e := r.resolve(spec)
	if !e.valid {
		return r.fallback, fmt.Errorf("%w: %q", ErrInvalidColor, spec)
	}
	return e.value, nil
}

// Fallback returns the value used for malformed specs.
func (r *Resolver) Fallback() Packed {
	return r.fallback
}

// Clear drops all memoized entries.
func (r *Resolver) Clear() {
	r.mu.Lock()
	r.cache = make(map[string]entry)
	r.mu.Unlock()
}

// Stats returns cache counters.
func (r *Resolver) Stats() Stats {
	r.mu.RLock()
	n := len(r.cache)
	r.mu.RUnlock()

	return Stats{
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
		Entries: n,
	}
}

func (r *Resolver) resolve(spec string) entry {
	r.mu.RLock()
	e, ok := r.cache[spec]
	r.mu.RUnlock()
	if ok {
		r.hits.Add(1)
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have filled it while we waited.
	if e, ok := r.cache[spec]; ok {
		r.hits.Add(1)
		return e
	}

	r.misses.Add(1)
	v, valid := r.parse(spec)
	e = entry{value: v, valid: valid}
	r.cache[spec] = e
	return e
}

// Dim applies the faint attribute: each RGB channel is scaled by DimFactor,
// rounded and clamped. Alpha is unchanged.
func Dim(c Packed) Packed {
	return FromRGBA(dimChannel(c.R()), dimChannel(c.G()), dimChannel(c.B()), c.A())
}

// Dim is a convenience wrapper around the package-level Dim.
func (r *Resolver) Dim(c Packed) Packed {
	return Dim(c)
}

func dimChannel(v uint8) uint8 {
	return clamp(int(math.Round(float64(v) * DimFactor)))
}

func clamp(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

// parseSpec is the uncached conversion.
func parseSpec(spec string) (Packed, bool) {
	if hexPattern.MatchString(spec) {
		c, err := colorful.Hex(spec)
		if err != nil {
			return 0, false
		}
		r, g, b := c.RGB255()
		return FromRGB(r, g, b), true
	}

	if m := rgbPattern.FindStringSubmatch(spec); m != nil {
		var ch [3]uint8
		for i := range ch {
			n, err := strconv.Atoi(m[i+1])
			if err != nil {
				return 0, false
			}
			ch[i] = clamp(n)
		}
		return FromRGB(ch[0], ch[1], ch[2]), true
	}

	return 0, false
}
