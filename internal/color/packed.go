package color

import "fmt"

// Packed is a paint-ready pixel value: four 8-bit channels packed into a
// uint32 as R, G, B, A from most to least significant byte.
type Packed uint32

// Common packed colors.
const (
	White Packed = 0xFFFFFFFF
	Black Packed = 0x000000FF
)

// FromRGBA packs four channels.
func FromRGBA(r, g, b, a uint8) Packed {
	return Packed(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a))
}

// FromRGB packs an opaque color.
func FromRGB(r, g, b uint8) Packed {
	return FromRGBA(r, g, b, 0xFF)
}

// R returns the red channel.
func (p Packed) R() uint8 { return uint8(p >> 24) }

// G returns the green channel.
func (p Packed) G() uint8 { return uint8(p >> 16) }

// B returns the blue channel.
func (p Packed) B() uint8 { return uint8(p >> 8) }

// A returns the alpha channel.
func (p Packed) A() uint8 { return uint8(p) }

// RGBA returns all four channels.
func (p Packed) RGBA() (r, g, b, a uint8) {
	return p.R(), p.G(), p.B(), p.A()
}

// String returns the color as "#RRGGBBAA".
func (p Packed) String() string {
	return fmt.Sprintf("#%08X", uint32(p))
}
