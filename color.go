package sdfmarch

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
)

var (
	// White is full intensity light.
	White = ms3.Vec{X: 1, Y: 1, Z: 1}
	// Black is the color of rays that hit nothing or are fully shadowed.
	Black = ms3.Vec{}
)

// RGB8 converts a color with channels nominally in [0,1] to 8 bit channels.
// Channels are clamped to [0,1] and rounded to nearest. NaN channels map to 0.
func RGB8(c ms3.Vec) [3]uint8 {
	return [3]uint8{channel8(c.X), channel8(c.Y), channel8(c.Z)}
}

// ColorRGBA converts c to an opaque [color.RGBA] as done by [RGB8].
func ColorRGBA(c ms3.Vec) color.RGBA {
	rgb := RGB8(c)
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
}

func channel8(v float32) uint8 {
	if math32.IsNaN(v) {
		return 0
	}
	return uint8(math32.Round(ms1.Clamp(v, 0, 1) * 255))
}
