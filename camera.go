package sdfmarch

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Camera is a pinhole camera. Its view basis is derived from yaw and pitch
// angles and is immutable after creation.
type Camera struct {
	origin ms3.Vec
	// bottomLeft is forward-up-right so that a ray direction for a screen
	// coordinate is a single linear combination.
	bottomLeft ms3.Vec
	right      ms3.Vec
	up         ms3.Vec
}

// NewCamera creates a camera at origin looking along +Z when yaw and pitch are zero.
// Yaw rotates about the Y axis and pitch tilts the view up, both in radians.
func (bld *Builder) NewCamera(origin ms3.Vec, yaw, pitch float32) *Camera {
	if !isFiniteVec(origin) || !isFinite(yaw) || !isFinite(pitch) {
		bld.shapeErrorf("non-finite camera origin %v, yaw %v or pitch %v", origin, yaw, pitch)
	}
	ps, pc := math32.Sin(pitch), math32.Cos(pitch)
	ys, yc := math32.Sin(yaw), math32.Cos(yaw)
	right := ms3.Vec{X: yc, Y: 0, Z: ys}
	up := ms3.Vec{X: ps * yc, Y: pc, Z: -ps * yc}
	forward := ms3.Vec{X: -ys * pc, Y: ps, Z: pc * yc}
	return &Camera{
		origin:     origin,
		bottomLeft: ms3.Sub(ms3.Sub(forward, up), right),
		right:      right,
		up:         up,
	}
}

// CastRay returns the ray through normalized screen coordinate (x, y) where both are in [0,1).
// (0,0) maps to the bottom left corner of a field of view spanning roughly [-1,1]x[-1,1] about forward.
func (c *Camera) CastRay(x, y float32) Ray {
	dir := ms3.Add(c.bottomLeft, ms3.Scale(y*2, c.up))
	dir = ms3.Add(dir, ms3.Scale(x*2, c.right))
	return Ray{
		Origin: c.origin,
		Dir:    ms3.Unit(dir),
	}
}

func (c *Camera) Origin() ms3.Vec     { return c.origin }
func (c *Camera) Right() ms3.Vec      { return c.right }
func (c *Camera) Up() ms3.Vec         { return c.up }
func (c *Camera) BottomLeft() ms3.Vec { return c.bottomLeft }

// Forward returns the view direction, the ray direction through the center of the screen before normalization.
func (c *Camera) Forward() ms3.Vec {
	return ms3.Add(ms3.Add(c.bottomLeft, c.up), c.right)
}
