package sdfmarch

import (
	"strconv"

	"github.com/soypat/geometry/ms3"
)

// Sphere is a sphere primitive of radius Radius centered at Center.
type Sphere struct {
	Center ms3.Vec
	Radius float32
}

// NewSphere creates a sphere centered at center of radius r.
func (bld *Builder) NewSphere(center ms3.Vec, r float32) Sphere {
	s := Sphere{Center: center, Radius: r}
	bld.validateSphere(-1, s)
	return s
}

func (bld *Builder) validateSphere(idx int, s Sphere) {
	prefix := "sphere"
	if idx >= 0 {
		prefix = "sphere " + strconv.Itoa(idx)
	}
	if !isFinite(s.Radius) || !isFiniteVec(s.Center) {
		bld.shapeErrorf("%s: non-finite center %v or radius %v", prefix, s.Center, s.Radius)
	} else if s.Radius <= 0 {
		bld.shapeErrorf("%s: zero or negative radius %v", prefix, s.Radius)
	}
}

// Distance returns the signed distance from p to the sphere's surface.
// It is negative for points inside the sphere.
func (s Sphere) Distance(p ms3.Vec) float32 {
	return ms3.Norm(ms3.Sub(p, s.Center)) - s.Radius
}

// Evaluate evaluates the sphere's signed distance field over pos positions.
func (s Sphere) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	c := s.Center
	r := s.Radius
	for i, p := range pos {
		dist[i] = ms3.Norm(ms3.Sub(p, c)) - r
	}
	return nil
}

// Bounds returns the axis aligned box that contains the sphere.
func (s Sphere) Bounds() ms3.Box {
	r := ms3.Vec{X: s.Radius, Y: s.Radius, Z: s.Radius}
	return ms3.Box{
		Min: ms3.Sub(s.Center, r),
		Max: ms3.Add(s.Center, r),
	}
}
