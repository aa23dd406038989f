package sdfmarch

import (
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfmarch/sdfeval"
)

// Scene is an ordered, non-empty collection of spheres. Its distance field is
// the union of the spheres' distance fields. Scene implements [sdfeval.SDF3].
type Scene struct {
	// spheres contains 1 or more spheres.
	spheres []Sphere
}

// NewScene creates a scene from spheres. The scene must have at least one sphere.
// Spheres are copied so that later modification of the argument does not affect the scene.
func (bld *Builder) NewScene(spheres ...Sphere) *Scene {
	if len(spheres) == 0 {
		bld.shapeErrorf("empty scene: need at least one sphere")
	}
	for i := range spheres {
		bld.validateSphere(i, spheres[i])
	}
	return &Scene{spheres: append([]Sphere(nil), spheres...)}
}

// Len returns the number of spheres in the scene.
func (s *Scene) Len() int { return len(s.spheres) }

// Spheres returns a copy of the scene's spheres in order.
func (s *Scene) Spheres() []Sphere {
	return append([]Sphere(nil), s.spheres...)
}

// DistanceEstimate returns the signed distance from p to the nearest sphere surface.
func (s *Scene) DistanceEstimate(p ms3.Vec) float32 {
	s.mustValidate()
	d := s.spheres[0].Distance(p)
	for _, sp := range s.spheres[1:] {
		d2 := sp.Distance(p)
		if d2 < d {
			d = d2
		}
	}
	return d
}

// Evaluate implements [sdfeval.SDF3]. Results are equal to calling
// [Scene.DistanceEstimate] on each position. userData must carry a [sdfeval.VecPool]
// when the scene has more than one sphere.
func (s *Scene) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	s.mustValidate()
	err := sdfeval.CheckBuffers(pos, dist)
	if err != nil {
		return err
	}
	err = s.spheres[0].Evaluate(pos, dist, userData)
	if err != nil || len(s.spheres) == 1 {
		return err
	}
	vp, err := sdfeval.GetVecPool(userData)
	if err != nil {
		return err
	}
	auxDist := vp.Float.Acquire(len(dist))
	defer vp.Float.Release(auxDist)
	for _, sp := range s.spheres[1:] {
		err = sp.Evaluate(pos, auxDist, userData)
		if err != nil {
			return err
		}
		minReduce(dist, auxDist)
	}
	return nil
}

// Bounds returns the union of all sphere bounds. Implements [sdfeval.SDF3].
func (s *Scene) Bounds() ms3.Box {
	s.mustValidate()
	bb := s.spheres[0].Bounds()
	for _, sp := range s.spheres[1:] {
		bb = bb.Union(sp.Bounds())
	}
	return bb
}

// MinRadius returns the radius of the smallest sphere in the scene.
func (s *Scene) MinRadius() float32 {
	s.mustValidate()
	r := s.spheres[0].Radius
	for _, sp := range s.spheres[1:] {
		r = minf(r, sp.Radius)
	}
	return r
}

func (s *Scene) mustValidate() {
	if len(s.spheres) == 0 {
		panic("empty Scene: must be created with Builder.NewScene")
	}
}

// minReduce takes element-wise minimum of arguments and stores to first argument.
func minReduce(d1AndDst, d2 []float32) {
	for i, d := range d2 {
		if d < d1AndDst[i] {
			d1AndDst[i] = d
		}
	}
}
