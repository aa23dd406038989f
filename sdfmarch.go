package sdfmarch

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

const (
	// Epsilon is the default surface hit threshold. A march step closer than
	// Epsilon to the scene is considered to have touched a surface.
	Epsilon = 1e-5
	// epstol is used to check for badly conditioned unit vectors.
	epstol = 1e-4
)

// Builder wraps scene and camera construction.
// Provides error handling strategies with panics or error accumulation during construction.
type Builder struct {
	NoDimensionPanic bool
	accumErrs        []error
}

// Err returns all errors accumulated during construction joined into one.
// It is only useful when NoDimensionPanic is set.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

func (bld *Builder) shapeErrorf(msg string, args ...any) {
	if !bld.NoDimensionPanic {
		panic(fmt.Sprintf(msg, args...))
	}
	bld.accumErrs = append(bld.accumErrs, fmt.Errorf(msg, args...))
}

// Ray is a half line starting at Origin heading in unit direction Dir.
type Ray struct {
	Origin ms3.Vec
	Dir    ms3.Vec
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) ms3.Vec {
	return ms3.Add(r.Origin, ms3.Scale(t, r.Dir))
}

// IsUnit reports whether v has unit length within a small tolerance.
func IsUnit(v ms3.Vec) bool {
	return math32.Abs(ms3.Norm(v)-1) < epstol
}

func isFinite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

func isFiniteVec(v ms3.Vec) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func minf(a, b float32) float32 {
	return math32.Min(a, b)
}
