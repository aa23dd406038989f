package sdfeval

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// SDF3 implements a 3D signed distance field in vectorized
// form so that many points can be evaluated in a single call.
type SDF3 interface {
	// Evaluate evaluates the signed distance field over pos positions.
	// dist and pos must be of same length.  Resulting distances are stored
	// in dist.
	//
	// userData facilitates getting data to the evaluators for use in processing, such as [VecPool].
	Evaluate(pos []ms3.Vec, dist []float32, userData any) error
	// Bounds returns the SDF's bounding box such that all of the shape is contained within.
	Bounds() ms3.Box
}

var (
	ErrEmptyBuffers         = errors.New("empty buffers")
	ErrMismatchBufferLength = errors.New("position and distance buffer length mismatch")
)

// CheckBuffers returns an error if pos and dist cannot be used as arguments to [SDF3.Evaluate].
func CheckBuffers(pos []ms3.Vec, dist []float32) error {
	if len(pos) != len(dist) {
		return ErrMismatchBufferLength
	} else if len(pos) == 0 {
		return ErrEmptyBuffers
	}
	return nil
}

// GetVecPool returns the [VecPool] carried by userData. userData may be a *VecPool
// or implement a VecPool method returning one.
func GetVecPool(userData any) (*VecPool, error) {
	switch v := userData.(type) {
	case *VecPool:
		if v == nil {
			return nil, errors.New("nil *VecPool")
		}
		return v, nil
	case interface{ VecPool() *VecPool }:
		vp := v.VecPool()
		if vp == nil {
			return nil, fmt.Errorf("%T returned nil *VecPool", userData)
		}
		return vp, nil
	}
	return nil, fmt.Errorf("want userData type *sdfeval.VecPool or implementing VecPool method for buffer reuse, got %T", userData)
}
