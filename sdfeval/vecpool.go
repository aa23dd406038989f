package sdfeval

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// VecPool holds reusable scratch buffers for SDF evaluation. It is not safe for
// concurrent use; each goroutine evaluating SDFs should own its VecPool.
type VecPool struct {
	V3    bufPool[ms3.Vec]
	Float bufPool[float32]
	Int   bufPool[int]
}

// AssertAllReleased returns an error if any buffer acquired from the pool was not released.
func (vp *VecPool) AssertAllReleased() error {
	err := vp.V3.assertAllReleased()
	if err != nil {
		return fmt.Errorf("V3 pool: %w", err)
	}
	err = vp.Float.assertAllReleased()
	if err != nil {
		return fmt.Errorf("Float pool: %w", err)
	}
	err = vp.Int.assertAllReleased()
	if err != nil {
		return fmt.Errorf("Int pool: %w", err)
	}
	return nil
}

type bufPool[T any] struct {
	// acquired[i] is true if buf[i] is currently in use.
	acquired []bool
	buf      [][]T
}

// Acquire returns a buffer of length length from the pool, allocating one if
// no released buffer has enough capacity. Contents are not zeroed.
func (bp *bufPool[T]) Acquire(length int) []T {
	for i, inUse := range bp.acquired {
		if !inUse && cap(bp.buf[i]) >= length {
			bp.acquired[i] = true
			return bp.buf[i][:length]
		}
	}
	newSlice := make([]T, length, max(length, 1))
	bp.buf = append(bp.buf, newSlice)
	bp.acquired = append(bp.acquired, true)
	return newSlice
}

// Release returns a buffer acquired with Acquire to the pool.
func (bp *bufPool[T]) Release(buf []T) error {
	if cap(buf) == 0 {
		return errors.New("release of zero capacity buffer")
	}
	ptr := &buf[:1][0]
	for i, b := range bp.buf {
		if cap(b) > 0 && &b[:1][0] == ptr {
			if !bp.acquired[i] {
				return errors.New("release of already released buffer")
			}
			bp.acquired[i] = false
			return nil
		}
	}
	return errors.New("release of buffer not acquired from pool")
}

func (bp *bufPool[T]) assertAllReleased() error {
	for i, inUse := range bp.acquired {
		if inUse {
			return fmt.Errorf("buffer %d of length %d not released", i, len(bp.buf[i]))
		}
	}
	return nil
}
