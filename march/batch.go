package march

import (
	"errors"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfmarch"
	"github.com/soypat/sdfmarch/sdfeval"
)

// ShadeRays shades all rays and stores the resulting colors in dst. Rays are
// marched in lockstep so that each step evaluates the scene once for all rays
// still marching. The colors are equal to those returned by [Marcher.Shade].
//
// userData must carry a [sdfeval.VecPool] and is passed to the scene's Evaluate method.
func (m *Marcher) ShadeRays(rays []sdfmarch.Ray, dst []ms3.Vec, userData any) error {
	if len(rays) != len(dst) {
		return errors.New("length of rays must match length of dst")
	} else if len(rays) == 0 {
		return sdfeval.ErrEmptyBuffers
	}
	vp, err := sdfeval.GetVecPool(userData)
	if err != nil {
		return err
	}
	n := len(rays)
	t := vp.Float.Acquire(n)
	defer vp.Float.Release(t)
	active := vp.Int.Acquire(n)
	defer vp.Int.Release(active)
	hits := vp.Int.Acquire(n)
	defer vp.Int.Release(hits)

	for i := range rays {
		dst[i] = sdfmarch.Black
		t[i] = m.cfg.Near
		active[i] = i
	}
	hits, err = m.marchHits(vp, rays, t, active, hits[:0], userData)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		return nil
	}

	// Shadow rays start at each primary hit point and head towards the sun.
	shadowRays := vp.V3.Acquire(n)
	defer vp.V3.Release(shadowRays)
	prev := vp.Float.Acquire(n)
	defer vp.Float.Release(prev)
	res := vp.Float.Acquire(n)
	defer vp.Float.Release(res)
	for _, i := range hits {
		shadowRays[i] = rays[i].At(t[i])
		t[i] = m.cfg.Near
		prev[i] = m.cfg.Epsilon
		res[i] = 1
	}
	active = append(active[:0], hits...)
	err = m.marchShadows(vp, shadowRays, t, prev, res, active, userData)
	if err != nil {
		return err
	}
	for _, i := range hits {
		dst[i] = ms3.Scale(res[i], sdfmarch.White)
	}
	return nil
}

// marchHits marches the rays indexed by active until they hit or reach Far.
// t holds each ray's marched distance. Indices of rays that hit are appended to hits.
func (m *Marcher) marchHits(vp *sdfeval.VecPool, rays []sdfmarch.Ray, t []float32, active, hits []int, userData any) ([]int, error) {
	pos := vp.V3.Acquire(len(active))
	defer vp.V3.Release(pos)
	dist := vp.Float.Acquire(len(active))
	defer vp.Float.Release(dist)
	eps, far := m.cfg.Epsilon, m.cfg.Far
	for {
		// Rays past Far missed.
		active = compact(active, func(i int) bool { return t[i] < far })
		if len(active) == 0 {
			return hits, nil
		}
		for j, i := range active {
			pos[j] = rays[i].At(t[i])
		}
		err := m.evaluate(pos[:len(active)], dist[:len(active)], userData)
		if err != nil {
			return hits, err
		}
		k := 0
		for j, i := range active {
			d := dist[j]
			if d < eps {
				hits = append(hits, i)
				continue
			}
			t[i] += d
			active[k] = i
			k++
		}
		active = active[:k]
	}
}

// marchShadows marches shadow rays starting at origins[i] in the sun direction
// for every index in active, accumulating the shadow factor into res.
func (m *Marcher) marchShadows(vp *sdfeval.VecPool, origins []ms3.Vec, t, prev, res []float32, active []int, userData any) error {
	pos := vp.V3.Acquire(len(active))
	defer vp.V3.Release(pos)
	dist := vp.Float.Acquire(len(active))
	defer vp.Float.Release(dist)
	eps, far, k := m.cfg.Epsilon, m.cfg.Far, m.cfg.Penumbra
	for {
		active = compact(active, func(i int) bool { return t[i] < far })
		if len(active) == 0 {
			return nil
		}
		for j, i := range active {
			sun := sdfmarch.Ray{Origin: origins[i], Dir: m.cfg.Sun}
			pos[j] = sun.At(t[i])
		}
		err := m.evaluate(pos[:len(active)], dist[:len(active)], userData)
		if err != nil {
			return err
		}
		n := 0
		for j, i := range active {
			d := dist[j]
			if d < eps {
				res[i] = 0
				continue
			}
			res[i] = penumbra(res[i], d, prev[i], k)
			prev[i] = d
			t[i] += d
			active[n] = i
			n++
		}
		active = active[:n]
	}
}

func (m *Marcher) evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	m.evals.Add(uint64(len(pos)))
	return m.scene.Evaluate(pos, dist, userData)
}

// compact keeps the elements of s for which keep returns true, preserving order.
func compact(s []int, keep func(int) bool) []int {
	n := 0
	for _, v := range s {
		if keep(v) {
			s[n] = v
			n++
		}
	}
	return s[:n]
}
