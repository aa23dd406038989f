package march

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfmarch"
	"github.com/soypat/sdfmarch/sdfeval"
)

// Scene is a signed distance field that can be queried one point at a time
// or in batches. Both forms must return equal distances for equal points.
type Scene interface {
	sdfeval.SDF3
	DistanceEstimate(p ms3.Vec) float32
}

// Config holds the marching parameters.
type Config struct {
	// Near and Far bound the marching interval along every ray, primary and shadow.
	Near, Far float32
	// Epsilon is the surface hit threshold.
	Epsilon float32
	// Sun is the unit direction shadow rays are marched in, from the surface towards the light.
	Sun ms3.Vec
	// Penumbra scales the soft shadow estimate. Larger values give harder shadows.
	Penumbra float32
}

// DefaultConfig returns the reference marching parameters.
func DefaultConfig() Config {
	return Config{
		Near:     0.001,
		Far:      10,
		Epsilon:  sdfmarch.Epsilon,
		Sun:      ms3.Unit(ms3.Vec{X: 0.4, Y: -1, Z: -0.4}),
		Penumbra: 3,
	}
}

// Validate returns an error describing every invalid parameter in cfg.
func (cfg Config) Validate() error {
	var errs []error
	if !(cfg.Near >= 0) || math32.IsInf(cfg.Near, 0) {
		errs = append(errs, fmt.Errorf("march near %v must be finite and non-negative", cfg.Near))
	}
	if !(cfg.Far > cfg.Near) || math32.IsInf(cfg.Far, 0) {
		errs = append(errs, fmt.Errorf("march far %v must be finite and greater than near %v", cfg.Far, cfg.Near))
	}
	if !(cfg.Epsilon > 0) || math32.IsInf(cfg.Epsilon, 0) {
		errs = append(errs, fmt.Errorf("epsilon %v must be finite and positive", cfg.Epsilon))
	} else if ulp := math32.Nextafter(cfg.Far, math32.Inf(1)) - cfg.Far; !(ulp < cfg.Epsilon) {
		// Steps of Epsilon must always advance t below Far or marching never ends.
		errs = append(errs, fmt.Errorf("float32 spacing %v at far %v must be smaller than epsilon %v", ulp, cfg.Far, cfg.Epsilon))
	}
	if ms3.Norm(cfg.Sun) == 0 {
		errs = append(errs, errors.New("zero length sun direction"))
	} else if !sdfmarch.IsUnit(cfg.Sun) {
		errs = append(errs, fmt.Errorf("sun direction %v is not unit length", cfg.Sun))
	}
	if !(cfg.Penumbra > 0) || math32.IsInf(cfg.Penumbra, 0) {
		errs = append(errs, fmt.Errorf("penumbra %v must be finite and positive", cfg.Penumbra))
	}
	return errors.Join(errs...)
}

// Marcher sphere-traces rays against a scene and estimates soft shadows from a
// single directional light. A Marcher is safe for concurrent use.
type Marcher struct {
	scene Scene
	cfg   Config
	evals atomic.Uint64
}

// NewMarcher creates a Marcher over scene with the marching parameters in cfg.
func NewMarcher(scene Scene, cfg Config) (*Marcher, error) {
	if scene == nil {
		return nil, errors.New("nil scene")
	}
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	return &Marcher{scene: scene, cfg: cfg}, nil
}

// Config returns the marching parameters.
func (m *Marcher) Config() Config { return m.cfg }

// Evaluations returns the total number of distance evaluations performed by m.
func (m *Marcher) Evaluations() uint64 { return m.evals.Load() }

func (m *Marcher) distance(p ms3.Vec) float32 {
	m.evals.Add(1)
	return m.scene.DistanceEstimate(p)
}

// Hit marches r through the scene. It returns the distance along the ray at
// which the scene was closer than Epsilon and true, or false if the ray reached Far first.
func (m *Marcher) Hit(r sdfmarch.Ray) (t float32, hit bool) {
	eps, far := m.cfg.Epsilon, m.cfg.Far
	for t = m.cfg.Near; t < far; {
		d := m.distance(r.At(t))
		if d < eps {
			return t, true
		}
		t += d
	}
	return t, false
}

// Shadow returns the soft shadow factor at surface point p: 0 when the path
// towards the sun is blocked, 1 when it passes far from all geometry, and in
// between when it grazes geometry.
func (m *Marcher) Shadow(p ms3.Vec) float32 {
	eps, far, k := m.cfg.Epsilon, m.cfg.Far, m.cfg.Penumbra
	sun := sdfmarch.Ray{Origin: p, Dir: m.cfg.Sun}
	res := float32(1)
	prev := eps
	for t := m.cfg.Near; t < far; {
		d := m.distance(sun.At(t))
		if d < eps {
			return 0
		}
		res = penumbra(res, d, prev, k)
		prev = d
		t += d
	}
	return res
}

// Shade returns the color seen along r: black if r misses the scene,
// white attenuated by the shadow factor at the hit point otherwise.
func (m *Marcher) Shade(r sdfmarch.Ray) ms3.Vec {
	t, hit := m.Hit(r)
	if !hit {
		return sdfmarch.Black
	}
	return ms3.Scale(m.Shadow(r.At(t)), sdfmarch.White)
}

// penumbra updates the running shadow factor res with the distance d at the
// current step and the distance prev at the previous step. It estimates the
// closest approach to the occluder from the intersection of the two distance
// bounding spheres. When y >= d the two spheres do not define a closest
// approach ahead of the step and res is left unchanged; this is also the only
// case where d*d-y*y would be negative.
func penumbra(res, d, prev, k float32) float32 {
	dd := d * d
	y := dd / (2 * prev)
	den := d - y
	if !(den > 0) {
		return res
	}
	h := math32.Sqrt(dd - y*y)
	return math32.Min(res, k*h/den)
}
