package marchaux

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfmarch"
	"github.com/soypat/sdfmarch/march"
	"github.com/soypat/sdfmarch/render"
)

// Config describes a complete render: image size, camera pose, scene and marching parameters.
type Config struct {
	Width, Height int
	CameraOrigin  ms3.Vec
	Yaw, Pitch    float32
	Spheres       []sdfmarch.Sphere
	// Sun is the unit direction from surfaces towards the light.
	Sun       ms3.Vec
	Near, Far float32
	Epsilon   float32
	Penumbra  float32
	// Workers is the number of rendering goroutines. Zero or negative uses all CPUs.
	Workers int
}

// DefaultConfig returns the reference scene: two spheres seen from the origin
// lit from above, rendered at 1000x1000.
func DefaultConfig() Config {
	mcfg := march.DefaultConfig()
	return Config{
		Width:  1000,
		Height: 1000,
		Spheres: []sdfmarch.Sphere{
			{Center: ms3.Vec{X: 0.8, Y: -0.3, Z: 2.6}, Radius: 0.5},
			{Center: ms3.Vec{X: -0.5, Y: 0, Z: 3}, Radius: 1},
		},
		Sun:      mcfg.Sun,
		Near:     mcfg.Near,
		Far:      mcfg.Far,
		Epsilon:  mcfg.Epsilon,
		Penumbra: mcfg.Penumbra,
	}
}

func (cfg Config) marchConfig() march.Config {
	return march.Config{
		Near:     cfg.Near,
		Far:      cfg.Far,
		Epsilon:  cfg.Epsilon,
		Sun:      cfg.Sun,
		Penumbra: cfg.Penumbra,
	}
}

// Validate returns an error describing every problem with cfg.
func (cfg Config) Validate() error {
	_, _, err := cfg.build()
	return err
}

func (cfg Config) build() (*sdfmarch.Camera, *sdfmarch.Scene, error) {
	var errs []error
	if cfg.Width <= 0 || cfg.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid image size %dx%d", cfg.Width, cfg.Height))
	}
	bld := sdfmarch.Builder{NoDimensionPanic: true}
	cam := bld.NewCamera(cfg.CameraOrigin, cfg.Yaw, cfg.Pitch)
	scene := bld.NewScene(cfg.Spheres...)
	errs = append(errs, bld.Err(), cfg.marchConfig().Validate())
	if len(cfg.Spheres) > 0 && cfg.Epsilon >= scene.MinRadius() {
		errs = append(errs, fmt.Errorf("epsilon %v must be smaller than smallest sphere radius %v", cfg.Epsilon, scene.MinRadius()))
	}
	err := errors.Join(errs...)
	if err != nil {
		return nil, nil, err
	}
	return cam, scene, nil
}

// NewRenderer validates cfg and creates the renderer it describes.
func NewRenderer(cfg Config) (*render.ImageRenderer, error) {
	cam, scene, err := cfg.build()
	if err != nil {
		return nil, err
	}
	marcher, err := march.NewMarcher(scene, cfg.marchConfig())
	if err != nil {
		return nil, err
	}
	return render.NewImageRenderer(cam, marcher, cfg.Workers)
}

// RenderImage renders the scene described by cfg to a new image.
func RenderImage(cfg Config) (*image.RGBA, error) {
	renderer, err := NewRenderer(cfg)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	err = renderer.Render(img)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// RenderConfig configures the outputs of [Render].
type RenderConfig struct {
	// Output receives the encoded image. Required.
	Output io.Writer
	Format Format
	// PreviewOutput optionally receives a downscaled copy of the image
	// encoded in PreviewFormat whose largest side is PreviewSize.
	PreviewOutput io.Writer
	PreviewFormat Format
	PreviewSize   uint
	Silent        bool
}

// Render is an auxiliary function that renders the scene described by cfg and
// encodes the result to the outputs in rcfg, logging progress unless rcfg.Silent is set.
func Render(cfg Config, rcfg RenderConfig) error {
	if rcfg.Output == nil {
		return errors.New("Render requires output parameter in config")
	} else if rcfg.PreviewOutput != nil && rcfg.PreviewSize == 0 {
		return errors.New("zero preview size")
	}
	log := func(args ...any) {
		if !rcfg.Silent {
			fmt.Println(args...)
		}
	}
	watch := stopwatch()
	renderer, err := NewRenderer(cfg)
	if err != nil {
		return err
	}
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	log("rendering", cfg.Width, "x", cfg.Height, "image of", len(cfg.Spheres), "spheres with", renderer.Workers(), "workers")
	err = renderer.Render(img)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	evals := renderer.Marcher().Evaluations()
	pixels := uint64(cfg.Width) * uint64(cfg.Height)
	log("evaluated scene", evals, "times,", perPixel(evals, pixels), "per pixel, in", watch())

	watch = stopwatch()
	err = Encode(rcfg.Output, img, rcfg.Format)
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}
	log("wrote", outputName(rcfg.Output, rcfg.Format), "in", watch())

	if rcfg.PreviewOutput != nil {
		watch = stopwatch()
		preview := Preview(img, rcfg.PreviewSize)
		err = Encode(rcfg.PreviewOutput, preview, rcfg.PreviewFormat)
		if err != nil {
			return fmt.Errorf("encoding preview: %w", err)
		}
		pb := preview.Bounds()
		log("wrote", pb.Dx(), "x", pb.Dy(), "preview", outputName(rcfg.PreviewOutput, rcfg.PreviewFormat), "in", watch())
	}
	return nil
}

func outputName(w io.Writer, f Format) string {
	if fp, ok := w.(*os.File); ok {
		return fp.Name()
	}
	return f.String() + " image"
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

func perPixel(num, pixels uint64) float32 {
	return math.Trunc(100*float32(num)/float32(pixels)) / 100
}
