package render_test

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfmarch"
	"github.com/soypat/sdfmarch/march"
	"github.com/soypat/sdfmarch/render"
)

func newRenderer(t *testing.T, sun ms3.Vec, workers int, spheres ...sdfmarch.Sphere) *render.ImageRenderer {
	t.Helper()
	bld := sdfmarch.Builder{NoDimensionPanic: true}
	cam := bld.NewCamera(ms3.Vec{}, 0, 0)
	scene := bld.NewScene(spheres...)
	if err := bld.Err(); err != nil {
		t.Fatal(err)
	}
	cfg := march.DefaultConfig()
	cfg.Sun = sun
	m, err := march.NewMarcher(scene, cfg)
	if err != nil {
		t.Fatal(err)
	}
	ir, err := render.NewImageRenderer(cam, m, workers)
	if err != nil {
		t.Fatal(err)
	}
	return ir
}

var referenceSpheres = []sdfmarch.Sphere{
	{Center: ms3.Vec{X: 0.8, Y: -0.3, Z: 2.6}, Radius: 0.5},
	{Center: ms3.Vec{X: -0.5, Y: 0, Z: 3}, Radius: 1},
}

func TestRender4x4(t *testing.T) {
	ir := newRenderer(t, ms3.Vec{Y: 1}, 2, sdfmarch.Sphere{Center: ms3.Vec{Z: 2}, Radius: 1})
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	err := ir.Render(img)
	if err != nil {
		t.Fatal(err)
	}
	black := color.RGBA{A: 255}
	for _, corner := range [][2]int{{0, 0}, {3, 0}, {0, 3}, {3, 3}} {
		got := img.RGBAAt(corner[0], corner[1])
		if got != black {
			t.Errorf("corner %v: got %v, want black", corner, got)
		}
	}
	// Row 3 looks at the upper half of the sphere which faces the sun.
	if got := img.RGBAAt(2, 3); got.R == 0 {
		t.Errorf("expected lit pixel on sun facing side, got %v", got)
	}
	// Row 1 looks at the lower half of the sphere which is in its own shadow.
	if got := img.RGBAAt(2, 1); got != black {
		t.Errorf("expected self shadowed pixel, got %v", got)
	}
}

func TestRenderDeterministic(t *testing.T) {
	const w, h = 48, 40
	sun := march.DefaultConfig().Sun
	var images []*image.RGBA
	for _, workers := range []int{1, 1, 3, 7, 64} {
		ir := newRenderer(t, sun, workers, referenceSpheres...)
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		err := ir.Render(img)
		if err != nil {
			t.Fatal(err)
		}
		images = append(images, img)
	}
	for i, img := range images[1:] {
		if !bytes.Equal(images[0].Pix, img.Pix) {
			t.Errorf("render %d differs from first render", i+1)
		}
	}
	var lit, dark int
	pix := images[0].Pix
	for i := 0; i < len(pix); i += 4 {
		if pix[i] == 0 {
			dark++
		} else {
			lit++
		}
	}
	if lit == 0 || dark == 0 {
		t.Errorf("expected both lit and dark pixels, got %d lit and %d dark", lit, dark)
	}
}

func TestRenderOffsetBounds(t *testing.T) {
	const size = 16
	ir := newRenderer(t, march.DefaultConfig().Sun, 0, referenceSpheres...)
	base := image.NewRGBA(image.Rect(0, 0, size, size))
	offset := image.NewRGBA(image.Rect(10, -5, 10+size, -5+size))
	for _, img := range []*image.RGBA{base, offset} {
		if err := ir.Render(img); err != nil {
			t.Fatal(err)
		}
	}
	for py := 0; py < size; py++ {
		for px := 0; px < size; px++ {
			want := base.RGBAAt(px, py)
			got := offset.RGBAAt(px+10, py-5)
			if got != want {
				t.Fatalf("pixel (%d,%d): got %v, want %v", px, py, got, want)
			}
		}
	}
}

func TestNewImageRendererErrors(t *testing.T) {
	if _, err := render.NewImageRenderer(nil, nil, 1); err == nil {
		t.Error("expected error for nil camera and marcher")
	}
	ir := newRenderer(t, march.DefaultConfig().Sun, 0, referenceSpheres...)
	if ir.Workers() <= 0 {
		t.Errorf("got %d workers", ir.Workers())
	}
	if err := ir.Render(image.NewRGBA(image.Rectangle{})); err == nil {
		t.Error("expected error rendering empty image")
	}
}
