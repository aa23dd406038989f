package render

import (
	"errors"
	"image"
	"image/color"
	"runtime"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfmarch"
	"github.com/soypat/sdfmarch/march"
	"github.com/soypat/sdfmarch/sdfeval"
	"golang.org/x/sync/errgroup"
)

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// ImageRenderer renders a marched scene as seen from a camera into images.
type ImageRenderer struct {
	cam     *sdfmarch.Camera
	marcher *march.Marcher
	workers int
}

// NewImageRenderer instances a new [ImageRenderer]. Rows of the image are split
// among workers goroutines. If workers is zero or negative the number of CPUs is used.
func NewImageRenderer(cam *sdfmarch.Camera, marcher *march.Marcher, workers int) (*ImageRenderer, error) {
	if cam == nil {
		return nil, errors.New("nil camera")
	} else if marcher == nil {
		return nil, errors.New("nil marcher")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ir := &ImageRenderer{
		cam:     cam,
		marcher: marcher,
		workers: workers,
	}
	return ir, nil
}

// Workers returns the number of goroutines used for rendering.
func (ir *ImageRenderer) Workers() int { return ir.workers }

// Marcher returns the marcher used to shade pixels.
func (ir *ImageRenderer) Marcher() *march.Marcher { return ir.marcher }

// Render shades every pixel of img. Pixel (px,py) relative to the image's bounds
// is shaded with the ray through normalized screen coordinate (px/width, py/height).
// Each worker writes only the rows it owns.
func (ir *ImageRenderer) Render(img setImage) error {
	bb := img.Bounds()
	if bb.Empty() {
		return errors.New("empty image")
	}
	workers := min(ir.workers, bb.Dy())
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			rr := newRowRenderer(bb.Dx())
			for row := w; row < bb.Dy(); row += workers {
				err := ir.renderRow(rr, row, bb, img)
				if err != nil {
					return err
				}
			}
			return rr.vp.AssertAllReleased()
		})
	}
	return g.Wait()
}

// rowRenderer holds a single worker's buffers.
type rowRenderer struct {
	vp     sdfeval.VecPool
	rays   []sdfmarch.Ray
	colors []ms3.Vec
}

func newRowRenderer(width int) *rowRenderer {
	return &rowRenderer{
		rays:   make([]sdfmarch.Ray, width),
		colors: make([]ms3.Vec, width),
	}
}

func (ir *ImageRenderer) renderRow(rr *rowRenderer, row int, bb image.Rectangle, img setImage) error {
	dxi, dyi := bb.Dx(), bb.Dy()
	y := float32(row) / float32(dyi)
	for px := 0; px < dxi; px++ {
		x := float32(px) / float32(dxi)
		rr.rays[px] = ir.cam.CastRay(x, y)
	}
	err := ir.marcher.ShadeRays(rr.rays, rr.colors, &rr.vp)
	if err != nil {
		return err
	}
	for px, c := range rr.colors {
		img.Set(px+bb.Min.X, row+bb.Min.Y, sdfmarch.ColorRGBA(c))
	}
	return nil
}
