// Package raster is a software implementation of the canvas contract on top
// of image.RGBA. It backs headless runs, tests and the terminal renderer.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/Garsondee/Bits-Fireworks/internal/canvas"
)

// Backend creates raster surfaces.
type Backend struct{}

// NewBackend returns a raster backend.
func NewBackend() Backend { return Backend{} }

// NewSurface allocates a transparent w×h surface.
func (Backend) NewSurface(w, h int) (canvas.Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster: invalid surface size %dx%d", w, h)
	}
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, w, h))}, nil
}

// NewSurfaceFromImage copies img into a new surface.
func (Backend) NewSurfaceFromImage(img image.Image) (canvas.Surface, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("raster: empty source image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return &Surface{img: dst}, nil
}

// Surface is an image.RGBA drawing target.
type Surface struct {
	img      *image.RGBA
	rast     *vector.Rasterizer
	disposed bool
}

// Size implements canvas.Surface.
func (s *Surface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Clear implements canvas.Surface.
func (s *Surface) Clear() {
	if s.disposed {
		return
	}
	clear(s.img.Pix)
}

// FillRect implements canvas.Surface.
func (s *Surface) FillRect(r image.Rectangle, c color.Color) {
	if s.disposed {
		return
	}
	xdraw.Draw(s.img, r, &image.Uniform{C: c}, image.Point{}, xdraw.Src)
}

// FillPolygon fills pts with antialiased coverage from the vector
// rasterizer. Coverage scales the source alpha before blending.
func (s *Surface) FillPolygon(pts []canvas.Point, c color.Color, opts canvas.DrawOptions) {
	if s.disposed || len(pts) < 3 {
		return
	}
	sr, sg, sb, sa := premul(c, opts.Alpha)
	if sa == 0 {
		return
	}
	box := polygonBounds(pts).Intersect(s.img.Bounds())
	if box.Empty() {
		return
	}

	w, h := box.Dx(), box.Dy()
	if s.rast == nil {
		s.rast = vector.NewRasterizer(w, h)
	} else {
		s.rast.Reset(w, h)
	}
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	s.rast.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		s.rast.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	s.rast.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	s.rast.DrawOp = xdraw.Src
	s.rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, cov := range row {
			if cov == 0 {
				continue
			}
			k := float64(cov) / 255
			s.blend(box.Min.X+x, box.Min.Y+y, sr*k, sg*k, sb*k, sa*k, opts.Blend)
		}
	}
}

func polygonBounds(pts []canvas.Point) image.Rectangle {
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// DrawSurface implements canvas.Surface. The destination offset is rounded
// to whole pixels.
func (s *Surface) DrawSurface(src canvas.Surface, sr image.Rectangle, dx, dy float64, opts canvas.DrawOptions) {
	if s.disposed {
		return
	}
	rs, ok := src.(*Surface)
	if !ok {
		panic(canvas.ErrForeignSurface)
	}
	if rs.disposed {
		return
	}
	sr = sr.Intersect(rs.img.Bounds())
	alpha := canvas.Clamp01(opts.Alpha)
	if alpha == 0 || sr.Empty() {
		return
	}
	ox := int(math.Round(dx))
	oy := int(math.Round(dy))
	b := s.img.Bounds()
	for y := sr.Min.Y; y < sr.Max.Y; y++ {
		ty := oy + y - sr.Min.Y
		if ty < b.Min.Y || ty >= b.Max.Y {
			continue
		}
		for x := sr.Min.X; x < sr.Max.X; x++ {
			tx := ox + x - sr.Min.X
			if tx < b.Min.X || tx >= b.Max.X {
				continue
			}
			i := rs.img.PixOffset(x, y)
			p := rs.img.Pix[i : i+4 : i+4]
			if p[3] == 0 {
				continue
			}
			s.blend(tx, ty,
				float64(p[0])/255*alpha,
				float64(p[1])/255*alpha,
				float64(p[2])/255*alpha,
				float64(p[3])/255*alpha,
				opts.Blend)
		}
	}
}

// Dispose implements canvas.Surface.
func (s *Surface) Dispose() {
	s.disposed = true
}

// Disposed reports whether Dispose has been called.
func (s *Surface) Disposed() bool {
	return s.disposed
}

// Image returns the backing image. Callers must not retain it across frames.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// At returns the premultiplied pixel at (x, y).
func (s *Surface) At(x, y int) color.RGBA {
	return s.img.RGBAAt(x, y)
}

// blend composites one premultiplied source pixel (components in [0, 1]).
func (s *Surface) blend(x, y int, r, g, b, a float64, mode canvas.BlendMode) {
	i := s.img.PixOffset(x, y)
	d := s.img.Pix[i : i+4 : i+4]
	dr := float64(d[0]) / 255
	dg := float64(d[1]) / 255
	db := float64(d[2]) / 255
	da := float64(d[3]) / 255
	switch mode {
	case canvas.BlendLighter:
		dr, dg, db, da = dr+r, dg+g, db+b, da+a
	default:
		k := 1 - a
		dr, dg, db, da = r+dr*k, g+dg*k, b+db*k, a+da*k
	}
	d[0] = to8(dr)
	d[1] = to8(dg)
	d[2] = to8(db)
	d[3] = to8(da)
}

func premul(c color.Color, alpha float64) (r, g, b, a float64) {
	cr, cg, cb, ca := c.RGBA()
	k := canvas.Clamp01(alpha) / 0xffff
	return float64(cr) * k, float64(cg) * k, float64(cb) * k, float64(ca) * k
}

func to8(v float64) uint8 {
	return uint8(math.Round(canvas.Clamp01(v) * 255))
}
