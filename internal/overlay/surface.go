package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Bits-Fireworks/internal/canvas"
)

// Backend creates GPU surfaces backed by *ebiten.Image.
type Backend struct{}

// NewSurface implements canvas.Backend.
func (Backend) NewSurface(w, h int) (canvas.Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("overlay: invalid surface size %dx%d", w, h)
	}
	return &Surface{img: ebiten.NewImage(w, h)}, nil
}

// NewSurfaceFromImage implements canvas.Backend.
func (Backend) NewSurfaceFromImage(img image.Image) (canvas.Surface, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("overlay: empty source image")
	}
	return &Surface{img: ebiten.NewImageFromImage(img)}, nil
}

// Surface is a canvas.Surface over an offscreen ebiten image.
type Surface struct {
	img      *ebiten.Image
	disposed bool
}

// Image returns the underlying image, or nil after Dispose.
func (s *Surface) Image() *ebiten.Image {
	if s.disposed {
		return nil
	}
	return s.img
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
	s.img.Clear()
}

// FillRect replaces the pixels of r with c.
func (s *Surface) FillRect(r image.Rectangle, c color.Color) {
	if s.disposed {
		return
	}
	r = r.Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}
	s.img.SubImage(r).(*ebiten.Image).Fill(c)
}

// FillPolygon fills pts with the even-odd rule.
func (s *Surface) FillPolygon(pts []canvas.Point, c color.Color, opts canvas.DrawOptions) {
	alpha := canvas.Clamp01(opts.Alpha)
	if s.disposed || len(pts) < 3 || alpha == 0 {
		return
	}
	var path vector.Path
	path.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		path.LineTo(float32(p.X), float32(p.Y))
	}
	path.Close()

	dpo := &vector.DrawPathOptions{AntiAlias: true, Blend: blendOf(opts.Blend)}
	dpo.ColorScale.ScaleWithColor(c)
	dpo.ColorScale.ScaleAlpha(float32(alpha))
	vector.FillPath(s.img, &path, &vector.FillOptions{FillRule: vector.FillRuleEvenOdd}, dpo)
}

// DrawSurface copies sr of src to (dx, dy) rounded to whole pixels. src must
// come from Backend.
func (s *Surface) DrawSurface(src canvas.Surface, sr image.Rectangle, dx, dy float64, opts canvas.DrawOptions) {
	from, ok := src.(*Surface)
	if !ok {
		panic(canvas.ErrForeignSurface)
	}
	alpha := canvas.Clamp01(opts.Alpha)
	if s.disposed || from.disposed || alpha == 0 {
		return
	}
	sr = sr.Intersect(from.img.Bounds())
	if sr.Empty() {
		return
	}
	op := &ebiten.DrawImageOptions{Blend: blendOf(opts.Blend)}
	op.GeoM.Translate(math.Round(dx), math.Round(dy))
	op.ColorScale.ScaleAlpha(float32(alpha))
	s.img.DrawImage(from.img.SubImage(sr).(*ebiten.Image), op)
}

// Dispose releases the GPU image. Further drawing is ignored.
func (s *Surface) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.img.Deallocate()
}

func blendOf(m canvas.BlendMode) ebiten.Blend {
	if m == canvas.BlendLighter {
		return ebiten.BlendLighter
	}
	return ebiten.BlendSourceOver
}
