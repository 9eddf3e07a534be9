package canvas

import (
	"errors"
	"image"
	"image/color"
)

// ErrForeignSurface is the panic value of DrawSurface when the source surface
// comes from a different backend than the destination.
var ErrForeignSurface = errors.New("canvas: surface belongs to a different backend")

// BlendMode selects how source pixels combine with the destination.
type BlendMode int

const (
	// BlendSourceOver is ordinary alpha compositing.
	BlendSourceOver BlendMode = iota
	// BlendLighter adds source colour to the destination ("lighter").
	BlendLighter
)

func (b BlendMode) String() string {
	switch b {
	case BlendSourceOver:
		return "source-over"
	case BlendLighter:
		return "lighter"
	}
	return "unknown"
}

// DrawOptions carries the transient composite state of one draw call.
// Alpha multiplies the source alpha and is clamped to [0, 1] by surfaces.
type DrawOptions struct {
	Blend BlendMode
	Alpha float64
}

// Opaque is source-over with full alpha.
var Opaque = DrawOptions{Blend: BlendSourceOver, Alpha: 1}

// Point is a vertex in surface pixel space.
type Point struct {
	X, Y float64
}

// Surface is a 2-D raster drawing target.
type Surface interface {
	// Size returns the pixel dimensions.
	Size() (w, h int)
	// Clear resets every pixel to transparent.
	Clear()
	// FillRect paints r with c, replacing what is there.
	FillRect(r image.Rectangle, c color.Color)
	// FillPolygon fills a closed polygon.
	FillPolygon(pts []Point, c color.Color, opts DrawOptions)
	// DrawSurface copies the src sub-rectangle sr with its top-left at (dx, dy).
	DrawSurface(src Surface, sr image.Rectangle, dx, dy float64, opts DrawOptions)
	// Dispose releases the surface. Draw calls on a disposed surface are no-ops.
	Dispose()
}

// Backend creates surfaces of one implementation.
type Backend interface {
	NewSurface(w, h int) (Surface, error)
	NewSurfaceFromImage(img image.Image) (Surface, error)
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
