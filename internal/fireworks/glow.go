package fireworks

import (
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/Garsondee/Bits-Fireworks/internal/canvas"
)

const (
	glowSourceSize = 64
	smallGlowSize  = 2 * glowOffset
	bigGlowSize    = paletteCell
)

// Decorator adds an optional extra draw step after a particle's sprite.
type Decorator interface {
	Decorate(dst canvas.Surface, x, y float64, opts canvas.DrawOptions)
}

// NoGlow is the no-op decorator.
type NoGlow struct{}

// Decorate implements Decorator.
func (NoGlow) Decorate(canvas.Surface, float64, float64, canvas.DrawOptions) {}

// Glow holds a small per-particle glow sprite and a large glow used to
// brighten palette swatches.
type Glow struct {
	small canvas.Surface
	big   canvas.Surface
}

// NewGlow renders a soft radial falloff and resamples it into both sprite
// sizes.
func NewGlow(b canvas.Backend) (*Glow, error) {
	src := radialGlow(glowSourceSize)
	small, err := b.NewSurfaceFromImage(resample(src, smallGlowSize))
	if err != nil {
		return nil, fmt.Errorf("small glow: %w", err)
	}
	big, err := b.NewSurfaceFromImage(resample(src, bigGlowSize))
	if err != nil {
		small.Dispose()
		return nil, fmt.Errorf("big glow: %w", err)
	}
	return &Glow{small: small, big: big}, nil
}

// Decorate implements Decorator.
func (g *Glow) Decorate(dst canvas.Surface, x, y float64, opts canvas.DrawOptions) {
	dst.DrawSurface(g.small, image.Rect(0, 0, smallGlowSize, smallGlowSize), x, y, opts)
}

// Dispose releases both sprites.
func (g *Glow) Dispose() {
	g.small.Dispose()
	g.big.Dispose()
}

func (g *Glow) decorateCell(dst canvas.Surface, cell image.Rectangle) {
	dst.DrawSurface(g.big, image.Rect(0, 0, bigGlowSize, bigGlowSize),
		float64(cell.Min.X), float64(cell.Min.Y),
		canvas.DrawOptions{Blend: canvas.BlendLighter, Alpha: 0.5})
}

func radialGlow(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	c := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)+0.5-c, float64(y)+0.5-c) / c
			if d >= 1 {
				continue
			}
			a := uint8(math.Round((1 - d) * (1 - d) * 255))
			img.SetRGBA(x, y, color.RGBA{R: a, G: a, B: a, A: a})
		}
	}
	return img
}

func resample(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}
