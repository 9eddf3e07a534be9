package fireworks

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/crazy3lf/colorconv"

	"github.com/Garsondee/Bits-Fireworks/internal/canvas"
)

const (
	// PaletteSize is the number of colour swatches.
	PaletteSize = 100

	paletteCell = spriteSize
	paletteCols = 10
	paletteSide = paletteCell * paletteCols
	hueStep     = 3.6
)

// SwatchColor returns the flat colour of swatch i: hsl(round(i*3.6), 100%, 60%).
func SwatchColor(i int) color.RGBA {
	hue := math.Round(float64(wrapIndex(i)) * hueStep)
	r, g, b, err := colorconv.HSLToRGB(hue, 1, 0.6)
	if err != nil {
		// Only reachable with out-of-range inputs, which wrapIndex rules out.
		panic(fmt.Sprintf("fireworks: swatch %d: %v", i, err))
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// CellRect is the palette-surface rectangle holding swatch i.
func CellRect(i int) image.Rectangle {
	marker := wrapIndex(i) * paletteCell
	x := marker % paletteSide
	y := marker / paletteSide * paletteCell
	return image.Rect(x, y, x+paletteCell, y+paletteCell)
}

// BuildPalette renders all swatches onto a new offscreen surface. When glow
// is non-nil its large sprite is added over every cell.
func BuildPalette(b canvas.Backend, glow *Glow) (canvas.Surface, error) {
	s, err := b.NewSurface(paletteSide, paletteSide)
	if err != nil {
		return nil, fmt.Errorf("palette surface: %w", err)
	}
	for i := 0; i < PaletteSize; i++ {
		r := CellRect(i)
		s.FillRect(r, SwatchColor(i))
		if glow != nil {
			glow.decorateCell(s, r)
		}
	}
	return s, nil
}

func wrapIndex(i int) int {
	i %= PaletteSize
	if i < 0 {
		i += PaletteSize
	}
	return i
}
