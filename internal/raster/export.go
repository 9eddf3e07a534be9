package raster

import (
	"fmt"
	"image"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
)

// Scaled returns the surface resampled to w×h. The terminal renderer uses it
// to fold the full-resolution show into character cells.
func (s *Surface) Scaled(w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), s.img, s.img.Bounds(), xdraw.Src, nil)
	return dst
}

// WritePNG encodes the current frame. Transparent pixels are composited onto
// opaque black so the image reads the way the overlay looks over dark video.
func (s *Surface) WritePNG(w io.Writer) error {
	out := image.NewRGBA(s.img.Bounds())
	xdraw.Draw(out, out.Bounds(), image.Black, image.Point{}, xdraw.Src)
	xdraw.Draw(out, out.Bounds(), s.img, s.img.Bounds().Min, xdraw.Over)
	if err := png.Encode(w, out); err != nil {
		return fmt.Errorf("raster: encode png: %w", err)
	}
	return nil
}
