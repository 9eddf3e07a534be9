package fireworks

import (
	"image/color"
	"math"

	"github.com/Garsondee/Bits-Fireworks/internal/canvas"
)

const (
	// gravity is added to a fragment's vertical velocity every frame.
	gravity = 0.06
	// riserBaseEase is the minimum fraction of the remaining distance a
	// riser covers per frame; each riser adds its own Easing on top.
	riserBaseEase = 0.03
	// riserFadeFactor maps squared distance-to-target onto alpha.
	riserFadeFactor = 0.00005
	// doneAlpha is the threshold below which a particle reports completion.
	doneAlpha = 0.005

	spriteSize   = 12
	spriteCentre = spriteSize / 2
	trailScale   = -5
	trailHalfW   = 1.5
	glowOffset   = 3
)

// trailColor is the translucent white of the motion streak.
var trailColor = color.NRGBA{R: 255, G: 255, B: 255, A: 77}

// Vec2 is a 2-D vector in viewport units (pixels, y down).
type Vec2 struct {
	X, Y float64
}

func (v Vec2) point() canvas.Point { return canvas.Point{X: v.X, Y: v.Y} }

// Kind names the two particle variants.
type Kind int

const (
	// KindRiser eases toward a target height and explodes on completion.
	KindRiser Kind = iota
	// KindFragment falls under gravity and fades by a fixed rate.
	KindFragment
)

func (k Kind) String() string {
	switch k {
	case KindRiser:
		return "riser"
	case KindFragment:
		return "fragment"
	}
	return "unknown"
}

// Motion is the variant-specific state of a particle: *RiserMotion or
// *FragmentMotion.
type Motion interface {
	Kind() Kind
}

// RiserMotion eases the particle vertically toward TargetY.
type RiserMotion struct {
	TargetY float64
	Easing  float64 // added to riserBaseEase, in [0, 0.02)
}

// Kind implements Motion.
func (*RiserMotion) Kind() Kind { return KindRiser }

// FragmentMotion is ballistic: vertical speed accumulates gravity.
type FragmentMotion struct {
	FadeRate float64 // alpha lost per frame, in [0, 0.1)
}

// Kind implements Motion.
func (*FragmentMotion) Kind() Kind { return KindFragment }

// Particle is a single simulated point.
type Particle struct {
	Pos     Vec2
	LastPos Vec2
	Vel     Vec2
	Alpha   float64
	Color   int // palette swatch index
	Motion  Motion
}

// UsesPhysics reports whether the particle is a gravity-driven fragment.
func (p *Particle) UsesPhysics() bool {
	_, ok := p.Motion.(*FragmentMotion)
	return ok
}

// Kind returns the particle variant.
func (p *Particle) Kind() Kind {
	return p.Motion.Kind()
}

// Update advances one frame and reports whether the particle is finished.
func (p *Particle) Update() bool {
	p.LastPos = p.Pos

	switch m := p.Motion.(type) {
	case *FragmentMotion:
		p.Vel.Y += gravity
		p.Pos.Y += p.Vel.Y
		p.Alpha -= m.FadeRate
	case *RiserMotion:
		distance := m.TargetY - p.Pos.Y
		p.Pos.Y += distance * (riserBaseEase + m.Easing)
		// Alpha tracks the remaining distance, not elapsed time.
		p.Alpha = math.Min(distance*distance*riserFadeFactor, 1)
	default:
		panic("fireworks: particle without motion")
	}

	p.Pos.X += p.Vel.X

	return p.Alpha < doneAlpha
}

// Render draws the particle's streak and palette sprite. sparkle is a fresh
// random value in [0, 1) that flickers the particle's alpha each frame.
func (p *Particle) Render(dst, palette canvas.Surface, sparkle float64, deco Decorator) {
	x := math.Round(p.Pos.X)
	y := math.Round(p.Pos.Y)
	trail := Vec2{X: (x - p.LastPos.X) * trailScale, Y: (y - p.LastPos.Y) * trailScale}

	opts := canvas.DrawOptions{
		Blend: canvas.BlendLighter,
		Alpha: canvas.Clamp01(sparkle * p.Alpha),
	}
	if opts.Alpha == 0 {
		return
	}

	dst.FillPolygon([]canvas.Point{
		p.Pos.point(),
		{X: p.Pos.X + trailHalfW, Y: p.Pos.Y},
		{X: p.Pos.X + trail.X, Y: p.Pos.Y + trail.Y},
		{X: p.Pos.X - trailHalfW, Y: p.Pos.Y},
	}, trailColor, opts)

	dst.DrawSurface(palette, CellRect(p.Color), x-spriteCentre, y-spriteCentre, opts)

	if deco != nil {
		deco.Decorate(dst, x-glowOffset, y-glowOffset, opts)
	}
}
