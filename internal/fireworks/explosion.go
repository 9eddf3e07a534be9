package fireworks

import "math"

const (
	circleFragments = 100
	circleMinSpeed  = 4.0
	circleSpeedSpan = 2.0
)

// ExplosionStrategy turns a finished riser into new particles on e.
type ExplosionStrategy func(e *Engine, riser *Particle)

// CircleExplosion spawns a ring of 100 fragments at equal angles around the
// riser's position, inheriting its colour. Fragments are created from the
// highest angle down.
func CircleExplosion(e *Engine, riser *Particle) {
	step := 2 * math.Pi / circleFragments
	pos := riser.Pos
	c := riser.Color
	for count := circleFragments - 1; count >= 0; count-- {
		speed := circleMinSpeed + e.rng.Float64()*circleSpeedSpan
		angle := float64(count) * step
		vel := Vec2{X: math.Cos(angle) * speed, Y: math.Sin(angle) * speed}
		e.SpawnParticle(SpawnOptions{
			Position: &pos,
			Velocity: &vel,
			Color:    &c,
			Kind:     KindFragment,
		})
	}
}
