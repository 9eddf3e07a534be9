package fireworks

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/Garsondee/Bits-Fireworks/internal/canvas"
)

const (
	// DefaultShowDuration is how long the surfaces stay attached.
	DefaultShowDuration = 7000 * time.Millisecond

	defaultViewportW = 1280
	defaultViewportH = 720

	spawnBelowViewport = 10
	targetMinY         = 150
	targetSpanY        = 100
	driftSpan          = 3
	driftMin           = -1.5
	maxEasing          = 0.02
	maxFadeRate        = 0.1
)

// ErrSurface wraps any failure to create the show's drawing surfaces.
var ErrSurface = errors.New("fireworks: cannot create surface")

// LoopState is the frame loop's lifecycle.
type LoopState int

const (
	LoopRunning LoopState = iota
	LoopHalted
)

func (s LoopState) String() string {
	if s == LoopRunning {
		return "running"
	}
	return "halted"
}

// SpawnOptions overrides the defaults of SpawnParticle. Nil fields take the
// engine defaults; Kind defaults to KindRiser.
type SpawnOptions struct {
	Position *Vec2
	TargetY  *float64
	Velocity *Vec2
	Color    *int
	Kind     Kind
}

// Engine runs one show: it owns the particles, the viewport snapshot, the
// tier and both surfaces. It is driven from a single goroutine.
type Engine struct {
	backend   canvas.Backend
	particles []*Particle
	viewportW int
	viewportH int
	tier      string
	scale     float64

	main    canvas.Surface
	palette canvas.Surface
	glow    *Glow
	useGlow bool
	deco    Decorator

	rng     *rand.Rand
	explode ExplosionStrategy
	log     *ShowLog
	stats   ShowStats

	started       time.Time
	showDuration  time.Duration
	tornDown      bool
	state         LoopState
	frame         int
	haltWhenEmpty bool
	keepTrails    bool

	onTeardown []func()
	onExplode  []func(riser Particle)
}

// Option configures an Engine before the show starts.
type Option func(*Engine)

// WithViewport sets the viewport snapshot (the host window size).
func WithViewport(w, h int) Option {
	return func(e *Engine) {
		e.viewportW = w
		e.viewportH = h
	}
}

// WithRand supplies the random source.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithSeed seeds a private random source.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- visual only
	}
}

// WithStartTime fixes the show's start instant instead of time.Now.
func WithStartTime(t time.Time) Option {
	return func(e *Engine) { e.started = t }
}

// WithDuration changes when the surfaces are torn down.
func WithDuration(d time.Duration) Option {
	return func(e *Engine) { e.showDuration = d }
}

// WithExplosion replaces CircleExplosion.
func WithExplosion(s ExplosionStrategy) Option {
	return func(e *Engine) { e.explode = s }
}

// WithShowLog directs engine events to l.
func WithShowLog(l *ShowLog) Option {
	return func(e *Engine) { e.log = l }
}

// WithGlow enables the glow decorator and glowing palette swatches.
func WithGlow(on bool) Option {
	return func(e *Engine) { e.useGlow = on }
}

// WithHaltWhenEmpty controls whether the loop halts once no particles remain.
func WithHaltWhenEmpty(on bool) Option {
	return func(e *Engine) { e.haltWhenEmpty = on }
}

// WithKeepTrails skips the per-frame clear so streaks accumulate.
func WithKeepTrails(on bool) Option {
	return func(e *Engine) { e.keepTrails = on }
}

// WithOnTeardown registers fn to run once when the surfaces are detached.
func WithOnTeardown(fn func()) Option {
	return func(e *Engine) { e.onTeardown = append(e.onTeardown, fn) }
}

// WithOnExplode registers fn to run after a riser explodes. fn receives the
// riser's final state.
func WithOnExplode(fn func(riser Particle)) Option {
	return func(e *Engine) { e.onExplode = append(e.onExplode, fn) }
}

// Initialize starts a show for tier: it creates both surfaces, builds the
// palette and launches one riser. The only failure is surface creation.
func Initialize(b canvas.Backend, tier string, opts ...Option) (*Engine, error) {
	e := &Engine{
		backend:       b,
		viewportW:     defaultViewportW,
		viewportH:     defaultViewportH,
		tier:          tier,
		scale:         TierScale(tier),
		deco:          NoGlow{},
		explode:       CircleExplosion,
		showDuration:  DefaultShowDuration,
		haltWhenEmpty: true,
	}
	for _, o := range opts {
		o(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- visual only
	}
	if e.log == nil {
		e.log = NewShowLog(false)
	}
	if e.started.IsZero() {
		e.started = time.Now()
	}

	if err := e.setupSurfaces(); err != nil {
		return nil, err
	}

	e.log.Add(0, LogShow, "initialize",
		fmt.Sprintf("tier=%q scale=%.2f viewport=%dx%d", tier, e.scale, e.viewportW, e.viewportH), e.scale)

	seed := e.SpawnParticle(SpawnOptions{})
	e.log.Add(0, LogSpawn, "seed",
		fmt.Sprintf("at (%.1f,%.1f) target=%.1f color=%d", seed.Pos.X, seed.Pos.Y, seed.Motion.(*RiserMotion).TargetY, seed.Color), seed.Pos.X)

	e.state = LoopRunning
	e.stats.record(e.frame, len(e.particles))
	return e, nil
}

func (e *Engine) setupSurfaces() error {
	if e.useGlow {
		g, err := NewGlow(e.backend)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSurface, err)
		}
		e.glow = g
		e.deco = g
	}
	palette, err := BuildPalette(e.backend, e.glow)
	if err != nil {
		e.disposeGlow()
		return fmt.Errorf("%w: %w", ErrSurface, err)
	}
	main, err := e.backend.NewSurface(e.viewportW, e.viewportH)
	if err != nil {
		palette.Dispose()
		e.disposeGlow()
		return fmt.Errorf("%w: main %dx%d: %w", ErrSurface, e.viewportW, e.viewportH, err)
	}
	e.palette = palette
	e.main = main
	return nil
}

// SpawnParticle adds a particle, resolving unset options to their defaults.
// Velocity, supplied or defaulted, is multiplied by the show's tier scale.
func (e *Engine) SpawnParticle(o SpawnOptions) *Particle {
	pos := Vec2{X: float64(e.viewportW) * 0.5, Y: float64(e.viewportH) + spawnBelowViewport}
	if o.Position != nil {
		pos = *o.Position
	}

	var targetY float64
	if o.TargetY != nil {
		targetY = *o.TargetY
	} else {
		targetY = targetMinY + e.rng.Float64()*targetSpanY
	}

	var vel Vec2
	if o.Velocity != nil {
		vel = *o.Velocity
	} else {
		vel = Vec2{X: e.rng.Float64()*driftSpan + driftMin}
	}
	vel.X *= e.scale
	vel.Y *= e.scale

	var c int
	if o.Color != nil {
		c = wrapIndex(*o.Color)
	} else {
		c = e.rng.Intn(PaletteSize)
	}

	easing := e.rng.Float64() * maxEasing
	fade := e.rng.Float64() * maxFadeRate

	var m Motion
	switch o.Kind {
	case KindRiser:
		m = &RiserMotion{TargetY: targetY, Easing: easing}
	case KindFragment:
		m = &FragmentMotion{FadeRate: fade}
	default:
		panic(fmt.Sprintf("fireworks: unknown particle kind %d", o.Kind))
	}

	p := &Particle{Pos: pos, LastPos: pos, Vel: vel, Alpha: 1, Color: c, Motion: m}
	e.particles = append(e.particles, p)
	e.stats.Spawned++
	e.log.AddVerbose(e.frame, LogSpawn, o.Kind.String(),
		fmt.Sprintf("at (%.1f,%.1f) vel (%.2f,%.2f) color=%d", pos.X, pos.Y, vel.X, vel.Y, c), float64(len(e.particles)))
	return p
}

// Frame runs one tick of the show at wall-clock time now: one pass of the
// particle loop while it is running, then the teardown check.
func (e *Engine) Frame(now time.Time) {
	if e.state == LoopRunning {
		e.step()
	}
	e.checkTeardown(now)
}

// step updates and renders every particle, newest first, so removal at the
// current index never disturbs the part of the slice still to be visited.
func (e *Engine) step() {
	e.frame++
	drawing := e.main != nil
	if drawing && !e.keepTrails {
		e.main.Clear()
	}

	for i := len(e.particles) - 1; i >= 0; i-- {
		p := e.particles[i]
		if p.Update() {
			e.particles = slices.Delete(e.particles, i, i+1)
			e.stats.Removed++
			e.log.AddVerbose(e.frame, LogRemove, p.Kind().String(),
				fmt.Sprintf("alpha=%.4f at (%.1f,%.1f)", p.Alpha, p.Pos.X, p.Pos.Y), p.Alpha)
			if !p.UsesPhysics() {
				e.explodeRiser(p)
			}
		}
		// Removed particles still get their final frame drawn.
		if drawing {
			p.Render(e.main, e.palette, e.rng.Float64(), e.deco)
		}
	}

	e.stats.record(e.frame, len(e.particles))
	e.log.AddVerbose(e.frame, LogFrame, "particles", fmt.Sprintf("%d", len(e.particles)), float64(len(e.particles)))

	if e.haltWhenEmpty && len(e.particles) == 0 {
		e.halt("drained")
	}
}

func (e *Engine) explodeRiser(p *Particle) {
	before := len(e.particles)
	e.explode(e, p)
	n := len(e.particles) - before
	e.stats.Explosions++
	if e.stats.ExplosionFrame == 0 {
		e.stats.ExplosionFrame = e.frame
	}
	e.log.Add(e.frame, LogExplosion, "circle",
		fmt.Sprintf("fragments=%d at (%.1f,%.1f) color=%d", n, p.Pos.X, p.Pos.Y, p.Color), float64(n))
	for _, fn := range e.onExplode {
		fn(*p)
	}
}

func (e *Engine) checkTeardown(now time.Time) {
	if e.tornDown || now.Sub(e.started) < e.showDuration {
		return
	}
	e.Teardown()
}

// Teardown detaches both surfaces and runs the teardown hooks, once. It does
// not halt the loop: remaining particles keep animating, undrawn.
func (e *Engine) Teardown() {
	if e.tornDown {
		return
	}
	e.tornDown = true
	if e.main != nil {
		e.main.Dispose()
		e.main = nil
	}
	if e.palette != nil {
		e.palette.Dispose()
		e.palette = nil
	}
	e.disposeGlow()
	e.deco = NoGlow{}
	e.log.Add(e.frame, LogShow, "teardown",
		fmt.Sprintf("particles=%d loop=%s", len(e.particles), e.state), float64(len(e.particles)))
	for _, fn := range e.onTeardown {
		fn()
	}
}

func (e *Engine) disposeGlow() {
	if e.glow != nil {
		e.glow.Dispose()
		e.glow = nil
	}
}

// Stop halts the frame loop. Surfaces stay attached until teardown.
func (e *Engine) Stop() {
	e.halt("stopped")
}

func (e *Engine) halt(reason string) {
	if e.state == LoopHalted {
		return
	}
	e.state = LoopHalted
	e.stats.HaltFrame = e.frame
	e.log.Add(e.frame, LogLoop, "halt", reason, float64(len(e.particles)))
}

// Running reports whether the frame loop is still advancing particles.
func (e *Engine) Running() bool { return e.state == LoopRunning }

// State returns the loop state.
func (e *Engine) State() LoopState { return e.state }

// TornDown reports whether the surfaces have been detached.
func (e *Engine) TornDown() bool { return e.tornDown }

// Particles returns the live particles. The slice must not be modified.
func (e *Engine) Particles() []*Particle { return e.particles }

// ParticleCount returns the number of live particles.
func (e *Engine) ParticleCount() int { return len(e.particles) }

// Tier returns the identifier the show was started with.
func (e *Engine) Tier() string { return e.tier }

// Scale returns the show's velocity scale.
func (e *Engine) Scale() float64 { return e.scale }

// Viewport returns the viewport snapshot.
func (e *Engine) Viewport() (w, h int) { return e.viewportW, e.viewportH }

// FrameCount returns the number of loop passes run so far.
func (e *Engine) FrameCount() int { return e.frame }

// Main returns the visible surface, or nil after teardown.
func (e *Engine) Main() canvas.Surface { return e.main }

// Palette returns the swatch surface, or nil after teardown.
func (e *Engine) Palette() canvas.Surface { return e.palette }

// Log returns the show's event log.
func (e *Engine) Log() *ShowLog { return e.log }

// Stats returns a copy of the show's counters.
func (e *Engine) Stats() ShowStats {
	s := e.stats
	s.History = slices.Clone(e.stats.History)
	return s
}

// Elapsed returns the time since the show started.
func (e *Engine) Elapsed(now time.Time) time.Duration { return now.Sub(e.started) }
