package fireworks

import (
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Garsondee/Bits-Fireworks/internal/canvas"
	"github.com/Garsondee/Bits-Fireworks/internal/raster"
)

func mustShow(t *testing.T, opts ...ShowOption) *TestShow {
	t.Helper()
	ts, err := NewTestShow(opts...)
	if err != nil {
		t.Fatalf("NewTestShow: %v", err)
	}
	return ts
}

func TestInitialize_SpawnsOneRiser(t *testing.T) {
	ts := mustShow(t, WithShowTier("large-fireworks-sku"), WithShowViewport(800, 600))
	e := ts.Engine
	if e.ParticleCount() != 1 {
		t.Fatalf("particles = %d, want 1", e.ParticleCount())
	}
	p := e.Particles()[0]
	if p.UsesPhysics() {
		t.Fatal("seed particle uses physics")
	}
	if p.Pos != (Vec2{X: 400, Y: 610}) {
		t.Fatalf("seed at %+v, want (400,610)", p.Pos)
	}
	target := p.Motion.(*RiserMotion).TargetY
	if target < 150 || target >= 250 {
		t.Fatalf("target %v outside [150,250)", target)
	}
	if p.Vel.Y != 0 || p.Vel.X < -1.5 || p.Vel.X >= 1.5 {
		t.Fatalf("seed velocity %+v outside default drift", p.Vel)
	}
	if p.Color < 0 || p.Color >= PaletteSize {
		t.Fatalf("color %d outside palette", p.Color)
	}
	if !e.Running() || e.TornDown() {
		t.Fatal("show should be running and attached")
	}
	if w, h := e.Main().Size(); w != 800 || h != 600 {
		t.Fatalf("main surface %dx%d, want 800x600", w, h)
	}
	if !ts.Log.HasEntry(LogShow, "initialize", `tier="large-fireworks-sku"`) {
		t.Fatalf("missing initialize entry:\n%s", ts.Log.Format())
	}
}

func TestInitialize_AnyTierAccepted(t *testing.T) {
	for _, tier := range []string{"", "unknown", "small-fireworks-sku"} {
		ts := mustShow(t, WithShowTier(tier))
		if ts.Engine.Tier() != tier {
			t.Fatalf("Tier() = %q, want %q", ts.Engine.Tier(), tier)
		}
	}
}

type failingBackend struct{ raster.Backend }

func (failingBackend) NewSurface(w, h int) (canvas.Surface, error) {
	return nil, errors.New("no context")
}

func TestInitialize_SurfaceFailure(t *testing.T) {
	_, err := Initialize(failingBackend{}, "large")
	if !errors.Is(err, ErrSurface) {
		t.Fatalf("err = %v, want ErrSurface", err)
	}
	if !strings.Contains(err.Error(), "no context") {
		t.Fatalf("err = %v, want the backend cause", err)
	}
}

func TestSpawnParticle_TierScaling(t *testing.T) {
	base := mustShow(t, WithShowTier(""), WithShowSeed(7))
	small := mustShow(t, WithShowTier("small-fireworks-sku"), WithShowSeed(7))
	large := mustShow(t, WithShowTier("large-fireworks-sku"), WithShowSeed(7))

	bv := base.Engine.Particles()[0].Vel
	sv := small.Engine.Particles()[0].Vel
	lv := large.Engine.Particles()[0].Vel
	if math.Abs(sv.X-bv.X*0.25) > 1e-12 {
		t.Fatalf("small drift %v, want %v", sv.X, bv.X*0.25)
	}
	if lv.X != bv.X {
		t.Fatalf("large drift %v, want %v", lv.X, bv.X)
	}

	vel := Vec2{X: 4, Y: -8}
	p := small.Engine.SpawnParticle(SpawnOptions{Velocity: &vel, Kind: KindFragment})
	if p.Vel != (Vec2{X: 1, Y: -2}) {
		t.Fatalf("supplied velocity scaled to %+v, want (1,-2)", p.Vel)
	}
	q := base.Engine.SpawnParticle(SpawnOptions{Velocity: &vel, Kind: KindFragment})
	if q.Vel != vel {
		t.Fatalf("default tier changed velocity to %+v", q.Vel)
	}
}

func TestSpawnParticle_Overrides(t *testing.T) {
	ts := mustShow(t)
	pos := Vec2{X: 10, Y: 20}
	target := 42.0
	c := 3
	p := ts.Engine.SpawnParticle(SpawnOptions{Position: &pos, TargetY: &target, Color: &c})
	if p.Pos != pos || p.LastPos != pos {
		t.Fatalf("position %+v / %+v, want %+v", p.Pos, p.LastPos, pos)
	}
	if p.Motion.(*RiserMotion).TargetY != 42 {
		t.Fatal("target override ignored")
	}
	if p.Color != 3 || p.Alpha != 1 {
		t.Fatalf("color=%d alpha=%v", p.Color, p.Alpha)
	}
}

func TestSpawnParticle_SeededReproducible(t *testing.T) {
	a := mustShow(t, WithShowSeed(99))
	b := mustShow(t, WithShowSeed(99))
	pa, pb := a.Engine.Particles()[0], b.Engine.Particles()[0]
	if pa.Vel != pb.Vel || pa.Color != pb.Color || *pa.Motion.(*RiserMotion) != *pb.Motion.(*RiserMotion) {
		t.Fatal("same seed produced different seed particles")
	}
}

func TestFrame_RiserExplodesIntoHundredFragments(t *testing.T) {
	ts := mustShow(t, WithShowTier("large-fireworks-sku"), WithShowSeed(3))
	frames, ok := ts.RunUntilExplosion(2000)
	if !ok {
		t.Fatalf("no explosion after %d frames", frames)
	}
	riser := ts.Explosions[0]
	if riser.Alpha >= doneAlpha {
		t.Fatalf("riser exploded with alpha %v", riser.Alpha)
	}
	if got := ts.Engine.ParticleCount(); got != 100 {
		t.Fatalf("particles after explosion = %d, want 100", got)
	}
	for i, p := range ts.Engine.Particles() {
		if !p.UsesPhysics() {
			t.Fatalf("particle %d is not a fragment", i)
		}
		if p.Pos != riser.Pos {
			t.Fatalf("fragment %d at %+v, want riser position %+v", i, p.Pos, riser.Pos)
		}
		if p.Color != riser.Color {
			t.Fatalf("fragment %d color %d, want %d", i, p.Color, riser.Color)
		}
		speed := math.Hypot(p.Vel.X, p.Vel.Y)
		if speed < 4 || speed >= 6 {
			t.Fatalf("fragment %d speed %v outside [4,6)", i, speed)
		}
	}
	if ts.Log.CountCategory(LogExplosion, "circle") != 1 {
		t.Fatalf("explosion entries:\n%s", ts.Log.Format())
	}
	if entry, _ := ts.Log.LastOf(LogExplosion, "circle"); entry.NumVal != 100 {
		t.Fatalf("explosion logged %v fragments", entry.NumVal)
	}
}

func TestFrame_FragmentsDoNotReExplode(t *testing.T) {
	ts := mustShow(t, WithShowSeed(5), WithShowViewport(320, 400))
	ts.RunUntilExplosion(2000)
	ts.RunFrames(200)
	if n := len(ts.Explosions); n != 1 {
		t.Fatalf("explosions = %d, want 1", n)
	}
	if ts.CountKind(KindRiser) != 0 {
		t.Fatal("a riser appeared after the explosion")
	}
}

func TestCircleExplosion_AngleDescendingOrder(t *testing.T) {
	ts := mustShow(t, WithShowTier("large-fireworks-sku"))
	riser := ts.Engine.Particles()[0]
	before := ts.Engine.ParticleCount()
	CircleExplosion(ts.Engine, riser)
	frags := ts.Engine.Particles()[before:]
	if len(frags) != 100 {
		t.Fatalf("fragments = %d, want 100", len(frags))
	}
	angle := func(p *Particle) float64 {
		a := math.Atan2(p.Vel.Y, p.Vel.X)
		if a < 0 {
			a += 2 * math.Pi
		}
		return a
	}
	step := 2 * math.Pi / 100
	if math.Abs(angle(frags[0])-99*step) > 1e-9 {
		t.Fatalf("first fragment angle %v, want %v", angle(frags[0]), 99*step)
	}
	if math.Abs(angle(frags[99])) > 1e-9 {
		t.Fatalf("last fragment angle %v, want 0", angle(frags[99]))
	}
}

// countingBackend records draw calls on its surfaces.
type countingBackend struct {
	blits *int
}

type countingSurface struct {
	w, h  int
	blits *int
}

func (b countingBackend) NewSurface(w, h int) (canvas.Surface, error) {
	return &countingSurface{w: w, h: h, blits: b.blits}, nil
}

func (b countingBackend) NewSurfaceFromImage(img image.Image) (canvas.Surface, error) {
	return b.NewSurface(img.Bounds().Dx(), img.Bounds().Dy())
}

func (s *countingSurface) Size() (int, int) { return s.w, s.h }
func (s *countingSurface) Clear() {}
func (s *countingSurface) FillRect(image.Rectangle, color.Color) {}
func (s *countingSurface) FillPolygon([]canvas.Point, color.Color, canvas.DrawOptions) {}
func (s *countingSurface) Dispose() {}
func (s *countingSurface) DrawSurface(canvas.Surface, image.Rectangle, float64, float64, canvas.DrawOptions) {
	*s.blits++
}

func TestFrame_RemovedRiserRenderedOnce(t *testing.T) {
	blits := 0
	start := time.Unix(0, 0)
	e, err := Initialize(countingBackend{blits: &blits}, "large", WithSeed(11), WithStartTime(start))
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	now := start
	for i := 0; i < 2000 && e.Stats().Explosions == 0; i++ {
		blits = 0
		now = now.Add(time.Millisecond)
		e.Frame(now)
	}
	if e.Stats().Explosions != 1 {
		t.Fatal("riser never exploded")
	}
	if blits != 1 {
		t.Fatalf("sprites drawn on explosion frame = %d, want 1 (the removed riser only)", blits)
	}
}

func TestFrame_HaltsWhenEmpty(t *testing.T) {
	noop := func(*Engine, *Particle) {}
	ts := mustShow(t, WithEngineOption(WithExplosion(noop)))
	frames, ok := ts.RunUntilHalted(2000)
	if !ok {
		t.Fatalf("loop still running after %d frames", frames)
	}
	if ts.Engine.ParticleCount() != 0 {
		t.Fatal("halted with live particles")
	}
	if !ts.Log.HasEntry(LogLoop, "halt", "drained") {
		t.Fatalf("missing halt entry:\n%s", ts.Log.Format())
	}
	n := ts.Engine.FrameCount()
	ts.RunFrames(5)
	if ts.Engine.FrameCount() != n {
		t.Fatal("halted loop kept advancing")
	}
}

func TestFrame_KeepsRunningWhenHaltDisabled(t *testing.T) {
	noop := func(*Engine, *Particle) {}
	ts := mustShow(t, WithEngineOption(WithExplosion(noop)), WithEngineOption(WithHaltWhenEmpty(false)))
	ts.RunFrames(1000)
	if !ts.Engine.Running() {
		t.Fatal("loop halted although halting on empty is disabled")
	}
	if ts.Engine.FrameCount() != 1000 {
		t.Fatalf("frames = %d, want 1000", ts.Engine.FrameCount())
	}
}

func TestStop_HaltsLoop(t *testing.T) {
	ts := mustShow(t)
	ts.RunFrames(3)
	ts.Engine.Stop()
	ts.RunFrames(3)
	if ts.Engine.Running() || ts.Engine.FrameCount() != 3 {
		t.Fatalf("running=%v frames=%d after Stop", ts.Engine.Running(), ts.Engine.FrameCount())
	}
	if !ts.Log.HasEntry(LogLoop, "halt", "stopped") {
		t.Fatal("missing stop entry")
	}
}

func TestTeardown_TimeBoxedAndLoopContinues(t *testing.T) {
	ts := mustShow(t, WithShowDuration(10*FrameInterval))
	ts.RunFrames(9)
	if ts.Engine.TornDown() {
		t.Fatal("torn down early")
	}
	ts.RunFrames(2)
	if !ts.Engine.TornDown() || ts.Teardowns != 1 {
		t.Fatalf("tornDown=%v hooks=%d", ts.Engine.TornDown(), ts.Teardowns)
	}
	if ts.Engine.Main() != nil || ts.Engine.Palette() != nil {
		t.Fatal("surfaces still attached after teardown")
	}
	frames := ts.Engine.FrameCount()
	ts.RunFrames(5)
	if !ts.Engine.Running() || ts.Engine.FrameCount() != frames+5 {
		t.Fatal("teardown stopped the loop")
	}
	if ts.Teardowns != 1 {
		t.Fatalf("teardown hooks ran %d times", ts.Teardowns)
	}
}

func TestTeardown_DefaultDuration(t *testing.T) {
	ts := mustShow(t, WithShowViewport(160, 300))
	limit := int(DefaultShowDuration/FrameInterval) + 2
	if _, ok := ts.RunUntil(func(t *TestShow) bool { return t.Engine.TornDown() }, limit); !ok {
		t.Fatal("no teardown within 7s of frames")
	}
	if el := ts.Engine.Elapsed(ts.Now); el < DefaultShowDuration {
		t.Fatalf("torn down after %v", el)
	}
}

func TestWithDuration_SetsTeardownDelay(t *testing.T) {
	start := time.Unix(100, 0)
	e, err := Initialize(raster.NewBackend(), "large-fireworks-sku",
		WithViewport(160, 300),
		WithSeed(4),
		WithStartTime(start),
		WithDuration(2*time.Second),
	)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	e.Frame(start.Add(2*time.Second - time.Millisecond))
	if e.TornDown() {
		t.Fatal("torn down before the configured duration")
	}
	e.Frame(start.Add(2 * time.Second))
	if !e.TornDown() {
		t.Fatal("not torn down at the configured duration")
	}
	if e.State() != LoopRunning {
		t.Fatalf("state after teardown = %s, want %s", e.State(), LoopRunning)
	}
}

func TestFrame_RendersOntoMainSurface(t *testing.T) {
	ts := mustShow(t, WithShowViewport(200, 300), WithShowSeed(2))
	lit := false
	for i := 0; i < 30 && !lit; i++ {
		ts.Frame()
		img := ts.Surface().Image()
		for j := 3; j < len(img.Pix); j += 4 {
			if img.Pix[j] != 0 {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Fatal("nothing was drawn in 30 frames")
	}
}

func TestFrame_GlowShowRuns(t *testing.T) {
	ts := mustShow(t, WithShowGlow(true), WithShowViewport(200, 300))
	if _, ok := ts.RunUntilExplosion(2000); !ok {
		t.Fatal("glow show never exploded")
	}
}

func TestStats_HistoryAndPeak(t *testing.T) {
	ts := mustShow(t, WithShowViewport(200, 300))
	ts.RunUntilExplosion(2000)
	s := ts.Engine.Stats()
	if s.PeakParticles != 100 {
		t.Fatalf("peak = %d, want 100", s.PeakParticles)
	}
	if len(s.History) != s.Frames+1 {
		t.Fatalf("history has %d samples for %d frames", len(s.History), s.Frames)
	}
	if s.History[0] != 1 {
		t.Fatalf("history[0] = %d, want 1", s.History[0])
	}
	if s.ExplosionFrame != s.Frames {
		t.Fatalf("explosion frame %d, want %d", s.ExplosionFrame, s.Frames)
	}
	mean, peak := s.Window(1)
	if mean != 100 || peak != 100 {
		t.Fatalf("Window(1) = %v,%d", mean, peak)
	}
	if !strings.Contains(s.Format(), "explosions=1") {
		t.Fatalf("Format() = %q", s.Format())
	}
}

func TestEngine_ConcurrentShowsAreIndependent(t *testing.T) {
	const shows = 4
	results := make([]ShowStats, shows)
	done := make(chan int, shows)
	for i := 0; i < shows; i++ {
		go func(i int) {
			defer func() { done <- i }()
			ts, err := NewTestShow(WithShowSeed(99), WithShowViewport(200, 300))
			if err != nil {
				return
			}
			ts.RunFrames(200)
			results[i] = ts.Engine.Stats()
		}(i)
	}
	for i := 0; i < shows; i++ {
		<-done
	}
	for i := 1; i < shows; i++ {
		if results[i].Frames != results[0].Frames || results[i].Removed != results[0].Removed ||
			results[i].ExplosionFrame != results[0].ExplosionFrame {
			t.Fatalf("show %d diverged: %+v vs %+v", i, results[i].Format(), results[0].Format())
		}
	}
	if results[0].Frames == 0 {
		t.Fatal("shows did not run")
	}
}
