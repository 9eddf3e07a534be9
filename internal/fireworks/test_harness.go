package fireworks

import (
	"fmt"
	"time"

	"github.com/Garsondee/Bits-Fireworks/internal/raster"
)

// FrameInterval is the nominal display refresh period of a headless show.
const FrameInterval = time.Second / 60

// TestShow is a headless show harness on the raster backend with a virtual
// clock. Tests and the headless report drive it frame by frame.
type TestShow struct {
	Engine     *Engine
	Log        *ShowLog
	Now        time.Time
	Explosions []Particle // riser state at each explosion
	Teardowns  int

	tier     string
	seed     int64
	width    int
	height   int
	verbose  bool
	glow     bool
	duration time.Duration
	extra    []Option
}

// ShowOption configures a TestShow.
type ShowOption func(*TestShow)

// WithShowTier sets the product identifier the show starts with.
func WithShowTier(tier string) ShowOption {
	return func(ts *TestShow) { ts.tier = tier }
}

// WithShowSeed sets the RNG seed for deterministic runs.
func WithShowSeed(seed int64) ShowOption {
	return func(ts *TestShow) { ts.seed = seed }
}

// WithShowViewport sets the viewport size.
func WithShowViewport(w, h int) ShowOption {
	return func(ts *TestShow) {
		ts.width = w
		ts.height = h
	}
}

// WithShowVerbose enables per-frame log entries.
func WithShowVerbose(v bool) ShowOption {
	return func(ts *TestShow) { ts.verbose = v }
}

// WithShowGlow enables the glow decorator.
func WithShowGlow(on bool) ShowOption {
	return func(ts *TestShow) { ts.glow = on }
}

// WithShowDuration overrides the teardown delay.
func WithShowDuration(d time.Duration) ShowOption {
	return func(ts *TestShow) { ts.duration = d }
}

// WithEngineOption passes an engine option through unchanged.
func WithEngineOption(o Option) ShowOption {
	return func(ts *TestShow) { ts.extra = append(ts.extra, o) }
}

// NewTestShow starts a show from the given options.
func NewTestShow(opts ...ShowOption) (*TestShow, error) {
	ts := &TestShow{
		tier:     "large-fireworks-sku",
		seed:     1,
		width:    defaultViewportW,
		height:   defaultViewportH,
		duration: DefaultShowDuration,
		Now:      time.Unix(0, 0),
	}
	for _, o := range opts {
		o(ts)
	}
	ts.Log = NewShowLog(ts.verbose)

	engineOpts := []Option{
		WithSeed(ts.seed),
		WithViewport(ts.width, ts.height),
		WithStartTime(ts.Now),
		WithDuration(ts.duration),
		WithShowLog(ts.Log),
		WithGlow(ts.glow),
		WithOnTeardown(func() { ts.Teardowns++ }),
		WithOnExplode(func(p Particle) { ts.Explosions = append(ts.Explosions, p) }),
	}
	engineOpts = append(engineOpts, ts.extra...)

	e, err := Initialize(raster.NewBackend(), ts.tier, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("test show: %w", err)
	}
	ts.Engine = e
	return ts, nil
}

// Frame advances the virtual clock by one refresh and runs one engine frame.
func (ts *TestShow) Frame() {
	ts.Now = ts.Now.Add(FrameInterval)
	ts.Engine.Frame(ts.Now)
}

// RunFrames runs n frames.
func (ts *TestShow) RunFrames(n int) {
	for i := 0; i < n; i++ {
		ts.Frame()
	}
}

// RunUntil runs frames until done returns true or limit frames have run.
// It returns the number of frames run and whether done was satisfied.
func (ts *TestShow) RunUntil(done func(*TestShow) bool, limit int) (int, bool) {
	for i := 0; i < limit; i++ {
		if done(ts) {
			return i, true
		}
		ts.Frame()
	}
	return limit, done(ts)
}

// RunUntilExplosion runs until the first riser explodes.
func (ts *TestShow) RunUntilExplosion(limit int) (int, bool) {
	return ts.RunUntil(func(t *TestShow) bool { return len(t.Explosions) > 0 }, limit)
}

// RunUntilHalted runs until the loop halts.
func (ts *TestShow) RunUntilHalted(limit int) (int, bool) {
	return ts.RunUntil(func(t *TestShow) bool { return !t.Engine.Running() }, limit)
}

// Surface returns the main raster surface, or nil after teardown.
func (ts *TestShow) Surface() *raster.Surface {
	s, _ := ts.Engine.Main().(*raster.Surface)
	return s
}

// CountKind returns how many live particles are of kind k.
func (ts *TestShow) CountKind(k Kind) int {
	n := 0
	for _, p := range ts.Engine.Particles() {
		if p.Kind() == k {
			n++
		}
	}
	return n
}
