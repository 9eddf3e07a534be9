// Package terminal plays fireworks shows in a terminal: the raster backend
// renders at a supersampled size and each cell shows two vertically stacked
// pixels with the upper half block.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/Garsondee/Bits-Fireworks/internal/config"
	"github.com/Garsondee/Bits-Fireworks/internal/fireworks"
	"github.com/Garsondee/Bits-Fireworks/internal/raster"
	"github.com/Garsondee/Bits-Fireworks/internal/settings"
)

const halfBlock = '▀'

// ErrNoSKU is returned by Launch when no product has been selected.
var ErrNoSKU = errors.New("no sku")

// Sound plays the explosion effect.
type Sound interface {
	PlayBurst()
}

// Runner drives shows on a tcell screen.
type Runner struct {
	screen tcell.Screen
	cfg    *config.Config
	store  *settings.Store
	sound  Sound
	now    func() time.Time

	engine *fireworks.Engine
	status string
	shows  int
}

// Option configures a Runner.
type Option func(*Runner)

// WithSound plays s on every explosion.
func WithSound(s Sound) Option {
	return func(r *Runner) { r.sound = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a runner on an initialised screen.
func New(screen tcell.Screen, cfg *config.Config, store *settings.Store, opts ...Option) *Runner {
	r := &Runner{
		screen: screen,
		cfg:    cfg,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.setReady()
	return r
}

func (r *Runner) setReady() {
	sku := r.store.SKU()
	if sku == "" {
		sku = "none"
	}
	r.status = fmt.Sprintf("sku: %s  [space] launch  [1-9] product  [q] quit", sku)
}

// viewport is the raster size for the current terminal size. It keeps the
// terminal's aspect ratio and is at least the window height tall so default
// riser targets land on screen.
func (r *Runner) viewport() (int, int) {
	cols, rows := r.screen.Size()
	cols, rows = max(cols, 1), max(rows-1, 1)
	ss := max(r.cfg.Terminal.Supersample, 1)
	h := max(rows*2*ss, r.cfg.Window.Height)
	w := max(h*cols/(rows*2), 1)
	return w, h
}

// Launch starts a show for the selected SKU, replacing any show still
// animating after its teardown.
func (r *Runner) Launch() error {
	if r.engine != nil && !r.engine.TornDown() {
		return nil
	}
	sku := r.store.SKU()
	if sku == "" {
		log.Println("[Terminal] no sku")
		r.status = "no product selected: press 1-9"
		return ErrNoSKU
	}
	w, h := r.viewport()
	show := r.shows + 1
	eng, err := fireworks.Initialize(raster.NewBackend(), sku,
		fireworks.WithViewport(w, h),
		fireworks.WithStartTime(r.now()),
		fireworks.WithDuration(r.cfg.Show.Duration()),
		fireworks.WithHaltWhenEmpty(r.cfg.Show.HaltWhenEmpty),
		fireworks.WithKeepTrails(r.cfg.Show.KeepTrails),
		fireworks.WithGlow(r.cfg.Show.Glow),
		fireworks.WithOnExplode(func(fireworks.Particle) {
			if r.sound != nil {
				r.sound.PlayBurst()
			}
		}),
		fireworks.WithOnTeardown(func() {
			if show == r.shows {
				r.setReady()
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("launch %q: %w", sku, err)
	}
	r.shows = show
	r.engine = eng
	r.status = fmt.Sprintf("show %d: %s", show, sku)
	return nil
}

// HandleEvent applies one terminal event and reports whether to keep running.
func (r *Runner) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			_ = r.Launch()
		case tcell.KeyRune:
			switch ch := ev.Rune(); {
			case ch == 'q':
				return false
			case ch == ' ':
				_ = r.Launch()
			case ch >= '1' && ch <= '9':
				r.selectProduct(int(ch - '1'))
			}
		}
	case *tcell.EventResize:
		r.screen.Sync()
	case nil:
		return false
	}
	return true
}

func (r *Runner) selectProduct(i int) {
	if i >= len(r.cfg.Products) {
		return
	}
	r.store.SetSKU(r.cfg.Products[i].SKU)
	if err := r.store.Save(); err != nil {
		log.Printf("[Terminal] save failed: %v", err)
	}
	if r.engine == nil || r.engine.TornDown() {
		r.setReady()
	}
}

// Tick advances the active show to now.
func (r *Runner) Tick(now time.Time) {
	if r.engine == nil {
		return
	}
	r.engine.Frame(now)
	if r.engine.TornDown() && !r.engine.Running() {
		r.engine = nil
	}
}

// Draw renders the current frame and the status line.
func (r *Runner) Draw() {
	r.screen.Clear()
	cols, rows := r.screen.Size()
	if r.engine != nil {
		if main, ok := r.engine.Main().(*raster.Surface); ok && !main.Disposed() {
			r.drawFrame(main, cols, rows-1)
		}
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	for i, ch := range []rune(r.status) {
		if i >= cols {
			break
		}
		r.screen.SetContent(i, rows-1, ch, nil, style)
	}
	r.screen.Show()
}

func (r *Runner) drawFrame(main *raster.Surface, cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	img := main.Scaled(cols, rows*2)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := img.RGBAAt(x, 2*y)
			bottom := img.RGBAAt(x, 2*y+1)
			style := tcell.StyleDefault.Foreground(rgb(top)).Background(rgb(bottom))
			r.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}
}

// rgb converts a premultiplied pixel to the colour it has over black.
func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Status returns the status line text.
func (r *Runner) Status() string { return r.status }

// Engine returns the active show, or nil.
func (r *Runner) Engine() *fireworks.Engine { return r.engine }

// Run polls events and renders at the configured frame rate until the user
// quits or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	fps := r.cfg.Terminal.FPS
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := r.screen.PollEvent()
			select {
			case events <- ev:
			case <-done:
				return
			}
			if ev == nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !r.HandleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			r.Tick(r.now())
			r.Draw()
		}
	}
}
