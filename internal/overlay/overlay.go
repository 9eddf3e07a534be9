// Package overlay is the on-stream host: a transparent Ebitengine window with
// a trigger button that launches a fireworks show, a broadcaster config panel
// and an event ticker.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Bits-Fireworks/internal/canvas"
	"github.com/Garsondee/Bits-Fireworks/internal/config"
	"github.com/Garsondee/Bits-Fireworks/internal/fireworks"
	"github.com/Garsondee/Bits-Fireworks/internal/settings"
)

const (
	buttonW      = 160
	buttonH      = 36
	buttonMargin = 16
	panelW       = 300
	panelLineH   = 16
)

// ErrNoSKU is returned by Launch when no product has been selected.
var ErrNoSKU = errors.New("no sku")

// Sound plays the explosion effect.
type Sound interface {
	PlayBurst()
}

// Overlay owns the current show and the host UI state. Input handling is
// split from Ebitengine polling so it can be driven directly.
type Overlay struct {
	cfg     *config.Config
	store   *settings.Store
	backend canvas.Backend
	sound   Sound
	now     func() time.Time

	engine        *fireworks.Engine
	buttonVisible bool
	panelOpen     bool
	products      []config.Product
	shows         int
	ticker        *Ticker
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithSound plays s on every explosion.
func WithSound(s Sound) Option {
	return func(o *Overlay) { o.sound = s }
}

// WithBackend replaces the Ebitengine surface backend.
func WithBackend(b canvas.Backend) Option {
	return func(o *Overlay) { o.backend = b }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Overlay) { o.now = now }
}

// New creates an overlay with the button shown and no active show.
func New(cfg *config.Config, store *settings.Store, opts ...Option) *Overlay {
	o := &Overlay{
		cfg:           cfg,
		store:         store,
		backend:       Backend{},
		now:           time.Now,
		buttonVisible: true,
		products:      cfg.SortedProducts(),
		ticker:        NewTicker(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Launch starts a show for the saved SKU. It is a no-op while the trigger
// button is hidden.
func (o *Overlay) Launch() error {
	if !o.buttonVisible {
		return nil
	}
	sku := o.store.SKU()
	if sku == "" {
		log.Println("[Overlay] no sku")
		return ErrNoSKU
	}

	show := o.shows + 1
	eng, err := fireworks.Initialize(o.backend, sku,
		fireworks.WithViewport(o.cfg.Window.Width, o.cfg.Window.Height),
		fireworks.WithStartTime(o.now()),
		fireworks.WithDuration(o.cfg.Show.Duration()),
		fireworks.WithHaltWhenEmpty(o.cfg.Show.HaltWhenEmpty),
		fireworks.WithKeepTrails(o.cfg.Show.KeepTrails),
		fireworks.WithGlow(o.cfg.Show.Glow),
		fireworks.WithShowLog(fireworks.NewShowLog(o.cfg.Show.Verbose)),
		fireworks.WithOnExplode(o.onExplode),
		fireworks.WithOnTeardown(func() { o.onTeardown(show) }),
	)
	if err != nil {
		return fmt.Errorf("launch %q: %w", sku, err)
	}
	o.shows = show
	o.engine = eng
	o.buttonVisible = false
	o.ticker.Add(0, fmt.Sprintf("launch %s", sku))
	log.Printf("[Overlay] show %d launched (sku=%s scale=%.2f)", show, sku, eng.Scale())
	return nil
}

func (o *Overlay) onExplode(riser fireworks.Particle) {
	if o.engine != nil {
		o.ticker.Add(o.engine.FrameCount(), fmt.Sprintf("burst color %d", riser.Color))
	}
	if o.sound != nil {
		o.sound.PlayBurst()
	}
}

func (o *Overlay) onTeardown(show int) {
	if show != o.shows {
		return
	}
	o.buttonVisible = true
	frames := 0
	if o.engine != nil {
		frames = o.engine.FrameCount()
	}
	o.ticker.Add(frames, "teardown")
	log.Printf("[Overlay] show %d torn down after %d frames", show, frames)
}

// Tick advances the active show to now and drops it once it has been torn
// down and its loop has stopped.
func (o *Overlay) Tick(now time.Time) {
	if o.engine == nil {
		return
	}
	o.engine.Frame(now)
	if o.engine.TornDown() && !o.engine.Running() {
		o.engine = nil
	}
}

// HandleKey applies one key press.
func (o *Overlay) HandleKey(k ebiten.Key) {
	switch {
	case k == ebiten.KeyC:
		o.panelOpen = !o.panelOpen
	case k == ebiten.KeySpace || k == ebiten.KeyEnter:
		_ = o.Launch()
	case o.panelOpen && k == ebiten.KeyS:
		if err := o.store.Save(); err != nil {
			log.Printf("[Overlay] save failed: %v", err)
			return
		}
		log.Printf("[Overlay] saved sku %q", o.store.SKU())
	case o.panelOpen:
		if i := slices.Index(digitKeys, k); i >= 0 {
			o.Select(i)
		}
	}
}

// Select picks the i-th product of the sorted catalog.
func (o *Overlay) Select(i int) {
	if i < 0 || i >= len(o.products) {
		return
	}
	o.store.SetSKU(o.products[i].SKU)
}

// Click handles a primary click at (x, y).
func (o *Overlay) Click(x, y int) {
	if o.buttonVisible && image.Pt(x, y).In(o.buttonRect()) {
		_ = o.Launch()
	}
}

func (o *Overlay) buttonRect() image.Rectangle {
	x := o.cfg.Window.Width - buttonW - buttonMargin
	y := o.cfg.Window.Height - buttonH - buttonMargin
	return image.Rect(x, y, x+buttonW, y+buttonH)
}

// ButtonVisible reports whether the trigger button is shown.
func (o *Overlay) ButtonVisible() bool { return o.buttonVisible }

// PanelOpen reports whether the config panel is shown.
func (o *Overlay) PanelOpen() bool { return o.panelOpen }

// Engine returns the active show, or nil.
func (o *Overlay) Engine() *fireworks.Engine { return o.engine }

// Ticker returns the event ticker.
func (o *Overlay) Ticker() *Ticker { return o.ticker }

var (
	digitKeys = []ebiten.Key{
		ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
		ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
	}
	watchedKeys = append([]ebiten.Key{ebiten.KeyC, ebiten.KeyS, ebiten.KeySpace, ebiten.KeyEnter}, digitKeys...)
)

// Update implements ebiten.Game.
func (o *Overlay) Update() error {
	for _, k := range watchedKeys {
		if inpututil.IsKeyJustPressed(k) {
			o.HandleKey(k)
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		o.Click(ebiten.CursorPosition())
	}
	o.Tick(o.now())
	return nil
}

// Draw implements ebiten.Game.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if o.engine != nil {
		if main, ok := o.engine.Main().(*Surface); ok && main.Image() != nil {
			screen.DrawImage(main.Image(), nil)
		}
	}
	if o.buttonVisible {
		o.drawButton(screen)
	}
	if o.panelOpen {
		o.drawPanel(screen)
	}
	o.ticker.Draw(screen, buttonMargin, o.cfg.Window.Height-buttonMargin)
}

// Layout implements ebiten.Game.
func (o *Overlay) Layout(_, _ int) (int, int) {
	return o.cfg.Window.Width, o.cfg.Window.Height
}

func (o *Overlay) drawButton(screen *ebiten.Image) {
	r := o.buttonRect()
	vector.FillRect(screen, float32(r.Min.X), float32(r.Min.Y), buttonW, buttonH, color.RGBA{R: 145, G: 70, B: 255, A: 230}, true)
	vector.StrokeRect(screen, float32(r.Min.X), float32(r.Min.Y), buttonW, buttonH, 1.5, color.RGBA{R: 220, G: 200, B: 255, A: 255}, true)
	label := "Fireworks!"
	if p, ok := o.cfg.Product(o.store.SKU()); ok {
		label = fmt.Sprintf("%s (%d)", p.DisplayName, p.Cost)
	}
	ebitenutil.DebugPrintAt(screen, label, r.Min.X+10, r.Min.Y+10)
}

func (o *Overlay) drawPanel(screen *ebiten.Image) {
	h := (len(o.products)+3)*panelLineH + 8
	vector.FillRect(screen, buttonMargin, buttonMargin, panelW, float32(h), color.RGBA{R: 12, G: 12, B: 20, A: 235}, false)
	ebitenutil.DebugPrintAt(screen, "CONFIG  [1-9] select  [S] save", buttonMargin+8, buttonMargin+4)
	y := buttonMargin + 4 + 2*panelLineH
	selected := o.store.SKU()
	for i, p := range o.products {
		mark := " "
		if p.SKU == selected {
			mark = ">"
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s %d. %s  %d bits", mark, i+1, p.DisplayName, p.Cost), buttonMargin+8, y)
		y += panelLineH
	}
	if selected == "" {
		ebitenutil.DebugPrintAt(screen, "no product selected", buttonMargin+8, y)
	}
}
