package overlay

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	tickerMaxEntries = 8
	tickerLineHeight = 14
	tickerWidth      = 260
)

// TickerEntry is one line of the on-screen event ticker.
type TickerEntry struct {
	Frame   int
	Message string
}

// Ticker is a fixed-size ring buffer of recent show events.
type Ticker struct {
	entries []TickerEntry
	head    int
	count   int
}

// NewTicker creates an empty ticker.
func NewTicker() *Ticker {
	return &Ticker{entries: make([]TickerEntry, tickerMaxEntries)}
}

// Add appends an entry, overwriting the oldest when full.
func (t *Ticker) Add(frame int, msg string) {
	t.entries[t.head] = TickerEntry{Frame: frame, Message: msg}
	t.head = (t.head + 1) % tickerMaxEntries
	if t.count < tickerMaxEntries {
		t.count++
	}
}

// Recent returns entries oldest first.
func (t *Ticker) Recent() []TickerEntry {
	out := make([]TickerEntry, t.count)
	for i := 0; i < t.count; i++ {
		out[i] = t.entries[(t.head-t.count+i+tickerMaxEntries)%tickerMaxEntries]
	}
	return out
}

// Draw renders the ticker with its bottom-left corner at (x, bottom).
func (t *Ticker) Draw(screen *ebiten.Image, x, bottom int) {
	if t.count == 0 {
		return
	}
	h := t.count*tickerLineHeight + 6
	top := bottom - h
	vector.FillRect(screen, float32(x), float32(top), tickerWidth, float32(h), color.RGBA{R: 10, G: 10, B: 18, A: 180}, false)
	y := top + 3
	for _, e := range t.Recent() {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%4d %s", e.Frame, e.Message), x+6, y)
		y += tickerLineHeight
	}
}
