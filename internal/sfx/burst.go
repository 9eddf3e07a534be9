// Package sfx synthesises the firework burst sound.
package sfx

import (
	"encoding/binary"
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
)

// BurstDuration is the length of one burst.
const BurstDuration = 900 * time.Millisecond

// BurstGenerator is a low thump followed by decaying crackle.
type BurstGenerator struct {
	sr   beep.SampleRate
	pos  int
	rng  *rand.Rand
	gain float64
}

// NewBurstGenerator creates a burst. seed varies the crackle pattern; gain is
// clamped to [0, 1].
func NewBurstGenerator(sr beep.SampleRate, seed int64, gain float64) *BurstGenerator {
	return &BurstGenerator{sr: sr, rng: rand.New(rand.NewSource(seed)), gain: math.Max(0, math.Min(1, gain))}
}

// Stream implements beep.Streamer.
func (g *BurstGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)

		thump := math.Exp(-t*18) * math.Sin(2*math.Pi*(60+40*math.Exp(-t*10))*t)

		noise := g.rng.Float64()*2 - 1
		// Sparse spikes read as crackle rather than hiss.
		crackle := 0.0
		if math.Abs(noise) > 0.93 {
			crackle = noise * math.Exp(-t*4)
		}

		sample := g.gain * (0.7*thump + 0.5*crackle)
		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (g *BurstGenerator) Err() error {
	return nil
}

// Burst returns a finite burst streamer of BurstDuration.
func Burst(sr beep.SampleRate, seed int64, gain float64) beep.Streamer {
	return beep.Take(sr.N(BurstDuration), NewBurstGenerator(sr, seed, gain))
}

// PCM16 drains s into signed 16-bit little-endian interleaved stereo, the
// format Ebitengine's audio players consume.
func PCM16(s beep.Streamer) []byte {
	var out []byte
	buf := make([][2]float64, 512)
	var frame [4]byte
	for {
		n, ok := s.Stream(buf)
		for _, smp := range buf[:n] {
			binary.LittleEndian.PutUint16(frame[0:], uint16(toInt16(smp[0])))
			binary.LittleEndian.PutUint16(frame[2:], uint16(toInt16(smp[1])))
			out = append(out, frame[:]...)
		}
		if !ok || n == 0 {
			return out
		}
	}
}

func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * math.MaxInt16))
}
