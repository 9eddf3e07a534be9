package overlay

import (
	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/Garsondee/Bits-Fireworks/internal/sfx"
)

const burstVariants = 4

// AudioSound plays pre-rendered bursts through Ebitengine's audio context.
type AudioSound struct {
	ctx    *audio.Context
	bursts [][]byte
	next   int
}

// NewAudioSound renders the burst variants once. Only one audio context may
// exist per process.
func NewAudioSound(volume float64) *AudioSound {
	s := &AudioSound{ctx: audio.NewContext(int(sfx.SampleRate))}
	for i := 0; i < burstVariants; i++ {
		s.bursts = append(s.bursts, sfx.PCM16(sfx.Burst(sfx.SampleRate, int64(i+1), volume)))
	}
	return s
}

// PlayBurst implements Sound.
func (s *AudioSound) PlayBurst() {
	pcm := s.bursts[s.next%len(s.bursts)]
	s.next++
	p := s.ctx.NewPlayerFromBytes(pcm)
	p.Play()
}
