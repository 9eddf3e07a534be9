package fireworks

import (
	"fmt"
	"strings"
)

// ShowStats are the counters of one show, sampled every frame.
type ShowStats struct {
	Frames         int
	Spawned        int
	Removed        int
	Explosions     int
	PeakParticles  int
	ExplosionFrame int   // first explosion, 0 if none yet
	HaltFrame      int   // frame the loop halted, 0 while running
	History        []int // particle count after each frame, index 0 = after Initialize
}

func (s *ShowStats) record(frame, particles int) {
	s.Frames = frame
	s.History = append(s.History, particles)
	if particles > s.PeakParticles {
		s.PeakParticles = particles
	}
}

// Window returns the mean and maximum particle count over the last n samples.
func (s ShowStats) Window(n int) (mean float64, peak int) {
	if n <= 0 || len(s.History) == 0 {
		return 0, 0
	}
	start := max(len(s.History)-n, 0)
	sum := 0
	for _, v := range s.History[start:] {
		sum += v
		peak = max(peak, v)
	}
	return float64(sum) / float64(len(s.History)-start), peak
}

// Format renders a short multi-line summary.
func (s ShowStats) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "frames=%d spawned=%d removed=%d explosions=%d peak=%d\n",
		s.Frames, s.Spawned, s.Removed, s.Explosions, s.PeakParticles)
	fmt.Fprintf(&sb, "first_explosion=%s halt=%s\n", frameString(s.ExplosionFrame), frameString(s.HaltFrame))
	return sb.String()
}

func frameString(f int) string {
	if f == 0 {
		return "n/a"
	}
	return fmt.Sprintf("F%d", f)
}
