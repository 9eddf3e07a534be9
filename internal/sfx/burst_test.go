package sfx

import (
	"testing"

	"github.com/gopxl/beep"
)

func TestBurstGenerator_SamplesInRange(t *testing.T) {
	g := NewBurstGenerator(beep.SampleRate(44100), 1, 1)
	samples := make([][2]float64, 4096)
	n, ok := g.Stream(samples)
	if !ok || n != len(samples) {
		t.Fatalf("Stream = %d, %v", n, ok)
	}
	for i := 0; i < n; i++ {
		if samples[i][0] < -1 || samples[i][0] > 1 {
			t.Fatalf("sample %d out of range: %f", i, samples[i][0])
		}
		if samples[i][0] != samples[i][1] {
			t.Fatalf("sample %d not mono-duplicated", i)
		}
	}
	if g.Err() != nil {
		t.Fatalf("Err() = %v", g.Err())
	}
}

func TestBurstGenerator_GainClamped(t *testing.T) {
	g := NewBurstGenerator(beep.SampleRate(44100), 1, 5)
	if g.gain != 1 {
		t.Fatalf("gain = %v, want 1", g.gain)
	}
	silent := NewBurstGenerator(beep.SampleRate(44100), 1, 0)
	samples := make([][2]float64, 256)
	silent.Stream(samples)
	for i, s := range samples {
		if s[0] != 0 {
			t.Fatalf("sample %d = %v with zero gain", i, s[0])
		}
	}
}

func TestBurstGenerator_SeedSelectsCrackle(t *testing.T) {
	sr := beep.SampleRate(44100)
	stream := func(seed int64) [][2]float64 {
		samples := make([][2]float64, 2048)
		NewBurstGenerator(sr, seed, 1).Stream(samples)
		return samples
	}
	a, b, c := stream(11), stream(11), stream(12)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs for the same seed: %v vs %v", i, a[i], b[i])
		}
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical crackle")
	}
}

func TestBurst_DecaysTowardSilence(t *testing.T) {
	sr := beep.SampleRate(8000)
	s := NewBurstGenerator(sr, 3, 1)
	head := make([][2]float64, sr.N(BurstDuration/10))
	s.Stream(head)
	// Skip to the tail.
	skip := make([][2]float64, sr.N(BurstDuration)-2*len(head))
	s.Stream(skip)
	tail := make([][2]float64, len(head))
	s.Stream(tail)
	if energy(tail) >= energy(head) {
		t.Fatalf("tail energy %v >= head energy %v", energy(tail), energy(head))
	}
}

func TestPCM16_Length(t *testing.T) {
	sr := beep.SampleRate(8000)
	pcm := PCM16(Burst(sr, 1, 0.5))
	want := sr.N(BurstDuration) * 4
	if len(pcm) != want {
		t.Fatalf("pcm bytes = %d, want %d", len(pcm), want)
	}
}

func TestToInt16_Clamps(t *testing.T) {
	if toInt16(2) != 32767 || toInt16(-2) != -32767 || toInt16(0) != 0 {
		t.Fatal("toInt16 did not clamp")
	}
}

func energy(s [][2]float64) float64 {
	e := 0.0
	for _, v := range s {
		e += v[0] * v[0]
	}
	return e
}
