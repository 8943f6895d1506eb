package glissando

import (
	"math"
	"testing"
)

func newReferenceEnvelope(t *testing.T) *Envelope {
	t.Helper()
	c := NewConfig()
	e, err := NewEnvelope(c.MinFreq, c.Amps)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestEnvelopeBoundary(t *testing.T) {
	e := newReferenceEnvelope(t)
	if e.NumOctaves() != 10 {
		t.Fatalf("NumOctaves() = %d, want 10", e.NumOctaves())
	}
	if e.MaxFreq() != 20480 {
		t.Fatalf("MaxFreq() = %v, want 20480", e.MaxFreq())
	}
	for _, freq := range []float64{-1, 0, 1, 10, 19.99, 20, 20480, 20480.01, 30000, math.Inf(1), math.NaN()} {
		if amp := e.AmplitudeForFrequency(freq); amp != 0 {
			t.Errorf("AmplitudeForFrequency(%v) = %v, want 0", freq, amp)
		}
	}
}

func TestEnvelopeContinuity(t *testing.T) {
	e := newReferenceEnvelope(t)
	const eps = 1e-9
	low := e.AmplitudeForFrequency(20 * math.Pow(2, eps))
	high := e.AmplitudeForFrequency(20480 * math.Pow(2, -eps))
	if low > 1e-6 || high > 1e-6 {
		t.Errorf("envelope jumps at the boundary: low=%v high=%v", low, high)
	}
	// no jump at any interior octave point either
	for octave := 1; octave < e.NumOctaves(); octave++ {
		freq := 20 * math.Pow(2, float64(octave))
		below := e.AmplitudeForFrequency(freq * math.Pow(2, -eps))
		above := e.AmplitudeForFrequency(freq * math.Pow(2, eps))
		if math.Abs(below-above) > 1e-6 {
			t.Errorf("envelope jumps at octave %d: %v vs %v", octave, below, above)
		}
	}
}

func TestEnvelopeInterpolation(t *testing.T) {
	e := newReferenceEnvelope(t)
	if amp := e.AmplitudeForFrequency(40); math.Abs(amp-0.707) > 1e-9 {
		t.Errorf("AmplitudeForFrequency(40) = %v, want 0.707", amp)
	}
	if amp := e.AmplitudeForFrequency(20 * math.Sqrt2); math.Abs(amp-0.3535) > 1e-9 {
		t.Errorf("AmplitudeForFrequency(28.28) = %v, want 0.3535", amp)
	}
	if amp := e.AmplitudeForFrequency(1000); math.Abs(amp-1) > 1e-12 {
		t.Errorf("AmplitudeForFrequency(1000) = %v, want 1", amp)
	}
}

func TestNewEnvelopeRejectsBadTables(t *testing.T) {
	cases := []struct {
		name    string
		minFreq float64
		amps    []float64
	}{
		{"too short", 20, []float64{0}},
		{"nonzero start", 20, []float64{0.5, 1, 0}},
		{"nonzero end", 20, []float64{0, 1, 0.5}},
		{"out of range", 20, []float64{0, 1.5, 0}},
		{"nan", 20, []float64{0, math.NaN(), 0}},
		{"zero min freq", 0, []float64{0, 1, 0}},
		{"negative min freq", -20, []float64{0, 1, 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NewEnvelope(c.minFreq, c.amps); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEnvelopeIsImmutable(t *testing.T) {
	amps := []float64{0, 1, 0}
	e, err := NewEnvelope(20, amps)
	expectNoError(t, err)
	amps[1] = 0.5
	if amp := e.AmplitudeForFrequency(40); amp != 1 {
		t.Errorf("envelope changed with its source slice: %v", amp)
	}
}
