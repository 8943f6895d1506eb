package glissando

import (
	"fmt"
	"math"
)

// ----- Perceptual Envelope ----- //

/*
  1 +        ,---------------,
    |      _/                 \_
    |    _/                     \_
    |  _/                         \_
  0 +-'-----+-----+- ... -+-----+--`-
    20Hz   40Hz  80Hz        10kHz 20kHz
*/

// Envelope maps an absolute frequency to a perceptual amplitude in [0,1].
// It is immutable after construction.
type Envelope struct {
	minFreq float64
	amps    []float64
}

// NewEnvelope builds an envelope of len(amps)-1 octaves starting at minFreq.
// The first and last amplitudes must be 0 so that leaving the mapped range
// never introduces a jump.
func NewEnvelope(minFreq float64, amps []float64) (*Envelope, error) {
	if !(minFreq > 0) || math.IsInf(minFreq, 0) {
		return nil, fmt.Errorf("invalid min frequency %v", minFreq)
	}
	if len(amps) < 2 {
		return nil, fmt.Errorf("envelope needs at least 2 points, got %d", len(amps))
	}
	for i, amp := range amps {
		if !(amp >= 0 && amp <= 1) {
			return nil, fmt.Errorf("amplitude %v at octave %d is out of [0,1]", amp, i)
		}
	}
	if amps[0] != 0 || amps[len(amps)-1] != 0 {
		return nil, fmt.Errorf("envelope must be 0 at both ends")
	}
	copied := make([]float64, len(amps))
	copy(copied, amps)
	return &Envelope{minFreq: minFreq, amps: copied}, nil
}

// NumOctaves ...
func (e *Envelope) NumOctaves() int {
	return len(e.amps) - 1
}

// MinFreq ...
func (e *Envelope) MinFreq() float64 {
	return e.minFreq
}

// MaxFreq ...
func (e *Envelope) MaxFreq() float64 {
	return e.minFreq * math.Pow(2, float64(e.NumOctaves()))
}

// AmplitudeForFrequency ...
func (e *Envelope) AmplitudeForFrequency(freq float64) float64 {
	octave := math.Log2(freq / e.minFreq)
	// also rejects NaN
	if !(octave > 0 && octave < float64(e.NumOctaves())) {
		return 0
	}
	index := int(math.Floor(octave))
	frac := octave - float64(index)
	return (1-frac)*e.amps[index] + frac*e.amps[index+1]
}
