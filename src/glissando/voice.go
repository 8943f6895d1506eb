package glissando

import (
	"fmt"
	"log"
	"math"
)

// ----- Voice ----- //

// Voice is one oscillator+gain pair sliding through the octaves.
type Voice struct {
	octave     int
	channel    int
	waveform   Waveform
	oscillator Oscillator
	gain       Gain
}

// Octave ...
func (v *Voice) Octave() int {
	return v.octave
}

// Channel ...
func (v *Voice) Channel() int {
	return v.channel
}

// Waveform ...
func (v *Voice) Waveform() Waveform {
	return v.waveform
}

func (v *Voice) dispose() error {
	var firstErr error
	if v.oscillator != nil {
		if err := v.oscillator.Dispose(); err != nil {
			firstErr = err
		}
		v.oscillator = nil
	}
	if v.gain != nil {
		if err := v.gain.Dispose(); err != nil && firstErr == nil {
			firstErr = err
		}
		v.gain = nil
	}
	return firstErr
}

// ----- Voice Bank ----- //

func positiveModInt(a int, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// createVoices allocates every voice or none of them.
func createVoices(specs []VoiceSpec, sink Sink, fundamental float64, numOctaves int, now float64) ([]*Voice, error) {
	numChannels := sink.NumChannels()
	if numChannels <= 0 {
		return nil, fmt.Errorf("output has no channels")
	}
	for i, spec := range specs {
		if spec.Octave < 0 || spec.Octave >= numOctaves {
			return nil, fmt.Errorf("voice %d: octave %d is out of [0,%d)", i, spec.Octave, numOctaves)
		}
	}
	voices := make([]*Voice, 0, len(specs))
	ok := false
	defer func() {
		if ok {
			return
		}
		for _, v := range voices {
			if err := v.dispose(); err != nil {
				log.Printf("failed to dispose voice: %v\n", err)
			}
		}
	}()
	log.Printf("setting up %d voices:\n", len(specs))
	for i, spec := range specs {
		v := &Voice{
			octave:   spec.Octave,
			channel:  spec.Channel,
			waveform: spec.Waveform,
		}
		voices = append(voices, v)
		osc, err := sink.CreateOscillator(spec.Waveform)
		if err != nil {
			return nil, fmt.Errorf("failed to create oscillator %d: %w", i, err)
		}
		v.oscillator = osc
		gain, err := sink.CreateGain()
		if err != nil {
			return nil, fmt.Errorf("failed to create gain %d: %w", i, err)
		}
		v.gain = gain
		freq := fundamental * math.Pow(2, float64(spec.Octave))
		if err := osc.Frequency().Schedule(SetAt(freq, now)); err != nil {
			return nil, fmt.Errorf("failed to set frequency of oscillator %d: %w", i, err)
		}
		if err := gain.Gain().Schedule(SetAt(0, now)); err != nil {
			return nil, fmt.Errorf("failed to set gain %d: %w", i, err)
		}
		ch := positiveModInt(spec.Channel, numChannels)
		if err := sink.Connect(osc, gain, ch); err != nil {
			return nil, fmt.Errorf("failed to connect voice %d: %w", i, err)
		}
		if err := osc.Start(now); err != nil {
			return nil, fmt.Errorf("failed to start oscillator %d: %w", i, err)
		}
		log.Printf("  osc %d: channel %d, octave %d, %s, %vHz\n", i, ch, spec.Octave, spec.Waveform, freq)
	}
	ok = true
	return voices, nil
}
