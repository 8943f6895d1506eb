package audio

import (
	"errors"
	"math"

	"github.com/jinjor/shepard-glissando/src/glissando"
)

var errDisposed = errors.New("node is disposed")

// ----- OSC ----- //

type osc struct {
	stage    *Stage
	kind     glissando.Waveform
	freq     *param
	phase01  float64
	started  bool
	startAt  float64 // sec
	gain     *gain
	disposed bool
}

var _ glissando.Oscillator = (*osc)(nil)

// Frequency ...
func (o *osc) Frequency() glissando.Param {
	return o.freq
}

// Start ...
func (o *osc) Start(at float64) error {
	o.stage.Lock()
	defer o.stage.Unlock()
	if o.disposed {
		return errDisposed
	}
	o.started = true
	o.startAt = at
	return nil
}

// Dispose ...
func (o *osc) Dispose() error {
	o.stage.Lock()
	defer o.stage.Unlock()
	o.disposed = true
	o.stage.removeOsc(o)
	return nil
}

func (o *osc) step(t float64) float64 {
	freq := o.freq.valueAt(t)
	if !o.started || t < o.startAt {
		return 0
	}
	value := 0.0
	if o.kind == glissando.WaveSine {
		value = math.Sin(2 * math.Pi * o.phase01)
	} else if wts, ok := o.stage.wavetables[o.kind]; ok {
		value = wts.getAtFreq(freq, 2*math.Pi*o.phase01)
	}
	o.phase01 = positiveMod(o.phase01+freq*secPerSample, 1)
	return value
}

// ----- Gain ----- //

type gain struct {
	stage    *Stage
	gain     *param
	channel  int
	disposed bool
}

var _ glissando.Gain = (*gain)(nil)

// Gain ...
func (g *gain) Gain() glissando.Param {
	return g.gain
}

// Dispose ...
func (g *gain) Dispose() error {
	g.stage.Lock()
	defer g.stage.Unlock()
	g.disposed = true
	return nil
}

func positiveMod(a float64, b float64) float64 {
	m := math.Mod(a, b)
	if m < 0 {
		m += b
	}
	return m
}
