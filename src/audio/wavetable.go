package audio

import (
	"fmt"
	"math"
	"sync"

	"github.com/jinjor/shepard-glissando/src/glissando"
)

const baseFreq = 442.0
const numNotes = 128
const numTableSamples = 4096

type wavetable struct {
	values []float64
}

func newWavetable(cap int) *wavetable {
	return &wavetable{
		values: make([]float64, 0, cap),
	}
}
func (wt *wavetable) generate(samples int, phaseToValue func(phase float64) float64) error {
	if samples > cap(wt.values) {
		return fmt.Errorf("capacity exceeded")
	}
	wt.values = wt.values[0:samples]
	for i := 0; i < samples; i++ {
		phase := 2.0 * math.Pi / float64(samples) * float64(i)
		wt.values[i] = phaseToValue(phase)
	}
	return nil
}
func (wt *wavetable) getAtPhase(phase float64) float64 {
	phase = positiveMod(phase, 2.0*math.Pi)
	length := len(wt.values)
	phasePerSample := 2.0 * math.Pi / float64(length)
	index := int(phase / phasePerSample)
	if index >= length {
		index = length - 1
	}
	nextIndex := index + 1
	if nextIndex >= length {
		nextIndex = 0
	}
	frac := math.Mod(phase, phasePerSample) / phasePerSample
	return wt.values[index]*(1-frac) + wt.values[nextIndex]*frac
}
func (wt *wavetable) makeBandLimitedTableForGivenNumberOfPartials(samples int, partials int, calcFourierPartialAtPhase func(n int, phase float64) float64) error {
	return wt.generate(samples, func(phase float64) float64 {
		value := 0.0
		for i := 1; i <= partials; i++ {
			value += calcFourierPartialAtPhase(i, phase)
		}
		return value
	})
}

// maxPartialsAtNote is the number of partials a table may hold so that the
// highest one stays below Nyquist when played at the note's frequency.
func maxPartialsAtNote(samples int, note int) int {
	partials := int(sampleRate / 2 / noteToFreq(note))
	if partials > samples/2-1 {
		partials = samples/2 - 1
	}
	if partials < 1 {
		partials = 1
	}
	return partials
}

// WavetableSet holds one band-limited table per note.
type WavetableSet struct {
	tables []*wavetable
}

// NewWavetableSet ...
func NewWavetableSet(tableCap int, sampleCap int) *WavetableSet {
	tables := make([]*wavetable, tableCap)
	for i := 0; i < tableCap; i++ {
		tables[i] = newWavetable(sampleCap)
	}
	return &WavetableSet{
		tables: tables,
	}
}

// MakeBandLimitedTablesForAllNotes fills every note's table. Lower notes have
// more partials, so each table starts from the one above it.
func (wts *WavetableSet) MakeBandLimitedTablesForAllNotes(samples int, calcFourierPartialAtPhase func(n int, phase float64) float64) error {
	if cap(wts.tables) < numNotes {
		return fmt.Errorf("capacity of tables exceeded")
	}
	wts.tables = wts.tables[0:numNotes]
	sum := make([]float64, samples)
	partials := 0
	for note := numNotes - 1; note >= 0; note-- {
		for n := partials + 1; n <= maxPartialsAtNote(samples, note); n++ {
			for i := range sum {
				phase := 2.0 * math.Pi / float64(samples) * float64(i)
				sum[i] += calcFourierPartialAtPhase(n, phase)
			}
			partials = n
		}
		wt := wts.tables[note]
		if samples > cap(wt.values) {
			return fmt.Errorf("capacity exceeded")
		}
		wt.values = wt.values[0:samples]
		copy(wt.values, sum)
	}
	return nil
}

// getAtFreq reads the table whose partials all stay below Nyquist at freq.
func (wts *WavetableSet) getAtFreq(freq float64, phase float64) float64 {
	return wts.tables[freqToNote(freq)].getAtPhase(phase)
}

func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}

// freqToNote rounds up so the chosen table is never richer than freq allows.
func freqToNote(freq float64) int {
	if !(freq > 0) {
		return 0
	}
	note := int(math.Ceil(math.Log2(freq/baseFreq)*12.0)) + 69
	if note < 0 {
		note = 0
	}
	if note >= numNotes {
		note = numNotes - 1
	}
	return note
}

// ----- Partials ----- //
// Scaled so that every wave swings about ±1 like the sine.

func calcPartialSquareAtPhase(n int, phase float64) float64 {
	if n%2 == 1 {
		x := float64(n)
		return 4 / math.Pi * math.Sin(x*phase) / x
	}
	return 0.0
}
func calcPartialSawAtPhase(n int, phase float64) float64 {
	x := float64(n)
	return -2 / math.Pi * math.Sin(x*phase) / x
}
func calcPartialTriangleAtPhase(n int, phase float64) float64 {
	if n%2 == 1 {
		x := float64(n)
		return -8 / (math.Pi * math.Pi) * math.Cos(x*phase) / (x * x)
	}
	return 0.0
}

var (
	wavetablesOnce sync.Once
	wavetables     map[glissando.Waveform]*WavetableSet
)

// bandLimitedWavetables builds the square, sawtooth and triangle tables on
// first use and shares them between stages.
func bandLimitedWavetables() map[glissando.Waveform]*WavetableSet {
	wavetablesOnce.Do(func() {
		partials := map[glissando.Waveform]func(n int, phase float64) float64{
			glissando.WaveSquare:   calcPartialSquareAtPhase,
			glissando.WaveSawtooth: calcPartialSawAtPhase,
			glissando.WaveTriangle: calcPartialTriangleAtPhase,
		}
		wavetables = make(map[glissando.Waveform]*WavetableSet, len(partials))
		for wave, calc := range partials {
			wts := NewWavetableSet(numNotes, numTableSamples)
			if err := wts.MakeBandLimitedTablesForAllNotes(numTableSamples, calc); err != nil {
				panic(err)
			}
			wavetables[wave] = wts
		}
	})
	return wavetables
}
