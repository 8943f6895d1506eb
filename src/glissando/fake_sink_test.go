package glissando

import (
	"errors"
	"fmt"
	"testing"
)

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

// ----- Fake Clock ----- //

type fakeClock struct {
	now float64
}

func (c *fakeClock) Now() float64 {
	return c.now
}

// ----- Fake Sink ----- //

var errFake = errors.New("fake failure")

type fakeParam struct {
	name     string
	value    float64
	commands []Command
	fail     bool
	failSet  bool // fail only CommandSet
}

func (p *fakeParam) Schedule(c Command) error {
	if p.fail || (p.failSet && c.Kind == CommandSet) {
		return fmt.Errorf("%s: %w", p.name, errFake)
	}
	p.commands = append(p.commands, c)
	if c.Kind != CommandCancel {
		p.value = c.Value
	}
	return nil
}

// last returns the last non-cancel command.
func (p *fakeParam) last() Command {
	for i := len(p.commands) - 1; i >= 0; i-- {
		if p.commands[i].Kind != CommandCancel {
			return p.commands[i]
		}
	}
	return Command{}
}

type fakeOscillator struct {
	wave     Waveform
	freq     *fakeParam
	started  bool
	disposed bool
}

func (o *fakeOscillator) Frequency() Param { return o.freq }
func (o *fakeOscillator) Start(at float64) error {
	o.started = true
	return nil
}
func (o *fakeOscillator) Dispose() error {
	o.disposed = true
	return nil
}

type fakeGain struct {
	gain     *fakeParam
	channel  int
	disposed bool
}

func (g *fakeGain) Gain() Param { return g.gain }
func (g *fakeGain) Dispose() error {
	g.disposed = true
	return nil
}

type fakeSink struct {
	channels    int
	notReady    bool
	failOscAt   int // fail the n-th CreateOscillator (1-based), 0 never
	oscs        []*fakeOscillator
	gains       []*fakeGain
	master      *fakeParam
	createCount int
}

func newFakeSink(channels int) *fakeSink {
	return &fakeSink{channels: channels, master: &fakeParam{name: "master"}}
}

func (s *fakeSink) Ready() bool      { return !s.notReady }
func (s *fakeSink) NumChannels() int { return s.channels }
func (s *fakeSink) Master() Param    { return s.master }
func (s *fakeSink) CreateOscillator(wave Waveform) (Oscillator, error) {
	s.createCount++
	if s.failOscAt == s.createCount {
		return nil, errFake
	}
	o := &fakeOscillator{wave: wave, freq: &fakeParam{name: fmt.Sprintf("freq%d", len(s.oscs))}}
	s.oscs = append(s.oscs, o)
	return o, nil
}
func (s *fakeSink) CreateGain() (Gain, error) {
	g := &fakeGain{gain: &fakeParam{name: fmt.Sprintf("gain%d", len(s.gains))}}
	s.gains = append(s.gains, g)
	return g, nil
}
func (s *fakeSink) Connect(osc Oscillator, gain Gain, channel int) error {
	gain.(*fakeGain).channel = channel
	return nil
}
