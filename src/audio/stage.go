package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/hajimehoshi/oto"
	"github.com/jinjor/shepard-glissando/src/glissando"
)

const (
	sampleRate      = 48000
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	maxChannels     = 2 // oto supports mono and stereo
)
const secPerSample = 1.0 / sampleRate

func bufferSizeInBytes(channels int) int {
	return samplesPerCycle * bitDepthInBytes * channels // should be >= 4096
}

// ----- Stage ----- //

// Stage is a software audio graph: oscillators feed gains, gains are summed
// into output channels, and every channel goes through the master gain.
// Its clock is the position of the rendered stream.
type Stage struct {
	sync.Mutex
	ctx        context.Context
	otoContext *oto.Context
	channels   int
	oscs       []*osc
	master     *param
	pos        int64 // samples rendered
	running    bool
	mix        []float64 // length: channels
	wavetables map[glissando.Waveform]*WavetableSet
}

var _ glissando.Sink = (*Stage)(nil)
var _ glissando.Clock = (*Stage)(nil)
var _ io.Reader = (*Stage)(nil)

func newStage(channels int) *Stage {
	s := &Stage{
		ctx:        context.Background(),
		channels:   channels,
		mix:        make([]float64, channels),
		wavetables: bandLimitedWavetables(),
	}
	s.master = newParam(&s.Mutex, nil, 1)
	return s
}

// NewStage opens the default audio device with the given channel count.
func NewStage(channels int) (*Stage, error) {
	if channels < 1 || channels > maxChannels {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}
	otoContext, err := oto.NewContext(sampleRate, channels, bitDepthInBytes, bufferSizeInBytes(channels))
	if err != nil {
		return nil, err
	}
	s := newStage(channels)
	s.otoContext = otoContext
	log.Printf("audio output: %d channels, %dHz\n", channels, sampleRate)
	return s, nil
}

// Now returns the stream time in seconds.
func (s *Stage) Now() float64 {
	s.Lock()
	defer s.Unlock()
	return float64(s.pos) * secPerSample
}

// Ready reports whether the stage is streaming.
func (s *Stage) Ready() bool {
	s.Lock()
	defer s.Unlock()
	return s.running
}

// NumChannels ...
func (s *Stage) NumChannels() int {
	return s.channels
}

// Master ...
func (s *Stage) Master() glissando.Param {
	return s.master
}

// CreateOscillator ...
func (s *Stage) CreateOscillator(wave glissando.Waveform) (glissando.Oscillator, error) {
	s.Lock()
	defer s.Unlock()
	o := &osc{stage: s, kind: wave}
	o.freq = newParam(&s.Mutex, &o.disposed, 440)
	s.oscs = append(s.oscs, o)
	return o, nil
}

// CreateGain ...
func (s *Stage) CreateGain() (glissando.Gain, error) {
	s.Lock()
	defer s.Unlock()
	g := &gain{stage: s}
	g.gain = newParam(&s.Mutex, &g.disposed, 1)
	return g, nil
}

// Connect ...
func (s *Stage) Connect(o glissando.Oscillator, g glissando.Gain, channel int) error {
	_o, ok := o.(*osc)
	if !ok || _o.stage != s {
		return fmt.Errorf("oscillator does not belong to this stage")
	}
	_g, ok := g.(*gain)
	if !ok || _g.stage != s {
		return fmt.Errorf("gain does not belong to this stage")
	}
	if channel < 0 || channel >= s.channels {
		return fmt.Errorf("channel %d is out of range", channel)
	}
	s.Lock()
	defer s.Unlock()
	if _o.disposed || _g.disposed {
		return errDisposed
	}
	_o.gain = _g
	_g.channel = channel
	return nil
}

func (s *Stage) removeOsc(o *osc) {
	for i, x := range s.oscs {
		if x == o {
			s.oscs = append(s.oscs[:i], s.oscs[i+1:]...)
			return
		}
	}
}

func (s *Stage) Read(buf []byte) (int, error) {
	s.Lock()
	defer s.Unlock()
	select {
	case <-s.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
	}
	bytesPerSample := bitDepthInBytes * s.channels
	bufSamples := len(buf) / bytesPerSample
	for i := 0; i < bufSamples; i++ {
		t := float64(s.pos) * secPerSample
		s.render(t)
		for ch, value := range s.mix {
			writeSample(buf[bytesPerSample*i+bitDepthInBytes*ch:], value)
		}
		s.pos++
	}
	return bufSamples * bytesPerSample, nil
}

func (s *Stage) render(t float64) {
	for ch := range s.mix {
		s.mix[ch] = 0
	}
	for _, o := range s.oscs {
		value := o.step(t)
		g := o.gain
		if g == nil || g.disposed {
			continue
		}
		s.mix[g.channel] += value * g.gain.valueAt(t)
	}
	master := s.master.valueAt(t)
	for ch := range s.mix {
		s.mix[ch] *= master
	}
}

func writeSample(buf []byte, value float64) {
	const max = 32767
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}
	b := int16(value * max)
	buf[0] = byte(b)
	buf[1] = byte(b >> 8)
}

// Start streams the stage to the audio device until ctx is done.
func (s *Stage) Start(ctx context.Context) error {
	if s.otoContext == nil {
		return fmt.Errorf("audio device is not open")
	}
	p := s.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	s.Lock()
	s.ctx = ctx
	s.running = true
	s.Unlock()
	defer func() {
		s.Lock()
		s.running = false
		s.Unlock()
	}()

	// block until cancel() called
	if _, err := io.CopyBuffer(p, s, make([]byte, bufferSizeInBytes(s.channels))); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// Close ...
func (s *Stage) Close() error {
	log.Println("Closing Stage...")
	if s.otoContext == nil {
		return nil
	}
	return s.otoContext.Close()
}
