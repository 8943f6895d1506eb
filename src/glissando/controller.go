package glissando

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// maxShiftPerTick keeps a single fold enough to bring the fundamental back into one octave.
const maxShiftPerTick = 1200.0 // cents

// ----- Atomic Float ----- //

type atomicFloat struct {
	bits uint64
}

func (f *atomicFloat) load() float64 {
	return math.Float64frombits(atomic.LoadUint64(&f.bits))
}
func (f *atomicFloat) store(v float64) {
	atomic.StoreUint64(&f.bits, math.Float64bits(v))
}

// ----- Controller ----- //

// Controller runs the glissando: it owns the shared fundamental and the voice
// bank and is the only thing that mutates them.
type Controller struct {
	mu            sync.Mutex
	sink          Sink
	clock         Clock
	envelope      *Envelope
	voices        []*Voice
	period        float64 // sec
	interval      time.Duration
	headroom      float64
	fundamental   float64 // Hz
	lastTime      float64 // sec
	speed         atomicFloat
	volume        atomicFloat
	appliedVolume float64
	closed        bool
}

// NewController creates the voice bank on sink and prepares the control loop.
// Nothing is left allocated on sink when it fails.
func NewController(sink Sink, clock Clock, specs []VoiceSpec, config *Config) (*Controller, error) {
	if config == nil {
		config = NewConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	envelope, err := NewEnvelope(config.MinFreq, config.Amps)
	if err != nil {
		return nil, err
	}
	now := clock.Now()
	voices, err := createVoices(specs, sink, config.MinFreq, envelope.NumOctaves(), now)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		sink:          sink,
		clock:         clock,
		envelope:      envelope,
		voices:        voices,
		period:        config.ControlPeriod.Seconds(),
		interval:      config.ControlPeriod,
		headroom:      config.Headroom,
		fundamental:   config.MinFreq,
		lastTime:      now,
		appliedVolume: math.NaN(),
	}
	c.speed.store(config.Speed)
	c.SetVolume(config.Volume)
	c.applyVolume(now)
	return c, nil
}

// SetSpeed sets the glissando speed in cents per second. Safe from any goroutine.
func (c *Controller) SetSpeed(speed float64) {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		log.Printf("ignored invalid speed: %v\n", speed)
		return
	}
	c.speed.store(speed)
}

// SetVolume sets the output volume (0-100). Safe from any goroutine.
func (c *Controller) SetVolume(volume float64) {
	if math.IsNaN(volume) {
		log.Printf("ignored invalid volume: %v\n", volume)
		return
	}
	c.volume.store(math.Max(0, math.Min(100, volume)))
}

// Speed ...
func (c *Controller) Speed() float64 {
	return c.speed.load()
}

// Volume ...
func (c *Controller) Volume() float64 {
	return c.volume.load()
}

// Fundamental ...
func (c *Controller) Fundamental() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fundamental
}

// Octaves returns the current octave of every voice in creation order.
func (c *Controller) Octaves() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	octaves := make([]int, len(c.voices))
	for i, v := range c.voices {
		octaves[i] = v.octave
	}
	return octaves
}

// Tick runs one control frame.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.sink.Ready() {
		return
	}
	now := c.clock.Now()
	if math.IsNaN(now) || math.IsInf(now, 0) || now < c.lastTime {
		log.Printf("skipped control frame: bad clock %v (last %v)\n", now, c.lastTime)
		return
	}
	speed := c.speed.load()
	octaveIncr := c.advance(speed, now-c.lastTime)
	numOctaves := c.envelope.NumOctaves()
	end := now + c.period

	for i, v := range c.voices {
		octave := v.octave + octaveIncr
		var err error
		if (speed >= 0 && octave < numOctaves) || (speed < 0 && octave >= 0) {
			freq := c.fundamental * math.Pow(2, float64(octave))
			amp := c.headroom * c.envelope.AmplitudeForFrequency(freq)
			err = v.slide(freq, amp, now, end)
		} else {
			// wrapped off one edge; re-enter silently at the other
			if octave >= numOctaves {
				octave = 0
			} else {
				octave = numOctaves - 1
			}
			freq := c.fundamental * math.Pow(2, float64(octave))
			err = v.jump(freq, now, end)
		}
		if err != nil {
			// the voice misses this frame but still takes the fold so it keeps its place
			log.Printf("failed to update voice %d: %v\n", i, err)
		}
		v.octave = octave
	}
	c.applyVolume(now)
	c.lastTime = now
}

// advance moves the fundamental by speed*dT and folds it back into
// [minFreq, 2*minFreq]. It returns the octave shift every voice must take.
func (c *Controller) advance(speed float64, dT float64) int {
	// after a long gap the fundamental lags real time instead of skipping octaves
	shift := math.Max(-maxShiftPerTick, math.Min(maxShiftPerTick, speed*dT))
	c.fundamental *= CentsToRatio(shift)
	minFreq := c.envelope.MinFreq()
	if speed >= 0 && c.fundamental > 2*minFreq {
		c.fundamental *= 0.5
		return 1
	} else if speed < 0 && c.fundamental < minFreq {
		c.fundamental *= 2
		return -1
	}
	return 0
}

func (v *Voice) slide(freq float64, amp float64, now float64, end float64) error {
	if err := v.cancel(now); err != nil {
		return err
	}
	if err := v.oscillator.Frequency().Schedule(RampTo(freq, now, end)); err != nil {
		return err
	}
	return v.gain.Gain().Schedule(RampTo(amp, now, end))
}

func (v *Voice) jump(freq float64, now float64, end float64) error {
	if err := v.cancel(now); err != nil {
		return err
	}
	// silence first: never move a voice that is still audible
	if err := v.gain.Gain().Schedule(SetAt(0, end)); err != nil {
		return err
	}
	return v.oscillator.Frequency().Schedule(SetAt(freq, end))
}

func (v *Voice) cancel(now float64) error {
	if v.oscillator == nil || v.gain == nil {
		return fmt.Errorf("voice is disposed")
	}
	if err := v.oscillator.Frequency().Schedule(CancelAt(now)); err != nil {
		return err
	}
	return v.gain.Gain().Schedule(CancelAt(now))
}

func (c *Controller) applyVolume(now float64) {
	volume := c.volume.load()
	if volume == c.appliedVolume {
		return
	}
	if err := c.sink.Master().Schedule(SetAt(VolumeToGain(volume), now)); err != nil {
		log.Printf("failed to apply volume: %v\n", err)
		return
	}
	c.appliedVolume = volume
}

// Run ticks every control period until ctx is done, then releases the voices.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	c.lastTime = c.clock.Now()
	c.mu.Unlock()
	t := time.NewTicker(c.interval)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Run() interrupted")
			break loop
		case <-t.C:
			c.Tick()
		}
	}
	log.Println("Run() ended.")
	return c.Close()
}

// Close releases every voice. Calling it again does nothing.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var firstErr error
	for _, v := range c.voices {
		if err := v.dispose(); err != nil {
			log.Printf("failed to dispose voice: %v\n", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

type statusJSON struct {
	Fundamental float64 `json:"fundamental"`
	Speed       float64 `json:"speed"`
	Volume      float64 `json:"volume"`
	Octaves     []int   `json:"octaves"`
}

// ToJSON returns a snapshot of the glissando state.
func (c *Controller) ToJSON() []byte {
	octaves := c.Octaves()
	return toRawMessage(&statusJSON{
		Fundamental: c.Fundamental(),
		Speed:       c.Speed(),
		Volume:      c.Volume(),
		Octaves:     octaves,
	})
}
