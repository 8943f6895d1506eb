package audio

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/jinjor/shepard-glissando/src/glissando"
)

func sampleAt(buf []byte, channels int, i int, ch int) int16 {
	offset := (i*channels + ch) * bitDepthInBytes
	return int16(uint16(buf[offset]) | uint16(buf[offset+1])<<8)
}

func newTestVoice(t *testing.T, s *Stage, wave glissando.Waveform, channel int, level float64) glissando.Oscillator {
	t.Helper()
	o, err := s.CreateOscillator(wave)
	expectNoError(t, err)
	g, err := s.CreateGain()
	expectNoError(t, err)
	expectNoError(t, o.Frequency().Schedule(glissando.SetAt(440, 0)))
	expectNoError(t, g.Gain().Schedule(glissando.SetAt(level, 0)))
	expectNoError(t, s.Connect(o, g, channel))
	expectNoError(t, o.Start(0))
	return o
}

func TestStageClockFollowsRendering(t *testing.T) {
	s := newStage(2)
	expectValue(t, s.Now(), 0)
	buf := make([]byte, 480*2*bitDepthInBytes)
	n, err := s.Read(buf)
	expectNoError(t, err)
	if n != len(buf) {
		t.Errorf("expected %d bytes, but got %d", len(buf), n)
	}
	expectValue(t, s.Now(), 0.01)
}

func TestStageRoutesToChannel(t *testing.T) {
	s := newStage(2)
	newTestVoice(t, s, glissando.WaveSine, 1, 1)
	expectNoError(t, s.Master().Schedule(glissando.SetAt(0.5, 0)))
	buf := make([]byte, 64*2*bitDepthInBytes)
	_, err := s.Read(buf)
	expectNoError(t, err)
	for i := 0; i < 64; i++ {
		if v := sampleAt(buf, 2, i, 0); v != 0 {
			t.Fatalf("channel 0 sample %d: expected silence, but got %d", i, v)
		}
		want := int16(0.5 * math.Sin(2*math.Pi*440*float64(i)/sampleRate) * 32767)
		if v := sampleAt(buf, 2, i, 1); v < want-1 || v > want+1 {
			t.Fatalf("channel 1 sample %d: expected %d, but got %d", i, want, v)
		}
	}
}

func TestStageSilentVoice(t *testing.T) {
	s := newStage(1)
	newTestVoice(t, s, glissando.WaveSawtooth, 0, 0)
	buf := make([]byte, 256*bitDepthInBytes)
	_, err := s.Read(buf)
	expectNoError(t, err)
	for i := 0; i < 256; i++ {
		if v := sampleAt(buf, 1, i, 0); v != 0 {
			t.Fatalf("sample %d: expected silence, but got %d", i, v)
		}
	}
}

func TestStageClips(t *testing.T) {
	s := newStage(1)
	newTestVoice(t, s, glissando.WaveSquare, 0, 1)
	newTestVoice(t, s, glissando.WaveSquare, 0, 1)
	buf := make([]byte, 40*bitDepthInBytes)
	_, err := s.Read(buf)
	expectNoError(t, err)
	// the first half cycle of 440Hz is high
	for i := 20; i < 35; i++ {
		if v := sampleAt(buf, 1, i, 0); v != 32767 {
			t.Errorf("sample %d: expected 32767, but got %d", i, v)
		}
	}
}

func TestStageDisposedNodes(t *testing.T) {
	s := newStage(2)
	o := newTestVoice(t, s, glissando.WaveSine, 0, 1)
	expectNoError(t, o.Dispose())
	if err := o.Frequency().Schedule(glissando.SetAt(1, 0)); !errors.Is(err, errDisposed) {
		t.Errorf("expected errDisposed, but got %v", err)
	}
	if len(s.oscs) != 0 {
		t.Errorf("disposed oscillator is still rendered")
	}
}

func TestStageRejectsBadConnections(t *testing.T) {
	s := newStage(2)
	other := newStage(2)
	o, _ := s.CreateOscillator(glissando.WaveSine)
	g, _ := s.CreateGain()
	og, _ := other.CreateGain()
	if err := s.Connect(o, g, 2); err == nil {
		t.Error("expected error for channel out of range")
	}
	if err := s.Connect(o, og, 0); err == nil {
		t.Error("expected error for foreign gain")
	}
	expectNoError(t, s.Connect(o, g, 1))
}

func TestStageStopsOnCancel(t *testing.T) {
	s := newStage(2)
	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	cancel()
	if _, err := s.Read(make([]byte, 64)); err != io.EOF {
		t.Errorf("expected io.EOF, but got %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error without audio device")
	}
}

func TestStageDrivenByController(t *testing.T) {
	s := newStage(2)
	config := glissando.NewConfig()
	config.Volume = 100
	config.Speed = 1200
	c, err := glissando.NewController(s, s, glissando.DefaultVoiceSpecs(10), config)
	expectNoError(t, err)
	defer c.Close()

	c.Tick()
	if c.Fundamental() != 20 {
		t.Fatalf("controller ticked before the stage was running")
	}
	s.running = true
	buf := make([]byte, 480*2*bitDepthInBytes)
	nonZero := false
	for n := 0; n < 20; n++ {
		c.Tick()
		_, err := s.Read(buf)
		expectNoError(t, err)
		for i := 0; i < 480 && !nonZero; i++ {
			nonZero = sampleAt(buf, 2, i, 0) != 0 || sampleAt(buf, 2, i, 1) != 0
		}
	}
	if !nonZero {
		t.Error("expected sound")
	}
	if f := c.Fundamental(); f <= 20 || f > 40 {
		t.Errorf("fundamental did not move: %v", f)
	}
}

func TestWriteSample(t *testing.T) {
	buf := make([]byte, 2)
	for _, c := range []struct {
		value float64
		want  int16
	}{{0, 0}, {1, 32767}, {-1, -32767}, {2, 32767}, {-2, -32767}, {0.5, 16383}} {
		writeSample(buf, c.value)
		if got := int16(uint16(buf[0]) | uint16(buf[1])<<8); got != c.want {
			t.Errorf("writeSample(%v) = %d, want %d", c.value, got, c.want)
		}
	}
}
