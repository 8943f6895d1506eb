package glissando

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ----- Config ----- //

// Config ...
type Config struct {
	MinFreq       float64       // Hz
	Amps          []float64     // envelope, one point per octave boundary
	ControlPeriod time.Duration // interval between control frames
	Headroom      float64       // scale applied to every voice amplitude
	Volume        float64       // 0-100
	Speed         float64       // cents per second
}

// NewConfig returns the reference setup: ten octaves from 20Hz.
func NewConfig() *Config {
	return &Config{
		MinFreq:       20,
		Amps:          []float64{0, 0.707, 1, 1, 1, 1, 1, 1, 1, 0.707, 0},
		ControlPeriod: 10 * time.Millisecond,
		Headroom:      0.1,
		Volume:        50,
		Speed:         100,
	}
}

func (c *Config) validate() error {
	if c.ControlPeriod <= 0 {
		return fmt.Errorf("control period must be positive, got %v", c.ControlPeriod)
	}
	if !(c.Headroom >= 0) || math.IsInf(c.Headroom, 0) {
		return fmt.Errorf("invalid headroom %v", c.Headroom)
	}
	if math.IsNaN(c.Speed) || math.IsInf(c.Speed, 0) {
		return fmt.Errorf("invalid speed %v", c.Speed)
	}
	if math.IsNaN(c.Volume) {
		return fmt.Errorf("invalid volume %v", c.Volume)
	}
	return nil
}

// ----- Voice Spec ----- //

// VoiceSpec describes one voice to create at startup.
type VoiceSpec struct {
	Octave   int
	Channel  int
	Waveform Waveform
}

type voiceJSON struct {
	Octave   int    `json:"octave"`
	Channel  int    `json:"channel"`
	Waveform string `json:"waveform"`
}

// DefaultVoiceSpecs returns one sine voice per octave, each on its own channel.
func DefaultVoiceSpecs(numOctaves int) []VoiceSpec {
	specs := make([]VoiceSpec, numOctaves)
	for i := range specs {
		specs[i] = VoiceSpec{Octave: i, Channel: i, Waveform: WaveSine}
	}
	return specs
}

// ParseVoiceSpecs reads a JSON array like [{"octave":0,"channel":0,"waveform":"sine"}].
// A missing waveform means sine.
func ParseVoiceSpecs(data []byte) ([]VoiceSpec, error) {
	var j []voiceJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to parse voices: %w", err)
	}
	specs := make([]VoiceSpec, len(j))
	for i, v := range j {
		wave := WaveSine
		if v.Waveform != "" {
			w, err := ParseWaveform(v.Waveform)
			if err != nil {
				return nil, fmt.Errorf("voice %d: %w", i, err)
			}
			wave = w
		}
		specs[i] = VoiceSpec{Octave: v.Octave, Channel: v.Channel, Waveform: wave}
	}
	return specs, nil
}

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}
